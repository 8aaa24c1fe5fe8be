package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/lapicque/internal/adapters/http/api"
	"github.com/okian/lapicque/internal/adapters/http/site"
	"github.com/okian/lapicque/internal/adapters/http/swagger"
	"github.com/okian/lapicque/internal/config"
	"github.com/okian/lapicque/pkg/logger"
	"github.com/spf13/cobra"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the network in real time behind the HTTP API",
		Long: `Run the network in real time and expose it over HTTP.

Stimuli are accepted on POST /stimuli, the latest frame is served on
GET /network and the live dashboard on /dashboard. SIGINT or SIGTERM
shuts the server down gracefully.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Init(); err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Addr = addr
			}
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().String("addr", "", "HTTP listen address (overrides config)")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	topo, err := loadTopology(cfg.TopologyPath, cfg.NeuronCount)
	if err != nil {
		return err
	}

	svc := newService(cfg, topo)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	runErr := make(chan error, 1)
	go func() {
		runErr <- svc.Run(ctx)
	}()

	srvErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.Int("neurons", len(topo.Neurons)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	var failure error
	select {
	case <-ctx.Done():
		log.Info(ctx, "shutting down server...")
	case err := <-runErr:
		runErr = nil
		if err != nil {
			failure = fmt.Errorf("simulation stopped: %w", err)
		}
	case err, ok := <-srvErr:
		if ok {
			failure = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	svc.Stop()
	if runErr != nil {
		if err := <-runErr; err != nil {
			log.Warn(ctx, "simulation exited with error", logger.Error(err))
		}
	}

	log.Info(ctx, "server stopped")
	return failure
}
