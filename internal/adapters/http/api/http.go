// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	stimqueue "github.com/okian/lapicque/internal/adapters/mq/queue"
	"github.com/okian/lapicque/internal/adapters/repository"
	"github.com/okian/lapicque/internal/domain/model"
	"github.com/okian/lapicque/internal/domain/network"
	"github.com/okian/lapicque/internal/domain/neuron"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit queues a stimulus for the next tick.
	Submit(ctx context.Context, s model.Stimulus) (model.Receipt, error)

	// Snapshot returns the latest frame.
	Snapshot() (model.Snapshot, error)

	// Neuron returns the live state of one neuron.
	Neuron(id string) (neuron.State, error)

	// TopNeurons returns the most active neurons.
	TopNeurons(ctx context.Context, n int) ([]repository.Entry, error)

	// NeuronRank returns the activity rank of one neuron.
	NeuronRank(ctx context.Context, id string) (repository.Entry, error)
}

// Server wires HTTP routes for the simulation API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	stimuliHandler   *StimuliHandler
	networkHandler   *NetworkHandler
	neuronHandler    *NeuronHandler
	activityHandler  *ActivityHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		stimuliHandler:   NewStimuliHandler(deps),
		networkHandler:   NewNetworkHandler(deps),
		neuronHandler:    NewNeuronHandler(deps),
		activityHandler:  NewActivityHandler(deps, maxActivityLimit),
		dashboardHandler: newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/stimuli", MetricsMiddleware(s.stimuliHandler.HandlePostStimulus, "stimuli"))
	mux.HandleFunc("/network", MetricsMiddleware(s.networkHandler.HandleGetNetwork, "network"))
	mux.HandleFunc("/neurons/", MetricsMiddleware(s.neuronHandler.HandleGetNeuron, "neurons"))
	mux.HandleFunc("/activity", MetricsMiddleware(s.activityHandler.HandleGetTop, "activity"))
	mux.HandleFunc("/activity/", MetricsMiddleware(s.activityHandler.HandleGetRank, "activity_rank"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeKindError picks the status and code from the kind wrapped in err.
func writeKindError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// classify maps upstream errors onto API kinds.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, model.ErrInvalidStimulus):
		return WrapKind(op, ErrBadRequest, err)
	case errors.Is(err, network.ErrNeuronNotFound), errors.Is(err, repository.ErrNotFound):
		return WrapKind(op, ErrNotFound, err)
	case errors.Is(err, repository.ErrInvalidLimit):
		return WrapKind(op, ErrBadRequest, err)
	case errors.Is(err, stimqueue.ErrFull):
		return WrapKind(op, ErrBackpressure, err)
	case errors.Is(err, stimqueue.ErrClosed), errors.Is(err, model.ErrNotStarted):
		return WrapKind(op, ErrUnavailable, err)
	default:
		return err
	}
}
