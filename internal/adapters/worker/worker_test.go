package worker_test

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/lapicque/internal/adapters/worker"
	"github.com/okian/lapicque/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
}

// blockingRunner runs until its context is cancelled.
type blockingRunner struct {
	started atomic.Bool
	stopped atomic.Bool
}

func (r *blockingRunner) Run(ctx context.Context) error {
	r.started.Store(true)
	<-ctx.Done()
	r.stopped.Store(true)
	return ctx.Err()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker around a blocking runner", t, func() {
		r := &blockingRunner{}
		w := worker.NewInMemoryWorker(r, worker.WithName("tick"))
		go w.Run(context.Background())

		convey.Convey("When it is shut down", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			err := w.Shutdown(ctx)

			convey.Convey("Then the runner is cancelled and cancellation is not an error", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(r.stopped.Load(), convey.ShouldBeTrue)
				convey.So(w.Err(), convey.ShouldBeNil)
				convey.So(w.Name(), convey.ShouldEqual, "tick")
			})

			convey.Convey("Then a second shutdown is harmless", func() {
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a runner that fails", t, func() {
		boom := errors.New("boom")
		w := worker.NewInMemoryWorker(worker.RunnerFunc(func(context.Context) error { return boom }))
		w.Run(context.Background())

		convey.Convey("Then the failure is kept", func() {
			<-w.Done()
			convey.So(errors.Is(w.Err(), boom), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a runner that ignores cancellation", t, func() {
		release := make(chan struct{})
		w := worker.NewInMemoryWorker(worker.RunnerFunc(func(context.Context) error {
			<-release
			return nil
		}))
		go w.Run(context.Background())
		defer close(release)

		convey.Convey("Then shutdown gives up at the deadline", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			err := w.Shutdown(ctx)
			convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool with two blocking runners", t, func() {
		a, b := &blockingRunner{}, &blockingRunner{}
		p := worker.NewPool(worker.WithMetricsInterval(time.Millisecond))
		p.Add("a", a)
		p.Add("b", b)
		convey.So(p.Len(), convey.ShouldEqual, 2)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p.Start(ctx)

		convey.Convey("When the context is cancelled", func() {
			cancel()
			err := p.Wait(ctx)

			convey.Convey("Then Wait returns nil and Stop joins every worker", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.Stop(context.Background()), convey.ShouldBeNil)
				convey.So(a.stopped.Load(), convey.ShouldBeTrue)
				convey.So(b.stopped.Load(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the pool is stopped directly", func() {
			convey.So(p.Stop(context.Background()), convey.ShouldBeNil)

			convey.Convey("Then both runners were cancelled", func() {
				convey.So(a.stopped.Load(), convey.ShouldBeTrue)
				convey.So(b.stopped.Load(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool where one runner fails", t, func() {
		ok := &blockingRunner{}
		boom := errors.New("boom")
		p := worker.NewPool(worker.WithMetricsInterval(0))
		p.Add("steady", ok)
		p.Add("broken", worker.RunnerFunc(func(context.Context) error { return boom }))
		p.Start(context.Background())

		convey.Convey("Then Wait reports the failing worker", func() {
			err := p.Wait(context.Background())
			convey.So(errors.Is(err, boom), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "broken")

			convey.So(p.Stop(context.Background()), convey.ShouldBeNil)
			convey.So(ok.stopped.Load(), convey.ShouldBeTrue)
		})
	})
}
