package ticker_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/okian/lapicque/internal/adapters/ticker"
	"github.com/okian/lapicque/internal/domain/event"
	"github.com/okian/lapicque/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
}

// manualSource fires only when the test pushes a value.
type manualSource struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func newManualSource() *manualSource {
	return &manualSource{ch: make(chan time.Time), stopped: make(chan struct{})}
}

func (s *manualSource) C() <-chan time.Time { return s.ch }
func (s *manualSource) Stop()               { s.once.Do(func() { close(s.stopped) }) }

// tickLog is a subscriber that records every Tick it receives.
type tickLog struct {
	mu    sync.Mutex
	ticks []ticker.Tick
	seen  chan struct{}
}

func (l *tickLog) onTick(self any, args ...any) {
	tl := self.(*tickLog)
	tl.mu.Lock()
	tl.ticks = append(tl.ticks, args[0].(ticker.Tick))
	tl.mu.Unlock()
	if tl.seen != nil {
		tl.seen <- struct{}{}
	}
}

func (l *tickLog) snapshot() []ticker.Tick {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ticker.Tick, len(l.ticks))
	copy(out, l.ticks)
	return out
}

func TestDriver_Step(t *testing.T) {
	Convey("Given a driver bound to a created event", t, func() {
		reg := event.NewRegistry()
		h, err := reg.CreateEvent("neuron.tick")
		So(err, ShouldBeNil)
		log := &tickLog{}
		So(h.Subscribe(log, log.onTick), ShouldBeNil)

		d := ticker.New(reg, "neuron.tick", ticker.WithInterval(10*time.Millisecond))

		Convey("When stepping three times", func() {
			So(d.StepN(3), ShouldBeNil)

			Convey("Then each tick carries an increasing sequence and the interval", func() {
				ticks := log.snapshot()
				So(len(ticks), ShouldEqual, 3)
				for i, tk := range ticks {
					So(tk.Seq, ShouldEqual, uint64(i+1))
					So(tk.Interval, ShouldEqual, 10*time.Millisecond)
					So(tk.Millis(), ShouldEqual, 10.0)
				}
				So(d.Seq(), ShouldEqual, uint64(3))
			})
		})

		Convey("Then defaults apply when options are empty", func() {
			plain := ticker.New(reg, "neuron.tick", ticker.WithInterval(0), ticker.WithSourceFactory(nil), ticker.WithLogger(nil))
			So(plain.Interval(), ShouldEqual, ticker.DefaultInterval)
			So(plain.Name(), ShouldEqual, event.Name("neuron.tick"))
		})
	})

	Convey("Given a driver for an event that was never created", t, func() {
		reg := event.NewRegistry()
		d := ticker.New(reg, "missing")

		Convey("Then stepping fails with both the driver and registry kinds", func() {
			err := d.Step()
			So(errors.Is(err, ticker.ErrDispatch), ShouldBeTrue)
			So(errors.Is(err, event.ErrUnknownEvent), ShouldBeTrue)
		})

		Convey("Then Run returns the dispatch error on the first period", func() {
			src := newManualSource()
			d := ticker.New(reg, "missing", ticker.WithSourceFactory(func(time.Duration) ticker.Source { return src }))
			done := make(chan error, 1)
			go func() { done <- d.Run(context.Background()) }()
			src.ch <- time.Now()
			err := <-done
			So(errors.Is(err, event.ErrUnknownEvent), ShouldBeTrue)
		})
	})
}

func TestDriver_Run(t *testing.T) {
	Convey("Given a driver with a manual source", t, func() {
		reg := event.NewRegistry()
		h, _ := reg.CreateEvent("frame")
		log := &tickLog{seen: make(chan struct{}, 8)}
		So(h.Subscribe(log, log.onTick), ShouldBeNil)

		src := newManualSource()
		var gotInterval time.Duration
		d := ticker.New(reg, "frame",
			ticker.WithInterval(16*time.Millisecond),
			ticker.WithSourceFactory(func(interval time.Duration) ticker.Source {
				gotInterval = interval
				return src
			}),
		)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- d.Run(ctx) }()

		Convey("When the source fires twice and the context is cancelled", func() {
			src.ch <- time.Now()
			<-log.seen
			src.ch <- time.Now()
			<-log.seen

			Convey("Then a second Run is rejected while the first is active", func() {
				So(d.Run(context.Background()), ShouldEqual, ticker.ErrRunning)
			})

			cancel()
			err := <-done

			Convey("Then two ticks were dispatched and Run returned cleanly", func() {
				So(err, ShouldBeNil)
				So(len(log.snapshot()), ShouldEqual, 2)
				So(gotInterval, ShouldEqual, 16*time.Millisecond)
				<-src.stopped
			})
		})
	})
}

func TestWallClock(t *testing.T) {
	Convey("Given the wall clock source", t, func() {
		src := ticker.WallClock(time.Millisecond)
		defer src.Stop()

		Convey("Then it fires", func() {
			select {
			case <-src.C():
			case <-time.After(time.Second):
				So("wall clock did not fire", ShouldBeEmpty)
			}
		})
	})
}
