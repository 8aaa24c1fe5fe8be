package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/lapicque/internal/config"
	"github.com/okian/lapicque/internal/domain/neuron"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.TickIntervalMS, convey.ShouldEqual, 10)
			convey.So(cfg.FrameIntervalMS, convey.ShouldEqual, 100)
			convey.So(cfg.StimulusQueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.NeuronCount, convey.ShouldEqual, 2)
			convey.So(cfg.TopologyPath, convey.ShouldBeEmpty)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the neuron defaults match the neuron package", func() {
			convey.So(cfg.NeuronParams(), convey.ShouldResemble, neuron.DefaultParams())
		})

		convey.Convey("Then intervals convert to durations", func() {
			convey.So(cfg.TickInterval(), convey.ShouldEqual, 10*time.Millisecond)
			convey.So(cfg.FrameInterval(), convey.ShouldEqual, 100*time.Millisecond)
		})
	})
}
