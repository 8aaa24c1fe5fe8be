package neuron_test

import (
	"testing"

	"github.com/okian/lapicque/internal/domain/neuron"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAxon_Polarity(t *testing.T) {
	Convey("Given a source wired to one excitatory and one inhibitory target", t, func() {
		reg := newRegistry()
		// Targets listen on an event that is never dispatched so only the
		// axon moves their voltage.
		exc, _ := neuron.New(reg.idle, neuron.WithID("exc"))
		inh, _ := neuron.New(reg.idle, neuron.WithID("inh"))
		src, _ := neuron.New(reg.tick, neuron.WithVoltage(-50), neuron.WithDischarge(3))

		up := src.Connect(true, exc)
		down := src.Connect(false, inh)

		Convey("Then the axons expose their wiring", func() {
			So(up.IsExcitatory(), ShouldBeTrue)
			So(down.IsExcitatory(), ShouldBeFalse)
			So(up.Source(), ShouldEqual, src)
			So(up.Targets(), ShouldResemble, []*neuron.Neuron{exc})
		})

		Convey("When the source fires on a tick", func() {
			tick(reg)
			So(src.Firing(), ShouldBeTrue)

			Convey("Then the excitatory target gains the discharge and the inhibitory one loses it", func() {
				So(exc.Voltage(), ShouldEqual, -67.0)
				So(inh.Voltage(), ShouldEqual, -73.0)
			})
		})

		Convey("When an action potential is delivered directly", func() {
			up.OnActionPotential(1.5)
			down.OnActionPotential(1.5)

			Convey("Then the same magnitude arrives with opposite signs", func() {
				So(exc.Voltage(), ShouldEqual, -68.5)
				So(inh.Voltage(), ShouldEqual, -71.5)
			})
		})
	})
}

func TestAxon_TargetOrder(t *testing.T) {
	Convey("Given an axon with several targets", t, func() {
		reg := newRegistry()
		a, _ := neuron.New(reg.idle)
		b, _ := neuron.New(reg.idle)
		src, _ := neuron.New(reg.idle)
		ax := src.Connect(true, a)
		ax.AddTarget(b)
		ax.AddTarget(a)

		Convey("When it fires", func() {
			ax.OnActionPotential(2)

			Convey("Then every entry is delivered, duplicates included", func() {
				So(a.Voltage(), ShouldEqual, -66.0)
				So(b.Voltage(), ShouldEqual, -68.0)
				So(len(ax.Targets()), ShouldEqual, 3)
			})
		})
	})
}

func TestAxon_SubscriptionOrderSensitivity(t *testing.T) {
	Convey("Given an upstream neuron that fires on the first tick with a large discharge", t, func() {
		reg := newRegistry()
		upstreamOpts := []neuron.Option{neuron.WithVoltage(-50), neuron.WithDischarge(20)}

		Convey("When the upstream neuron subscribed before its target", func() {
			up, _ := neuron.New(reg.tick, upstreamOpts...)
			target, _ := neuron.New(reg.tick)
			up.Connect(true, target)

			tick(reg)

			Convey("Then the target integrates the excitation in the same pass and fires", func() {
				So(up.Firing(), ShouldBeTrue)
				So(target.Firing(), ShouldBeTrue)
				So(target.Voltage(), ShouldEqual, 0.0)
			})
		})

		Convey("When the target subscribed before the upstream neuron", func() {
			target, _ := neuron.New(reg.tick)
			up, _ := neuron.New(reg.tick, upstreamOpts...)
			up.Connect(true, target)

			tick(reg)

			Convey("Then the excitation lands after the target's own update", func() {
				So(up.Firing(), ShouldBeTrue)
				So(target.Firing(), ShouldBeFalse)
				So(target.Voltage(), ShouldAlmostEqual, -36.8, epsilon)
			})

			Convey("And the target fires on the following tick", func() {
				tick(reg)
				So(target.Firing(), ShouldBeTrue)
			})
		})
	})
}
