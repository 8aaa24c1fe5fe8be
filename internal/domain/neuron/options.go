package neuron

// Option applies a configuration option to a Neuron at construction.
type Option func(*Neuron)

// WithID sets the identifier reported in State.
func WithID(id string) Option {
	return func(n *Neuron) {
		n.id = id
	}
}

// WithParams replaces every parameter at once.
func WithParams(p Params) Option {
	return func(n *Neuron) {
		n.params = p
	}
}

// WithVoltage sets the initial membrane voltage in mV.
func WithVoltage(v float64) Option {
	return func(n *Neuron) { n.params.Voltage = v }
}

// WithCurrent sets the constant input current.
func WithCurrent(i float64) Option {
	return func(n *Neuron) { n.params.Current = i }
}

// WithResistance sets the membrane resistance.
func WithResistance(r float64) Option {
	return func(n *Neuron) { n.params.Resistance = r }
}

// WithTimeConstant sets the membrane time constant tau.
func WithTimeConstant(tau float64) Option {
	return func(n *Neuron) { n.params.TimeConstant = tau }
}

// WithThreshold sets the firing threshold in mV.
func WithThreshold(v float64) Option {
	return func(n *Neuron) { n.params.Threshold = v }
}

// WithResetVoltage sets the voltage applied after firing.
func WithResetVoltage(v float64) Option {
	return func(n *Neuron) { n.params.ResetVoltage = v }
}

// WithRefractoryPeriod sets the number of ticks skipped after firing.
// Negative values are ignored.
func WithRefractoryPeriod(ticks int) Option {
	return func(n *Neuron) {
		if ticks >= 0 {
			n.params.RefractoryPeriod = ticks
		}
	}
}

// WithDischarge sets the voltage broadcast through axons on firing.
func WithDischarge(v float64) Option {
	return func(n *Neuron) { n.params.Discharge = v }
}

// WithTickInterval sets the step in milliseconds used when a tick carries
// no interval of its own.
func WithTickInterval(ms float64) Option {
	return func(n *Neuron) {
		if ms > 0 {
			n.params.TickIntervalMS = ms
		}
	}
}
