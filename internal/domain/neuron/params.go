package neuron

// Default parameters. Voltages are in mV.
const (
	DefaultVoltage          = -70.0
	DefaultCurrent          = 25.0
	DefaultResistance       = 50.0
	DefaultTimeConstant     = 1000.0
	DefaultThreshold        = -55.0
	DefaultResetVoltage     = 0.0
	DefaultRefractoryPeriod = 2
	DefaultDischarge        = 1.0
	DefaultTickIntervalMS   = 10.0
)

// Params holds the electrical configuration of a neuron.
type Params struct {
	Voltage          float64 `json:"voltage" yaml:"voltage" toml:"voltage"`
	Current          float64 `json:"current" yaml:"current" toml:"current"`
	Resistance       float64 `json:"resistance" yaml:"resistance" toml:"resistance"`
	TimeConstant     float64 `json:"time_constant" yaml:"time_constant" toml:"time_constant"`
	Threshold        float64 `json:"threshold" yaml:"threshold" toml:"threshold"`
	ResetVoltage     float64 `json:"reset_voltage" yaml:"reset_voltage" toml:"reset_voltage"`
	RefractoryPeriod int     `json:"refractory_period" yaml:"refractory_period" toml:"refractory_period"`
	Discharge        float64 `json:"discharge" yaml:"discharge" toml:"discharge"`
	TickIntervalMS   float64 `json:"tick_interval_ms" yaml:"tick_interval_ms" toml:"tick_interval_ms"`
}

// DefaultParams returns the biologically plausible defaults.
func DefaultParams() Params {
	return Params{
		Voltage:          DefaultVoltage,
		Current:          DefaultCurrent,
		Resistance:       DefaultResistance,
		TimeConstant:     DefaultTimeConstant,
		Threshold:        DefaultThreshold,
		ResetVoltage:     DefaultResetVoltage,
		RefractoryPeriod: DefaultRefractoryPeriod,
		Discharge:        DefaultDischarge,
		TickIntervalMS:   DefaultTickIntervalMS,
	}
}
