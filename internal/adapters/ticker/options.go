package ticker

import (
	"time"

	"github.com/okian/lapicque/pkg/logger"
)

// Option applies a configuration option to the Driver.
type Option func(*Driver)

// WithInterval sets the period between dispatches.
func WithInterval(interval time.Duration) Option {
	return func(d *Driver) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

// WithSourceFactory replaces the wall-clock source used by Run.
func WithSourceFactory(factory SourceFactory) Option {
	return func(d *Driver) {
		if factory != nil {
			d.newSource = factory
		}
	}
}

// WithLogger sets a custom logger for the driver.
func WithLogger(l logger.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}
