// Package dedupe tracks recently seen stimulus ids.
package dedupe

// Option applies a configuration option to the InMemoryDeduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets how many ids are remembered. When full, the oldest id is
// forgotten first. Values <= 0 remove the bound.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}
