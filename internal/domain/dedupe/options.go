package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets the maximum number of IDs to keep in memory.
// A positive size evicts the oldest IDs first; zero or negative is unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

// WithObserver registers a callback that receives the tracked size after every change.
func WithObserver(fn func(size int64)) Option {
	return func(d *inMemoryDeduper) {
		d.observe = fn
	}
}
