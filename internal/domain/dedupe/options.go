package dedupe

type config struct {
	maxSize int
}

// Option configures a deduper.
type Option func(*config)

// WithMaxSize bounds the number of remembered keys. A positive limit evicts
// the oldest key when full; zero or negative keeps every key.
func WithMaxSize(maxSize int) Option {
	return func(c *config) {
		c.maxSize = maxSize
	}
}
