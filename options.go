package volcanocache

import "log/slog"

/*
Option defines a functional configuration modifier for Cache.

    cache := New(
        WithSeed(7),
        WithWarmOnStart(10_000, 100_000),
    )

Each Option mutates the Cache before it becomes active, so New's
signature never has to change when a knob is added.
*/
type Option func(*Cache)

// WithGenerator replaces the synthetic generator. Tests use it to count or
// fail generations.
func WithGenerator(g Generator) Option {
	return func(c *Cache) {
		c.generator = g
	}
}

// WithSeed uses the synthetic generator with the given seed.
func WithSeed(seed uint64) Option {
	return func(c *Cache) {
		c.generator = NewGenerator(seed)
	}
}

// WithLogger sets the logger for cache events. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRowSizeEstimate sets the per-row byte estimate used by Status.
func WithRowSizeEstimate(bytes int) Option {
	return func(c *Cache) {
		if bytes > 0 {
			c.rowBytes = bytes
		}
	}
}

// WithDefaultWarmSizes sets the sizes Warm uses when called without any.
func WithDefaultWarmSizes(sizes ...int) Option {
	return func(c *Cache) {
		c.defaultWarmSizes = append([]int(nil), sizes...)
	}
}

/*
WithWarmOnStart makes New launch a background goroutine that warms the
given sizes. Requests arriving meanwhile are served normally; a request
for a size that is still being warmed joins the in-flight generation
instead of starting another one.

Stop cancels warming between sizes. A generation already running is not
interrupted.
*/
func WithWarmOnStart(sizes ...int) Option {
	return func(c *Cache) {
		c.warmOnStart = append([]int(nil), sizes...)
	}
}
