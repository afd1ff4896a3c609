package volcanocache

import (
	"context"
	"log/slog"
)

/*
Warm ensures every size in sizes is cached and returns the sizes that are,
in input order. A nil sizes uses the configured defaults; an empty,
non-nil sizes warms nothing.

Each size is validated on its own: out-of-range sizes and sizes whose
generation fails are logged and skipped. Partial success is the normal
outcome, never an error. Warming stops early only when ctx ends.
*/
func (c *Cache) Warm(ctx context.Context, sizes []int) []int {
	if sizes == nil {
		sizes = c.defaultWarmSizes
	}

	warmed := make([]int, 0, len(sizes))
	for _, size := range sizes {
		if ctx.Err() != nil {
			break
		}

		if err := ValidateDatasetSize(size); err != nil {
			c.logger.Warn("skipping warm size", slog.Int("size", size), slog.Any("err", err))
			continue
		}

		if _, err := c.GetOrGenerate(ctx, size); err != nil {
			c.logger.Warn("warming size failed", slog.Int("size", size), slog.Any("err", err))
			continue
		}
		warmed = append(warmed, size)
	}

	return warmed
}

/*
startWarmer launches the background warm configured with WithWarmOnStart.

================================================================================
EXECUTION MODEL
================================================================================

- No sizes configured:
    → warmDone is closed immediately and no goroutine runs.

- Otherwise:
    → One goroutine runs Warm over the configured sizes.
    → A second goroutine cancels the warm context on Stop.
    → warmDone is closed when warming returns.
*/
func (c *Cache) startWarmer() {
	if len(c.warmOnStart) == 0 {
		close(c.warmDone)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		select {
		case <-c.stopChan:
			cancel()
		case <-c.warmDone:
		}
	}()

	go func() {
		defer close(c.warmDone)
		defer cancel()

		warmed := c.Warm(ctx, c.warmOnStart)
		c.logger.Info("background warm finished",
			slog.Any("requested", c.warmOnStart), slog.Any("warmed", warmed))
	}()
}

// WarmDone is closed once the background warm has finished or was never
// configured.
func (c *Cache) WarmDone() <-chan struct{} {
	return c.warmDone
}

/*
Stop ends the background warmer. Warming stops before its next size; a
generation already in progress completes and is cached.

Stop is safe to call more than once.
*/
func (c *Cache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}
