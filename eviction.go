package volcanocache

import (
	"log/slog"
	"runtime"
)

/*
Clear evicts every entry and returns how many were removed.

Clear is the only way entries leave the cache. It bumps the epoch under
the exclusive lock, so a generation still in flight cannot resurrect its
key afterwards. Once the map has been dropped the runtime is asked to
collect, since a single large dataset can hold hundreds of megabytes.

Calling Clear on an empty cache returns 0.
*/
func (c *Cache) Clear() int {
	c.mu.Lock()
	removed := len(c.data)
	c.data = make(map[int]*Item)
	c.epoch++
	c.mu.Unlock()

	c.counters.clears.Add(1)
	runtime.GC()

	c.logger.Info("cache cleared", slog.Int("removed", removed))
	return removed
}
