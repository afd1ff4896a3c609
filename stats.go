package volcanocache

import "sync/atomic"

/*
Stats represents runtime counters of the dataset cache.

- Hits               → lookups answered by a present, well-formed entry
- Misses             → lookups that had to wait for a generation
- Generations        → datasets actually synthesized
- GenerationFailures → generator errors or panics
- Discards           → corrupted entries dropped on read
- Clears             → calls to Clear

Generations is the number to watch: with a warm cache it stays flat
regardless of request volume, and it never exceeds one per size between
two clears.

Counters are atomics rather than fields under the cache mutex, so
concurrent readers of present entries only ever share a read lock.
*/
type Stats struct {
	Hits               uint64 `json:"hits"`
	Misses             uint64 `json:"misses"`
	Generations        uint64 `json:"generations"`
	GenerationFailures uint64 `json:"generation_failures"`
	Discards           uint64 `json:"discards"`
	Clears             uint64 `json:"clears"`
}

type counters struct {
	hits               atomic.Uint64
	misses             atomic.Uint64
	generations        atomic.Uint64
	generationFailures atomic.Uint64
	discards           atomic.Uint64
	clears             atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Hits:               c.hits.Load(),
		Misses:             c.misses.Load(),
		Generations:        c.generations.Load(),
		GenerationFailures: c.generationFailures.Load(),
		Discards:           c.discards.Load(),
		Clears:             c.clears.Load(),
	}
}

// Status is the operator-facing view of the cache contents.
type Status struct {
	Keys           []int   `json:"keys"`
	Count          int     `json:"count"`
	ApproxMemoryMB float64 `json:"approx_memory_mb"`
}
