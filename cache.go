package volcanocache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

/*
Cache maps a dataset size to its generated Dataset.

================================================================================
ARCHITECTURAL OVERVIEW
================================================================================

1. Hash Map (map[int]*Item)
   - The size is both the generation parameter and the key: two requests
     for size N always address the same Dataset.
   - Sizes are clamped to [MinDatasetSize, MaxDatasetSize] before lookup.

2. Singleflight group
   - Concurrent misses for the same size share one generation.
   - The leader re-checks the map before generating, so a miss that raced
     with a completed insert does not generate twice.

================================================================================
CONCURRENCY MODEL
================================================================================

- sync.RWMutex protects data and epoch.
- Lookups of present entries take RLock only; readers never block each other.
- Inserts, discards and Clear take Lock().
- Generation runs outside the lock. It is CPU bound and not cancellable:
  a caller that gives up (ctx done) returns early while the generation
  finishes and populates the cache for later callers.

================================================================================
CLEAR VERSUS IN-FLIGHT GENERATION
================================================================================

Clear bumps epoch. A generation that started in an earlier epoch still
hands its dataset to the callers waiting on it, but is not inserted:
clear wins, and the next request after the clear generates afresh.

================================================================================
STRUCTURE FIELDS
================================================================================

data      -> size → entry
mu        -> guards data and epoch
epoch     -> incremented by Clear
group     -> per-size generation coalescing
generator -> dataset source (synthetic by default)
counters  -> atomic runtime statistics
stopChan  -> ends the background warmer
*/
type Cache struct {
	data  map[int]*Item
	mu    sync.RWMutex
	epoch uint64
	group singleflight.Group

	generator        Generator
	logger           *slog.Logger
	rowBytes         int
	defaultWarmSizes []int
	warmOnStart      []int

	counters counters
	stopChan chan struct{}
	stopOnce sync.Once
	warmDone chan struct{}
}

// DefaultWarmSizes are warmed when Warm is called without sizes.
var DefaultWarmSizes = []int{1_000, 10_000, 100_000}

/*
New initializes and returns a configured Cache instance.

INITIALIZATION STEPS:
1. Allocate internal map.
2. Install the synthetic generator with DefaultSeed.
3. Apply user-provided options.
4. Start the background warmer (if WithWarmOnStart was given).
*/
func New(opts ...Option) *Cache {
	c := &Cache{
		data:             make(map[int]*Item),
		generator:        NewGenerator(DefaultSeed),
		logger:           slog.Default().With(slog.String("component", "dataset_cache")),
		rowBytes:         DefaultRowSizeEstimate,
		defaultWarmSizes: DefaultWarmSizes,
		stopChan:         make(chan struct{}),
		warmDone:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.startWarmer()

	return c
}

/*
GetOrGenerate returns the dataset for size, generating it on a miss.

EXECUTION FLOW:

1. Clamp size to obtain the key.
2. RLock lookup. A valid entry is a hit.
3. A corrupted entry is discarded (Stats.Discards) and treated as a miss.
4. On a miss, join or lead the singleflight call for the key and wait for
   it or for ctx, whichever comes first.

For a given key the generator runs at most once between two Clear calls.
*/
func (c *Cache) GetOrGenerate(ctx context.Context, size int) (*Dataset, error) {
	key := ClampDatasetSize(size)

	c.mu.RLock()
	item, found := c.data[key]
	c.mu.RUnlock()

	if found {
		if item.Valid(key) {
			c.counters.hits.Add(1)
			return item.dataset, nil
		}
		c.discard(key, item)
	}

	c.counters.misses.Add(1)

	ch := c.group.DoChan(strconv.Itoa(key), func() (interface{}, error) {
		return c.build(key)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Dataset), nil
	case <-ctx.Done():
		c.logger.Debug("caller left before generation finished",
			slog.Int("size", key), slog.Any("err", ctx.Err()))
		return nil, ctx.Err()
	}
}

// Contains reports whether a valid entry for size is present, without
// touching statistics.
func (c *Cache) Contains(size int) bool {
	key := ClampDatasetSize(size)

	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.data[key].Valid(key)
}

func (c *Cache) build(key int) (*Dataset, error) {
	c.mu.RLock()
	item, found := c.data[key]
	epoch := c.epoch
	c.mu.RUnlock()

	if found && item.Valid(key) {
		return item.dataset, nil
	}

	start := time.Now()
	ds, err := c.generate(key)
	if err != nil {
		c.counters.generationFailures.Add(1)
		c.logger.Error("dataset generation failed", slog.Int("size", key), slog.Any("err", err))
		return nil, err
	}
	c.counters.generations.Add(1)

	c.mu.Lock()
	inserted := c.epoch == epoch
	if inserted {
		c.data[key] = newItem(ds, c.rowBytes)
	}
	c.mu.Unlock()

	c.logger.Info("dataset generated",
		slog.Int("size", key),
		slog.Duration("elapsed", time.Since(start)),
		slog.Bool("cached", inserted))

	return ds, nil
}

// generate runs the generator, turning panics and malformed output into
// ErrGeneration so one bad size cannot take the process down.
func (c *Cache) generate(key int) (ds *Dataset, err error) {
	defer func() {
		if r := recover(); r != nil {
			ds, err = nil, fmt.Errorf("%w: size %d: panic: %v", ErrGeneration, key, r)
		}
	}()

	ds, err = c.generator.Generate(key)
	if err != nil {
		if !errors.Is(err, ErrGeneration) {
			err = fmt.Errorf("%w: size %d: %w", ErrGeneration, key, err)
		}
		return nil, err
	}
	if !ds.valid() || ds.Size != key {
		return nil, fmt.Errorf("%w: size %d: generator returned a malformed dataset", ErrGeneration, key)
	}
	return ds, nil
}

func (c *Cache) discard(key int, item *Item) {
	c.mu.Lock()
	if c.data[key] == item {
		delete(c.data, key)
	}
	c.mu.Unlock()

	c.counters.discards.Add(1)
	c.logger.Warn("discarding corrupted cache entry",
		slog.Int("size", key), slog.Any("err", ErrCacheEntry))
}

// Status returns the cached sizes in ascending order with a memory estimate.
func (c *Cache) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]int, 0, len(c.data))
	var bytes int64
	for k, item := range c.data {
		keys = append(keys, k)
		bytes += item.approxBytes
	}
	sort.Ints(keys)

	return Status{
		Keys:           keys,
		Count:          len(keys),
		ApproxMemoryMB: float64(bytes) / (1024 * 1024),
	}
}

// Stats returns a snapshot of the runtime counters.
func (c *Cache) Stats() Stats {
	return c.counters.snapshot()
}
