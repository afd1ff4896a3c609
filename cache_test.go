package volcanocache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

/*
cache_test.go validates the dataset cache.

================================================================================
TESTING OBJECTIVES
================================================================================

1. Idempotence
   - A size is generated once and then served from memory.

2. Concurrency
   - Concurrent first requests for one size share a single generation.
   - Clear racing with an in-flight generation never resurrects the entry.

3. Failure isolation
   - A failing or panicking generator affects only its own size.
   - Corrupted entries are discarded and regenerated.

Run with:

    go test -race
*/

// countingGenerator wraps the synthetic generator and counts calls.
// block, when set, holds every generation until it is closed.
type countingGenerator struct {
	inner *SyntheticGenerator
	calls atomic.Int64
	block chan struct{}
	fail  map[int]error
}

func newCountingGenerator() *countingGenerator {
	return &countingGenerator{inner: NewGenerator(DefaultSeed)}
}

func (g *countingGenerator) Generate(size int) (*Dataset, error) {
	g.calls.Add(1)
	if g.block != nil {
		<-g.block
	}
	if err, ok := g.fail[size]; ok {
		return nil, err
	}
	return g.inner.Generate(size)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCache(g Generator, opts ...Option) *Cache {
	return New(append([]Option{WithGenerator(g), WithLogger(quietLogger())}, opts...)...)
}

func TestGetOrGenerateIdempotent(t *testing.T) {
	gen := newCountingGenerator()
	cache := newTestCache(gen)

	first, err := cache.GetOrGenerate(context.Background(), 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := cache.GetOrGenerate(context.Background(), 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		t.Fatal("expected the same dataset reference on the second call")
	}
	if n := gen.calls.Load(); n != 1 {
		t.Fatalf("expected 1 generation, got %d", n)
	}

	stats := cache.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Generations != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestGetOrGenerateClampsKey(t *testing.T) {
	gen := newCountingGenerator()
	cache := newTestCache(gen)

	ds, err := cache.GetOrGenerate(context.Background(), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Size != MinDatasetSize || len(ds.Points) != MinDatasetSize {
		t.Fatalf("expected a clamped dataset of %d points, got %d", MinDatasetSize, len(ds.Points))
	}

	if _, err := cache.GetOrGenerate(context.Background(), MinDatasetSize); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := gen.calls.Load(); n != 1 {
		t.Fatalf("expected the clamped size to share one entry, got %d generations", n)
	}
}

/*
TestConcurrentFirstRequests starts many goroutines that all miss on the
same size while the generator is held, then releases it. Exactly one
generation may happen and every caller must receive the same dataset.
*/
func TestConcurrentFirstRequests(t *testing.T) {
	gen := newCountingGenerator()
	gen.block = make(chan struct{})
	cache := newTestCache(gen)

	const callers = 50
	var wg sync.WaitGroup
	results := make([]*Dataset, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ds, err := cache.GetOrGenerate(context.Background(), 5000)
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			results[i] = ds
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(gen.block)
	wg.Wait()

	if n := gen.calls.Load(); n != 1 {
		t.Fatalf("expected exactly 1 generation, got %d", n)
	}
	for i, ds := range results {
		if ds != results[0] {
			t.Fatalf("caller %d received a different dataset", i)
		}
	}
}

func TestClearEmptyCache(t *testing.T) {
	cache := newTestCache(newCountingGenerator())

	if removed := cache.Clear(); removed != 0 {
		t.Fatalf("expected 0 removed, got %d", removed)
	}
}

func TestClearRemovesEntries(t *testing.T) {
	gen := newCountingGenerator()
	cache := newTestCache(gen)

	for _, size := range []int{100, 200, 300} {
		if _, err := cache.GetOrGenerate(context.Background(), size); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if removed := cache.Clear(); removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}
	if st := cache.Status(); st.Count != 0 || len(st.Keys) != 0 {
		t.Fatalf("expected empty status after clear, got %+v", st)
	}

	if _, err := cache.GetOrGenerate(context.Background(), 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := gen.calls.Load(); n != 4 {
		t.Fatalf("expected regeneration after clear, got %d generations", n)
	}
}

/*
TestClearWinsOverInFlightGeneration clears while a generation is held.
The waiting caller still gets its dataset, but the entry must not appear
in the cache afterwards.
*/
func TestClearWinsOverInFlightGeneration(t *testing.T) {
	gen := newCountingGenerator()
	gen.block = make(chan struct{})
	cache := newTestCache(gen)

	done := make(chan *Dataset)
	go func() {
		ds, err := cache.GetOrGenerate(context.Background(), 1000)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		done <- ds
	}()

	time.Sleep(20 * time.Millisecond)
	cache.Clear()
	close(gen.block)

	if ds := <-done; ds == nil || len(ds.Points) != 1000 {
		t.Fatal("expected the in-flight caller to receive its dataset")
	}
	if cache.Contains(1000) {
		t.Fatal("expected the stale generation not to be cached after clear")
	}
}

func TestStatusSortedKeysAndMemory(t *testing.T) {
	cache := newTestCache(newCountingGenerator(), WithRowSizeEstimate(1024))

	for _, size := range []int{3000, 1000, 2000} {
		if _, err := cache.GetOrGenerate(context.Background(), size); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	st := cache.Status()
	want := []int{1000, 2000, 3000}
	if st.Count != 3 {
		t.Fatalf("expected count 3, got %d", st.Count)
	}
	for i, k := range want {
		if st.Keys[i] != k {
			t.Fatalf("expected keys %v, got %v", want, st.Keys)
		}
	}

	expectedMB := float64(6000*1024) / (1024 * 1024)
	if st.ApproxMemoryMB != expectedMB {
		t.Fatalf("expected %.4f MB, got %.4f", expectedMB, st.ApproxMemoryMB)
	}
}

func TestWarmSkipsInvalidSizes(t *testing.T) {
	cache := newTestCache(newCountingGenerator())

	warmed := cache.Warm(context.Background(), []int{50, 5000, 20_000_000})

	if len(warmed) != 1 || warmed[0] != 5000 {
		t.Fatalf("expected only 5000 to be warmed, got %v", warmed)
	}
	if st := cache.Status(); st.Count != 1 || st.Keys[0] != 5000 {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestWarmDefaults(t *testing.T) {
	cache := newTestCache(newCountingGenerator(), WithDefaultWarmSizes(100, 200))

	warmed := cache.Warm(context.Background(), nil)
	if len(warmed) != 2 || warmed[0] != 100 || warmed[1] != 200 {
		t.Fatalf("expected default sizes to be warmed, got %v", warmed)
	}
}

func TestWarmEmptyListWarmsNothing(t *testing.T) {
	gen := newCountingGenerator()
	cache := newTestCache(gen, WithDefaultWarmSizes(100))

	warmed := cache.Warm(context.Background(), []int{})
	if len(warmed) != 0 {
		t.Fatalf("expected nothing warmed for an empty list, got %v", warmed)
	}
	if n := gen.calls.Load(); n != 0 {
		t.Fatalf("expected no generation, got %d", n)
	}
	if st := cache.Status(); st.Count != 0 {
		t.Fatalf("expected an empty cache, got %+v", st)
	}
}

func TestWarmIsolatesGenerationFailure(t *testing.T) {
	gen := newCountingGenerator()
	gen.fail = map[int]error{200: errors.New("boom")}
	cache := newTestCache(gen)

	warmed := cache.Warm(context.Background(), []int{100, 200, 300})

	if len(warmed) != 2 || warmed[0] != 100 || warmed[1] != 300 {
		t.Fatalf("expected 100 and 300 to be warmed, got %v", warmed)
	}
	if cache.Stats().GenerationFailures != 1 {
		t.Fatalf("expected 1 generation failure, got %+v", cache.Stats())
	}
}

func TestGenerationErrorIsWrapped(t *testing.T) {
	gen := newCountingGenerator()
	gen.fail = map[int]error{100: errors.New("boom")}
	cache := newTestCache(gen)

	_, err := cache.GetOrGenerate(context.Background(), 100)
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if cache.Contains(100) {
		t.Fatal("expected failed generation not to be cached")
	}
}

type panickingGenerator struct{}

func (panickingGenerator) Generate(int) (*Dataset, error) {
	panic("out of memory")
}

func TestGeneratorPanicRecovered(t *testing.T) {
	cache := newTestCache(panickingGenerator{})

	_, err := cache.GetOrGenerate(context.Background(), 100)
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration from a panicking generator, got %v", err)
	}
}

func TestCorruptedEntryRegenerated(t *testing.T) {
	gen := newCountingGenerator()
	cache := newTestCache(gen)

	ds, err := cache.GetOrGenerate(context.Background(), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cache.mu.Lock()
	cache.data[100] = &Item{dataset: &Dataset{Size: 100, Points: ds.Points[:10]}}
	cache.mu.Unlock()

	again, err := cache.GetOrGenerate(context.Background(), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(again.Points) != 100 {
		t.Fatalf("expected a regenerated dataset of 100 points, got %d", len(again.Points))
	}
	if stats := cache.Stats(); stats.Discards != 1 || stats.Generations != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

/*
TestCallerCancelKeepsGeneration lets the caller give up while the
generation is held. The generation must still complete and populate the
cache for the next caller.
*/
func TestCallerCancelKeepsGeneration(t *testing.T) {
	gen := newCountingGenerator()
	gen.block = make(chan struct{})
	cache := newTestCache(gen)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error)
	go func() {
		_, err := cache.GetOrGenerate(ctx, 1000)
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	close(gen.block)

	deadline := time.Now().Add(2 * time.Second)
	for !cache.Contains(1000) {
		if time.Now().After(deadline) {
			t.Fatal("expected the abandoned generation to populate the cache")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if n := gen.calls.Load(); n != 1 {
		t.Fatalf("expected 1 generation, got %d", n)
	}
}

func TestWarmOnStart(t *testing.T) {
	cache := newTestCache(newCountingGenerator(), WithWarmOnStart(100, 50, 200))
	defer cache.Stop()

	select {
	case <-cache.WarmDone():
	case <-time.After(5 * time.Second):
		t.Fatal("background warm did not finish")
	}

	st := cache.Status()
	if st.Count != 2 || st.Keys[0] != 100 || st.Keys[1] != 200 {
		t.Fatalf("unexpected status after background warm %+v", st)
	}
}

func TestStopIdempotent(t *testing.T) {
	cache := newTestCache(newCountingGenerator())
	cache.Stop()
	cache.Stop()

	select {
	case <-cache.WarmDone():
	default:
		t.Fatal("expected WarmDone to be closed when no warm is configured")
	}
}

func TestConcurrentReadersAndClear(t *testing.T) {
	cache := newTestCache(newCountingGenerator())
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%10 == 0 {
				cache.Clear()
				return
			}
			ds, err := cache.GetOrGenerate(context.Background(), 100+(i%3)*100)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if len(ds.Points) != ds.Size {
				t.Errorf("dataset of size %d has %d points", ds.Size, len(ds.Points))
			}
		}(i)
	}

	wg.Wait()
}
