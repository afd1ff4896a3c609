package volcanocache

import (
	"context"
	"hash/fnv"
	"log/slog"
	"math"
	"strings"
	"time"
)

// Result is the pipeline output for one request.
type Result struct {
	Points []Categorized

	// Counts covers every point after search, categorization and
	// viewport filtering, before sampling.
	Counts               Counts
	TotalRows            int
	FilteredRows         int
	PointsBeforeSampling int
	IsDownsampled        bool
	Budget               int
}

// Pipeline composes the cache, categorizer, viewport filter and sampler
// for each request. It is safe for concurrent use.
type Pipeline struct {
	cache  *Cache
	logger *slog.Logger
}

// NewPipeline serves requests from cache. A nil logger uses slog.Default.
func NewPipeline(cache *Cache, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cache:  cache,
		logger: logger.With(slog.String("component", "pipeline")),
	}
}

/*
Run executes one volcano request:

 1. clamp parameters, defaulting zero values
 2. fetch or generate the dataset
 3. filter by search term (case-insensitive substring of the name)
 4. categorize
 5. filter by viewport, if any
 6. sample to the LOD budget
 7. assemble the result

Any failure aborts the request with a *Error. Cancellation of ctx is
checked between stages.
*/
func (pl *Pipeline) Run(ctx context.Context, params Params) (*Result, error) {
	start := time.Now()
	p := params.normalize()

	ds, err := pl.cache.GetOrGenerate(ctx, p.DatasetSize)
	if err != nil {
		return nil, AsError(err)
	}

	thresholds := Thresholds{
		PValue:    p.PValueThreshold,
		EffectMin: p.EffectMin,
		EffectMax: p.EffectMax,
	}

	var (
		categorized []Categorized
		counts      Counts
	)
	if p.SearchTerm == "" {
		categorized, counts = CategorizeAll(ds.Points, thresholds)
	} else {
		rows := searchFilter(ds.Points, p.SearchTerm)
		if err := ctx.Err(); err != nil {
			return nil, AsError(err)
		}
		categorized, counts = Categorize(rows, thresholds)
	}

	if p.Viewport != nil {
		categorized = FilterViewport(categorized, *p.Viewport)
		counts = CountCategories(categorized)
	}
	if err := ctx.Err(); err != nil {
		return nil, AsError(err)
	}

	zoom := p.ZoomLevel
	if p.DisableLOD {
		zoom = 1
	}
	sampled := NewSampler(requestSeed(p)).Sample(categorized, p.MaxPoints, zoom)

	res := &Result{
		Points:               sampled.Points,
		Counts:               counts,
		TotalRows:            len(ds.Points),
		FilteredRows:         len(categorized),
		PointsBeforeSampling: sampled.PointsBeforeSampling,
		IsDownsampled:        sampled.IsDownsampled,
		Budget:               sampled.Budget,
	}

	pl.logger.Debug("volcano request served",
		slog.Int("dataset_size", p.DatasetSize),
		slog.Int("filtered_rows", res.FilteredRows),
		slog.Int("returned", len(res.Points)),
		slog.Bool("downsampled", res.IsDownsampled),
		slog.Duration("elapsed", time.Since(start)))

	return res, nil
}

// searchFilter returns pointers to the points whose name contains term,
// ignoring case. Run skips it for an empty term.
func searchFilter(points []Point, term string) []*Point {
	var out []*Point
	needle := strings.ToLower(term)
	for i := range points {
		if strings.Contains(strings.ToLower(points[i].Name), needle) {
			out = append(out, &points[i])
		}
	}
	return out
}

// requestSeed derives the sampling seed from the request, so an identical
// request always returns the same subset.
func requestSeed(p Params) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range []uint64{
		math.Float64bits(p.PValueThreshold),
		math.Float64bits(p.EffectMin),
		math.Float64bits(p.EffectMax),
		uint64(p.DatasetSize),
		uint64(p.MaxPoints),
		math.Float64bits(p.ZoomLevel),
	} {
		for i := range buf {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf[:])
	}
	h.Write([]byte(p.SearchTerm))
	return h.Sum64()
}
