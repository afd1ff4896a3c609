package volcanocache

import (
	"math"
	"math/rand/v2"
	"slices"
)

// MaxLODBudget caps the zoom-adjusted budget so deep zooms cannot ask for
// unbounded payloads.
const MaxLODBudget = 2_000_000

/*
LODBudget returns the number of points a view at zoom may render.

  - zoom >= 1: maxPoints · zoom². Zooming in by k shows roughly 1/k² of
    the plot area, so k² times the raw points occupy the same screen
    density.
  - zoom < 1:  maxPoints · zoom, at least one point.

budget(maxPoints, 1) == maxPoints and the budget never decreases as zoom
grows. The result is capped at MaxLODBudget (or maxPoints if larger).
*/
func LODBudget(maxPoints int, zoom float64) int {
	if maxPoints <= 0 {
		return 0
	}
	if math.IsNaN(zoom) {
		zoom = 1
	}

	b := float64(maxPoints) * zoom
	if zoom >= 1 {
		b *= zoom
	}

	limit := max(MaxLODBudget, maxPoints)
	if b >= float64(limit) {
		return limit
	}
	return max(int(math.Floor(b)), 1)
}

// SampleResult is the sampler's output and the metadata the response carries.
type SampleResult struct {
	Points               []Categorized
	Budget               int
	PointsBeforeSampling int
	IsDownsampled        bool
}

// Sampler picks a bounded subset of categorized points, significant first.
// Sampling is deterministic for a given seed and input.
type Sampler struct {
	seed uint64
}

// NewSampler returns a Sampler whose choices depend only on seed and input.
func NewSampler(seed uint64) *Sampler {
	return &Sampler{seed: seed}
}

/*
Sample bounds points to LODBudget(maxPoints, zoom).

When the input fits, it is returned as is. Otherwise every significant
point is kept (or, if they alone exceed the budget, a uniform sample of
them fills it) and non-significant points fill whatever budget remains
by uniform sampling without replacement. Significant points are
therefore never diluted: their share of the output is at least their
share of the input.

Selected points keep their relative input order.
*/
func (s *Sampler) Sample(points []Categorized, maxPoints int, zoom float64) SampleResult {
	n := len(points)
	budget := LODBudget(maxPoints, zoom)
	res := SampleResult{
		Budget:               budget,
		PointsBeforeSampling: n,
		IsDownsampled:        n > budget,
	}

	if !res.IsDownsampled {
		res.Points = points
		return res
	}

	var significant, rest []int
	for i := range points {
		if points[i].Category.Significant() {
			significant = append(significant, i)
		} else {
			rest = append(rest, i)
		}
	}

	rng := rand.New(rand.NewPCG(s.seed, uint64(n)))

	var keep []int
	if len(significant) >= budget {
		keep = pick(rng, significant, budget)
	} else {
		keep = append(significant, pick(rng, rest, budget-len(significant))...)
	}
	slices.Sort(keep)

	res.Points = make([]Categorized, len(keep))
	for i, idx := range keep {
		res.Points[i] = points[idx]
	}
	return res
}

// pick returns k indices chosen uniformly from idx, reordering idx in place.
func pick(rng *rand.Rand, idx []int, k int) []int {
	k = min(k, len(idx))
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}
