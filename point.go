package volcanocache

import "math"

// Point is one metabolite row of a synthetic dataset. Points are shared
// between concurrent requests through the cache and must never be mutated
// after generation.
type Point struct {
	ID         int
	Name       string
	Effect     float64 // log fold change
	PValue     float64 // adjusted p-value, in (0,1]
	Superclass string
	Class      string
}

// NegLog10P is the y coordinate of the point on a volcano plot.
func (p *Point) NegLog10P() float64 {
	if p.PValue >= 1 {
		return 0
	}
	return -math.Log10(p.PValue)
}

// Dataset is the full generated point collection for one size.
// len(Points) == Size always holds for a well-formed dataset.
type Dataset struct {
	Size   int
	Points []Point
}

func (d *Dataset) valid() bool {
	return d != nil && len(d.Points) == d.Size
}

// Category is the request-scoped significance label of a point.
type Category string

const (
	CategoryUp             Category = "up"
	CategoryDown           Category = "down"
	CategoryNonSignificant Category = "non_significant"
)

// Significant reports whether c is up or down.
func (c Category) Significant() bool {
	return c == CategoryUp || c == CategoryDown
}

// Categorized pairs a cached point with the category it received under one
// request's thresholds. The embedded Point is shared and read-only.
type Categorized struct {
	*Point
	Category Category
}
