package volcanocache

// Thresholds decide significance. A point is significant when its p-value
// is at most PValue and its effect lies strictly outside [EffectMin, EffectMax].
type Thresholds struct {
	PValue    float64
	EffectMin float64
	EffectMax float64
}

// Counts tallies categories. Up + Down + NonSignificant equals the number
// of points categorized.
type Counts struct {
	Up             int `json:"up_regulated"`
	Down           int `json:"down_regulated"`
	NonSignificant int `json:"non_significant"`
}

// Total is the number of points counted.
func (c Counts) Total() int {
	return c.Up + c.Down + c.NonSignificant
}

// Significant is the number of up and down points.
func (c Counts) Significant() int {
	return c.Up + c.Down
}

func (c *Counts) add(cat Category) {
	switch cat {
	case CategoryUp:
		c.Up++
	case CategoryDown:
		c.Down++
	default:
		c.NonSignificant++
	}
}

// Classify applies the rule in order: down, then up, then non-significant.
// Effects equal to a bound are never significant.
func Classify(p *Point, t Thresholds) Category {
	switch {
	case p.PValue <= t.PValue && p.Effect < t.EffectMin:
		return CategoryDown
	case p.PValue <= t.PValue && p.Effect > t.EffectMax:
		return CategoryUp
	default:
		return CategoryNonSignificant
	}
}

// Categorize labels every point and counts the labels. The points are
// referenced, not copied; the result must be treated as read-only.
func Categorize(points []*Point, t Thresholds) ([]Categorized, Counts) {
	out := make([]Categorized, len(points))
	var counts Counts
	for i, p := range points {
		cat := Classify(p, t)
		out[i] = Categorized{Point: p, Category: cat}
		counts.add(cat)
	}
	return out, counts
}

// CategorizeAll is Categorize over a whole dataset. It references the
// points in place instead of requiring a slice of pointers first.
func CategorizeAll(points []Point, t Thresholds) ([]Categorized, Counts) {
	out := make([]Categorized, len(points))
	var counts Counts
	for i := range points {
		cat := Classify(&points[i], t)
		out[i] = Categorized{Point: &points[i], Category: cat}
		counts.add(cat)
	}
	return out, counts
}

// CountCategories tallies an already categorized slice.
func CountCategories(points []Categorized) Counts {
	var counts Counts
	for _, p := range points {
		counts.add(p.Category)
	}
	return counts
}
