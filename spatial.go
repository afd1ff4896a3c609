package volcanocache

// Contains reports whether p lies inside the viewport. Bounds are inclusive.
func (v Viewport) Contains(p *Point) bool {
	if p.Effect < v.EffectMin || p.Effect > v.EffectMax {
		return false
	}
	y := p.NegLog10P()
	return y >= v.SignificanceMin && y <= v.SignificanceMax
}

// FilterViewport keeps the points visible in v. The input is not modified.
func FilterViewport(points []Categorized, v Viewport) []Categorized {
	out := make([]Categorized, 0, len(points))
	for _, p := range points {
		if v.Contains(p.Point) {
			out = append(out, p)
		}
	}
	return out
}
