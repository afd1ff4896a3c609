package volcanocache

import "testing"

func pointsOf(pts ...Point) []*Point {
	out := make([]*Point, len(pts))
	for i := range pts {
		out[i] = &pts[i]
	}
	return out
}

func TestClassifyRule(t *testing.T) {
	th := Thresholds{PValue: 0.05, EffectMin: -0.5, EffectMax: 0.5}

	cases := []struct {
		name   string
		effect float64
		p      float64
		want   Category
	}{
		{"strong down", -2, 0.01, CategoryDown},
		{"strong up", 2, 0.01, CategoryUp},
		{"p at threshold counts", 2, 0.05, CategoryUp},
		{"p above threshold", 2, 0.051, CategoryNonSignificant},
		{"small effect", 0.1, 0.001, CategoryNonSignificant},
		{"effect equal to min", -0.5, 0.001, CategoryNonSignificant},
		{"effect equal to max", 0.5, 0.001, CategoryNonSignificant},
		{"just below min", -0.5001, 0.001, CategoryDown},
		{"just above max", 0.5001, 0.001, CategoryUp},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(&Point{Effect: tc.effect, PValue: tc.p}, th)
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestClassifyBoundaryNeverSignificant(t *testing.T) {
	th := Thresholds{PValue: 1, EffectMin: -1.25, EffectMax: 0.75}

	for _, p := range []float64{1e-6, 0.01, 0.5, 1} {
		for _, effect := range []float64{th.EffectMin, th.EffectMax} {
			if cat := Classify(&Point{Effect: effect, PValue: p}, th); cat.Significant() {
				t.Fatalf("effect %v p %v: boundary point classified %s", effect, p, cat)
			}
		}
	}
}

func TestClassifyDownTakesPrecedence(t *testing.T) {
	// With inverted bounds a point can satisfy both rules; down wins.
	th := Thresholds{PValue: 0.05, EffectMin: 1, EffectMax: -1}
	if got := Classify(&Point{Effect: 0, PValue: 0.01}, th); got != CategoryDown {
		t.Fatalf("expected down to take precedence, got %s", got)
	}
}

func TestCategorizeCountsPartitionInput(t *testing.T) {
	ds, err := NewGenerator(DefaultSeed).Generate(5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	points := ds.Points
	out, counts := CategorizeAll(points, Thresholds{PValue: 0.05, EffectMin: -0.5, EffectMax: 0.5})

	if len(out) != len(points) {
		t.Fatalf("expected %d categorized points, got %d", len(points), len(out))
	}
	if counts.Total() != len(points) {
		t.Fatalf("counts %+v do not sum to %d", counts, len(points))
	}
	if counts != CountCategories(out) {
		t.Fatalf("recount %+v differs from %+v", CountCategories(out), counts)
	}
	if counts.Up == 0 || counts.Down == 0 || counts.NonSignificant == 0 {
		t.Fatalf("expected all categories to be populated, got %+v", counts)
	}
}

func TestCategorizeDoesNotMutatePoints(t *testing.T) {
	pts := pointsOf(Point{ID: 1, Effect: 3, PValue: 0.001})
	out, _ := Categorize(pts, Thresholds{PValue: 0.05, EffectMin: -1, EffectMax: 1})

	if out[0].Point != pts[0] {
		t.Fatal("expected the categorized view to reference the original point")
	}
	if pts[0].Effect != 3 || pts[0].PValue != 0.001 {
		t.Fatal("expected point fields untouched")
	}
}

func TestCategorizeAllReferencesDatasetInPlace(t *testing.T) {
	ds, err := NewGenerator(DefaultSeed).Generate(2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	th := Thresholds{PValue: 0.05, EffectMin: -0.5, EffectMax: 0.5}

	ptrs := make([]*Point, len(ds.Points))
	for i := range ds.Points {
		ptrs[i] = &ds.Points[i]
	}
	want, wantCounts := Categorize(ptrs, th)
	got, gotCounts := CategorizeAll(ds.Points, th)

	if gotCounts != wantCounts {
		t.Fatalf("expected counts %+v, got %+v", wantCounts, gotCounts)
	}
	for i := range got {
		if got[i].Point != &ds.Points[i] {
			t.Fatalf("point %d is not a reference into the dataset", i)
		}
		if got[i].Category != want[i].Category {
			t.Fatalf("point %d: expected %s, got %s", i, want[i].Category, got[i].Category)
		}
	}

	allocs := testing.AllocsPerRun(5, func() {
		CategorizeAll(ds.Points, th)
	})
	if allocs > 1 {
		t.Fatalf("expected a single allocation per call, got %.0f", allocs)
	}
}
