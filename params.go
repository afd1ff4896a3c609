package volcanocache

import (
	"fmt"
	"math"
	"unicode/utf8"
)

const (
	DefaultPValueThreshold = 0.05
	DefaultEffectMin       = -0.5
	DefaultEffectMax       = 0.5
	DefaultDatasetSize     = 10_000
	DefaultMaxPoints       = 2_000
	DefaultZoomLevel       = 1.0

	MinEffect          = -10.0
	MaxEffect          = 10.0
	MinMaxPoints       = 1_000
	MaxMaxPoints       = 200_000
	MinZoomLevel       = 0.1
	MaxZoomLevel       = 100.0
	MaxSearchTermChars = 100
)

// Viewport is the visible window of the plot: effect on x, -log10(p) on y.
type Viewport struct {
	EffectMin       float64
	EffectMax       float64
	SignificanceMin float64
	SignificanceMax float64
}

/*
Params is one volcano request. The pipeline reads it and never mutates it.

Zero values are legal: normalize substitutes the defaults, and the zero
DisableLOD means the budget follows ZoomLevel. Set DisableLOD to render at
most MaxPoints regardless of zoom.
*/
type Params struct {
	PValueThreshold float64
	EffectMin       float64
	EffectMax       float64
	DatasetSize     int
	MaxPoints       int
	ZoomLevel       float64
	SearchTerm      string
	DisableLOD      bool
	Viewport        *Viewport
}

// DefaultParams returns the parameters of a request that sets nothing.
func DefaultParams() Params {
	return Params{
		PValueThreshold: DefaultPValueThreshold,
		EffectMin:       DefaultEffectMin,
		EffectMax:       DefaultEffectMax,
		DatasetSize:     DefaultDatasetSize,
		MaxPoints:       DefaultMaxPoints,
		ZoomLevel:       DefaultZoomLevel,
	}
}

// Validate rejects out-of-range or malformed parameters. It is meant for
// the request boundary; the pipeline itself only clamps.
func (p Params) Validate() error {
	if math.IsNaN(p.PValueThreshold) || p.PValueThreshold <= 0 || p.PValueThreshold > 1 {
		return validationError("p_value_threshold", fmt.Sprintf("%v not in (0, 1]", p.PValueThreshold))
	}
	if err := validateEffect("log_fc_min", p.EffectMin); err != nil {
		return err
	}
	if err := validateEffect("log_fc_max", p.EffectMax); err != nil {
		return err
	}
	if err := ValidateDatasetSize(p.DatasetSize); err != nil {
		return err
	}
	if p.MaxPoints < MinMaxPoints || p.MaxPoints > MaxMaxPoints {
		return validationError("max_points", fmt.Sprintf("%d not in [%d, %d]", p.MaxPoints, MinMaxPoints, MaxMaxPoints))
	}
	if math.IsNaN(p.ZoomLevel) || p.ZoomLevel < MinZoomLevel || p.ZoomLevel > MaxZoomLevel {
		return validationError("zoom_level", fmt.Sprintf("%v not in [%v, %v]", p.ZoomLevel, MinZoomLevel, MaxZoomLevel))
	}
	if n := utf8.RuneCountInString(p.SearchTerm); n > MaxSearchTermChars {
		return validationError("search_term", fmt.Sprintf("%d characters, at most %d allowed", n, MaxSearchTermChars))
	}
	if v := p.Viewport; v != nil {
		if v.EffectMin > v.EffectMax {
			return validationError("viewport", "x_min greater than x_max")
		}
		if v.SignificanceMin > v.SignificanceMax {
			return validationError("viewport", "y_min greater than y_max")
		}
	}
	return nil
}

func validateEffect(field string, v float64) error {
	if math.IsNaN(v) || v < MinEffect || v > MaxEffect {
		return validationError(field, fmt.Sprintf("%v not in [%v, %v]", v, MinEffect, MaxEffect))
	}
	return nil
}

// ValidateDatasetSize rejects sizes outside [MinDatasetSize, MaxDatasetSize].
func ValidateDatasetSize(size int) error {
	if size < MinDatasetSize || size > MaxDatasetSize {
		return validationError("dataset_size", fmt.Sprintf("%d not in [%d, %d]", size, MinDatasetSize, MaxDatasetSize))
	}
	return nil
}

// normalize clamps every numeric field to its documented range, substituting
// defaults for zero values that are not legal on their own.
func (p Params) normalize() Params {
	if p.PValueThreshold <= 0 || math.IsNaN(p.PValueThreshold) {
		p.PValueThreshold = DefaultPValueThreshold
	}
	p.PValueThreshold = math.Min(p.PValueThreshold, 1)

	p.EffectMin = clampFloat(p.EffectMin, MinEffect, MaxEffect)
	p.EffectMax = clampFloat(p.EffectMax, MinEffect, MaxEffect)

	if p.DatasetSize == 0 {
		p.DatasetSize = DefaultDatasetSize
	}
	p.DatasetSize = ClampDatasetSize(p.DatasetSize)

	if p.MaxPoints == 0 {
		p.MaxPoints = DefaultMaxPoints
	}
	p.MaxPoints = min(max(p.MaxPoints, MinMaxPoints), MaxMaxPoints)

	if p.ZoomLevel == 0 || math.IsNaN(p.ZoomLevel) {
		p.ZoomLevel = DefaultZoomLevel
	}
	p.ZoomLevel = clampFloat(p.ZoomLevel, MinZoomLevel, MaxZoomLevel)

	if r := []rune(p.SearchTerm); len(r) > MaxSearchTermChars {
		p.SearchTerm = string(r[:MaxSearchTermChars])
	}
	return p
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}
