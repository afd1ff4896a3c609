package server

import (
	"math"

	"github.com/Krishna8167/volcanocache"
)

// volcanoRequest mirrors the query string and JSON body of /api/volcano-data.
// Pointer fields distinguish "absent" from an explicit zero.
type volcanoRequest struct {
	PValueThreshold *float64 `form:"p_value_threshold" json:"p_value_threshold"`
	LogFCMin        *float64 `form:"log_fc_min" json:"log_fc_min"`
	LogFCMax        *float64 `form:"log_fc_max" json:"log_fc_max"`
	SearchTerm      string   `form:"search_term" json:"search_term"`
	DatasetSize     *int     `form:"dataset_size" json:"dataset_size"`
	MaxPoints       *int     `form:"max_points" json:"max_points"`
	ZoomLevel       *float64 `form:"zoom_level" json:"zoom_level"`
	LODMode         *bool    `form:"lod_mode" json:"lod_mode"`
	XMin            *float64 `form:"x_min" json:"x_min"`
	XMax            *float64 `form:"x_max" json:"x_max"`
	YMin            *float64 `form:"y_min" json:"y_min"`
	YMax            *float64 `form:"y_max" json:"y_max"`
}

// params overlays the request on the defaults. Any viewport bound makes a
// viewport; missing bounds are open.
func (r volcanoRequest) params() volcanocache.Params {
	p := volcanocache.DefaultParams()

	setFloat(&p.PValueThreshold, r.PValueThreshold)
	setFloat(&p.EffectMin, r.LogFCMin)
	setFloat(&p.EffectMax, r.LogFCMax)
	setFloat(&p.ZoomLevel, r.ZoomLevel)
	if r.DatasetSize != nil {
		p.DatasetSize = *r.DatasetSize
	}
	if r.MaxPoints != nil {
		p.MaxPoints = *r.MaxPoints
	}
	if r.LODMode != nil {
		p.DisableLOD = !*r.LODMode
	}
	p.SearchTerm = r.SearchTerm

	if r.XMin != nil || r.XMax != nil || r.YMin != nil || r.YMax != nil {
		v := &volcanocache.Viewport{
			EffectMin:       math.Inf(-1),
			EffectMax:       math.Inf(1),
			SignificanceMin: math.Inf(-1),
			SignificanceMax: math.Inf(1),
		}
		setFloat(&v.EffectMin, r.XMin)
		setFloat(&v.EffectMax, r.XMax)
		setFloat(&v.SignificanceMin, r.YMin)
		setFloat(&v.SignificanceMax, r.YMax)
		p.Viewport = v
	}

	return p
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
