package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Krishna8167/volcanocache"
)

type pointJSON struct {
	ID         int     `json:"id"`
	Gene       string  `json:"gene"`
	LogFC      float64 `json:"logFC"`
	Padj       float64 `json:"padj"`
	NegLog10P  float64 `json:"negLog10P"`
	Superclass string  `json:"classyfireSuperclass"`
	Class      string  `json:"classyfireClass"`
	Category   string  `json:"category"`
}

type volcanoResponse struct {
	Data                 []pointJSON         `json:"data"`
	Stats                volcanocache.Counts `json:"stats"`
	TotalRows            int                 `json:"total_rows"`
	FilteredRows         int                 `json:"filtered_rows"`
	PointsBeforeSampling int                 `json:"points_before_sampling"`
	IsDownsampled        bool                `json:"is_downsampled"`
	LODBudget            int                 `json:"lod_budget"`
}

func newVolcanoResponse(res *volcanocache.Result) volcanoResponse {
	data := make([]pointJSON, len(res.Points))
	for i, p := range res.Points {
		data[i] = pointJSON{
			ID:         p.ID,
			Gene:       p.Name,
			LogFC:      p.Effect,
			Padj:       p.PValue,
			NegLog10P:  p.NegLog10P(),
			Superclass: p.Superclass,
			Class:      p.Class,
			Category:   string(p.Category),
		}
	}
	return volcanoResponse{
		Data:                 data,
		Stats:                res.Counts,
		TotalRows:            res.TotalRows,
		FilteredRows:         res.FilteredRows,
		PointsBeforeSampling: res.PointsBeforeSampling,
		IsDownsampled:        res.IsDownsampled,
		LODBudget:            res.Budget,
	}
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Volcano Data API", "version": s.version})
}

func (s *Server) handleHealth(c *gin.Context) {
	warming := true
	select {
	case <-s.cache.WarmDone():
		warming = false
	default:
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "warming": warming})
}

func (s *Server) handleVolcanoQuery(c *gin.Context) {
	var req volcanoRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		s.writeError(c, bindError(err))
		return
	}
	s.serveVolcano(c, req)
}

func (s *Server) handleVolcanoJSON(c *gin.Context) {
	var req volcanoRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(c, bindError(err))
		return
	}
	s.serveVolcano(c, req)
}

func (s *Server) serveVolcano(c *gin.Context, req volcanoRequest) {
	params := req.params()
	if err := params.Validate(); err != nil {
		s.writeError(c, err)
		return
	}

	res, err := s.pipeline.Run(c.Request.Context(), params)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newVolcanoResponse(res))
}

func (s *Server) handleCacheStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": s.cache.Status(),
		"stats":  s.cache.Stats(),
	})
}

// Sizes stays nil when the field is absent, which warms the defaults. An
// explicit empty list warms nothing.
type warmRequest struct {
	Sizes []int `json:"sizes"`
}

func (s *Server) handleCacheWarm(c *gin.Context) {
	var req warmRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(c, bindError(err))
		return
	}

	warmed := s.cache.Warm(c.Request.Context(), req.Sizes)
	s.logger.Info("cache warmed", slog.Any("requested", req.Sizes), slog.Any("warmed", warmed))

	c.JSON(http.StatusOK, gin.H{
		"warmed": warmed,
		"status": s.cache.Status(),
	})
}

func (s *Server) handleCacheClear(c *gin.Context) {
	removed := s.cache.Clear()
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
