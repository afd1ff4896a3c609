// Package server exposes the volcano pipeline and cache operations over HTTP.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Krishna8167/volcanocache"
	"github.com/Krishna8167/volcanocache/internal/metrics"
)

// Config wires a Server. Cache is required; everything else has defaults.
// A caller-supplied Registry gets the cache collector and the HTTP metrics
// registered on it.
type Config struct {
	Cache       *volcanocache.Cache
	Logger      *slog.Logger
	Version     string
	AllowOrigin string
	Registry    *prometheus.Registry
}

// Server is the gin engine plus the state its handlers share.
type Server struct {
	cache    *volcanocache.Cache
	pipeline *volcanocache.Pipeline
	logger   *slog.Logger
	version  string
	origin   string
	registry *prometheus.Registry
	http     *metrics.HTTP
	engine   *gin.Engine
}

// New builds the gin engine and its metrics. cfg.Cache must not be nil.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "http"))

	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	if cfg.AllowOrigin == "" {
		cfg.AllowOrigin = "*"
	}

	s := &Server{
		cache:    cfg.Cache,
		pipeline: volcanocache.NewPipeline(cfg.Cache, cfg.Logger),
		logger:   logger,
		version:  cfg.Version,
		origin:   cfg.AllowOrigin,
	}

	if cfg.Registry != nil {
		s.registry = cfg.Registry
		s.registry.MustRegister(metrics.NewCacheCollector(cfg.Cache))
		s.http = metrics.NewHTTP(cfg.Registry)
	} else {
		s.registry, s.http = metrics.NewRegistry(cfg.Cache)
	}

	s.engine = s.routes()
	return s
}

// Handler returns the engine for use with an http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.accessLog(), s.cors())

	r.GET("/", s.handleRoot)
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	api := r.Group("/api", compressZstd())
	api.GET("/volcano-data", s.handleVolcanoQuery)
	api.POST("/volcano-data", s.handleVolcanoJSON)

	cache := api.Group("/cache")
	cache.GET("/status", s.handleCacheStatus)
	cache.POST("/warm", s.handleCacheWarm)
	cache.POST("/clear", s.handleCacheClear)

	return r
}
