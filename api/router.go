// Package api wires the HTTP surface of the extraction service.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/priceprobe/api/handler"
	"github.com/use-agent/priceprobe/api/middleware"
	"github.com/use-agent/priceprobe/cache"
	"github.com/use-agent/priceprobe/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work.
func NewRouter(ex handler.Extractor, cfg *config.Config, cc *cache.Cache, jobs *handler.JobStore, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(ex, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/extract", handler.Extract(ex, cc))
	protected.POST("/batch", handler.PostBatch(ex, jobs, cfg.Batch))
	protected.GET("/batch/:id", handler.GetBatch(jobs))

	return r
}
