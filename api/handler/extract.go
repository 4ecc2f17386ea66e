package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/priceprobe/cache"
	"github.com/use-agent/priceprobe/models"
)

// Extract returns a handler for POST /api/v1/extract.
//
//  1. Parse and validate the request, apply defaults.
//  2. Serve from cache when max_age allows.
//  3. Run the extraction and map failures to HTTP status codes.
//  4. Store successful responses when max_age is set.
func Extract(ex Extractor, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.ExtractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), err), nil)
			return
		}
		req.Defaults()

		useCache := cc != nil && req.MaxAge > 0
		var key string
		if useCache {
			key = cache.Key(&req)
			if cached, hit := cc.Get(key, req.MaxAge); hit {
				cached.CacheStatus = "hit"
				cached.Timing = models.TimingInfo{TotalMs: time.Since(start).Milliseconds()}
				c.JSON(http.StatusOK, cached)
				return
			}
		}

		resp, err := ex.Extract(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err, &models.ExtractResponse{
				URL:    req.URL,
				Timing: models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
			})
			return
		}

		if useCache {
			cc.Set(key, resp)
			resp.CacheStatus = "miss"
		}
		c.JSON(http.StatusOK, resp)
	}
}
