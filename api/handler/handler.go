// Package handler implements the HTTP endpoints of the extraction API.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/priceprobe/models"
)

// Extractor runs one extraction. *scraper.Scraper implements it.
type Extractor interface {
	Extract(ctx context.Context, req *models.ExtractRequest) (*models.ExtractResponse, error)
	Stats() models.PoolStats
}

// asScrapeError returns err as a ScrapeError, wrapping unknown errors as
// INTERNAL_ERROR.
func asScrapeError(err error) *models.ScrapeError {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se
	}
	return models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
}

// respondError writes a structured JSON error with the status matching its
// code.
func respondError(c *gin.Context, err error, resp *models.ExtractResponse) {
	se := asScrapeError(err)
	if resp == nil {
		resp = &models.ExtractResponse{}
	}
	resp.Success = false
	resp.Error = se.ToDetail()
	c.JSON(mapErrorToStatus(se), resp)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case models.ErrCodeNavigation:
		return http.StatusBadGateway
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case models.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
