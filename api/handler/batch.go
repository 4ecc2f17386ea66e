package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/priceprobe/config"
	"github.com/use-agent/priceprobe/models"
	"github.com/use-agent/priceprobe/webhook"
)

// PostBatch returns a handler for POST /api/v1/batch. The job runs in the
// background; progress is polled with GetBatch or pushed to the webhook.
func PostBatch(ex Extractor, jobs *JobStore, cfg config.BatchConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), err), nil)
			return
		}
		if cfg.MaxTargets > 0 && len(req.Targets) > cfg.MaxTargets {
			msg := fmt.Sprintf("maximum %d targets per batch", cfg.MaxTargets)
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, msg, nil), nil)
			return
		}

		job := jobs.create(len(req.Targets), req.WebhookURL, req.WebhookSecret)
		go runBatch(ex, jobs, job, req, cfg.Concurrency)

		c.JSON(http.StatusAccepted, models.BatchResponse{
			ID:     job.ID,
			Status: JobProcessing,
			Total:  job.Total,
		})
	}
}

// GetBatch returns a handler for GET /api/v1/batch/:id.
func GetBatch(jobs *JobStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, ok := jobs.Status(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "batch job not found",
				},
			})
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

// runBatch extracts every target with at most concurrency in flight.
func runBatch(ex Extractor, jobs *JobStore, job *models.BatchJob, req models.BatchRequest, concurrency int) {
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i, target := range req.Targets {
		wg.Add(1)
		go func(idx int, target models.BatchTarget) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			item := &models.BatchItemResult{
				Name:     target.Name,
				Response: extractOne(ex, req.Options.Request(target.URL)),
			}
			jobs.record(job, idx, item)
			notify(job, webhook.EventBatchItem, item)
		}(i, target)
	}
	wg.Wait()

	status := jobs.finish(job)
	final, _ := jobs.Status(job.ID)
	notify(job, webhook.EventBatchCompleted, final)

	slog.Info("batch job finished", "id", job.ID, "status", status, "total", job.Total)
}

// extractOne runs one target, folding failures into the response.
func extractOne(ex Extractor, req *models.ExtractRequest) *models.ExtractResponse {
	start := time.Now()
	resp, err := ex.Extract(context.Background(), req)
	if err != nil {
		slog.Warn("batch target failed", "url", req.URL, "error", err)
		return &models.ExtractResponse{
			URL:    req.URL,
			Error:  asScrapeError(err).ToDetail(),
			Timing: models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
		}
	}
	return resp
}

func notify(job *models.BatchJob, eventType string, data any) {
	if job.WebhookURL == "" {
		return
	}
	webhook.DeliverAsync(job.WebhookURL, job.WebhookSecret, &webhook.Event{
		Type:      eventType,
		JobID:     job.ID,
		Timestamp: time.Now().Unix(),
		Data:      data,
	})
}
