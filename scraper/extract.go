package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/url"
	"time"

	"github.com/use-agent/priceprobe/crawl"
	"github.com/use-agent/priceprobe/engine"
	"github.com/use-agent/priceprobe/models"
	"github.com/use-agent/priceprobe/redundancy"
)

// Extract runs the recognition pipeline for one URL. The static document is
// analysed first; the interactive crawl runs when it is not recognized, or
// always with ForceInteractive. "http" mode never starts the browser.
func (s *Scraper) Extract(ctx context.Context, req *models.ExtractRequest) (*models.ExtractResponse, error) {
	start := time.Now()
	req.Defaults()

	if err := validateTarget(req.URL); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), err)
	}

	resp := &models.ExtractResponse{URL: req.URL}
	var result *models.ExtractionResult

	if req.FetchMode != "browser" {
		fetched, err := s.fetchStatic(ctx, req)
		switch {
		case errors.Is(err, engine.ErrUnsupportedContent):
			return nil, categorizeError(ctx, err, "target is not an HTML document")
		case err != nil && (req.FetchMode == "http" || s.open == nil):
			return nil, categorizeError(ctx, err, "static fetch failed")
		case err != nil:
			if ctx.Err() != nil {
				return nil, categorizeError(ctx, ctx.Err(), "request canceled")
			}
			slog.Warn("static fetch failed, falling back to browser", "url", req.URL, "error", err)
		default:
			fillFromFetch(resp, fetched)
			result, err = s.rec.ClassicHTML(fetched.HTML)
			if err != nil {
				return nil, models.NewScrapeError(models.ErrCodeInternal, "failed to parse document", err)
			}
		}
	}
	resp.Timing.StaticMs = time.Since(start).Milliseconds()

	needCrawl := result == nil || !result.Recognized || req.ForceInteractive
	if needCrawl && req.FetchMode != "http" && s.open != nil {
		crawlStart := time.Now()
		merged, err := s.interactive(ctx, req, resp, result)
		resp.Timing.InteractiveMs = time.Since(crawlStart).Milliseconds()
		if err != nil {
			return nil, err
		}
		result = merged
	}

	if result == nil {
		result = models.NewExtractionResult("")
	}
	resp.Success = true
	resp.Data = result
	resp.Timing.TotalMs = time.Since(start).Milliseconds()

	slog.Info("extraction complete",
		"url", req.URL,
		"recognized", result.Recognized,
		"items", len(result.Items),
		"interactive", resp.Interactive,
		"engine", resp.EngineUsed,
		"totalMs", resp.Timing.TotalMs,
	)
	return resp, nil
}

// fetchStatic produces the static document through the dispatcher for
// "auto" requests, or the plain HTTP engine.
func (s *Scraper) fetchStatic(ctx context.Context, req *models.ExtractRequest) (*engine.FetchResult, error) {
	freq := &engine.FetchRequest{
		URL:     req.URL,
		Headers: req.Headers,
		Timeout: s.requestTimeout(req.Timeout),
		Stealth: req.Stealth,
	}
	fetch := s.httpFetch
	if req.FetchMode == "auto" && s.dispatch != nil {
		fetch = s.dispatch
	}
	return fetch(ctx, freq)
}

// interactive opens a browser session on the start page, crawls it and
// merges the crawl tree into static. A tab that fails to open is not fatal
// when the static pass produced a document.
func (s *Scraper) interactive(ctx context.Context, req *models.ExtractRequest, resp *models.ExtractResponse, static *models.ExtractionResult) (*models.ExtractionResult, error) {
	opened, err := s.open(ctx, req)
	if err != nil {
		var se *models.ScrapeError
		if static != nil && !(errors.As(err, &se) && se.Code == models.ErrCodeUnsupported) && ctx.Err() == nil {
			slog.Warn("browser session failed, keeping static result", "url", req.URL, "error", err)
			return static, nil
		}
		return nil, categorizeError(ctx, err, "failed to open browser session")
	}
	if resp.FinalURL == "" {
		resp.FinalURL = opened.finalURL
		resp.Title = opened.title
		resp.StatusCode = opened.status
		resp.ContentType = mediaType(opened.contentType)
	}

	cfg := s.crawlCfg
	if req.MaxTime > 0 {
		cfg.MaxTime = time.Duration(req.MaxTime) * time.Second
	}
	if req.MaxDepth > 0 {
		cfg.MaxDepth = req.MaxDepth
	}

	outcome, err := crawl.New(cfg, s.rec, s.deny).Crawl(ctx, opened.sess)
	opened.release(err == nil)
	if err != nil {
		return nil, categorizeError(ctx, err, "interactive crawl aborted")
	}

	resp.Interactive = true
	stats := outcome.Stats
	resp.Crawl = &stats

	if static == nil {
		return outcome.Result, nil
	}
	redundancy.Merge(static, outcome.Result)
	return static, nil
}

func fillFromFetch(resp *models.ExtractResponse, r *engine.FetchResult) {
	resp.FinalURL = r.FinalURL
	resp.StatusCode = r.StatusCode
	resp.ContentType = mediaType(r.ContentType)
	resp.Title = r.Title
	resp.EngineUsed = r.EngineName
}

func mediaType(contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	return contentType
}

// validateTarget accepts absolute http and https URLs only.
func validateTarget(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}
