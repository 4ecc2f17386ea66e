package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/priceprobe/crawl"
	"github.com/use-agent/priceprobe/engine"
	"github.com/use-agent/priceprobe/models"
	"github.com/ysmood/gson"
)

const (
	domStableWait = 300 * time.Millisecond
	domStableDiff = 0.1
	renderPoll    = 200 * time.Millisecond
)

// pageInfoJS reads the facts the response reports about the start page.
// The status comes from the Navigation Timing entry; 0 when unavailable.
const pageInfoJS = `() => {
	const nav = performance.getEntriesByType('navigation')[0] || {};
	return {
		url: location.href,
		title: document.title || '',
		contentType: document.contentType || '',
		status: nav.responseStatus || 0,
	};
}`

// loadedPage is a pooled tab navigated to a target and ready to read.
type loadedPage struct {
	page        *rod.Page
	finalURL    string
	title       string
	contentType string
	status      int
	release     func(ok bool)
}

// load checks out a tab, prepares it and navigates to target. Navigation
// and the render wait are bounded by timeout; the returned page is not
// bound to any context.
func (s *Scraper) load(ctx context.Context, target string, headers map[string]string, useStealth bool, timeout time.Duration) (*loadedPage, error) {
	pp, err := s.acquirePage()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to open browser tab", err)
	}
	page := pp.page

	var cleanups []func()
	release := func(ok bool) {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		s.releasePage(pp, ok)
	}

	if useStealth {
		remove, err := page.EvalOnNewDocument(stealth.JS)
		if err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		} else {
			cleanups = append(cleanups, func() { _ = remove() })
		}
	}

	if err := setExtraHeaders(page, s.requestHeaders(headers)); err != nil {
		release(false)
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to set headers", err)
	}
	cleanups = append(cleanups, func() { _ = setExtraHeaders(page, nil) })

	router := setupHijack(page, s.scraperCfg.BlockedResourceTypes)
	cleanups = append(cleanups, func() { _ = router.Stop() })

	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	p := page.Context(navCtx)

	if err := p.Navigate(target); err != nil {
		release(false)
		return nil, categorizeError(navCtx, err, "navigation failed")
	}
	if err := p.WaitLoad(); err != nil && navCtx.Err() != nil {
		release(false)
		return nil, categorizeError(navCtx, err, "page load timed out")
	}
	if !waitRendered(navCtx, p, s.scraperCfg.MinBodyLength, s.scraperCfg.RenderWait) {
		slog.Debug("body stayed short after render wait", "url", target)
	}
	_ = bounded(p, 2*time.Second, func(p *rod.Page) error {
		return p.WaitDOMStable(domStableWait, domStableDiff)
	})

	res, err := p.Eval(pageInfoJS)
	if err != nil {
		release(false)
		return nil, categorizeError(navCtx, err, "failed to read page info")
	}
	lp := &loadedPage{
		page:        page,
		finalURL:    res.Value.Get("url").Str(),
		title:       strings.TrimSpace(res.Value.Get("title").Str()),
		contentType: res.Value.Get("contentType").Str(),
		status:      res.Value.Get("status").Int(),
		release:     release,
	}
	if !isHTMLType(lp.contentType) {
		release(true)
		return nil, models.NewScrapeError(models.ErrCodeUnsupported,
			"target is not an HTML document",
			fmt.Errorf("%w: %s", engine.ErrUnsupportedContent, lp.contentType))
	}
	return lp, nil
}

// requestHeaders merges the configured Accept-Language with the caller's
// headers; caller headers win.
func (s *Scraper) requestHeaders(extra map[string]string) map[string]string {
	h := make(map[string]string, len(extra)+1)
	if s.scraperCfg.AcceptLanguage != "" {
		h["Accept-Language"] = s.scraperCfg.AcceptLanguage
	}
	for k, v := range extra {
		h[k] = v
	}
	return h
}

func setExtraHeaders(page *rod.Page, headers map[string]string) error {
	nh := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		nh[k] = gson.New(v)
	}
	return proto.NetworkSetExtraHTTPHeaders{Headers: nh}.Call(page)
}

// waitRendered polls until the body markup is longer than minLen or limit
// elapses. Client-rendered menus often ship an empty shell first.
func waitRendered(ctx context.Context, p *rod.Page, minLen int, limit time.Duration) bool {
	if minLen <= 0 || limit <= 0 {
		return true
	}
	deadline := time.Now().Add(limit)
	for {
		res, err := p.Eval(`() => document.body ? document.body.innerHTML.length : 0`)
		if err == nil && res.Value.Int() > minLen {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(renderPoll):
		}
	}
}

func isHTMLType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}

// requestTimeout converts a client timeout in seconds into the effective
// page-load deadline.
func (s *Scraper) requestTimeout(seconds int) time.Duration {
	d := time.Duration(seconds) * time.Second
	if d <= 0 {
		d = s.scraperCfg.DefaultTimeout
	}
	if s.scraperCfg.MaxTimeout > 0 && d > s.scraperCfg.MaxTimeout {
		d = s.scraperCfg.MaxTimeout
	}
	return d
}

// Render loads req.URL in the browser and returns the rendered document.
// It is the engine.RenderFunc behind the browser tiers of the dispatcher.
func (s *Scraper) Render(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = s.requestTimeout(0)
	}
	lp, err := s.load(ctx, req.URL, req.Headers, req.Stealth, timeout)
	if err != nil {
		return nil, err
	}

	html, err := lp.page.Context(ctx).HTML()
	if err != nil {
		lp.release(false)
		return nil, categorizeError(ctx, err, "failed to read rendered document")
	}
	lp.release(true)

	return &engine.FetchResult{
		HTML:        html,
		Title:       lp.title,
		StatusCode:  lp.status,
		FinalURL:    lp.finalURL,
		ContentType: lp.contentType,
	}, nil
}

// categorizeError maps err into a ScrapeError. Errors that already carry a
// code pass through.
func categorizeError(ctx context.Context, err error, msg string) *models.ScrapeError {
	var se *models.ScrapeError
	switch {
	case errors.As(err, &se):
		return se
	case errors.Is(err, context.DeadlineExceeded), ctx != nil && errors.Is(ctx.Err(), context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, crawl.ErrSessionClosed):
		return models.NewScrapeError(models.ErrCodeBrowserCrash, msg, err)
	case errors.Is(err, engine.ErrUnsupportedContent):
		return models.NewScrapeError(models.ErrCodeUnsupported, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeInternal, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
