// Package scraper owns the headless browser and runs extractions: a static
// pass through the engine dispatcher, then the interactive crawl when the
// static document is not recognized.
package scraper

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/priceprobe/classify"
	"github.com/use-agent/priceprobe/config"
	"github.com/use-agent/priceprobe/crawl"
	"github.com/use-agent/priceprobe/engine"
	"github.com/use-agent/priceprobe/extract"
	"github.com/use-agent/priceprobe/models"
)

// fetchFunc produces the static document for a URL.
type fetchFunc func(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error)

// sessionOpener loads the request URL in a browser tab and hands it over
// as a crawl session.
type sessionOpener func(ctx context.Context, req *models.ExtractRequest) (*openedSession, error)

// Scraper manages the global browser lifecycle, the page pool and the
// recognition pipeline. It is safe for concurrent use.
type Scraper struct {
	browser    *rod.Browser
	pool       rod.Pool[pooledPage]
	browserCfg config.BrowserConfig
	scraperCfg config.ScraperConfig
	crawlCfg   crawl.Config

	rec  *extract.Recognizer
	deny *classify.DenyList

	dispatch  fetchFunc
	httpFetch fetchFunc
	open      sessionOpener

	activePages atomic.Int32
	startTime   time.Time
}

// NewScraper launches a headless browser and initialises the reusable page
// pool and the recognizer.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	browserCfg := cfg.Browser

	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.DefaultProxy != "" {
		l = l.Proxy(browserCfg.DefaultProxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("lang"), "es-ES")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	s := newScraper(cfg)
	s.browser = browser
	s.pool = rod.NewPool[pooledPage](browserCfg.MaxPages)
	s.open = s.openRodSession
	slog.Info("page pool created", "maxPages", browserCfg.MaxPages)
	return s, nil
}

// newScraper builds everything but the browser.
func newScraper(cfg *config.Config) *Scraper {
	return &Scraper{
		browserCfg: cfg.Browser,
		scraperCfg: cfg.Scraper,
		crawlCfg:   cfg.Crawl.Engine(),
		rec:        extract.NewRecognizer(cfg.Extract.Options()),
		deny:       cfg.Extract.DenyList(),
		httpFetch:  engine.NewHTTPEngine(cfg.Scraper.AcceptLanguage).Fetch,
		startTime:  time.Now(),
	}
}

// SetDispatcher routes the static pass of "auto" requests through d.
func (s *Scraper) SetDispatcher(d *engine.Dispatcher) {
	s.dispatch = d.Dispatch
}

// Stats returns a snapshot of the pool's current state.
func (s *Scraper) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    s.browserCfg.MaxPages,
		ActivePages: int(s.activePages.Load()),
	}
}

// Close drains the page pool and kills the browser process.
func (s *Scraper) Close() {
	slog.Info("scraper shutting down: draining page pool")
	s.pool.Cleanup(func(pp *pooledPage) {
		_ = pp.page.Close()
	})
	slog.Info("scraper shutting down: closing browser")
	if err := s.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	slog.Info("scraper shutdown complete")
}
