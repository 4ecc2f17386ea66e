package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/use-agent/priceprobe/config"
	"github.com/use-agent/priceprobe/crawl"
	"github.com/use-agent/priceprobe/engine"
	"github.com/use-agent/priceprobe/models"
)

const target = "https://bar.example/menu"

func listingHTML() string {
	var b strings.Builder
	b.WriteString("<html><head><title>Carta</title></head><body><ul>")
	for i := 1; i <= 12; i++ {
		fmt.Fprintf(&b, "<li>Cerveza Heineken lata numero %s $%d.%d90</li>", strings.Repeat("i", i), i, i%10)
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}

const welcomeHTML = "<html><body><p>Bienvenidos al bar</p></body></html>"

// pageSession is a single-page crawl.Session.
type pageSession struct {
	url    string
	html   string
	closed bool
}

func (s *pageSession) err() error {
	if s.closed {
		return crawl.ErrSessionClosed
	}
	return nil
}

func (s *pageSession) CurrentURL(context.Context) (string, error) { return s.url, s.err() }
func (s *pageSession) PageSource(context.Context) (string, error) { return s.html, s.err() }
func (s *pageSession) ContentSignature(context.Context) (string, error) {
	return s.html, s.err()
}
func (s *pageSession) FindByTag(context.Context, string) ([]crawl.Node, error) {
	return nil, s.err()
}
func (s *pageSession) ScrollHeight(context.Context) (int, error) { return 100, s.err() }
func (s *pageSession) ScrollTo(context.Context, int) error { return s.err() }
func (s *pageSession) Navigate(context.Context, string) error { return s.err() }
func (s *pageSession) Back(context.Context) error { return s.err() }
func (s *pageSession) RunScript(context.Context, string) error { return s.err() }

type harness struct {
	s        *Scraper
	fetches  int
	opens    int
	released []bool
}

func newHarness(t *testing.T, static func() (*engine.FetchResult, error), sess *pageSession) *harness {
	t.Helper()
	cfg := config.Load()
	cfg.Crawl.SettleDelay = 0
	cfg.Crawl.ClickWait = 0
	cfg.Crawl.NavigationSettle = 0

	h := &harness{s: newScraper(cfg)}
	h.s.httpFetch = func(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
		h.fetches++
		if req.URL != target {
			t.Errorf("fetch url = %q, want %q", req.URL, target)
		}
		return static()
	}
	h.s.open = func(ctx context.Context, req *models.ExtractRequest) (*openedSession, error) {
		h.opens++
		if sess == nil {
			return nil, models.NewScrapeError(models.ErrCodeNavigation, "navigation failed", errors.New("net::ERR_NAME_NOT_RESOLVED"))
		}
		return &openedSession{
			sess:        sess,
			finalURL:    sess.url,
			title:       "Carta",
			contentType: "text/html",
			status:      200,
			release:     func(ok bool) { h.released = append(h.released, ok) },
		}, nil
	}
	return h
}

func staticHTML(html string) func() (*engine.FetchResult, error) {
	return func() (*engine.FetchResult, error) {
		return &engine.FetchResult{
			HTML:        html,
			StatusCode:  200,
			FinalURL:    target,
			ContentType: "text/html; charset=utf-8",
			EngineName:  "http",
		}, nil
	}
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var se *models.ScrapeError
	if !errors.As(err, &se) {
		t.Fatalf("error %v is not a ScrapeError", err)
	}
	return se.Code
}

func TestExtract_StaticRecognizedSkipsBrowser(t *testing.T) {
	h := newHarness(t, staticHTML(listingHTML()), &pageSession{url: target})

	resp, err := h.s.Extract(context.Background(), &models.ExtractRequest{URL: target})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if h.opens != 0 {
		t.Errorf("browser sessions = %d, want 0", h.opens)
	}
	if !resp.Success || resp.Interactive || resp.Crawl != nil {
		t.Errorf("success=%v interactive=%v crawl=%v", resp.Success, resp.Interactive, resp.Crawl)
	}
	if !resp.Data.Recognized || len(resp.Data.Items) != 12 {
		t.Errorf("recognized=%v items=%d, want true/12", resp.Data.Recognized, len(resp.Data.Items))
	}
	if resp.EngineUsed != "http" || resp.ContentType != "text/html" || resp.StatusCode != 200 {
		t.Errorf("engine=%q contentType=%q status=%d", resp.EngineUsed, resp.ContentType, resp.StatusCode)
	}
}

func TestExtract_UnrecognizedRunsCrawl(t *testing.T) {
	sess := &pageSession{url: target, html: listingHTML()}
	h := newHarness(t, staticHTML(welcomeHTML), sess)

	resp, err := h.s.Extract(context.Background(), &models.ExtractRequest{URL: target})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if h.opens != 1 {
		t.Fatalf("browser sessions = %d, want 1", h.opens)
	}
	if !resp.Interactive || resp.Crawl == nil {
		t.Fatalf("interactive=%v crawl=%v", resp.Interactive, resp.Crawl)
	}
	if resp.Crawl.Scanned != 1 {
		t.Errorf("scanned = %d, want 1", resp.Crawl.Scanned)
	}
	if !resp.Data.Recognized || len(resp.Data.Items) != 12 {
		t.Errorf("recognized=%v items=%d, want true/12", resp.Data.Recognized, len(resp.Data.Items))
	}
	if !strings.Contains(resp.Data.FullText, "bienvenidos al bar") {
		t.Errorf("static text lost from merged result: %q", resp.Data.FullText)
	}
	if len(h.released) != 1 || !h.released[0] {
		t.Errorf("released = %v, want [true]", h.released)
	}
}

func TestExtract_ForceInteractive(t *testing.T) {
	sess := &pageSession{url: target, html: listingHTML()}
	h := newHarness(t, staticHTML(listingHTML()), sess)

	resp, err := h.s.Extract(context.Background(), &models.ExtractRequest{URL: target, ForceInteractive: true})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if h.opens != 1 || !resp.Interactive {
		t.Errorf("opens=%d interactive=%v, want 1/true", h.opens, resp.Interactive)
	}
	if len(resp.Data.Items) != 12 {
		t.Errorf("items = %d, want 12 after merging identical snapshots", len(resp.Data.Items))
	}
}

func TestExtract_HTTPModeNeverOpensBrowser(t *testing.T) {
	h := newHarness(t, staticHTML(welcomeHTML), &pageSession{url: target})

	resp, err := h.s.Extract(context.Background(), &models.ExtractRequest{URL: target, FetchMode: "http"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if h.opens != 0 || resp.Interactive {
		t.Errorf("opens=%d interactive=%v, want 0/false", h.opens, resp.Interactive)
	}
	if resp.Data.Recognized {
		t.Error("welcome page recognized")
	}
}

func TestExtract_BrowserModeSkipsStaticFetch(t *testing.T) {
	sess := &pageSession{url: target, html: listingHTML()}
	h := newHarness(t, staticHTML(welcomeHTML), sess)

	resp, err := h.s.Extract(context.Background(), &models.ExtractRequest{URL: target, FetchMode: "browser"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if h.fetches != 0 {
		t.Errorf("static fetches = %d, want 0", h.fetches)
	}
	if resp.FinalURL != target || resp.Title != "Carta" || resp.StatusCode != 200 {
		t.Errorf("page info not taken from session: %+v", resp)
	}
	if !resp.Data.Recognized {
		t.Error("crawl result not recognized")
	}
}

func TestExtract_DispatcherUsedInAutoMode(t *testing.T) {
	h := newHarness(t, staticHTML(welcomeHTML), &pageSession{url: target})
	dispatched := 0
	h.s.dispatch = func(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
		dispatched++
		res, _ := staticHTML(listingHTML())()
		res.EngineName = "rod"
		return res, nil
	}

	resp, err := h.s.Extract(context.Background(), &models.ExtractRequest{URL: target})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if dispatched != 1 || h.fetches != 0 {
		t.Errorf("dispatched=%d http fetches=%d, want 1/0", dispatched, h.fetches)
	}
	if resp.EngineUsed != "rod" {
		t.Errorf("engine = %q, want rod", resp.EngineUsed)
	}
}

func TestExtract_UnsupportedContent(t *testing.T) {
	h := newHarness(t, func() (*engine.FetchResult, error) {
		return nil, fmt.Errorf("%w: application/pdf", engine.ErrUnsupportedContent)
	}, &pageSession{url: target})

	_, err := h.s.Extract(context.Background(), &models.ExtractRequest{URL: target})
	if code := codeOf(t, err); code != models.ErrCodeUnsupported {
		t.Errorf("code = %s, want %s", code, models.ErrCodeUnsupported)
	}
	if h.opens != 0 {
		t.Errorf("browser sessions = %d, want 0", h.opens)
	}
}

func TestExtract_InvalidURL(t *testing.T) {
	h := newHarness(t, staticHTML(welcomeHTML), nil)
	for _, raw := range []string{"ftp://bar.example/menu", "bar.example/menu", "http://", "javascript:void(0)"} {
		_, err := h.s.Extract(context.Background(), &models.ExtractRequest{URL: raw})
		if code := codeOf(t, err); code != models.ErrCodeInvalidInput {
			t.Errorf("%q: code = %s, want %s", raw, code, models.ErrCodeInvalidInput)
		}
	}
	if h.fetches != 0 {
		t.Errorf("fetches = %d, want 0", h.fetches)
	}
}

func TestExtract_SessionClosedIsBrowserCrash(t *testing.T) {
	sess := &pageSession{url: target, closed: true}
	h := newHarness(t, staticHTML(welcomeHTML), sess)

	_, err := h.s.Extract(context.Background(), &models.ExtractRequest{URL: target})
	if code := codeOf(t, err); code != models.ErrCodeBrowserCrash {
		t.Errorf("code = %s, want %s", code, models.ErrCodeBrowserCrash)
	}
	if !errors.Is(err, crawl.ErrSessionClosed) {
		t.Errorf("error %v does not wrap ErrSessionClosed", err)
	}
	if len(h.released) != 1 || h.released[0] {
		t.Errorf("released = %v, want [false]", h.released)
	}
}

func TestExtract_StaticFailureFallsBackToBrowser(t *testing.T) {
	sess := &pageSession{url: target, html: listingHTML()}
	h := newHarness(t, func() (*engine.FetchResult, error) {
		return nil, errors.New("connection refused")
	}, sess)

	resp, err := h.s.Extract(context.Background(), &models.ExtractRequest{URL: target})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !resp.Interactive || !resp.Data.Recognized {
		t.Errorf("interactive=%v recognized=%v, want true/true", resp.Interactive, resp.Data.Recognized)
	}
	if resp.FinalURL != target {
		t.Errorf("final url = %q", resp.FinalURL)
	}
}

func TestExtract_HTTPModeStaticFailure(t *testing.T) {
	h := newHarness(t, func() (*engine.FetchResult, error) {
		return nil, errors.New("connection refused")
	}, &pageSession{url: target})

	_, err := h.s.Extract(context.Background(), &models.ExtractRequest{URL: target, FetchMode: "http"})
	if code := codeOf(t, err); code != models.ErrCodeNavigation {
		t.Errorf("code = %s, want %s", code, models.ErrCodeNavigation)
	}
}

func TestExtract_SessionOpenFailureKeepsStatic(t *testing.T) {
	h := newHarness(t, staticHTML(welcomeHTML), nil)

	resp, err := h.s.Extract(context.Background(), &models.ExtractRequest{URL: target})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if h.opens != 1 || resp.Interactive {
		t.Errorf("opens=%d interactive=%v, want 1/false", h.opens, resp.Interactive)
	}
	if resp.Data.Recognized || !strings.Contains(resp.Data.FullText, "bienvenidos") {
		t.Errorf("unexpected data %+v", resp.Data)
	}
}

func TestExtract_NoSessionAndNoStatic(t *testing.T) {
	h := newHarness(t, staticHTML(welcomeHTML), nil)

	_, err := h.s.Extract(context.Background(), &models.ExtractRequest{URL: target, FetchMode: "browser"})
	if code := codeOf(t, err); code != models.ErrCodeNavigation {
		t.Errorf("code = %s, want %s", code, models.ErrCodeNavigation)
	}
}
