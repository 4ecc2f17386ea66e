package scraper

import (
	"log/slog"
	"math"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// retireScore is the error score at which a pooled tab is closed.
const retireScore = 3.0

// pageHealth scores a pooled tab: failures add 1, successes subtract 0.5.
// A tab is retired when the score reaches retireScore or it exceeds its
// use or age limit. Crawls leave a lot of state behind (service workers,
// history entries, timers), so tabs are recycled aggressively.
type pageHealth struct {
	created  time.Time
	uses     int
	errScore float64
}

func (h *pageHealth) record(ok bool) {
	h.uses++
	if ok {
		h.errScore = math.Max(0, h.errScore-0.5)
		return
	}
	h.errScore++
}

func (h *pageHealth) shouldRetire(now time.Time, maxUses int, maxAge time.Duration) bool {
	switch {
	case h.errScore >= retireScore:
		return true
	case maxUses > 0 && h.uses >= maxUses:
		return true
	case maxAge > 0 && now.Sub(h.created) >= maxAge:
		return true
	}
	return false
}

// pooledPage is a browser tab owned by the page pool.
type pooledPage struct {
	page   *rod.Page
	health pageHealth
}

// acquirePage borrows a tab, creating one if the pool slot is empty.
func (s *Scraper) acquirePage() (*pooledPage, error) {
	pp, err := s.pool.Get(func() (*pooledPage, error) {
		page, err := s.browser.Page(proto.TargetCreateTarget{})
		if err != nil {
			return nil, err
		}
		return &pooledPage{page: page, health: pageHealth{created: time.Now()}}, nil
	})
	if err != nil {
		// Give the empty slot back so the pool does not shrink.
		s.pool.Put(nil)
		return nil, err
	}
	s.activePages.Add(1)
	return pp, nil
}

// releasePage blanks the tab and returns it to the pool, or closes it when
// its health says so.
func (s *Scraper) releasePage(pp *pooledPage, ok bool) {
	defer s.activePages.Add(-1)

	pp.health.record(ok)
	if pp.health.shouldRetire(time.Now(), s.browserCfg.PageMaxUses, s.browserCfg.PageMaxAge) {
		slog.Debug("retiring browser tab",
			"uses", pp.health.uses, "errScore", pp.health.errScore)
		_ = pp.page.Close()
		s.pool.Put(nil)
		return
	}

	if err := pp.page.Navigate("about:blank"); err != nil {
		slog.Warn("cleanup: failed to navigate to about:blank", "error", err)
		_ = pp.page.Close()
		s.pool.Put(nil)
		return
	}
	s.pool.Put(pp)
}
