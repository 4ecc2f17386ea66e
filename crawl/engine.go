// Package crawl drives a browser session through a bounded, depth-first
// interactive crawl: scrolling, clicking expanders and following links,
// folding every new snapshot into one ExtractionResult.
package crawl

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/priceprobe/classify"
	"github.com/use-agent/priceprobe/extract"
	"github.com/use-agent/priceprobe/models"
	"github.com/use-agent/priceprobe/redundancy"
)

// Engine runs interactive crawls. It holds configuration only; all
// per-crawl state lives in the History and the crawl state passed down the
// recursion, so one Engine may serve concurrent crawls on distinct
// sessions.
type Engine struct {
	cfg  Config
	rec  *extract.Recognizer
	deny *classify.DenyList

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an Engine. A nil recognizer uses the default options; a nil
// deny list bans nothing.
func New(cfg Config, rec *extract.Recognizer, deny *classify.DenyList) *Engine {
	if rec == nil {
		rec = extract.NewRecognizer(extract.DefaultOptions())
	}
	if deny == nil {
		deny = &classify.DenyList{}
	}
	return &Engine{
		cfg:   cfg.withDefaults(),
		rec:   rec,
		deny:  deny,
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// Outcome is the aggregated result of one crawl tree.
type Outcome struct {
	Result *models.ExtractionResult
	Stats  models.CrawlStats
}

// state is shared by every frame of one crawl.
type state struct {
	hist     *History
	deadline time.Time
	stats    models.CrawlStats
}

func (st *state) skip(reason string) {
	st.stats.Skipped[reason]++
}

// frame is one invocation of the state machine at (url, depth).
type frame struct {
	pageURL string
	depth   int
	acc     *models.ExtractionResult
}

// Crawl runs an interactive crawl from the session's current page with a
// fresh History.
func (e *Engine) Crawl(ctx context.Context, sess Session) (*Outcome, error) {
	return e.CrawlWithHistory(ctx, sess, NewHistory())
}

// CrawlWithHistory runs an interactive crawl that reads and extends hist.
// Only ErrSessionClosed and context errors are returned; all other
// collaborator failures shrink the result instead.
func (e *Engine) CrawlWithHistory(ctx context.Context, sess Session, hist *History) (*Outcome, error) {
	if hist == nil {
		hist = NewHistory()
	}
	st := &state{
		hist:     hist,
		deadline: e.now().Add(e.cfg.MaxTime),
		stats:    models.CrawlStats{Skipped: make(map[string]int)},
	}

	res, err := e.enter(ctx, sess, st, 0, "")
	if err != nil {
		return nil, err
	}
	st.stats.History = hist.Len()
	return &Outcome{Result: res, Stats: st.stats}, nil
}

// exhausted reports whether the shared budget is spent.
func (e *Engine) exhausted(st *state) bool {
	return !e.now().Before(st.deadline)
}

// enter runs one frame. entry is the reference the parent followed to get
// here; the parent records it in history before navigating, so landing on
// it does not count as a revisit.
func (e *Engine) enter(ctx context.Context, sess Session, st *state, depth int, entry string) (*models.ExtractionResult, error) {
	pageURL, err := sess.CurrentURL(ctx)
	if err != nil {
		if f := fatal(ctx, err); f != nil {
			return nil, f
		}
		st.skip("url_unavailable")
		return models.NewExtractionResult(""), nil
	}

	st.stats.Frames++
	if depth > st.stats.MaxDepth {
		st.stats.MaxDepth = depth
	}

	revisit := st.hist.Covers(pageURL) &&
		(entry == "" || classify.Canonical(pageURL) != classify.Canonical(entry))
	switch {
	case revisit:
		st.skip(string(classify.ReasonVisited))
		return models.NewExtractionResult(""), nil
	case e.deny.BannedDomain(pageURL):
		st.hist.Add(pageURL)
		st.skip(string(classify.ReasonBannedDomain))
		return models.NewExtractionResult(""), nil
	case depth >= e.cfg.MaxDepth:
		st.hist.Add(pageURL)
		st.skip("max_depth")
		return e.textOnly(ctx, sess)
	}

	st.hist.Add(pageURL)
	st.stats.Scanned++
	slog.Debug("crawl frame", "url", pageURL, "depth", depth)

	acc, err := e.snapshot(ctx, sess)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		acc = models.NewExtractionResult("")
	}
	fr := &frame{pageURL: pageURL, depth: depth, acc: acc}

	if err := e.scrollLoop(ctx, sess, st, fr); err != nil {
		return nil, err
	}
	return fr.acc, nil
}

// scrollLoop scans the viewport, then advances the scroll cursor until it
// passes the (possibly growing) scrollable height or the budget runs out.
func (e *Engine) scrollLoop(ctx context.Context, sess Session, st *state, fr *frame) error {
	height, err := sess.ScrollHeight(ctx)
	if f := fatal(ctx, err); f != nil {
		return f
	}

	cursor := 0
	for !e.exhausted(st) {
		pending, err := e.scanTags(ctx, sess, st, fr)
		if err != nil {
			return err
		}
		if err := e.followAll(ctx, sess, st, fr, pending); err != nil {
			return err
		}

		cursor += e.cfg.ScrollStep
		if cursor >= height || e.exhausted(st) {
			return nil
		}
		if err := sess.ScrollTo(ctx, cursor); err != nil {
			if f := fatal(ctx, err); f != nil {
				return f
			}
		}
		if err := e.sleep(ctx, e.cfg.SettleDelay); err != nil {
			return err
		}
		h, err := sess.ScrollHeight(ctx)
		if f := fatal(ctx, err); f != nil {
			return f
		}
		if err == nil && h > height {
			height = h
		}
	}
	return nil
}

// snapshot runs the static recognizer over the current document. A nil
// result with a nil error means the document could not be read.
func (e *Engine) snapshot(ctx context.Context, sess Session) (*models.ExtractionResult, error) {
	src, err := sess.PageSource(ctx)
	if err != nil {
		return nil, fatal(ctx, err)
	}
	res, err := e.rec.ClassicHTML(src)
	if err != nil {
		slog.Debug("snapshot parse failed", "error", err)
		return nil, nil
	}
	return res, nil
}

// textOnly returns the document text without recognition or items.
func (e *Engine) textOnly(ctx context.Context, sess Session) (*models.ExtractionResult, error) {
	res, err := e.snapshot(ctx, sess)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return models.NewExtractionResult(""), nil
	}
	return models.NewExtractionResult(res.FullText), nil
}

// merge folds a snapshot or sub-frame result into the frame accumulator.
func (fr *frame) merge(next *models.ExtractionResult) {
	redundancy.Merge(fr.acc, next)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
