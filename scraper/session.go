package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/priceprobe/crawl"
	"github.com/use-agent/priceprobe/models"
)

const (
	clickTimeout    = 5 * time.Second
	livenessTimeout = 2 * time.Second
)

// openedSession is a loaded tab handed to the crawl engine.
type openedSession struct {
	sess        crawl.Session
	finalURL    string
	title       string
	contentType string
	status      int
	release     func(ok bool)
}

// openRodSession is the production sessionOpener.
func (s *Scraper) openRodSession(ctx context.Context, req *models.ExtractRequest) (*openedSession, error) {
	lp, err := s.load(ctx, req.URL, req.Headers, req.Stealth, s.requestTimeout(req.Timeout))
	if err != nil {
		return nil, err
	}
	return &openedSession{
		sess:        &rodSession{page: lp.page},
		finalURL:    lp.finalURL,
		title:       lp.title,
		contentType: lp.contentType,
		status:      lp.status,
		release:     lp.release,
	}, nil
}

// rodSession implements crawl.Session on a browser tab. Every call binds
// the tab to the caller's context.
type rodSession struct {
	page *rod.Page
}

func (s *rodSession) p(ctx context.Context) *rod.Page {
	return s.page.Context(ctx)
}

// timeoutScope is implemented by *rod.Page and *rod.Element.
type timeoutScope[T any] interface {
	Timeout(d time.Duration) T
	CancelTimeout() T
}

// bounded runs fn on a copy of x limited to d and releases the timer when
// fn returns.
func bounded[T timeoutScope[T]](x T, d time.Duration, fn func(T) error) error {
	scoped := x.Timeout(d)
	defer scoped.CancelTimeout()
	return fn(scoped)
}

// wrap marks err as ErrSessionClosed when the tab no longer answers.
func (s *rodSession) wrap(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	perr := bounded(s.page, livenessTimeout, func(p *rod.Page) error {
		_, err := p.Eval(`() => true`)
		return err
	})
	if perr != nil {
		return fmt.Errorf("%w: %v", crawl.ErrSessionClosed, err)
	}
	return err
}

func (s *rodSession) evalString(ctx context.Context, js string) (string, error) {
	res, err := s.p(ctx).Eval(js)
	if err != nil {
		return "", s.wrap(ctx, err)
	}
	return res.Value.Str(), nil
}

func (s *rodSession) CurrentURL(ctx context.Context) (string, error) {
	return s.evalString(ctx, `() => window.location.href`)
}

func (s *rodSession) PageSource(ctx context.Context) (string, error) {
	html, err := s.p(ctx).HTML()
	if err != nil {
		return "", s.wrap(ctx, err)
	}
	return html, nil
}

func (s *rodSession) ContentSignature(ctx context.Context) (string, error) {
	return s.evalString(ctx, `() => document.body ? document.body.innerHTML : ''`)
}

func (s *rodSession) FindByTag(ctx context.Context, tag string) ([]crawl.Node, error) {
	els, err := s.p(ctx).Elements(tag)
	if err != nil {
		return nil, s.wrap(ctx, err)
	}
	nodes := make([]crawl.Node, 0, len(els))
	for _, el := range els {
		nodes = append(nodes, &rodNode{el: el, tag: tag})
	}
	return nodes, nil
}

func (s *rodSession) ScrollHeight(ctx context.Context) (int, error) {
	res, err := s.p(ctx).Eval(`() => document.body ? document.body.scrollHeight : 0`)
	if err != nil {
		return 0, s.wrap(ctx, err)
	}
	return res.Value.Int(), nil
}

func (s *rodSession) ScrollTo(ctx context.Context, y int) error {
	_, err := s.p(ctx).Eval(`y => window.scrollTo(0, y)`, y)
	return s.wrap(ctx, err)
}

func (s *rodSession) Navigate(ctx context.Context, target string) error {
	p := s.p(ctx)
	if err := p.Navigate(target); err != nil {
		return s.wrap(ctx, err)
	}
	if err := p.WaitLoad(); err != nil {
		return s.wrap(ctx, err)
	}
	return nil
}

func (s *rodSession) Back(ctx context.Context) error {
	return s.wrap(ctx, s.p(ctx).NavigateBack())
}

// RunScript evaluates an inline handler body such as "showMenu(2); return
// false;" in the page.
func (s *rodSession) RunScript(ctx context.Context, script string) error {
	_, err := s.p(ctx).Eval("() => {\n" + script + "\n}")
	return s.wrap(ctx, err)
}

// rodNode is a crawl.Node backed by a DOM element handle.
type rodNode struct {
	el  *rod.Element
	tag string
}

func (n *rodNode) TagName() (string, error) {
	return n.tag, nil
}

func (n *rodNode) Attribute(name string) (string, error) {
	v, err := n.el.Attribute(name)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func (n *rodNode) Text() (string, error) {
	return n.el.Text()
}

func (n *rodNode) Click(ctx context.Context) error {
	err := bounded(n.el.Context(ctx), clickTimeout, func(el *rod.Element) error {
		return el.Click(proto.InputMouseButtonLeft, 1)
	})
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
