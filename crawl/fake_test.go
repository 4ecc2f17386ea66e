package crawl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// fakeNode is an in-memory element. onClick mutates the owning session.
type fakeNode struct {
	tag      string
	attrs    map[string]string
	text     string
	clickErr error
	onClick  func()
	clicks   int
}

func (n *fakeNode) TagName() (string, error) { return n.tag, nil }

func (n *fakeNode) Attribute(name string) (string, error) { return n.attrs[name], nil }

func (n *fakeNode) Text() (string, error) { return n.text, nil }

func (n *fakeNode) Click(context.Context) error {
	n.clicks++
	if n.clickErr != nil {
		return n.clickErr
	}
	if n.onClick != nil {
		n.onClick()
	}
	return nil
}

type fakePage struct {
	body   string
	height int
	nodes  []*fakeNode
}

func (p *fakePage) add(n *fakeNode) *fakeNode {
	p.nodes = append(p.nodes, n)
	return n
}

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// fakeSession is a tiny browser: a set of pages, a navigation stack and
// per-page revealed markup appended by clicks and scripts.
type fakeSession struct {
	pages    map[string]*fakePage
	stack    []string
	revealed map[string]string
	scripts  map[string]func()

	clock      *fakeClock
	scrollCost time.Duration

	navigations []string
	scrolls     int
	closed      bool
}

func newFakeSession(start string) *fakeSession {
	return &fakeSession{
		pages:    make(map[string]*fakePage),
		stack:    []string{start},
		revealed: make(map[string]string),
		scripts:  make(map[string]func()),
	}
}

func (s *fakeSession) page(url, body string) *fakePage {
	p := &fakePage{body: body, height: 100}
	s.pages[url] = p
	return p
}

func (s *fakeSession) current() string { return s.stack[len(s.stack)-1] }

func (s *fakeSession) check() error {
	if s.closed {
		return fmt.Errorf("cdp: %w", ErrSessionClosed)
	}
	return nil
}

func (s *fakeSession) CurrentURL(context.Context) (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}
	return s.current(), nil
}

func (s *fakeSession) PageSource(context.Context) (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}
	p, ok := s.pages[s.current()]
	if !ok {
		return "", errors.New("no document")
	}
	return "<html><body>" + p.body + s.revealed[s.current()] + "</body></html>", nil
}

func (s *fakeSession) ContentSignature(ctx context.Context) (string, error) {
	return s.PageSource(ctx)
}

func (s *fakeSession) FindByTag(_ context.Context, tag string) ([]Node, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	p, ok := s.pages[s.current()]
	if !ok {
		return nil, nil
	}
	var out []Node
	for _, n := range p.nodes {
		if strings.EqualFold(n.tag, tag) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *fakeSession) ScrollHeight(context.Context) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	if p, ok := s.pages[s.current()]; ok {
		return p.height, nil
	}
	return 0, nil
}

func (s *fakeSession) ScrollTo(context.Context, int) error {
	if err := s.check(); err != nil {
		return err
	}
	s.scrolls++
	if s.clock != nil {
		s.clock.advance(s.scrollCost)
	}
	return nil
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	if err := s.check(); err != nil {
		return err
	}
	if _, ok := s.pages[url]; !ok {
		return fmt.Errorf("navigate %s: net::ERR_NAME_NOT_RESOLVED", url)
	}
	s.navigations = append(s.navigations, url)
	s.stack = append(s.stack, url)
	return nil
}

func (s *fakeSession) Back(context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	if len(s.stack) > 1 {
		s.stack = s.stack[:len(s.stack)-1]
	}
	return nil
}

func (s *fakeSession) RunScript(_ context.Context, script string) error {
	if err := s.check(); err != nil {
		return err
	}
	fn, ok := s.scripts[script]
	if !ok {
		return fmt.Errorf("ReferenceError: %s is not defined", script)
	}
	fn()
	return nil
}

func listingBody() string {
	var b strings.Builder
	b.WriteString("<ul>")
	for i := 1; i <= 12; i++ {
		fmt.Fprintf(&b, "<li>Cerveza Heineken lata numero %s $%d.%d90</li>", strings.Repeat("i", i), i, i%10)
	}
	b.WriteString("</ul>")
	return b.String()
}
