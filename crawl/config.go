package crawl

import "time"

// Config bounds one crawl. It is read-only for the duration of a crawl.
type Config struct {
	// MaxDepth is the depth at which frames terminate without scanning.
	MaxDepth int // default: 5

	// MaxTime is the wall-clock budget shared by the whole crawl tree.
	MaxTime time.Duration // default: 60s

	// ScrollStep is the scroll cursor advance per iteration, in pixels.
	ScrollStep int // default: 500

	// SettleDelay is the pause after each scroll step.
	SettleDelay time.Duration // default: 1s

	// ClickWait bounds the wait for the document to change after a click.
	ClickWait time.Duration // default: 10s

	// PollInterval is the content-signature polling period during ClickWait.
	PollInterval time.Duration // default: 200ms

	// NavigationSettle is the pause after navigating or going back.
	NavigationSettle time.Duration // default: 2s

	// Tags are the element tags enumerated on every scroll iteration, in
	// order.
	Tags []string
}

// DefaultConfig returns the stock crawl bounds.
func DefaultConfig() Config {
	return Config{
		MaxDepth:         5,
		MaxTime:          60 * time.Second,
		ScrollStep:       500,
		SettleDelay:      time.Second,
		ClickWait:        10 * time.Second,
		PollInterval:     200 * time.Millisecond,
		NavigationSettle: 2 * time.Second,
		Tags:             []string{"button", "a", "span", "li", "td", "div"},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.MaxTime <= 0 {
		c.MaxTime = d.MaxTime
	}
	if c.ScrollStep <= 0 {
		c.ScrollStep = d.ScrollStep
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if len(c.Tags) == 0 {
		c.Tags = d.Tags
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	}
	if c.ClickWait < 0 {
		c.ClickWait = 0
	}
	if c.NavigationSettle < 0 {
		c.NavigationSettle = 0
	}
	return c
}
