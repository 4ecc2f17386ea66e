package crawl

import (
	"context"
	"errors"

	"github.com/use-agent/priceprobe/classify"
)

// ErrSessionClosed reports that the browser behind a Session is gone. It
// is the only collaborator failure a crawl propagates; every other error
// is recovered by skipping the node or reference involved.
var ErrSessionClosed = errors.New("crawl: browser session closed")

// Node is a live element handle. Handles go stale when the document
// changes; methods then return an error.
type Node interface {
	classify.Element

	// Text returns the rendered text of the node.
	Text() (string, error)

	// Click performs a user click. Errors such as "not interactable" or
	// "click intercepted" are recoverable.
	Click(ctx context.Context) error
}

// Session is the browser collaborator driven by the crawl. One Session is
// shared by the whole crawl tree and is used strictly sequentially.
type Session interface {
	CurrentURL(ctx context.Context) (string, error)

	// PageSource returns the serialized document.
	PageSource(ctx context.Context) (string, error)

	// ContentSignature returns a value that changes whenever the visible
	// document changes, typically the body markup.
	ContentSignature(ctx context.Context) (string, error)

	FindByTag(ctx context.Context, tag string) ([]Node, error)

	ScrollHeight(ctx context.Context) (int, error)
	ScrollTo(ctx context.Context, y int) error

	Navigate(ctx context.Context, url string) error
	Back(ctx context.Context) error

	// RunScript executes a click-handler body in the page.
	RunScript(ctx context.Context, script string) error
}

// fatal returns the error that must abort the crawl, or nil when err is
// recoverable.
func fatal(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, ErrSessionClosed) {
		return err
	}
	return nil
}
