// Package engine fetches the static document for the first recognition
// pass. Engines of increasing weight (plain HTTP, headless browser,
// stealth browser) are raced by a Dispatcher.
package engine

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupportedContent marks a response that is not an HTML document. A
// Dispatcher stops racing when any engine reports it: heavier engines
// would only render the same PDF or image.
var ErrUnsupportedContent = errors.New("engine: unsupported content type")

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http", "rod", "rod-stealth").
	Name() string

	// Fetch retrieves the page content for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
	Stealth bool
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML        string
	Title       string
	StatusCode  int
	FinalURL    string
	ContentType string
	EngineName  string
}
