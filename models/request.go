package models

// ExtractRequest is the payload for POST /api/v1/extract.
type ExtractRequest struct {
	// URL is the page to analyse, usually decoded from a QR code. Required.
	URL string `json:"url" binding:"required,url"`

	// ForceInteractive runs the interactive crawl even when the static
	// pass already recognized the page.
	ForceInteractive bool `json:"force_interactive,omitempty"`

	// MaxTime is the interactive crawl budget in seconds, shared by the
	// whole visit tree. Default: the configured crawl budget. Max: 300.
	MaxTime int `json:"max_time,omitempty" binding:"omitempty,min=1,max=300"`

	// MaxDepth bounds recursive re-entry into linked pages.
	// Default: the configured maximum depth. Max: 10.
	MaxDepth int `json:"max_depth,omitempty" binding:"omitempty,min=1,max=10"`

	// Timeout is the deadline in seconds for fetching the start page.
	// Default: 30. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`

	// FetchMode controls the static pass.
	// "auto" (default): HTTP engine first, escalating to a browser render.
	// "http": static pass over HTTP only, the browser is never started.
	// "browser": skip the HTTP engine.
	FetchMode string `json:"fetch_mode,omitempty" binding:"omitempty,oneof=auto browser http"`

	// Stealth enables anti-bot-detection evasions on the browser page.
	Stealth bool `json:"stealth,omitempty"`

	// Headers are extra HTTP headers sent with every navigation.
	Headers map[string]string `json:"headers,omitempty"`

	// MaxAge enables the response cache: a cached result younger than
	// MaxAge milliseconds is returned instead of scraping. 0 disables it.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Defaults applies default values to unset fields.
func (r *ExtractRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 30
	}
	if r.FetchMode == "" {
		r.FetchMode = "auto"
	}
}
