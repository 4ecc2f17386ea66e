package models

// ExtractResponse is the response for POST /api/v1/extract.
type ExtractResponse struct {
	// Success indicates whether the extraction completed without errors.
	Success bool `json:"success"`

	// URL is the requested URL.
	URL string `json:"url"`

	// FinalURL is the start page URL after redirects.
	FinalURL string `json:"final_url,omitempty"`

	// StatusCode is the HTTP status of the start page (0 when unknown).
	StatusCode int `json:"status_code"`

	// ContentType is the media type of the start page, without parameters.
	ContentType string `json:"content_type,omitempty"`

	// Title is the document title of the start page.
	Title string `json:"title,omitempty"`

	// Data is the aggregated extraction result.
	Data *ExtractionResult `json:"data,omitempty"`

	// Interactive reports whether the interactive crawl ran.
	Interactive bool `json:"interactive"`

	// Crawl carries counters from the interactive crawl, if it ran.
	Crawl *CrawlStats `json:"crawl,omitempty"`

	// EngineUsed names the engine that produced the static document
	// (e.g. "http", "rod", "rod-stealth").
	EngineUsed string `json:"engine_used,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// CacheStatus is "hit", "miss", or empty when caching was not requested.
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// CrawlStats summarises one interactive crawl.
type CrawlStats struct {
	// Frames is the number of crawl frames entered, terminal ones included.
	Frames int `json:"frames"`

	// Scanned is the number of frames that ran the static recognizer.
	Scanned int `json:"scanned"`

	// Expansions is the number of clicks that changed the document.
	Expansions int `json:"expansions"`

	// Followed is the number of references navigated to.
	Followed int `json:"followed"`

	// MaxDepth is the deepest frame entered.
	MaxDepth int `json:"max_depth"`

	// History is the final size of the visit history.
	History int `json:"history"`

	// Skipped counts skipped nodes and references by reason.
	Skipped map[string]int `json:"skipped,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// StaticMs is the time spent fetching and analysing the static document.
	StaticMs int64 `json:"static_ms"`

	// InteractiveMs is the time spent in the interactive crawl.
	InteractiveMs int64 `json:"interactive_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}
