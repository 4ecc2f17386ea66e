package models

// BatchRequest is the payload for POST /api/v1/batch.
type BatchRequest struct {
	// Targets are the named URLs to extract. Required.
	Targets []BatchTarget `json:"targets" binding:"required,min=1,max=100,dive"`

	// Options contains shared extraction options applied to all targets.
	Options BatchOptions `json:"options"`

	// WebhookURL receives a "batch.item" event per target and a final
	// "batch.completed" event.
	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// BatchTarget is one named URL, e.g. the file name of the QR image it
// was decoded from.
type BatchTarget struct {
	Name string `json:"name" binding:"required"`
	URL  string `json:"url" binding:"required,url"`
}

// BatchOptions are the shared extraction settings applied to every target.
type BatchOptions struct {
	ForceInteractive bool   `json:"force_interactive,omitempty"`
	MaxTime          int    `json:"max_time,omitempty" binding:"omitempty,min=1,max=300"`
	MaxDepth         int    `json:"max_depth,omitempty" binding:"omitempty,min=1,max=10"`
	Timeout          int    `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`
	FetchMode        string `json:"fetch_mode,omitempty" binding:"omitempty,oneof=auto browser http"`
	Stealth          bool   `json:"stealth,omitempty"`
}

// Request builds the per-target ExtractRequest.
func (o BatchOptions) Request(url string) *ExtractRequest {
	req := &ExtractRequest{
		URL:              url,
		ForceInteractive: o.ForceInteractive,
		MaxTime:          o.MaxTime,
		MaxDepth:         o.MaxDepth,
		Timeout:          o.Timeout,
		FetchMode:        o.FetchMode,
		Stealth:          o.Stealth,
	}
	req.Defaults()
	return req
}

// BatchResponse is the immediate response for POST /api/v1/batch.
type BatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// BatchItemResult pairs a target name with its extraction response.
type BatchItemResult struct {
	Name     string           `json:"name"`
	Response *ExtractResponse `json:"response"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/:id.
type BatchStatusResponse struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	Completed int                `json:"completed"`
	Total     int                `json:"total"`
	Results   []*BatchItemResult `json:"results,omitempty"`
}

// BatchJob tracks an in-progress batch extraction.
type BatchJob struct {
	ID            string
	Status        string // "processing", "completed", "partial", "failed"
	Total         int
	Completed     int
	Results       []*BatchItemResult
	CreatedAt     int64 // unix timestamp
	WebhookURL    string
	WebhookSecret string
}
