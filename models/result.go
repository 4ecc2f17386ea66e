package models

// Item is one segmented product record. Items are created by the segmenter
// and never edited afterwards; redundancy filtering replaces them wholesale.
type Item struct {
	// Name is the normalized text between the previous price and this one.
	Name string `json:"name"`

	// Price is the matched price substring, trimmed.
	Price string `json:"price"`

	// Text is the source slice from the end of the previous price (or the
	// block start) to the end of this price.
	Text string `json:"text"`
}

// ExtractionResult is the outcome of analysing one document snapshot, or
// the aggregate of a whole crawl tree once snapshots have been merged.
type ExtractionResult struct {
	// Recognized reports whether any contributing snapshot carried enough
	// price and keyword signal. It never goes from true back to false.
	Recognized bool `json:"recognized"`

	// FullText is the normalized document text, accumulated across
	// snapshots with the containment merge rule.
	FullText string `json:"full_text"`

	// Items are the segmented name/price records, redundancy-filtered.
	Items []Item `json:"items"`
}

// NewExtractionResult returns an unrecognized result seeded with text.
func NewExtractionResult(fullText string) *ExtractionResult {
	return &ExtractionResult{FullText: fullText, Items: []Item{}}
}
