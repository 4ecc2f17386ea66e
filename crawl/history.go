package crawl

import "github.com/use-agent/priceprobe/classify"

// History records every reference visited or ruled out during one crawl.
// Entries are compared in canonical form (see classify.Canonical), so
// fragment and tracking-parameter variants of a URL are one entry while
// distinct pages of the same site stay distinct. Entries are never
// removed.
//
// A History is owned by a single crawl and is not safe for concurrent use.
type History struct {
	seen  map[string]struct{}
	order []string
}

// NewHistory returns an empty History.
func NewHistory() *History {
	return &History{seen: make(map[string]struct{})}
}

// Add records ref and reports whether it was new.
func (h *History) Add(ref string) bool {
	key := classify.Canonical(ref)
	if key == "" {
		return false
	}
	if _, ok := h.seen[key]; ok {
		return false
	}
	h.seen[key] = struct{}{}
	h.order = append(h.order, key)
	return true
}

// Covers reports whether ref is already recorded.
func (h *History) Covers(ref string) bool {
	_, ok := h.seen[classify.Canonical(ref)]
	return ok
}

// Len returns the number of recorded entries.
func (h *History) Len() int { return len(h.order) }

// Entries returns the recorded entries in insertion order.
func (h *History) Entries() []string {
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}
