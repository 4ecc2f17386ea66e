// Package redundancy removes duplicated and strictly contained content
// captured from overlapping DOM snapshots.
package redundancy

import (
	"strings"

	"github.com/use-agent/priceprobe/models"
	"github.com/use-agent/priceprobe/textnorm"
)

// Dedupe filters items in two passes:
//
//  1. exact duplicates, keyed by whitespace-collapsed text, keep the first
//     occurrence in input order;
//  2. an item whose text is a substring of another remaining item's text
//     is dropped, since it carries no information of its own.
//
// The second pass is quadratic; per-page item counts are in the tens.
func Dedupe(items []models.Item) []models.Item {
	if len(items) == 0 {
		return items
	}

	seen := make(map[string]struct{}, len(items))
	unique := make([]models.Item, 0, len(items))
	keys := make([]string, 0, len(items))
	for _, it := range items {
		key := textnorm.CollapseSpace(it.Text)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, it)
		keys = append(keys, key)
	}

	filtered := make([]models.Item, 0, len(unique))
	for i, it := range unique {
		contained := false
		for j := range unique {
			if i != j && strings.Contains(keys[j], keys[i]) {
				contained = true
				break
			}
		}
		if !contained {
			filtered = append(filtered, it)
		}
	}
	return filtered
}

// MergeText combines accumulated text with a new snapshot text: a snapshot
// already contained in acc adds nothing, a snapshot containing acc replaces
// it, anything else is appended on a new line.
func MergeText(acc, next string) string {
	switch {
	case strings.Contains(acc, next):
		return acc
	case strings.Contains(next, acc):
		return next
	default:
		return acc + "\n" + next
	}
}

// Merge folds next into acc. Recognized is OR-ed, FullText follows
// MergeText and Items are concatenated and deduplicated.
func Merge(acc, next *models.ExtractionResult) {
	if acc == nil || next == nil {
		return
	}
	acc.Recognized = acc.Recognized || next.Recognized
	acc.FullText = MergeText(acc.FullText, next.FullText)
	if len(next.Items) > 0 {
		acc.Items = Dedupe(append(acc.Items, next.Items...))
	}
}
