package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/use-agent/priceprobe/models"
	"github.com/use-agent/priceprobe/textnorm"
)

// pricePattern is deliberately loose: an optional currency symbol or ISO
// code, then either a thousands-grouped amount with 2-3 trailing digits
// (1.990, 12,500.00) or a bare run of three or more digits that may be
// space separated (2 990), then an optional trailing currency.
var pricePattern = regexp.MustCompile(
	`(?i)(?:[$€₲]|(?:clp|usd|eur|cop|ars|uyu|bol|pyg))?\s?` +
		`(?:\d{1,3}(?:[.,]\d{3}\s?)*[.,]\d{2,3}|(?:\d\s?){3,})` +
		`\s*(?:[$€₲]|(?:clp|usd|eur|cop|ars|uyu|bol|pyg))?`,
)

var leadingPunct = regexp.MustCompile(`^[:\s.-]+`)

// PriceMatch is one price occurrence in a text buffer. Matches returned by
// FindPrices are non-overlapping and ordered by Start.
type PriceMatch struct {
	Start int
	End   int
	Text  string
}

// FindPrices returns every price-like span in text.
func FindPrices(text string) []PriceMatch {
	locs := pricePattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	matches := make([]PriceMatch, len(locs))
	for i, loc := range locs {
		matches[i] = PriceMatch{Start: loc[0], End: loc[1], Text: text[loc[0]:loc[1]]}
	}
	return matches
}

// SplitBlock segments a block holding several products into items. Each
// price closes the product description that started right after the
// previous price (or at the block start). Candidates whose name has fewer
// than three characters are dropped, but the cursor still advances past
// their price.
//
// This is a positional heuristic; it mis-segments multi-column layouts.
func SplitBlock(text string, matches []PriceMatch) []models.Item {
	var items []models.Item
	lastEnd := 0
	for _, m := range matches {
		if m.Start < lastEnd || m.End > len(text) {
			continue
		}

		name := trimLeading(text[lastEnd:m.Start])
		if utf8.RuneCountInString(name) > 2 {
			items = append(items, models.Item{
				Name:  textnorm.Normalize(name),
				Price: strings.TrimSpace(m.Text),
				Text:  trimLeading(text[lastEnd:m.End]),
			})
		}
		lastEnd = m.End
	}
	return items
}

func trimLeading(s string) string {
	return leadingPunct.ReplaceAllString(strings.TrimSpace(s), "")
}
