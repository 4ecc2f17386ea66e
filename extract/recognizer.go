// Package extract decides whether a document is a price listing and
// segments recognized documents into name/price items.
package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/priceprobe/models"
	"github.com/use-agent/priceprobe/redundancy"
	"github.com/use-agent/priceprobe/textnorm"
)

// Policy combines the price and keyword thresholds.
type Policy string

const (
	// PolicyAll requires both thresholds to be met.
	PolicyAll Policy = "all"
	// PolicyAny requires either threshold to be met.
	PolicyAny Policy = "any"
)

// blockSelector matches the block-level nodes scanned for items.
var blockSelector = cascadia.MustCompile("li, tr, p, td, div")

// Options configures a Recognizer.
type Options struct {
	// PricesThreshold is the minimum number of price matches.
	PricesThreshold int // default: 10

	// KeywordThreshold is the minimum number of distinct keywords present.
	KeywordThreshold int // default: 1

	// MinBlockLength is the minimum normalized length of a block scanned
	// for items.
	MinBlockLength int // default: 10

	// Policy combines the two thresholds.
	Policy Policy // default: PolicyAll

	// Keywords are product names that signal a relevant listing.
	Keywords []string
}

// DefaultOptions returns the stock thresholds and keyword set.
func DefaultOptions() Options {
	return Options{
		PricesThreshold:  10,
		KeywordThreshold: 1,
		MinBlockLength:   10,
		Policy:           PolicyAll,
		Keywords:         []string{"sol", "heineken", "stella artois"},
	}
}

// Recognizer runs the static pass over a document. It holds no per-call
// state and is safe for concurrent use.
type Recognizer struct {
	opts     Options
	keywords []string
}

// NewRecognizer creates a Recognizer. Keywords are normalized once here so
// they compare against normalized document text.
func NewRecognizer(opts Options) *Recognizer {
	if opts.Policy == "" {
		opts.Policy = PolicyAll
	}
	seen := make(map[string]struct{}, len(opts.Keywords))
	keywords := make([]string, 0, len(opts.Keywords))
	for _, kw := range opts.Keywords {
		kw = textnorm.Normalize(kw)
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}
	return &Recognizer{opts: opts, keywords: keywords}
}

// Analyze counts price matches and keyword hits in normalized text and
// applies the configured policy.
func (r *Recognizer) Analyze(text string) (priceCount, keywordHits int, recognized bool) {
	priceCount = len(pricePattern.FindAllStringIndex(text, -1))
	for _, kw := range r.keywords {
		if strings.Contains(text, kw) {
			keywordHits++
		}
	}

	pricesOK := priceCount >= r.opts.PricesThreshold
	keywordsOK := keywordHits >= r.opts.KeywordThreshold
	if r.opts.Policy == PolicyAny {
		return priceCount, keywordHits, pricesOK || keywordsOK
	}
	return priceCount, keywordHits, pricesOK && keywordsOK
}

// Classic runs the static pass over doc. Items are only segmented when the
// document is recognized; unrecognized documents return the text alone.
func (r *Recognizer) Classic(doc *goquery.Document) *models.ExtractionResult {
	full := textnorm.Normalize(DocumentText(doc.Selection))
	res := models.NewExtractionResult(full)

	_, _, res.Recognized = r.Analyze(full)
	if !res.Recognized {
		return res
	}
	res.Items = r.blockItems(doc)
	return res
}

// ClassicHTML parses rawHTML and runs Classic over it.
func (r *Recognizer) ClassicHTML(rawHTML string) (*models.ExtractionResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("extract: parse document: %w", err)
	}
	return r.Classic(doc), nil
}

// blockItems segments every sufficiently long, not yet seen block.
func (r *Recognizer) blockItems(doc *goquery.Document) []models.Item {
	seen := make(map[string]struct{})
	var items []models.Item

	doc.FindMatcher(blockSelector).Each(func(_ int, s *goquery.Selection) {
		block := textnorm.Normalize(DocumentText(s))
		if utf8.RuneCountInString(block) < r.opts.MinBlockLength {
			return
		}
		if _, dup := seen[block]; dup {
			return
		}
		seen[block] = struct{}{}

		matches := FindPrices(block)
		if len(matches) == 0 {
			return
		}
		items = append(items, SplitBlock(block, matches)...)
	})

	items = redundancy.Dedupe(items)
	if items == nil {
		items = []models.Item{}
	}
	return items
}
