package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// skipText lists elements whose text content is never visible page text.
var skipText = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
}

// DocumentText returns the visible text under sel: every non-blank text
// node, trimmed, joined by single spaces. Adjacent cells therefore never
// fuse ("Sol</td><td>990" reads "Sol 990", not "Sol990").
func DocumentText(sel *goquery.Selection) string {
	var parts []string
	for _, n := range sel.Nodes {
		parts = collectText(n, parts)
	}
	return strings.Join(parts, " ")
}

func collectText(n *html.Node, parts []string) []string {
	switch n.Type {
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			parts = append(parts, t)
		}
		return parts
	case html.ElementNode:
		if _, skip := skipText[n.Data]; skip {
			return parts
		}
	case html.CommentNode, html.DoctypeNode:
		return parts
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		parts = collectText(c, parts)
	}
	return parts
}
