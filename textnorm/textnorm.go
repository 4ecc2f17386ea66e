// Package textnorm canonicalizes scraped text so that documents captured
// from different snapshots, encodings and locales compare equal.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// stripMarks decomposes compatibility characters (NFKD) and drops the
	// resulting combining marks, so "Café" becomes "Cafe".
	stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

	quoteReplacer = strings.NewReplacer(
		"‘", "'",
		"’", "'",
		"“", `"`,
		"”", `"`,
	)

	// \s is ASCII-only in RE2; these classes cover every Unicode space.
	reControlSpace = regexp.MustCompile(`[\r\n\t\v\f\x{85}\p{Z}]+`)
	reDashes       = regexp.MustCompile(`[\x{2013}\x{2014}\x{2212}]`)
	reDisallowed   = regexp.MustCompile(`[^\p{L}\p{N}_\s$€.,:-]`)
	reSpaces       = regexp.MustCompile(`[\s\v\x{85}\p{Z}]+`)
)

// Normalize returns the canonical form of text: trimmed, diacritic-free,
// lower-case, whitespace-collapsed and restricted to letters, digits, "_",
// spaces and the punctuation set "$ € . , : -".
//
// Normalize is total and idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return ""
	}

	// Lowering can itself emit combining marks ("İ" -> "i̇"), and NFKD can
	// emit upper case ("ℌ" -> "H"); fold case on both sides of the strip.
	t = strings.ToLower(t)
	if out, _, err := transform.String(stripMarks, t); err == nil {
		t = out
	}
	t = strings.ToLower(t)
	t = quoteReplacer.Replace(t)
	t = reControlSpace.ReplaceAllString(t, " ")
	t = reDashes.ReplaceAllString(t, "-")

	// Disallowed characters go before whitespace is collapsed; the other
	// order leaves double spaces behind and breaks idempotence.
	t = reDisallowed.ReplaceAllString(t, "")
	t = reSpaces.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// CollapseSpace joins the whitespace-separated fields of s with single
// spaces. It is the comparison key used for already-normalized text.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
