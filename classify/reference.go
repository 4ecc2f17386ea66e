package classify

import (
	"net/url"
	"strings"
)

// Kind says how the crawler acts on a node's reference.
type Kind int

const (
	// KindNone: the node carries no reference; clicking it may expand
	// content in place.
	KindNone Kind = iota
	// KindNavigate: an http(s) URL reached by direct navigation.
	KindNavigate
	// KindScript: a click handler executed as a script.
	KindScript
	// KindExpand: an href that never leaves the document (javascript:
	// pseudo-URLs, same-document fragments); handled by clicking.
	KindExpand
	// KindUnsupported: mailto:, tel: and other schemes a browser cannot
	// render as a page.
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindNavigate:
		return "navigate"
	case KindScript:
		return "script"
	case KindExpand:
		return "expand"
	case KindUnsupported:
		return "unsupported"
	default:
		return "none"
	}
}

// Reference is a parsed node reference. Target is the absolute URL for
// KindNavigate and the handler source for KindScript.
type Reference struct {
	Kind   Kind
	Target string
}

// ParseReference classifies a node's href and onclick values. Relative
// hrefs are resolved against pageURL.
func ParseReference(href, onclick, pageURL string) Reference {
	href = strings.TrimSpace(href)
	onclick = strings.TrimSpace(onclick)

	if href == "" {
		if onclick != "" {
			return Reference{Kind: KindScript, Target: onclick}
		}
		return Reference{Kind: KindNone}
	}

	lower := strings.ToLower(href)
	switch {
	case strings.HasPrefix(lower, "javascript:"):
		if onclick != "" {
			return Reference{Kind: KindScript, Target: onclick}
		}
		return Reference{Kind: KindExpand}
	case strings.HasPrefix(lower, "mailto:"),
		strings.HasPrefix(lower, "tel:"),
		strings.HasPrefix(lower, "sms:"):
		return Reference{Kind: KindUnsupported, Target: href}
	case strings.HasPrefix(href, "#"):
		return Reference{Kind: KindExpand}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return Reference{Kind: KindUnsupported, Target: href}
	}
	if base, err := url.Parse(pageURL); err == nil && pageURL != "" {
		ref = base.ResolveReference(ref)
		if sameDocument(base, ref) {
			return Reference{Kind: KindExpand}
		}
	}

	switch strings.ToLower(ref.Scheme) {
	case "http", "https":
		return Reference{Kind: KindNavigate, Target: ref.String()}
	default:
		return Reference{Kind: KindUnsupported, Target: ref.String()}
	}
}

// sameDocument reports whether ref only differs from base by fragment.
func sameDocument(base, ref *url.URL) bool {
	if ref.Fragment == "" {
		return false
	}
	a, b := *base, *ref
	a.Fragment, b.Fragment = "", ""
	a.RawFragment, b.RawFragment = "", ""
	return a.String() == b.String()
}
