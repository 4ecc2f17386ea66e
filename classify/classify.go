// Package classify decides which page nodes are worth touching during an
// interactive crawl and which of their references may be followed.
package classify

import (
	"strings"
)

// Element is the read side of a live page node. Both methods return an
// error when the node reference has gone stale; Attribute returns "" with
// a nil error for an absent attribute.
type Element interface {
	TagName() (string, error)
	Attribute(name string) (string, error)
}

// IsInteractive reports whether el looks clickable: an anchor with an
// href, a link role with an href, a button, a node with an onclick
// handler, a button role, or a class naming a button or accordion. A
// stale node is never interactive.
func IsInteractive(el Element) bool {
	tag, err := el.TagName()
	if err != nil {
		return false
	}
	tag = strings.ToLower(tag)

	attrs := make(map[string]string, 4)
	for _, name := range []string{"href", "role", "onclick", "class"} {
		v, err := el.Attribute(name)
		if err != nil {
			return false
		}
		attrs[name] = strings.TrimSpace(v)
	}
	href := attrs["href"]
	role := strings.ToLower(attrs["role"])
	class := strings.ToLower(attrs["class"])

	switch {
	case tag == "a" && href != "":
		return true
	case strings.Contains(role, "link") && href != "":
		return true
	case tag == "button":
		return true
	case attrs["onclick"] != "":
		return true
	case strings.Contains(role, "button"):
		return true
	case strings.Contains(class, "button"), strings.Contains(class, "accordion"):
		return true
	}
	return false
}

// Visited reports whether a reference has already been handled in the
// current crawl.
type Visited interface {
	Covers(ref string) bool
}

// Reason classifies why a candidate was rejected. The empty Reason means
// the candidate passed.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonEmpty        Reason = "empty_reference"
	ReasonBannedTerm   Reason = "banned_term"
	ReasonBannedDomain Reason = "banned_domain"
	ReasonVisited      Reason = "visited"
)

// Check applies the follow rules to ref, the visible text of the node that
// carries it, and the URL of the page it was found on.
func Check(ref, text, pageURL string, visited Visited, deny *DenyList) Reason {
	if strings.TrimSpace(ref) == "" {
		return ReasonEmpty
	}
	if deny != nil {
		if deny.BannedTerm(text) {
			return ReasonBannedTerm
		}
		if deny.BannedDomain(ref) || deny.BannedDomain(pageURL) {
			return ReasonBannedDomain
		}
	}
	if visited != nil && visited.Covers(ref) {
		return ReasonVisited
	}
	return ReasonNone
}

// IsFollowable reports whether ref passes every follow rule.
func IsFollowable(ref, text, pageURL string, visited Visited, deny *DenyList) bool {
	return Check(ref, text, pageURL, visited, deny) == ReasonNone
}
