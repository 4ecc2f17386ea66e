package classify

import (
	"net/url"
	"strings"
)

// trackingParams are query parameters that vary per visit without
// changing the page served.
var trackingParams = map[string]struct{}{
	"fbclid":  {},
	"gclid":   {},
	"dclid":   {},
	"gbraid":  {},
	"wbraid":  {},
	"msclkid": {},
	"yclid":   {},
	"igshid":  {},
	"mc_cid":  {},
	"mc_eid":  {},
	"_ga":     {},
	"_gl":     {},
}

// Canonical reduces an http(s) URL to the form used for visit tracking:
// lowercase scheme and host, no fragment, no tracking parameters, sorted
// query, no trailing slash. Anything that is not an absolute http(s) URL
// is returned trimmed.
func Canonical(ref string) string {
	ref = strings.TrimSpace(ref)
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return ref
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ref
	}

	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	u.Fragment, u.RawFragment = "", ""

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if isTracking(key) {
				q.Del(key)
			}
		}
		u.RawQuery = q.Encode()
	}
	u.ForceQuery = false

	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String()
}

func isTracking(key string) bool {
	key = strings.ToLower(key)
	if strings.HasPrefix(key, "utm_") {
		return true
	}
	_, ok := trackingParams[key]
	return ok
}
