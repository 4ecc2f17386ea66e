package classify

import (
	"strings"

	"github.com/use-agent/priceprobe/textnorm"
)

// DefaultBannedDomains are hosts whose pages never carry price listings:
// social networks, messaging and app stores.
var DefaultBannedDomains = []string{
	"whatsapp.com", "facebook.com", "instagram.com", "twitter.com",
	"tiktok.com", "youtube.com", "wix.com", "x.com", "wa.me", "wa.link",
	"linkedin.com", "messenger.com", "snapchat.com",
	"drive.google.com/?tab=oo", "play.google.com",
}

// DefaultBannedTerms are link and button labels that lead into login,
// checkout, download or contact flows.
var DefaultBannedTerms = []string{
	"whatsapp", "facebook", "instagram", "twitter", "tiktok", "youtube",
	"wix", "acceder", "iniciar sesión", "registrarse", "suscribirse",
	"comprar", "pagar", "donar", "descargar", "contacto", "contáctanos",
	"contacta", "llámanos", "mensajería", "messenger", "linkedin",
	"snapchat", "google drive", "play store",
}

// DenyList holds the pruning lists for one crawl. Use NewDenyList so the
// entries are normalized; the zero value bans nothing.
type DenyList struct {
	Domains []string
	Terms   []string
}

// NewDenyList lowercases domains and normalizes terms, dropping blanks.
func NewDenyList(domains, terms []string) *DenyList {
	d := &DenyList{}
	for _, dom := range domains {
		if dom = strings.ToLower(strings.TrimSpace(dom)); dom != "" {
			d.Domains = append(d.Domains, dom)
		}
	}
	for _, term := range terms {
		if term = textnorm.Normalize(term); term != "" {
			d.Terms = append(d.Terms, term)
		}
	}
	return d
}

// DefaultDenyList returns a DenyList built from the default lists.
func DefaultDenyList() *DenyList {
	return NewDenyList(DefaultBannedDomains, DefaultBannedTerms)
}

// BannedDomain reports whether s contains a banned domain.
func (d *DenyList) BannedDomain(s string) bool {
	if s == "" {
		return false
	}
	s = strings.ToLower(s)
	for _, dom := range d.Domains {
		if strings.Contains(s, dom) {
			return true
		}
	}
	return false
}

// BannedTerm reports whether the normalized form of text contains a
// banned term.
func (d *DenyList) BannedTerm(text string) bool {
	if len(d.Terms) == 0 {
		return false
	}
	text = textnorm.Normalize(text)
	if text == "" {
		return false
	}
	for _, term := range d.Terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
