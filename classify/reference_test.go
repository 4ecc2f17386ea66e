package classify

import "testing"

func TestParseReference(t *testing.T) {
	const page = "https://bar.cl/carta/index.html?mesa=4"

	tests := []struct {
		name    string
		href    string
		onclick string
		want    Reference
	}{
		{"absolute", "https://bar.cl/bebidas", "", Reference{KindNavigate, "https://bar.cl/bebidas"}},
		{"relative", "vinos.html", "", Reference{KindNavigate, "https://bar.cl/carta/vinos.html"}},
		{"root relative", "/promos", "", Reference{KindNavigate, "https://bar.cl/promos"}},
		{"fragment only", "#cervezas", "", Reference{Kind: KindExpand}},
		{"same document fragment", "index.html?mesa=4#vinos", "", Reference{Kind: KindExpand}},
		{"other document fragment", "/promos#hoy", "", Reference{KindNavigate, "https://bar.cl/promos#hoy"}},
		{"javascript void", "javascript:void(0)", "", Reference{Kind: KindExpand}},
		{"javascript with handler", "javascript:void(0)", "showMenu(2)", Reference{KindScript, "showMenu(2)"}},
		{"onclick only", "", " showMenu(3) ", Reference{KindScript, "showMenu(3)"}},
		{"mailto", "mailto:hola@bar.cl", "", Reference{KindUnsupported, "mailto:hola@bar.cl"}},
		{"tel", "TEL:+56911111111", "", Reference{KindUnsupported, "TEL:+56911111111"}},
		{"ftp", "ftp://bar.cl/menu.pdf", "", Reference{KindUnsupported, "ftp://bar.cl/menu.pdf"}},
		{"nothing", "", "", Reference{Kind: KindNone}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseReference(tt.href, tt.onclick, page); got != tt.want {
				t.Errorf("ParseReference(%q, %q) = %+v, want %+v", tt.href, tt.onclick, got, tt.want)
			}
		})
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://Bar.CL/carta/", "https://bar.cl/carta"},
		{"https://bar.cl/", "https://bar.cl"},
		{"https://bar.cl/carta#vinos", "https://bar.cl/carta"},
		{"https://bar.cl/carta?utm_source=qr&utm_medium=mesa", "https://bar.cl/carta"},
		{"https://bar.cl/carta?fbclid=abc&id=7", "https://bar.cl/carta?id=7"},
		{"https://bar.cl/carta?z=1&a=2", "https://bar.cl/carta?a=2&z=1"},
		{"  showMenu(2) ", "showMenu(2)"},
		{"mailto:hola@bar.cl", "mailto:hola@bar.cl"},
	}
	for _, tt := range tests {
		if got := Canonical(tt.in); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonical_DistinctPagesStayDistinct(t *testing.T) {
	if Canonical("https://bar.cl") == Canonical("https://bar.cl/carta") {
		t.Error("root and sub-page must not collapse")
	}
}
