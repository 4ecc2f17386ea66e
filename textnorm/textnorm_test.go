package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"trim and lower", "  Cerveza HEINEKEN  ", "cerveza heineken"},
		{"diacritics", "Café Señor Ñandú", "cafe senor nandu"},
		{"control whitespace", "line1\r\n\tline2", "line1 line2"},
		{"dashes", "a–b—c−d", "a-b-c-d"},
		{"typographic quotes removed", "“Promo” d’la casa", "promo dla casa"},
		{"allowed punctuation kept", "Precio: $1.990, € 2,50 - IVA", "precio: $1.990, € 2,50 - iva"},
		{"symbols stripped", "2x1 *oferta* (hoy) #1!", "2x1 oferta hoy 1"},
		{"stripped chars leave no double space", "a ! b", "a b"},
		{"compatibility forms", "ﬁesta ²", "fiesta 2"},
		{"non-breaking space", "sol\u00a0lata", "sol lata"},
		{"vertical tab", "sol\vheineken", "sol heineken"},
		{"next line", "sol\u0085heineken", "sol heineken"},
		{"line and paragraph separators", "sol\u2028heineken\u2029kunstmann", "sol heineken kunstmann"},
		{"ideographic space", "sol\u3000\u3000lata", "sol lata"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Beer A 1.500 Beer B 2.000",
		"  ¡Oferta!  Stella Artois — $ 3.490 c/u  ",
		"a ! b ? c",
		"Ünïcödé  spaces　here",
		"“quoted” ‘text’",
		"½ litro · ¼ kg",
		"tabs\t\t\tand\n\nnewlines",
		"İstanbul ǅ ﬀ",
		"emoji 🍺 price 1.990",
		"sol\v\u0085heineken\u2028 lata",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestCollapseSpace(t *testing.T) {
	if got := CollapseSpace("  a \n b\t\tc "); got != "a b c" {
		t.Errorf("CollapseSpace = %q, want %q", got, "a b c")
	}
}
