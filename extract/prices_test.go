package extract

import (
	"strings"
	"testing"

	"github.com/use-agent/priceprobe/textnorm"
)

func TestFindPrices(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"grouped dot", "sol lata 1.990", []string{"1.990"}},
		{"grouped comma with cents", "pack 12,500.00 oferta", []string{"12,500.00"}},
		{"currency prefix", "heineken $2.490", []string{"$2.490"}},
		{"currency suffix code", "heineken 2.490 clp", []string{"2.490 clp"}},
		{"space separated digits", "sol 2 990", []string{"2 990"}},
		{"euro", "stella €3,50", []string{"€3,50"}},
		{"two prices", "a 1.000 b 2.000", []string{"1.000", "2.000"}},
		{"short numbers ignored", "pack de 6 por 12", nil},
		{"no digits", "sin precio", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindPrices(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("FindPrices(%q) = %d matches, want %d", tt.in, len(got), len(tt.want))
			}
			for i, m := range got {
				if strings.TrimSpace(m.Text) != tt.want[i] {
					t.Errorf("match %d = %q, want %q", i, m.Text, tt.want[i])
				}
				if tt.in[m.Start:m.End] != m.Text {
					t.Errorf("match %d span [%d:%d] does not cover %q", i, m.Start, m.End, m.Text)
				}
			}
		})
	}
}

func TestFindPrices_OrderedNonOverlapping(t *testing.T) {
	got := FindPrices("a 1.000 b 2.000 c 3.000 d 4.000")
	for i := 1; i < len(got); i++ {
		if got[i].Start < got[i-1].End {
			t.Fatalf("match %d starts at %d before previous end %d", i, got[i].Start, got[i-1].End)
		}
	}
}

func TestSplitBlock(t *testing.T) {
	text := textnorm.Normalize("Beer A 1.500 Beer B 2.000")
	items := SplitBlock(text, FindPrices(text))

	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %+v", len(items), items)
	}
	want := []struct{ name, price, text string }{
		{"beer a", "1.500", "beer a 1.500"},
		{"beer b", "2.000", "beer b 2.000"},
	}
	for i, w := range want {
		if items[i].Name != w.name || items[i].Price != w.price || items[i].Text != w.text {
			t.Errorf("item %d = %+v, want name=%q price=%q text=%q", i, items[i], w.name, w.price, w.text)
		}
	}
}

func TestSplitBlock_ShortNameDropped(t *testing.T) {
	text := "ab 1.500 cerveza sol 2.000"
	items := SplitBlock(text, FindPrices(text))

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1: %+v", len(items), items)
	}
	// The dropped candidate still advances the cursor past its price.
	if items[0].Name != "cerveza sol" {
		t.Errorf("name = %q, want %q", items[0].Name, "cerveza sol")
	}
}

func TestSplitBlock_LeadingPunctuationStripped(t *testing.T) {
	text := ": - cerveza sol 2.000"
	items := SplitBlock(text, FindPrices(text))

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Name != "cerveza sol" {
		t.Errorf("name = %q", items[0].Name)
	}
	if items[0].Text != "cerveza sol 2.000" {
		t.Errorf("text = %q", items[0].Text)
	}
}

func TestSplitBlock_NoMatches(t *testing.T) {
	if items := SplitBlock("cerveza sol", nil); len(items) != 0 {
		t.Errorf("got %d items, want 0", len(items))
	}
}
