package redundancy

import (
	"testing"

	"github.com/use-agent/priceprobe/models"
)

func item(text string) models.Item {
	return models.Item{Name: text, Price: "1.000", Text: text}
}

func texts(items []models.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Text
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDedupe(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"empty", nil, nil},
		{"single", []string{"beer a 1.500"}, []string{"beer a 1.500"}},
		{"exact duplicate keeps first", []string{"beer a 1.500", "beer b 2.000", "beer a 1.500"}, []string{"beer a 1.500", "beer b 2.000"}},
		{"whitespace variants are duplicates", []string{"beer a  1.500", "beer a 1.500"}, []string{"beer a  1.500"}},
		{"contained item dropped", []string{"beer a 1.500", "menu beer a 1.500 beer b 2.000"}, []string{"menu beer a 1.500 beer b 2.000"}},
		{"order preserved", []string{"c 3.000", "a 1.000", "b 2.000"}, []string{"c 3.000", "a 1.000", "b 2.000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in []models.Item
			for _, s := range tt.in {
				in = append(in, item(s))
			}
			got := texts(Dedupe(in))
			if !equal(got, tt.want) {
				t.Errorf("Dedupe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDedupe_KeepsLongerOfContainedPair(t *testing.T) {
	short := item("sol 990")
	long := item("cerveza sol 990")
	for _, in := range [][]models.Item{{short, long}, {long, short}} {
		got := Dedupe(in)
		if len(got) != 1 || got[0].Text != long.Text {
			t.Errorf("Dedupe(%q) = %q, want only %q", texts(in), texts(got), long.Text)
		}
	}
}

func TestMergeText(t *testing.T) {
	tests := []struct {
		name      string
		acc, next string
		want      string
	}{
		{"empty accumulator", "", "menu", "menu"},
		{"empty next", "menu", "", "menu"},
		{"next contained", "menu beer a 1.500", "beer a", "menu beer a 1.500"},
		{"next supersedes", "beer a", "menu beer a 1.500", "menu beer a 1.500"},
		{"disjoint appended", "menu", "drinks", "menu\ndrinks"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MergeText(tt.acc, tt.next); got != tt.want {
				t.Errorf("MergeText(%q, %q) = %q, want %q", tt.acc, tt.next, got, tt.want)
			}
		})
	}
}

func TestMerge_RecognizedNeverDowngrades(t *testing.T) {
	for _, tc := range []struct{ a, b bool }{{false, false}, {false, true}, {true, false}, {true, true}} {
		acc := &models.ExtractionResult{Recognized: tc.a, FullText: "a"}
		Merge(acc, &models.ExtractionResult{Recognized: tc.b, FullText: "b"})
		if acc.Recognized != (tc.a || tc.b) {
			t.Errorf("Merge(%v, %v).Recognized = %v", tc.a, tc.b, acc.Recognized)
		}
	}
}

func TestMerge_ItemsDeduplicated(t *testing.T) {
	acc := &models.ExtractionResult{Items: []models.Item{item("beer a 1.500")}}
	Merge(acc, &models.ExtractionResult{Items: []models.Item{item("beer a 1.500"), item("beer b 2.000")}})
	want := []string{"beer a 1.500", "beer b 2.000"}
	if got := texts(acc.Items); !equal(got, want) {
		t.Errorf("items = %q, want %q", got, want)
	}
}
