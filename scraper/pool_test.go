package scraper

import (
	"testing"
	"time"
)

func TestPageHealth(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("failures retire", func(t *testing.T) {
		h := pageHealth{created: t0}
		h.record(false)
		h.record(false)
		if h.shouldRetire(t0, 0, 0) {
			t.Fatal("retired after two failures")
		}
		h.record(false)
		if !h.shouldRetire(t0, 0, 0) {
			t.Fatal("not retired after three failures")
		}
	})

	t.Run("successes heal", func(t *testing.T) {
		h := pageHealth{created: t0}
		h.record(false)
		h.record(false)
		h.record(true)
		h.record(true)
		h.record(false)
		if h.errScore != 2 {
			t.Fatalf("errScore = %v, want 2", h.errScore)
		}
		if h.shouldRetire(t0, 0, 0) {
			t.Fatal("retired below threshold")
		}
	})

	t.Run("score floors at zero", func(t *testing.T) {
		h := pageHealth{created: t0}
		h.record(true)
		h.record(true)
		if h.errScore != 0 {
			t.Fatalf("errScore = %v, want 0", h.errScore)
		}
	})

	t.Run("max uses", func(t *testing.T) {
		h := pageHealth{created: t0}
		for i := 0; i < 3; i++ {
			h.record(true)
		}
		if !h.shouldRetire(t0, 3, 0) {
			t.Fatal("not retired at max uses")
		}
		if h.shouldRetire(t0, 4, 0) {
			t.Fatal("retired below max uses")
		}
	})

	t.Run("max age", func(t *testing.T) {
		h := pageHealth{created: t0}
		if h.shouldRetire(t0.Add(49*time.Minute), 0, 50*time.Minute) {
			t.Fatal("retired before max age")
		}
		if !h.shouldRetire(t0.Add(50*time.Minute), 0, 50*time.Minute) {
			t.Fatal("not retired at max age")
		}
	})
}
