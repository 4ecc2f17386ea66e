package scraper

import (
	"errors"
	"testing"
	"time"
)

// scope mimics the Timeout/CancelTimeout pair of rod pages and elements.
type scope struct {
	parent  *scope
	limit   time.Duration
	pending *int
}

func (s *scope) Timeout(d time.Duration) *scope {
	*s.pending++
	return &scope{parent: s, limit: d, pending: s.pending}
}

func (s *scope) CancelTimeout() *scope {
	if s.parent == nil {
		panic("CancelTimeout without Timeout")
	}
	*s.pending--
	return s.parent
}

func TestBounded(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"success", nil},
		{"failure", errors.New("cdp: -32000 node detached")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pending := 0
			root := &scope{pending: &pending}

			var seen time.Duration
			err := bounded(root, clickTimeout, func(s *scope) error {
				seen = s.limit
				if pending != 1 {
					t.Errorf("pending timers inside fn = %d, want 1", pending)
				}
				return tt.err
			})

			if !errors.Is(err, tt.err) {
				t.Errorf("err = %v, want %v", err, tt.err)
			}
			if seen != clickTimeout {
				t.Errorf("fn ran with limit %s, want %s", seen, clickTimeout)
			}
			if pending != 0 {
				t.Errorf("pending timers after return = %d, want 0", pending)
			}
		})
	}
}
