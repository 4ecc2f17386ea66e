package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

type stubEngine struct {
	name  string
	err   error
	calls atomic.Int32
}

func (s *stubEngine) Name() string { return s.name }

func (s *stubEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &FetchResult{HTML: "<p>" + s.name + "</p>", FinalURL: req.URL, EngineName: s.name}, nil
}

func TestDispatcher_EscalatesOnFailure(t *testing.T) {
	fast := &stubEngine{name: "http", err: errors.New("status 403")}
	slow := &stubEngine{name: "rod"}
	mem := NewDomainMemory(time.Hour)
	defer mem.Stop()

	d := NewDispatcher([]Engine{fast, slow}, []time.Duration{0, 10 * time.Millisecond}, mem)
	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://Bar.cl/carta"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.EngineName != "rod" {
		t.Errorf("winner = %q, want rod", res.EngineName)
	}
	if got := mem.Get("bar.cl"); got != "rod" {
		t.Errorf("domain memory = %q, want rod", got)
	}
}

func TestDispatcher_RememberedEngineTriedAlone(t *testing.T) {
	httpEng := &stubEngine{name: "http"}
	rod := &stubEngine{name: "rod"}
	mem := NewDomainMemory(time.Hour)
	defer mem.Stop()
	mem.Set("bar.cl", "rod")

	d := NewDispatcher([]Engine{httpEng, rod}, nil, mem)
	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://bar.cl"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.EngineName != "rod" || httpEng.calls.Load() != 0 {
		t.Errorf("winner=%q http calls=%d", res.EngineName, httpEng.calls.Load())
	}
}

func TestDispatcher_UnsupportedContentStopsRace(t *testing.T) {
	httpEng := &stubEngine{name: "http", err: fmt.Errorf("%w: application/pdf", ErrUnsupportedContent)}
	rod := &stubEngine{name: "rod"}

	d := NewDispatcher([]Engine{httpEng, rod}, []time.Duration{0, time.Hour}, nil)
	_, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://bar.cl/menu.pdf"})
	if !errors.Is(err, ErrUnsupportedContent) {
		t.Fatalf("err = %v, want ErrUnsupportedContent", err)
	}
	if rod.calls.Load() != 0 {
		t.Error("browser tier should never start")
	}
}

func TestDispatcher_AllFail(t *testing.T) {
	a := &stubEngine{name: "http", err: errors.New("boom")}
	b := &stubEngine{name: "rod", err: errors.New("crash")}

	d := NewDispatcher([]Engine{a, b}, nil, nil)
	if _, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://bar.cl"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestDomainMemory_Expiry(t *testing.T) {
	mem := NewDomainMemory(time.Minute)
	defer mem.Stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	mem.now = func() time.Time { return now }

	mem.Set("bar.cl", "http")
	if got := mem.Get("bar.cl"); got != "http" {
		t.Fatalf("Get = %q", got)
	}

	now = now.Add(2 * time.Minute)
	mem.prune()
	if mem.Len() != 0 {
		t.Errorf("expired entry not pruned, len = %d", mem.Len())
	}
	if got := mem.Get("bar.cl"); got != "" {
		t.Errorf("Get after expiry = %q", got)
	}
	mem.Stop()
}
