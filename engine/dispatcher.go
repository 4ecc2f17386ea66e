package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Dispatcher races engines with staged escalation: engine i starts after
// delays[i] unless an earlier engine has already succeeded. The winner is
// remembered per domain and tried alone on the next request.
type Dispatcher struct {
	engines []Engine
	delays  []time.Duration
	memory  *DomainMemory
}

// NewDispatcher creates a Dispatcher. Missing delays default to zero; a
// nil memory disables domain memory.
func NewDispatcher(engines []Engine, delays []time.Duration, memory *DomainMemory) *Dispatcher {
	d := make([]time.Duration, len(engines))
	copy(d, delays)
	return &Dispatcher{engines: engines, delays: d, memory: memory}
}

// Dispatch returns the first successful fetch. ErrUnsupportedContent from
// any engine ends the race immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if len(d.engines) == 0 {
		return nil, errors.New("dispatcher: no engines configured")
	}
	domain := extractDomain(req.URL)

	if eng := d.remembered(domain); eng != nil {
		result, err := eng.Fetch(ctx, req)
		if err == nil || errors.Is(err, ErrUnsupportedContent) {
			return result, err
		}
		slog.Info("remembered engine failed, running full race",
			"domain", domain, "engine", eng.Name(), "error", err)
		d.memory.Delete(domain)
	}

	return d.race(ctx, req, domain)
}

func (d *Dispatcher) remembered(domain string) Engine {
	if d.memory == nil {
		return nil
	}
	name := d.memory.Get(domain)
	if name == "" {
		return nil
	}
	for _, eng := range d.engines {
		if eng.Name() == name {
			slog.Debug("domain memory hit", "domain", domain, "engine", name)
			return eng
		}
	}
	return nil
}

type raceResult struct {
	engine string
	result *FetchResult
	err    error
}

func (d *Dispatcher) race(ctx context.Context, req *FetchRequest, domain string) (*FetchResult, error) {
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan raceResult, len(d.engines))
	var wg sync.WaitGroup
	for i, eng := range d.engines {
		wg.Add(1)
		go func(e Engine, delay time.Duration) {
			defer wg.Done()
			if !waitTurn(raceCtx, delay) {
				return
			}
			slog.Debug("engine starting", "engine", e.Name(), "url", req.URL)
			result, err := e.Fetch(raceCtx, req)
			results <- raceResult{engine: e.Name(), result: result, err: err}
		}(eng, d.delays[i])
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var errs []string
	var lastErr error
	for rr := range results {
		switch {
		case rr.err == nil:
			cancel()
			slog.Info("engine won race", "engine", rr.result.EngineName, "url", req.URL)
			if d.memory != nil {
				d.memory.Set(domain, rr.result.EngineName)
			}
			return rr.result, nil
		case errors.Is(rr.err, ErrUnsupportedContent):
			cancel()
			return nil, rr.err
		default:
			slog.Debug("engine failed", "engine", rr.engine, "url", req.URL, "error", rr.err)
			errs = append(errs, rr.engine+": "+rr.err.Error())
			lastErr = rr.err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if lastErr == nil {
		return nil, fmt.Errorf("dispatcher: all engines failed for %s", req.URL)
	}
	return nil, fmt.Errorf("dispatcher: all engines failed for %s (%s): %w", req.URL, strings.Join(errs, "; "), lastErr)
}

// waitTurn sleeps for the escalation delay and reports whether the engine
// should still start.
func waitTurn(ctx context.Context, delay time.Duration) bool {
	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return false
		case <-t.C:
		}
	}
	return ctx.Err() == nil
}

func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return strings.ToLower(u.Hostname())
}
