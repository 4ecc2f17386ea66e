package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/priceprobe/api"
	"github.com/use-agent/priceprobe/api/handler"
	"github.com/use-agent/priceprobe/cache"
	"github.com/use-agent/priceprobe/config"
	"github.com/use-agent/priceprobe/engine"
	"github.com/use-agent/priceprobe/scraper"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()
	initLogger(cfg.Log)

	if cfg.ProfileFile != "" {
		if err := config.ApplyProfile(cfg, cfg.ProfileFile); err != nil {
			slog.Error("failed to load extraction profile", "path", cfg.ProfileFile, "error", err)
			os.Exit(1)
		}
		slog.Info("extraction profile loaded", "path", cfg.ProfileFile)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("priceprobe starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Browser.MaxPages,
		"policy", cfg.Extract.Policy,
		"maxDepth", cfg.Crawl.MaxDepth,
		"maxTime", cfg.Crawl.MaxTime,
	)

	// ── 2. Launch the browser ───────────────────────────────────────
	sc, err := scraper.NewScraper(cfg)
	if err != nil {
		slog.Error("failed to initialise scraper", "error", err)
		os.Exit(1)
	}
	defer sc.Close()

	// ── 3. Static-pass dispatcher ───────────────────────────────────
	if cfg.Engine.EnableMultiEngine {
		engines := []engine.Engine{
			engine.NewHTTPEngine(cfg.Scraper.AcceptLanguage).WithTimeout(cfg.Engine.HTTPTimeout),
			engine.NewRodEngine(sc.Render, false),
			engine.NewRodEngine(sc.Render, true),
		}
		memory := engine.NewDomainMemory(cfg.Engine.DomainMemoryTTL)
		defer memory.Stop()

		sc.SetDispatcher(engine.NewDispatcher(engines, cfg.Engine.EscalationDelays, memory))
		slog.Info("multi-engine dispatcher enabled",
			"engines", len(engines),
			"delays", cfg.Engine.EscalationDelays,
		)
	}

	// ── 4. Router ───────────────────────────────────────────────────
	cc := cache.New(cfg.Cache.MaxEntries)
	jobs := handler.NewJobStore(cfg.Batch.JobTTL)
	router := api.NewRouter(sc, cfg, cc, jobs, time.Now())

	// ── 5. HTTP server ──────────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 6. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Crawls run up to max_time, so in-flight requests get longer than
	// a plain scrape would.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}
	slog.Info("priceprobe stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}
