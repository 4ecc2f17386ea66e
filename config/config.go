package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/use-agent/priceprobe/classify"
	"github.com/use-agent/priceprobe/crawl"
	"github.com/use-agent/priceprobe/extract"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
	Engine    EngineConfig
	Batch     BatchConfig
	Extract   ExtractConfig
	Crawl     CrawlConfig

	// ProfileFile is an optional YAML file overriding Extract and Crawl.
	ProfileFile string
}

// EngineConfig controls the static-fetch dispatcher.
type EngineConfig struct {
	// EnableMultiEngine races HTTP and browser engines for the static
	// pass. When false the static document always comes from the browser.
	EnableMultiEngine bool // default: true

	// EscalationDelays is the staged start delay for each engine tier.
	EscalationDelays []time.Duration // default: [0s, 2s, 5s]

	// HTTPTimeout is the deadline for the pure HTTP engine.
	HTTPTimeout time.Duration // default: 5s

	// DomainMemoryTTL is how long a winning engine is remembered per domain.
	DomainMemoryTTL time.Duration // default: 24h
}

// CacheConfig controls the extraction response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 1000
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 5

	// DefaultProxy is the default proxy URL for all requests.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// PageMaxUses retires a pooled tab after this many checkouts.
	PageMaxUses int // default: 50

	// PageMaxAge retires a pooled tab once it is this old.
	PageMaxAge time.Duration // default: 50m
}

// ScraperConfig controls page loading.
type ScraperConfig struct {
	// DefaultTimeout is the per-request page-load timeout.
	DefaultTimeout time.Duration // default: 30s

	// MaxTimeout is the maximum allowed timeout from the client.
	MaxTimeout time.Duration // default: 120s

	// BlockedResourceTypes lists resource types to block during crawls.
	// Stylesheets stay enabled: layout drives scroll height and clickability.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// AcceptLanguage is sent on every fetch.
	AcceptLanguage string // default: "es-ES,es;q=0.9"

	// RenderWait bounds the wait for the rendered body to reach
	// MinBodyLength characters after the first navigation.
	RenderWait time.Duration // default: 10s

	// MinBodyLength is the body markup length treated as "rendered".
	MinBodyLength int // default: 1000
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// BatchConfig controls asynchronous batch jobs.
type BatchConfig struct {
	// Concurrency is the number of targets extracted in parallel per job.
	Concurrency int // default: 2

	// MaxTargets caps the targets accepted in one batch.
	MaxTargets int // default: 100

	// JobTTL is how long finished jobs stay queryable.
	JobTTL time.Duration // default: 1h
}

// ExtractConfig controls recognition and the crawl deny lists.
type ExtractConfig struct {
	PricesThreshold  int      `mapstructure:"prices_threshold"`  // default: 10
	KeywordThreshold int      `mapstructure:"keyword_threshold"` // default: 1
	MinLength        int      `mapstructure:"min_length"`        // default: 10
	Policy           string   `mapstructure:"policy"`            // "all" or "any"; default: "all"
	Keywords         []string `mapstructure:"keywords"`
	BannedDomains    []string `mapstructure:"banned_domains"`
	BannedTerms      []string `mapstructure:"banned_terms"`
}

// CrawlConfig bounds the interactive crawl.
type CrawlConfig struct {
	MaxDepth         int           `mapstructure:"max_depth"`         // default: 5
	MaxTime          time.Duration `mapstructure:"max_time"`          // default: 60s
	ScrollStep       int           `mapstructure:"scroll_step"`       // default: 500
	SettleDelay      time.Duration `mapstructure:"settle_delay"`      // default: 1s
	ClickWait        time.Duration `mapstructure:"click_wait"`        // default: 10s
	PollInterval     time.Duration `mapstructure:"poll_interval"`     // default: 200ms
	NavigationSettle time.Duration `mapstructure:"navigation_settle"` // default: 2s
	Tags             []string      `mapstructure:"tags"`              // default: button,a,span,li,td,div
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	recog := extract.DefaultOptions()
	crawlDefaults := crawl.DefaultConfig()

	return &Config{
		Server: ServerConfig{
			Host: envOr("PRICEPROBE_HOST", "0.0.0.0"),
			Port: envIntOr("PRICEPROBE_PORT", 8080),
			Mode: envOr("PRICEPROBE_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("PRICEPROBE_HEADLESS", true),
			MaxPages:     envIntOr("PRICEPROBE_MAX_PAGES", 5),
			DefaultProxy: os.Getenv("PRICEPROBE_PROXY"),
			NoSandbox:    envBoolOr("PRICEPROBE_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("PRICEPROBE_BROWSER_BIN"),
			PageMaxUses:  envIntOr("PRICEPROBE_PAGE_MAX_USES", 50),
			PageMaxAge:   envDurationOr("PRICEPROBE_PAGE_MAX_AGE", 50*time.Minute),
		},
		Scraper: ScraperConfig{
			DefaultTimeout: envDurationOr("PRICEPROBE_DEFAULT_TIMEOUT", 30*time.Second),
			MaxTimeout:     envDurationOr("PRICEPROBE_MAX_TIMEOUT", 120*time.Second),
			BlockedResourceTypes: envSliceOr("PRICEPROBE_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			AcceptLanguage: envOr("PRICEPROBE_ACCEPT_LANGUAGE", "es-ES,es;q=0.9"),
			RenderWait:     envDurationOr("PRICEPROBE_RENDER_WAIT", 10*time.Second),
			MinBodyLength:  envIntOr("PRICEPROBE_MIN_BODY_LENGTH", 1000),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("PRICEPROBE_AUTH_ENABLED", true),
			APIKeys: envSliceOr("PRICEPROBE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("PRICEPROBE_RATE_RPS", 2.0),
			Burst:             envIntOr("PRICEPROBE_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("PRICEPROBE_CACHE_MAX_ENTRIES", 1000),
		},
		Log: LogConfig{
			Level:  envOr("PRICEPROBE_LOG_LEVEL", "info"),
			Format: envOr("PRICEPROBE_LOG_FORMAT", "json"),
		},
		Engine: EngineConfig{
			EnableMultiEngine: envBoolOr("PRICEPROBE_MULTI_ENGINE", true),
			EscalationDelays:  envDurationSliceOr("PRICEPROBE_ESCALATION_DELAYS", []time.Duration{0, 2 * time.Second, 5 * time.Second}),
			HTTPTimeout:       envDurationOr("PRICEPROBE_HTTP_TIMEOUT", 5*time.Second),
			DomainMemoryTTL:   envDurationOr("PRICEPROBE_DOMAIN_MEMORY_TTL", 24*time.Hour),
		},
		Batch: BatchConfig{
			Concurrency: envIntOr("PRICEPROBE_BATCH_CONCURRENCY", 2),
			MaxTargets:  envIntOr("PRICEPROBE_BATCH_MAX_TARGETS", 100),
			JobTTL:      envDurationOr("PRICEPROBE_BATCH_JOB_TTL", time.Hour),
		},
		Extract: ExtractConfig{
			PricesThreshold:  envIntOr("PRICEPROBE_PRICES_THRESHOLD", recog.PricesThreshold),
			KeywordThreshold: envIntOr("PRICEPROBE_KEYWORD_THRESHOLD", recog.KeywordThreshold),
			MinLength:        envIntOr("PRICEPROBE_MIN_LENGTH", recog.MinBlockLength),
			Policy:           envOr("PRICEPROBE_RECOGNITION_POLICY", string(recog.Policy)),
			Keywords:         envSliceOr("PRICEPROBE_KEYWORDS", recog.Keywords),
			BannedDomains:    envSliceOr("PRICEPROBE_BANNED_DOMAINS", classify.DefaultBannedDomains),
			BannedTerms:      envSliceOr("PRICEPROBE_BANNED_TERMS", classify.DefaultBannedTerms),
		},
		Crawl: CrawlConfig{
			MaxDepth:         envIntOr("PRICEPROBE_MAX_DEPTH", crawlDefaults.MaxDepth),
			MaxTime:          envDurationOr("PRICEPROBE_MAX_CRAWL_TIME", crawlDefaults.MaxTime),
			ScrollStep:       envIntOr("PRICEPROBE_SCROLL_STEP", crawlDefaults.ScrollStep),
			SettleDelay:      envDurationOr("PRICEPROBE_SETTLE_DELAY", crawlDefaults.SettleDelay),
			ClickWait:        envDurationOr("PRICEPROBE_CLICK_WAIT", crawlDefaults.ClickWait),
			PollInterval:     envDurationOr("PRICEPROBE_POLL_INTERVAL", crawlDefaults.PollInterval),
			NavigationSettle: envDurationOr("PRICEPROBE_NAV_SETTLE", crawlDefaults.NavigationSettle),
			Tags:             envSliceOr("PRICEPROBE_CRAWL_TAGS", crawlDefaults.Tags),
		},
		ProfileFile: os.Getenv("PRICEPROBE_PROFILE_FILE"),
	}
}

// Options converts the recognition settings for extract.NewRecognizer.
func (c ExtractConfig) Options() extract.Options {
	return extract.Options{
		PricesThreshold:  c.PricesThreshold,
		KeywordThreshold: c.KeywordThreshold,
		MinBlockLength:   c.MinLength,
		Policy:           extract.Policy(strings.ToLower(c.Policy)),
		Keywords:         c.Keywords,
	}
}

// DenyList builds the normalized crawl deny list.
func (c ExtractConfig) DenyList() *classify.DenyList {
	return classify.NewDenyList(c.BannedDomains, c.BannedTerms)
}

// Engine converts the crawl bounds for crawl.New.
func (c CrawlConfig) Engine() crawl.Config {
	return crawl.Config{
		MaxDepth:         c.MaxDepth,
		MaxTime:          c.MaxTime,
		ScrollStep:       c.ScrollStep,
		SettleDelay:      c.SettleDelay,
		ClickWait:        c.ClickWait,
		PollInterval:     c.PollInterval,
		NavigationSettle: c.NavigationSettle,
		Tags:             c.Tags,
	}
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
