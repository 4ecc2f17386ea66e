package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// profile is the subset of Config a YAML profile may override. Keyword
// catalogues and deny lists are long enough to live better in a file than
// in environment variables.
type profile struct {
	Extract ExtractConfig `mapstructure:"extract"`
	Crawl   CrawlConfig   `mapstructure:"crawl"`
}

// ApplyProfile overlays the extract and crawl sections of the YAML file
// at path onto cfg. Keys absent from the file keep their current values.
//
//	extract:
//	  policy: any
//	  keywords: [sol, heineken, kunstmann]
//	crawl:
//	  max_depth: 3
//	  max_time: 45s
func ApplyProfile(cfg *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "" {
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: read profile %s: %w", path, err)
	}

	p := profile{Extract: cfg.Extract, Crawl: cfg.Crawl}
	// Decoding writes into existing slice backing arrays; detach them so
	// shared defaults are never modified.
	p.Extract.Keywords = slices.Clone(p.Extract.Keywords)
	p.Extract.BannedDomains = slices.Clone(p.Extract.BannedDomains)
	p.Extract.BannedTerms = slices.Clone(p.Extract.BannedTerms)
	p.Crawl.Tags = slices.Clone(p.Crawl.Tags)

	if err := v.Unmarshal(&p); err != nil {
		return fmt.Errorf("config: decode profile %s: %w", path, err)
	}
	cfg.Extract = p.Extract
	cfg.Crawl = p.Crawl
	return nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if c.Browser.MaxPages < 1 {
		errs = append(errs, fmt.Errorf("max pages must be positive, got %d", c.Browser.MaxPages))
	}

	e := c.Extract
	if e.PricesThreshold <= 0 {
		errs = append(errs, fmt.Errorf("prices threshold must be positive, got %d", e.PricesThreshold))
	}
	if e.KeywordThreshold <= 0 {
		errs = append(errs, fmt.Errorf("keyword threshold must be positive, got %d", e.KeywordThreshold))
	}
	if e.MinLength <= 0 {
		errs = append(errs, fmt.Errorf("min length must be positive, got %d", e.MinLength))
	}
	switch strings.ToLower(e.Policy) {
	case "all", "any":
	default:
		errs = append(errs, fmt.Errorf("recognition policy must be 'all' or 'any', got %q", e.Policy))
	}

	cr := c.Crawl
	if cr.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("crawl max depth must be positive, got %d", cr.MaxDepth))
	}
	if cr.MaxTime <= 0 {
		errs = append(errs, fmt.Errorf("crawl max time must be positive, got %s", cr.MaxTime))
	}
	if cr.ScrollStep <= 0 {
		errs = append(errs, fmt.Errorf("scroll step must be positive, got %d", cr.ScrollStep))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
