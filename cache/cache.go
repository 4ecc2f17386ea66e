// Package cache keeps recent extraction responses in memory so repeated
// scans of the same QR code within max_age skip the browser.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"github.com/use-agent/priceprobe/models"
)

const (
	// retention bounds entry lifetime regardless of the max_age callers ask for.
	retention       = time.Hour
	cleanupInterval = 5 * time.Minute
)

type entry struct {
	response  *models.ExtractResponse
	createdAt time.Time
}

// Cache is a simple in-memory cache for extraction responses.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	now        func() time.Time
}

// New creates a new Cache with the given maximum number of entries and
// starts a background goroutine evicting entries older than an hour.
func New(maxEntries int) *Cache {
	c := newCache(maxEntries)
	go c.cleanupLoop()
	return c
}

func newCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Key derives a cache key from the URL and every option that changes the
// extraction outcome. Timeout, stealth and headers do not.
func Key(req *models.ExtractRequest) string {
	h := sha256.New()
	for _, part := range []string{
		req.URL,
		strconv.FormatBool(req.ForceInteractive),
		strconv.Itoa(req.MaxTime),
		strconv.Itoa(req.MaxDepth),
		req.FetchMode,
	} {
		h.Write([]byte(part))
		h.Write([]byte("|"))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a copy of the cached response if it is younger than maxAgeMs
// milliseconds. maxAgeMs <= 0 disables the lookup.
func (c *Cache) Get(key string, maxAgeMs int) (*models.ExtractResponse, bool) {
	if maxAgeMs <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.now().Sub(e.createdAt) > time.Duration(maxAgeMs)*time.Millisecond {
		return nil, false
	}
	resp := *e.response
	return &resp, true
}

// Set stores a copy of resp. At capacity an arbitrary entry is evicted.
func (c *Cache) Set(key string, resp *models.ExtractResponse) {
	stored := *resp

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}
	c.store[key] = &entry{response: &stored, createdAt: c.now()}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

func (c *Cache) evictExpired() {
	cutoff := c.now().Add(-retention)
	c.mu.Lock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
	c.mu.Unlock()
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for range ticker.C {
		c.evictExpired()
	}
}
