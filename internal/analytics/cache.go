package analytics

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/architgupta225/Anonn-app-sub003/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// MinuteKey truncates asOf to the cache granularity.
func MinuteKey(asOf time.Time) time.Time {
	return asOf.UTC().Truncate(time.Minute)
}

// ResultCache memoizes analytics per (organization, minute) with TTL-based expiration.
// It bounds store reads under bursty dashboard refreshes: every refresh of the same
// organization within one minute and one TTL is served from memory.
// Entries are never shared across organizations.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]*cacheEntry
	ttl     time.Duration
	clock   clockwork.Clock
}

type cacheKey struct {
	orgID  uuid.UUID
	minute int64
}

type cacheEntry struct {
	analytics domain.Analytics
	expiresAt time.Time
}

// NewResultCache creates a cache whose entries live for ttl.
func NewResultCache(ttl time.Duration, clock clockwork.Clock) *ResultCache {
	return &ResultCache{
		entries: make(map[cacheKey]*cacheEntry),
		ttl:     ttl,
		clock:   clock,
	}
}

func keyFor(orgID uuid.UUID, asOf time.Time) cacheKey {
	return cacheKey{orgID: orgID, minute: MinuteKey(asOf).Unix()}
}

// Get returns a copy of the cached analytics, or (nil, false) on miss or expiry.
func (c *ResultCache) Get(orgID uuid.UUID, asOf time.Time) (*domain.Analytics, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[keyFor(orgID, asOf)]
	if !ok {
		return nil, false
	}

	// Expired entries stay until EvictExpired runs; we only hold the read lock here.
	if c.clock.Now().After(entry.expiresAt) {
		return nil, false
	}

	return cloneAnalytics(&entry.analytics), true
}

func (c *ResultCache) Set(orgID uuid.UUID, asOf time.Time, analytics *domain.Analytics) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[keyFor(orgID, asOf)] = &cacheEntry{
		analytics: *cloneAnalytics(analytics),
		expiresAt: c.clock.Now().Add(c.ttl),
	}
}

// InvalidateOrganization drops every minute cached for orgID and returns how many were dropped.
func (c *ResultCache) InvalidateOrganization(orgID uuid.UUID) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if key.orgID == orgID {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Size returns the current number of entries, expired ones included.
func (c *ResultCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// EvictExpired removes expired entries and returns the count evicted.
func (c *ResultCache) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	evicted := 0

	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}

	return evicted
}

// StartEvictionTimer sweeps expired entries every interval until the returned stop function is called.
// onSweep, if not nil, receives the evicted and remaining counts after each sweep.
func (c *ResultCache) StartEvictionTimer(interval time.Duration, onSweep func(evicted, remaining int)) func() {
	ticker := c.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.Chan():
				evicted := c.EvictExpired()
				remaining := c.Size()
				if evicted > 0 {
					slog.Debug("Evicted expired analytics cache entries", "count", evicted, "remaining", remaining)
				}
				if onSweep != nil {
					onSweep(evicted, remaining)
				}

			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

func cloneAnalytics(a *domain.Analytics) *domain.Analytics {
	clone := *a
	clone.Trend = slices.Clone(a.Trend)
	if clone.Trend == nil {
		clone.Trend = []domain.TrendPoint{}
	}
	return &clone
}
