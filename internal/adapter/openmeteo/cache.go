package openmeteo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/climascope/climate-grid-engine/internal/domain"
	"github.com/climascope/climate-grid-engine/internal/observability"
)

// CachedProvider decorates a ClimateProvider with a TTL cache for baseline
// fetches. Baselines are one-per-location and change on provider timescales,
// so caching them removes one upstream round trip per imported location.
//
// Freshness is checked against an injected clock, not the wall clock, so it
// is testable without sleeps. Daily fetches pass through uncached.
type CachedProvider struct {
	inner   domain.ClimateProvider
	clock   clockwork.Clock
	ttl     time.Duration
	metrics *observability.Metrics

	mu      sync.Mutex
	entries map[string]baselineEntry
}

type baselineEntry struct {
	value    float64
	storedAt time.Time
}

// NewCachedProvider wraps a provider with a baseline cache.
func NewCachedProvider(inner domain.ClimateProvider, clock clockwork.Clock, ttl time.Duration, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		clock:   clock,
		ttl:     ttl,
		metrics: metrics,
		entries: make(map[string]baselineEntry),
	}
}

func (c *CachedProvider) FetchDaily(ctx context.Context, lat, lon float64, startDate, endDate, scenario string) (domain.DailySeries, error) {
	return c.inner.FetchDaily(ctx, lat, lon, startDate, endDate, scenario)
}

func (c *CachedProvider) FetchBaseline(ctx context.Context, lat, lon float64) (float64, error) {
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok && c.clock.Since(entry.storedAt) < c.ttl {
		c.metrics.BaselineCache.WithLabelValues("hit").Inc()
		return entry.value, nil
	}
	c.metrics.BaselineCache.WithLabelValues("miss").Inc()

	value, err := c.inner.FetchBaseline(ctx, lat, lon)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.entries[key] = baselineEntry{value: value, storedAt: c.clock.Now()}
	c.mu.Unlock()
	return value, nil
}
