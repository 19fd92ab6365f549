package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/brandforge/brandforge/internal/llm"
)

// timeNow is stubbed in tests to control TTL expiry.
var timeNow = time.Now

type healthEntry struct {
	healthy bool
	at      time.Time
}

// healthCache holds per-provider ping results with a TTL. Entries are
// written both by explicit pings and by invocation outcomes.
type healthCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]healthEntry
}

func newHealthCache(ttl time.Duration) *healthCache {
	return &healthCache{ttl: ttl, entries: make(map[string]healthEntry)}
}

// get returns the cached value and whether a fresh entry exists.
func (c *healthCache) get(name string) (healthy, cached bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	if !ok || timeNow().Sub(e.at) > c.ttl {
		return false, false
	}
	return e.healthy, true
}

func (c *healthCache) set(name string, healthy bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = healthEntry{healthy: healthy, at: timeNow()}
	v := 0.0
	if healthy {
		v = 1.0
	}
	providerHealthy.WithLabelValues(name).Set(v)
}

// ProviderHealth is one row of a health report.
type ProviderHealth struct {
	Name    string        `json:"name"`
	Kind    llm.Kind      `json:"kind"`
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
}

// HealthReport probes every registered provider and returns results in
// registration order. Probes bypass the cache but refresh it.
func (o *Orchestrator) HealthReport(ctx context.Context) []ProviderHealth {
	o.mu.RLock()
	providers := make([]llm.Provider, 0, len(o.order))
	for _, name := range o.order {
		providers = append(providers, o.providers[name])
	}
	o.mu.RUnlock()

	out := make([]ProviderHealth, 0, len(providers))
	for _, p := range providers {
		start := timeNow()
		healthy := p.Ping(ctx)
		o.health.set(p.Name(), healthy)
		out = append(out, ProviderHealth{
			Name:    p.Name(),
			Kind:    p.Kind(),
			Healthy: healthy,
			Latency: timeNow().Sub(start),
		})
	}
	return out
}
