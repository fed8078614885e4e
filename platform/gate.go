package platform

import (
	"sync"
	"time"

	"github.com/joelfuller2016/job-applier-sub002/jobs"
)

// Quota bounds how many applications go to one platform per window. Platforms
// ban accounts that submit too fast; the quota is the hard ceiling on top of
// the per-action pacing.
type Quota struct {
	MaxApplications int           `yaml:"max_applications"`
	Window          time.Duration `yaml:"window"`
}

type bucket struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

// Gate enforces per-platform quotas in memory. Counters reset when the
// window elapses; a restart also resets them, which errs on the permissive
// side for a tool that runs a handful of applications per day.
type Gate struct {
	rules   map[jobs.Platform]Quota
	buckets sync.Map
}

// NewGate creates a Gate. Platforms without a rule are unlimited.
func NewGate(rules map[jobs.Platform]Quota) *Gate {
	return &Gate{rules: rules}
}

// Allow consumes one application slot for the platform, or returns
// ErrRateLimited when the quota is spent. Callers fail the attempt
// immediately rather than queueing.
func (g *Gate) Allow(p jobs.Platform) error {
	cfg, ok := g.rules[p]
	if !ok || cfg.MaxApplications <= 0 {
		return nil
	}

	now := time.Now()
	val, _ := g.buckets.LoadOrStore(p, &bucket{})
	b := val.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	if now.After(b.resetAt) {
		b.count = 0
		b.resetAt = now.Add(cfg.Window)
	}
	if b.count >= cfg.MaxApplications {
		return ErrRateLimited
	}
	b.count++
	return nil
}

// Remaining reports how many slots are left in the current window. Platforms
// without a rule report -1.
func (g *Gate) Remaining(p jobs.Platform) int {
	cfg, ok := g.rules[p]
	if !ok || cfg.MaxApplications <= 0 {
		return -1
	}
	val, ok := g.buckets.Load(p)
	if !ok {
		return cfg.MaxApplications
	}
	b := val.(*bucket)
	b.mu.Lock()
	defer b.mu.Unlock()
	if time.Now().After(b.resetAt) {
		return cfg.MaxApplications
	}
	return cfg.MaxApplications - b.count
}
