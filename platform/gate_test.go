package platform

import (
	"errors"
	"testing"
	"time"

	"github.com/joelfuller2016/job-applier-sub002/jobs"
)

func TestGateQuota(t *testing.T) {
	g := NewGate(map[jobs.Platform]Quota{
		jobs.PlatformLinkedIn: {MaxApplications: 2, Window: time.Hour},
	})

	if err := g.Allow(jobs.PlatformLinkedIn); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := g.Allow(jobs.PlatformLinkedIn); err != nil {
		t.Fatalf("second: %v", err)
	}
	if err := g.Allow(jobs.PlatformLinkedIn); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("third: %v, want ErrRateLimited", err)
	}

	// Other platforms are unaffected.
	if err := g.Allow(jobs.PlatformIndeed); err != nil {
		t.Errorf("unconfigured platform: %v", err)
	}
}

func TestGateWindowReset(t *testing.T) {
	g := NewGate(map[jobs.Platform]Quota{
		jobs.PlatformIndeed: {MaxApplications: 1, Window: 10 * time.Millisecond},
	})

	if err := g.Allow(jobs.PlatformIndeed); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := g.Allow(jobs.PlatformIndeed); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("second: %v, want ErrRateLimited", err)
	}

	time.Sleep(20 * time.Millisecond)
	if err := g.Allow(jobs.PlatformIndeed); err != nil {
		t.Errorf("after window: %v", err)
	}
}

func TestGateRemaining(t *testing.T) {
	g := NewGate(map[jobs.Platform]Quota{
		jobs.PlatformLinkedIn: {MaxApplications: 3, Window: time.Hour},
	})

	if got := g.Remaining(jobs.PlatformLinkedIn); got != 3 {
		t.Errorf("Remaining = %d, want 3", got)
	}
	g.Allow(jobs.PlatformLinkedIn)
	if got := g.Remaining(jobs.PlatformLinkedIn); got != 2 {
		t.Errorf("Remaining = %d, want 2", got)
	}
	if got := g.Remaining(jobs.PlatformGeneric); got != -1 {
		t.Errorf("Remaining for unlimited = %d, want -1", got)
	}
}
