// Package platform holds the site-specific adapters: login flows, native
// apply flows, and per-platform application quotas.
package platform

import (
	"context"
	"errors"
	"os"

	"github.com/joelfuller2016/job-applier-sub002/autofill"
	"github.com/joelfuller2016/job-applier-sub002/jobs"
	"github.com/joelfuller2016/job-applier-sub002/profile"
)

var (
	// ErrCaptcha means the platform presented a challenge no automation
	// should attempt to pass. The attempt must stop and go to a human.
	ErrCaptcha = errors.New("platform: captcha or verification challenge")

	// ErrNoCredentials means the platform needs a login and none are
	// configured.
	ErrNoCredentials = errors.New("platform: no credentials configured")

	// ErrNoNativeFlow means the listing has no platform-native apply flow
	// (e.g. an external redirect). The caller should fall back to the
	// generic form flow.
	ErrNoNativeFlow = errors.New("platform: no native apply flow")

	// ErrRateLimited means the per-platform application quota is spent.
	ErrRateLimited = errors.New("platform: application quota exceeded")
)

// Credentials names the environment variables holding a platform login.
// Values never live in config files.
type Credentials struct {
	EmailEnv    string `yaml:"email_env"`
	PasswordEnv string `yaml:"password_env"`
}

// Resolve reads the environment. ok is false when either value is missing.
func (c Credentials) Resolve() (email, password string, ok bool) {
	if c.EmailEnv == "" || c.PasswordEnv == "" {
		return "", "", false
	}
	email = os.Getenv(c.EmailEnv)
	password = os.Getenv(c.PasswordEnv)
	return email, password, email != "" && password != ""
}

// Adapter is one platform integration.
type Adapter interface {
	Name() jobs.Platform

	// Matches reports whether this adapter handles the listing.
	Matches(job *jobs.Listing) bool

	// EnsureSession makes sure the page is logged in, logging in with the
	// configured credentials when needed. ErrCaptcha and ErrNoCredentials
	// are expected failure modes.
	EnsureSession(ctx context.Context, page autofill.Page) error

	// Apply runs the platform-native apply flow. ErrNoNativeFlow signals
	// that the generic form flow should be used instead; any returned
	// Application is in a terminal status.
	Apply(ctx context.Context, page autofill.Page, job *jobs.Listing, p *profile.Profile, sub autofill.Submission) (*jobs.Application, error)
}

// Registry resolves listings to adapters.
type Registry struct {
	adapters []Adapter
}

// NewRegistry creates a registry over the given adapters, checked in order.
func NewRegistry(adapters ...Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// ForListing returns the first adapter claiming the listing, or nil when the
// generic form flow applies.
func (r *Registry) ForListing(job *jobs.Listing) Adapter {
	for _, a := range r.adapters {
		if a.Matches(job) {
			return a
		}
	}
	return nil
}
