package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joelfuller2016/job-applier-sub002/autofill"
	"github.com/joelfuller2016/job-applier-sub002/jobs"
	"github.com/joelfuller2016/job-applier-sub002/profile"
)

const indeedLoginURL = "https://secure.indeed.com/account/login"

// Indeed opens the Indeed Apply flow and hands the resulting multi-page form
// to the generic navigator. Listings that redirect to a company site return
// ErrNoNativeFlow.
type Indeed struct {
	navigator *autofill.Navigator
	creds     Credentials
	logger    *slog.Logger
}

// IndeedOption configures the adapter.
type IndeedOption func(*Indeed)

// WithIndeedLogger sets a custom logger.
func WithIndeedLogger(lg *slog.Logger) IndeedOption {
	return func(i *Indeed) { i.logger = lg }
}

// NewIndeed creates the adapter.
func NewIndeed(navigator *autofill.Navigator, creds Credentials, opts ...IndeedOption) *Indeed {
	i := &Indeed{
		navigator: navigator,
		creds:     creds,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

func (i *Indeed) Name() jobs.Platform { return jobs.PlatformIndeed }

func (i *Indeed) Matches(job *jobs.Listing) bool {
	return job.Platform == jobs.PlatformIndeed
}

// EnsureSession logs into Indeed when credentials are configured. Indeed
// Apply works without an account for many listings, so missing credentials
// are not an error here; the attempt itself surfaces a login wall if one
// applies.
func (i *Indeed) EnsureSession(ctx context.Context, page autofill.Page) error {
	email, password, ok := i.creds.Resolve()
	if !ok {
		return nil
	}

	if err := page.Navigate(ctx, indeedLoginURL); err != nil {
		return fmt.Errorf("indeed: open login: %w", err)
	}
	if err := page.WaitStable(ctx); err != nil {
		i.logger.Debug("indeed: wait after login page", "error", err)
	}
	if !strings.Contains(strings.ToLower(page.URL()), "login") {
		// Already signed in from a persisted session.
		return nil
	}

	if err := fillCredential(ctx, page, `input[type="email"]`, email); err != nil {
		if errors.Is(err, autofill.ErrNoElement) {
			return nil
		}
		return fmt.Errorf("indeed: email: %w", err)
	}
	if cont, err := page.ElementWithText(ctx, "button", `^continue$`); err == nil {
		if err := cont.Click(ctx); err != nil {
			return fmt.Errorf("indeed: continue: %w", err)
		}
		if err := page.WaitStable(ctx); err != nil {
			i.logger.Debug("indeed: wait after continue", "error", err)
		}
	}
	if err := fillCredential(ctx, page, `input[type="password"]`, password); err != nil {
		if errors.Is(err, autofill.ErrNoElement) {
			// Indeed pushed a one-time-code or passkey step instead.
			return ErrCaptcha
		}
		return fmt.Errorf("indeed: password: %w", err)
	}
	submit, err := page.Element(ctx, `button[type="submit"]`)
	if err != nil {
		return fmt.Errorf("indeed: submit button: %w", err)
	}
	if err := submit.Click(ctx); err != nil {
		return fmt.Errorf("indeed: submit login: %w", err)
	}
	if err := page.WaitStable(ctx); err != nil {
		i.logger.Debug("indeed: wait after submit", "error", err)
	}

	url := strings.ToLower(page.URL())
	if strings.Contains(url, "challenge") || strings.Contains(url, "verification") {
		return ErrCaptcha
	}
	return nil
}

// Apply opens the listing and, when it carries the embedded Indeed Apply
// flow, runs the generic form attempt against it.
func (i *Indeed) Apply(ctx context.Context, page autofill.Page, job *jobs.Listing, p *profile.Profile, sub autofill.Submission) (*jobs.Application, error) {
	if err := page.Navigate(ctx, job.URL); err != nil {
		return nil, fmt.Errorf("indeed: open listing: %w", err)
	}
	if err := page.WaitStable(ctx); err != nil {
		i.logger.Debug("indeed: wait after listing", "error", err)
	}

	// "Apply on company site" means an external redirect; the generic flow
	// handles those better starting from the listing's apply URL.
	if _, err := page.ElementWithText(ctx, "button, a", `apply on company site`); err == nil {
		return nil, ErrNoNativeFlow
	}
	if _, err := page.ElementWithText(ctx, "button, a", `apply now`); err != nil {
		return nil, ErrNoNativeFlow
	}

	app := i.navigator.ApplyToJob(ctx, page, job, p, sub)
	app.Platform = jobs.PlatformIndeed
	return app, nil
}
