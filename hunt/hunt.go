// Package hunt orchestrates a run: discover listings, score them against the
// profile, and apply to the qualifying ones one at a time.
package hunt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/joelfuller2016/job-applier-sub002/autofill"
	"github.com/joelfuller2016/job-applier-sub002/config"
	"github.com/joelfuller2016/job-applier-sub002/jobs"
	"github.com/joelfuller2016/job-applier-sub002/platform"
	"github.com/joelfuller2016/job-applier-sub002/profile"
	"github.com/joelfuller2016/job-applier-sub002/store"
)

// Discoverer finds listings for a query.
type Discoverer interface {
	DiscoverJobs(ctx context.Context, query string) ([]*jobs.Listing, error)
}

// Applier runs the generic form flow for one job.
type Applier interface {
	ApplyToJob(ctx context.Context, page autofill.Page, job *jobs.Listing, p *profile.Profile, sub autofill.Submission) *jobs.Application
}

// PageFactory opens a fresh page for one application attempt.
type PageFactory func(ctx context.Context) (autofill.Page, error)

// ConfirmFunc is asked before each submission when confirmation is required.
type ConfirmFunc func(job *jobs.Listing) bool

// Summary tallies one run.
type Summary struct {
	Discovered     int
	NewJobs        int
	Candidates     int
	Attempted      int
	Submitted      int
	Failed         int
	RequiresManual int
	Skipped        int
}

// Hunter runs the discover, score, apply pipeline. Applications are strictly
// serial; one account applying to many jobs in parallel is the easiest
// pattern for a platform to flag.
type Hunter struct {
	store    *store.Store
	disc     Discoverer
	nav      Applier
	registry *platform.Registry
	gate     *platform.Gate
	pages    PageFactory
	prof     *profile.Profile
	cfg      config.HuntConfig
	confirm  ConfirmFunc
	logger   *slog.Logger
}

// Option configures a Hunter.
type Option func(*Hunter)

// WithRegistry sets the platform adapter registry.
func WithRegistry(r *platform.Registry) Option {
	return func(h *Hunter) { h.registry = r }
}

// WithGate sets the per-platform quota gate.
func WithGate(g *platform.Gate) Option {
	return func(h *Hunter) { h.gate = g }
}

// WithConfirmation sets the approval callback for require_confirmation runs.
func WithConfirmation(f ConfirmFunc) Option {
	return func(h *Hunter) { h.confirm = f }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hunter) { h.logger = l }
}

// New creates a Hunter.
func New(st *store.Store, disc Discoverer, nav Applier, pages PageFactory, prof *profile.Profile, cfg config.HuntConfig, opts ...Option) *Hunter {
	h := &Hunter{
		store:    st,
		disc:     disc,
		nav:      nav,
		pages:    pages,
		prof:     prof,
		cfg:      cfg,
		registry: platform.NewRegistry(),
		gate:     platform.NewGate(nil),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Discover runs discovery and scoring for all configured queries and
// persists new listings. It returns the candidates that clear the match
// threshold, best first.
func (h *Hunter) Discover(ctx context.Context, sum *Summary) ([]*jobs.Listing, error) {
	var candidates []*jobs.Listing

	for _, query := range h.cfg.Queries {
		listings, err := h.disc.DiscoverJobs(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("hunt: discover %q: %w", query, err)
		}
		sum.Discovered += len(listings)

		for _, l := range listings {
			jobs.Match(l, h.prof)

			inserted, err := h.store.InsertJob(ctx, l)
			if err != nil {
				return nil, fmt.Errorf("hunt: persist job: %w", err)
			}
			if inserted {
				sum.NewJobs++
			} else {
				// Known URL: work with the stored row so application
				// dedupe keys on the original job ID. The stored score may
				// predate a profile change, so refresh it from this run.
				stored, err := h.store.GetJobByURL(ctx, l.URL)
				if err != nil {
					return nil, fmt.Errorf("hunt: load known job: %w", err)
				}
				if stored.MatchScore != l.MatchScore || stored.MatchAnalysis != l.MatchAnalysis {
					if err := h.store.UpdateMatch(ctx, stored.ID, l.MatchScore, l.MatchAnalysis); err != nil {
						return nil, fmt.Errorf("hunt: refresh match: %w", err)
					}
					stored.MatchScore = l.MatchScore
					stored.MatchAnalysis = l.MatchAnalysis
				}
				l = stored
			}

			if l.MatchScore >= h.cfg.MinMatchScore {
				candidates = append(candidates, l)
			}
		}
	}

	sum.Candidates = len(candidates)
	h.logger.Info("hunt: discovery complete",
		"discovered", sum.Discovered, "new", sum.NewJobs, "candidates", len(candidates))
	return candidates, nil
}

// Run executes a full hunt: discovery plus serial applications up to the
// run's application budget.
func (h *Hunter) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{}
	candidates, err := h.Discover(ctx, sum)
	if err != nil {
		return sum, err
	}

	for _, job := range candidates {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if sum.Attempted >= h.cfg.MaxApplications {
			h.logger.Info("hunt: application budget reached", "budget", h.cfg.MaxApplications)
			break
		}

		if _, err := h.store.FindApplication(ctx, job.ID, h.prof.ID); err == nil {
			continue // already attempted
		} else if !errors.Is(err, store.ErrNotFound) {
			return sum, fmt.Errorf("hunt: check existing application: %w", err)
		}

		if err := h.gate.Allow(job.Platform); err != nil {
			h.logger.Warn("hunt: platform quota spent", "platform", job.Platform, "job", job.ID)
			sum.Skipped++
			continue
		}

		if h.cfg.RequireConfirmation && (h.confirm == nil || !h.confirm(job)) {
			h.logger.Info("hunt: submission not confirmed, skipping",
				"job", job.ID, "title", job.Title)
			sum.Skipped++
			continue
		}

		h.attempt(ctx, sum, job)
		sum.Attempted++

		h.pause(ctx)
	}

	h.logger.Info("hunt: run complete",
		"attempted", sum.Attempted, "submitted", sum.Submitted,
		"failed", sum.Failed, "manual", sum.RequiresManual, "skipped", sum.Skipped)
	return sum, nil
}

// ApplyToStored applies to one already-discovered job by ID, bypassing the
// confirmation gate. Used by the one-shot apply command.
func (h *Hunter) ApplyToStored(ctx context.Context, jobID string) (*jobs.Application, error) {
	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("hunt: load job: %w", err)
	}
	if existing, err := h.store.FindApplication(ctx, job.ID, h.prof.ID); err == nil {
		return existing, fmt.Errorf("hunt: already applied with status %s", existing.Status)
	}
	if err := h.gate.Allow(job.Platform); err != nil {
		return nil, err
	}

	return h.attempt(ctx, &Summary{}, job), nil
}

// attempt records one application attempt end to end: a pending row goes in
// before the browser work, and the outcome lands on that same row. A crash
// mid-attempt therefore leaves a visible pending application, not silence.
func (h *Hunter) attempt(ctx context.Context, sum *Summary, job *jobs.Listing) *jobs.Application {
	now := time.Now().UnixMilli()
	pending := &jobs.Application{
		ID:        uuid.NewString(),
		JobID:     job.ID,
		ProfileID: h.prof.ID,
		Status:    jobs.StatusPending,
		Method:    jobs.MethodForm,
		Platform:  job.Platform,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.InsertApplication(ctx, pending); err != nil {
		h.logger.Error("hunt: persist attempt", "job", job.ID, "error", err)
	} else if err := h.store.AddEvent(ctx, pending.ID, string(jobs.StatusPending), "attempt started"); err != nil {
		h.logger.Error("hunt: persist event", "application", pending.ID, "error", err)
	}

	app := h.applyOne(ctx, job)
	app.ID = pending.ID
	app.CreatedAt = pending.CreatedAt

	h.record(ctx, sum, job, app)
	return app
}

func (h *Hunter) applyOne(ctx context.Context, job *jobs.Listing) *jobs.Application {
	h.logger.Info("hunt: applying", "job", job.ID, "title", job.Title,
		"company", job.Company, "platform", job.Platform, "score", job.MatchScore)

	page, err := h.pages(ctx)
	if err != nil {
		return h.terminalApp(job, jobs.StatusFailed, jobs.MethodForm,
			fmt.Sprintf("open page: %v", err))
	}
	defer page.Close()

	sub := autofill.Submission{
		DryRun:         h.cfg.DryRun,
		CoverLetterRef: h.prof.CoverLetterPath,
	}

	adapter := h.registry.ForListing(job)
	if adapter == nil {
		return h.nav.ApplyToJob(ctx, page, job, h.prof, sub)
	}

	if err := adapter.EnsureSession(ctx, page); err != nil {
		switch {
		case errors.Is(err, platform.ErrCaptcha):
			return h.terminalApp(job, jobs.StatusRequiresManual, jobs.MethodEasyApply,
				"platform presented a verification challenge; log in manually")
		case errors.Is(err, platform.ErrNoCredentials):
			return h.terminalApp(job, jobs.StatusRequiresManual, jobs.MethodEasyApply,
				fmt.Sprintf("no credentials configured for %s; apply manually", adapter.Name()))
		default:
			return h.terminalApp(job, jobs.StatusFailed, jobs.MethodEasyApply,
				fmt.Sprintf("session: %v", err))
		}
	}

	app, err := adapter.Apply(ctx, page, job, h.prof, sub)
	if err != nil {
		if errors.Is(err, platform.ErrNoNativeFlow) {
			h.logger.Info("hunt: no native flow, using generic form", "job", job.ID)
			return h.nav.ApplyToJob(ctx, page, job, h.prof, sub)
		}
		return h.terminalApp(job, jobs.StatusFailed, jobs.MethodEasyApply,
			fmt.Sprintf("platform apply: %v", err))
	}
	return app
}

func (h *Hunter) record(ctx context.Context, sum *Summary, job *jobs.Listing, app *jobs.Application) {
	switch app.Status {
	case jobs.StatusSubmitted:
		sum.Submitted++
	case jobs.StatusRequiresManual:
		sum.RequiresManual++
	case jobs.StatusSkipped:
		sum.Skipped++
	default:
		sum.Failed++
	}

	if err := h.store.SaveResult(ctx, app); err != nil {
		h.logger.Error("hunt: persist result", "application", app.ID, "error", err)
		return
	}
	if err := h.store.AddEvent(ctx, app.ID, string(app.Status), app.Message); err != nil {
		h.logger.Error("hunt: persist event", "application", app.ID, "error", err)
	}
}

func (h *Hunter) terminalApp(job *jobs.Listing, status jobs.Status, method jobs.Method, msg string) *jobs.Application {
	now := time.Now().UnixMilli()
	return &jobs.Application{
		ID:        uuid.NewString(),
		JobID:     job.ID,
		ProfileID: h.prof.ID,
		Status:    status,
		Method:    method,
		Platform:  job.Platform,
		Message:   msg,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// pause sleeps a random duration between applications, cancellable.
func (h *Hunter) pause(ctx context.Context) {
	if h.cfg.JobDelayMax <= 0 {
		return
	}
	d := h.cfg.JobDelayMin
	if h.cfg.JobDelayMax > h.cfg.JobDelayMin {
		d += time.Duration(rand.Int63n(int64(h.cfg.JobDelayMax - h.cfg.JobDelayMin)))
	}
	h.logger.Debug("hunt: pausing between applications", "delay", d)
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
