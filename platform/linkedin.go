package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joelfuller2016/job-applier-sub002/autofill"
	"github.com/joelfuller2016/job-applier-sub002/jobs"
	"github.com/joelfuller2016/job-applier-sub002/profile"
)

const (
	linkedinLoginURL = "https://www.linkedin.com/login"
	linkedinFeedURL  = "https://www.linkedin.com/feed/"

	// Easy Apply modals are short; anything past this many steps means the
	// flow is stuck.
	easyApplyMaxSteps = 10
)

// LinkedIn drives the Easy Apply modal flow.
type LinkedIn struct {
	analyzer *autofill.Analyzer
	filler   *autofill.Filler
	shots    autofill.ScreenshotSink
	creds    Credentials
	logger   *slog.Logger
}

// LinkedInOption configures the adapter.
type LinkedInOption func(*LinkedIn)

// WithLinkedInScreenshots sets the forensic screenshot sink.
func WithLinkedInScreenshots(s autofill.ScreenshotSink) LinkedInOption {
	return func(l *LinkedIn) { l.shots = s }
}

// WithLinkedInLogger sets a custom logger.
func WithLinkedInLogger(lg *slog.Logger) LinkedInOption {
	return func(l *LinkedIn) { l.logger = lg }
}

// NewLinkedIn creates the adapter.
func NewLinkedIn(analyzer *autofill.Analyzer, filler *autofill.Filler, creds Credentials, opts ...LinkedInOption) *LinkedIn {
	l := &LinkedIn{
		analyzer: analyzer,
		filler:   filler,
		creds:    creds,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *LinkedIn) Name() jobs.Platform { return jobs.PlatformLinkedIn }

func (l *LinkedIn) Matches(job *jobs.Listing) bool {
	return job.Platform == jobs.PlatformLinkedIn
}

// EnsureSession checks for an authenticated session and logs in when needed.
func (l *LinkedIn) EnsureSession(ctx context.Context, page autofill.Page) error {
	if err := page.Navigate(ctx, linkedinFeedURL); err != nil {
		return fmt.Errorf("linkedin: open feed: %w", err)
	}
	if err := page.WaitStable(ctx); err != nil {
		l.logger.Debug("linkedin: wait after feed", "error", err)
	}
	if l.sessionActive(page) {
		return nil
	}

	email, password, ok := l.creds.Resolve()
	if !ok {
		return ErrNoCredentials
	}

	l.logger.Info("linkedin: logging in")
	if err := page.Navigate(ctx, linkedinLoginURL); err != nil {
		return fmt.Errorf("linkedin: open login: %w", err)
	}
	if err := fillCredential(ctx, page, "#username", email); err != nil {
		return fmt.Errorf("linkedin: username: %w", err)
	}
	if err := fillCredential(ctx, page, "#password", password); err != nil {
		return fmt.Errorf("linkedin: password: %w", err)
	}

	submit, err := page.Element(ctx, `button[type="submit"]`)
	if err != nil {
		return fmt.Errorf("linkedin: submit button: %w", err)
	}
	if err := submit.Click(ctx); err != nil {
		return fmt.Errorf("linkedin: submit login: %w", err)
	}
	if err := page.WaitStable(ctx); err != nil {
		l.logger.Debug("linkedin: wait after login", "error", err)
	}

	url := strings.ToLower(page.URL())
	switch {
	case strings.Contains(url, "checkpoint") || strings.Contains(url, "challenge"):
		return ErrCaptcha
	case strings.Contains(url, "/login"):
		return fmt.Errorf("linkedin: login rejected")
	}
	return nil
}

func (l *LinkedIn) sessionActive(page autofill.Page) bool {
	url := strings.ToLower(page.URL())
	return !strings.Contains(url, "/login") && !strings.Contains(url, "authwall") &&
		!strings.Contains(url, "signup")
}

// Apply runs the Easy Apply modal loop. Listings without an Easy Apply
// button return ErrNoNativeFlow so the generic flow can take over.
func (l *LinkedIn) Apply(ctx context.Context, page autofill.Page, job *jobs.Listing, p *profile.Profile, sub autofill.Submission) (*jobs.Application, error) {
	if err := page.Navigate(ctx, job.URL); err != nil {
		return nil, fmt.Errorf("linkedin: open listing: %w", err)
	}
	if err := page.WaitStable(ctx); err != nil {
		l.logger.Debug("linkedin: wait after listing", "error", err)
	}

	button, err := page.ElementWithText(ctx, "button", `easy apply`)
	if err != nil {
		if errors.Is(err, autofill.ErrNoElement) {
			return nil, ErrNoNativeFlow
		}
		return nil, fmt.Errorf("linkedin: find easy apply: %w", err)
	}
	if err := button.Click(ctx); err != nil {
		return nil, fmt.Errorf("linkedin: open easy apply: %w", err)
	}
	if err := page.WaitStable(ctx); err != nil {
		l.logger.Debug("linkedin: wait after easy apply", "error", err)
	}

	now := time.Now().UnixMilli()
	app := &jobs.Application{
		ID:             uuid.NewString(),
		JobID:          job.ID,
		ProfileID:      p.ID,
		Status:         jobs.StatusFilling,
		Method:         jobs.MethodEasyApply,
		Platform:       jobs.PlatformLinkedIn,
		CoverLetterRef: sub.CoverLetterRef,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	jobCtx := autofill.JobContext{Title: job.Title, Company: job.Company, Description: job.Description}
	answers := make(map[string]string)

	for step := 1; step <= easyApplyMaxSteps; step++ {
		analysis, err := l.analyzer.AnalyzePage(ctx, page)
		if err != nil {
			l.fail(ctx, page, app, fmt.Sprintf("analyze step %d: %v", step, err))
			return app, nil
		}
		result := l.filler.FillForm(ctx, page, analysis, p, jobCtx)
		for k, v := range result.Answers {
			answers[k] = v
		}

		if submit, err := page.ElementWithText(ctx, "button", `submit application`); err == nil {
			l.capture(ctx, page, app, "pre-submit")
			if sub.DryRun {
				l.finish(app, answers, jobs.StatusSkipped,
					fmt.Sprintf("dry run: %d step(s) filled, submission withheld", step))
				return app, nil
			}
			if err := submit.Click(ctx); err != nil {
				l.fail(ctx, page, app, fmt.Sprintf("submit: %v", err))
				return app, nil
			}
			if err := page.WaitStable(ctx); err != nil {
				l.logger.Debug("linkedin: wait after submit", "error", err)
			}
			if l.submitted(ctx, page) {
				app.SubmittedAt = time.Now().UnixMilli()
				l.finish(app, answers, jobs.StatusSubmitted,
					fmt.Sprintf("easy apply submitted after %d step(s)", step))
				return app, nil
			}
			l.fail(ctx, page, app, "submit clicked but no confirmation appeared")
			app.AnswersJSON = marshalAnswers(answers)
			return app, nil
		}

		next, err := page.ElementWithText(ctx, "button", `^(next|review)$`)
		if err != nil {
			l.fail(ctx, page, app, fmt.Sprintf("easy apply stuck at step %d", step))
			app.AnswersJSON = marshalAnswers(answers)
			return app, nil
		}
		if err := next.Click(ctx); err != nil {
			l.fail(ctx, page, app, fmt.Sprintf("advance step %d: %v", step, err))
			app.AnswersJSON = marshalAnswers(answers)
			return app, nil
		}
		if err := page.WaitStable(ctx); err != nil {
			l.logger.Debug("linkedin: wait after next", "error", err)
		}
	}

	l.fail(ctx, page, app, fmt.Sprintf("easy apply did not complete within %d steps", easyApplyMaxSteps))
	app.AnswersJSON = marshalAnswers(answers)
	return app, nil
}

func (l *LinkedIn) submitted(ctx context.Context, page autofill.Page) bool {
	analysis, err := l.analyzer.AnalyzePage(ctx, page)
	if err != nil {
		return false
	}
	return analysis.Type == autofill.PageConfirmation
}

func (l *LinkedIn) finish(app *jobs.Application, answers map[string]string, status jobs.Status, msg string) {
	app.Status = status
	app.Message = msg
	app.AnswersJSON = marshalAnswers(answers)
	app.UpdatedAt = time.Now().UnixMilli()
}

func (l *LinkedIn) fail(ctx context.Context, page autofill.Page, app *jobs.Application, msg string) {
	l.capture(ctx, page, app, "failed")
	app.Status = jobs.StatusFailed
	app.Message = msg
	app.UpdatedAt = time.Now().UnixMilli()
}

func (l *LinkedIn) capture(ctx context.Context, page autofill.Page, app *jobs.Application, tag string) {
	if l.shots == nil {
		return
	}
	path, err := l.shots.Capture(ctx, page, "linkedin-"+tag)
	if err != nil {
		l.logger.Debug("linkedin: screenshot failed", "tag", tag, "error", err)
		return
	}
	app.ScreenshotPath = path
}

func marshalAnswers(answers map[string]string) string {
	if len(answers) == 0 {
		return ""
	}
	data, err := json.Marshal(answers)
	if err != nil {
		return ""
	}
	return string(data)
}

// fillCredential clears and types a value into a login field.
func fillCredential(ctx context.Context, page autofill.Page, selector, value string) error {
	el, err := page.Element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.Click(ctx); err != nil {
		return err
	}
	if err := el.Clear(ctx); err != nil {
		return err
	}
	return el.Input(ctx, value)
}
