package autofill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joelfuller2016/job-applier-sub002/jobs"
	"github.com/joelfuller2016/job-applier-sub002/profile"
)

// ScreenshotSink persists forensic screenshots. Capture returns the stored
// path. Implementations must be safe to call on a broken page; the navigator
// swallows capture failures.
type ScreenshotSink interface {
	Capture(ctx context.Context, page Page, tag string) (string, error)
}

// NavResult is the outcome of resolving a job URL to an application form.
type NavResult struct {
	Success     bool
	CurrentPage string // "form", "login", "confirmation", "unknown", "error"
	Err         string
}

// MultiPageResult is the outcome of walking a multi-page form.
type MultiPageResult struct {
	Success       bool
	TotalPages    int
	SubmitSkipped bool // dry run: everything filled, submit withheld
	Err           string
}

// Submission carries per-attempt options for ApplyToJob.
type Submission struct {
	DryRun         bool
	CoverLetterRef string
}

// Navigator drives the analyze → fill → advance state machine across an
// unknown number of form pages until a terminal state is reached.
type Navigator struct {
	analyzer *Analyzer
	filler   *Filler
	shots    ScreenshotSink
	maxPages int
	logger   *slog.Logger
}

// NavigatorOption configures a Navigator.
type NavigatorOption func(*Navigator)

// WithScreenshots sets the forensic screenshot sink.
func WithScreenshots(s ScreenshotSink) NavigatorOption {
	return func(n *Navigator) { n.shots = s }
}

// WithMaxPages bounds the advancing loop. Default 10. The bound is what keeps
// a form with a broken "next" button from looping forever.
func WithMaxPages(max int) NavigatorOption {
	return func(n *Navigator) {
		if max > 0 {
			n.maxPages = max
		}
	}
}

// WithNavigatorLogger sets a custom logger.
func WithNavigatorLogger(l *slog.Logger) NavigatorOption {
	return func(n *Navigator) { n.logger = l }
}

// NewNavigator creates a Navigator over the given analyzer and filler.
func NewNavigator(analyzer *Analyzer, filler *Filler, opts ...NavigatorOption) *Navigator {
	n := &Navigator{
		analyzer: analyzer,
		filler:   filler,
		maxPages: 10,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// loginURLHints are URL fragments that identify auth walls before any DOM
// inspection happens.
var loginURLHints = []string{"/login", "/signin", "/sign-in", "authwall", "/account/login", "checkpoint"}

// NavigateToApplication opens the job's application URL and classifies what
// it landed on. A login wall is reported distinctly: the caller must be able
// to tell "needs a human" apart from "broke".
func (n *Navigator) NavigateToApplication(ctx context.Context, page Page, job *jobs.Listing) NavResult {
	target := job.ApplicationURL()
	if target == "" {
		return NavResult{CurrentPage: "error", Err: "job has no application URL"}
	}

	if err := page.Navigate(ctx, target); err != nil {
		n.capture(ctx, page, "nav-error")
		return NavResult{CurrentPage: "error", Err: fmt.Sprintf("navigate: %v", err)}
	}
	if err := page.WaitStable(ctx); err != nil {
		n.logger.Debug("navigator: wait after navigation", "error", err)
	}

	if urlLooksLikeLogin(page.URL()) {
		return NavResult{CurrentPage: "login", Err: "login required"}
	}

	analysis, err := n.analyzer.AnalyzePage(ctx, page)
	if err != nil {
		n.capture(ctx, page, "analyze-error")
		return NavResult{CurrentPage: "error", Err: fmt.Sprintf("analyze: %v", err)}
	}

	switch analysis.Type {
	case PageLogin:
		return NavResult{CurrentPage: "login", Err: "login required"}
	case PageConfirmation:
		return NavResult{Success: true, CurrentPage: "confirmation"}
	case PageForm:
		return NavResult{Success: true, CurrentPage: "form"}
	}

	// Listing pages often need one hop through an "Apply" affordance before
	// the form appears.
	if el, err := page.ElementWithText(ctx, "a, button", `apply`); err == nil {
		if err := el.Click(ctx); err == nil {
			if err := page.WaitStable(ctx); err != nil {
				n.logger.Debug("navigator: wait after apply click", "error", err)
			}
			if urlLooksLikeLogin(page.URL()) {
				return NavResult{CurrentPage: "login", Err: "login required"}
			}
			if analysis, err := n.analyzer.AnalyzePage(ctx, page); err == nil {
				switch analysis.Type {
				case PageLogin:
					return NavResult{CurrentPage: "login", Err: "login required"}
				case PageForm:
					return NavResult{Success: true, CurrentPage: "form"}
				}
			}
		}
	}

	return NavResult{CurrentPage: "unknown", Err: "no application form found"}
}

// MultiPageOption adjusts one NavigateMultiPageForm call.
type MultiPageOption func(*multiPageOpts)

type multiPageOpts struct {
	skipSubmit bool
}

// WithSkipSubmit fills and advances but withholds the final submit click.
// This is the dry-run cancellation point.
func WithSkipSubmit() MultiPageOption {
	return func(o *multiPageOpts) { o.skipSubmit = true }
}

// NavigateMultiPageForm walks the analyze → fill → advance loop. onPageReady
// is invoked once per page before any advancing; an error from it terminates
// the walk. The loop is bounded by the navigator's page ceiling.
func (n *Navigator) NavigateMultiPageForm(ctx context.Context, page Page, onPageReady func(ctx context.Context, page Page, pageNum int) error, opts ...MultiPageOption) MultiPageResult {
	var mo multiPageOpts
	for _, o := range opts {
		o(&mo)
	}

	var res MultiPageResult
	for i := 1; i <= n.maxPages; i++ {
		res.TotalPages = i

		if err := onPageReady(ctx, page, i); err != nil {
			res.Err = err.Error()
			n.capture(ctx, page, fmt.Sprintf("page%d-error", i))
			return res
		}

		if next, err := n.findAdvance(ctx, page, nextPatterns); err == nil {
			n.logger.Debug("navigator: advancing", "page", i)
			if err := next.Click(ctx); err != nil {
				res.Err = fmt.Sprintf("click next on page %d: %v", i, err)
				n.capture(ctx, page, fmt.Sprintf("page%d-error", i))
				return res
			}
			if err := page.WaitStable(ctx); err != nil {
				n.logger.Debug("navigator: wait after next", "error", err)
			}
			continue
		}

		submit, err := n.findAdvance(ctx, page, submitPatterns)
		if err != nil {
			// Nothing to click. Some flows auto-submit on the last field.
			if n.detectSuccess(ctx, page) {
				res.Success = true
				return res
			}
			res.Err = fmt.Sprintf("no next or submit control on page %d", i)
			n.capture(ctx, page, fmt.Sprintf("page%d-stuck", i))
			return res
		}

		// Pre-submit screenshot is the primary evidence of what was about to
		// be sent.
		n.capture(ctx, page, "pre-submit")

		if mo.skipSubmit {
			res.SubmitSkipped = true
			return res
		}

		if err := submit.Click(ctx); err != nil {
			res.Err = fmt.Sprintf("click submit: %v", err)
			n.capture(ctx, page, "submit-error")
			return res
		}
		if err := page.WaitStable(ctx); err != nil {
			n.logger.Debug("navigator: wait after submit", "error", err)
		}

		if n.detectSuccess(ctx, page) {
			res.Success = true
			return res
		}
		res.Err = "submit completed without a success indicator"
		n.capture(ctx, page, "no-confirmation")
		return res
	}

	res.Err = fmt.Sprintf("form did not complete within %d pages", n.maxPages)
	n.capture(ctx, page, "page-limit")
	return res
}

var errNoFields = errors.New("page has no form fields")

// ApplyToJob runs one full application attempt and returns the durable
// record. The navigator exclusively owns the attempt for the duration of the
// call; every exit path leaves it in a terminal status.
func (n *Navigator) ApplyToJob(ctx context.Context, page Page, job *jobs.Listing, p *profile.Profile, sub Submission) *jobs.Application {
	now := time.Now().UnixMilli()
	app := &jobs.Application{
		ID:             uuid.NewString(),
		JobID:          job.ID,
		ProfileID:      p.ID,
		Status:         jobs.StatusPending,
		Method:         jobs.MethodForm,
		Platform:       job.Platform,
		CoverLetterRef: sub.CoverLetterRef,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	jobCtx := JobContext{Title: job.Title, Company: job.Company, Description: job.Description}

	nav := n.NavigateToApplication(ctx, page, job)
	if nav.CurrentPage == "login" {
		n.terminate(ctx, page, app, jobs.StatusRequiresManual, "login required; apply manually or configure platform credentials")
		return app
	}
	if !nav.Success {
		n.terminate(ctx, page, app, jobs.StatusFailed, nav.Err)
		return app
	}
	if nav.CurrentPage == "confirmation" {
		n.terminate(ctx, page, app, jobs.StatusFailed, "page already shows a confirmation; nothing to submit")
		return app
	}

	answers := make(map[string]string)
	var fillErrors []string

	multi := n.NavigateMultiPageForm(ctx, page, func(ctx context.Context, page Page, pageNum int) error {
		app.Status = jobs.StatusAnalyzing
		analysis, err := n.analyzer.AnalyzePage(ctx, page)
		if err != nil {
			return fmt.Errorf("analyze page %d: %w", pageNum, err)
		}
		if pageNum == 1 && len(analysis.Fields) == 0 {
			// A job with no form fields is not a form.
			return errNoFields
		}

		app.Status = jobs.StatusFilling
		result := n.filler.FillForm(ctx, page, analysis, p, jobCtx)
		for k, v := range result.Answers {
			answers[k] = v
		}
		fillErrors = append(fillErrors, result.Errors...)
		if !result.Success() {
			// Partial progress is kept; an unusable page surfaces through the
			// advance step failing, not by aborting here.
			n.logger.Warn("navigator: page filled nothing",
				"page", pageNum, "errors", len(result.Errors))
		}
		return nil
	}, submissionOptions(sub)...)

	if len(answers) > 0 {
		if data, err := json.Marshal(answers); err == nil {
			app.AnswersJSON = string(data)
		}
	}

	switch {
	case multi.SubmitSkipped:
		app.Status = jobs.StatusSkipped
		app.Message = fmt.Sprintf("dry run: %d page(s) filled, submission withheld", multi.TotalPages)
	case multi.Success:
		app.Status = jobs.StatusSubmitted
		app.SubmittedAt = time.Now().UnixMilli()
		app.Message = fmt.Sprintf("submitted after %d page(s)", multi.TotalPages)
	default:
		app.Status = jobs.StatusFailed
		app.Message = multi.Err
	}
	if len(fillErrors) > 0 {
		app.Message += "; field errors: " + strings.Join(fillErrors, "; ")
	}
	app.UpdatedAt = time.Now().UnixMilli()

	n.logger.Info("navigator: attempt finished",
		"job", job.ID, "status", app.Status, "pages", multi.TotalPages)
	return app
}

func submissionOptions(sub Submission) []MultiPageOption {
	if sub.DryRun {
		return []MultiPageOption{WithSkipSubmit()}
	}
	return nil
}

// terminate sets a terminal status with forensic screenshot, best effort.
func (n *Navigator) terminate(ctx context.Context, page Page, app *jobs.Application, status jobs.Status, msg string) {
	if status == jobs.StatusFailed || status == jobs.StatusRequiresManual {
		if path := n.capture(ctx, page, string(status)); path != "" {
			app.ScreenshotPath = path
		}
	}
	app.Status = status
	app.Message = msg
	app.UpdatedAt = time.Now().UnixMilli()
}

var nextPatterns = `^(next|continue|continue to next step|weiter|save and continue)$`
var submitPatterns = `(submit|send application|apply now|finish|review your application|submit application)`

// findAdvance looks for a clickable control whose text matches the pattern.
func (n *Navigator) findAdvance(ctx context.Context, page Page, pattern string) (Element, error) {
	el, err := page.ElementWithText(ctx, `button, input[type="submit"], a[role="button"]`, pattern)
	if err != nil {
		return nil, err
	}
	if visible, verr := el.Visible(ctx); verr == nil && !visible {
		return nil, ErrNoElement
	}
	return el, nil
}

// detectSuccess re-analyzes the page looking for a confirmation indicator.
func (n *Navigator) detectSuccess(ctx context.Context, page Page) bool {
	analysis, err := n.analyzer.AnalyzePage(ctx, page)
	if err != nil {
		return false
	}
	return analysis.Type == PageConfirmation
}

// capture takes a screenshot, best effort. A screenshot failure is logged and
// swallowed; it must never mask the original error.
func (n *Navigator) capture(ctx context.Context, page Page, tag string) string {
	if n.shots == nil {
		return ""
	}
	path, err := n.shots.Capture(ctx, page, tag)
	if err != nil {
		n.logger.Debug("navigator: screenshot failed", "tag", tag, "error", err)
		return ""
	}
	return path
}

func urlLooksLikeLogin(u string) bool {
	lower := strings.ToLower(u)
	return containsAny(lower, loginURLHints...)
}
