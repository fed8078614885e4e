package autofill

import (
	"context"
	"strings"
	"testing"

	"github.com/joelfuller2016/job-applier-sub002/jobs"
)

// scriptedPage models a site as a sequence of page states. Clicking a state's
// advance control moves to the next state.
type scriptedState struct {
	html   string
	next   *fakeElement
	submit *fakeElement
	els    map[string]*fakeElement
}

type scriptedPage struct {
	states    []scriptedState
	idx       int
	url       string
	navigated []string
}

func (p *scriptedPage) Navigate(ctx context.Context, url string) error {
	p.navigated = append(p.navigated, url)
	p.url = url
	return nil
}

func (p *scriptedPage) WaitStable(ctx context.Context) error { return nil }
func (p *scriptedPage) URL() string                          { return p.url }

func (p *scriptedPage) HTML(ctx context.Context) (string, error) {
	return p.states[p.idx].html, nil
}

func (p *scriptedPage) Element(ctx context.Context, selector string) (Element, error) {
	if el, ok := p.states[p.idx].els[selector]; ok {
		return el, nil
	}
	return nil, ErrNoElement
}

func (p *scriptedPage) Elements(ctx context.Context, selector string) ([]Element, error) {
	return nil, nil
}

func (p *scriptedPage) ElementWithText(ctx context.Context, selector, pattern string) (Element, error) {
	st := p.states[p.idx]
	switch {
	case strings.Contains(pattern, "next") && st.next != nil:
		return st.next, nil
	case strings.Contains(pattern, "submit") && st.submit != nil:
		return st.submit, nil
	}
	return nil, ErrNoElement
}

func (p *scriptedPage) Screenshot(ctx context.Context) ([]byte, error) { return []byte("png"), nil }
func (p *scriptedPage) Close() error                                   { return nil }

func (p *scriptedPage) advance() *fakeElement {
	el := newFakeElement()
	el.onClick = func() { p.idx++ }
	return el
}

type recordingShots struct {
	tags []string
}

func (r *recordingShots) Capture(ctx context.Context, page Page, tag string) (string, error) {
	r.tags = append(r.tags, tag)
	return "/shots/" + tag + ".png", nil
}

func (r *recordingShots) has(tag string) bool {
	for _, t := range r.tags {
		if t == tag {
			return true
		}
	}
	return false
}

func formPage(label, id string) scriptedState {
	return scriptedState{
		html: `<html><body><form>
		  <label for="` + id + `">` + label + `</label>
		  <input type="text" id="` + id + `" name="` + id + `">
		</form></body></html>`,
		els: map[string]*fakeElement{"#" + id: newFakeElement()},
	}
}

const confirmationHTML = `<html><body><h1>Application submitted</h1></body></html>`

func testNavigator(shots ScreenshotSink, opts ...NavigatorOption) *Navigator {
	filler := NewFiller(NewResolver(nil), WithDelays(Delays{}))
	all := append([]NavigatorOption{WithScreenshots(shots)}, opts...)
	return NewNavigator(NewAnalyzer(), filler, all...)
}

func testListing() *jobs.Listing {
	return &jobs.Listing{
		ID:       "job1",
		Title:    "Go Engineer",
		Company:  "Acme",
		URL:      "https://acme.example/jobs/1",
		Platform: jobs.PlatformGeneric,
	}
}

func TestApplyToJobMultiPage(t *testing.T) {
	page := &scriptedPage{states: []scriptedState{
		formPage("First Name", "first"),
		formPage("Email", "email"),
		formPage("Phone", "phone"),
		{html: confirmationHTML},
	}}
	page.states[0].next = page.advance()
	page.states[1].next = page.advance()
	page.states[2].submit = page.advance()

	shots := &recordingShots{}
	nav := testNavigator(shots)

	app := nav.ApplyToJob(context.Background(), page, testListing(), testProfile(), Submission{})

	if app.Status != jobs.StatusSubmitted {
		t.Fatalf("Status = %q (%s), want submitted", app.Status, app.Message)
	}
	if app.SubmittedAt == 0 {
		t.Error("SubmittedAt not set")
	}
	if !strings.Contains(app.Message, "3 page(s)") {
		t.Errorf("Message = %q", app.Message)
	}
	if !shots.has("pre-submit") {
		t.Errorf("missing pre-submit screenshot, got %v", shots.tags)
	}
	if !strings.Contains(app.AnswersJSON, "Ada") {
		t.Errorf("AnswersJSON = %q", app.AnswersJSON)
	}
	// Each page was filled exactly once.
	for i, sel := range []string{"#first", "#email", "#phone"} {
		el := page.states[i].els[sel]
		if el.value == "" {
			t.Errorf("page %d field %s not filled", i+1, sel)
		}
	}
}

func TestNavigateMultiPageFormCallbackPerPage(t *testing.T) {
	page := &scriptedPage{states: []scriptedState{
		formPage("A", "a"),
		formPage("B", "b"),
		{html: confirmationHTML},
	}}
	page.states[0].next = page.advance()
	page.states[1].submit = page.advance()

	nav := testNavigator(nil)
	calls := 0
	res := nav.NavigateMultiPageForm(context.Background(), page, func(ctx context.Context, page Page, pageNum int) error {
		calls++
		if pageNum != calls {
			t.Errorf("pageNum = %d on call %d", pageNum, calls)
		}
		return nil
	})

	if !res.Success {
		t.Fatalf("res = %+v", res)
	}
	if calls != 2 || res.TotalPages != 2 {
		t.Errorf("calls = %d, TotalPages = %d, want 2/2", calls, res.TotalPages)
	}
}

func TestNavigateMultiPageFormHitsPageBound(t *testing.T) {
	// The next control never goes away and never changes the page.
	st := formPage("A", "a")
	stuck := newFakeElement()
	st.next = stuck
	page := &scriptedPage{states: []scriptedState{st}}

	nav := testNavigator(nil, WithMaxPages(4))
	calls := 0
	res := nav.NavigateMultiPageForm(context.Background(), page, func(ctx context.Context, page Page, pageNum int) error {
		calls++
		return nil
	})

	if res.Success {
		t.Fatal("looping form must not report success")
	}
	if calls != 4 || res.TotalPages != 4 {
		t.Errorf("calls = %d, TotalPages = %d, want 4/4", calls, res.TotalPages)
	}
	if !strings.Contains(res.Err, "4 pages") {
		t.Errorf("Err = %q", res.Err)
	}
}

func TestNavigateMultiPageFormDryRunSkipsSubmit(t *testing.T) {
	st := formPage("A", "a")
	submit := newFakeElement()
	st.submit = submit
	page := &scriptedPage{states: []scriptedState{st, {html: confirmationHTML}}}

	shots := &recordingShots{}
	nav := testNavigator(shots)
	res := nav.NavigateMultiPageForm(context.Background(), page, func(ctx context.Context, page Page, pageNum int) error {
		return nil
	}, WithSkipSubmit())

	if !res.SubmitSkipped {
		t.Fatalf("res = %+v", res)
	}
	if submit.clicks != 0 {
		t.Error("dry run clicked submit")
	}
	if !shots.has("pre-submit") {
		t.Error("dry run must still capture the pre-submit screenshot")
	}
}

func TestApplyToJobDryRun(t *testing.T) {
	st := formPage("Email", "email")
	st.submit = newFakeElement()
	page := &scriptedPage{states: []scriptedState{st, {html: confirmationHTML}}}

	nav := testNavigator(&recordingShots{})
	app := nav.ApplyToJob(context.Background(), page, testListing(), testProfile(), Submission{DryRun: true})

	if app.Status != jobs.StatusSkipped {
		t.Fatalf("Status = %q (%s), want skipped", app.Status, app.Message)
	}
	if !strings.Contains(app.Message, "dry run") {
		t.Errorf("Message = %q", app.Message)
	}
	if st.submit.clicks != 0 {
		t.Error("dry run clicked submit")
	}
}

func TestApplyToJobLoginWall(t *testing.T) {
	page := &scriptedPage{states: []scriptedState{{
		html: `<html><body><form>
		  <input type="text" name="username">
		  <input type="password" name="password">
		</form></body></html>`,
	}}}

	shots := &recordingShots{}
	nav := testNavigator(shots)
	app := nav.ApplyToJob(context.Background(), page, testListing(), testProfile(), Submission{})

	if app.Status != jobs.StatusRequiresManual {
		t.Fatalf("Status = %q, want requires_manual", app.Status)
	}
	if app.ScreenshotPath == "" {
		t.Error("login wall must leave a screenshot for the manual follow-up")
	}
}

func TestApplyToJobLoginURL(t *testing.T) {
	page := &scriptedPage{states: []scriptedState{formPage("A", "a")}}
	listing := testListing()
	listing.URL = "https://www.linkedin.com/authwall?trk=x"

	nav := testNavigator(&recordingShots{})
	app := nav.ApplyToJob(context.Background(), page, listing, testProfile(), Submission{})

	if app.Status != jobs.StatusRequiresManual {
		t.Fatalf("Status = %q, want requires_manual", app.Status)
	}
}

func TestApplyToJobNoSuccessIndicator(t *testing.T) {
	st := formPage("Email", "email")
	st.submit = newFakeElement()
	st.submit.onClick = func() {} // page does not change
	page := &scriptedPage{states: []scriptedState{st}}

	shots := &recordingShots{}
	nav := testNavigator(shots)
	app := nav.ApplyToJob(context.Background(), page, testListing(), testProfile(), Submission{})

	if app.Status != jobs.StatusFailed {
		t.Fatalf("Status = %q, want failed", app.Status)
	}
	if !strings.Contains(app.Message, "success indicator") {
		t.Errorf("Message = %q", app.Message)
	}
	if !shots.has("no-confirmation") {
		t.Errorf("tags = %v", shots.tags)
	}
}

func TestApplyToJobNoFormFound(t *testing.T) {
	page := &scriptedPage{states: []scriptedState{{
		html: `<html><body><p>About our company</p></body></html>`,
	}}}

	nav := testNavigator(&recordingShots{})
	app := nav.ApplyToJob(context.Background(), page, testListing(), testProfile(), Submission{})

	if app.Status != jobs.StatusFailed {
		t.Fatalf("Status = %q, want failed", app.Status)
	}
	if !strings.Contains(app.Message, "no application form") {
		t.Errorf("Message = %q", app.Message)
	}
}

func TestApplyToJobMissingURL(t *testing.T) {
	nav := testNavigator(nil)
	listing := testListing()
	listing.URL = ""

	app := nav.ApplyToJob(context.Background(), &scriptedPage{states: []scriptedState{{html: "<html></html>"}}}, listing, testProfile(), Submission{})
	if app.Status != jobs.StatusFailed {
		t.Fatalf("Status = %q, want failed", app.Status)
	}
}
