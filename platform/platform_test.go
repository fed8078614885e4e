package platform

import (
	"context"
	"strings"
	"testing"

	"github.com/joelfuller2016/job-applier-sub002/autofill"
	"github.com/joelfuller2016/job-applier-sub002/jobs"
	"github.com/joelfuller2016/job-applier-sub002/profile"
)

// fakeEl is a minimal autofill.Element for adapter tests.
type fakeEl struct {
	value   string
	clicks  int
	onClick func()
}

func (e *fakeEl) Click(ctx context.Context) error {
	e.clicks++
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}
func (e *fakeEl) Input(ctx context.Context, text string) error       { e.value += text; return nil }
func (e *fakeEl) Clear(ctx context.Context) error                    { e.value = ""; return nil }
func (e *fakeEl) SetFiles(ctx context.Context, paths []string) error { return nil }
func (e *fakeEl) Select(ctx context.Context, value string) error     { e.value = value; return nil }
func (e *fakeEl) Value(ctx context.Context) (string, error)          { return e.value, nil }
func (e *fakeEl) SelectedIndex(ctx context.Context) (int, error)     { return 0, nil }
func (e *fakeEl) Checked(ctx context.Context) (bool, error)          { return false, nil }
func (e *fakeEl) Visible(ctx context.Context) (bool, error)          { return true, nil }
func (e *fakeEl) Attribute(ctx context.Context, name string) (string, error) {
	return "", nil
}
func (e *fakeEl) Text(ctx context.Context) (string, error) { return "", nil }

// fakeSite scripts a sequence of page states keyed by button clicks.
type siteState struct {
	html    string
	els     map[string]*fakeEl
	buttons map[string]*fakeEl // keyed by "easy apply", "next", "submit", "apply now"
}

type fakeSite struct {
	states []siteState
	idx    int
	url    string
}

func (p *fakeSite) Navigate(ctx context.Context, url string) error {
	p.url = url
	return nil
}
func (p *fakeSite) WaitStable(ctx context.Context) error { return nil }
func (p *fakeSite) URL() string                          { return p.url }
func (p *fakeSite) HTML(ctx context.Context) (string, error) {
	return p.states[p.idx].html, nil
}
func (p *fakeSite) Element(ctx context.Context, selector string) (autofill.Element, error) {
	if el, ok := p.states[p.idx].els[selector]; ok {
		return el, nil
	}
	return nil, autofill.ErrNoElement
}
func (p *fakeSite) Elements(ctx context.Context, selector string) ([]autofill.Element, error) {
	return nil, nil
}
func (p *fakeSite) ElementWithText(ctx context.Context, selector, pattern string) (autofill.Element, error) {
	buttons := p.states[p.idx].buttons
	for key, el := range buttons {
		if strings.Contains(pattern, key) {
			return el, nil
		}
	}
	return nil, autofill.ErrNoElement
}
func (p *fakeSite) Screenshot(ctx context.Context) ([]byte, error) { return []byte("png"), nil }
func (p *fakeSite) Close() error                                   { return nil }

func (p *fakeSite) advance() *fakeEl {
	return &fakeEl{onClick: func() { p.idx++ }}
}

func testAdapterProfile() *profile.Profile {
	return &profile.Profile{
		ID:        "p1",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Contact:   profile.Contact{Email: "ada@example.com", Phone: "+1 555 0100"},
	}
}

func linkedinListing() *jobs.Listing {
	return &jobs.Listing{
		ID:       "job1",
		Title:    "Go Engineer",
		Company:  "Acme",
		URL:      "https://www.linkedin.com/jobs/view/123",
		Platform: jobs.PlatformLinkedIn,
	}
}

func testLinkedIn() *LinkedIn {
	filler := autofill.NewFiller(autofill.NewResolver(nil), autofill.WithDelays(autofill.Delays{}))
	return NewLinkedIn(autofill.NewAnalyzer(), filler, Credentials{})
}

const modalFormHTML = `<html><body><div role="dialog"><form>
  <label for="email">Email</label>
  <input type="email" id="email" name="email">
</form></div></body></html>`

const sentHTML = `<html><body><h2>Application sent</h2></body></html>`

func TestLinkedInEasyApply(t *testing.T) {
	site := &fakeSite{states: []siteState{
		{html: `<html><body><h1>Go Engineer</h1></body></html>`},
		{html: modalFormHTML, els: map[string]*fakeEl{"#email": {}}},
		{html: modalFormHTML, els: map[string]*fakeEl{"#email": {}}},
		{html: sentHTML},
	}}
	site.states[0].buttons = map[string]*fakeEl{"easy apply": site.advance()}
	site.states[1].buttons = map[string]*fakeEl{"next": site.advance()}
	site.states[2].buttons = map[string]*fakeEl{"submit": site.advance()}

	app, err := testLinkedIn().Apply(context.Background(), site, linkedinListing(), testAdapterProfile(), autofill.Submission{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if app.Status != jobs.StatusSubmitted {
		t.Fatalf("Status = %q (%s), want submitted", app.Status, app.Message)
	}
	if app.Method != jobs.MethodEasyApply {
		t.Errorf("Method = %q", app.Method)
	}
	if app.SubmittedAt == 0 {
		t.Error("SubmittedAt not set")
	}
	if !strings.Contains(app.AnswersJSON, "ada@example.com") {
		t.Errorf("AnswersJSON = %q", app.AnswersJSON)
	}
}

func TestLinkedInEasyApplyDryRun(t *testing.T) {
	submit := &fakeEl{}
	site := &fakeSite{states: []siteState{
		{html: `<html><body></body></html>`},
		{html: modalFormHTML, els: map[string]*fakeEl{"#email": {}}},
	}}
	site.states[0].buttons = map[string]*fakeEl{"easy apply": site.advance()}
	site.states[1].buttons = map[string]*fakeEl{"submit": submit}

	app, err := testLinkedIn().Apply(context.Background(), site, linkedinListing(), testAdapterProfile(), autofill.Submission{DryRun: true})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if app.Status != jobs.StatusSkipped {
		t.Fatalf("Status = %q, want skipped", app.Status)
	}
	if submit.clicks != 0 {
		t.Error("dry run clicked submit")
	}
}

func TestLinkedInNoEasyApplyButton(t *testing.T) {
	site := &fakeSite{states: []siteState{
		{html: `<html><body><a>Apply on company website</a></body></html>`},
	}}

	_, err := testLinkedIn().Apply(context.Background(), site, linkedinListing(), testAdapterProfile(), autofill.Submission{})
	if err != ErrNoNativeFlow {
		t.Fatalf("err = %v, want ErrNoNativeFlow", err)
	}
}

func TestLinkedInEasyApplyStuckLoop(t *testing.T) {
	// The next button never changes the modal.
	modal := siteState{
		html:    modalFormHTML,
		els:     map[string]*fakeEl{"#email": {}},
		buttons: map[string]*fakeEl{"next": {}},
	}
	site := &fakeSite{states: []siteState{
		{html: `<html><body></body></html>`, buttons: map[string]*fakeEl{"easy apply": {}}},
	}}
	site.states[0] = modal
	site.states[0].buttons["easy apply"] = &fakeEl{}

	app, err := testLinkedIn().Apply(context.Background(), site, linkedinListing(), testAdapterProfile(), autofill.Submission{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if app.Status != jobs.StatusFailed {
		t.Fatalf("Status = %q, want failed", app.Status)
	}
	if !strings.Contains(app.Message, "10 steps") {
		t.Errorf("Message = %q", app.Message)
	}
}

func TestRegistryForListing(t *testing.T) {
	li := testLinkedIn()
	reg := NewRegistry(li)

	if got := reg.ForListing(linkedinListing()); got != li {
		t.Error("linkedin listing not routed to the linkedin adapter")
	}
	generic := &jobs.Listing{Platform: jobs.PlatformGeneric}
	if got := reg.ForListing(generic); got != nil {
		t.Errorf("generic listing routed to %v, want nil", got)
	}
}

func TestCredentialsResolve(t *testing.T) {
	t.Setenv("TEST_LI_EMAIL", "ada@example.com")
	t.Setenv("TEST_LI_PASSWORD", "hunter2")

	c := Credentials{EmailEnv: "TEST_LI_EMAIL", PasswordEnv: "TEST_LI_PASSWORD"}
	email, password, ok := c.Resolve()
	if !ok || email != "ada@example.com" || password != "hunter2" {
		t.Fatalf("Resolve = %q %q %v", email, password, ok)
	}

	if _, _, ok := (Credentials{}).Resolve(); ok {
		t.Error("empty credentials must not resolve")
	}
	t.Setenv("TEST_LI_PASSWORD", "")
	if _, _, ok := c.Resolve(); ok {
		t.Error("missing password must not resolve")
	}
}
