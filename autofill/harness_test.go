package autofill

import (
	"context"
	"regexp"
	"strings"
)

// fakeElement is an in-memory Element for exercising the filler and
// navigator without a browser.
type fakeElement struct {
	value    string
	checked  bool
	visible  bool
	selIdx   int
	attrs    map[string]string
	text     string
	clicks   int
	cleared  int
	files    []string
	selected []string
	clickErr error
	inputErr error
	onClick  func()
}

func newFakeElement() *fakeElement {
	return &fakeElement{visible: true, attrs: map[string]string{}}
}

func (e *fakeElement) Click(ctx context.Context) error {
	if e.clickErr != nil {
		return e.clickErr
	}
	e.clicks++
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

func (e *fakeElement) Input(ctx context.Context, text string) error {
	if e.inputErr != nil {
		return e.inputErr
	}
	e.value += text
	return nil
}

func (e *fakeElement) Clear(ctx context.Context) error {
	e.cleared++
	e.value = ""
	return nil
}

func (e *fakeElement) SetFiles(ctx context.Context, paths []string) error {
	e.files = append(e.files, paths...)
	return nil
}

func (e *fakeElement) Select(ctx context.Context, value string) error {
	e.selected = append(e.selected, value)
	e.value = value
	if e.selIdx == 0 {
		e.selIdx = 1
	}
	return nil
}

func (e *fakeElement) Value(ctx context.Context) (string, error)     { return e.value, nil }
func (e *fakeElement) SelectedIndex(ctx context.Context) (int, error) { return e.selIdx, nil }
func (e *fakeElement) Checked(ctx context.Context) (bool, error)      { return e.checked, nil }
func (e *fakeElement) Visible(ctx context.Context) (bool, error)      { return e.visible, nil }
func (e *fakeElement) Text(ctx context.Context) (string, error)       { return e.text, nil }

func (e *fakeElement) Attribute(ctx context.Context, name string) (string, error) {
	return e.attrs[name], nil
}

// fakePage serves elements from maps keyed by selector.
type fakePage struct {
	url       string
	html      string
	elements  map[string]*fakeElement
	groups    map[string][]*fakeElement
	navigated []string
	shots     int
}

func newFakePage() *fakePage {
	return &fakePage{
		elements: map[string]*fakeElement{},
		groups:   map[string][]*fakeElement{},
	}
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.navigated = append(p.navigated, url)
	p.url = url
	return nil
}

func (p *fakePage) WaitStable(ctx context.Context) error { return nil }
func (p *fakePage) URL() string                          { return p.url }
func (p *fakePage) HTML(ctx context.Context) (string, error) {
	return p.html, nil
}

func (p *fakePage) Element(ctx context.Context, selector string) (Element, error) {
	if el, ok := p.elements[selector]; ok {
		return el, nil
	}
	return nil, ErrNoElement
}

func (p *fakePage) Elements(ctx context.Context, selector string) ([]Element, error) {
	group, ok := p.groups[selector]
	if !ok {
		return nil, nil
	}
	els := make([]Element, len(group))
	for i, e := range group {
		els[i] = e
	}
	return els, nil
}

func (p *fakePage) ElementWithText(ctx context.Context, selector, pattern string) (Element, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	for _, el := range p.elements {
		if el.text != "" && re.MatchString(strings.ToLower(el.text)) {
			return el, nil
		}
	}
	return nil, ErrNoElement
}

func (p *fakePage) Screenshot(ctx context.Context) ([]byte, error) {
	p.shots++
	return []byte("png"), nil
}

func (p *fakePage) Close() error { return nil }

// staticLLM returns a canned response for every prompt.
type staticLLM struct {
	response string
	err      error
	prompts  []string
}

func (s *staticLLM) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}
