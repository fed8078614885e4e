package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/joelfuller2016/job-applier-sub002/autofill"
)

// Page adapts a Rod page to autofill.Page. One Page handles one application
// attempt at a time; it is not safe for concurrent use.
type Page struct {
	page *rod.Page
}

var _ autofill.Page = (*Page)(nil)

// OpenPage creates a new stealth tab on the managed browser.
func (m *Manager) OpenPage(ctx context.Context) (*Page, error) {
	b := m.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := stealth.Page(b.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	return &Page{page: page}, nil
}

// Navigate opens the URL and waits for the load event.
func (p *Page) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	page := p.page.Context(navCtx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		// Slow third-party assets routinely hold the load event hostage; the
		// DOM is usually usable anyway.
		return nil
	}
	return nil
}

// WaitStable blocks until the DOM stops mutating, bounded at 15s.
func (p *Page) WaitStable(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return p.page.Context(waitCtx).WaitStable(time.Second)
}

// URL returns the page's current URL, or "" when the target is gone.
func (p *Page) URL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// HTML serialises the full document.
func (p *Page) HTML(ctx context.Context) (string, error) {
	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("browser: get html: %w", err)
	}
	return html, nil
}

// Element finds one element without waiting for it to appear.
func (p *Page) Element(ctx context.Context, selector string) (autofill.Element, error) {
	el, err := p.page.Context(ctx).Sleeper(rod.NotFoundSleeper).Element(selector)
	if err != nil {
		if errors.Is(err, &rod.ElementNotFoundError{}) {
			return nil, autofill.ErrNoElement
		}
		return nil, fmt.Errorf("browser: element %s: %w", selector, err)
	}
	return &element{el: el}, nil
}

// Elements finds all elements matching the selector.
func (p *Page) Elements(ctx context.Context, selector string) ([]autofill.Element, error) {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("browser: elements %s: %w", selector, err)
	}
	out := make([]autofill.Element, len(els))
	for i, el := range els {
		out[i] = &element{el: el}
	}
	return out, nil
}

// ElementWithText finds the first element matching selector whose text
// matches the case-insensitive pattern.
func (p *Page) ElementWithText(ctx context.Context, selector, pattern string) (autofill.Element, error) {
	el, err := p.page.Context(ctx).Sleeper(rod.NotFoundSleeper).ElementR(selector, "/"+pattern+"/i")
	if err != nil {
		if errors.Is(err, &rod.ElementNotFoundError{}) {
			return nil, autofill.ErrNoElement
		}
		return nil, fmt.Errorf("browser: element %s text %s: %w", selector, pattern, err)
	}
	return &element{el: el}, nil
}

// Screenshot captures the full page as PNG.
func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := p.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("browser: screenshot: %w", err)
	}
	return data, nil
}

// Close closes the tab.
func (p *Page) Close() error {
	return p.page.Close()
}

// element adapts a Rod element to autofill.Element.
type element struct {
	el *rod.Element
}

var _ autofill.Element = (*element)(nil)

func (e *element) Click(ctx context.Context) error {
	el := e.el.Context(ctx)
	if err := el.ScrollIntoView(); err != nil {
		return fmt.Errorf("browser: scroll to element: %w", err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *element) Input(ctx context.Context, text string) error {
	return e.el.Context(ctx).Input(text)
}

// Clear selects the existing text and deletes it.
func (e *element) Clear(ctx context.Context) error {
	el := e.el.Context(ctx)
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Type(input.Backspace)
}

func (e *element) SetFiles(ctx context.Context, paths []string) error {
	return e.el.Context(ctx).SetFiles(paths)
}

// Select chooses the option with the given value attribute.
func (e *element) Select(ctx context.Context, value string) error {
	sel := fmt.Sprintf(`[value=%q]`, value)
	return e.el.Context(ctx).Select([]string{sel}, true, rod.SelectorTypeCSSSector)
}

func (e *element) Value(ctx context.Context) (string, error) {
	v, err := e.el.Context(ctx).Property("value")
	if err != nil {
		return "", err
	}
	return v.Str(), nil
}

func (e *element) SelectedIndex(ctx context.Context) (int, error) {
	v, err := e.el.Context(ctx).Property("selectedIndex")
	if err != nil {
		return 0, err
	}
	return v.Int(), nil
}

func (e *element) Checked(ctx context.Context) (bool, error) {
	v, err := e.el.Context(ctx).Property("checked")
	if err != nil {
		return false, err
	}
	return v.Bool(), nil
}

func (e *element) Visible(ctx context.Context) (bool, error) {
	return e.el.Context(ctx).Visible()
}

func (e *element) Attribute(ctx context.Context, name string) (string, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}
