package autofill

import (
	"context"
	"errors"
)

// ErrNoElement is returned by Page implementations when a selector matches
// nothing. Callers treat it as a per-field skip, never a failure.
var ErrNoElement = errors.New("autofill: element not found")

// Element is one interactable DOM node. Every method takes a context because
// every DOM interaction is a suspension point that can time out.
type Element interface {
	Click(ctx context.Context) error
	// Input appends text to the element. The filler calls it one rune at a
	// time with randomized pauses to simulate human typing.
	Input(ctx context.Context, text string) error
	Clear(ctx context.Context) error
	SetFiles(ctx context.Context, paths []string) error
	// Select chooses the option with the given value on a select element.
	Select(ctx context.Context, value string) error
	Value(ctx context.Context) (string, error)
	SelectedIndex(ctx context.Context) (int, error)
	Checked(ctx context.Context) (bool, error)
	Visible(ctx context.Context) (bool, error)
	// Attribute returns "" for absent attributes.
	Attribute(ctx context.Context, name string) (string, error)
	Text(ctx context.Context) (string, error)
}

// Page is the live page handle threaded explicitly through every component.
// The browser package implements it over Rod; tests implement it with fakes.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// WaitStable blocks until the page settles after navigation or a click.
	WaitStable(ctx context.Context) error
	URL() string
	HTML(ctx context.Context) (string, error)
	Element(ctx context.Context, selector string) (Element, error)
	Elements(ctx context.Context, selector string) ([]Element, error)
	// ElementWithText finds the first element matching selector whose visible
	// text matches the case-insensitive pattern, or ErrNoElement.
	ElementWithText(ctx context.Context, selector, pattern string) (Element, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}
