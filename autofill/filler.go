package autofill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/joelfuller2016/job-applier-sub002/profile"
)

// Delays configures the randomized pacing between input actions. The pacing
// is a functional requirement: steady machine-speed input trips anti-bot
// defenses on exactly the sites this system targets.
type Delays struct {
	FieldMin time.Duration `yaml:"field_min"`
	FieldMax time.Duration `yaml:"field_max"`
	ClickMin time.Duration `yaml:"click_min"`
	ClickMax time.Duration `yaml:"click_max"`
	KeyMin   time.Duration `yaml:"key_min"`
	KeyMax   time.Duration `yaml:"key_max"`
}

// DefaultDelays returns the production pacing ranges.
func DefaultDelays() Delays {
	return Delays{
		FieldMin: 200 * time.Millisecond,
		FieldMax: 500 * time.Millisecond,
		ClickMin: 100 * time.Millisecond,
		ClickMax: 300 * time.Millisecond,
		KeyMin:   30 * time.Millisecond,
		KeyMax:   120 * time.Millisecond,
	}
}

// Filler commits resolved values into the live DOM and reports the outcome.
type Filler struct {
	resolver *Resolver
	delays   Delays
	logger   *slog.Logger
}

// FillerOption configures a Filler.
type FillerOption func(*Filler)

// WithDelays overrides the pacing ranges. Tests pass zeroes.
func WithDelays(d Delays) FillerOption {
	return func(f *Filler) { f.delays = d }
}

// WithFillerLogger sets a custom logger.
func WithFillerLogger(l *slog.Logger) FillerOption {
	return func(f *Filler) { f.logger = l }
}

// NewFiller creates a Filler using the given resolver.
func NewFiller(resolver *Resolver, opts ...FillerOption) *Filler {
	f := &Filler{
		resolver: resolver,
		delays:   DefaultDelays(),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// FillForm fills every field of the analysis on the given page. Field errors
// are collected, not thrown: one bad field never aborts the rest.
func (f *Filler) FillForm(ctx context.Context, page Page, analysis *PageAnalysis, p *profile.Profile, job JobContext) *FillResult {
	result := &FillResult{Answers: make(map[string]string)}

	for _, field := range analysis.Fields {
		if err := ctx.Err(); err != nil {
			result.addError(fmt.Sprintf("%s: %v", fieldName(field), err))
			break
		}

		value := f.resolver.Resolve(ctx, field, p, job)
		if value == "" {
			if field.Required {
				result.addError(fmt.Sprintf("%s: no value for required field", fieldName(field)))
			} else {
				result.FieldsSkipped++
			}
			continue
		}

		outcome, err := f.fillField(ctx, page, field, value)
		switch {
		case err != nil:
			result.addError(fmt.Sprintf("%s: %v", fieldName(field), err))
		case outcome == outcomeFilled:
			result.FieldsFilled++
			result.Answers[fieldName(field)] = value
		default:
			result.FieldsSkipped++
		}

		f.pause(ctx, f.delays.FieldMin, f.delays.FieldMax)
	}

	f.logger.Info("filler: form pass complete",
		"filled", result.FieldsFilled, "skipped", result.FieldsSkipped, "errors", len(result.Errors))
	return result
}

type outcome int

const (
	outcomeFilled outcome = iota
	outcomeSkipped
)

// fillField runs the pre-check ladder and the type-specific strategy.
// Pre-checks: exists, visible, already filled. Each short-circuits.
func (f *Filler) fillField(ctx context.Context, page Page, field FormField, value string) (outcome, error) {
	if field.Type == FieldRadio {
		return f.fillRadio(ctx, page, field, value)
	}

	el, err := page.Element(ctx, field.Selector)
	if err != nil {
		if errors.Is(err, ErrNoElement) {
			f.logger.Debug("filler: element not found, skipping", "selector", field.Selector)
			return outcomeSkipped, nil
		}
		return outcomeSkipped, fmt.Errorf("find element: %w", err)
	}

	visible, err := el.Visible(ctx)
	if err == nil && !visible {
		f.logger.Debug("filler: element not visible, skipping", "selector", field.Selector)
		return outcomeSkipped, nil
	}

	filled, err := f.alreadyFilled(ctx, el, field)
	if err == nil && filled {
		// Counts as filled without writing: re-running a partially completed
		// form must not clobber what is already there.
		return outcomeFilled, nil
	}

	switch field.Type {
	case FieldText, FieldEmail, FieldPhone, FieldTextarea:
		return f.typeText(ctx, el, value)
	case FieldFile:
		if err := el.SetFiles(ctx, []string{value}); err != nil {
			return outcomeSkipped, fmt.Errorf("set files: %w", err)
		}
		return outcomeFilled, nil
	case FieldSelect:
		return f.fillSelect(ctx, el, field, value)
	case FieldCheckbox:
		return f.fillCheckbox(ctx, el, value)
	default:
		return f.typeText(ctx, el, value)
	}
}

func (f *Filler) alreadyFilled(ctx context.Context, el Element, field FormField) (bool, error) {
	switch field.Type {
	case FieldCheckbox:
		return el.Checked(ctx)
	case FieldSelect:
		idx, err := el.SelectedIndex(ctx)
		return idx > 0, err
	case FieldFile:
		return false, nil
	default:
		v, err := el.Value(ctx)
		return v != "", err
	}
}

// typeText clicks, clears, then types rune by rune with randomized pauses.
func (f *Filler) typeText(ctx context.Context, el Element, value string) (outcome, error) {
	f.pause(ctx, f.delays.ClickMin, f.delays.ClickMax)
	if err := el.Click(ctx); err != nil {
		return outcomeSkipped, fmt.Errorf("click: %w", err)
	}
	if err := el.Clear(ctx); err != nil {
		return outcomeSkipped, fmt.Errorf("clear: %w", err)
	}
	for _, r := range value {
		if err := el.Input(ctx, string(r)); err != nil {
			return outcomeSkipped, fmt.Errorf("type: %w", err)
		}
		f.pause(ctx, f.delays.KeyMin, f.delays.KeyMax)
	}
	return outcomeFilled, nil
}

func (f *Filler) fillSelect(ctx context.Context, el Element, field FormField, value string) (outcome, error) {
	opts := field.Options
	if len(opts) == 0 {
		// Analysis carried no options; try the value directly.
		if err := el.Select(ctx, value); err != nil {
			return outcomeSkipped, fmt.Errorf("select %q: %w", value, err)
		}
		return outcomeFilled, nil
	}

	best, ok := BestOption(opts, value)
	if !ok {
		return outcomeSkipped, fmt.Errorf("no selectable option for %q", value)
	}
	if err := el.Select(ctx, best.Value); err != nil {
		return outcomeSkipped, fmt.Errorf("select %q: %w", best.Value, err)
	}
	return outcomeFilled, nil
}

// fillCheckbox toggles only when the current state differs from the target,
// so repeated passes are idempotent.
func (f *Filler) fillCheckbox(ctx context.Context, el Element, value string) (outcome, error) {
	target := Truthy(value)
	current, err := el.Checked(ctx)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("read checked state: %w", err)
	}
	if current == target {
		return outcomeFilled, nil
	}
	f.pause(ctx, f.delays.ClickMin, f.delays.ClickMax)
	if err := el.Click(ctx); err != nil {
		return outcomeSkipped, fmt.Errorf("toggle: %w", err)
	}
	return outcomeFilled, nil
}

// fillRadio enumerates the group and clicks the best match, falling back to
// the first radio rather than leaving the group unanswered.
func (f *Filler) fillRadio(ctx context.Context, page Page, field FormField, value string) (outcome, error) {
	radios, err := page.Elements(ctx, field.Selector)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("find radio group: %w", err)
	}
	if len(radios) == 0 {
		f.logger.Debug("filler: radio group not found, skipping", "selector", field.Selector)
		return outcomeSkipped, nil
	}

	// Already answered?
	for _, radio := range radios {
		if checked, err := radio.Checked(ctx); err == nil && checked {
			return outcomeFilled, nil
		}
	}

	opts := field.Options
	if len(opts) != len(radios) {
		// Analysis options out of step with the live DOM: rebuild from the
		// radios' value attributes.
		opts = make([]Option, len(radios))
		for i, radio := range radios {
			v, _ := radio.Attribute(ctx, "value")
			l, _ := radio.Attribute(ctx, "aria-label")
			opts[i] = Option{Value: v, Label: l}
		}
	}

	idx := OptionIndex(opts, value)
	if idx < 0 || idx >= len(radios) {
		idx = 0
	}

	if visible, err := radios[idx].Visible(ctx); err == nil && !visible {
		f.logger.Debug("filler: radio not visible, skipping", "selector", field.Selector)
		return outcomeSkipped, nil
	}

	f.pause(ctx, f.delays.ClickMin, f.delays.ClickMax)
	if err := radios[idx].Click(ctx); err != nil {
		return outcomeSkipped, fmt.Errorf("select radio: %w", err)
	}
	return outcomeFilled, nil
}

// pause sleeps a random duration in [min, max], or returns early on context
// cancellation.
func (f *Filler) pause(ctx context.Context, min, max time.Duration) {
	if max <= 0 {
		return
	}
	d := min
	if max > min {
		d += time.Duration(rand.Int63n(int64(max - min)))
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func fieldName(field FormField) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Selector
}
