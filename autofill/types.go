// Package autofill turns arbitrary job-application pages into normalized form
// fields, resolves what belongs in each, drives the fill, and walks multi-page
// flows to a terminal outcome.
package autofill

// FieldType classifies a normalized form field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldPhone    FieldType = "phone"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldRadio    FieldType = "radio"
	FieldFile     FieldType = "file"
)

// Option is one selectable value/label pair for select and radio fields.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FormField is the site-agnostic representation of one input control.
// The selector is only valid for the lifetime of one fill pass: after any
// navigation or DOM mutation the page must be re-analyzed, not re-filled
// from stale selectors.
type FormField struct {
	Selector       string    `json:"selector"`
	Type           FieldType `json:"type"`
	Label          string    `json:"label"`
	Required       bool      `json:"required"`
	Options        []Option  `json:"options,omitempty"`
	ProfileMapping string    `json:"profileMapping,omitempty"`
	Value          string    `json:"value,omitempty"`
}

// PageType classifies the loaded page as a whole.
type PageType string

const (
	PageForm         PageType = "form"
	PageLogin        PageType = "login"
	PageConfirmation PageType = "confirmation"
	PageUnknown      PageType = "unknown"
)

// PageAnalysis is the output of analyzing one loaded page. Produced fresh per
// page load, never mutated, superseded by a new analysis after navigation.
type PageAnalysis struct {
	Type   PageType
	Title  string
	Fields []FormField
}

// FillResult is the per-page fill outcome. It does not carry overall
// application success; that is a navigator-level judgment.
type FillResult struct {
	FieldsFilled  int
	FieldsSkipped int
	Errors        []string
	// Answers snapshots what was entered, keyed by field label (falling back
	// to selector), for the application record.
	Answers map[string]string
}

// Success reports whether the pass produced a usable partial result. A form
// where some fields errored but others were filled is still usable; only
// all-errors-zero-filled counts as failure.
func (r *FillResult) Success() bool {
	return r.FieldsFilled > 0 || len(r.Errors) == 0
}

func (r *FillResult) addError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// JobContext is the listing context handed to value resolution so open-ended
// answers can reference the role.
type JobContext struct {
	Title       string
	Company     string
	Description string
}
