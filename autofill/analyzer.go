package autofill

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/joelfuller2016/job-applier-sub002/jobs"
	"github.com/joelfuller2016/job-applier-sub002/llm"
)

// Analyzer turns a live page into a PageAnalysis.
//
// It runs a structural goquery pass first (standard input types, associated
// labels, aria attributes) at near-zero cost, and only serializes markup to
// the language model for structures the heuristics cannot classify. Model
// output that fails to parse drops those fields; it never crashes the caller.
type Analyzer struct {
	llm       llm.Client
	search    jobs.Searcher
	sanitizer *bluemonday.Policy
	md        *converter.Converter
	logger    *slog.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithLLM enables the AI classification fallback.
func WithLLM(c llm.Client) AnalyzerOption {
	return func(a *Analyzer) { a.llm = c }
}

// WithSearcher enables FindCareersPage lookups.
func WithSearcher(s jobs.Searcher) AnalyzerOption {
	return func(a *Analyzer) { a.search = s }
}

// WithAnalyzerLogger sets a custom logger.
func WithAnalyzerLogger(l *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) { a.logger = l }
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		sanitizer: formPolicy(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// formPolicy keeps form structure and the attributes selectors are built
// from, and strips everything executable before markup reaches a prompt.
func formPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("form", "fieldset", "legend", "label", "input", "textarea",
		"select", "option", "optgroup", "button", "div", "span", "p", "ul", "li",
		"h1", "h2", "h3", "h4", "strong", "em", "br")
	p.AllowAttrs("id", "name", "type", "value", "placeholder", "for", "required",
		"aria-label", "aria-required", "role", "checked", "selected", "multiple").Globally()
	return p
}

// AnalyzePage serializes the live page's DOM and analyzes it. The analysis is
// bound to the DOM state at this moment; any later navigation or mutation
// requires a fresh call.
func (a *Analyzer) AnalyzePage(ctx context.Context, page Page) (*PageAnalysis, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("analyzer: page html: %w", err)
	}
	return a.AnalyzeHTML(ctx, html)
}

// AnalyzeHTML analyzes a DOM snapshot.
func (a *Analyzer) AnalyzeHTML(ctx context.Context, html string) (*PageAnalysis, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("analyzer: parse html: %w", err)
	}

	analysis := &PageAnalysis{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	fields := a.structuralFields(doc)

	switch {
	case isLoginPage(doc):
		analysis.Type = PageLogin
	case isConfirmationPage(doc):
		analysis.Type = PageConfirmation
	case len(fields) > 0:
		analysis.Type = PageForm
	default:
		analysis.Type = PageUnknown
	}

	// When the structural pass finds nothing but a form exists, the markup is
	// likely custom widgets; hand the serialized form to the model.
	if len(fields) == 0 && analysis.Type != PageLogin && analysis.Type != PageConfirmation && a.llm != nil {
		if frag := formFragment(doc); frag != "" {
			llmFields := a.classifyWithModel(ctx, frag, doc)
			if len(llmFields) > 0 {
				fields = llmFields
				analysis.Type = PageForm
			}
		}
	}

	analysis.Fields = fields
	a.logger.Debug("analyzer: page analyzed",
		"type", analysis.Type, "fields", len(fields), "title", analysis.Title)
	return analysis, nil
}

// structuralFields walks standard form controls and classifies them from
// attributes and associated labels.
func (a *Analyzer) structuralFields(doc *goquery.Document) []FormField {
	var fields []FormField
	seen := make(map[string]bool)
	radioGroups := make(map[string]int) // name -> index into fields

	doc.Find("input, textarea, select").Each(func(_ int, sel *goquery.Selection) {
		// One broken node must not abort analysis of the rest.
		defer func() {
			if rec := recover(); rec != nil {
				a.logger.Warn("analyzer: field inspection panicked", "panic", rec)
			}
		}()

		tag := goquery.NodeName(sel)
		inputType, _ := sel.Attr("type")
		inputType = strings.ToLower(inputType)

		switch inputType {
		case "hidden", "submit", "button", "image", "reset":
			return
		}
		if style, ok := sel.Attr("style"); ok && strings.Contains(strings.ReplaceAll(style, " ", ""), "display:none") {
			return
		}

		name, _ := sel.Attr("name")

		if tag == "input" && inputType == "radio" {
			a.collectRadio(sel, name, radioGroups, &fields)
			return
		}

		selector := cssSelector(sel, tag, name, inputType)
		if selector == "" || seen[selector] {
			return
		}
		seen[selector] = true

		field := FormField{
			Selector: selector,
			Type:     classifyInput(tag, inputType, name, labelFor(doc, sel)),
			Label:    labelFor(doc, sel),
			Required: isRequired(sel),
		}

		if tag == "select" {
			field.Options = selectOptions(sel)
		}

		field.ProfileMapping = inferMapping(field.Label, name)
		fields = append(fields, field)
	})

	return fields
}

// collectRadio groups radios sharing a name into one field whose options are
// the individual radios in DOM order.
func (a *Analyzer) collectRadio(sel *goquery.Selection, name string, groups map[string]int, fields *[]FormField) {
	if name == "" {
		return
	}
	value, _ := sel.Attr("value")

	idx, ok := groups[name]
	if !ok {
		*fields = append(*fields, FormField{
			Selector: fmt.Sprintf(`input[type="radio"][name=%q]`, name),
			Type:     FieldRadio,
			Label:    radioGroupLabel(sel),
			Required: isRequired(sel),
		})
		idx = len(*fields) - 1
		groups[name] = idx
	}
	group := &(*fields)[idx]
	group.Options = append(group.Options, Option{Value: value, Label: radioOptionLabel(sel)})
	if !group.Required && isRequired(sel) {
		group.Required = true
	}
}

// radioGroupLabel looks for the question text of a radio group: the enclosing
// fieldset's legend, or the nearest preceding heading-ish text.
func radioGroupLabel(sel *goquery.Selection) string {
	if legend := sel.Closest("fieldset").Find("legend").First(); legend.Length() > 0 {
		return strings.TrimSpace(legend.Text())
	}
	if v, ok := sel.Attr("aria-label"); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// radioOptionLabel is the text shown next to one radio.
func radioOptionLabel(sel *goquery.Selection) string {
	if parent := sel.Closest("label"); parent.Length() > 0 {
		return strings.TrimSpace(parent.Text())
	}
	if id, ok := sel.Attr("id"); ok && id != "" {
		if lab := sel.Closest("html").Find(fmt.Sprintf("label[for=%q]", id)).First(); lab.Length() > 0 {
			return strings.TrimSpace(lab.Text())
		}
	}
	if v, ok := sel.Attr("aria-label"); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// cssSelector builds a locator that re-finds the element on the live page.
// id wins, then name scoped to the tag. Elements with neither are left to the
// model, which sees the raw markup and can cite whatever attributes exist.
func cssSelector(sel *goquery.Selection, tag, name, inputType string) string {
	if id, ok := sel.Attr("id"); ok && id != "" && !strings.ContainsAny(id, " \t\n") {
		return "#" + id
	}
	if name != "" {
		return fmt.Sprintf(`%s[name=%q]`, tag, name)
	}
	return ""
}

func classifyInput(tag, inputType, name, label string) FieldType {
	switch tag {
	case "textarea":
		return FieldTextarea
	case "select":
		return FieldSelect
	}
	switch inputType {
	case "email":
		return FieldEmail
	case "tel":
		return FieldPhone
	case "file":
		return FieldFile
	case "checkbox":
		return FieldCheckbox
	}
	hint := strings.ToLower(name + " " + label)
	switch {
	case containsAny(hint, "email", "e-mail"):
		return FieldEmail
	case containsAny(hint, "phone", "mobile", "telephone"):
		return FieldPhone
	}
	return FieldText
}

// labelFor finds the human-readable question text for a control: explicit
// label[for], enclosing label, aria-label, then placeholder.
func labelFor(doc *goquery.Document, sel *goquery.Selection) string {
	if id, ok := sel.Attr("id"); ok && id != "" {
		if lab := doc.Find(fmt.Sprintf("label[for=%q]", id)).First(); lab.Length() > 0 {
			if t := strings.TrimSpace(lab.Text()); t != "" {
				return t
			}
		}
	}
	if parent := sel.Closest("label"); parent.Length() > 0 {
		if t := strings.TrimSpace(parent.Text()); t != "" {
			return t
		}
	}
	if v, ok := sel.Attr("aria-label"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if v, ok := sel.Attr("placeholder"); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func isRequired(sel *goquery.Selection) bool {
	if _, ok := sel.Attr("required"); ok {
		return true
	}
	if v, ok := sel.Attr("aria-required"); ok && v == "true" {
		return true
	}
	return false
}

func selectOptions(sel *goquery.Selection) []Option {
	var opts []Option
	sel.Find("option").Each(func(_ int, o *goquery.Selection) {
		value, _ := o.Attr("value")
		opts = append(opts, Option{Value: value, Label: strings.TrimSpace(o.Text())})
	})
	return opts
}

// mappingRules pair label/name substrings with profile dictionary keys. The
// analyzer only sets a mapping when intent is unambiguous; everything else is
// left to the resolver's own ladder.
var mappingRules = []struct {
	needles []string
	key     string
}{
	{[]string{"first name", "firstname", "first_name", "given name"}, "firstName"},
	{[]string{"last name", "lastname", "last_name", "surname", "family name"}, "lastName"},
	{[]string{"e-mail", "email"}, "email"},
	{[]string{"phone", "mobile", "telephone"}, "phone"},
	{[]string{"linkedin"}, "linkedin"},
	{[]string{"github"}, "github"},
	{[]string{"website", "portfolio"}, "website"},
	{[]string{"city"}, "city"},
	{[]string{"location"}, "location"},
	{[]string{"resume", "curriculum"}, "resumePath"},
}

func inferMapping(label, name string) string {
	hint := strings.ToLower(label + " " + name)
	if strings.TrimSpace(hint) == "" {
		return ""
	}
	for _, rule := range mappingRules {
		for _, n := range rule.needles {
			if strings.Contains(hint, n) {
				return rule.key
			}
		}
	}
	return ""
}

// isLoginPage treats any page gated by a password input as an auth wall.
// Application forms asking to create an account are rare enough that manual
// review beats guessing at credentials.
func isLoginPage(doc *goquery.Document) bool {
	return doc.Find(`input[type="password"]`).Length() > 0
}

var successPhrases = []string{
	"application submitted",
	"application sent",
	"application received",
	"thank you for applying",
	"thanks for applying",
	"successfully applied",
	"your application has been",
	"we have received your application",
}

func isConfirmationPage(doc *goquery.Document) bool {
	text := strings.ToLower(doc.Find("body").Text())
	return containsAny(text, successPhrases...)
}

// formFragment returns sanitized markup of the first form, or of the body
// when the page has no form element.
func formFragment(doc *goquery.Document) string {
	sel := doc.Find("form").First()
	if sel.Length() == 0 {
		sel = doc.Find("body").First()
	}
	raw, err := goquery.OuterHtml(sel)
	if err != nil || strings.TrimSpace(raw) == "" {
		return ""
	}
	return raw
}

const classifyPrompt = `You are analyzing the HTML of a job application form.
Identify every field an applicant must interact with and return a JSON array,
with no other text, where each element has this exact shape:

{"selector": "CSS selector that uniquely finds the element",
 "type": "text|email|phone|textarea|select|checkbox|radio|file",
 "label": "the question or label text",
 "required": true or false,
 "options": [{"value": "...", "label": "..."}],
 "profileMapping": "one of firstName,lastName,email,phone,linkedin,website,github,location,city,resumePath or omit"}

Only include "options" for select and radio fields. Prefer selectors built
from id or name attributes.

Page text for context:
%s

Form HTML:
%s`

// classifyWithModel serializes the fragment and asks the model for the field
// list. Anything that does not parse or validate is dropped, never fatal.
func (a *Analyzer) classifyWithModel(ctx context.Context, fragment string, doc *goquery.Document) []FormField {
	sanitized := a.sanitizer.Sanitize(fragment)
	if len(sanitized) > 12000 {
		sanitized = sanitized[:12000]
	}

	var pageText string
	if body, err := goquery.OuterHtml(doc.Find("body").First()); err == nil {
		if md, err := a.md.ConvertString(a.sanitizer.Sanitize(body)); err == nil {
			pageText = md
		}
	}
	if len(pageText) > 2000 {
		pageText = pageText[:2000]
	}

	out, err := a.llm.Generate(ctx, fmt.Sprintf(classifyPrompt, pageText, sanitized))
	if err != nil {
		a.logger.Warn("analyzer: model classification failed", "error", err)
		return nil
	}

	var fields []FormField
	if err := json.Unmarshal([]byte(llm.ExtractJSON(out)), &fields); err != nil {
		a.logger.Warn("analyzer: model output not parseable, skipping fields", "error", err)
		return nil
	}

	valid := fields[:0]
	for _, f := range fields {
		if f.Selector == "" || !validFieldType(f.Type) {
			continue
		}
		valid = append(valid, f)
	}
	return valid
}

func validFieldType(t FieldType) bool {
	switch t {
	case FieldText, FieldEmail, FieldPhone, FieldTextarea, FieldSelect, FieldCheckbox, FieldRadio, FieldFile:
		return true
	}
	return false
}

// FindCareersPage looks up the best-guess careers URL for a company via the
// configured search client. Best effort: "" with nil error means not found.
func (a *Analyzer) FindCareersPage(ctx context.Context, companyName string) (string, error) {
	if a.search == nil {
		return "", fmt.Errorf("analyzer: no search client configured")
	}
	results, err := a.search.Search(ctx, companyName+" careers jobs")
	if err != nil {
		return "", fmt.Errorf("analyzer: careers search: %w", err)
	}

	for _, r := range results {
		u := strings.ToLower(r.URL)
		if containsAny(u, "career", "jobs", "join-us", "work-with-us", "greenhouse.io", "lever.co", "workable.com") {
			return r.URL, nil
		}
	}
	if len(results) > 0 {
		return results[0].URL, nil
	}
	return "", nil
}
