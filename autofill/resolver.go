package autofill

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/joelfuller2016/job-applier-sub002/llm"
	"github.com/joelfuller2016/job-applier-sub002/profile"
)

// Resolver decides what value to place into one normalized field.
//
// Resolution order, first match wins:
//  1. the field already carries an explicit value, used verbatim
//  2. profileMapping hits the fixed dictionary, no AI call
//  3. label substring rules, covering the common case without AI latency
//  4. language-model fallback for open-ended questions
//
// Resolve never fails: a field it cannot answer resolves to "", and the
// filler decides whether that is a skip or a required-field error.
type Resolver struct {
	llm    llm.Client
	logger *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets a custom logger.
func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a Resolver. client may be nil, which disables the
// AI fallback stage; the first three stages still apply.
func NewResolver(client llm.Client, opts ...ResolverOption) *Resolver {
	r := &Resolver{llm: client, logger: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve returns the string to enter into the field, or "" to signal skip.
func (r *Resolver) Resolve(ctx context.Context, field FormField, p *profile.Profile, job JobContext) string {
	if field.Value != "" {
		return field.Value
	}

	if field.ProfileMapping != "" {
		if v, ok := MappedValue(field.ProfileMapping, p); ok {
			return v
		}
		r.logger.Debug("resolver: unknown profile mapping", "mapping", field.ProfileMapping)
	}

	if v, ok := resolveLabel(field.Label, p); ok {
		return v
	}

	// Open-ended or company-specific question: ask the model.
	if r.llm != nil && field.Label != "" {
		v, err := r.generate(ctx, field, p, job)
		if err != nil {
			r.logger.Warn("resolver: ai fallback failed", "label", field.Label, "error", err)
			return ""
		}
		return v
	}

	return ""
}

// MappedValue looks up a profileMapping key in the fixed dictionary.
func MappedValue(key string, p *profile.Profile) (string, bool) {
	switch key {
	case "firstName":
		return p.FirstName, true
	case "lastName":
		return p.LastName, true
	case "email":
		return p.Contact.Email, true
	case "phone":
		return p.Contact.Phone, true
	case "linkedin":
		return p.Contact.LinkedIn, true
	case "website":
		return p.Contact.Website, true
	case "github":
		return p.Contact.GitHub, true
	case "location":
		return p.Contact.Location, true
	case "city":
		return p.Contact.City, true
	case "resumePath":
		return p.ResumePath, true
	}
	return "", false
}

// labelRule maps label substrings to a profile value. Rules are checked in
// order; the more specific variants sit above the generic ones ("first name"
// must win before a bare "name" rule would).
type labelRule struct {
	needles []string
	value   func(p *profile.Profile) string
}

var labelRules = []labelRule{
	{[]string{"first name", "given name", "firstname"}, func(p *profile.Profile) string { return p.FirstName }},
	{[]string{"last name", "family name", "surname", "lastname"}, func(p *profile.Profile) string { return p.LastName }},
	{[]string{"full name", "your name", "legal name"}, func(p *profile.Profile) string { return p.FullName() }},
	{[]string{"e-mail", "email"}, func(p *profile.Profile) string { return p.Contact.Email }},
	{[]string{"phone", "mobile", "telephone"}, func(p *profile.Profile) string { return p.Contact.Phone }},
	{[]string{"linkedin"}, func(p *profile.Profile) string { return p.Contact.LinkedIn }},
	{[]string{"github"}, func(p *profile.Profile) string { return p.Contact.GitHub }},
	{[]string{"website", "portfolio", "personal site"}, func(p *profile.Profile) string { return p.Contact.Website }},
	{[]string{"city"}, func(p *profile.Profile) string { return p.Contact.City }},
	{[]string{"location", "address"}, func(p *profile.Profile) string { return p.Contact.Location }},
	{[]string{"resume", "curriculum", " cv", "cv "}, func(p *profile.Profile) string { return p.ResumePath }},
	{[]string{"cover letter"}, func(p *profile.Profile) string { return p.CoverLetterPath }},
	{[]string{"years of experience", "experience in years"}, func(p *profile.Profile) string {
		return strconv.Itoa(p.YearsOfExperience())
	}},
	{[]string{"salary expectation", "expected salary", "desired salary"}, func(p *profile.Profile) string {
		if p.Preferences.MinSalary > 0 {
			return strconv.Itoa(p.Preferences.MinSalary)
		}
		return ""
	}},
	// Consent boxes get checked; anything phrased as an agreement is assumed
	// to be the standard terms/privacy acknowledgement.
	{[]string{"i agree", "terms", "consent", "acknowledge", "certify"}, func(p *profile.Profile) string { return "yes" }},
}

func resolveLabel(label string, p *profile.Profile) (string, bool) {
	l := strings.ToLower(label)
	if l == "" {
		return "", false
	}
	for _, rule := range labelRules {
		for _, n := range rule.needles {
			if strings.Contains(l, n) {
				v := rule.value(p)
				if v != "" {
					return v, true
				}
			}
		}
	}
	return "", false
}

func (r *Resolver) generate(ctx context.Context, field FormField, p *profile.Profile, job JobContext) (string, error) {
	var b strings.Builder
	b.WriteString("You are filling out a job application form on behalf of a candidate.\n")
	b.WriteString("Answer the question below concisely and professionally, in first person.\n")
	b.WriteString("Return only the answer text, no preamble and no quotes.\n\n")
	fmt.Fprintf(&b, "Question: %s\n", field.Label)
	fmt.Fprintf(&b, "Field type: %s\n", field.Type)
	if len(field.Options) > 0 {
		b.WriteString("You must answer with exactly one of these options:\n")
		for _, o := range field.Options {
			fmt.Fprintf(&b, "- %s\n", optionText(o))
		}
	}
	if field.Type == FieldTextarea {
		b.WriteString("Keep the answer under 150 words.\n")
	} else if len(field.Options) == 0 {
		b.WriteString("Keep the answer under 20 words.\n")
	}
	fmt.Fprintf(&b, "\nJob: %s at %s\n", job.Title, job.Company)
	if job.Description != "" {
		fmt.Fprintf(&b, "Job description:\n%s\n", truncate(job.Description, 2000))
	}
	fmt.Fprintf(&b, "\nCandidate:\n%s", p.Summarize())

	answer, err := r.llm.Generate(ctx, b.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(answer), `"`)), nil
}

func optionText(o Option) string {
	if o.Label != "" {
		return o.Label
	}
	return o.Value
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
