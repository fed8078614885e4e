// Package profile defines the candidate profile that applications are filled
// from, and validation of the attached resume document.
package profile

import (
	"strings"
	"time"
)

// Contact is the profile's contact block.
type Contact struct {
	Email    string `yaml:"email" json:"email"`
	Phone    string `yaml:"phone" json:"phone"`
	LinkedIn string `yaml:"linkedin" json:"linkedin"`
	Website  string `yaml:"website" json:"website"`
	GitHub   string `yaml:"github" json:"github"`
	Location string `yaml:"location" json:"location"`
	City     string `yaml:"city" json:"city"`
}

// Experience is one work-history entry.
type Experience struct {
	Title       string `yaml:"title" json:"title"`
	Company     string `yaml:"company" json:"company"`
	Start       string `yaml:"start" json:"start"`
	End         string `yaml:"end" json:"end"`
	Description string `yaml:"description" json:"description"`
}

// Education is one education entry.
type Education struct {
	School string `yaml:"school" json:"school"`
	Degree string `yaml:"degree" json:"degree"`
	Field  string `yaml:"field" json:"field"`
	Year   string `yaml:"year" json:"year"`
}

// Preferences narrows which jobs the hunter considers.
type Preferences struct {
	Titles    []string `yaml:"titles" json:"titles"`
	Locations []string `yaml:"locations" json:"locations"`
	Remote    bool     `yaml:"remote" json:"remote"`
	MinSalary int      `yaml:"min_salary" json:"min_salary"`
}

// Profile is one candidate. Immutable during a hunt run once loaded.
type Profile struct {
	ID              string       `yaml:"id" json:"id"`
	FirstName       string       `yaml:"first_name" json:"first_name"`
	LastName        string       `yaml:"last_name" json:"last_name"`
	Contact         Contact      `yaml:"contact" json:"contact"`
	Summary         string       `yaml:"summary" json:"summary"`
	Experience      []Experience `yaml:"experience" json:"experience"`
	Education       []Education  `yaml:"education" json:"education"`
	Skills          []string     `yaml:"skills" json:"skills"`
	ResumePath      string       `yaml:"resume_path" json:"resume_path"`
	CoverLetterPath string       `yaml:"cover_letter_path" json:"cover_letter_path"`
	Preferences     Preferences  `yaml:"preferences" json:"preferences"`
	CreatedAt       int64        `yaml:"-" json:"created_at"`
}

// FullName returns "First Last", trimmed.
func (p *Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// YearsOfExperience estimates total years from the experience entries.
// Entries with unparseable dates are counted as one year each.
func (p *Profile) YearsOfExperience() int {
	years := 0
	for _, e := range p.Experience {
		start, okS := parseYear(e.Start)
		end, okE := parseYear(e.End)
		if !okE {
			end = time.Now().Year()
		}
		if okS && end >= start {
			years += end - start
		} else {
			years++
		}
	}
	return years
}

func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return 0, false
	}
	// Accept "2021", "2021-03", "Mar 2021".
	for i := 0; i+4 <= len(s); i++ {
		y := 0
		ok := true
		for j := i; j < i+4; j++ {
			if s[j] < '0' || s[j] > '9' {
				ok = false
				break
			}
			y = y*10 + int(s[j]-'0')
		}
		if ok && y >= 1950 && y <= 2100 {
			return y, true
		}
	}
	return 0, false
}

// Summarize renders the profile as plain text for LLM prompts.
func (p *Profile) Summarize() string {
	var b strings.Builder
	b.WriteString(p.FullName())
	if p.Contact.Location != "" {
		b.WriteString(", ")
		b.WriteString(p.Contact.Location)
	}
	b.WriteByte('\n')
	if p.Summary != "" {
		b.WriteString(p.Summary)
		b.WriteByte('\n')
	}
	if len(p.Skills) > 0 {
		b.WriteString("Skills: ")
		b.WriteString(strings.Join(p.Skills, ", "))
		b.WriteByte('\n')
	}
	for _, e := range p.Experience {
		b.WriteString(e.Title)
		b.WriteString(" at ")
		b.WriteString(e.Company)
		if e.Start != "" {
			b.WriteString(" (" + e.Start + " - ")
			if e.End == "" {
				b.WriteString("present")
			} else {
				b.WriteString(e.End)
			}
			b.WriteString(")")
		}
		b.WriteByte('\n')
	}
	for _, e := range p.Education {
		b.WriteString(e.Degree)
		if e.Field != "" {
			b.WriteString(" in " + e.Field)
		}
		b.WriteString(", " + e.School + "\n")
	}
	return b.String()
}
