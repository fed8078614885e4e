package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFullName(t *testing.T) {
	p := &Profile{FirstName: "Jane", LastName: "Doe"}
	if got := p.FullName(); got != "Jane Doe" {
		t.Errorf("FullName: got %q, want %q", got, "Jane Doe")
	}

	p = &Profile{FirstName: "Jane"}
	if got := p.FullName(); got != "Jane" {
		t.Errorf("FullName: got %q, want %q", got, "Jane")
	}
}

func TestYearsOfExperience(t *testing.T) {
	p := &Profile{Experience: []Experience{
		{Start: "2015", End: "2019"},
		{Start: "Mar 2019", End: "2022-06"},
	}}
	if got := p.YearsOfExperience(); got != 7 {
		t.Errorf("YearsOfExperience: got %d, want 7", got)
	}
}

func TestYearsOfExperience_Unparseable(t *testing.T) {
	p := &Profile{Experience: []Experience{{Start: "a while ago", End: "later"}}}
	if got := p.YearsOfExperience(); got != 1 {
		t.Errorf("YearsOfExperience: got %d, want 1 (fallback)", got)
	}
}

func TestSummarize(t *testing.T) {
	p := &Profile{
		FirstName: "Jane", LastName: "Doe",
		Contact:    Contact{Location: "Berlin"},
		Skills:     []string{"Go", "SQL"},
		Experience: []Experience{{Title: "Engineer", Company: "Acme", Start: "2020"}},
	}
	s := p.Summarize()
	for _, want := range []string{"Jane Doe", "Berlin", "Go, SQL", "Engineer at Acme", "present"} {
		if !strings.Contains(s, want) {
			t.Errorf("Summarize: missing %q in %q", want, s)
		}
	}
}

func TestValidateResume_Missing(t *testing.T) {
	if err := ValidateResume(filepath.Join(t.TempDir(), "nope.pdf")); err == nil {
		t.Fatal("ValidateResume: want error for missing file")
	}
}

func TestValidateResume_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.pdf")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ValidateResume(path); err == nil {
		t.Fatal("ValidateResume: want error for empty file")
	}
}

func TestValidateResume_BadPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.pdf")
	if err := os.WriteFile(path, []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ValidateResume(path); err == nil {
		t.Fatal("ValidateResume: want error for non-PDF content")
	}
}

func TestValidateResume_NonPDFExtension(t *testing.T) {
	// Non-PDF resumes are only checked for existence and size.
	path := filepath.Join(t.TempDir(), "resume.docx")
	if err := os.WriteFile(path, []byte("docx bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ValidateResume(path); err != nil {
		t.Fatalf("ValidateResume: unexpected error %v", err)
	}
}
