package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ValidateResume checks that the resume file exists and, for PDFs, that it is
// a readable document with at least one page. A corrupt resume should fail the
// run before any browser session is opened, not halfway through an application.
func ValidateResume(path string) error {
	if path == "" {
		return fmt.Errorf("profile: resume path is empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("profile: resume: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("profile: resume %s is a directory", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("profile: resume %s is empty", path)
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("profile: resume: %w", err)
		}
		defer f.Close()

		n, err := api.PageCount(f, nil)
		if err != nil {
			return fmt.Errorf("profile: resume %s is not a valid PDF: %w", path, err)
		}
		if n < 1 {
			return fmt.Errorf("profile: resume %s has no pages", path)
		}
	}

	return nil
}
