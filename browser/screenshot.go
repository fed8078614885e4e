package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joelfuller2016/job-applier-sub002/autofill"
)

// Shots writes screenshots into a directory, one PNG per capture, named by
// timestamp and tag.
type Shots struct {
	dir string
}

var _ autofill.ScreenshotSink = (*Shots)(nil)

// NewShots creates the directory if needed.
func NewShots(dir string) (*Shots, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("browser: screenshot dir: %w", err)
	}
	return &Shots{dir: dir}, nil
}

// Capture takes a full-page screenshot and returns the stored path.
func (s *Shots) Capture(ctx context.Context, page autofill.Page, tag string) (string, error) {
	data, err := page.Screenshot(ctx)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-%s.png", time.Now().Format("20060102-150405.000"), tag)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("browser: write screenshot: %w", err)
	}
	return path, nil
}
