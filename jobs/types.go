// Package jobs defines job listings, application attempts, discovery via
// search APIs, and deterministic profile matching.
package jobs

// Platform identifies where a listing was found and how it is applied to.
type Platform string

const (
	PlatformLinkedIn Platform = "linkedin"
	PlatformIndeed   Platform = "indeed"
	PlatformGeneric  Platform = "generic"
)

// Listing is one discovered job. Immutable after discovery; only the match
// fields are back-filled before the listing reaches the navigator.
type Listing struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Company       string   `json:"company"`
	Location      string   `json:"location"`
	Description   string   `json:"description"`
	URL           string   `json:"url"`
	ApplyURL      string   `json:"apply_url"`
	Platform      Platform `json:"platform"`
	Remote        bool     `json:"remote"`
	SalaryText    string   `json:"salary_text"`
	PostedAt      int64    `json:"posted_at"`
	DiscoveredAt  int64    `json:"discovered_at"`
	MatchScore    int      `json:"match_score"`
	MatchAnalysis string   `json:"match_analysis"`
}

// ApplicationURL returns the URL the navigator should open: the dedicated
// apply URL when the listing has one, otherwise the listing URL itself.
func (l *Listing) ApplicationURL() string {
	if l.ApplyURL != "" {
		return l.ApplyURL
	}
	return l.URL
}

// Status is the application attempt state machine.
type Status string

const (
	StatusPending        Status = "pending"
	StatusAnalyzing      Status = "analyzing"
	StatusFilling        Status = "filling"
	StatusSubmitted      Status = "submitted"
	StatusFailed         Status = "failed"
	StatusRequiresManual Status = "requires_manual"
	StatusSkipped        Status = "skipped"
)

// Terminal reports whether the status ends the attempt. A terminal status is
// never overwritten.
func (s Status) Terminal() bool {
	switch s {
	case StatusSubmitted, StatusFailed, StatusRequiresManual, StatusSkipped:
		return true
	}
	return false
}

// Method distinguishes platform-native flows from generic form filling.
type Method string

const (
	MethodEasyApply Method = "easy-apply"
	MethodForm      Method = "form"
)

// Application is the durable record of one attempt to apply to one job for
// one profile.
type Application struct {
	ID             string   `json:"id"`
	JobID          string   `json:"job_id"`
	ProfileID      string   `json:"profile_id"`
	Status         Status   `json:"status"`
	Method         Method   `json:"method"`
	Platform       Platform `json:"platform"`
	CoverLetterRef string   `json:"cover_letter_ref"`
	AnswersJSON    string   `json:"answers_json"`
	ScreenshotPath string   `json:"screenshot_path"`
	Message        string   `json:"message"`
	CreatedAt      int64    `json:"created_at"`
	UpdatedAt      int64    `json:"updated_at"`
	SubmittedAt    int64    `json:"submitted_at"`
}

// Event is one append-only audit trail entry for an application.
type Event struct {
	ID            string `json:"id"`
	ApplicationID string `json:"application_id"`
	Type          string `json:"type"`
	Detail        string `json:"detail"`
	CreatedAt     int64  `json:"created_at"`
}
