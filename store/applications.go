package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joelfuller2016/job-applier-sub002/jobs"
)

// ErrTerminalStatus is returned when a write would overwrite a terminal
// application status. Terminal statuses are immutable.
var ErrTerminalStatus = errors.New("store: application already in a terminal status")

// ErrDuplicateApplication is returned when an application for the same job
// and profile already exists.
var ErrDuplicateApplication = errors.New("store: application already exists for this job and profile")

// InsertApplication records a new attempt.
func (s *Store) InsertApplication(ctx context.Context, a *jobs.Application) error {
	now := time.Now().UnixMilli()
	if a.CreatedAt == 0 {
		a.CreatedAt = now
	}
	if a.UpdatedAt == 0 {
		a.UpdatedAt = now
	}
	if a.Status == "" {
		a.Status = jobs.StatusPending
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO applications (id, job_id, profile_id, status, method, platform,
		cover_letter_ref, answers_json, screenshot_path, message, created_at, updated_at, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.JobID, a.ProfileID, a.Status, a.Method, a.Platform,
		a.CoverLetterRef, a.AnswersJSON, a.ScreenshotPath, a.Message,
		a.CreatedAt, a.UpdatedAt, a.SubmittedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateApplication
		}
		return fmt.Errorf("store: insert application: %w", err)
	}
	return nil
}

// GetApplication retrieves an attempt by ID.
func (s *Store) GetApplication(ctx context.Context, id string) (*jobs.Application, error) {
	row := s.DB.QueryRowContext(ctx, appColumns+` WHERE id = ?`, id)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// FindApplication looks up the attempt for a job and profile, or ErrNotFound.
func (s *Store) FindApplication(ctx context.Context, jobID, profileID string) (*jobs.Application, error) {
	row := s.DB.QueryRowContext(ctx, appColumns+` WHERE job_id = ? AND profile_id = ?`, jobID, profileID)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// ListApplications returns attempts, newest first. status "" means all.
func (s *Store) ListApplications(ctx context.Context, status jobs.Status, limit int) ([]*jobs.Application, error) {
	q := appColumns
	var args []any
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list applications: %w", err)
	}
	defer rows.Close()

	var out []*jobs.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SaveResult writes the outcome fields of an attempt. The write is refused
// when the stored status is already terminal.
func (s *Store) SaveResult(ctx context.Context, a *jobs.Application) error {
	a.UpdatedAt = time.Now().UnixMilli()
	res, err := s.DB.ExecContext(ctx,
		`UPDATE applications SET status = ?, method = ?, cover_letter_ref = ?,
		answers_json = ?, screenshot_path = ?, message = ?, updated_at = ?, submitted_at = ?
		WHERE id = ? AND status NOT IN ('submitted', 'failed', 'requires_manual', 'skipped')`,
		a.Status, a.Method, a.CoverLetterRef,
		a.AnswersJSON, a.ScreenshotPath, a.Message, a.UpdatedAt, a.SubmittedAt, a.ID)
	if err != nil {
		return fmt.Errorf("store: save result: %w", err)
	}
	return s.checkWritten(ctx, res, a.ID)
}

// UpdateStatus moves an attempt to a new status with the same terminal guard.
func (s *Store) UpdateStatus(ctx context.Context, id string, status jobs.Status, message string) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE applications SET status = ?, message = ?, updated_at = ?
		WHERE id = ? AND status NOT IN ('submitted', 'failed', 'requires_manual', 'skipped')`,
		status, message, time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("store: update status: %w", err)
	}
	return s.checkWritten(ctx, res, id)
}

func (s *Store) checkWritten(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	var status string
	err = s.DB.QueryRowContext(ctx, `SELECT status FROM applications WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: check status: %w", err)
	}
	return ErrTerminalStatus
}

// AddEvent appends one audit trail entry. Events are never updated or
// deleted.
func (s *Store) AddEvent(ctx context.Context, applicationID, eventType, detail string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO application_events (id, application_id, type, detail, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), applicationID, eventType, detail, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("store: add event: %w", err)
	}
	return nil
}

// ListEvents returns an application's audit trail in insertion order.
func (s *Store) ListEvents(ctx context.Context, applicationID string) ([]*jobs.Event, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, application_id, type, detail, created_at
		FROM application_events WHERE application_id = ? ORDER BY created_at, id`,
		applicationID)
	if err != nil {
		return nil, fmt.Errorf("store: list events: %w", err)
	}
	defer rows.Close()

	var out []*jobs.Event
	for rows.Next() {
		var e jobs.Event
		if err := rows.Scan(&e.ID, &e.ApplicationID, &e.Type, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// CountApplicationsByStatus returns how many attempts sit in each status.
func (s *Store) CountApplicationsByStatus(ctx context.Context) (map[jobs.Status]int, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM applications GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("store: count applications: %w", err)
	}
	defer rows.Close()

	out := map[jobs.Status]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[jobs.Status(status)] = n
	}
	return out, rows.Err()
}

const appColumns = `SELECT id, job_id, profile_id, status, method, platform,
	cover_letter_ref, answers_json, screenshot_path, message, created_at, updated_at, submitted_at
	FROM applications`

func scanApplication(r rowScanner) (*jobs.Application, error) {
	var a jobs.Application
	err := r.Scan(&a.ID, &a.JobID, &a.ProfileID, &a.Status, &a.Method, &a.Platform,
		&a.CoverLetterRef, &a.AnswersJSON, &a.ScreenshotPath, &a.Message,
		&a.CreatedAt, &a.UpdatedAt, &a.SubmittedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite reports constraint failures in the error text.
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
