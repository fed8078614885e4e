package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joelfuller2016/job-applier-sub002/jobs"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("store: not found")

// InsertJob adds a discovered listing. A listing whose URL is already known
// is ignored; inserted reports whether a new row was written.
func (s *Store) InsertJob(ctx context.Context, l *jobs.Listing) (inserted bool, err error) {
	if l.DiscoveredAt == 0 {
		l.DiscoveredAt = time.Now().UnixMilli()
	}
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO jobs (id, title, company, location, description, url, apply_url,
		platform, remote, salary_text, posted_at, discovered_at, match_score, match_analysis)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO NOTHING`,
		l.ID, l.Title, l.Company, l.Location, l.Description, l.URL, l.ApplyURL,
		l.Platform, boolToInt(l.Remote), l.SalaryText, l.PostedAt, l.DiscoveredAt,
		l.MatchScore, l.MatchAnalysis,
	)
	if err != nil {
		return false, fmt.Errorf("store: insert job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: insert job: %w", err)
	}
	return n > 0, nil
}

// GetJob retrieves a listing by ID.
func (s *Store) GetJob(ctx context.Context, id string) (*jobs.Listing, error) {
	row := s.DB.QueryRowContext(ctx, jobColumns+` WHERE id = ?`, id)
	return scanJob(row)
}

// GetJobByURL retrieves a listing by its canonical URL.
func (s *Store) GetJobByURL(ctx context.Context, url string) (*jobs.Listing, error) {
	row := s.DB.QueryRowContext(ctx, jobColumns+` WHERE url = ?`, url)
	return scanJob(row)
}

// JobFilter narrows ListJobs.
type JobFilter struct {
	Platform jobs.Platform
	MinScore int
	Limit    int
}

// ListJobs returns listings, best match first.
func (s *Store) ListJobs(ctx context.Context, f JobFilter) ([]*jobs.Listing, error) {
	q := jobColumns
	var conds []string
	var args []any
	if f.Platform != "" {
		conds = append(conds, "platform = ?")
		args = append(args, f.Platform)
	}
	if f.MinScore > 0 {
		conds = append(conds, "match_score >= ?")
		args = append(args, f.MinScore)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY match_score DESC, discovered_at DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list jobs: %w", err)
	}
	defer rows.Close()

	var out []*jobs.Listing
	for rows.Next() {
		l, err := scanJobRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpdateMatch backfills the match score and analysis after scoring.
func (s *Store) UpdateMatch(ctx context.Context, id string, score int, analysis string) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE jobs SET match_score = ?, match_analysis = ? WHERE id = ?`,
		score, analysis, id)
	if err != nil {
		return fmt.Errorf("store: update match: %w", err)
	}
	return nil
}

const jobColumns = `SELECT id, title, company, location, description, url, apply_url,
	platform, remote, salary_text, posted_at, discovered_at, match_score, match_analysis
	FROM jobs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row *sql.Row) (*jobs.Listing, error) {
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

func scanJobRows(rows *sql.Rows) (*jobs.Listing, error) {
	return scanListing(rows)
}

func scanListing(r rowScanner) (*jobs.Listing, error) {
	var l jobs.Listing
	var remote int
	err := r.Scan(&l.ID, &l.Title, &l.Company, &l.Location, &l.Description,
		&l.URL, &l.ApplyURL, &l.Platform, &remote, &l.SalaryText,
		&l.PostedAt, &l.DiscoveredAt, &l.MatchScore, &l.MatchAnalysis)
	if err != nil {
		return nil, err
	}
	l.Remote = remote == 1
	return &l, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
