package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/joelfuller2016/job-applier-sub002/profile"
)

// SaveProfile upserts a candidate profile as its JSON document.
func (s *Store) SaveProfile(ctx context.Context, p *profile.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("store: marshal profile: %w", err)
	}
	now := time.Now().UnixMilli()
	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO profiles (id, data_json, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data_json = excluded.data_json, updated_at = excluded.updated_at`,
		p.ID, string(data), now, now)
	if err != nil {
		return fmt.Errorf("store: save profile: %w", err)
	}
	return nil
}

// GetProfile loads a profile by ID.
func (s *Store) GetProfile(ctx context.Context, id string) (*profile.Profile, error) {
	var data string
	err := s.DB.QueryRowContext(ctx, `SELECT data_json FROM profiles WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get profile: %w", err)
	}
	var p profile.Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("store: parse profile: %w", err)
	}
	return &p, nil
}

// ListProfiles returns all profiles.
func (s *Store) ListProfiles(ctx context.Context) ([]*profile.Profile, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT data_json FROM profiles ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("store: list profiles: %w", err)
	}
	defer rows.Close()

	var out []*profile.Profile
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var p profile.Profile
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("store: parse profile: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
