package store

// Schema is the complete application schema. Timestamps are Unix
// milliseconds.
const Schema = `
-- Discovered job listings, deduplicated by URL
CREATE TABLE IF NOT EXISTS jobs (
    id             TEXT PRIMARY KEY,
    title          TEXT NOT NULL,
    company        TEXT NOT NULL DEFAULT '',
    location       TEXT NOT NULL DEFAULT '',
    description    TEXT NOT NULL DEFAULT '',
    url            TEXT NOT NULL UNIQUE,
    apply_url      TEXT NOT NULL DEFAULT '',
    platform       TEXT NOT NULL DEFAULT 'generic',
    remote         INTEGER NOT NULL DEFAULT 0,
    salary_text    TEXT NOT NULL DEFAULT '',
    posted_at      INTEGER NOT NULL DEFAULT 0,
    discovered_at  INTEGER NOT NULL,
    match_score    INTEGER NOT NULL DEFAULT 0,
    match_analysis TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_jobs_platform ON jobs(platform);
CREATE INDEX IF NOT EXISTS idx_jobs_score ON jobs(match_score DESC);

-- One application attempt per job per profile
CREATE TABLE IF NOT EXISTS applications (
    id               TEXT PRIMARY KEY,
    job_id           TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
    profile_id       TEXT NOT NULL,
    status           TEXT NOT NULL DEFAULT 'pending',
    method           TEXT NOT NULL DEFAULT 'form',
    platform         TEXT NOT NULL DEFAULT 'generic',
    cover_letter_ref TEXT NOT NULL DEFAULT '',
    answers_json     TEXT NOT NULL DEFAULT '',
    screenshot_path  TEXT NOT NULL DEFAULT '',
    message          TEXT NOT NULL DEFAULT '',
    created_at       INTEGER NOT NULL,
    updated_at       INTEGER NOT NULL,
    submitted_at     INTEGER NOT NULL DEFAULT 0,
    UNIQUE(job_id, profile_id)
);
CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status);

-- Append-only audit trail per application
CREATE TABLE IF NOT EXISTS application_events (
    id             TEXT PRIMARY KEY,
    application_id TEXT NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
    type           TEXT NOT NULL,
    detail         TEXT NOT NULL DEFAULT '',
    created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_application ON application_events(application_id, created_at);

-- Candidate profiles, stored as the loaded document
CREATE TABLE IF NOT EXISTS profiles (
    id         TEXT PRIMARY KEY,
    data_json  TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
`
