package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "jobpilot.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.Hunt.MinMatchScore != 50 || cfg.Hunt.MaxApplications != 10 {
		t.Errorf("hunt defaults = %+v", cfg.Hunt)
	}
	if cfg.Delays.FieldMin != 200*time.Millisecond {
		t.Errorf("delay defaults = %+v", cfg.Delays)
	}
	if cfg.Hunt.JobDelayMax <= cfg.Hunt.JobDelayMin {
		t.Errorf("job delay range inverted: %v..%v", cfg.Hunt.JobDelayMin, cfg.Hunt.JobDelayMax)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
db_path: /tmp/test.db
llm:
  provider: ollama
  model: llama3
search:
  url_template: "https://serpapi.example/search?q={query}"
  result_path: jobs_results
platforms:
  linkedin:
    credentials:
      email_env: LI_EMAIL
      password_env: LI_PASSWORD
    quota:
      max_applications: 5
      window: 12h
hunt:
  queries: ["golang developer remote"]
  min_match_score: 70
  dry_run: true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.LLM.Provider != "ollama" || cfg.LLM.Model != "llama3" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.Search.URLTemplate == "" || cfg.Search.ResultPath != "jobs_results" {
		t.Errorf("search = %+v", cfg.Search)
	}
	if cfg.Platforms.LinkedIn.Credentials.EmailEnv != "LI_EMAIL" {
		t.Errorf("linkedin creds = %+v", cfg.Platforms.LinkedIn.Credentials)
	}
	if cfg.Platforms.LinkedIn.Quota.MaxApplications != 5 || cfg.Platforms.LinkedIn.Quota.Window != 12*time.Hour {
		t.Errorf("linkedin quota = %+v", cfg.Platforms.LinkedIn.Quota)
	}
	if !cfg.Hunt.DryRun || cfg.Hunt.MinMatchScore != 70 {
		t.Errorf("hunt = %+v", cfg.Hunt)
	}
	if len(cfg.Hunt.Queries) != 1 {
		t.Errorf("queries = %v", cfg.Hunt.Queries)
	}

	// Defaults still fill the rest.
	if cfg.ListenAddr != ":8084" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("db_path: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
