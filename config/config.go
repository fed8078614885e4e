// Package config loads the YAML configuration file and fills in defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joelfuller2016/job-applier-sub002/autofill"
	"github.com/joelfuller2016/job-applier-sub002/browser"
	"github.com/joelfuller2016/job-applier-sub002/jobs"
	"github.com/joelfuller2016/job-applier-sub002/llm"
	"github.com/joelfuller2016/job-applier-sub002/platform"
)

// PlatformConfig bundles one platform's credentials and quota.
type PlatformConfig struct {
	Credentials platform.Credentials `yaml:"credentials"`
	Quota       platform.Quota       `yaml:"quota"`
}

// HuntConfig controls one hunt run.
type HuntConfig struct {
	// Queries are the search queries to discover jobs with.
	Queries []string `yaml:"queries"`

	// MinMatchScore filters which discovered jobs get applications.
	MinMatchScore int `yaml:"min_match_score"`

	// MaxApplications bounds applications per run.
	MaxApplications int `yaml:"max_applications"`

	// JobDelayMin/Max is the randomized pause between applications.
	JobDelayMin time.Duration `yaml:"job_delay_min"`
	JobDelayMax time.Duration `yaml:"job_delay_max"`

	// RequireConfirmation pauses before each submission for approval.
	RequireConfirmation bool `yaml:"require_confirmation"`

	DryRun bool `yaml:"dry_run"`
}

// Config is the full application configuration.
type Config struct {
	DBPath        string `yaml:"db_path"`
	ProfilePath   string `yaml:"profile_path"`
	ScreenshotDir string `yaml:"screenshot_dir"`
	CookiePath    string `yaml:"cookie_path"`
	ListenAddr    string `yaml:"listen_addr"`

	Browser browser.Config    `yaml:"browser"`
	LLM     llm.Config        `yaml:"llm"`
	Search  jobs.SearchConfig `yaml:"search"`
	Delays  autofill.Delays   `yaml:"delays"`

	Platforms struct {
		LinkedIn PlatformConfig `yaml:"linkedin"`
		Indeed   PlatformConfig `yaml:"indeed"`
	} `yaml:"platforms"`

	Hunt HuntConfig `yaml:"hunt"`
}

func (c *Config) defaults() {
	if c.DBPath == "" {
		c.DBPath = "jobpilot.db"
	}
	if c.ProfilePath == "" {
		c.ProfilePath = "profile.yaml"
	}
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = "screenshots"
	}
	if c.CookiePath == "" {
		c.CookiePath = "cookies.json"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8084"
	}
	if c.Delays == (autofill.Delays{}) {
		c.Delays = autofill.DefaultDelays()
	}
	if c.Hunt.MinMatchScore <= 0 {
		c.Hunt.MinMatchScore = 50
	}
	if c.Hunt.MaxApplications <= 0 {
		c.Hunt.MaxApplications = 10
	}
	if c.Hunt.JobDelayMin <= 0 {
		c.Hunt.JobDelayMin = 30 * time.Second
	}
	if c.Hunt.JobDelayMax <= c.Hunt.JobDelayMin {
		c.Hunt.JobDelayMax = c.Hunt.JobDelayMin + time.Minute
	}
	if c.Platforms.LinkedIn.Quota.Window <= 0 {
		c.Platforms.LinkedIn.Quota.Window = 24 * time.Hour
	}
	if c.Platforms.Indeed.Quota.Window <= 0 {
		c.Platforms.Indeed.Quota.Window = 24 * time.Hour
	}
}

// Load reads a YAML config file and applies defaults. A missing file yields
// the defaults alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.defaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.defaults()
	return cfg, nil
}

// Quotas returns the per-platform quota map for the rate gate.
func (c *Config) Quotas() map[jobs.Platform]platform.Quota {
	return map[jobs.Platform]platform.Quota{
		jobs.PlatformLinkedIn: c.Platforms.LinkedIn.Quota,
		jobs.PlatformIndeed:   c.Platforms.Indeed.Quota,
	}
}
