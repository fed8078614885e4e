package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SearchConfig describes how to call and parse a JSON search API.
// Headers support ${ENV_VAR} expansion so API keys stay out of config files.
type SearchConfig struct {
	URLTemplate string            `yaml:"url_template"` // "{query}" is replaced with the escaped query
	Method      string            `yaml:"method"`
	Headers     map[string]string `yaml:"headers"`
	ResultPath  string            `yaml:"result_path"` // dot-notation: "jobs_results"
	Fields      map[string]string `yaml:"fields"`      // result field -> API field
	MaxResults  int               `yaml:"max_results"`
}

// SearchResult is one raw hit from a search API.
type SearchResult struct {
	Title    string
	Company  string
	URL      string
	Snippet  string
	Location string
}

// Searcher executes a query and returns raw results. The Discovery client is
// the production implementation; tests supply their own.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// Discovery turns search API hits into job Listings.
type Discovery struct {
	cfg    SearchConfig
	client *http.Client
	logger *slog.Logger
}

// DiscoveryOption configures a Discovery.
type DiscoveryOption func(*Discovery)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscoveryOption {
	return func(d *Discovery) { d.client = c }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) DiscoveryOption {
	return func(d *Discovery) { d.logger = l }
}

// NewDiscovery creates a Discovery for the given search API.
func NewDiscovery(cfg SearchConfig, opts ...DiscoveryOption) *Discovery {
	d := &Discovery{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Search executes the query against the configured API.
func (d *Discovery) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if d.cfg.URLTemplate == "" {
		return nil, fmt.Errorf("discovery: no url_template configured")
	}
	searchURL := strings.ReplaceAll(d.cfg.URLTemplate, "{query}", url.QueryEscape(query))

	method := d.cfg.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: new request: %w", err)
	}
	for k, v := range d.cfg.Headers {
		req.Header.Set(k, os.Expand(v, os.Getenv))
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discovery: http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, fmt.Errorf("discovery: http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("discovery: read body: %w", err)
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("discovery: json decode: %w", err)
	}

	items, err := walkPath(raw, d.cfg.ResultPath)
	if err != nil {
		return nil, fmt.Errorf("discovery: walk path %q: %w", d.cfg.ResultPath, err)
	}

	results := make([]SearchResult, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		results = append(results, d.extract(obj))
		if d.cfg.MaxResults > 0 && len(results) >= d.cfg.MaxResults {
			break
		}
	}

	d.logger.Debug("discovery: search complete", "query", query, "results", len(results))
	return results, nil
}

// DiscoverJobs searches for the query and converts hits to Listings.
// Platform is inferred from the result URL.
func (d *Discovery) DiscoverJobs(ctx context.Context, query string) ([]*Listing, error) {
	results, err := d.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	listings := make([]*Listing, 0, len(results))
	for _, r := range results {
		if r.URL == "" {
			continue
		}
		listings = append(listings, &Listing{
			ID:           uuid.NewString(),
			Title:        r.Title,
			Company:      r.Company,
			Location:     r.Location,
			Description:  r.Snippet,
			URL:          r.URL,
			Platform:     PlatformForURL(r.URL),
			DiscoveredAt: now,
		})
	}
	return listings, nil
}

// PlatformForURL infers the platform from a job URL.
func PlatformForURL(raw string) Platform {
	u, err := url.Parse(raw)
	if err != nil {
		return PlatformGeneric
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "linkedin."):
		return PlatformLinkedIn
	case strings.Contains(host, "indeed."):
		return PlatformIndeed
	}
	return PlatformGeneric
}

func (d *Discovery) extract(obj map[string]any) SearchResult {
	fields := d.cfg.Fields
	get := func(key, def string) string {
		name := def
		if f, ok := fields[key]; ok {
			name = f
		}
		return asString(obj[name])
	}
	return SearchResult{
		Title:    get("title", "title"),
		Company:  get("company", "company_name"),
		URL:      get("url", "link"),
		Snippet:  get("snippet", "description"),
		Location: get("location", "location"),
	}
}

// walkPath walks a dot-notation path into a JSON value, returning the array
// found at that path. An empty path requires the root to be an array.
func walkPath(v any, path string) ([]any, error) {
	if path == "" {
		arr, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("root is not an array")
		}
		return arr, nil
	}

	current := v
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object at %q, got %T", part, current)
		}
		current, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("key %q not found", part)
		}
	}

	arr, ok := current.([]any)
	if !ok {
		return nil, fmt.Errorf("path %q is not an array", path)
	}
	return arr, nil
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
