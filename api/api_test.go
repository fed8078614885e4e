package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joelfuller2016/job-applier-sub002/jobs"
	"github.com/joelfuller2016/job-applier-sub002/store"
)

func testServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	s := store.OpenMemory(t)
	return New(s, ":0"), s
}

func seed(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()
	a := &jobs.Listing{ID: "j1", Title: "Go Engineer", Company: "Acme",
		URL: "https://acme.example/1", Platform: jobs.PlatformLinkedIn, MatchScore: 80}
	b := &jobs.Listing{ID: "j2", Title: "Ops", Company: "Beta",
		URL: "https://beta.example/2", Platform: jobs.PlatformGeneric, MatchScore: 30}
	for _, l := range []*jobs.Listing{a, b} {
		if _, err := s.InsertJob(ctx, l); err != nil {
			t.Fatalf("seed job: %v", err)
		}
	}
	app := &jobs.Application{ID: "a1", JobID: "j1", ProfileID: "p1",
		Status: jobs.StatusSubmitted, Method: jobs.MethodForm, Platform: jobs.PlatformLinkedIn}
	if err := s.InsertApplication(ctx, app); err != nil {
		t.Fatalf("seed application: %v", err)
	}
	if err := s.AddEvent(ctx, "a1", "submitted", "done"); err != nil {
		t.Fatalf("seed event: %v", err)
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)
	rec := get(t, srv.Router(), "/health")
	if rec.Code != 200 {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestListJobs(t *testing.T) {
	srv, s := testServer(t)
	seed(t, s)
	h := srv.Router()

	rec := get(t, h, "/api/jobs")
	if rec.Code != 200 {
		t.Fatalf("code = %d, body %s", rec.Code, rec.Body)
	}
	var list []*jobs.Listing
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 || list[0].ID != "j1" {
		t.Errorf("list = %+v", list)
	}

	rec = get(t, h, "/api/jobs?min_score=50")
	var filtered []*jobs.Listing
	if err := json.Unmarshal(rec.Body.Bytes(), &filtered); err != nil {
		t.Fatalf("decode filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "j1" {
		t.Errorf("filtered = %+v", filtered)
	}

	rec = get(t, h, "/api/jobs?platform=linkedin")
	var byPlatform []*jobs.Listing
	if err := json.Unmarshal(rec.Body.Bytes(), &byPlatform); err != nil {
		t.Fatalf("decode by platform: %v", err)
	}
	if len(byPlatform) != 1 {
		t.Errorf("by platform = %+v", byPlatform)
	}
}

func TestListJobsEmptyIsArray(t *testing.T) {
	srv, _ := testServer(t)
	rec := get(t, srv.Router(), "/api/jobs")
	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("empty list body = %q, want JSON array", got)
	}
}

func TestGetJob(t *testing.T) {
	srv, s := testServer(t)
	seed(t, s)
	h := srv.Router()

	rec := get(t, h, "/api/jobs/j1")
	if rec.Code != 200 {
		t.Fatalf("code = %d", rec.Code)
	}
	var job jobs.Listing
	if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if job.Company != "Acme" {
		t.Errorf("job = %+v", job)
	}

	if rec := get(t, h, "/api/jobs/missing"); rec.Code != 404 {
		t.Errorf("missing job code = %d", rec.Code)
	}
}

func TestApplicationsAndEvents(t *testing.T) {
	srv, s := testServer(t)
	seed(t, s)
	h := srv.Router()

	rec := get(t, h, "/api/applications?status=submitted")
	var apps []*jobs.Application
	if err := json.Unmarshal(rec.Body.Bytes(), &apps); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(apps) != 1 || apps[0].ID != "a1" {
		t.Errorf("apps = %+v", apps)
	}

	rec = get(t, h, "/api/applications/a1/events")
	var events []*jobs.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(events) != 1 || events[0].Type != "submitted" {
		t.Errorf("events = %+v", events)
	}

	if rec := get(t, h, "/api/applications/missing/events"); rec.Code != 404 {
		t.Errorf("missing application code = %d", rec.Code)
	}
}

func TestStatusSummary(t *testing.T) {
	srv, s := testServer(t)
	seed(t, s)

	rec := get(t, srv.Router(), "/api/status")
	if rec.Code != 200 {
		t.Fatalf("code = %d", rec.Code)
	}
	var body struct {
		Applications int            `json:"applications"`
		ByStatus     map[string]int `json:"by_status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Applications != 1 || body.ByStatus["submitted"] != 1 {
		t.Errorf("status = %+v", body)
	}
}
