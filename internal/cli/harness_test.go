package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"

	"clonewatch/internal/cache"
	"clonewatch/internal/model"
)

// fakeBackend is an in-memory stand-in for the cloning service, exposing the
// same routes the real backend does.
type fakeBackend struct {
	mu sync.Mutex

	jobs    map[string]model.Job
	results map[string]model.JobResult

	cloneBodies []map[string]any
	deleted     []string
	statusCalls int

	// advance, when set, mutates the job before each status response.
	advance func(job *model.Job)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		jobs:    map[string]model.Job{},
		results: map[string]model.JobResult{},
	}
}

func (f *fakeBackend) serve(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /clone", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		id := uuid.NewString()
		f.mu.Lock()
		f.cloneBodies = append(f.cloneBodies, body)
		url, _ := body["url"].(string)
		f.jobs[id] = model.Job{ID: id, URL: url, Status: model.StatusPending}
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"job_id": id})
	})
	mux.HandleFunc("GET /status/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		job, ok := f.jobs[r.PathValue("id")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		f.statusCalls++
		if f.advance != nil {
			f.advance(&job)
			f.jobs[job.ID] = job
		}
		_ = json.NewEncoder(w).Encode(job)
	})
	mux.HandleFunc("GET /result/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		res, ok := f.results[r.PathValue("id")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(res)
	})
	mux.HandleFunc("GET /jobs", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		jobs := make([]model.Job, 0, len(f.jobs))
		for _, job := range f.jobs {
			jobs = append(jobs, job)
		}
		_ = json.NewEncoder(w).Encode(jobs)
	})
	mux.HandleFunc("DELETE /jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := r.PathValue("id")
		delete(f.jobs, id)
		f.deleted = append(f.deleted, id)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "deleted"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeBackend) addCompleted(html string) string {
	id := uuid.NewString()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[id] = model.Job{ID: id, URL: "https://example.com", Status: model.StatusCompleted, Progress: 100}
	f.results[id] = model.JobResult{JobID: id, URL: "https://example.com", GeneratedHTML: html}
	return id
}

func TestHarnessCloneFollowsToCompletion(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmp, "xdg"))

	backend := newFakeBackend()
	// pending -> scraping -> completed across successive polls.
	backend.advance = func(job *model.Job) {
		switch job.Status {
		case model.StatusPending:
			job.Status = model.StatusScraping
			job.Progress = 40
		case model.StatusScraping:
			job.Status = model.StatusCompleted
			job.Progress = 100
		}
	}
	srv := backend.serve(t)

	html := "<html><head></head><body style=\"overflow: hidden\">cloned</body></html>"
	// The result is registered lazily: the clone handler assigns the id, so
	// wire the result in once the job exists.
	outPath := filepath.Join(tmp, "clone.html")

	origAdvance := backend.advance
	backend.advance = func(job *model.Job) {
		origAdvance(job)
		if job.Status == model.StatusCompleted {
			backend.results[job.ID] = model.JobResult{JobID: job.ID, URL: job.URL, GeneratedHTML: html}
		}
	}

	err := Run([]string{"clone", "--url", "example.com", "--api", srv.URL, "--interval", "10ms", "--out", outPath})
	if err != nil {
		t.Fatalf("clone failed: %v", err)
	}

	if len(backend.cloneBodies) != 1 {
		t.Fatalf("expected one submission, got %d", len(backend.cloneBodies))
	}
	body := backend.cloneBodies[0]
	if body["url"] != "https://example.com" {
		t.Fatalf("submitted URL not normalized: %v", body["url"])
	}
	for _, key := range []string{"include_screenshots", "include_dom", "include_styles"} {
		if v, ok := body[key].(bool); !ok || !v {
			t.Fatalf("expected %s=true in submission, got %v", key, body[key])
		}
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("exported file missing: %v", err)
	}
	if string(got) != html {
		t.Fatalf("export must be the raw generated HTML, got %q", got)
	}

	// A successful follow refreshes the offline history cache.
	path, err := cache.DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	h, err := cache.Load(path)
	if err != nil {
		t.Fatalf("history cache not written: %v", err)
	}
	if len(h.Jobs) != 1 {
		t.Fatalf("expected 1 cached job, got %d", len(h.Jobs))
	}
}

func TestHarnessCloneNoFollowSubmitsOnly(t *testing.T) {
	backend := newFakeBackend()
	srv := backend.serve(t)

	err := Run([]string{"clone", "--url", "https://example.com/page", "--no-follow", "--api", srv.URL, "--json"})
	if err != nil {
		t.Fatalf("clone --no-follow failed: %v", err)
	}
	if len(backend.cloneBodies) != 1 {
		t.Fatalf("expected one submission, got %d", len(backend.cloneBodies))
	}
	if backend.statusCalls != 0 {
		t.Fatalf("no-follow must not poll, saw %d status calls", backend.statusCalls)
	}
}

func TestHarnessResultSavesRawHTML(t *testing.T) {
	backend := newFakeBackend()
	srv := backend.serve(t)

	hostile := "<html><body style=\"position:fixed\"><script>window.scrollTo(0,0)</script></body></html>"
	id := backend.addCompleted(hostile)

	outPath := filepath.Join(t.TempDir(), "out.html")
	if err := Run([]string{"result", "--job", id, "--api", srv.URL, "--out", outPath}); err != nil {
		t.Fatalf("result failed: %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != hostile {
		t.Fatalf("saved HTML altered: got %q want %q", got, hostile)
	}
}

func TestHarnessDeleteHitsServer(t *testing.T) {
	backend := newFakeBackend()
	srv := backend.serve(t)
	id := backend.addCompleted("<html></html>")

	if err := Run([]string{"delete", "--job", id, "--yes", "--api", srv.URL}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(backend.deleted) != 1 || backend.deleted[0] != id {
		t.Fatalf("server did not record deletion: %v", backend.deleted)
	}
	if _, ok := backend.jobs[id]; ok {
		t.Fatal("job still present after delete")
	}
}

func TestHarnessJobsCachedWorksOffline(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmp, "xdg"))

	backend := newFakeBackend()
	srv := backend.serve(t)
	backend.addCompleted("<html></html>")

	if err := Run([]string{"jobs", "--api", srv.URL}); err != nil {
		t.Fatalf("jobs online failed: %v", err)
	}
	srv.Close()

	if err := Run([]string{"jobs", "--cached"}); err != nil {
		t.Fatalf("jobs --cached failed with backend down: %v", err)
	}
}

func TestHarnessUnknownCommand(t *testing.T) {
	if err := Run([]string{"frobnicate"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
