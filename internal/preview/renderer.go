package preview

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"clonewatch/internal/model"
)

// Renderer owns the local preview surface for one result at a time. Every
// page write goes to a file named by the current render key, and Refresh
// bumps the key, so a stale page can never be re-opened after a refresh.
type Renderer struct {
	mu     sync.Mutex
	result model.JobResult
	dir    string
	key    int
}

func NewRenderer(result model.JobResult) *Renderer {
	return &Renderer{result: result, dir: os.TempDir(), key: 1}
}

// SetResult supersedes the displayed result. The key keeps increasing so the
// new result never reuses an old page file.
func (r *Renderer) SetResult(result model.JobResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result = result
	r.key++
}

// Refresh invalidates the current page; the next WritePage produces a fresh
// file. Returns the new key.
func (r *Renderer) Refresh() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.key++
	return r.key
}

func (r *Renderer) Key() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.key
}

// WritePage writes the sanitized copy of the result to the page file for the
// current render key and returns its path.
func (r *Renderer) WritePage() (string, error) {
	r.mu.Lock()
	result := r.result
	path := r.pagePath()
	r.mu.Unlock()

	sanitized := Sanitize(result.GeneratedHTML)
	if err := os.WriteFile(path, []byte(sanitized), 0o644); err != nil {
		return "", fmt.Errorf("write preview page: %w", err)
	}
	return path, nil
}

// Open writes the current page and launches it in the system browser.
func (r *Renderer) Open() error {
	path, err := r.WritePage()
	if err != nil {
		return err
	}
	return OpenInBrowser(path)
}

func (r *Renderer) pagePath() string {
	id := strings.TrimSpace(r.result.JobID)
	if id == "" {
		id = "result"
	}
	return filepath.Join(r.dir, fmt.Sprintf("clonewatch-preview-%s-%d.html", id, r.key))
}
