// Package cache persists the last successfully fetched job history so the
// jobs command can answer offline. The server stays the source of truth;
// this file is only ever overwritten wholesale after a successful fetch.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clonewatch/internal/model"
)

type History struct {
	FetchedAt string      `json:"fetched_at"`
	BaseURL   string      `json:"base_url"`
	Jobs      []model.Job `json:"jobs"`
}

// DefaultPath is the per-user cache location.
func DefaultPath() (string, error) {
	cacheRoot, err := os.UserCacheDir()
	if err != nil || strings.TrimSpace(cacheRoot) == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return "", homeErr
		}
		cacheRoot = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheRoot, "clonewatch", "history.json"), nil
}

func Load(path string) (History, error) {
	var h History
	data, err := os.ReadFile(path)
	if err != nil {
		return h, err
	}
	if err := json.Unmarshal(data, &h); err != nil {
		return History{}, fmt.Errorf("parse history cache %s: %w", path, err)
	}
	return h, nil
}

// Save writes atomically via a temp file so a crash never leaves a truncated
// cache behind.
func Save(path string, baseURL string, jobs []model.Job) error {
	h := History{
		FetchedAt: time.Now().UTC().Format(time.RFC3339),
		BaseURL:   baseURL,
		Jobs:      jobs,
	}
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir for %s: %w", path, err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write history cache: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace history cache: %w", err)
	}
	return nil
}
