package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"clonewatch/internal/model"
)

const (
	// DefaultBaseURL matches the backend's local development address.
	DefaultBaseURL = "http://localhost:8000"

	// EnvBaseURL overrides the default backend address.
	EnvBaseURL = "CLONEWATCH_API_URL"

	defaultTimeout = 30 * time.Second
	userAgent      = "clonewatch"
)

// BaseURLFromEnv resolves the backend address from the environment, falling
// back to the local default.
func BaseURLFromEnv() string {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		return v
	}
	return DefaultBaseURL
}

// Client talks to the website-cloning backend.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// CloneOptions selects what the backend captures while scraping.
type CloneOptions struct {
	IncludeScreenshots bool `json:"include_screenshots"`
	IncludeDOM         bool `json:"include_dom"`
	IncludeStyles      bool `json:"include_styles"`
}

func DefaultCloneOptions() CloneOptions {
	return CloneOptions{
		IncludeScreenshots: true,
		IncludeDOM:         true,
		IncludeStyles:      true,
	}
}

type createJobRequest struct {
	URL                string `json:"url"`
	IncludeScreenshots bool   `json:"include_screenshots"`
	IncludeDOM         bool   `json:"include_dom"`
	IncludeStyles      bool   `json:"include_styles"`
}

type createJobResponse struct {
	JobID string `json:"job_id"`
}

// CreateJob validates and normalizes rawURL, submits a clone job, and
// returns the server-assigned job id. Returns *ValidationError without
// touching the network for malformed input, *SubmissionError otherwise.
func (c *Client) CreateJob(ctx context.Context, rawURL string, opts CloneOptions) (string, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(createJobRequest{
		URL:                normalized,
		IncludeScreenshots: opts.IncludeScreenshots,
		IncludeDOM:         opts.IncludeDOM,
		IncludeStyles:      opts.IncludeStyles,
	})
	if err != nil {
		return "", &SubmissionError{URL: normalized, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/clone", bytes.NewReader(payload))
	if err != nil {
		return "", &SubmissionError{URL: normalized, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &SubmissionError{URL: normalized, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &SubmissionError{URL: normalized, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var created createJobResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", &SubmissionError{URL: normalized, Err: err}
	}
	if strings.TrimSpace(created.JobID) == "" {
		return "", &SubmissionError{URL: normalized, Err: fmt.Errorf("server returned no job id")}
	}
	return created.JobID, nil
}

// JobStatus fetches the latest snapshot for one job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (model.Job, error) {
	var job model.Job
	err := c.getJSON(ctx, "poll status", "/status/"+jobID, &job)
	return job, err
}

// FetchResult retrieves the artifact of a completed job.
func (c *Client) FetchResult(ctx context.Context, jobID string) (model.JobResult, error) {
	var res model.JobResult
	err := c.getJSON(ctx, "fetch result", "/result/"+jobID, &res)
	return res, err
}

// ListJobs fetches the server-side job history, newest first.
func (c *Client) ListJobs(ctx context.Context) ([]model.Job, error) {
	var jobs []model.Job
	if err := c.getJSON(ctx, "list jobs", "/jobs", &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// DeleteJob removes a job from the server-side history.
func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/jobs/"+jobID, nil)
	if err != nil {
		return &TransientError{Op: "delete job", Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransientError{Op: "delete job", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransientError{Op: "delete job", StatusCode: resp.StatusCode}
	}
	return nil
}

// PreviewURL is the server-rendered preview page for a job. Opened directly
// in a browser; it bypasses the local sanitizer.
func (c *Client) PreviewURL(jobID string) string {
	return c.baseURL + "/result/" + jobID + "/preview"
}

// Ping checks that the backend answers at all. Used by the doctor command.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return &TransientError{Op: "ping", Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransientError{Op: "ping", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransientError{Op: "ping", StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &TransientError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransientError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransientError{Op: op, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransientError{Op: op, Err: err}
	}
	return nil
}
