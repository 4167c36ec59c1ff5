package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Timestamp accepts both RFC 3339 and the zone-less ISO form the backend
// emits for UTC datetimes.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// Job is the progress snapshot of one remote cloning task, as reported by
// the status endpoint. The server owns every field; the client only renders
// the latest snapshot and never assumes the status advanced monotonically.
type Job struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Status       string    `json:"status"`
	Progress     int       `json:"progress"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    Timestamp `json:"created_at"`
	UpdatedAt    Timestamp `json:"updated_at"`
}

// ShortError is the failure message trimmed for compact list display.
func (j Job) ShortError(max int) string {
	msg := strings.TrimSpace(j.ErrorMessage)
	if max <= 0 {
		return ""
	}
	r := []rune(msg)
	if len(r) <= max {
		return msg
	}
	if max == 1 {
		return string(r[:1])
	}
	return string(r[:max-1]) + "…"
}

// ScrapedData is auxiliary metadata captured while scraping the source site.
// Informational only; a result is complete without it.
type ScrapedData struct {
	URL          string   `json:"url,omitempty"`
	Title        string   `json:"title,omitempty"`
	ColorPalette []string `json:"color_palette,omitempty"`
	Fonts        []string `json:"fonts,omitempty"`
	TextContent  string   `json:"text_content,omitempty"`
}

// JobResult is the artifact of a completed job. GeneratedHTML is untrusted
// third-party markup: only sanitized copies are rendered, and export paths
// must ship it byte for byte as received.
type JobResult struct {
	JobID         string       `json:"job_id"`
	URL           string       `json:"url"`
	GeneratedHTML string       `json:"generated_html"`
	ScrapedData   *ScrapedData `json:"scraped_data,omitempty"`
	CreatedAt     Timestamp    `json:"created_at"`
	CompletedAt   Timestamp    `json:"completed_at"`
}

// ProcessingDuration is the server-side time from submission to completion.
func (r JobResult) ProcessingDuration() time.Duration {
	if r.CreatedAt.IsZero() || r.CompletedAt.IsZero() {
		return 0
	}
	d := r.CompletedAt.Sub(r.CreatedAt.Time)
	if d < 0 {
		return 0
	}
	return d
}
