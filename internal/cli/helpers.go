package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"clonewatch/internal/model"
)

func kv(k, v string) string {
	return fmt.Sprintf("%s: %s", k, v)
}

func listWindow(total, cursor, maxRows int) (int, int) {
	if total <= maxRows {
		return 0, total
	}
	half := maxRows / 2
	start := cursor - half
	if start < 0 {
		start = 0
	}
	end := start + maxRows
	if end > total {
		end = total
		start = end - maxRows
	}
	return start, end
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}

func wrapOrTrim(s string, width int) string {
	if width <= 0 {
		return s
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	return truncateRunes(s, width)
}

func clampInt(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func defaultIfEmpty(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// statusLine formats one job for list output: icon, label, progress, url,
// and a truncated failure message when present.
func statusLine(job model.Job) string {
	p := model.PresentStatus(job.Status)
	line := fmt.Sprintf("%s %-10s %3d%%  %s", p.Icon, p.Label, job.Progress, job.URL)
	if job.Status == model.StatusFailed && strings.TrimSpace(job.ErrorMessage) != "" {
		line += "  (" + job.ShortError(48) + ")"
	}
	return line
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "unknown"
	}
	return d.Round(100 * time.Millisecond).String()
}
