package preview

import (
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"

	"clonewatch/internal/model"
)

// DefaultExportName is the suggested filename for a saved clone.
func DefaultExportName(jobID string) string {
	id := strings.TrimSpace(jobID)
	if id == "" {
		id = "result"
	}
	return "clone-" + id + ".html"
}

// Save writes the raw generated HTML exactly as received from the server.
// The sanitized preview copy is never exported. Returns the path written.
func Save(result model.JobResult, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultExportName(result.JobID)
	}
	if err := os.WriteFile(path, []byte(result.GeneratedHTML), 0o644); err != nil {
		return "", fmt.Errorf("save clone: %w", err)
	}
	return path, nil
}

// Copy places the raw generated HTML on the system clipboard.
func Copy(result model.JobResult) error {
	if err := clipboard.WriteAll(result.GeneratedHTML); err != nil {
		return fmt.Errorf("copy clone to clipboard: %w", err)
	}
	return nil
}
