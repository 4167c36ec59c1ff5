package model

const (
	StatusPending    = "pending"
	StatusScraping   = "scraping"
	StatusProcessing = "processing"
	StatusGenerating = "generating"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// progression is the intended order of active statuses. The server may
// regress a job, so callers render the latest reported value instead of
// enforcing this order.
var progression = []string{
	StatusPending,
	StatusScraping,
	StatusProcessing,
	StatusGenerating,
}

// IsTerminal reports whether no further status changes are expected.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// StageIndex returns the zero-based position of an active status in the
// intended progression, or -1 for terminal and unknown statuses.
func StageIndex(status string) int {
	for i, s := range progression {
		if s == status {
			return i
		}
	}
	return -1
}

func StageCount() int {
	return len(progression)
}

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityActive
	SeverityOK
	SeverityError
)

// Presentation is the display record for one status value.
type Presentation struct {
	Label       string
	Description string
	Icon        string
	Severity    Severity
}

var presentations = map[string]Presentation{
	StatusPending: {
		Label:       "Pending",
		Description: "waiting for a worker to pick the job up",
		Icon:        "·",
		Severity:    SeverityInfo,
	},
	StatusScraping: {
		Label:       "Scraping",
		Description: "capturing the source website",
		Icon:        "⇣",
		Severity:    SeverityActive,
	},
	StatusProcessing: {
		Label:       "Processing",
		Description: "analyzing the captured design",
		Icon:        "≋",
		Severity:    SeverityActive,
	},
	StatusGenerating: {
		Label:       "Generating",
		Description: "writing the cloned HTML",
		Icon:        "✎",
		Severity:    SeverityActive,
	},
	StatusCompleted: {
		Label:       "Completed",
		Description: "clone is ready",
		Icon:        "✓",
		Severity:    SeverityOK,
	},
	StatusFailed: {
		Label:       "Failed",
		Description: "the job did not finish",
		Icon:        "✗",
		Severity:    SeverityError,
	},
}

var unknownPresentation = Presentation{
	Label:       "Unknown",
	Description: "unrecognized status reported by the server",
	Icon:        "?",
	Severity:    SeverityInfo,
}

// PresentStatus maps any status value to its display record. Total and pure:
// unrecognized values get the fallback record, never an error.
func PresentStatus(status string) Presentation {
	if p, ok := presentations[status]; ok {
		return p
	}
	return unknownPresentation
}
