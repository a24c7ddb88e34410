package html

import (
	"github.com/a-h/templ"

	"pickstation/models"
)

// StatusBadge returns the badge class and label of a line status.
func StatusBadge(status string) (class, text string) {
	switch status {
	case models.StatusPending:
		return "bg-light text-dark", "Pending"
	case models.StatusPartial:
		return "bg-warning text-dark", "Partial"
	case models.StatusOverStock:
		return "bg-danger", "Over Stock"
	case models.StatusCompleted:
		return "bg-success", "Completed"
	default:
		return "bg-secondary", templ.EscapeString(status)
	}
}

// OutcomeBadge returns the badge class and label of a history outcome.
func OutcomeBadge(outcome string) (class, text string) {
	switch outcome {
	case models.OutcomeCompleted:
		return "bg-success", "Completed"
	case models.OutcomeSuccess:
		return "bg-primary", "OK"
	case models.OutcomeOverscan:
		return "bg-warning text-dark", "Over Scan"
	default:
		return "bg-danger", "Error"
	}
}
