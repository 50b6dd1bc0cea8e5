package planner

import (
	"strings"

	"project-planner/backend/internal/models"
)

// MapStatus folds a free-text status phrase from the model onto the task
// status enumeration. Anything unrecognised is PENDING.
func MapStatus(phrase string) models.TaskStatus {
	lower := strings.ToLower(phrase)
	switch {
	case strings.Contains(lower, "progress"):
		return models.StatusInProgress
	case strings.Contains(lower, "done"), strings.Contains(lower, "complete"):
		return models.StatusDone
	default:
		return models.StatusPending
	}
}
