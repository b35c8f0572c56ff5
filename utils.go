package reporter

import (
	"fmt"

	"github.com/qa-platform/metrics-reporter/types"
)

// getResultString returns a marked string representing the case outcome
func getResultString(status types.ResultStatus) string {
	switch status {
	case types.StatusPassed:
		return "✓ passed"
	case types.StatusSkipped:
		return "- skipped"
	case types.StatusError:
		return "! error"
	default:
		return "✗ failed"
	}
}

// formatDuration renders a millisecond duration for the summary table.
func formatDuration(ms int64) string {
	if ms >= 1000 {
		return fmt.Sprintf("%.2fs", float64(ms)/1000)
	}
	return fmt.Sprintf("%dms", ms)
}
