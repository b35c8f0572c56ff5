package encoder

import (
	"fmt"
	"strings"

	"github.com/acarl005/stripansi"

	"github.com/qa-platform/metrics-reporter/types"
)

// Metric names in the exposition payload.
const (
	MetricDuration = "test_case_duration_ms"
	MetricStatus   = "test_case_status"
	MetricFailures = "test_case_failures"
)

// noneLabel stands in for absent label values so every line carries the
// full label set.
const noneLabel = "None"

// MetricsEncoder renders a reconciled record set into the Prometheus text
// exposition format, one push payload per call.
type MetricsEncoder struct{}

// NewMetricsEncoder creates a new metrics encoder.
func NewMetricsEncoder() *MetricsEncoder {
	return &MetricsEncoder{}
}

// Encode renders up to three lines per record: the duration gauge and the
// status gauge are always emitted, the failure counter only for failed
// records. Every line shares the given epoch-seconds timestamp; pushDate
// (epoch milliseconds) is embedded as a label, not as the metric timestamp.
//
// The status gauge is binary: 0 for failed, 1 for anything else. Skipped
// and errored cases therefore encode the same as passed ones; dashboards
// must read the status label for the distinction.
//
// Encode is deterministic for fixed timestamp and pushDate arguments.
func (e *MetricsEncoder) Encode(records []types.ResultRecord, timestamp int64, pushDate int64) string {
	lines := make([]string, 0, 2*len(records))

	for _, record := range records {
		labels := formatLabels(record, pushDate)

		lines = append(lines,
			fmt.Sprintf("%s{%s} %d %d", MetricDuration, labels, record.TimeSpentMS, timestamp))

		statusValue := "1"
		if record.IsFailed() {
			statusValue = "0"
		}
		lines = append(lines,
			fmt.Sprintf("%s{%s} %s %d", MetricStatus, labels, statusValue, timestamp))

		if record.IsFailed() {
			failureLabels := fmt.Sprintf("%s, error_message=\"%s\"", labels, escapeLabel(orNone(record.Error)))
			lines = append(lines,
				fmt.Sprintf("%s{%s} 1 %d", MetricFailures, failureLabels, timestamp))
		}
	}
	return strings.Join(lines, "\n")
}

// formatLabels renders the fixed label set shared by all of a record's lines.
func formatLabels(record types.ResultRecord, pushDate int64) string {
	return fmt.Sprintf(
		`run_id="%s", suite_title="%s", status="%s", push_date="%d", title="%s", tags="%s", platform="%s", case_id="%s"`,
		escapeLabel(orNone(record.RunID)),
		escapeLabel(record.SuiteTitle),
		escapeLabel(string(record.Status)),
		pushDate,
		escapeLabel(record.Title),
		escapeLabel(formatTags(record.Tags)),
		escapeLabel(orNone(record.Platform)),
		escapeLabel(record.CaseID),
	)
}

func formatTags(tags []string) string {
	if len(tags) == 0 {
		return noneLabel
	}
	return strings.Join(tags, ",")
}

func orNone(value string) string {
	if value == "" {
		return noneLabel
	}
	return value
}

// escapeReplacer covers the characters the text exposition format requires
// escaping inside quoted label values.
var escapeReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// escapeLabel makes a metadata value safe to interpolate into a quoted
// label literal. ANSI escapes are stripped first since failure text from
// terminal-oriented frameworks tends to carry them.
func escapeLabel(value string) string {
	return escapeReplacer.Replace(stripansi.Strip(value))
}
