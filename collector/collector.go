package collector

import (
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"github.com/qa-platform/metrics-reporter/types"
)

var _ ResultCollector = (*resultCollector)(nil)

// ResultCollector accumulates result records for one worker process while
// the test framework executes its shard of the suite.
type ResultCollector interface {
	// Record consumes one outcome event. Events whose phase is not "call"
	// are ignored; a call-phase event expands into one record per attached
	// case identifier.
	Record(event types.OutcomeEvent)

	// Results returns the records collected so far, in arrival order.
	Results() []types.ResultRecord
}

// resultCollector implements ResultCollector. It is single-threaded by
// contract: the framework delivers outcome events synchronously.
type resultCollector struct {
	runID    string
	platform string
	log      log.Logger
	results  []types.ResultRecord
}

// Config holds the run-scoped labels stamped onto every collected record.
type Config struct {
	RunID    string
	Platform string
	Log      log.Logger
}

// NewResultCollector creates a collector for one worker process.
func NewResultCollector(cfg Config) ResultCollector {
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	return &resultCollector{
		runID:    cfg.RunID,
		platform: cfg.Platform,
		log:      cfg.Log,
	}
}

func (c *resultCollector) Record(event types.OutcomeEvent) {
	if event.Phase != types.PhaseCall {
		return
	}

	meta := event.Meta
	if meta == nil {
		meta = types.StaticMetadata{}
	}
	caseIDs := orSentinel(meta.CaseIDs(), types.UnknownCaseID)
	titles := orSentinel(meta.Titles(), types.UnknownCaseTitle)
	suites := orSentinel(meta.SuiteTitles(), types.UnknownSuiteTitle)

	// Truncate to whole milliseconds.
	duration := int64(event.DurationSeconds * 1000)

	var errorMessage, stacktrace string
	if event.Status == types.StatusFailed {
		errorMessage = lastLine(event.FailureText)
		stacktrace = event.FailureText
	}

	// A test item may declare several logical case identifiers. Expand one
	// record per index across the longest list; shorter lists pad by
	// repeating their last element.
	n := max(len(caseIDs), len(titles), len(suites))
	for i := 0; i < n; i++ {
		c.results = append(c.results, types.ResultRecord{
			RunID:       c.runID,
			CaseID:      at(caseIDs, i),
			Title:       at(titles, i),
			SuiteTitle:  at(suites, i),
			Status:      event.Status,
			TimeSpentMS: duration,
			Error:       errorMessage,
			Stacktrace:  stacktrace,
			Tags:        meta.Tags(),
			Platform:    c.platform,
		})
	}
	c.log.Debug("collected test outcome",
		"status", event.Status,
		"records", n,
		"duration_ms", duration)
}

func (c *resultCollector) Results() []types.ResultRecord {
	return c.results
}

// orSentinel substitutes a single-element sentinel list for absent metadata.
func orSentinel(values []string, sentinel string) []string {
	if len(values) == 0 {
		return []string{sentinel}
	}
	return values
}

// at indexes into values, repeating the last element past the end.
func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return values[len(values)-1]
}

// lastLine returns the final non-empty line of the failure text.
func lastLine(text string) string {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return lines[i]
		}
	}
	return ""
}
