package types

// ResultStatus represents the possible outcomes of a test execution
type ResultStatus string

const (
	StatusPassed  ResultStatus = "passed"
	StatusFailed  ResultStatus = "failed"
	StatusSkipped ResultStatus = "skipped"
	StatusError   ResultStatus = "error"
)

// Sentinel values substituted when the tagging mechanism did not attach
// the corresponding metadata to a test item.
const (
	UnknownCaseID     = "UNKNOWN CASE ID"
	UnknownCaseTitle  = "UNKNOWN TESTCASE TITLE"
	UnknownSuiteTitle = "UNKNOWN SUITE TITLE"
)

// ResultRecord captures the final outcome of one logical test case.
// The JSON field names are the wire format of the partial-store artifacts
// and the local fallback artifact; changing them breaks merge compatibility
// with artifacts produced by older workers.
type ResultRecord struct {
	RunID       string       `json:"run_id"`
	CaseID      string       `json:"case_id"`
	Title       string       `json:"title"`
	SuiteTitle  string       `json:"suite_title"`
	Status      ResultStatus `json:"status"`
	TimeSpentMS int64        `json:"time_spent_ms"`
	Error       string       `json:"error"`
	Stacktrace  string       `json:"stacktrace"`
	Tags        []string     `json:"tags"`
	Platform    string       `json:"platform"`
}

// IsFailed reports whether the record represents a failed execution.
func (r ResultRecord) IsFailed() bool {
	return r.Status == StatusFailed
}
