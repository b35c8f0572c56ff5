package types

// Phase identifies which stage of a test item's lifecycle an outcome
// event belongs to. Only the call phase produces result records.
type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhaseCall     Phase = "call"
	PhaseTeardown Phase = "teardown"
)

// Metadata is the structural contract the external tagging mechanism must
// satisfy for a test item. Each accessor returns the attached values, or nil
// when the item carries no such annotation. A single test item may map to
// several logical case identifiers (parametrization fan-out).
type Metadata interface {
	CaseIDs() []string
	Titles() []string
	SuiteTitles() []string
	Tags() []string
}

// OutcomeEvent is one per-phase execution outcome handed over by the
// test-running framework.
type OutcomeEvent struct {
	Phase           Phase
	Status          ResultStatus
	DurationSeconds float64
	FailureText     string // full failure detail, empty unless the phase failed
	Meta            Metadata
}

// StaticMetadata is a plain-value Metadata implementation, convenient for
// frameworks that resolve annotations ahead of time and for tests.
type StaticMetadata struct {
	CaseIDValues []string
	TitleValues  []string
	SuiteValues  []string
	TagValues    []string
}

var _ Metadata = StaticMetadata{}

func (m StaticMetadata) CaseIDs() []string     { return m.CaseIDValues }
func (m StaticMetadata) Titles() []string      { return m.TitleValues }
func (m StaticMetadata) SuiteTitles() []string { return m.SuiteValues }
func (m StaticMetadata) Tags() []string        { return m.TagValues }
