package merger

import (
	"github.com/qa-platform/metrics-reporter/types"
)

// ResultMerger reconciles duplicate case identifiers in a combined record
// set. A case may appear several times when it ran on more than one worker
// or was re-executed within a run.
type ResultMerger struct{}

// NewResultMerger creates a new result merger.
func NewResultMerger() *ResultMerger {
	return &ResultMerger{}
}

// Reconcile returns one record per distinct case id, preserving the order
// in which each case id first appeared. The winning record per case id is
// the last one seen, except that a passed record is sticky: once a case has
// a passed result, later non-passed duplicates do not displace it, while a
// later passed result always wins. Reconcile is a pure function of its
// input.
func (m *ResultMerger) Reconcile(records []types.ResultRecord) []types.ResultRecord {
	slots := make(map[string]int, len(records))
	reconciled := make([]types.ResultRecord, 0, len(records))

	for _, record := range records {
		idx, seen := slots[record.CaseID]
		if !seen {
			slots[record.CaseID] = len(reconciled)
			reconciled = append(reconciled, record)
			continue
		}
		if record.Status == types.StatusPassed || reconciled[idx].Status != types.StatusPassed {
			reconciled[idx] = record
		}
	}
	return reconciled
}
