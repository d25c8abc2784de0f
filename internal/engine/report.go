package engine

import "time"

// Outcome is the run-level terminal result.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomePartial Outcome = "PARTIAL_SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
)

// TableState is the per-table state machine position.
type TableState string

const (
	StateNotStarted   TableState = "NOT_STARTED"
	StateTruncating   TableState = "TRUNCATING"
	StateTransferring TableState = "TRANSFERRING"
	StateSalvaging    TableState = "SALVAGING_ROW"
	StateCompleted    TableState = "COMPLETED"
	StateFailed       TableState = "FAILED"
)

// RowFailure records one row that could not be migrated, with enough of the
// original data for manual reinsertion.
type RowFailure struct {
	Table  string   `json:"table"`
	Row    int64    `json:"row"` // 1-based position in source read order
	Values []string `json:"values"`
	Err    string   `json:"error"`
}

// TableReport holds the final counts for one table. Written exactly once,
// when the table reaches a terminal state.
type TableReport struct {
	Table     string
	State     TableState
	Attempted int64
	Succeeded int64
	Failed    int64
	Elapsed   time.Duration
	Err       string
}

// Report aggregates the whole run. It is threaded through the orchestrator
// and returned to the caller, never stored as ambient state.
type Report struct {
	RunID     string
	StartedAt time.Time
	Elapsed   time.Duration
	Tables    []TableReport
	Failures  []RowFailure
	Outcome   Outcome
}

func (r *Report) addTable(tr TableReport, failures []RowFailure) {
	r.Tables = append(r.Tables, tr)
	r.Failures = append(r.Failures, failures...)
}

// finalize derives the terminal outcome. Fatal errors force FAILURE; a run
// that finished with any failed table or logged row is PARTIAL_SUCCESS.
func (r *Report) finalize(fatal error) {
	r.Elapsed = time.Since(r.StartedAt)
	if fatal != nil {
		r.Outcome = OutcomeFailure
		return
	}
	for _, tr := range r.Tables {
		if tr.State != StateCompleted || tr.Failed > 0 {
			r.Outcome = OutcomePartial
			return
		}
	}
	if len(r.Failures) > 0 {
		r.Outcome = OutcomePartial
		return
	}
	r.Outcome = OutcomeSuccess
}

// FailuresFor filters the run's failures down to one table.
func (r *Report) FailuresFor(table string) []RowFailure {
	var out []RowFailure
	for _, f := range r.Failures {
		if f.Table == table {
			out = append(out, f)
		}
	}
	return out
}
