package quality

import (
	"time"

	"github.com/google/uuid"

	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
)

// Status is the outcome of one check on one column. A check moves NotRun →
// Running → one of the terminal states; terminal states are final for the
// run, and re-running produces a fresh RunReport rather than mutating an
// old one.
type Status string

const (
	StatusNotRun        Status = "not_run"
	StatusRunning       Status = "running"
	StatusPass          Status = "pass"
	StatusFail          Status = "fail"
	StatusIndeterminate Status = "indeterminate"
)

// Terminal reports whether the status is a final verdict.
func (s Status) Terminal() bool {
	return s == StatusPass || s == StatusFail || s == StatusIndeterminate
}

// CheckResult is the verdict for one (column, check) pair.
//
// ViolationPercentage is nil when the table has no rows. Sample is populated
// only for failed checks, holds at most the executor's sample limit, and its
// size never affects the verdict. Err carries a sanitized message for
// indeterminate checks, and for failed checks whose sample fetch broke after
// the count verdict was already in.
type CheckResult struct {
	Column              string               `json:"column"`
	CheckID             dialect.CheckID      `json:"check_id"`
	CheckName           string               `json:"check_name,omitempty"`
	Status              Status               `json:"status"`
	ViolationCount      int64                `json:"violation_count"`
	ViolationPercentage *float64             `json:"violation_percentage,omitempty"`
	Sample              *connector.ResultSet `json:"sample,omitempty"`
	Err                 string               `json:"error,omitempty"`
}

// RunReport is one independent snapshot of a check run against one table.
type RunReport struct {
	RunID     uuid.UUID     `json:"run_id"`
	Kind      dialect.Kind  `json:"backend"`
	Schema    string        `json:"schema"`
	Table     string        `json:"table"`
	TotalRows int64         `json:"total_rows"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Results   []CheckResult `json:"results"`
}

// Counts returns how many results ended in each terminal state.
func (r *RunReport) Counts() (passed, failed, indeterminate int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		case StatusIndeterminate:
			indeterminate++
		}
	}
	return passed, failed, indeterminate
}

// HasFailures reports whether any check failed.
func (r *RunReport) HasFailures() bool {
	_, failed, _ := r.Counts()
	return failed > 0
}

// percentage converts a violation count into a percentage of total rows,
// nil when the table is empty. Shared across backends so every report
// computes the figure the same way.
func percentage(count, total int64) *float64 {
	if total == 0 {
		return nil
	}
	pct := float64(count) / float64(total) * 100
	return &pct
}

// trimSample enforces the sample bound client-side. The sample queries
// already carry a row limit; this keeps the invariant even if a backend
// ignores it.
func trimSample(rs *connector.ResultSet, limit int) *connector.ResultSet {
	if rs == nil || limit <= 0 || len(rs.Rows) <= limit {
		return rs
	}
	rs.Rows = rs.Rows[:limit]
	rs.RowCount = limit
	return rs
}
