package models

import "time"

// BatchStatus is the state of an import batch in its lifecycle.
type BatchStatus string

const (
	StatusCreated        BatchStatus = "Created"
	StatusParsing        BatchStatus = "Parsing"
	StatusNormalizing    BatchStatus = "Normalizing"
	StatusDeduplicating  BatchStatus = "Deduplicating"
	StatusCommitting     BatchStatus = "Committing"
	StatusCommitted      BatchStatus = "Committed"
	StatusDryRunComplete BatchStatus = "DryRunComplete"
	StatusFailed         BatchStatus = "Failed"
)

// IsTerminal reports whether the batch has reached a final state.
// A terminal batch is immutable.
func (s BatchStatus) IsTerminal() bool {
	return s == StatusCommitted || s == StatusDryRunComplete || s == StatusFailed
}

// BatchCounters accumulates per-stage outcomes. Merging per-record outcomes
// into these counters is commutative, so the parallel normalization stage may
// complete records in any order.
type BatchCounters struct {
	Parsed     int `csv:"Parsed"`
	Normalized int `csv:"Normalized"`
	Duplicates int `csv:"Duplicates"`
	Skipped    int `csv:"Skipped"`
	Committed  int `csv:"Committed"`
	Errors     int `csv:"Errors"`
}

// ImportBatch is one import invocation over one source file. It is created
// by the orchestrator, mutated only by it through the pipeline stages, and
// becomes immutable once terminal.
type ImportBatch struct {
	ID         string
	TemplateID string
	AccountID  string
	// SourceHash is the SHA-256 of the source file bytes, identifying the
	// exact input that produced this batch.
	SourceHash string
	CreatedAt  time.Time
	Status     BatchStatus
	Counters   BatchCounters
}
