// Package store defines the persistence boundary the import pipeline
// consumes and provides a YAML-file-backed implementation of it. The pipeline
// only ever looks up existing entries and commits new ones; it never edits or
// removes what is already in the ledger.
package store

import (
	"context"

	"fjacquet/ledger-import/internal/models"
)

// ExistingTransaction is the summary of a ledger entry returned by lookups.
type ExistingTransaction struct {
	ID          string
	AccountID   string
	Date        string
	AmountMinor int64
	Description string
	ExternalRef string
}

// Store is the capability the deduplicator and orchestrator consume.
// CommitTransactions is all-or-nothing per call: it either persists every
// transaction or returns a failure having persisted none.
type Store interface {
	// LookupByFingerprint returns existing entries matching account, posted
	// date and amount. The caller narrows by description prefix.
	LookupByFingerprint(ctx context.Context, accountID, date string, amountMinor int64) ([]ExistingTransaction, error)

	// LookupByExternalRef returns the id of the existing entry carrying the
	// vendor reference, when one exists.
	LookupByExternalRef(ctx context.Context, accountID, ref string) (string, bool, error)

	// CommitTransactions persists the batch's surviving transactions as one
	// unit and returns the committed count.
	CommitTransactions(ctx context.Context, batchID string, txs []models.Transaction) (int, error)
}
