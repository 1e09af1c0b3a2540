// Package classifier provides optional AI-based category suggestions for
// committed transactions. Classification runs post-commit only and its
// failure is reported, never fatal to an import.
package classifier

import (
	"context"

	"fjacquet/ledger-import/internal/models"
)

// Classification is one category suggestion for a committed transaction.
type Classification struct {
	TransactionID string
	Category      string
	Confidence    float64
}

// Classifier suggests categories for a batch of committed transactions.
type Classifier interface {
	Classify(ctx context.Context, txs []models.Transaction) ([]Classification, error)
}
