package store

import (
	"context"
	"errors"
	"sync"

	"fjacquet/ledger-import/internal/importerror"
	"fjacquet/ledger-import/internal/models"
)

// MemoryStore is an in-memory Store for tests. FailCommit forces the next
// commit to fail without persisting anything, for exercising the
// all-or-nothing contract.
type MemoryStore struct {
	mu         sync.Mutex
	Entries    []ExistingTransaction
	FailCommit bool

	// CommitCalls counts mutation-capability invocations; dry-run tests
	// assert it stays at zero.
	CommitCalls int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Seed adds an existing ledger entry.
func (m *MemoryStore) Seed(e ExistingTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, e)
}

// LookupByFingerprint implements Store.
func (m *MemoryStore) LookupByFingerprint(ctx context.Context, accountID, date string, amountMinor int64) ([]ExistingTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var matches []ExistingTransaction
	for _, e := range m.Entries {
		if e.AccountID == accountID && e.Date == date && e.AmountMinor == amountMinor {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

// LookupByExternalRef implements Store.
func (m *MemoryStore) LookupByExternalRef(ctx context.Context, accountID, ref string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.Entries {
		if e.AccountID == accountID && e.ExternalRef != "" && e.ExternalRef == ref {
			return e.ID, true, nil
		}
	}
	return "", false, nil
}

// CommitTransactions implements Store.
func (m *MemoryStore) CommitTransactions(ctx context.Context, batchID string, txs []models.Transaction) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CommitCalls++
	if m.FailCommit {
		return 0, &importerror.StoreError{Op: "commit", Err: errors.New("forced commit failure")}
	}
	if err := ctx.Err(); err != nil {
		return 0, &importerror.StoreError{Op: "commit", Err: err}
	}

	for _, tx := range txs {
		m.Entries = append(m.Entries, ExistingTransaction{
			ID:          tx.ID,
			AccountID:   tx.AccountID,
			Date:        tx.Date,
			AmountMinor: tx.AmountMinor,
			Description: tx.Description,
			ExternalRef: tx.ExternalRef,
		})
	}
	return len(txs), nil
}
