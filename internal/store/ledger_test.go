package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/ledger-import/internal/logging"
	"fjacquet/ledger-import/internal/models"
)

func sampleTx(id, ref string) models.Transaction {
	return models.Transaction{
		ID:          id,
		AccountID:   "acc-1",
		Date:        "2024-08-01",
		Description: "COMPRA CARTAO",
		AmountMinor: -123456,
		Currency:    "BRL",
		ExternalRef: ref,
		TemplateID:  "generic-br-csv",
		BatchID:     "batch-1",
	}
}

func TestLedgerStoreMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	s := NewLedgerStore(path, logging.NewMockLogger())

	matches, err := s.LookupByFingerprint(context.Background(), "acc-1", "2024-08-01", -123456)
	require.NoError(t, err)
	assert.Empty(t, matches)

	_, found, err := s.LookupByExternalRef(context.Background(), "acc-1", "fit-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLedgerStoreCommitAndLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	s := NewLedgerStore(path, logging.NewMockLogger())

	n, err := s.CommitTransactions(context.Background(), "batch-1", []models.Transaction{
		sampleTx("tx-1", "fit-1"),
		sampleTx("tx-2", ""),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	matches, err := s.LookupByFingerprint(context.Background(), "acc-1", "2024-08-01", -123456)
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	id, found, err := s.LookupByExternalRef(context.Background(), "acc-1", "fit-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "tx-1", id)
}

// A fresh store over the same file sees everything a previous one committed.
func TestLedgerStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")

	first := NewLedgerStore(path, logging.NewMockLogger())
	_, err := first.CommitTransactions(context.Background(), "batch-1",
		[]models.Transaction{sampleTx("tx-1", "fit-1")})
	require.NoError(t, err)

	second := NewLedgerStore(path, logging.NewMockLogger())
	id, found, err := second.LookupByExternalRef(context.Background(), "acc-1", "fit-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "tx-1", id)
}

func TestLedgerStoreCommitAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	s := NewLedgerStore(path, logging.NewMockLogger())

	_, err := s.CommitTransactions(context.Background(), "batch-1",
		[]models.Transaction{sampleTx("tx-1", "")})
	require.NoError(t, err)

	tx2 := sampleTx("tx-2", "")
	tx2.Date = "2024-08-02"
	_, err = s.CommitTransactions(context.Background(), "batch-2",
		[]models.Transaction{tx2})
	require.NoError(t, err)

	reloaded := NewLedgerStore(path, logging.NewMockLogger())
	day1, err := reloaded.LookupByFingerprint(context.Background(), "acc-1", "2024-08-01", -123456)
	require.NoError(t, err)
	day2, err := reloaded.LookupByFingerprint(context.Background(), "acc-1", "2024-08-02", -123456)
	require.NoError(t, err)
	assert.Len(t, day1, 1)
	assert.Len(t, day2, 1)
}

func TestLedgerStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte("transactions: [not yaml"), 0o644))

	s := NewLedgerStore(path, logging.NewMockLogger())
	_, err := s.LookupByFingerprint(context.Background(), "acc-1", "2024-08-01", -1)
	assert.Error(t, err)

	_, err = s.CommitTransactions(context.Background(), "batch-1",
		[]models.Transaction{sampleTx("tx-1", "")})
	assert.Error(t, err)
}

func TestLedgerStoreCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	s := NewLedgerStore(path, logging.NewMockLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.CommitTransactions(ctx, "batch-1", []models.Transaction{sampleTx("tx-1", "")})
	assert.Error(t, err)

	// Nothing was written.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

// No partial temp files survive a successful commit.
func TestLedgerStoreAtomicWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.yaml")
	s := NewLedgerStore(path, logging.NewMockLogger())

	_, err := s.CommitTransactions(context.Background(), "batch-1",
		[]models.Transaction{sampleTx("tx-1", "")})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ledger.yaml", entries[0].Name())
}
