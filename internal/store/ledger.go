package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"fjacquet/ledger-import/internal/importerror"
	"fjacquet/ledger-import/internal/logging"
	"fjacquet/ledger-import/internal/models"
)

// ledgerEntry is the on-disk shape of one committed transaction.
type ledgerEntry struct {
	ID          string `yaml:"id"`
	AccountID   string `yaml:"account_id"`
	Date        string `yaml:"date"`
	Description string `yaml:"description"`
	AmountMinor int64  `yaml:"amount_minor"`
	Currency    string `yaml:"currency"`
	ExternalRef string `yaml:"external_ref,omitempty"`
	TemplateID  string `yaml:"template_id,omitempty"`
	BatchID     string `yaml:"batch_id,omitempty"`
}

// ledgerFile is the YAML document the store reads and writes.
type ledgerFile struct {
	Transactions []ledgerEntry `yaml:"transactions"`
}

// LedgerStore is a YAML-file-backed Store. Commits are atomic: the whole
// ledger is rewritten to a temp file and renamed over the original, so a
// failed commit leaves nothing behind.
type LedgerStore struct {
	path   string
	logger logging.Logger

	mu      sync.Mutex
	entries []ledgerEntry
	loaded  bool
}

// NewLedgerStore creates a store over the YAML ledger at path. A missing
// file is an empty ledger, not an error.
func NewLedgerStore(path string, logger logging.Logger) *LedgerStore {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &LedgerStore{path: path, logger: logger}
}

func (s *LedgerStore) load() error {
	if s.loaded {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.loaded = true
			return nil
		}
		return fmt.Errorf("error reading ledger file: %w", err)
	}

	var doc ledgerFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("error parsing ledger file %s: %w", s.path, err)
	}
	s.entries = doc.Transactions
	s.loaded = true

	s.logger.Debug("Loaded ledger",
		logging.Field{Key: logging.FieldFile, Value: s.path},
		logging.Field{Key: logging.FieldCount, Value: len(s.entries)})
	return nil
}

// LookupByFingerprint implements Store.
func (s *LedgerStore) LookupByFingerprint(ctx context.Context, accountID, date string, amountMinor int64) ([]ExistingTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, &importerror.StoreError{Op: "lookup", Err: err}
	}

	var matches []ExistingTransaction
	for _, e := range s.entries {
		if e.AccountID == accountID && e.Date == date && e.AmountMinor == amountMinor {
			matches = append(matches, existing(e))
		}
	}
	return matches, nil
}

// LookupByExternalRef implements Store.
func (s *LedgerStore) LookupByExternalRef(ctx context.Context, accountID, ref string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return "", false, &importerror.StoreError{Op: "lookup", Err: err}
	}

	for _, e := range s.entries {
		if e.AccountID == accountID && e.ExternalRef != "" && e.ExternalRef == ref {
			return e.ID, true, nil
		}
	}
	return "", false, nil
}

// CommitTransactions implements Store. The ledger is rewritten atomically;
// on any failure nothing is persisted.
func (s *LedgerStore) CommitTransactions(ctx context.Context, batchID string, txs []models.Transaction) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, &importerror.StoreError{Op: "commit", Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return 0, &importerror.StoreError{Op: "commit", Err: err}
	}

	combined := make([]ledgerEntry, 0, len(s.entries)+len(txs))
	combined = append(combined, s.entries...)
	for _, tx := range txs {
		combined = append(combined, ledgerEntry{
			ID:          tx.ID,
			AccountID:   tx.AccountID,
			Date:        tx.Date,
			Description: tx.Description,
			AmountMinor: tx.AmountMinor,
			Currency:    tx.Currency,
			ExternalRef: tx.ExternalRef,
			TemplateID:  tx.TemplateID,
			BatchID:     tx.BatchID,
		})
	}

	if err := s.writeAtomic(ledgerFile{Transactions: combined}); err != nil {
		return 0, &importerror.StoreError{Op: "commit", Err: err}
	}
	s.entries = combined

	s.logger.Info("Committed batch to ledger",
		logging.Field{Key: logging.FieldBatch, Value: batchID},
		logging.Field{Key: logging.FieldCount, Value: len(txs)})
	return len(txs), nil
}

func (s *LedgerStore) writeAtomic(doc ledgerFile) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error marshaling ledger: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating ledger directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ledger-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temp ledger file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("error writing ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error closing ledger file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error replacing ledger file: %w", err)
	}
	return nil
}

func existing(e ledgerEntry) ExistingTransaction {
	return ExistingTransaction{
		ID:          e.ID,
		AccountID:   e.AccountID,
		Date:        e.Date,
		AmountMinor: e.AmountMinor,
		Description: e.Description,
		ExternalRef: e.ExternalRef,
	}
}
