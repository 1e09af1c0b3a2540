// Package dedup classifies canonical transactions as new or duplicate
// against existing ledger state. It only reads the store; skip-vs-flag
// policy belongs to the caller.
package dedup

import (
	"context"
	"strings"

	"fjacquet/ledger-import/internal/logging"
	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/store"
)

// MatchBasis names which key matched an existing ledger entry.
type MatchBasis string

const (
	// MatchFingerprint is equality of (account, date, amount, description prefix).
	MatchFingerprint MatchBasis = "fingerprint"
	// MatchExternalRef is equality of the vendor transaction id. It takes
	// precedence over fingerprint whenever both are evaluated.
	MatchExternalRef MatchBasis = "external-ref"
)

// Decision is the outcome of checking one candidate transaction.
type Decision struct {
	Candidate  models.Transaction
	Duplicate  bool
	MatchedID  string
	Basis      MatchBasis
	Confidence float64
}

// Deduplicator decides new vs duplicate using the store's lookup capability.
type Deduplicator struct {
	store store.Store
	// descPrefixLen bounds the description prefix used in fingerprints.
	descPrefixLen int
	logger        logging.Logger
}

// New creates a Deduplicator. prefixLen <= 0 selects the default of 32.
func New(s store.Store, prefixLen int, logger logging.Logger) *Deduplicator {
	if prefixLen <= 0 {
		prefixLen = 32
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Deduplicator{store: s, descPrefixLen: prefixLen, logger: logger}
}

// Check classifies one candidate. The store is never mutated.
func (d *Deduplicator) Check(ctx context.Context, tx models.Transaction) (Decision, error) {
	// External-reference match first: a vendor id is authoritative and
	// beats any fingerprint similarity.
	if tx.ExternalRef != "" {
		matchedID, found, err := d.store.LookupByExternalRef(ctx, tx.AccountID, tx.ExternalRef)
		if err != nil {
			return Decision{}, err
		}
		if found {
			return Decision{
				Candidate:  tx,
				Duplicate:  true,
				MatchedID:  matchedID,
				Basis:      MatchExternalRef,
				Confidence: 1.0,
			}, nil
		}
	}

	candidates, err := d.store.LookupByFingerprint(ctx, tx.AccountID, tx.Date, tx.AmountMinor)
	if err != nil {
		return Decision{}, err
	}

	prefix := descPrefix(tx.Description, d.descPrefixLen)
	var matches []store.ExistingTransaction
	for _, existing := range candidates {
		if descPrefix(models.NormalizeDescription(existing.Description), d.descPrefixLen) == prefix {
			matches = append(matches, existing)
		}
	}

	switch len(matches) {
	case 0:
		return Decision{Candidate: tx}, nil
	case 1:
		return Decision{
			Candidate:  tx,
			Duplicate:  true,
			MatchedID:  matches[0].ID,
			Basis:      MatchFingerprint,
			Confidence: 0.9,
		}, nil
	default:
		// Several entries share the fingerprint (e.g. two identical-amount
		// purchases on the same day). Prefer one additionally matching by
		// external reference; otherwise treat the candidate as distinct so
		// repeated legitimate transactions are never collapsed.
		if tx.ExternalRef != "" {
			for _, existing := range matches {
				if existing.ExternalRef == tx.ExternalRef {
					return Decision{
						Candidate:  tx,
						Duplicate:  true,
						MatchedID:  existing.ID,
						Basis:      MatchExternalRef,
						Confidence: 1.0,
					}, nil
				}
			}
		}
		d.logger.Debug("Ambiguous fingerprint match, keeping transaction as distinct",
			logging.Field{Key: logging.FieldAccount, Value: tx.AccountID},
			logging.Field{Key: logging.FieldCount, Value: len(matches)})
		return Decision{Candidate: tx}, nil
	}
}

func descPrefix(desc string, n int) string {
	desc = strings.TrimSpace(desc)
	if n > 0 && len(desc) > n {
		return desc[:n]
	}
	return desc
}
