// Package models provides the data structures shared by the import pipeline.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Transaction is a fully normalized, deduplication-ready ledger entry.
// Instances are produced by the Normalizer and never mutated afterwards;
// a correction supersedes the entry at the store layer, never edits it here.
type Transaction struct {
	ID          string `csv:"ID"`
	AccountID   string `csv:"AccountID"`
	Date        string `csv:"Date"` // ISO YYYY-MM-DD
	Description string `csv:"Description"`
	// AmountMinor is the amount in integer minor currency units (cents).
	// No pipeline stage performs floating-point arithmetic on money.
	AmountMinor int64  `csv:"AmountMinor"`
	Currency    string `csv:"Currency"`

	// Informational pass-throughs for foreign-currency purchases. The
	// pipeline never recomputes or verifies the conversion.
	OriginalAmountMinor int64  `csv:"OriginalAmountMinor,omitempty"`
	OriginalCurrency    string `csv:"OriginalCurrency,omitempty"`

	// ExternalRef is the vendor-supplied transaction id (e.g. OFX FITID).
	ExternalRef string `csv:"ExternalRef,omitempty"`

	TemplateID string `csv:"TemplateID"`
	BatchID    string `csv:"BatchID"`
}

// PostedDate parses the ISO date back into a time.Time.
func (t Transaction) PostedDate() (time.Time, error) {
	return time.Parse("2006-01-02", t.Date)
}

// NormalizeDescription canonicalizes a statement description for hashing and
// duplicate matching: trimmed, upper-cased, diacritics stripped, punctuation
// noise removed, whitespace collapsed.
//
//	NormalizeDescription("  Compra   com    cartão  ") // "COMPRA COM CARTAO"
func NormalizeDescription(description string) string {
	upper := strings.ToUpper(strings.TrimSpace(description))

	// Strip diacritics: decompose, drop combining marks.
	decomposed := norm.NFD.String(upper)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '*' || r == '-' || r == '/' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// ComputeID derives the deterministic content hash that identifies a
// transaction. It is a pure function of (account, posted date, amount,
// normalized description, external reference), so re-parsing the same file
// always yields the same ids regardless of row order or wall-clock time.
func ComputeID(accountID, isoDate string, amountMinor int64, normalizedDesc, externalRef string) string {
	key := fmt.Sprintf("%s|%s|%d|%s|%s", accountID, isoDate, amountMinor, normalizedDesc, externalRef)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Fingerprint is the composite duplicate-match key used when no external
// reference is available: account, date, amount, and a bounded prefix of the
// normalized description.
type Fingerprint struct {
	AccountID   string
	Date        string
	AmountMinor int64
	DescPrefix  string
}

// FingerprintOf builds the fingerprint for a transaction, truncating the
// normalized description to prefixLen characters.
func FingerprintOf(t Transaction, prefixLen int) Fingerprint {
	desc := NormalizeDescription(t.Description)
	if prefixLen > 0 && len(desc) > prefixLen {
		desc = desc[:prefixLen]
	}
	return Fingerprint{
		AccountID:   t.AccountID,
		Date:        t.Date,
		AmountMinor: t.AmountMinor,
		DescPrefix:  desc,
	}
}
