// Package normalizer maps raw field records to canonical transactions using
// the template descriptor that produced them. Each record normalizes
// independently; failures are per-record and never abort the batch.
package normalizer

import (
	"fjacquet/ledger-import/internal/dateutils"
	"fjacquet/ledger-import/internal/importerror"
	"fjacquet/ledger-import/internal/logging"
	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/template"
)

// Normalizer turns one RawRecord plus a Descriptor into one Transaction or a
// per-record NormalizationError.
type Normalizer struct {
	logger logging.Logger
}

// New creates a Normalizer.
func New(logger logging.Logger) *Normalizer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Normalizer{logger: logger}
}

// Normalize produces the canonical transaction for one raw record.
// The returned error, when non-nil, is always *importerror.NormalizationError.
func (n *Normalizer) Normalize(rec models.RawRecord, desc template.Descriptor, accountID, batchID string) (models.Transaction, error) {
	dateStr, err := n.resolveRequired(rec, desc, template.FieldDate)
	if err != nil {
		return models.Transaction{}, err
	}
	descStr, err := n.resolveRequired(rec, desc, template.FieldDescription)
	if err != nil {
		return models.Transaction{}, err
	}
	amountStr, err := n.resolveRequired(rec, desc, template.FieldAmount)
	if err != nil {
		return models.Transaction{}, err
	}

	posted, err2 := dateutils.ParseDate(dateStr, desc.DateFormat)
	if err2 != nil {
		return models.Transaction{}, &importerror.NormalizationError{
			RecordIndex: rec.Index,
			Field:       template.FieldDate,
			Reason:      importerror.ReasonInvalidDate,
		}
	}

	amountMinor, err2 := models.ParseMinorUnits(amountStr, desc.ValueFormat)
	if err2 != nil {
		return models.Transaction{}, &importerror.NormalizationError{
			RecordIndex: rec.Index,
			Field:       template.FieldAmount,
			Reason:      importerror.ReasonInvalidAmount,
		}
	}

	amountMinor, err = n.applySign(rec, desc, amountMinor)
	if err != nil {
		return models.Transaction{}, err
	}

	isoDate := dateutils.ToISODate(posted)
	normalized := models.NormalizeDescription(descStr)
	externalRef, _ := resolve(rec, desc, template.FieldExternalRef)

	tx := models.Transaction{
		ID:          models.ComputeID(accountID, isoDate, amountMinor, normalized, externalRef),
		AccountID:   accountID,
		Date:        isoDate,
		Description: normalized,
		AmountMinor: amountMinor,
		Currency:    desc.Currency,
		ExternalRef: externalRef,
		TemplateID:  desc.ID,
		BatchID:     batchID,
	}

	// Original-currency columns pass through as informational fields only.
	// The pipeline never recomputes the conversion against a live rate.
	if origStr, ok := resolve(rec, desc, template.FieldOriginalAmount); ok && origStr != "" {
		origMinor, convErr := models.ParseMinorUnits(origStr, desc.ValueFormat)
		if convErr != nil {
			return models.Transaction{}, &importerror.NormalizationError{
				RecordIndex: rec.Index,
				Field:       template.FieldOriginalAmount,
				Reason:      importerror.ReasonInvalidAmount,
			}
		}
		tx.OriginalAmountMinor = origMinor
	}
	if origCur, ok := resolve(rec, desc, template.FieldOriginalCurrency); ok {
		tx.OriginalCurrency = origCur
	}

	return tx, nil
}

// applySign enforces the template's declared sign convention.
func (n *Normalizer) applySign(rec models.RawRecord, desc template.Descriptor, amountMinor int64) (int64, error) {
	switch desc.EffectiveSign() {
	case template.SignSigned:
		// The source amount is authoritative, keep it as-is.
		return amountMinor, nil

	case template.SignIndicator:
		indicator, ok := rec.Get(desc.TypeColumn)
		if !ok || indicator == "" {
			return 0, &importerror.NormalizationError{
				RecordIndex: rec.Index,
				Field:       desc.TypeColumn,
				Reason:      importerror.ReasonMissingField,
			}
		}
		magnitude := amountMinor
		if magnitude < 0 {
			magnitude = -magnitude
		}
		if desc.IsDebitIndicator(indicator) {
			return -magnitude, nil
		}
		return magnitude, nil

	case template.SignNegate:
		// Declared expense-only source: every amount is an outflow.
		magnitude := amountMinor
		if magnitude < 0 {
			magnitude = -magnitude
		}
		return -magnitude, nil
	}

	// Validate() rejects unknown conventions at registration.
	return amountMinor, nil
}

// resolveRequired resolves a required canonical field through the column
// mapping, failing with MissingField when absent or empty.
func (n *Normalizer) resolveRequired(rec models.RawRecord, desc template.Descriptor, canonical string) (string, error) {
	value, ok := resolve(rec, desc, canonical)
	if !ok || value == "" {
		return "", &importerror.NormalizationError{
			RecordIndex: rec.Index,
			Field:       canonical,
			Reason:      importerror.ReasonMissingField,
		}
	}
	return value, nil
}

// resolve walks the mapped source names for a canonical field in preference
// order and returns the first non-empty value.
func resolve(rec models.RawRecord, desc template.Descriptor, canonical string) (string, bool) {
	for _, src := range desc.Fields[canonical] {
		if v, ok := rec.Get(src); ok && v != "" {
			return v, true
		}
	}
	return "", false
}
