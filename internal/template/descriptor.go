// Package template provides declarative per-institution format descriptors
// and the registry that validates and stores them. Descriptors drive parsing
// and normalization; they are configuration, not code.
package template

import (
	"fmt"
	"strings"

	"fjacquet/ledger-import/internal/dateutils"
	"fjacquet/ledger-import/internal/importerror"
	"fjacquet/ledger-import/internal/models"
)

// Kind identifies the source file format a descriptor applies to.
type Kind string

const (
	KindCSV Kind = "csv"
	KindOFX Kind = "ofx"
)

// SignConvention declares how a template derives the sign of an amount.
// Every CSV template must declare one explicitly; guessing silently
// misclassifies income as expense.
type SignConvention string

const (
	// SignSigned means the source carries an authoritative signed amount
	// (e.g. OFX TRNAMT); the sign is preserved as-is.
	SignSigned SignConvention = "signed"
	// SignIndicator means a separate transaction-type column decides the
	// sign; values listed in DebitValues mark expenses.
	SignIndicator SignConvention = "indicator"
	// SignNegate means the source has no sign information and every amount
	// is an expense (card statements that list only purchases).
	SignNegate SignConvention = "negate"
)

// Canonical field names a descriptor maps source columns onto.
const (
	FieldDate             = "date"
	FieldDescription      = "description"
	FieldAmount           = "amount"
	FieldOriginalAmount   = "original_amount"
	FieldOriginalCurrency = "original_currency"
	FieldExternalRef      = "external_ref"
)

// requiredFields are the canonical fields every template must map.
var requiredFields = []string{FieldDate, FieldDescription, FieldAmount}

// RequiredFields returns the canonical fields every template must map.
func RequiredFields() []string {
	out := make([]string, len(requiredFields))
	copy(out, requiredFields)
	return out
}

// Descriptor declares how one institution's statement files are read.
// Descriptors are created at config time and immutable after registration.
type Descriptor struct {
	ID          string `yaml:"id"`
	Institution string `yaml:"institution"`
	Kind        Kind   `yaml:"kind"`

	// Separator is the CSV field separator; required for csv descriptors.
	Separator string `yaml:"separator,omitempty"`
	// Encoding is the source text encoding as an IANA charset label
	// (utf-8, latin1, windows-1252); empty means utf-8.
	Encoding string `yaml:"encoding,omitempty"`

	DateFormat  string             `yaml:"date_format"`
	ValueFormat models.ValueFormat `yaml:"value_format"`
	Currency    string             `yaml:"currency"`

	Sign SignConvention `yaml:"sign"`
	// TypeColumn names the source column carrying the transaction-type
	// indicator when Sign is "indicator".
	TypeColumn string `yaml:"type_column,omitempty"`
	// DebitValues are the TypeColumn values that mark an expense; any other
	// value marks income.
	DebitValues []string `yaml:"debit_values,omitempty"`

	// Fields maps canonical field names to the source column or tag names
	// that may carry them, in preference order (first non-empty wins).
	Fields map[string][]string `yaml:"fields"`
}

// IsDebitIndicator reports whether a TypeColumn value marks an expense.
func (d Descriptor) IsDebitIndicator(value string) bool {
	for _, dv := range d.DebitValues {
		if strings.EqualFold(strings.TrimSpace(value), dv) {
			return true
		}
	}
	return false
}

// Validate checks a descriptor for registration. All failures are
// *importerror.ValidationError; a descriptor missing a required canonical
// field mapping is rejected here, never at parse time.
func (d Descriptor) Validate() error {
	if d.ID == "" {
		return &importerror.ValidationError{TemplateID: d.ID, Field: "id", Reason: "empty template id"}
	}

	switch d.Kind {
	case KindCSV, KindOFX:
	default:
		return &importerror.ValidationError{
			TemplateID: d.ID, Field: "kind",
			Reason: fmt.Sprintf("unknown format kind '%s'", d.Kind),
		}
	}

	if d.Kind == KindCSV && len(d.Separator) != 1 {
		return &importerror.ValidationError{
			TemplateID: d.ID, Field: "separator",
			Reason: "csv templates require a single-character separator",
		}
	}

	if !dateutils.IsKnownFormat(d.DateFormat) {
		return &importerror.ValidationError{
			TemplateID: d.ID, Field: "date_format",
			Reason: fmt.Sprintf("unrecognized date format '%s'", d.DateFormat),
		}
	}

	if !models.IsKnownValueFormat(d.ValueFormat) {
		return &importerror.ValidationError{
			TemplateID: d.ID, Field: "value_format",
			Reason: fmt.Sprintf("unrecognized value format '%s' (want BR or US)", d.ValueFormat),
		}
	}

	for _, canonical := range requiredFields {
		if len(d.Fields[canonical]) == 0 {
			return &importerror.ValidationError{
				TemplateID: d.ID, Field: canonical,
				Reason: "required canonical field is unmapped",
			}
		}
	}

	return d.validateSign()
}

func (d Descriptor) validateSign() error {
	sign := d.Sign
	if sign == "" && d.Kind == KindOFX {
		// OFX TRNAMT is authoritative; signed is the only sane default.
		sign = SignSigned
	}

	switch sign {
	case SignSigned, SignNegate:
	case SignIndicator:
		if d.TypeColumn == "" || len(d.DebitValues) == 0 {
			return &importerror.ValidationError{
				TemplateID: d.ID, Field: "sign",
				Reason: "indicator convention requires type_column and debit_values",
			}
		}
	case "":
		return &importerror.ValidationError{
			TemplateID: d.ID, Field: "sign",
			Reason: "csv templates must declare a sign convention (signed, indicator or negate)",
		}
	default:
		return &importerror.ValidationError{
			TemplateID: d.ID, Field: "sign",
			Reason: fmt.Sprintf("unknown sign convention '%s'", d.Sign),
		}
	}
	return nil
}

// EffectiveSign returns the declared sign convention, defaulting OFX
// templates to signed.
func (d Descriptor) EffectiveSign() SignConvention {
	if d.Sign == "" && d.Kind == KindOFX {
		return SignSigned
	}
	return d.Sign
}
