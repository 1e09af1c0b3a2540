package importer

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"fjacquet/ledger-import/internal/classifier"
	"fjacquet/ledger-import/internal/config"
	"fjacquet/ledger-import/internal/dedup"
	"fjacquet/ledger-import/internal/models"
)

// StageError is one per-record failure surfaced in the report.
type StageError struct {
	Stage  string `csv:"Stage"`
	Index  int    `csv:"Index"`
	Reason string `csv:"Reason"`
}

// Report is the auditable outcome of one import batch.
type Report struct {
	BatchID         string
	Status          models.BatchStatus
	TotalParsed     int
	TotalNormalized int
	TotalDuplicates int
	TotalSkipped    int
	TotalCommitted  int
	Errors          []StageError
	// Duplicates lists every duplicate decision, whether skipped or
	// committed-and-flagged, for manual review.
	Duplicates []dedup.Decision
	// Transactions is the batch's surviving commit set (also populated on
	// dry runs, where it is what would have been committed).
	Transactions    []models.Transaction
	Classifications []classifier.Classification
}

// Clean reports whether the batch reached a terminal non-Failed state with
// no accumulated errors. CLI exit status mirrors this.
func (r Report) Clean() bool {
	return r.Status.IsTerminal() && r.Status != models.StatusFailed && len(r.Errors) == 0
}

// reportRow is the CSV projection of one surviving transaction, with an
// optional display-only converted amount for foreign-currency purchases.
type reportRow struct {
	ID            string `csv:"ID"`
	Date          string `csv:"Date"`
	Description   string `csv:"Description"`
	Amount        string `csv:"Amount"`
	Currency      string `csv:"Currency"`
	OriginalAmt   string `csv:"OriginalAmount,omitempty"`
	OriginalCur   string `csv:"OriginalCurrency,omitempty"`
	DisplayAmount string `csv:"DisplayAmount,omitempty"`
	ExternalRef   string `csv:"ExternalRef,omitempty"`
	Duplicate     string `csv:"Duplicate,omitempty"`
}

// WriteTransactionsCSV writes the surviving transactions to path. When rate
// is non-nil, original-currency amounts additionally get a converted display
// value; the conversion is informational, stamped with the rate's date, and
// never feeds back into stored amounts.
func (r Report) WriteTransactionsCSV(path string, rate *config.DisplayRate) error {
	duplicateIDs := make(map[string]bool, len(r.Duplicates))
	for _, d := range r.Duplicates {
		duplicateIDs[d.Candidate.ID] = true
	}

	rows := make([]reportRow, 0, len(r.Transactions))
	for _, tx := range r.Transactions {
		row := reportRow{
			ID:          tx.ID,
			Date:        tx.Date,
			Description: tx.Description,
			Amount:      models.FormatMinorUnits(tx.AmountMinor),
			Currency:    tx.Currency,
			ExternalRef: tx.ExternalRef,
		}
		if tx.OriginalCurrency != "" {
			row.OriginalAmt = models.FormatMinorUnits(tx.OriginalAmountMinor)
			row.OriginalCur = tx.OriginalCurrency
			if rate != nil {
				converted := decimal.New(tx.OriginalAmountMinor, -2).Mul(rate.Rate)
				row.DisplayAmount = fmt.Sprintf("%s %s (rate of %s)",
					converted.StringFixed(2), rate.Currency, rate.AsOf.Format("2006-01-02"))
			}
		}
		if duplicateIDs[tx.ID] {
			row.Duplicate = "flagged"
		}
		rows = append(rows, row)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating report file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("error writing report CSV: %w", err)
	}
	return nil
}

// WriteErrorsCSV writes the per-record error list to path.
func (r Report) WriteErrorsCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating error report file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	rows := r.Errors
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("error writing error report CSV: %w", err)
	}
	return nil
}
