package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/ledger-import/internal/config"
	"fjacquet/ledger-import/internal/dedup"
	"fjacquet/ledger-import/internal/models"
)

func TestReportClean(t *testing.T) {
	tests := []struct {
		name     string
		report   Report
		expected bool
	}{
		{"committed no errors", Report{Status: models.StatusCommitted}, true},
		{"dry run no errors", Report{Status: models.StatusDryRunComplete}, true},
		{"failed", Report{Status: models.StatusFailed}, false},
		{"non-terminal", Report{Status: models.StatusParsing}, false},
		{
			"committed with errors",
			Report{Status: models.StatusCommitted, Errors: []StageError{{Stage: StageParse, Index: 3}}},
			false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.report.Clean())
		})
	}
}

func TestWriteTransactionsCSV(t *testing.T) {
	report := Report{
		Status: models.StatusCommitted,
		Transactions: []models.Transaction{
			{
				ID: "tx-1", Date: "2024-08-01", Description: "COMPRA CARTAO",
				AmountMinor: -123456, Currency: "BRL", ExternalRef: "fit-1",
			},
			{
				ID: "tx-2", Date: "2024-08-02", Description: "COMPRA EXTERIOR",
				AmountMinor: -53210, Currency: "BRL",
				OriginalAmountMinor: -10000, OriginalCurrency: "USD",
			},
		},
		Duplicates: []dedup.Decision{
			{Candidate: models.Transaction{ID: "tx-1"}, Duplicate: true},
		},
	}

	path := filepath.Join(t.TempDir(), "transactions.csv")
	require.NoError(t, report.WriteTransactionsCSV(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	lines := strings.Split(strings.TrimSpace(content), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "tx-1")
	assert.Contains(t, lines[1], "-1234.56")
	assert.Contains(t, lines[1], "flagged")
	assert.Contains(t, lines[2], "-100.00")
	assert.Contains(t, lines[2], "USD")
	assert.NotContains(t, lines[2], "flagged")
}

func TestWriteTransactionsCSVWithDisplayRate(t *testing.T) {
	report := Report{
		Status: models.StatusCommitted,
		Transactions: []models.Transaction{
			{
				ID: "tx-1", Date: "2024-08-01", Description: "COMPRA EXTERIOR",
				AmountMinor: -53210, Currency: "BRL",
				OriginalAmountMinor: -10000, OriginalCurrency: "USD",
			},
		},
	}

	rate := &config.DisplayRate{
		Rate:     decimal.RequireFromString("5.32"),
		AsOf:     time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
		Currency: "BRL",
	}

	path := filepath.Join(t.TempDir(), "transactions.csv")
	require.NoError(t, report.WriteTransactionsCSV(path, rate))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "-532.00 BRL (rate of 2024-08-01)")
}

func TestWriteErrorsCSV(t *testing.T) {
	report := Report{
		Errors: []StageError{
			{Stage: StageParse, Index: 3, Reason: "expected 3 fields, got 2"},
			{Stage: StageNormalize, Index: 7, Reason: "record 7: field 'date': unparseable date"},
		},
	}

	path := filepath.Join(t.TempDir(), "errors.csv")
	require.NoError(t, report.WriteErrorsCSV(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	lines := strings.Split(strings.TrimSpace(content), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Stage")
	assert.Contains(t, lines[1], "parse")
	assert.Contains(t, lines[2], "normalize")
}
