// Package importcmd provides the import subcommand: one batch over one
// statement file, in dry-run or commit mode.
package importcmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fjacquet/ledger-import/cmd/root"
	"fjacquet/ledger-import/internal/classifier"
	"fjacquet/ledger-import/internal/config"
	"fjacquet/ledger-import/internal/importer"
	"fjacquet/ledger-import/internal/logging"
	"fjacquet/ledger-import/internal/parser"
	"fjacquet/ledger-import/internal/store"
	"fjacquet/ledger-import/internal/template"
)

var (
	inputFile      string
	templateID     string
	accountID      string
	dryRun         bool
	autoClassify   bool
	skipDuplicates bool
	reportFile     string
	errorFile      string
)

// Cmd represents the import command.
var Cmd = &cobra.Command{
	Use:   "import",
	Short: "Import one statement file as a batch",
	Long: `Import a bank or card statement using a registered template.

The batch parses the file, normalizes every record into a canonical
transaction, checks each one against the ledger for duplicates, and commits
the surviving set in a single all-or-nothing store call. With --dry-run the
full report is produced without touching the ledger.

Example:
  ledger-import import -i extrato.csv -t generic-br-csv -a acc-123 --dry-run`,
	RunE: runImport,
}

func init() {
	Cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Source statement file (required)")
	Cmd.Flags().StringVarP(&templateID, "template", "t", "", "Template id (required)")
	Cmd.Flags().StringVarP(&accountID, "account", "a", "", "Account id (required)")
	Cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Produce the report without committing anything")
	Cmd.Flags().BoolVar(&autoClassify, "auto-classify", false, "Classify committed transactions with the AI model")
	Cmd.Flags().BoolVar(&skipDuplicates, "skip-duplicates", false, "Exclude duplicates from the commit set")
	Cmd.Flags().StringVarP(&reportFile, "output", "o", "", "Write surviving transactions to a CSV report")
	Cmd.Flags().StringVar(&errorFile, "error-output", "", "Write per-record errors to a CSV report")
	_ = Cmd.MarkFlagRequired("input")
	_ = Cmd.MarkFlagRequired("template")
	_ = Cmd.MarkFlagRequired("account")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := root.Cfg
	log := root.Log

	registry := template.NewRegistry()
	if _, err := template.LoadFile(root.TemplatePath(), registry, log); err != nil {
		return err
	}

	ledger := store.NewLedgerStore(root.LedgerPath(), log)

	var c classifier.Classifier
	if autoClassify && !dryRun {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.AI.TimeoutSeconds)*time.Second)
		defer cancel()
		gemini, err := classifier.NewGeminiClassifier(ctx, cfg.AI.APIKey, cfg.AI.Model, log)
		if err != nil {
			// Classification is best-effort; a missing key degrades, not fails.
			log.WithError(err).Warn("AI classification unavailable")
		} else {
			defer func() {
				_ = gemini.Close()
			}()
			c = gemini
		}
	}

	imp := importer.New(registry, ledger, c, importer.Tuning{
		Parser: parser.Options{
			PreambleLimit:   cfg.Import.PreambleLimit,
			FatalErrorRatio: cfg.Import.FatalErrorRatio,
		},
		FingerprintPrefix: cfg.Import.FingerprintPrefix,
		Workers:           cfg.Import.Workers,
	}, log)

	report, runErr := imp.ImportFile(cmd.Context(), inputFile, templateID, accountID, importer.Options{
		DryRun:         dryRun,
		SkipDuplicates: skipDuplicates,
		AutoClassify:   autoClassify,
	})

	printSummary(report, log)

	if reportFile != "" {
		rate := displayRate(cfg, log)
		if err := report.WriteTransactionsCSV(reportFile, rate); err != nil {
			return err
		}
	}
	if errorFile != "" && len(report.Errors) > 0 {
		if err := report.WriteErrorsCSV(errorFile); err != nil {
			return err
		}
	}

	if runErr != nil {
		return runErr
	}
	if !report.Clean() {
		return fmt.Errorf("import finished with %d record error(s), status %s",
			len(report.Errors), report.Status)
	}
	return nil
}

func printSummary(report importer.Report, log logging.Logger) {
	log.Info("Import report",
		logging.Field{Key: logging.FieldBatch, Value: report.BatchID},
		logging.Field{Key: logging.FieldStatus, Value: string(report.Status)},
		logging.Field{Key: "parsed", Value: report.TotalParsed},
		logging.Field{Key: "normalized", Value: report.TotalNormalized},
		logging.Field{Key: "duplicates", Value: report.TotalDuplicates},
		logging.Field{Key: "skipped", Value: report.TotalSkipped},
		logging.Field{Key: "committed", Value: report.TotalCommitted},
		logging.Field{Key: "errors", Value: len(report.Errors)})

	for _, e := range report.Errors {
		log.Warn("Record error",
			logging.Field{Key: logging.FieldStage, Value: e.Stage},
			logging.Field{Key: logging.FieldRecord, Value: e.Index},
			logging.Field{Key: logging.FieldReason, Value: e.Reason})
	}
	for _, d := range report.Duplicates {
		log.Info("Duplicate",
			logging.Field{Key: "transaction_id", Value: d.Candidate.ID},
			logging.Field{Key: "matched_id", Value: d.MatchedID},
			logging.Field{Key: "basis", Value: string(d.Basis)})
	}
	for _, cl := range report.Classifications {
		log.Info("Classified",
			logging.Field{Key: "transaction_id", Value: cl.TransactionID},
			logging.Field{Key: "category", Value: cl.Category})
	}
}

func displayRate(cfg *config.Config, log logging.Logger) *config.DisplayRate {
	rate, ok, err := cfg.DisplayRate()
	if err != nil {
		log.WithError(err).Warn("Ignoring invalid display rate")
		return nil
	}
	if !ok {
		return nil
	}
	return &rate
}
