// Package importer sequences the import pipeline per source file: template
// resolution, parsing, normalization, deduplication and an optional commit,
// collected into one auditable batch.
package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"fjacquet/ledger-import/internal/classifier"
	"fjacquet/ledger-import/internal/dedup"
	"fjacquet/ledger-import/internal/importerror"
	"fjacquet/ledger-import/internal/logging"
	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/normalizer"
	"fjacquet/ledger-import/internal/parser"
	"fjacquet/ledger-import/internal/store"
	"fjacquet/ledger-import/internal/template"
)

// Stage names used in report errors.
const (
	StageParse       = "parse"
	StageNormalize   = "normalize"
	StageDeduplicate = "deduplicate"
	StageCommit      = "commit"
	StageClassify    = "classify"
)

// Options select the batch's execution mode.
type Options struct {
	// DryRun produces a complete report without invoking the store's
	// mutation capability.
	DryRun bool
	// SkipDuplicates excludes duplicates from the commit set; they are
	// still counted and listed. When false, duplicates are committed but
	// flagged for manual review.
	SkipDuplicates bool
	// AutoClassify invokes the AI classifier on committed transactions.
	AutoClassify bool
}

// Tuning carries the pipeline knobs from configuration.
type Tuning struct {
	Parser            parser.Options
	FingerprintPrefix int
	Workers           int
}

func (t Tuning) withDefaults() Tuning {
	if t.FingerprintPrefix <= 0 {
		t.FingerprintPrefix = 32
	}
	if t.Workers <= 0 {
		t.Workers = 4
	}
	return t
}

// Importer runs import batches. Independent batches may run fully in
// parallel; each Run owns its working state. Serializing commits per account
// is delegated to the store's transactional guarantees.
type Importer struct {
	registry   *template.Registry
	store      store.Store
	classifier classifier.Classifier // optional, nil disables classification
	tuning     Tuning
	logger     logging.Logger
}

// New creates an Importer. classifier may be nil.
func New(registry *template.Registry, s store.Store, c classifier.Classifier, tuning Tuning, logger logging.Logger) *Importer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Importer{
		registry:   registry,
		store:      s,
		classifier: c,
		tuning:     tuning.withDefaults(),
		logger:     logger,
	}
}

// ImportFile reads a source file and runs a batch over its contents.
func (imp *Importer) ImportFile(ctx context.Context, path, templateID, accountID string, opts Options) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{Status: models.StatusFailed}, err
	}
	return imp.Import(ctx, data, templateID, accountID, opts)
}

// Import runs one batch over raw source bytes. The returned Report is
// complete even when the batch fails; err is non-nil only for batch-scoped
// failures (invalid template, ParseFatal, store failure, cancellation).
func (imp *Importer) Import(ctx context.Context, data []byte, templateID, accountID string, opts Options) (Report, error) {
	batch := models.ImportBatch{
		ID:         uuid.NewString(),
		TemplateID: templateID,
		AccountID:  accountID,
		SourceHash: hashSource(data),
		CreatedAt:  time.Now().UTC(),
		Status:     models.StatusCreated,
	}

	log := imp.logger.WithFields(
		logging.Field{Key: logging.FieldBatch, Value: batch.ID},
		logging.Field{Key: logging.FieldTemplate, Value: templateID},
		logging.Field{Key: logging.FieldAccount, Value: accountID})

	report := Report{BatchID: batch.ID}

	desc, err := imp.registry.Get(templateID)
	if err != nil {
		log.WithError(err).Error("Template resolution failed")
		return imp.fail(&batch, report), err
	}

	// Parsing
	batch.Status = models.StatusParsing
	result, err := imp.parse(data, desc, log)
	if err != nil {
		return imp.fail(&batch, report), err
	}
	batch.Counters.Parsed = len(result.Records)
	batch.Counters.Skipped = result.SkippedLines
	for _, pe := range result.Errors {
		report.Errors = append(report.Errors, StageError{
			Stage: StageParse, Index: pe.Line, Reason: pe.Reason,
		})
	}

	if err := ctx.Err(); err != nil {
		return imp.fail(&batch, report), err
	}

	// Normalizing: CPU-bound and read-only over the records, safe to run
	// per-record on the worker pool. Counter merges are commutative; the
	// error list is re-sorted by record index afterwards so diagnostics do
	// not depend on completion order.
	batch.Status = models.StatusNormalizing
	txs, normErrors := imp.normalize(result.Records, desc, accountID, batch.ID)
	batch.Counters.Normalized = len(txs)
	report.Errors = append(report.Errors, normErrors...)

	if err := ctx.Err(); err != nil {
		return imp.fail(&batch, report), err
	}

	// Deduplicating
	batch.Status = models.StatusDeduplicating
	deduper := dedup.New(imp.store, imp.tuning.FingerprintPrefix, imp.logger)
	commitSet := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		decision, err := deduper.Check(ctx, tx)
		if err != nil {
			log.WithError(err).Error("Deduplication lookup failed")
			return imp.fail(&batch, report), err
		}
		if decision.Duplicate {
			batch.Counters.Duplicates++
			report.Duplicates = append(report.Duplicates, decision)
			if opts.SkipDuplicates {
				continue
			}
		}
		commitSet = append(commitSet, tx)
	}

	if err := ctx.Err(); err != nil {
		return imp.fail(&batch, report), err
	}

	if opts.DryRun {
		batch.Status = models.StatusDryRunComplete
		return imp.finish(&batch, report, commitSet), nil
	}

	// Committing: one all-or-nothing store call. On failure nothing is
	// committed and the batch fails.
	batch.Status = models.StatusCommitting
	committed, err := imp.store.CommitTransactions(ctx, batch.ID, commitSet)
	if err != nil {
		log.WithError(err).Error("Commit failed, nothing persisted")
		return imp.fail(&batch, report), err
	}
	batch.Counters.Committed = committed
	batch.Status = models.StatusCommitted

	if opts.AutoClassify && imp.classifier != nil {
		imp.classify(ctx, commitSet, &report, log)
	}

	return imp.finish(&batch, report, commitSet), nil
}

func (imp *Importer) parse(data []byte, desc template.Descriptor, log logging.Logger) (parser.Result, error) {
	p, err := parser.ForKind(desc.Kind, imp.tuning.Parser, imp.logger)
	if err != nil {
		return parser.Result{}, err
	}
	result, err := p.Parse(data, desc)
	if err != nil {
		log.WithError(err).Error("Parse failed")
		return parser.Result{}, err
	}
	return result, nil
}

// normalize runs records through the worker pool and returns the surviving
// transactions in source order plus the per-record errors sorted by index.
func (imp *Importer) normalize(records []models.RawRecord, desc template.Descriptor, accountID, batchID string) ([]models.Transaction, []StageError) {
	norm := normalizer.New(imp.logger)

	type outcome struct {
		index int
		tx    models.Transaction
		err   *importerror.NormalizationError
	}

	outcomes := make([]outcome, len(records))
	var wg sync.WaitGroup

	pool, poolErr := ants.NewPool(imp.tuning.Workers)
	if poolErr == nil {
		defer pool.Release()
	}

	for i, rec := range records {
		task := func() {
			defer wg.Done()
			tx, err := norm.Normalize(rec, desc, accountID, batchID)
			if err != nil {
				outcomes[i] = outcome{index: rec.Index, err: err.(*importerror.NormalizationError)}
				return
			}
			outcomes[i] = outcome{index: rec.Index, tx: tx}
		}

		wg.Add(1)
		if poolErr == nil {
			if err := pool.Submit(task); err != nil {
				task()
			}
		} else {
			task()
		}
	}
	wg.Wait()

	var txs []models.Transaction
	var errors []StageError
	for _, o := range outcomes {
		if o.err != nil {
			errors = append(errors, StageError{
				Stage: StageNormalize, Index: o.err.RecordIndex, Reason: o.err.Error(),
			})
			continue
		}
		txs = append(txs, o.tx)
	}

	sort.Slice(errors, func(a, b int) bool { return errors[a].Index < errors[b].Index })
	return txs, errors
}

func (imp *Importer) classify(ctx context.Context, txs []models.Transaction, report *Report, log logging.Logger) {
	classifications, err := imp.classifier.Classify(ctx, txs)
	if err != nil {
		cerr := &importerror.ClassificationError{BatchID: report.BatchID, Err: err}
		log.WithError(cerr).Warn("Classification failed, import unaffected")
		report.Errors = append(report.Errors, StageError{
			Stage: StageClassify, Index: 0, Reason: cerr.Error(),
		})
		return
	}
	report.Classifications = classifications
}

func (imp *Importer) fail(batch *models.ImportBatch, report Report) Report {
	batch.Status = models.StatusFailed
	return imp.finish(batch, report, nil)
}

func (imp *Importer) finish(batch *models.ImportBatch, report Report, commitSet []models.Transaction) Report {
	// Reproducible diagnostics: errors surface in source order no matter
	// which worker finished first.
	sort.SliceStable(report.Errors, func(a, b int) bool {
		return report.Errors[a].Index < report.Errors[b].Index
	})
	batch.Counters.Errors = len(report.Errors)

	report.Status = batch.Status
	report.TotalParsed = batch.Counters.Parsed
	report.TotalNormalized = batch.Counters.Normalized
	report.TotalDuplicates = batch.Counters.Duplicates
	report.TotalSkipped = batch.Counters.Skipped
	report.TotalCommitted = batch.Counters.Committed
	report.Transactions = commitSet

	imp.logger.WithFields(
		logging.Field{Key: logging.FieldBatch, Value: batch.ID},
		logging.Field{Key: logging.FieldStatus, Value: string(batch.Status)},
		logging.Field{Key: "parsed", Value: report.TotalParsed},
		logging.Field{Key: "normalized", Value: report.TotalNormalized},
		logging.Field{Key: "duplicates", Value: report.TotalDuplicates},
		logging.Field{Key: "committed", Value: report.TotalCommitted},
	).Info("Batch finished")
	return report
}

func hashSource(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
