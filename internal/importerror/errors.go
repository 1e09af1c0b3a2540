// Package importerror defines the error taxonomy of the import pipeline.
// Per-record errors (ParseError, NormalizationError) never abort a batch;
// batch-scoped errors (ValidationError, ParseFatal, StoreError) do.
package importerror

import "fmt"

// ValidationError reports a template descriptor rejected at registration.
type ValidationError struct {
	TemplateID string
	Field      string
	Reason     string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid template '%s': field '%s': %s", e.TemplateID, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid template '%s': %s", e.TemplateID, e.Reason)
}

// NotFoundError reports a lookup for an unregistered template.
type NotFoundError struct {
	TemplateID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template '%s' not found", e.TemplateID)
}

// ParseError reports a single unusable line or block in a source file.
// The record is excluded from the parse result and parsing continues.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ParseFatal reports a batch-wide parsing failure, raised when the ratio of
// error lines to total lines exceeds the configured threshold. It guards
// against silently accepting a wrong template.
type ParseFatal struct {
	ErrorLines int
	TotalLines int
	Threshold  float64
}

func (e *ParseFatal) Error() string {
	return fmt.Sprintf("parse abandoned: %d of %d lines failed (threshold %.0f%%)",
		e.ErrorLines, e.TotalLines, e.Threshold*100)
}

// NormalizationError reports a raw record that could not be turned into a
// canonical transaction. The batch proceeds with the remaining records.
type NormalizationError struct {
	RecordIndex int
	Field       string
	Reason      string
}

func (e *NormalizationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("record %d: field '%s': %s", e.RecordIndex, e.Field, e.Reason)
	}
	return fmt.Sprintf("record %d: %s", e.RecordIndex, e.Reason)
}

// Reasons used by NormalizationError.Reason for the well-known failure modes.
const (
	ReasonMissingField  = "missing required field"
	ReasonInvalidDate   = "unparseable date"
	ReasonInvalidAmount = "unparseable amount"
)

// StoreError reports a failed store operation. A StoreError during commit
// aborts the batch with nothing committed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ClassificationError reports a failed AI classification run. It is recorded
// in the import report but never fails the import.
type ClassificationError struct {
	BatchID string
	Err     error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed for batch %s: %v", e.BatchID, e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}
