// Package parser defines the capability interface format parsers implement
// and the factory that dispatches on a descriptor's format kind.
package parser

import (
	"fjacquet/ledger-import/internal/importerror"
	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/template"
)

// Result is the outcome of parsing one source file: the usable raw records,
// the per-line errors that were tolerated, and the count of skipped preamble
// or empty lines.
type Result struct {
	Records      []models.RawRecord
	Errors       []importerror.ParseError
	SkippedLines int
}

// Parser turns raw file bytes plus a descriptor into raw field records.
// Implementations understand one source format (CSV, OFX) and nothing about
// transaction semantics; interpretation belongs to the Normalizer.
//
// Per-record problems are collected into Result.Errors and parsing continues.
// A *importerror.ParseFatal error is returned when the error ratio exceeds the
// configured threshold, which indicates the wrong template rather than a few
// bad lines.
type Parser interface {
	Parse(data []byte, desc template.Descriptor) (Result, error)
}
