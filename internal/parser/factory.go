package parser

import (
	"fmt"

	"fjacquet/ledger-import/internal/logging"
	"fjacquet/ledger-import/internal/template"
)

// Options tune parser behavior. Zero values fall back to defaults.
type Options struct {
	// PreambleLimit bounds how many non-tabular lines may precede the real
	// CSV header. Default 50.
	PreambleLimit int
	// FatalErrorRatio is the error-line ratio above which a parse is
	// abandoned as ParseFatal. Default 0.20.
	FatalErrorRatio float64
}

func (o Options) withDefaults() Options {
	if o.PreambleLimit <= 0 {
		o.PreambleLimit = 50
	}
	if o.FatalErrorRatio <= 0 {
		o.FatalErrorRatio = 0.20
	}
	return o
}

// ForKind returns the parser for a descriptor's format kind. Adding a format
// means implementing Parser and adding a case here; the orchestrator never
// branches on formats itself.
func ForKind(kind template.Kind, opts Options, logger logging.Logger) (Parser, error) {
	switch kind {
	case template.KindCSV:
		return NewCSVParser(opts, logger), nil
	case template.KindOFX:
		return NewOFXParser(opts, logger), nil
	default:
		return nil, fmt.Errorf("unknown format kind: %s", kind)
	}
}
