package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"fjacquet/ledger-import/internal/importerror"
	"fjacquet/ledger-import/internal/logging"
	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/template"
)

// CSVParser parses delimiter-separated statement files. Vendor exports often
// carry summary or header noise before the real table, so the parser scans a
// bounded number of preamble lines until it finds a line whose tokens match
// the descriptor's mapped source column names.
type CSVParser struct {
	opts   Options
	logger logging.Logger
}

// NewCSVParser creates a CSV parser with the given options.
func NewCSVParser(opts Options, logger logging.Logger) *CSVParser {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &CSVParser{opts: opts.withDefaults(), logger: logger}
}

// Parse implements Parser for csv descriptors.
func (p *CSVParser) Parse(data []byte, desc template.Descriptor) (Result, error) {
	text, err := decodeBytes(data, desc.Encoding)
	if err != nil {
		return Result{}, fmt.Errorf("error decoding input as %s: %w", desc.Encoding, err)
	}

	lines := splitLines(text)
	sep := rune(desc.Separator[0])

	headerIdx, header := p.findHeader(lines, sep, desc)
	if headerIdx < 0 {
		return Result{}, &importerror.ParseFatal{
			ErrorLines: len(lines),
			TotalLines: len(lines),
			Threshold:  p.opts.FatalErrorRatio,
		}
	}

	p.logger.Debug("Located CSV header",
		logging.Field{Key: logging.FieldLine, Value: headerIdx + 1},
		logging.Field{Key: logging.FieldTemplate, Value: desc.ID})

	result := Result{SkippedLines: headerIdx}

	totalDataLines := 0
	for i := headerIdx + 1; i < len(lines); i++ {
		lineNo := i + 1 // 1-based position in the source file
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			result.SkippedLines++
			continue
		}
		totalDataLines++

		tokens, err := splitCSVLine(line, sep)
		if err != nil {
			result.Errors = append(result.Errors, importerror.ParseError{
				Line:   lineNo,
				Reason: err.Error(),
			})
			continue
		}
		if len(tokens) != len(header) {
			result.Errors = append(result.Errors, importerror.ParseError{
				Line:   lineNo,
				Reason: fmt.Sprintf("expected %d fields, got %d", len(header), len(tokens)),
			})
			continue
		}

		fields := make(map[string]string, len(header))
		for j, col := range header {
			fields[col] = strings.TrimSpace(tokens[j])
		}
		result.Records = append(result.Records, models.RawRecord{
			Index:  lineNo,
			Fields: fields,
		})
	}

	if totalDataLines > 0 {
		ratio := float64(len(result.Errors)) / float64(totalDataLines)
		if ratio > p.opts.FatalErrorRatio {
			return Result{}, &importerror.ParseFatal{
				ErrorLines: len(result.Errors),
				TotalLines: totalDataLines,
				Threshold:  p.opts.FatalErrorRatio,
			}
		}
	}

	p.logger.Info("Parsed CSV statement",
		logging.Field{Key: logging.FieldCount, Value: len(result.Records)},
		logging.Field{Key: "errors", Value: len(result.Errors)})
	return result, nil
}

// findHeader scans up to PreambleLimit lines for one satisfying the
// descriptor's required column mappings. Returns the 0-based line index and
// the cleaned header tokens, or -1 when no line matches.
func (p *CSVParser) findHeader(lines []string, sep rune, desc template.Descriptor) (int, []string) {
	limit := p.opts.PreambleLimit
	if limit > len(lines) {
		limit = len(lines)
	}

	for i := 0; i < limit; i++ {
		tokens, err := splitCSVLine(lines[i], sep)
		if err != nil {
			continue
		}
		if matchesHeader(tokens, desc) {
			header := make([]string, len(tokens))
			for j, tok := range tokens {
				header[j] = strings.TrimSpace(tok)
			}
			return i, header
		}
	}
	return -1, nil
}

// matchesHeader reports whether the tokens cover at least one source column
// alternative for every required canonical field, ignoring case. When the
// descriptor resolves signs through an indicator column that column must be
// present too.
func matchesHeader(tokens []string, desc template.Descriptor) bool {
	present := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		present[strings.ToLower(strings.TrimSpace(tok))] = true
	}

	for _, canonical := range template.RequiredFields() {
		found := false
		for _, src := range desc.Fields[canonical] {
			if present[strings.ToLower(src)] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if desc.EffectiveSign() == template.SignIndicator && !present[strings.ToLower(desc.TypeColumn)] {
		return false
	}
	return true
}

// splitCSVLine splits one line by sep respecting quoted fields.
func splitCSVLine(line string, sep rune) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = false

	tokens, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty line")
	}
	if err != nil {
		if parseErr, ok := err.(*csv.ParseError); ok {
			return nil, fmt.Errorf("malformed csv: %v", parseErr.Err)
		}
		return nil, err
	}
	return tokens, nil
}

// decodeBytes converts raw file bytes to a UTF-8 string using the charset
// label declared by the descriptor. An empty label means utf-8.
func decodeBytes(data []byte, label string) (string, error) {
	if label == "" || strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "utf8") {
		return string(data), nil
	}
	reader, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// splitLines splits decoded text into lines, tolerating both \n and \r\n.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
