package parser

import (
	"fmt"
	"strings"

	"fjacquet/ledger-import/internal/importerror"
	"fjacquet/ledger-import/internal/logging"
	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/template"
)

// OFXParser parses OFX statements by scanning for repeated transaction
// blocks. OFX 1.x is SGML where value tags have no closing counterpart, so
// the parser works tag-by-tag instead of through an XML document tree; the
// XML-style closing tags of OFX 2.x are tolerated on values.
type OFXParser struct {
	opts   Options
	logger logging.Logger
}

// NewOFXParser creates an OFX parser with the given options.
func NewOFXParser(opts Options, logger logging.Logger) *OFXParser {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &OFXParser{opts: opts.withDefaults(), logger: logger}
}

const (
	ofxBlockOpen  = "<STMTTRN>"
	ofxBlockClose = "</STMTTRN>"
)

// Parse implements Parser for ofx descriptors.
func (p *OFXParser) Parse(data []byte, desc template.Descriptor) (Result, error) {
	text, err := decodeBytes(data, desc.Encoding)
	if err != nil {
		return Result{}, fmt.Errorf("error decoding input as %s: %w", desc.Encoding, err)
	}

	lines := splitLines(text)
	var result Result
	totalBlocks := 0

	for i := 0; i < len(lines); i++ {
		if !strings.EqualFold(strings.TrimSpace(lines[i]), ofxBlockOpen) &&
			!containsTag(lines[i], ofxBlockOpen) {
			continue
		}
		totalBlocks++
		openLine := i + 1

		fields, end, ok := p.scanBlock(lines, i)
		if !ok {
			result.Errors = append(result.Errors, importerror.ParseError{
				Line:   openLine,
				Reason: "unterminated STMTTRN block",
			})
			// Resume after the truncated block instead of rescanning it.
			i = end
			continue
		}
		if len(fields) == 0 {
			result.Errors = append(result.Errors, importerror.ParseError{
				Line:   openLine,
				Reason: "empty STMTTRN block",
			})
			i = end
			continue
		}

		result.Records = append(result.Records, models.RawRecord{
			Index:  openLine,
			Fields: fields,
		})
		i = end
	}

	if totalBlocks == 0 {
		return Result{}, &importerror.ParseFatal{
			ErrorLines: 0,
			TotalLines: len(lines),
			Threshold:  p.opts.FatalErrorRatio,
		}
	}

	ratio := float64(len(result.Errors)) / float64(totalBlocks)
	if ratio > p.opts.FatalErrorRatio {
		return Result{}, &importerror.ParseFatal{
			ErrorLines: len(result.Errors),
			TotalLines: totalBlocks,
			Threshold:  p.opts.FatalErrorRatio,
		}
	}

	p.logger.Info("Parsed OFX statement",
		logging.Field{Key: logging.FieldCount, Value: len(result.Records)},
		logging.Field{Key: "errors", Value: len(result.Errors)})
	return result, nil
}

// scanBlock collects the child tags of one STMTTRN block starting at line
// start. It returns the tag map, the index of the block's last line, and
// whether the block was properly terminated.
func (p *OFXParser) scanBlock(lines []string, start int) (map[string]string, int, bool) {
	fields := make(map[string]string)

	for i := start + 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if strings.EqualFold(line, ofxBlockClose) || containsTag(line, ofxBlockClose) {
			return fields, i, true
		}
		if containsTag(line, ofxBlockOpen) {
			// A new block opened before this one closed.
			return nil, i - 1, false
		}
		tag, value, ok := parseOFXTagLine(line)
		if ok && value != "" {
			fields[tag] = value
		}
	}
	return nil, len(lines) - 1, false
}

// parseOFXTagLine reads an SGML value line of the form <TAG>value, also
// accepting a trailing </TAG>.
func parseOFXTagLine(line string) (string, string, bool) {
	if !strings.HasPrefix(line, "<") {
		return "", "", false
	}
	end := strings.IndexByte(line, '>')
	if end <= 1 {
		return "", "", false
	}
	tag := line[1:end]
	if strings.HasPrefix(tag, "/") {
		return "", "", false
	}
	value := line[end+1:]
	if closeIdx := strings.Index(strings.ToUpper(value), "</"+strings.ToUpper(tag)+">"); closeIdx >= 0 {
		value = value[:closeIdx]
	}
	return strings.ToUpper(tag), strings.TrimSpace(value), true
}

func containsTag(line, tag string) bool {
	return strings.Contains(strings.ToUpper(line), strings.ToUpper(tag))
}
