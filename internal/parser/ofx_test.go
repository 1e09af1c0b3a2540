package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/ledger-import/internal/importerror"
	"fjacquet/ledger-import/internal/logging"
	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/template"
)

func ofxDescriptor() template.Descriptor {
	return template.Descriptor{
		ID:          "generic-ofx",
		Kind:        template.KindOFX,
		DateFormat:  "YYYYMMDD",
		ValueFormat: models.ValueFormatUS,
		Currency:    "BRL",
		Fields: map[string][]string{
			template.FieldDate:        {"DTPOSTED"},
			template.FieldDescription: {"NAME", "MEMO"},
			template.FieldAmount:      {"TRNAMT"},
			template.FieldExternalRef: {"FITID"},
		},
	}
}

const ofxSample = `OFXHEADER:100
DATA:OFXSGML
VERSION:102

<OFX>
<BANKMSGSRSV1>
<STMTTRNRS>
<BANKTRANLIST>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240801120000[-3:BRT]
<TRNAMT>-1234.56
<FITID>20240801001
<NAME>COMPRA CARTAO
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240815
<TRNAMT>500.00
<FITID>20240815002
<MEMO>DEPOSITO RECEBIDO
</STMTTRN>
</BANKTRANLIST>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>
`

func TestOFXParser(t *testing.T) {
	p := NewOFXParser(Options{}, logging.NewMockLogger())
	result, err := p.Parse([]byte(ofxSample), ofxDescriptor())
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	assert.Empty(t, result.Errors)

	first := result.Records[0]
	v, _ := first.Get("DTPOSTED")
	assert.Equal(t, "20240801120000[-3:BRT]", v)
	v, _ = first.Get("TRNAMT")
	assert.Equal(t, "-1234.56", v)
	v, _ = first.Get("FITID")
	assert.Equal(t, "20240801001", v)
	v, _ = first.Get("NAME")
	assert.Equal(t, "COMPRA CARTAO", v)

	second := result.Records[1]
	v, _ = second.Get("MEMO")
	assert.Equal(t, "DEPOSITO RECEBIDO", v)
	_, ok := second.Get("NAME")
	assert.False(t, ok)
}

// OFX 2.x writes XML-style closing tags on values; they are tolerated.
func TestOFXParserClosedValueTags(t *testing.T) {
	sample := `<OFX>
<STMTTRN>
<DTPOSTED>20240801</DTPOSTED>
<TRNAMT>-10.00</TRNAMT>
<FITID>abc-1</FITID>
<NAME>LOJA XYZ</NAME>
</STMTTRN>
</OFX>
`
	p := NewOFXParser(Options{}, logging.NewMockLogger())
	result, err := p.Parse([]byte(sample), ofxDescriptor())
	require.NoError(t, err)
	require.Len(t, result.Records, 1)

	v, _ := result.Records[0].Get("NAME")
	assert.Equal(t, "LOJA XYZ", v)
}

func TestOFXParserUnterminatedBlock(t *testing.T) {
	sample := `<OFX>
<STMTTRN>
<DTPOSTED>20240801
<TRNAMT>-10.00
<STMTTRN>
<DTPOSTED>20240802
<TRNAMT>-20.00
<FITID>ok-2
<NAME>SEGUNDA
</STMTTRN>
<STMTTRN>
<DTPOSTED>20240803
<TRNAMT>-30.00
<FITID>ok-3
<NAME>TERCEIRA
</STMTTRN>
<STMTTRN>
<DTPOSTED>20240804
<TRNAMT>-40.00
<FITID>ok-4
<NAME>QUARTA
</STMTTRN>
</OFX>
`
	p := NewOFXParser(Options{FatalErrorRatio: 0.5}, logging.NewMockLogger())
	result, err := p.Parse([]byte(sample), ofxDescriptor())
	require.NoError(t, err)

	assert.Len(t, result.Records, 3)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Line)
	assert.Contains(t, result.Errors[0].Reason, "unterminated")
}

func TestOFXParserEmptyBlock(t *testing.T) {
	sample := `<OFX>
<STMTTRN>
</STMTTRN>
<STMTTRN>
<DTPOSTED>20240801
<TRNAMT>-10.00
<FITID>ok-1
<NAME>OK
</STMTTRN>
<STMTTRN>
<DTPOSTED>20240802
<TRNAMT>-20.00
<FITID>ok-2
<NAME>OK
</STMTTRN>
</OFX>
`
	p := NewOFXParser(Options{FatalErrorRatio: 0.5}, logging.NewMockLogger())
	result, err := p.Parse([]byte(sample), ofxDescriptor())
	require.NoError(t, err)

	assert.Len(t, result.Records, 2)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Reason, "empty")
}

// No transaction blocks at all means the file does not match the template.
func TestOFXParserNoBlocks(t *testing.T) {
	p := NewOFXParser(Options{}, logging.NewMockLogger())
	_, err := p.Parse([]byte("DATA,DESCRICAO,VALOR\n01/08/2024,X,\"1,00\"\n"), ofxDescriptor())

	var fatal *importerror.ParseFatal
	assert.ErrorAs(t, err, &fatal)
}

func TestOFXParserFatalErrorRatio(t *testing.T) {
	sample := `<OFX>
<STMTTRN>
</STMTTRN>
<STMTTRN>
<DTPOSTED>20240801
<TRNAMT>-10.00
<FITID>ok-1
<NAME>OK
</STMTTRN>
</OFX>
`
	p := NewOFXParser(Options{FatalErrorRatio: 0.20}, logging.NewMockLogger())
	_, err := p.Parse([]byte(sample), ofxDescriptor())

	var fatal *importerror.ParseFatal
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, 1, fatal.ErrorLines)
	assert.Equal(t, 2, fatal.TotalLines)
}

func TestOFXParserLowercaseTags(t *testing.T) {
	sample := `<ofx>
<stmttrn>
<dtposted>20240801
<trnamt>-10.00
<fitid>low-1
<name>minusculo
</stmttrn>
</ofx>
`
	p := NewOFXParser(Options{}, logging.NewMockLogger())
	result, err := p.Parse([]byte(sample), ofxDescriptor())
	require.NoError(t, err)
	require.Len(t, result.Records, 1)

	v, ok := result.Records[0].Get("DTPOSTED")
	assert.True(t, ok)
	assert.Equal(t, "20240801", v)
}
