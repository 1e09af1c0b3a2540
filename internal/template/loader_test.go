package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/ledger-import/internal/logging"
)

const templateDoc = `templates:
  - id: bank-br-csv
    institution: Some Bank
    kind: csv
    separator: ","
    date_format: DD/MM/YYYY
    value_format: BR
    currency: BRL
    sign: signed
    fields:
      date: [DATA]
      description: [DESCRICAO, HISTORICO]
      amount: [VALOR]
  - id: bank-ofx
    institution: Some Bank
    kind: ofx
    date_format: YYYYMMDD
    value_format: US
    currency: BRL
    sign: signed
    fields:
      date: [DTPOSTED]
      description: [NAME, MEMO]
      amount: [TRNAMT]
      external_ref: [FITID]
`

func writeTemplateFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	reg := NewRegistry()
	path := writeTemplateFile(t, templateDoc)

	n, err := LoadFile(path, reg, logging.NewMockLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, reg.Len())

	desc, err := reg.Get("bank-ofx")
	require.NoError(t, err)
	assert.Equal(t, KindOFX, desc.Kind)
	assert.Equal(t, []string{"NAME", "MEMO"}, desc.Fields[FieldDescription])
}

func TestLoadFileInvalidDescriptorFailsWholeLoad(t *testing.T) {
	bad := `templates:
  - id: ok-one
    kind: csv
    separator: ","
    date_format: DD/MM/YYYY
    value_format: BR
    currency: BRL
    sign: signed
    fields:
      date: [DATA]
      description: [DESCRICAO]
      amount: [VALOR]
  - id: broken
    kind: csv
    separator: ","
    date_format: NOT-A-FORMAT
    value_format: BR
    currency: BRL
    sign: signed
    fields:
      date: [DATA]
      description: [DESCRICAO]
      amount: [VALOR]
`
	reg := NewRegistry()
	path := writeTemplateFile(t, bad)

	_, err := LoadFile(path, reg, logging.NewMockLogger())
	assert.Error(t, err)
}

func TestLoadFileMissing(t *testing.T) {
	reg := NewRegistry()
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"), reg, logging.NewMockLogger())
	assert.Error(t, err)
}

func TestLoadFileMalformedYAML(t *testing.T) {
	reg := NewRegistry()
	path := writeTemplateFile(t, "templates: [unclosed")
	_, err := LoadFile(path, reg, logging.NewMockLogger())
	assert.Error(t, err)
}
