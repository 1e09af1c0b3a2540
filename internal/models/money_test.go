package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMinorUnits(t *testing.T) {
	tests := []struct {
		name       string
		amount     string
		format     ValueFormat
		expectedOk bool
		expected   int64
	}{
		{"BR with thousands", "1.234,56", ValueFormatBR, true, 123456},
		{"BR plain", "1234,56", ValueFormatBR, true, 123456},
		{"BR negative", "-1.234,56", ValueFormatBR, true, -123456},
		{"BR currency marker", "R$ 99,90", ValueFormatBR, true, 9990},
		{"BR integer", "150", ValueFormatBR, true, 15000},
		{"BR single decimal", "10,5", ValueFormatBR, true, 1050},
		{"US with thousands", "1,234.56", ValueFormatUS, true, 123456},
		{"US plain", "1234.56", ValueFormatUS, true, 123456},
		{"US negative", "-1234.56", ValueFormatUS, true, -123456},
		{"US explicit plus", "+42.00", ValueFormatUS, true, 4200},
		{"US accounting parens", "(123.45)", ValueFormatUS, true, -12345},
		{"US dollar sign", "$2,000.00", ValueFormatUS, true, 200000},
		{"Euro marker", "€ 12.00", ValueFormatUS, true, 1200},
		{"Zero", "0,00", ValueFormatBR, true, 0},
		{"Three decimals rejected", "1.234,567", ValueFormatBR, false, 0},
		{"Garbage", "abc", ValueFormatBR, false, 0},
		{"Empty", "", ValueFormatBR, false, 0},
		{"Blank", "   ", ValueFormatUS, false, 0},
		{"Unknown format is an error", "10.00", ValueFormat("EU"), false, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			minor, err := ParseMinorUnits(tc.amount, tc.format)
			if !tc.expectedOk {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, minor)
		})
	}
}

// Formats written by the two conventions for the same value must agree once
// parsed, so ledgers mixing template formats stay comparable.
func TestParseMinorUnitsFormatsAgree(t *testing.T) {
	br, err := ParseMinorUnits("1.234,56", ValueFormatBR)
	require.NoError(t, err)
	us, err := ParseMinorUnits("1234.56", ValueFormatUS)
	require.NoError(t, err)
	assert.Equal(t, br, us)
	assert.Equal(t, int64(123456), br)
}

func TestFormatMinorUnits(t *testing.T) {
	assert.Equal(t, "1234.56", FormatMinorUnits(123456))
	assert.Equal(t, "-1234.56", FormatMinorUnits(-123456))
	assert.Equal(t, "0.05", FormatMinorUnits(5))
	assert.Equal(t, "0.00", FormatMinorUnits(0))
}

func TestIsKnownValueFormat(t *testing.T) {
	assert.True(t, IsKnownValueFormat(ValueFormatBR))
	assert.True(t, IsKnownValueFormat(ValueFormatUS))
	assert.False(t, IsKnownValueFormat(ValueFormat("EU")))
	assert.False(t, IsKnownValueFormat(ValueFormat("")))
}
