package dateutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutFor(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		expectedOk bool
		expected   string
	}{
		{"Brazilian slash", "DD/MM/YYYY", true, "02/01/2006"},
		{"US slash", "MM/DD/YYYY", true, "01/02/2006"},
		{"ISO", "YYYY-MM-DD", true, "2006-01-02"},
		{"Compact", "YYYYMMDD", true, "20060102"},
		{"Lowercase token", "dd/mm/yyyy", true, "02/01/2006"},
		{"Padded token", "  YYYYMMDD  ", true, "20060102"},
		{"Go reference time is not a token", "02/01/2006", false, ""},
		{"Empty", "", false, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			layout, err := LayoutFor(tc.token)
			if tc.expectedOk {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, layout)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestIsKnownFormat(t *testing.T) {
	assert.True(t, IsKnownFormat("DD/MM/YYYY"))
	assert.True(t, IsKnownFormat("yyyy/mm/dd"))
	assert.False(t, IsKnownFormat("DD MM YYYY"))
	assert.False(t, IsKnownFormat(""))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		token      string
		expectedOk bool
		expectedY  int
		expectedM  time.Month
		expectedD  int
	}{
		{"Brazilian date", "15/08/2024", "DD/MM/YYYY", true, 2024, time.August, 15},
		{"Compact date", "20240801", "YYYYMMDD", true, 2024, time.August, 1},
		{"DTPOSTED with time suffix", "20240801120000", "YYYYMMDD", true, 2024, time.August, 1},
		{"DTPOSTED with timezone", "20240801120000[-3:BRT]", "YYYYMMDD", true, 2024, time.August, 1},
		{"ISO date", "2024-02-29", "YYYY-MM-DD", true, 2024, time.February, 29},
		{"Whitespace tolerated", " 15/08/2024 ", "DD/MM/YYYY", true, 2024, time.August, 15},
		{"Wrong token for value", "2024-08-15", "DD/MM/YYYY", false, 0, 0, 0},
		{"Impossible date", "32/01/2024", "DD/MM/YYYY", false, 0, 0, 0},
		{"Unknown token", "15/08/2024", "WEIRD", false, 0, 0, 0},
		{"Empty value", "", "DD/MM/YYYY", false, 0, 0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			date, err := ParseDate(tc.value, tc.token)
			if !tc.expectedOk {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedY, date.Year())
			assert.Equal(t, tc.expectedM, date.Month())
			assert.Equal(t, tc.expectedD, date.Day())
		})
	}
}

func TestToISODate(t *testing.T) {
	date, err := ParseDate("01/08/2024", "DD/MM/YYYY")
	require.NoError(t, err)
	assert.Equal(t, "2024-08-01", ToISODate(date))
}
