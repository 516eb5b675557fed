package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	may1 := Date{Year: 2024, Month: time.May, Day: 1}
	tests := []struct {
		in   string
		want Date
	}{
		{"2024-05-01", may1},
		{"  2024-05-01 ", may1},
		{"2024-05-01T18:30:00Z", may1},
		{"2024-05-01 18:30", may1},
		// late UTC timestamp keeps the date as written
		{"2024-05-01T23:59:59-08:00", may1},
		{"2024-05-01T00:00:00.000Z", may1},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseDateRejects(t *testing.T) {
	for _, in := range []string{
		"",
		"2024-05",
		"2024-05-01X",
		"2024-05-011",
		"2024-13-01",
		"2024-02-30",
		"01/05/2024",
	} {
		_, err := ParseDate(in)
		assert.ErrorIs(t, err, ErrInvalidDate, "input %q", in)
	}
}

func TestDateJSON(t *testing.T) {
	data, err := json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	data, err = json.Marshal(MustParseDate("2024-05-01"))
	require.NoError(t, err)
	assert.Equal(t, `"2024-05-01"`, string(data))

	var payload struct {
		A Date `json:"a"`
		B Date `json:"b"`
		C Date `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":null,"b":"","c":"2024-06-10T09:00:00Z"}`), &payload))
	assert.True(t, payload.A.IsZero())
	assert.True(t, payload.B.IsZero())
	assert.Equal(t, MustParseDate("2024-06-10"), payload.C)

	var d Date
	assert.ErrorIs(t, json.Unmarshal([]byte(`20240501`), &d), ErrInvalidDate)
	assert.ErrorIs(t, json.Unmarshal([]byte(`"2024-05-01X"`), &d), ErrInvalidDate)
}

func TestDateArithmetic(t *testing.T) {
	assert.Equal(t, MustParseDate("2024-05-01"), MustParseDate("2024-04-30").AddDays(1))
	assert.Equal(t, MustParseDate("2024-02-29"), MustParseDate("2024-03-01").AddDays(-1))
	assert.Equal(t, MustParseDate("2025-01-01"), MustParseDate("2024-12-31").AddDays(1))
	assert.True(t, MustParseDate("2024-04-30").Before(MustParseDate("2024-05-01")))
	assert.False(t, MustParseDate("2024-05-01").Before(MustParseDate("2024-05-01")))
	assert.Empty(t, Date{}.String())
	assert.Equal(t, "2024-05-01", MustParseDate("2024-05-01").String())
}
