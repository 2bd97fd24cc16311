package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 5, 12, 8, 30, 0, 0, time.UTC)

	cases := []struct {
		name  string
		input interface{}
	}{
		{"time value", want.In(time.FixedZone("ICT", 7*3600))},
		{"time pointer", &want},
		{"rfc3339 string", "2024-05-12T15:30:00+07:00"},
		{"iso string with millis", "2024-05-12T08:30:00.000Z"},
		{"epoch millis float", float64(want.UnixMilli())},
		{"epoch millis int64", want.UnixMilli()},
		{"epoch millis string", "1715502600000"},
		{"firestore timestamp map", map[string]interface{}{"seconds": float64(want.Unix()), "nanoseconds": float64(0)}},
		{"admin sdk timestamp map", map[string]interface{}{"_seconds": float64(want.Unix()), "_nanoseconds": float64(0)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTime(tc.input)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseTimeRejectsGarbage(t *testing.T) {
	for _, input := range []interface{}{nil, "", "next tuesday", true, map[string]interface{}{"foo": 1}} {
		_, err := ParseTime(input)
		assert.Error(t, err, "input %v", input)
	}
}

func TestParseTimeDateOnly(t *testing.T) {
	got, err := ParseTime("2024-05-12")
	require.NoError(t, err)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.May, got.Month())
	assert.Equal(t, 12, got.Day())
}
