package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{
		"2024-03-05",
		"05/03/2024",
		"2024/03/05",
		" 2024-03-05T18:30:00Z ",
		strconv.FormatInt(time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC).Unix(), 10),
	} {
		got, ok := ParseDate(s)
		require.True(t, ok, s)
		assert.Equal(t, want, got, s)
	}

	_, ok := ParseDate("yesterday")
	assert.False(t, ok)
	_, ok = ParseDate("")
	assert.False(t, ok)
}

func TestParseDateDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, def, ParseDateDefault("", def))
}

func TestParseQuantity(t *testing.T) {
	cases := map[string]float64{"": 0, "12": 12, "12.5": 12.5, "12,5": 12.5, " 3 ": 3}
	for in, want := range cases {
		got, err := ParseQuantity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseQuantity("-1")
	assert.Error(t, err)
	_, err = ParseQuantity("1,000.5")
	assert.Error(t, err)
}
