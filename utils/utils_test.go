package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type DurationTestCase struct {
	input    time.Duration
	expected string
}

func TestFormatDuration(t *testing.T) {
	tests := []DurationTestCase{
		{0 * time.Second, "00:00"},
		{45 * time.Second, "00:45"},
		{3*time.Minute + 45*time.Second, "03:45"},
		{1*time.Hour + 23*time.Minute + 45*time.Second, "1:23:45"},
		{48*time.Hour + 30*time.Minute + 15*time.Second, "48:30:15"},
		{-5 * time.Second, "00:00"},
	}

	for _, tt := range tests {
		result := FormatDuration(tt.input)
		assert.Equal(t, tt.expected, result)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"90", 90},
		{"1:30", 90},
		{"01:02:03", 3723},
		{"1h30m15s", 5415},
		{"2m", 120},
		{"45s", 45},
		{" 10 ", 10},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.input)
		assert.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, got, tt.input)
	}

	for _, bad := range []string{"", "abc", "1:2:3:4", "1:-2", "-5", "h"} {
		_, err := ParseTimestamp(bad)
		assert.ErrorIs(t, err, ErrInvalidTimestamp, bad)
	}
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "🔘▬▬▬▬▬▬▬▬▬", ProgressBar(0, 100, 10))
	assert.Equal(t, "▬▬▬▬▬🔘▬▬▬▬", ProgressBar(50, 100, 10))
	assert.Equal(t, "▬▬▬▬▬▬▬▬▬🔘", ProgressBar(100, 100, 10))
	assert.Equal(t, "▬▬▬▬▬", ProgressBar(10, 0, 5))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "a long...", Truncate("a long title here", 9))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}
