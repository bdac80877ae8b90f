package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestLink(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"check this https://www.youtube.com/watch?v=abc out", "https://www.youtube.com/watch?v=abc"},
		{"https://example.com/x https://youtu.be/abc", "https://youtu.be/abc"},
		{"https://open.spotify.com/track/123", "https://open.spotify.com/track/123"},
		{"https://example.com/only", ""},
		{"no links here", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, requestLink(tt.content), tt.content)
	}
}

func TestShouldLeave(t *testing.T) {
	assert.True(t, shouldLeave("vc", "vc", 0, false))
	assert.False(t, shouldLeave("vc", "vc", 0, true))
	assert.False(t, shouldLeave("vc", "vc", 1, false))
	assert.False(t, shouldLeave("vc", "other", 0, false))
	assert.False(t, shouldLeave("", "", 0, false))
}
