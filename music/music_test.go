package music

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopMode_Next(t *testing.T) {
	assert.Equal(t, LoopSong, LoopOff.Next())
	assert.Equal(t, LoopQueue, LoopSong.Next())
	assert.Equal(t, LoopOff, LoopQueue.Next())
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("Nightcore")
	require.NoError(t, err)
	assert.Equal(t, FilterNightcore, f)

	f, err = ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterOff, f)

	_, err = ParseFilter("chipmunk")
	var unknown ErrUnknownFilter
	assert.ErrorAs(t, err, &unknown)
}

func TestFilterGraph(t *testing.T) {
	tests := []struct {
		volume   float64
		filter   Filter
		expected string
	}{
		{0.5, FilterOff, "volume=0.5"},
		{1, FilterNightcore, "volume=1,asetrate=48000*1.25,aresample=48000"},
		{0.25, FilterBassboost, "volume=0.25,bass=g=20"},
		{0.5, Filter8D, "volume=0.5,apulsator=hz=0.125"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FilterGraph(tt.volume, tt.filter))
	}
}

func TestBeforeOptions(t *testing.T) {
	assert.Equal(t, "-reconnect 1 -reconnect_streamed 1 -reconnect_delay_max 5", BeforeOptions(0))
	assert.Equal(t, "-ss 42 -reconnect 1 -reconnect_streamed 1 -reconnect_delay_max 5", BeforeOptions(42))
}

func TestTrack_Playable(t *testing.T) {
	now := time.Now()
	fresh := (&Track{ID: "a"}).WithStream("https://cdn/a", now.Add(-time.Minute))
	stale := (&Track{ID: "a"}).WithStream("https://cdn/a", now.Add(-2*time.Hour))
	loaded := FromDescriptor(Descriptor{ID: "a", URL: "https://cdn/a"})

	assert.True(t, fresh.Playable(now, time.Hour))
	assert.False(t, stale.Playable(now, time.Hour))
	assert.False(t, loaded.Playable(now, time.Hour))
	assert.True(t, loaded.Playable(now, 0))
	assert.False(t, (&Track{}).Playable(now, 0))
}

func TestTrack_WithStreamLeavesOriginal(t *testing.T) {
	orig := &Track{ID: "a", StreamURL: "old"}
	refreshed := orig.WithStream("new", time.Now())

	assert.Equal(t, "old", orig.StreamURL)
	assert.Equal(t, "new", refreshed.StreamURL)
}

func TestTrack_FormattedDuration(t *testing.T) {
	assert.Equal(t, "N/A", (&Track{}).FormattedDuration())
	assert.Equal(t, "03:45", (&Track{Duration: 225}).FormattedDuration())
	assert.Equal(t, "1:23:45", (&Track{Duration: 5025}).FormattedDuration())
}

func TestDescriptor_JSONShape(t *testing.T) {
	tr := &Track{ID: "x", Title: "Song", WebpageURL: "https://youtu.be/x", Duration: 61, Requester: Requester{ID: "1"}}
	b, err := json.Marshal(tr.Descriptor())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "x", raw["id"])
	assert.Equal(t, "https://youtu.be/x", raw["webpage_url"])
	assert.Equal(t, float64(61), raw["duration"])
	assert.NotContains(t, raw, "requester")
}
