package queue

import (
	"testing"

	"Nocturne/music"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func track(id string) *music.Track {
	return &music.Track{ID: id, Title: "Song " + id, WebpageURL: "https://www.youtube.com/watch?v=" + id, Duration: 100}
}

func ids(tracks []*music.Track) []string {
	out := make([]string, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, t.ID)
	}
	return out
}

func TestNext_QueueLoopRequeuesCurrent(t *testing.T) {
	g := newGuildState("g")
	g.Pending = []*music.Track{track("A"), track("B")}
	g.Current = track("C")
	g.Loop = music.LoopQueue

	next := g.next()

	require.NotNil(t, next)
	assert.Equal(t, "A", next.ID)
	assert.Equal(t, "A", g.Current.ID)
	assert.Equal(t, []string{"B", "C"}, ids(g.Pending))
}

func TestNext_SongLoopRepeatsCurrent(t *testing.T) {
	g := newGuildState("g")
	g.Pending = []*music.Track{track("A"), track("B")}
	c := track("C")
	g.Current = c
	g.Loop = music.LoopSong

	next := g.next()

	assert.Same(t, c, next)
	assert.Equal(t, []string{"A", "B"}, ids(g.Pending))
}

func TestNext_SongLoopWithoutCurrentPops(t *testing.T) {
	g := newGuildState("g")
	g.Pending = []*music.Track{track("A")}
	g.Loop = music.LoopSong

	assert.Equal(t, "A", g.next().ID)
	assert.Empty(t, g.Pending)
	// the popped track is now looped
	assert.Equal(t, "A", g.next().ID)
}

func TestNext_SongLoopEmptyNoCurrent(t *testing.T) {
	g := newGuildState("g")
	g.Loop = music.LoopSong

	assert.Nil(t, g.next())
	assert.Nil(t, g.Current)
}

func TestNext_OffEmptyClearsCurrent(t *testing.T) {
	g := newGuildState("g")
	g.Current = track("C")

	assert.Nil(t, g.next())
	assert.Nil(t, g.Current)
}

func TestNext_OffPopsInOrder(t *testing.T) {
	g := newGuildState("g")
	g.Pending = []*music.Track{track("A"), track("B")}

	assert.Equal(t, "A", g.next().ID)
	assert.Equal(t, "B", g.next().ID)
	assert.Nil(t, g.next())
}

func TestNext_QueueLoopSingleTrackStops(t *testing.T) {
	g := newGuildState("g")
	g.Pending = []*music.Track{track("A")}
	g.Loop = music.LoopQueue

	first := g.next()
	require.NotNil(t, first)
	assert.Equal(t, "A", first.ID)

	// nothing pending once the only track is current
	assert.Nil(t, g.next())
	assert.Nil(t, g.Current)
	assert.Empty(t, g.Pending)
}

func TestNext_QueueLoopRotates(t *testing.T) {
	g := newGuildState("g")
	g.Pending = []*music.Track{track("A"), track("B")}
	g.Loop = music.LoopQueue

	assert.Equal(t, "A", g.next().ID)
	assert.Equal(t, "B", g.next().ID)
	assert.Equal(t, "A", g.next().ID)
	assert.Len(t, g.Pending, 1)
}

func TestRemoveAt_Bounds(t *testing.T) {
	g := newGuildState("g")
	g.Pending = []*music.Track{track("A"), track("B"), track("C")}

	assert.Nil(t, g.removeAt(-1))
	assert.Nil(t, g.removeAt(3))
	assert.Equal(t, []string{"A", "B", "C"}, ids(g.Pending))

	assert.Equal(t, "B", g.removeAt(1).ID)
	assert.Equal(t, []string{"A", "C"}, ids(g.Pending))
}

func TestMove(t *testing.T) {
	g := newGuildState("g")
	g.Pending = []*music.Track{track("A"), track("B"), track("C"), track("D")}

	assert.True(t, g.move(0, 2))
	assert.Equal(t, []string{"B", "C", "A", "D"}, ids(g.Pending))

	assert.True(t, g.move(3, 0))
	assert.Equal(t, []string{"D", "B", "C", "A"}, ids(g.Pending))

	assert.False(t, g.move(0, 4))
	assert.False(t, g.move(-1, 0))
	assert.Equal(t, []string{"D", "B", "C", "A"}, ids(g.Pending))
}

func TestShuffle_KeepsTracks(t *testing.T) {
	g := newGuildState("g")
	for _, id := range []string{"A", "B", "C", "D", "E", "F"} {
		g.Pending = append(g.Pending, track(id))
	}
	g.shuffle()
	assert.ElementsMatch(t, []string{"A", "B", "C", "D", "E", "F"}, ids(g.Pending))
}

func TestSettings_RoundTrip(t *testing.T) {
	g := newGuildState("g")
	g.Volume = 0.8
	g.Loop = music.LoopQueue
	g.Filter = music.FilterNightcore
	g.Always = true
	g.Autoplay = true
	g.RequestChannelID = "123456789012345678"

	h := newGuildState("g")
	h.applySettings(g.settings())

	assert.Equal(t, 0.8, h.Volume)
	assert.Equal(t, music.LoopQueue, h.Loop)
	assert.Equal(t, music.FilterNightcore, h.Filter)
	assert.True(t, h.Always)
	assert.True(t, h.Autoplay)
	assert.Equal(t, "123456789012345678", h.RequestChannelID)
}
