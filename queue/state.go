package queue

import (
	"math/rand/v2"
	"time"

	"Nocturne/music"
)

// GuildState is the queue and playback settings of one guild.
type GuildState struct {
	GuildID          string
	Pending          []*music.Track
	Current          *music.Track
	Loop             music.LoopMode
	Volume           float64
	Filter           music.Filter
	StartedAt        time.Time
	SkipVotes        map[string]struct{}
	Autoplay         bool
	Always           bool // stay connected when the channel empties (24/7)
	RequestChannelID string
}

func newGuildState(guildID string) *GuildState {
	return &GuildState{
		GuildID:   guildID,
		Loop:      music.LoopOff,
		Volume:    0.5,
		Filter:    music.FilterOff,
		SkipVotes: map[string]struct{}{},
	}
}

// next advances the queue and returns the track to play, or nil when
// nothing is left.
func (g *GuildState) next() *music.Track {
	if len(g.Pending) == 0 && g.Loop != music.LoopSong {
		g.Current = nil
		return nil
	}
	if g.Loop == music.LoopSong && g.Current != nil {
		return g.Current
	}
	if g.Loop == music.LoopQueue && g.Current != nil {
		g.Pending = append(g.Pending, g.Current)
	}
	if len(g.Pending) == 0 {
		g.Current = nil
		return nil
	}
	g.Current = g.Pending[0]
	g.Pending[0] = nil
	g.Pending = g.Pending[1:]
	return g.Current
}

func (g *GuildState) removeAt(i int) *music.Track {
	if i < 0 || i >= len(g.Pending) {
		return nil
	}
	t := g.Pending[i]
	g.Pending = append(g.Pending[:i], g.Pending[i+1:]...)
	return t
}

func (g *GuildState) move(from, to int) bool {
	n := len(g.Pending)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	t := g.Pending[from]
	g.Pending = append(g.Pending[:from], g.Pending[from+1:]...)
	g.Pending = append(g.Pending[:to], append([]*music.Track{t}, g.Pending[to:]...)...)
	return true
}

func (g *GuildState) shuffle() {
	rand.Shuffle(len(g.Pending), func(i, j int) {
		g.Pending[i], g.Pending[j] = g.Pending[j], g.Pending[i]
	})
}

func (g *GuildState) duration() int {
	total := 0
	for _, t := range g.Pending {
		total += t.Duration
	}
	return total
}

// Snapshot is a copy of a GuildState safe to read without locking.
type Snapshot struct {
	GuildID          string
	Pending          []*music.Track
	Current          *music.Track
	Loop             music.LoopMode
	Volume           float64
	Filter           music.Filter
	StartedAt        time.Time
	SkipVotes        int
	Autoplay         bool
	Always           bool
	RequestChannelID string
}

func (g *GuildState) snapshot() Snapshot {
	return Snapshot{
		GuildID:          g.GuildID,
		Pending:          append([]*music.Track(nil), g.Pending...),
		Current:          g.Current,
		Loop:             g.Loop,
		Volume:           g.Volume,
		Filter:           g.Filter,
		StartedAt:        g.StartedAt,
		SkipVotes:        len(g.SkipVotes),
		Autoplay:         g.Autoplay,
		Always:           g.Always,
		RequestChannelID: g.RequestChannelID,
	}
}
