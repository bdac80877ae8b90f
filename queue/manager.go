// Package queue owns the per-guild queue state: pending tracks, the current
// track, and the settings that shape playback. Every mutation is written
// through to the persistent store.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"Nocturne/music"
	"Nocturne/playlist"
	"Nocturne/store"

	"github.com/Strum355/log"
)

var (
	ErrEmptyQueue = errors.New("queue is empty")
	ErrQueueFull  = errors.New("queue is full")
)

type entry struct {
	once  sync.Once
	mu    sync.Mutex
	state *GuildState
}

type Manager struct {
	store     store.Store
	playlists *playlist.Repository
	timeout   time.Duration
	maxSize   int

	mu     sync.Mutex
	guilds map[string]*entry
}

type Option func(*Manager)

// WithMaxSize caps the pending queue. Zero means unbounded.
func WithMaxSize(n int) Option {
	return func(m *Manager) { m.maxSize = n }
}

// WithStoreTimeout bounds each store call.
func WithStoreTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

func NewManager(s store.Store, opts ...Option) *Manager {
	m := &Manager{
		store:     s,
		playlists: playlist.NewRepository(s),
		timeout:   5 * time.Second,
		guilds:    map[string]*entry{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// entry returns the registry slot for a guild, rehydrating it from the
// store the first time it is touched.
func (m *Manager) entry(guildID string) *entry {
	m.mu.Lock()
	e, ok := m.guilds[guildID]
	if !ok {
		e = &entry{}
		m.guilds[guildID] = e
	}
	m.mu.Unlock()

	e.once.Do(func() {
		e.state = m.load(guildID)
	})
	return e
}

func (m *Manager) load(guildID string) *GuildState {
	g := newGuildState(guildID)
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	var queued []music.Descriptor
	if _, err := store.GetJSON(ctx, m.store, guildID, store.KeyQueue, &queued); err != nil {
		log.WithError(err).WithFields(log.Fields{"guild_id": guildID}).Warn("Couldn't load persisted queue")
	}
	g.Pending = music.Tracks(queued)

	var s settings
	found, err := store.GetJSON(ctx, m.store, guildID, store.KeySettings, &s)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"guild_id": guildID}).Warn("Couldn't load guild settings")
	}
	if found {
		g.applySettings(s)
	}
	return g
}

// update runs fn against the guild state under its lock and returns the
// snapshot taken before unlocking.
func (m *Manager) update(guildID string, fn func(g *GuildState)) Snapshot {
	e := m.entry(guildID)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.state)
	return e.state.snapshot()
}

func (m *Manager) persist(guildID, key string, value any) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if err := store.SetJSON(ctx, m.store, guildID, key, value); err != nil {
		log.WithError(err).WithFields(log.Fields{"guild_id": guildID, "key": key}).Debug("Couldn't persist guild state")
	}
}

func (m *Manager) persistQueue(s Snapshot) {
	m.persist(s.GuildID, store.KeyQueue, music.Descriptors(s.Pending))
}

func (m *Manager) persistSettings(guildID string) {
	e := m.entry(guildID)
	e.mu.Lock()
	s := e.state.settings()
	e.mu.Unlock()
	m.persist(guildID, store.KeySettings, s)
}

// State returns a copy of the guild state.
func (m *Manager) State(guildID string) Snapshot {
	return m.update(guildID, func(*GuildState) {})
}

// Enqueue appends t and returns its 1-based queue position.
func (m *Manager) Enqueue(guildID string, t *music.Track) (int, error) {
	n, err := m.EnqueueMany(guildID, []*music.Track{t})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// EnqueueMany appends tracks in order and returns the new queue length.
// When the queue is capped, tracks beyond the cap are dropped and
// ErrQueueFull is returned only if none fit.
func (m *Manager) EnqueueMany(guildID string, tracks []*music.Track) (int, error) {
	var full bool
	s := m.update(guildID, func(g *GuildState) {
		if m.maxSize > 0 {
			room := m.maxSize - len(g.Pending)
			if room <= 0 {
				full = true
				return
			}
			if len(tracks) > room {
				tracks = tracks[:room]
			}
		}
		g.Pending = append(g.Pending, tracks...)
	})
	if full && len(tracks) > 0 {
		return len(s.Pending), ErrQueueFull
	}
	m.persistQueue(s)
	return len(s.Pending), nil
}

// RemoveAt removes the track at a 0-based index. It returns nil and changes
// nothing when the index is out of range.
func (m *Manager) RemoveAt(guildID string, index int) *music.Track {
	var removed *music.Track
	s := m.update(guildID, func(g *GuildState) {
		removed = g.removeAt(index)
	})
	if removed != nil {
		m.persistQueue(s)
	}
	return removed
}

// Move relocates a track between 0-based positions.
func (m *Manager) Move(guildID string, from, to int) bool {
	var ok bool
	s := m.update(guildID, func(g *GuildState) {
		ok = g.move(from, to)
	})
	if ok {
		m.persistQueue(s)
	}
	return ok
}

func (m *Manager) Shuffle(guildID string) {
	s := m.update(guildID, func(g *GuildState) {
		g.shuffle()
	})
	m.persistQueue(s)
}

// Clear empties the pending queue and drops the current track.
func (m *Manager) Clear(guildID string) {
	s := m.update(guildID, func(g *GuildState) {
		g.Pending = nil
		g.Current = nil
		g.SkipVotes = map[string]struct{}{}
	})
	m.persistQueue(s)
}

// NextTrack advances the queue according to the loop mode and returns the
// new current track, or nil when nothing is left.
func (m *Manager) NextTrack(guildID string) *music.Track {
	var next *music.Track
	s := m.update(guildID, func(g *GuildState) {
		next = g.next()
	})
	m.persistQueue(s)
	return next
}

func (m *Manager) Current(guildID string) *music.Track {
	return m.State(guildID).Current
}

// SetCurrent replaces the current track, typically with a refreshed copy.
func (m *Manager) SetCurrent(guildID string, t *music.Track) {
	m.update(guildID, func(g *GuildState) {
		g.Current = t
	})
}

func (m *Manager) Pending(guildID string) []*music.Track {
	return m.State(guildID).Pending
}

// TotalQueued counts pending tracks across every guild in memory.
func (m *Manager) TotalQueued() int {
	m.mu.Lock()
	ids := make([]string, 0, len(m.guilds))
	for id := range m.guilds {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	total := 0
	for _, id := range ids {
		total += len(m.State(id).Pending)
	}
	return total
}

// QueueDuration sums the known durations of pending tracks in seconds.
func (m *Manager) QueueDuration(guildID string) int {
	var total int
	m.update(guildID, func(g *GuildState) {
		total = g.duration()
	})
	return total
}

func (m *Manager) Volume(guildID string) float64 {
	return m.State(guildID).Volume
}

// SetVolume stores v clamped to [0,1] and returns the stored value.
func (m *Manager) SetVolume(guildID string, v float64) float64 {
	s := m.update(guildID, func(g *GuildState) {
		g.Volume = clampVolume(v)
	})
	m.persistSettings(guildID)
	return s.Volume
}

func (m *Manager) Loop(guildID string) music.LoopMode {
	return m.State(guildID).Loop
}

func (m *Manager) SetLoop(guildID string, mode music.LoopMode) {
	m.update(guildID, func(g *GuildState) {
		g.Loop = mode
	})
	m.persistSettings(guildID)
}

// CycleLoop advances off -> song -> queue -> off and returns the new mode.
func (m *Manager) CycleLoop(guildID string) music.LoopMode {
	s := m.update(guildID, func(g *GuildState) {
		g.Loop = g.Loop.Next()
	})
	m.persistSettings(guildID)
	return s.Loop
}

func (m *Manager) Filter(guildID string) music.Filter {
	return m.State(guildID).Filter
}

func (m *Manager) SetFilter(guildID string, f music.Filter) {
	m.update(guildID, func(g *GuildState) {
		g.Filter = f
	})
	m.persistSettings(guildID)
}

// AddSkipVote records a vote and reports whether it was new.
func (m *Manager) AddSkipVote(guildID, userID string) bool {
	var added bool
	m.update(guildID, func(g *GuildState) {
		if _, ok := g.SkipVotes[userID]; ok {
			return
		}
		g.SkipVotes[userID] = struct{}{}
		added = true
	})
	return added
}

func (m *Manager) SkipVotes(guildID string) int {
	return m.State(guildID).SkipVotes
}

func (m *Manager) ResetSkipVotes(guildID string) {
	m.update(guildID, func(g *GuildState) {
		g.SkipVotes = map[string]struct{}{}
	})
}

func (m *Manager) StartedAt(guildID string) time.Time {
	return m.State(guildID).StartedAt
}

func (m *Manager) SetStartedAt(guildID string, at time.Time) {
	m.update(guildID, func(g *GuildState) {
		g.StartedAt = at
	})
}

func (m *Manager) Always(guildID string) bool {
	return m.State(guildID).Always
}

func (m *Manager) SetAlways(guildID string, on bool) {
	m.update(guildID, func(g *GuildState) {
		g.Always = on
	})
	m.persistSettings(guildID)
}

func (m *Manager) Autoplay(guildID string) bool {
	return m.State(guildID).Autoplay
}

func (m *Manager) SetAutoplay(guildID string, on bool) {
	m.update(guildID, func(g *GuildState) {
		g.Autoplay = on
	})
	m.persistSettings(guildID)
}

func (m *Manager) RequestChannel(guildID string) string {
	return m.State(guildID).RequestChannelID
}

// SetRequestChannel designates a channel whose links are queued
// automatically. An empty id clears it.
func (m *Manager) SetRequestChannel(guildID, channelID string) {
	m.update(guildID, func(g *GuildState) {
		g.RequestChannelID = channelID
	})
	m.persistSettings(guildID)
}

// Cleanup forgets the in-memory state of a guild and its persisted queue.
// Settings and playlists are kept.
func (m *Manager) Cleanup(guildID string) {
	m.mu.Lock()
	delete(m.guilds, guildID)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if err := m.store.Delete(ctx, guildID, store.KeyQueue); err != nil {
		log.WithError(err).WithFields(log.Fields{"guild_id": guildID}).Debug("Couldn't delete persisted queue")
	}
}

// SavePlaylist stores the current track followed by the pending queue under
// name and returns the number of tracks saved.
func (m *Manager) SavePlaylist(ctx context.Context, guildID, name string) (int, error) {
	s := m.State(guildID)
	tracks := s.Pending
	if s.Current != nil {
		tracks = append([]*music.Track{s.Current}, tracks...)
	}
	if len(tracks) == 0 {
		return 0, ErrEmptyQueue
	}
	if err := m.playlists.Save(ctx, guildID, name, music.Descriptors(tracks)); err != nil {
		return 0, err
	}
	return len(tracks), nil
}

// LoadPlaylist returns the tracks of a saved playlist without queueing them.
func (m *Manager) LoadPlaylist(ctx context.Context, guildID, name string) ([]*music.Track, error) {
	ds, err := m.playlists.Load(ctx, guildID, name)
	if err != nil {
		return nil, err
	}
	return music.Tracks(ds), nil
}

func (m *Manager) DeletePlaylist(ctx context.Context, guildID, name string) (bool, error) {
	return m.playlists.Delete(ctx, guildID, name)
}

func (m *Manager) ListPlaylists(ctx context.Context, guildID string) ([]string, error) {
	return m.playlists.List(ctx, guildID)
}
