package playlist

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"Nocturne/music"
	"Nocturne/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(store.NewMemory())
	tracks := []music.Descriptor{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}

	names, err := r.List(ctx, "g")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, r.Save(ctx, "g", "road trip", tracks))
	require.NoError(t, r.Save(ctx, "g", "chill", tracks[:1]))
	assert.ErrorIs(t, r.Save(ctx, "g", "  ", tracks), ErrEmptyName)

	names, err = r.List(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, []string{"chill", "road trip"}, names)

	got, err := r.Load(ctx, "g", "road trip")
	require.NoError(t, err)
	assert.Equal(t, tracks, got)

	_, err = r.Load(ctx, "other-guild", "road trip")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := r.Delete(ctx, "g", "road trip")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Delete(ctx, "g", "road trip")
	require.NoError(t, err)
	assert.False(t, ok)
}

type slowRefresher struct {
	mu      sync.Mutex
	seen    []string
	running atomic.Int32
	peak    atomic.Int32
}

func (s *slowRefresher) RefreshURL(_ context.Context, t *music.Track) (*music.Track, error) {
	n := s.running.Add(1)
	defer s.running.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)

	s.mu.Lock()
	s.seen = append(s.seen, t.ID)
	s.mu.Unlock()
	if t.ID == "bad" {
		return nil, errors.New("unavailable")
	}
	return t.WithStream("https://cdn/"+t.ID, time.Now()), nil
}

func TestPrefetch(t *testing.T) {
	r := &slowRefresher{}
	tracks := []*music.Track{
		{ID: "a"}, {ID: "bad"}, {ID: "c", StreamURL: "already"}, {ID: "d"}, {ID: "e"}, {ID: "f"},
	}

	warmed := Prefetch(context.Background(), r, tracks, 5, 2)

	assert.Equal(t, 3, warmed)
	assert.ElementsMatch(t, []string{"a", "bad", "d", "e"}, r.seen)
	assert.LessOrEqual(t, r.peak.Load(), int32(2))
	assert.Equal(t, 0, Prefetch(context.Background(), r, nil, 5, 2))
}
