package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyStore struct {
	*Memory
	down  atomic.Bool
	calls atomic.Int32
}

var errDown = errors.New("connection refused")

func (f *flakyStore) Get(ctx context.Context, g, k string) ([]byte, error) {
	f.calls.Add(1)
	if f.down.Load() {
		return nil, errDown
	}
	return f.Memory.Get(ctx, g, k)
}

func (f *flakyStore) Set(ctx context.Context, g, k string, v []byte) error {
	f.calls.Add(1)
	if f.down.Load() {
		return errDown
	}
	return f.Memory.Set(ctx, g, k, v)
}

func (f *flakyStore) Delete(ctx context.Context, g, k string) error {
	f.calls.Add(1)
	if f.down.Load() {
		return errDown
	}
	return f.Memory.Delete(ctx, g, k)
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, "g1", KeyQueue)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "g1", KeyQueue, []byte(`[1]`)))
	require.NoError(t, s.Set(ctx, "g1", KeyQueue, []byte(`[1,2]`)))
	require.NoError(t, s.Set(ctx, "g2", KeyQueue, []byte(`[3]`)))

	b, err := s.Get(ctx, "g1", KeyQueue)
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(b))

	require.NoError(t, s.Delete(ctx, "g1", KeyQueue))
	_, err = s.Get(ctx, "g1", KeyQueue)
	assert.ErrorIs(t, err, ErrNotFound)

	b, err = s.Get(ctx, "g2", KeyQueue)
	require.NoError(t, err)
	assert.Equal(t, `[3]`, string(b))
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	var out []string
	found, err := GetJSON(ctx, s, "g", KeyPlaylists, &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, s, "g", KeyPlaylists, []string{"a", "b"}))
	found, err = GetJSON(ctx, s, "g", KeyPlaylists, &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"a", "b"}, out)
}

func TestDegrading_FallsBackToMirror(t *testing.T) {
	ctx := context.Background()
	primary := &flakyStore{Memory: NewMemory()}
	d := NewDegrading("test", primary)

	require.NoError(t, d.Set(ctx, "g", KeySettings, []byte(`{"volume":0.5}`)))
	assert.False(t, d.Degraded())

	primary.down.Store(true)
	assert.NoError(t, d.Set(ctx, "g", KeySettings, []byte(`{"volume":0.8}`)))
	assert.True(t, d.Degraded())

	b, err := d.Get(ctx, "g", KeySettings)
	require.NoError(t, err)
	assert.Equal(t, `{"volume":0.8}`, string(b))

	assert.NoError(t, d.Delete(ctx, "g", KeySettings))
	_, err = d.Get(ctx, "g", KeySettings)
	assert.ErrorIs(t, err, ErrNotFound)

	primary.down.Store(false)
	_, err = d.Get(ctx, "g", KeyQueue)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, d.Degraded())
}
