package playlist

import (
	"context"
	"errors"
	"sort"
	"strings"

	"Nocturne/music"
	"Nocturne/store"
)

var (
	ErrNotFound  = errors.New("playlist not found")
	ErrEmptyName = errors.New("playlist name is empty")
)

// Repository keeps every playlist of a guild in one document mapping
// playlist name to its tracks.
type Repository struct {
	store store.Store
}

func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

func (r *Repository) all(ctx context.Context, guildID string) (map[string][]music.Descriptor, error) {
	lists := map[string][]music.Descriptor{}
	if _, err := store.GetJSON(ctx, r.store, guildID, store.KeyPlaylists, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// Save creates or replaces the named playlist.
func (r *Repository) Save(ctx context.Context, guildID, name string, tracks []music.Descriptor) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	lists, err := r.all(ctx, guildID)
	if err != nil {
		return err
	}
	lists[name] = tracks
	return store.SetJSON(ctx, r.store, guildID, store.KeyPlaylists, lists)
}

func (r *Repository) Load(ctx context.Context, guildID, name string) ([]music.Descriptor, error) {
	lists, err := r.all(ctx, guildID)
	if err != nil {
		return nil, err
	}
	tracks, ok := lists[strings.TrimSpace(name)]
	if !ok {
		return nil, ErrNotFound
	}
	return tracks, nil
}

// Delete removes the named playlist and reports whether it existed.
func (r *Repository) Delete(ctx context.Context, guildID, name string) (bool, error) {
	lists, err := r.all(ctx, guildID)
	if err != nil {
		return false, err
	}
	name = strings.TrimSpace(name)
	if _, ok := lists[name]; !ok {
		return false, nil
	}
	delete(lists, name)
	return true, store.SetJSON(ctx, r.store, guildID, store.KeyPlaylists, lists)
}

// List returns the playlist names in alphabetical order.
func (r *Repository) List(ctx context.Context, guildID string) ([]string, error) {
	lists, err := r.all(ctx, guildID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(lists))
	for name := range lists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
