// Package store persists small JSON documents per guild: the pending queue,
// guild settings and saved playlists.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Keys used by the queue manager.
const (
	KeyQueue     = "queue"
	KeySettings  = "settings"
	KeyPlaylists = "playlists"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("store: key not found")

type Store interface {
	Get(ctx context.Context, guildID, key string) ([]byte, error)
	Set(ctx context.Context, guildID, key string, value []byte) error
	Delete(ctx context.Context, guildID, key string) error
}

// GetJSON decodes the value under key into out. found is false when the key
// is absent.
func GetJSON(ctx context.Context, s Store, guildID, key string, out any) (found bool, err error) {
	b, err := s.Get(ctx, guildID, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, s Store, guildID, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Set(ctx, guildID, key, b)
}
