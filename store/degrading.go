package store

import (
	"context"
	"errors"
	"sync"

	"github.com/Strum355/log"
)

// Degrading wraps a primary store with an in-memory mirror. Writes go to
// both; when the primary fails the mirror answers instead and the failure is
// swallowed. The transition into and out of degraded mode is logged once each.
type Degrading struct {
	primary Store
	mirror  *Memory
	name    string

	mu       sync.Mutex
	degraded bool
}

func NewDegrading(name string, primary Store) *Degrading {
	return &Degrading{primary: primary, mirror: NewMemory(), name: name}
}

// Degraded reports whether the last primary call failed.
func (d *Degrading) Degraded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.degraded
}

func (d *Degrading) observe(err error) bool {
	failed := err != nil && !errors.Is(err, ErrNotFound)

	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case failed && !d.degraded:
		d.degraded = true
		log.WithError(err).WithFields(log.Fields{"store": d.name}).Warn("Persistent store unavailable, continuing in memory")
	case !failed && d.degraded:
		d.degraded = false
		log.WithFields(log.Fields{"store": d.name}).Info("Persistent store available again")
	}
	return failed
}

func (d *Degrading) Get(ctx context.Context, guildID, key string) ([]byte, error) {
	b, err := d.primary.Get(ctx, guildID, key)
	if d.observe(err) {
		return d.mirror.Get(ctx, guildID, key)
	}
	if err != nil {
		return nil, err
	}
	d.mirror.Set(ctx, guildID, key, b)
	return b, nil
}

func (d *Degrading) Set(ctx context.Context, guildID, key string, value []byte) error {
	d.mirror.Set(ctx, guildID, key, value)
	d.observe(d.primary.Set(ctx, guildID, key, value))
	return nil
}

func (d *Degrading) Delete(ctx context.Context, guildID, key string) error {
	d.mirror.Delete(ctx, guildID, key)
	d.observe(d.primary.Delete(ctx, guildID, key))
	return nil
}
