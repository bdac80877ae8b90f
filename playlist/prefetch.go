package playlist

import (
	"context"
	"sync/atomic"

	"Nocturne/music"

	"github.com/Strum355/log"
	"golang.org/x/sync/errgroup"
)

type Refresher interface {
	RefreshURL(ctx context.Context, t *music.Track) (*music.Track, error)
}

// Prefetch resolves stream URLs for the first n tracks with limited
// concurrency so the refresher's cache is warm when they are played. It
// returns how many were resolved.
func Prefetch(ctx context.Context, r Refresher, tracks []*music.Track, n, concurrency int) int {
	if n > len(tracks) {
		n = len(tracks)
	}
	if n <= 0 {
		return 0
	}

	var warmed atomic.Int32
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for _, t := range tracks[:n] {
		if t.StreamURL != "" {
			continue
		}
		g.Go(func() error {
			if _, err := r.RefreshURL(ctx, t); err != nil {
				log.WithError(err).WithFields(log.Fields{"track": t.Title}).Debug("Prefetch failed")
				return nil
			}
			warmed.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(warmed.Load())
}
