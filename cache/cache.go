// Package cache memoizes resolver output. Entries live in one of three
// namespaces, each with its own TTL. A miss is never an error.
package cache

import (
	"context"
	"sync/atomic"
	"time"
)

type Namespace string

const (
	Metadata  Namespace = "metadata"
	StreamURL Namespace = "stream"
	Lyrics    Namespace = "lyrics"
)

var Namespaces = []Namespace{Metadata, StreamURL, Lyrics}

type Cache interface {
	// Get decodes the cached value into out and reports whether it was found.
	Get(ctx context.Context, ns Namespace, key string, out any) bool
	// Set stores value with the TTL configured for ns.
	Set(ctx context.Context, ns Namespace, key string, value any)
	Stats() map[Namespace]Stats
}

// TTLs holds the lifetime of entries per namespace.
type TTLs map[Namespace]time.Duration

func DefaultTTLs() TTLs {
	return TTLs{
		Metadata:  time.Hour,
		StreamURL: 5 * time.Minute,
		Lyrics:    24 * time.Hour,
	}
}

type Stats struct {
	Hits   uint64
	Misses uint64
	Size   int
}

type counters struct {
	hits   atomic.Uint64
	misses atomic.Uint64
}

func (c *counters) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
}

func newCounters() map[Namespace]*counters {
	m := make(map[Namespace]*counters, len(Namespaces))
	for _, ns := range Namespaces {
		m[ns] = &counters{}
	}
	return m
}
