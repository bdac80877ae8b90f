package cache

import (
	"context"
	"encoding/json"

	"github.com/Strum355/log"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is a bounded in-process cache. Values are stored JSON encoded so
// callers never share mutable state through it.
type Memory struct {
	lrus  map[Namespace]*expirable.LRU[string, []byte]
	stats map[Namespace]*counters
}

// NewMemory creates one LRU per namespace holding at most size entries. The
// lyrics namespace gets half the room.
func NewMemory(size int, ttls TTLs) *Memory {
	if size < 2 {
		size = 2
	}
	m := &Memory{
		lrus:  make(map[Namespace]*expirable.LRU[string, []byte], len(Namespaces)),
		stats: newCounters(),
	}
	for _, ns := range Namespaces {
		n := size
		if ns == Lyrics {
			n = size / 2
		}
		m.lrus[ns] = expirable.NewLRU[string, []byte](n, nil, ttls[ns])
	}
	return m
}

func (m *Memory) Get(_ context.Context, ns Namespace, key string, out any) bool {
	lru, ok := m.lrus[ns]
	if !ok {
		return false
	}
	b, ok := lru.Get(key)
	if ok {
		if err := json.Unmarshal(b, out); err != nil {
			log.WithError(err).WithFields(log.Fields{"namespace": ns}).Debug("Dropping undecodable cache entry")
			lru.Remove(key)
			ok = false
		}
	}
	m.stats[ns].record(ok)
	return ok
}

func (m *Memory) Set(_ context.Context, ns Namespace, key string, value any) {
	lru, ok := m.lrus[ns]
	if !ok {
		return
	}
	b, err := json.Marshal(value)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"namespace": ns}).Debug("Value not cacheable")
		return
	}
	lru.Add(key, b)
}

func (m *Memory) Stats() map[Namespace]Stats {
	out := make(map[Namespace]Stats, len(Namespaces))
	for _, ns := range Namespaces {
		out[ns] = Stats{
			Hits:   m.stats[ns].hits.Load(),
			Misses: m.stats[ns].misses.Load(),
			Size:   m.lrus[ns].Len(),
		}
	}
	return out
}
