package cache

import (
	"context"
	"encoding/json"

	"github.com/Strum355/log"
	"github.com/redis/go-redis/v9"
)

// Redis shares cached resolutions between bot processes.
// Keys have the form "cache:<namespace>:<key>".
type Redis struct {
	rdb   *redis.Client
	ttls  TTLs
	stats map[Namespace]*counters
}

func NewRedis(rdb *redis.Client, ttls TTLs) *Redis {
	return &Redis{rdb: rdb, ttls: ttls, stats: newCounters()}
}

func redisKey(ns Namespace, key string) string {
	return "cache:" + string(ns) + ":" + key
}

func (r *Redis) Get(ctx context.Context, ns Namespace, key string, out any) bool {
	c, ok := r.stats[ns]
	if !ok {
		return false
	}
	b, err := r.rdb.Get(ctx, redisKey(ns, key)).Bytes()
	hit := err == nil && json.Unmarshal(b, out) == nil
	if err != nil && err != redis.Nil {
		log.WithError(err).Debug("Cache lookup failed")
	}
	c.record(hit)
	return hit
}

func (r *Redis) Set(ctx context.Context, ns Namespace, key string, value any) {
	if _, ok := r.stats[ns]; !ok {
		return
	}
	b, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, redisKey(ns, key), b, r.ttls[ns]).Err(); err != nil {
		log.WithError(err).Debug("Cache write failed")
	}
}

// Stats reports hit counters. Size is not tracked for the shared cache.
func (r *Redis) Stats() map[Namespace]Stats {
	out := make(map[Namespace]Stats, len(Namespaces))
	for _, ns := range Namespaces {
		out[ns] = Stats{Hits: r.stats[ns].hits.Load(), Misses: r.stats[ns].misses.Load()}
	}
	return out
}
