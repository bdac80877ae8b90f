package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type entry struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(10, DefaultTTLs())

	var out entry
	assert.False(t, c.Get(ctx, Metadata, "q", &out))

	c.Set(ctx, Metadata, "q", entry{URL: "u", Title: "t"})
	assert.True(t, c.Get(ctx, Metadata, "q", &out))
	assert.Equal(t, entry{URL: "u", Title: "t"}, out)

	// namespaces are independent
	assert.False(t, c.Get(ctx, StreamURL, "q", &out))

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats[Metadata].Hits)
	assert.Equal(t, uint64(1), stats[Metadata].Misses)
	assert.Equal(t, uint64(1), stats[StreamURL].Misses)
	assert.Equal(t, 1, stats[Metadata].Size)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	ttls := DefaultTTLs()
	ttls[StreamURL] = 20 * time.Millisecond
	c := NewMemory(10, ttls)

	c.Set(ctx, StreamURL, "k", "https://cdn/1")
	c.Set(ctx, Metadata, "k", "meta")

	time.Sleep(60 * time.Millisecond)

	var s string
	assert.False(t, c.Get(ctx, StreamURL, "k", &s))
	assert.True(t, c.Get(ctx, Metadata, "k", &s))
	assert.Equal(t, "meta", s)
}

func TestMemory_Bounded(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(4, DefaultTTLs())

	for _, k := range []string{"a", "b", "c", "d", "e"} {
		c.Set(ctx, Metadata, k, k)
		c.Set(ctx, Lyrics, k, k)
	}

	var s string
	assert.False(t, c.Get(ctx, Metadata, "a", &s))
	assert.True(t, c.Get(ctx, Metadata, "e", &s))
	assert.Equal(t, 4, c.Stats()[Metadata].Size)
	assert.Equal(t, 2, c.Stats()[Lyrics].Size)
}

func TestMemory_UnknownNamespace(t *testing.T) {
	c := NewMemory(4, DefaultTTLs())
	var s string
	c.Set(context.Background(), "bogus", "k", "v")
	assert.False(t, c.Get(context.Background(), "bogus", "k", &s))
}
