package yt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"Nocturne/cache"
	"Nocturne/music"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	query string
	opts  Options
}

type fakeResolver struct {
	mu      sync.Mutex
	calls   []call
	results map[string][]music.Descriptor
	errs    map[string]error
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{results: map[string][]music.Descriptor{}, errs: map[string]error{}}
}

func (f *fakeResolver) Resolve(_ context.Context, query string, opts Options) ([]music.Descriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{query, opts})
	if err, ok := f.errs[query]; ok {
		return nil, err
	}
	return f.results[query], nil
}

func (f *fakeResolver) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeResolver) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func desc(id string, stream bool) music.Descriptor {
	d := music.Descriptor{ID: id, Title: "Song " + id, WebpageURL: "https://www.youtube.com/watch?v=" + id, Duration: 200}
	if stream {
		d.URL = "https://cdn.example/" + id
	}
	return d
}

func newTestExtractor(r Resolver) *Extractor {
	return NewExtractor(r, cache.NewMemory(50, cache.DefaultTTLs()), WithPacing(time.Millisecond))
}

var alice = music.Requester{ID: "1", Name: "alice"}

func TestResolve_TextSearch(t *testing.T) {
	r := newFakeResolver()
	r.results["ytsearch1:never gonna give you up"] = []music.Descriptor{desc("dQw", true)}
	e := newTestExtractor(r)

	tracks, err := e.Resolve(context.Background(), "never gonna give you up", alice, 50)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "dQw", tracks[0].ID)
	assert.Equal(t, alice, tracks[0].Requester)
	assert.True(t, tracks[0].Playable(time.Now(), time.Hour))
	assert.Equal(t, Options{}, r.last().opts)
}

func TestResolve_PlaylistIsFlatAndCapped(t *testing.T) {
	url := "https://www.youtube.com/playlist?list=PL123"
	r := newFakeResolver()
	r.results[url] = []music.Descriptor{desc("a", false), desc("b", false)}
	e := newTestExtractor(r)

	tracks, err := e.Resolve(context.Background(), url, alice, 50)
	require.NoError(t, err)
	assert.Len(t, tracks, 2)
	assert.Empty(t, tracks[0].StreamURL)
	assert.Equal(t, Options{Flat: true, Start: 1, End: 50}, r.last().opts)
}

func TestResolve_SingleURL(t *testing.T) {
	url := "https://www.youtube.com/watch?v=abc"
	r := newFakeResolver()
	r.results[url] = []music.Descriptor{desc("abc", true)}
	e := newTestExtractor(r)

	_, err := e.Resolve(context.Background(), url, alice, 50)
	require.NoError(t, err)
	assert.Equal(t, Options{Single: true}, r.last().opts)

	// second call is served from the metadata cache
	_, err = e.Resolve(context.Background(), url, alice, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, r.count())
}

func TestResolve_SmartFallback(t *testing.T) {
	url := "https://example.com/some/page"
	r := newFakeResolver()
	r.errs[url] = errors.New("unsupported url")
	r.results["ytsearch1:"+url] = []music.Descriptor{desc("x", true)}
	e := newTestExtractor(r)

	tracks, err := e.Resolve(context.Background(), url, alice, 50)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "x", tracks[0].ID)
}

func TestResolve_Failure(t *testing.T) {
	url := "https://example.com/broken"
	r := newFakeResolver()
	r.errs[url] = errors.New("boom")
	e := newTestExtractor(r)

	_, err := e.Resolve(context.Background(), url, alice, 50)
	var rerr *ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, url, rerr.Query)
}

func TestResolve_NoResults(t *testing.T) {
	e := newTestExtractor(newFakeResolver())

	_, err := e.Resolve(context.Background(), "nothing matches", alice, 50)
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestRefreshURL_UsesStreamCache(t *testing.T) {
	page := "https://www.youtube.com/watch?v=a"
	r := newFakeResolver()
	r.results[page] = []music.Descriptor{desc("a", true)}
	e := newTestExtractor(r)

	stale := music.FromDescriptor(desc("a", false)).WithRequester(alice)
	fresh, err := e.RefreshURL(context.Background(), stale)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/a", fresh.StreamURL)
	assert.Equal(t, alice, fresh.Requester)
	assert.Empty(t, stale.StreamURL)

	_, err = e.RefreshURL(context.Background(), stale)
	require.NoError(t, err)
	assert.Equal(t, 1, r.count())
	assert.Equal(t, Options{Single: true}, r.last().opts)
}

func TestResolve_CachedStreamKeepsResolveTime(t *testing.T) {
	r := newFakeResolver()
	r.results["ytsearch1:song"] = []music.Descriptor{desc("a", true)}
	e := newTestExtractor(r)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return clock }

	first, err := e.Resolve(context.Background(), "song", alice, 50)
	require.NoError(t, err)
	require.Len(t, first, 1)

	clock = clock.Add(55 * time.Minute)
	second, err := e.Resolve(context.Background(), "song", alice, 50)
	require.NoError(t, err)
	require.Len(t, second, 1)

	assert.Equal(t, 1, r.count())
	assert.Equal(t, first[0].StreamURL, second[0].StreamURL)
	assert.True(t, second[0].ResolvedAt.Equal(first[0].ResolvedAt), "resolved at %s", second[0].ResolvedAt)
	assert.False(t, second[0].Playable(clock, 30*time.Minute))

	// the stream cache carries the original resolve time too
	refreshed, err := e.RefreshURL(context.Background(), music.FromDescriptor(desc("a", false)))
	require.NoError(t, err)
	assert.Equal(t, 1, r.count())
	assert.True(t, refreshed.ResolvedAt.Equal(first[0].ResolvedAt))
}

func TestRefreshURL_Failure(t *testing.T) {
	page := "https://www.youtube.com/watch?v=gone"
	r := newFakeResolver()
	r.errs[page] = errors.New("video unavailable")
	e := newTestExtractor(r)

	_, err := e.RefreshURL(context.Background(), music.FromDescriptor(desc("gone", false)))
	assert.Error(t, err)
}

func TestExtractRemaining(t *testing.T) {
	url := "https://www.youtube.com/playlist?list=PL1"
	r := newFakeResolver()
	r.results[url] = []music.Descriptor{desc("c", false)}
	e := newTestExtractor(r)

	tracks, err := e.ExtractRemaining(context.Background(), url, 50, alice)
	require.NoError(t, err)
	assert.Len(t, tracks, 1)
	assert.Equal(t, Options{Flat: true, Start: 51}, r.last().opts)
}

func TestRelated_ExcludesSeed(t *testing.T) {
	seed := music.FromDescriptor(desc("seed", true))
	r := newFakeResolver()
	r.results["ytsearch4:Song seed similar songs"] = []music.Descriptor{desc("seed", true), desc("r1", true), desc("r2", true), desc("r3", true)}
	e := newTestExtractor(r)

	related := e.Related(context.Background(), seed, 3)
	require.Len(t, related, 3)
	for _, tr := range related {
		assert.NotEqual(t, "seed", tr.ID)
	}
}

func TestRelated_FailureYieldsNothing(t *testing.T) {
	r := newFakeResolver()
	r.errs["ytsearch4:Song s similar songs"] = errors.New("offline")
	e := newTestExtractor(r)

	assert.Empty(t, e.Related(context.Background(), music.FromDescriptor(desc("s", true)), 3))
	assert.Nil(t, e.Related(context.Background(), nil, 3))
}

func TestIsPlaylistURL(t *testing.T) {
	assert.True(t, IsPlaylistURL("https://www.youtube.com/watch?v=x&list=RDx"))
	assert.True(t, IsPlaylistURL("https://www.youtube.com/playlist?list=PL"))
	assert.True(t, IsPlaylistURL("https://www.youtube.com/watch?v=x&start_radio=1"))
	assert.True(t, IsPlaylistURL("https://www.youtube.com/mix/abc"))
	assert.False(t, IsPlaylistURL("https://www.youtube.com/watch?v=x"))
	assert.False(t, IsPlaylistURL("https://soundcloud.com/remix"))
}

func TestPlaylistItems(t *testing.T) {
	assert.Equal(t, "", playlistItems(Options{}))
	assert.Equal(t, "1:50", playlistItems(Options{Start: 1, End: 50}))
	assert.Equal(t, "51:", playlistItems(Options{Start: 51}))
	assert.Equal(t, "1:10", playlistItems(Options{End: 10}))
}

func TestParseInfo(t *testing.T) {
	full := `{"_type":"playlist","entries":[
		{"id":"a","title":"A","url":"https://cdn/a","webpage_url":"https://www.youtube.com/watch?v=a","duration":61.5,"channel":"Chan"},
		null,
		{"id":"b","title":"B","url":"https://cdn/b","webpage_url":"https://www.youtube.com/watch?v=b","thumbnails":[{"url":"s"},{"url":"l"}]}
	]}`
	ds, err := parseInfo([]byte(full), false)
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, "https://cdn/a", ds[0].URL)
	assert.Equal(t, "Chan", ds[0].Uploader)
	assert.Equal(t, "l", ds[1].Thumbnail)

	flat := `{"_type":"playlist","entries":[{"_type":"url","id":"c","title":"C","url":"https://www.youtube.com/watch?v=c"}]}`
	ds, err = parseInfo([]byte(flat), true)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Empty(t, ds[0].URL)
	assert.Equal(t, "https://www.youtube.com/watch?v=c", ds[0].WebpageURL)

	single := `{"id":"d","title":"D","url":"https://cdn/d","webpage_url":"https://youtu.be/d"}`
	ds, err = parseInfo([]byte(single), false)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "d", ds[0].ID)

	_, err = parseInfo([]byte("not json"), false)
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	failing := newFakeResolver()
	failing.errs["q"] = errors.New("first down")
	working := newFakeResolver()
	working.results["q"] = []music.Descriptor{desc("q", true)}

	ds, err := Chain{failing, working}.Resolve(context.Background(), "q", Options{})
	require.NoError(t, err)
	assert.Len(t, ds, 1)

	_, err = Chain{failing}.Resolve(context.Background(), "q", Options{})
	assert.True(t, strings.Contains(err.Error(), "first down"))
}
