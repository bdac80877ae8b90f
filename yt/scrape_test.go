package yt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"Nocturne/music"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trackPage = `<html><head>
<meta property="og:title" content="Blinding Lights"/>
<meta property="og:description" content="Song · The Weeknd · 2019"/>
</head></html>`

const albumPage = `<html><head>
<meta property="og:title" content="After Hours"/>
<script type="application/ld+json">{"@type":"MusicAlbum","track":[
	{"name":"Alone Again","byArtist":{"name":"The Weeknd"}},
	{"name":"Too Late","byArtist":[{"name":"The Weeknd"},{"name":"Other"}]},
	{"name":"Untitled"}
]}</script>
</head></html>`

// rewrite sends every request to the test server regardless of host.
type rewrite struct {
	target *url.URL
}

func (r rewrite) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = r.target.Scheme
	req.URL.Host = r.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func newPageServer(t *testing.T, pages map[string]string) *Scraper {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	target, _ := url.Parse(srv.URL)
	s := NewScraper()
	s.Client.Transport = rewrite{target: target}
	return s
}

func TestTrackQuery(t *testing.T) {
	assert.Equal(t, "Blinding Lights The Weeknd", trackQuery(trackPage))
	assert.Equal(t, "", trackQuery("<html></html>"))
	assert.Equal(t, "Only Title", trackQuery(`<meta content="Only Title" property="og:title">`))
}

func TestCollectionQueries(t *testing.T) {
	assert.Equal(t, []string{"Alone Again The Weeknd", "Too Late The Weeknd", "Untitled"}, collectionQueries(albumPage, 20))
	assert.Len(t, collectionQueries(albumPage, 2), 2)
	assert.Empty(t, collectionQueries(trackPage, 20))
}

func TestIsMetadataURL(t *testing.T) {
	assert.True(t, IsMetadataURL("https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"))
	assert.True(t, IsMetadataURL("https://open.spotify.com/intl-de/album/4yP0hdKOZPNshxUOjY0cZj"))
	assert.False(t, IsMetadataURL("https://www.youtube.com/watch?v=x"))
}

func TestScraper_Queries(t *testing.T) {
	s := newPageServer(t, map[string]string{
		"/track/abc":    trackPage,
		"/album/def":    albumPage,
		"/playlist/ghi": "<html></html>",
	})
	ctx := context.Background()

	q, err := s.Queries(ctx, "https://open.spotify.com/track/abc")
	require.NoError(t, err)
	assert.Equal(t, []string{"Blinding Lights The Weeknd"}, q)

	q, err = s.Queries(ctx, "https://open.spotify.com/album/def")
	require.NoError(t, err)
	assert.Len(t, q, 3)

	_, err = s.Queries(ctx, "https://open.spotify.com/playlist/ghi")
	var hint *HintError
	require.ErrorAs(t, err, &hint)
	assert.ErrorIs(t, err, ErrNoResults)

	_, err = s.Queries(ctx, "https://open.spotify.com/artist/xyz")
	assert.ErrorIs(t, err, ErrUnsupportedSource)

	_, err = s.Queries(ctx, "https://open.spotify.com/track/missing")
	assert.Error(t, err)
}

func TestResolve_ScrapedCollection(t *testing.T) {
	s := newPageServer(t, map[string]string{"/album/def": albumPage})
	r := newFakeResolver()
	r.results["ytsearch1:Alone Again The Weeknd"] = []music.Descriptor{desc("aa", true)}
	r.results["ytsearch1:Untitled"] = []music.Descriptor{desc("un", true)}
	e := newTestExtractor(r)
	e.scraper = s

	tracks, err := e.Resolve(context.Background(), "https://open.spotify.com/album/def", alice, 50)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "aa", tracks[0].ID)
	assert.Equal(t, "un", tracks[1].ID)
}
