package yt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"Nocturne/cache"
	"Nocturne/music"

	"github.com/Strum355/log"
	"golang.org/x/time/rate"
)

// Extractor maps user input onto playable tracks. It classifies queries,
// chooses the resolver mode and memoizes results.
type Extractor struct {
	resolver Resolver
	scraper  *Scraper
	cache    cache.Cache
	timeout  time.Duration
	pacing   *rate.Limiter
	now      func() time.Time
}

type ExtractorOption func(*Extractor)

// WithScraper enables metadata-only pages.
func WithScraper(s *Scraper) ExtractorOption {
	return func(e *Extractor) { e.scraper = s }
}

// WithTimeout bounds every resolver call.
func WithTimeout(d time.Duration) ExtractorOption {
	return func(e *Extractor) { e.timeout = d }
}

// WithPacing sets the minimum gap between searches issued for scraped pages.
func WithPacing(every time.Duration) ExtractorOption {
	return func(e *Extractor) { e.pacing = rate.NewLimiter(rate.Every(every), 1) }
}

func NewExtractor(r Resolver, c cache.Cache, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		resolver: r,
		cache:    c,
		timeout:  30 * time.Second,
		pacing:   rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsPlaylistURL reports whether the query should be expanded as a collection.
func IsPlaylistURL(q string) bool {
	l := strings.ToLower(q)
	if strings.Contains(l, "list=") || strings.Contains(l, "/playlist") || strings.Contains(l, "start_radio") {
		return true
	}
	return strings.Contains(l, "mix") && strings.Contains(l, "youtube")
}

func isURL(q string) bool {
	return strings.Contains(q, "://")
}

// resolution is a resolver answer as cached under cache.Metadata. At is when
// the answer's stream URLs were obtained.
type resolution struct {
	Entries []music.Descriptor `json:"entries"`
	At      time.Time          `json:"at"`
}

// streamEntry is a stream URL as cached under cache.StreamURL.
type streamEntry struct {
	Descriptor music.Descriptor `json:"descriptor"`
	At         time.Time        `json:"at"`
}

func (e *Extractor) resolve(ctx context.Context, query string, opts Options) (resolution, error) {
	key := fmt.Sprintf("%s|%t|%t|%d|%d", query, opts.Flat, opts.Single, opts.Start, opts.End)
	var res resolution
	if e.cache != nil && e.cache.Get(ctx, cache.Metadata, key, &res) {
		return res, nil
	}

	rctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	start := time.Now()
	ds, err := e.resolver.Resolve(rctx, query, opts)
	log.WithFields(log.Fields{
		"query":    query,
		"flat":     opts.Flat,
		"entries":  len(ds),
		"duration": time.Since(start).String(),
	}).Debug("Resolver call finished")
	if err != nil {
		return resolution{}, err
	}

	res = resolution{Entries: ds, At: e.now()}
	if e.cache != nil && len(ds) > 0 {
		e.cache.Set(ctx, cache.Metadata, key, res)
		for _, d := range ds {
			if d.URL != "" && d.WebpageURL != "" {
				e.cache.Set(ctx, cache.StreamURL, d.WebpageURL, streamEntry{Descriptor: d, At: res.At})
			}
		}
	}
	return res, nil
}

func toTracks(res resolution, requester music.Requester) []*music.Track {
	out := make([]*music.Track, 0, len(res.Entries))
	for _, d := range res.Entries {
		t := music.FromDescriptor(d).WithRequester(requester)
		if t.StreamURL != "" {
			t = t.WithStream(t.StreamURL, res.At)
		}
		out = append(out, t)
	}
	return out
}

// Resolve turns a URL or free-text query into tracks. Playlists are listed
// without stream URLs and capped at maxItems.
func (e *Extractor) Resolve(ctx context.Context, query string, requester music.Requester, maxItems int) ([]*music.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ResolutionError{Query: query, Err: ErrNoResults}
	}

	if IsMetadataURL(query) {
		return e.resolveScraped(ctx, query, requester)
	}

	var (
		res resolution
		err error
	)
	switch {
	case !isURL(query):
		res, err = e.resolve(ctx, "ytsearch1:"+query, Options{})
	case IsPlaylistURL(query):
		res, err = e.resolve(ctx, query, Options{Flat: true, Start: 1, End: maxItems})
	default:
		res, err = e.resolve(ctx, query, Options{Single: true})
	}

	if err != nil && isURL(query) {
		log.WithError(err).WithFields(log.Fields{"query": query}).Info("Direct resolution failed, falling back to search")
		tracks, serr := e.Search(ctx, query, requester, 1)
		if serr == nil && len(tracks) > 0 {
			return tracks, nil
		}
	}
	if err != nil {
		return nil, &ResolutionError{Query: query, Err: err}
	}
	if len(res.Entries) == 0 {
		return nil, &ResolutionError{Query: query, Err: ErrNoResults}
	}
	return toTracks(res, requester), nil
}

func (e *Extractor) resolveScraped(ctx context.Context, pageURL string, requester music.Requester) ([]*music.Track, error) {
	if e.scraper == nil {
		return nil, &ResolutionError{Query: pageURL, Err: ErrUnsupportedSource}
	}
	queries, err := e.scraper.Queries(ctx, pageURL)
	if err != nil {
		return nil, &ResolutionError{Query: pageURL, Err: err}
	}

	var out []*music.Track
	for _, q := range queries {
		if err := e.pacing.Wait(ctx); err != nil {
			break
		}
		tracks, err := e.Search(ctx, q, requester, 1)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{"query": q}).Debug("Scraped track not found")
			continue
		}
		out = append(out, tracks...)
	}
	if len(out) == 0 {
		return nil, &ResolutionError{Query: pageURL, Err: &HintError{Hint: "try individual track links", Err: ErrNoResults}}
	}
	return out, nil
}

// Search runs a text search and returns up to limit fully resolved tracks.
func (e *Extractor) Search(ctx context.Context, query string, requester music.Requester, limit int) ([]*music.Track, error) {
	if limit < 1 {
		limit = 1
	}
	res, err := e.resolve(ctx, fmt.Sprintf("ytsearch%d:%s", limit, query), Options{})
	if err != nil {
		return nil, &ResolutionError{Query: query, Err: err}
	}
	if len(res.Entries) == 0 {
		return nil, &ResolutionError{Query: query, Err: ErrNoResults}
	}
	if len(res.Entries) > limit {
		res.Entries = res.Entries[:limit]
	}
	return toTracks(res, requester), nil
}

// RefreshURL returns a copy of t with a current stream URL.
func (e *Extractor) RefreshURL(ctx context.Context, t *music.Track) (*music.Track, error) {
	page := t.Link()
	if page == "" {
		return nil, &ResolutionError{Query: t.Title, Err: ErrUnsupportedSource}
	}

	var hit streamEntry
	if e.cache != nil && e.cache.Get(ctx, cache.StreamURL, page, &hit) && hit.Descriptor.URL != "" {
		return refreshed(t, hit.Descriptor, hit.At), nil
	}

	rctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	ds, err := e.resolver.Resolve(rctx, page, Options{Single: true})
	if err != nil {
		return nil, &ResolutionError{Query: page, Err: err}
	}
	if len(ds) == 0 || ds[0].URL == "" {
		return nil, &ResolutionError{Query: page, Err: ErrNoResults}
	}

	at := e.now()
	if e.cache != nil {
		e.cache.Set(ctx, cache.StreamURL, page, streamEntry{Descriptor: ds[0], At: at})
	}
	return refreshed(t, ds[0], at), nil
}

// refreshed keeps identity and requester of t and fills in what the
// resolver learned.
func refreshed(t *music.Track, d music.Descriptor, at time.Time) *music.Track {
	out := t.WithStream(d.URL, at)
	if out.Duration == 0 {
		out.Duration = int(d.Duration)
	}
	if out.Thumbnail == "" {
		out.Thumbnail = d.Thumbnail
	}
	if out.Uploader == "" {
		out.Uploader = d.Uploader
	}
	if out.Title == "" || out.Title == "Unknown" {
		out.Title = d.Title
	}
	return out
}

// ExtractRemaining lists the playlist entries after the first loaded ones.
func (e *Extractor) ExtractRemaining(ctx context.Context, playlistURL string, loaded int, requester music.Requester) ([]*music.Track, error) {
	res, err := e.resolve(ctx, playlistURL, Options{Flat: true, Start: loaded + 1})
	if err != nil {
		return nil, &ResolutionError{Query: playlistURL, Err: err}
	}
	return toTracks(res, requester), nil
}

// Related finds tracks similar to seed for autoplay. Failures yield nothing.
func (e *Extractor) Related(ctx context.Context, seed *music.Track, limit int) []*music.Track {
	if seed == nil || seed.Title == "" {
		return nil
	}
	tracks, err := e.Search(ctx, seed.Title+" similar songs", seed.Requester, limit+1)
	if err != nil {
		if !errors.Is(err, ErrNoResults) {
			log.WithError(err).Debug("Related lookup failed")
		}
		return nil
	}
	out := make([]*music.Track, 0, limit)
	for _, t := range tracks {
		if t.WebpageURL != "" && t.WebpageURL == seed.WebpageURL {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, t)
	}
	return out
}
