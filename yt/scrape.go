package yt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	userAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	maxPageSize   = 4 << 20
	maxRedirects  = 5
	maxPageTracks = 20
	scrapeTimeout = 15 * time.Second
)

var (
	spotifyURL = regexp.MustCompile(`(?i)open\.spotify\.com/(?:intl-[a-z-]+/)?(track|album|playlist|artist)/([A-Za-z0-9]+)`)
	metaTag    = regexp.MustCompile(`(?is)<meta\s[^>]*>`)
	tagAttr    = regexp.MustCompile(`(?is)([a-z:_-]+)\s*=\s*"([^"]*)"`)
	ldScript   = regexp.MustCompile(`(?is)<script[^>]*type="application/ld\+json"[^>]*>(.*?)</script>`)
)

var errTooManyRedirects = errors.New("too many redirects")

// IsMetadataURL reports whether s is a page that only carries track
// metadata and has to be mapped onto searches.
func IsMetadataURL(s string) bool {
	return spotifyURL.MatchString(s)
}

// Scraper reads track names from metadata-only pages.
type Scraper struct {
	Client *http.Client
}

func NewScraper() *Scraper {
	return &Scraper{Client: &http.Client{
		Timeout: scrapeTimeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errTooManyRedirects
			}
			return nil
		},
	}}
}

// Queries fetches pageURL and returns one search query per track found on it.
func (s *Scraper) Queries(ctx context.Context, pageURL string) ([]string, error) {
	m := spotifyURL.FindStringSubmatch(pageURL)
	if m == nil {
		return nil, ErrUnsupportedSource
	}
	kind := strings.ToLower(m[1])
	if kind == "artist" {
		return nil, fmt.Errorf("spotify %s pages: %w", kind, ErrUnsupportedSource)
	}

	page, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	if kind == "track" {
		q := trackQuery(page)
		if q == "" {
			return nil, ErrNoResults
		}
		return []string{q}, nil
	}

	queries := collectionQueries(page, maxPageTracks)
	if len(queries) == 0 {
		return nil, &HintError{Hint: "try individual track links", Err: ErrNoResults}
	}
	return queries, nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (string, error) {
	if !strings.Contains(pageURL, "://") {
		pageURL = "https://" + pageURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// metaContent returns the content of the first <meta property=prop> tag.
func metaContent(page, prop string) string {
	for _, tag := range metaTag.FindAllString(page, -1) {
		attrs := map[string]string{}
		for _, a := range tagAttr.FindAllStringSubmatch(tag, -1) {
			attrs[strings.ToLower(a[1])] = a[2]
		}
		if attrs["property"] == prop || attrs["name"] == prop {
			return strings.TrimSpace(html.UnescapeString(attrs["content"]))
		}
	}
	return ""
}

// trackQuery builds "<title> <artist>" from og:title and the second
// "·" separated field of og:description.
func trackQuery(page string) string {
	title := metaContent(page, "og:title")
	if title == "" {
		return ""
	}
	parts := strings.Split(metaContent(page, "og:description"), "·")
	if len(parts) >= 2 {
		if artist := strings.TrimSpace(parts[1]); artist != "" {
			return title + " " + artist
		}
	}
	return title
}

type ldTrack struct {
	Name     string          `json:"name"`
	ByArtist json.RawMessage `json:"byArtist"`
}

type ldArtist struct {
	Name string `json:"name"`
}

func (t ldTrack) artist() string {
	if len(t.ByArtist) == 0 {
		return ""
	}
	var one ldArtist
	if err := json.Unmarshal(t.ByArtist, &one); err == nil {
		return one.Name
	}
	var many []ldArtist
	if err := json.Unmarshal(t.ByArtist, &many); err == nil && len(many) > 0 {
		return many[0].Name
	}
	return ""
}

// collectionQueries reads the JSON-LD track list of an album or playlist page.
func collectionQueries(page string, limit int) []string {
	var out []string
	for _, m := range ldScript.FindAllStringSubmatch(page, -1) {
		var doc struct {
			Track []ldTrack `json:"track"`
		}
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &doc); err != nil {
			continue
		}
		for _, t := range doc.Track {
			if len(out) >= limit {
				return out
			}
			if t.Name == "" {
				continue
			}
			out = append(out, strings.TrimSpace(t.Name+" "+t.artist()))
		}
	}
	return out
}
