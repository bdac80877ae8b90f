// Package lyrics fetches song lyrics from a lyrics.ovh compatible API.
package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"Nocturne/cache"

	"github.com/Strum355/log"
)

var ErrNotFound = errors.New("lyrics not found")

var titleNoise = []*regexp.Regexp{
	regexp.MustCompile(`\[.*?\]`),
	regexp.MustCompile(`\(.*?[Oo]fficial.*?\)`),
	regexp.MustCompile(`\(.*?[Ll]yrics.*?\)`),
	regexp.MustCompile(`\(.*?[Aa]udio.*?\)`),
	regexp.MustCompile(`\s*-\s*Topic$`),
}

var separators = []string{" - ", " – ", " | ", " • "}

type Provider struct {
	baseURL string
	client  *http.Client
	cache   cache.Cache
}

func NewProvider(baseURL string, c cache.Cache) *Provider {
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   c,
	}
}

// Fetch returns the lyrics for artist and title.
func (p *Provider) Fetch(ctx context.Context, artist, title string) (string, error) {
	key := strings.ToLower(artist + "|" + title)
	var text string
	if p.cache != nil && p.cache.Get(ctx, cache.Lyrics, key, &text) {
		return text, nil
	}

	endpoint := fmt.Sprintf("%s/%s/%s", p.baseURL, url.PathEscape(artist), url.PathEscape(title))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return "", err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", ErrNotFound
	default:
		log.WithFields(log.Fields{"status": resp.StatusCode}).Warn("Lyrics API returned unexpected status")
		return "", fmt.Errorf("lyrics api returned status %d", resp.StatusCode)
	}

	var body struct {
		Lyrics string `json:"lyrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	text = strings.TrimSpace(body.Lyrics)
	if text == "" {
		return "", ErrNotFound
	}
	if p.cache != nil {
		p.cache.Set(ctx, cache.Lyrics, key, text)
	}
	return text, nil
}

// Search splits a free-form query into artist and title before fetching.
func (p *Provider) Search(ctx context.Context, query string) (string, error) {
	artist, title := SplitQuery(query)
	return p.Fetch(ctx, artist, title)
}

// SplitQuery understands "artist - title" and "title by artist".
func SplitQuery(query string) (artist, title string) {
	query = strings.TrimSpace(query)
	if a, t, ok := strings.Cut(query, " - "); ok {
		return strings.TrimSpace(a), strings.TrimSpace(t)
	}
	lower := strings.ToLower(query)
	if i := strings.Index(lower, " by "); i >= 0 {
		return strings.TrimSpace(query[i+4:]), strings.TrimSpace(query[:i])
	}
	return "Unknown", query
}

// GuessArtistTitle strips video decorations from a video title and splits it.
func GuessArtistTitle(videoTitle string) (artist, title string) {
	cleaned := videoTitle
	for _, re := range titleNoise {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	cleaned = strings.TrimSpace(cleaned)
	for _, sep := range separators {
		if a, t, ok := strings.Cut(cleaned, sep); ok {
			return strings.TrimSpace(a), strings.TrimSpace(t)
		}
	}
	return "Unknown", cleaned
}

// Chunk splits text into pieces of at most max runes, preferring paragraph
// and then line boundaries.
func Chunk(text string, max int) []string {
	text = strings.TrimSpace(text)
	if text == "" || max <= 0 {
		return nil
	}

	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
		curLen = 0
	}
	push := func(piece, sep string) {
		r := []rune(piece)
		for len(r) > max {
			flush()
			chunks = append(chunks, string(r[:max]))
			r = r[max:]
		}
		sepLen := utf8.RuneCountInString(sep)
		if curLen > 0 && curLen+sepLen+len(r) > max {
			flush()
		}
		if curLen > 0 {
			cur.WriteString(sep)
			curLen += sepLen
		}
		cur.WriteString(string(r))
		curLen += len(r)
	}

	for _, para := range strings.Split(text, "\n\n") {
		if utf8.RuneCountInString(para) <= max {
			push(para, "\n\n")
			continue
		}
		flush()
		for _, line := range strings.Split(para, "\n") {
			push(line, "\n")
		}
	}
	flush()
	return chunks
}
