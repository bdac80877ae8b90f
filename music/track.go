package music

import (
	"fmt"
	"time"
)

// Requester identifies the user who asked for a track. It is never persisted.
type Requester struct {
	ID   string
	Name string
}

// Descriptor is the serialized form of a Track as stored in queues and playlists.
type Descriptor struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url,omitempty"`
	WebpageURL  string  `json:"webpage_url"`
	OriginalURL string  `json:"original_url,omitempty"`
	Duration    float64 `json:"duration"`
	Thumbnail   string  `json:"thumbnail,omitempty"`
	Uploader    string  `json:"uploader,omitempty"`
}

// Track is an immutable unit of playable media. Values are shared by pointer
// and never modified; use the With* methods to derive changed copies.
type Track struct {
	ID          string
	Title       string
	WebpageURL  string
	OriginalURL string
	StreamURL   string
	Duration    int // seconds, 0 when unknown
	Thumbnail   string
	Uploader    string
	Requester   Requester
	ResolvedAt  time.Time // when StreamURL was obtained
}

// FromDescriptor builds a Track that has not been resolved in this process.
func FromDescriptor(d Descriptor) *Track {
	title := d.Title
	if title == "" {
		title = "Unknown"
	}
	return &Track{
		ID:          d.ID,
		Title:       title,
		WebpageURL:  d.WebpageURL,
		OriginalURL: d.OriginalURL,
		StreamURL:   d.URL,
		Duration:    int(d.Duration),
		Thumbnail:   d.Thumbnail,
		Uploader:    d.Uploader,
	}
}

// Descriptor returns the serialized form of t.
func (t *Track) Descriptor() Descriptor {
	return Descriptor{
		ID:          t.ID,
		Title:       t.Title,
		URL:         t.StreamURL,
		WebpageURL:  t.WebpageURL,
		OriginalURL: t.OriginalURL,
		Duration:    float64(t.Duration),
		Thumbnail:   t.Thumbnail,
		Uploader:    t.Uploader,
	}
}

// WithStream returns a copy of t carrying a freshly resolved stream URL.
func (t *Track) WithStream(url string, at time.Time) *Track {
	c := *t
	c.StreamURL = url
	c.ResolvedAt = at
	return &c
}

// WithRequester returns a copy of t attributed to r.
func (t *Track) WithRequester(r Requester) *Track {
	c := *t
	c.Requester = r
	return &c
}

// Playable reports whether the stream URL can be handed to the transport
// without refreshing it first. A zero maxAge disables the age check.
func (t *Track) Playable(now time.Time, maxAge time.Duration) bool {
	if t.StreamURL == "" {
		return false
	}
	if maxAge <= 0 {
		return true
	}
	return !t.ResolvedAt.IsZero() && now.Sub(t.ResolvedAt) < maxAge
}

// Link returns the best URL to show users.
func (t *Track) Link() string {
	if t.WebpageURL != "" {
		return t.WebpageURL
	}
	return t.OriginalURL
}

// FormattedDuration renders the track length as MM:SS or H:MM:SS.
func (t *Track) FormattedDuration() string {
	if t.Duration <= 0 {
		return "N/A"
	}
	h, m, s := t.Duration/3600, (t.Duration%3600)/60, t.Duration%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Descriptors converts tracks to their serialized form.
func Descriptors(tracks []*Track) []Descriptor {
	out := make([]Descriptor, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, t.Descriptor())
	}
	return out
}

// Tracks converts descriptors back into tracks.
func Tracks(ds []Descriptor) []*Track {
	out := make([]*Track, 0, len(ds))
	for _, d := range ds {
		out = append(out, FromDescriptor(d))
	}
	return out
}
