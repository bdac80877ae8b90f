package yt

import (
	"encoding/json"
	"strings"

	"Nocturne/music"
)

// Options selects how a resolver expands its input.
type Options struct {
	// Flat lists playlist entries without resolving their stream URLs.
	Flat bool
	// Single disables playlist expansion for URLs that carry both a video and a list.
	Single bool
	// Start and End select a 1-based inclusive range of playlist items. A zero End means open ended.
	Start, End int
}

// info mirrors the subset of yt-dlp's JSON output the bot uses.
type info struct {
	Type        string  `json:"_type"`
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	WebpageURL  string  `json:"webpage_url"`
	OriginalURL string  `json:"original_url"`
	Duration    float64 `json:"duration"`
	Thumbnail   string  `json:"thumbnail"`
	Thumbnails  []struct {
		URL string `json:"url"`
	} `json:"thumbnails"`
	Uploader string  `json:"uploader"`
	Channel  string  `json:"channel"`
	Entries  []*info `json:"entries"`
}

// parseInfo decodes a --dump-single-json document into descriptors, flattening
// playlists and skipping unavailable entries.
func parseInfo(raw []byte, flat bool) ([]music.Descriptor, error) {
	var root info
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, err
	}
	var out []music.Descriptor
	collect(&root, flat, &out)
	return out, nil
}

func collect(i *info, flat bool, out *[]music.Descriptor) {
	if i == nil {
		return
	}
	if i.Type == "playlist" || i.Type == "multi_video" || len(i.Entries) > 0 {
		for _, e := range i.Entries {
			collect(e, flat, out)
		}
		return
	}
	if i.ID == "" && i.URL == "" {
		return
	}
	*out = append(*out, i.descriptor(flat))
}

func (i *info) descriptor(flat bool) music.Descriptor {
	d := music.Descriptor{
		ID:          i.ID,
		Title:       i.Title,
		WebpageURL:  i.WebpageURL,
		OriginalURL: i.OriginalURL,
		Duration:    i.Duration,
		Thumbnail:   i.Thumbnail,
		Uploader:    i.Uploader,
	}
	if d.Uploader == "" {
		d.Uploader = i.Channel
	}
	if d.Thumbnail == "" && len(i.Thumbnails) > 0 {
		d.Thumbnail = i.Thumbnails[len(i.Thumbnails)-1].URL
	}
	// flat entries carry the page URL in "url"
	if flat || i.Type == "url" {
		if d.WebpageURL == "" {
			d.WebpageURL = i.URL
		}
	} else {
		d.URL = i.URL
	}
	if d.WebpageURL == "" && d.ID != "" && strings.Contains(d.OriginalURL, "youtu") {
		d.WebpageURL = "https://www.youtube.com/watch?v=" + d.ID
	}
	return d
}
