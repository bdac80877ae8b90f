package yt

import (
	"context"
	"errors"
	"strings"
	"time"

	"Nocturne/music"

	"github.com/kkdai/youtube/v2"
)

// YouTube resolves single YouTube videos without shelling out. It cannot
// expand playlists or run searches.
type YouTube struct {
	Client youtube.Client
}

func (y *YouTube) Resolve(ctx context.Context, query string, opts Options) ([]music.Descriptor, error) {
	if opts.Flat || !IsYouTubeURL(query) {
		return nil, ErrUnsupportedSource
	}
	if _, err := youtube.ExtractVideoID(query); err != nil {
		return nil, ErrUnsupportedSource
	}

	video, err := y.Client.GetVideoContext(ctx, query)
	if err != nil {
		return nil, err
	}
	format := bestAudio(video.Formats.WithAudioChannels())
	if format == nil {
		return nil, errors.New("no audio formats")
	}
	streamURL, err := y.Client.GetStreamURLContext(ctx, video, format)
	if err != nil {
		return nil, err
	}

	d := music.Descriptor{
		ID:          video.ID,
		Title:       video.Title,
		URL:         streamURL,
		WebpageURL:  "https://www.youtube.com/watch?v=" + video.ID,
		OriginalURL: query,
		Duration:    video.Duration.Round(time.Second).Seconds(),
		Uploader:    video.Author,
	}
	if len(video.Thumbnails) > 0 {
		d.Thumbnail = video.Thumbnails[len(video.Thumbnails)-1].URL
	}
	return []music.Descriptor{d}, nil
}

// bestAudio prefers audio-only formats, then the highest bitrate.
func bestAudio(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if best == nil {
			best = f
			continue
		}
		fAudio := strings.HasPrefix(f.MimeType, "audio/")
		bAudio := strings.HasPrefix(best.MimeType, "audio/")
		if fAudio != bAudio {
			if fAudio {
				best = f
			}
			continue
		}
		if f.Bitrate > best.Bitrate {
			best = f
		}
	}
	return best
}

// IsYouTubeURL reports whether s points at a YouTube host.
func IsYouTubeURL(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "youtube.com/") || strings.Contains(s, "youtu.be/")
}
