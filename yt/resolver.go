package yt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Nocturne/music"

	"github.com/Strum355/log"
	"github.com/lrstanley/go-ytdlp"
)

// Resolver turns a URL or search expression into track descriptors.
type Resolver interface {
	Resolve(ctx context.Context, query string, opts Options) ([]music.Descriptor, error)
}

// Ytdlp resolves through the yt-dlp binary.
type Ytdlp struct {
	Proxy string
}

func (y *Ytdlp) Resolve(ctx context.Context, query string, opts Options) ([]music.Descriptor, error) {
	cmd := ytdlp.New().
		DumpSingleJSON().
		Format("bestaudio/best").
		NoWarnings().
		IgnoreConfig()

	if opts.Flat {
		cmd.FlatPlaylist()
	} else if opts.Single {
		cmd.NoPlaylist()
	}
	if items := playlistItems(opts); items != "" {
		cmd.PlaylistItems(items)
	}
	if y.Proxy != "" {
		cmd.Proxy(y.Proxy)
	}

	res, err := cmd.Run(ctx, query)
	if err != nil {
		if res != nil && res.Stderr != "" {
			return nil, fmt.Errorf("yt-dlp: %w: %s", err, lastLine(res.Stderr))
		}
		return nil, fmt.Errorf("yt-dlp: %w", err)
	}
	return parseInfo([]byte(res.Stdout), opts.Flat)
}

func playlistItems(opts Options) string {
	switch {
	case opts.Start <= 0 && opts.End <= 0:
		return ""
	case opts.End <= 0:
		return fmt.Sprintf("%d:", opts.Start)
	default:
		start := max(opts.Start, 1)
		return fmt.Sprintf("%d:%d", start, opts.End)
	}
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Chain tries each resolver in order and returns the first success.
type Chain []Resolver

func (c Chain) Resolve(ctx context.Context, query string, opts Options) ([]music.Descriptor, error) {
	var errs []error
	for _, r := range c {
		ds, err := r.Resolve(ctx, query, opts)
		if err == nil {
			return ds, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.Is(err, ErrUnsupportedSource) {
			log.WithError(err).WithFields(log.Fields{"query": query}).Debug("Resolver failed, trying next")
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrUnsupportedSource
	}
	return nil, errors.Join(errs...)
}
