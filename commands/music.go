package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Nocturne/cache"
	"Nocturne/lyrics"
	"Nocturne/metrics"
	"Nocturne/music"
	"Nocturne/player"
	"Nocturne/playlist"
	"Nocturne/queue"
	"Nocturne/yt"

	"github.com/Strum355/log"
)

const (
	remainingTimeout = 2 * time.Minute
	prefetchWorkers  = 2
)

// Music holds everything the music commands act on.
type Music struct {
	Player           *player.Controller
	Queue            *queue.Manager
	Extractor        *yt.Extractor
	Lyrics           *lyrics.Provider
	Cache            cache.Cache
	Metrics          *metrics.Metrics
	Notifier         *Notifier
	MaxPlaylistItems int
	PrefetchCount    int

	started time.Time
}

// RequestResult describes what a play request queued.
type RequestResult struct {
	player.PlayResult
	Tracks []*music.Track
	// MoreLoading is set when the rest of a playlist is loading in the background.
	MoreLoading bool
}

// Request joins the requester's voice channel, resolves query and queues
// the result, starting playback when the guild is idle.
func (m *Music) Request(ctx context.Context, guildID, voiceChannelID, textChannelID, query string, requester music.Requester) (RequestResult, error) {
	var res RequestResult
	if err := m.Player.Connect(ctx, guildID, voiceChannelID); err != nil {
		return res, err
	}
	m.Notifier.Bind(guildID, textChannelID)

	tracks, err := m.Extractor.Resolve(ctx, query, requester, m.MaxPlaylistItems)
	if err != nil {
		return res, err
	}
	res.Tracks = tracks

	res.PlayResult, err = m.Player.Play(ctx, guildID, tracks)
	if err != nil {
		return res, err
	}

	if len(tracks) > 1 {
		go m.prefetch(guildID)
	}
	if yt.IsPlaylistURL(query) && len(tracks) >= m.MaxPlaylistItems {
		res.MoreLoading = true
		go m.loadRemaining(guildID, textChannelID, query, len(tracks), requester)
	}
	return res, nil
}

// prefetch warms stream URLs for the next few tracks in the queue.
func (m *Music) prefetch(guildID string) {
	if m.PrefetchCount <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), remainingTimeout)
	defer cancel()
	n := playlist.Prefetch(ctx, m.Extractor, m.Queue.Pending(guildID), m.PrefetchCount, prefetchWorkers)
	log.WithFields(log.Fields{"guild_id": guildID, "resolved": n}).Debug("Prefetched upcoming tracks")
}

func (m *Music) loadRemaining(guildID, textChannelID, playlistURL string, loaded int, requester music.Requester) {
	ctx, cancel := context.WithTimeout(context.Background(), remainingTimeout)
	defer cancel()

	tracks, err := m.Extractor.ExtractRemaining(ctx, playlistURL, loaded, requester)
	if err != nil || len(tracks) == 0 {
		if err != nil && !errors.Is(err, yt.ErrNoResults) {
			log.WithError(err).WithFields(log.Fields{"guild_id": guildID, "url": playlistURL}).Warn("Couldn't load the rest of the playlist")
		}
		return
	}
	before := len(m.Queue.Pending(guildID))
	n, err := m.Player.Enqueue(guildID, tracks)
	if err != nil && !errors.Is(err, queue.ErrQueueFull) {
		log.WithError(err).WithFields(log.Fields{"guild_id": guildID}).Warn("Couldn't queue the rest of the playlist")
		return
	}
	if added := n - before; added > 0 {
		m.Notifier.Send(textChannelID, fmt.Sprintf("✅ Loaded %d more songs from playlist.", added))
	}
}
