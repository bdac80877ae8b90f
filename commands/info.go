package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"Nocturne/lyrics"

	"github.com/bwmarrin/discordgo"
)

const (
	lyricsChunk  = 4096
	lyricsEmbeds = 3
)

// showLyrics looks up lyrics for a query or the current song
func (m *Music) showLyrics(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	query := strings.TrimSpace(optionString(i, "query"))
	current := m.Queue.Current(i.GuildID)
	if query == "" && current == nil {
		return invalidArgument("Please provide a song name or play something first.")
	}

	deferResponse(s, i)
	var (
		text string
		err  error
	)
	if query != "" {
		text, err = m.Lyrics.Search(ctx, query)
	} else {
		artist, title := lyrics.GuessArtistTitle(current.Title)
		if artist == "" {
			artist = current.Uploader
		}
		query = current.Title
		text, err = m.Lyrics.Fetch(ctx, artist, title)
	}
	switch {
	case errors.Is(err, lyrics.ErrNotFound):
		followup(s, i, fmt.Sprintf("No lyrics found for '%s'.", query))
		return nil
	case err != nil:
		return &interactionError{err, "Couldn't reach the lyrics service"}
	}

	chunks := lyrics.Chunk(text, lyricsChunk)
	for idx, chunk := range chunks[:min(len(chunks), lyricsEmbeds)] {
		followupEmbed(s, i, lyricsEmbed(query, chunk, idx+1, len(chunks)))
	}
	return nil
}

// stats shows uptime, usage and cache performance
func (m *Music) stats(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	st := botStats{
		Uptime:      time.Since(m.started),
		Guilds:      len(s.State.Guilds),
		Voice:       m.Player.ActiveGuilds(),
		TotalQueued: m.Queue.TotalQueued(),
	}
	if m.Cache != nil {
		st.Cache = m.Cache.Stats()
	}
	respondEmbed(s, i, statsEmbed(st))
	return nil
}
