package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Nocturne/playlist"
	"Nocturne/queue"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// playList handles all the subcommands of the playlist command
func (m *Music) playList(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	name := strings.TrimSpace(optionString(i, "name"))
	sub := subcommand(i)
	if sub != "list" && name == "" {
		return invalidArgument("Give the playlist a name.")
	}

	switch sub {
	case "save":
		n, err := m.Queue.SavePlaylist(ctx, i.GuildID, name)
		switch {
		case errors.Is(err, queue.ErrEmptyQueue):
			return invalidArgument("❌ Queue is empty, nothing to save.")
		case err != nil:
			return &interactionError{err, "Couldn't save the playlist"}
		}
		respond(s, i, fmt.Sprintf("💾 Saved playlist **%s** with %d songs!", name, n))
	case "load":
		return m.loadPlaylist(ctx, s, i, name)
	case "delete":
		ok, err := m.Queue.DeletePlaylist(ctx, i.GuildID, name)
		switch {
		case err != nil:
			return &interactionError{err, "Couldn't delete the playlist"}
		case !ok:
			return invalidArgument(fmt.Sprintf("❌ Playlist **%s** not found.", name))
		}
		respond(s, i, fmt.Sprintf("🗑️ Deleted playlist **%s**.", name))
	default:
		names, err := m.Queue.ListPlaylists(ctx, i.GuildID)
		if err != nil {
			return &interactionError{err, "Couldn't list playlists"}
		}
		if len(names) == 0 {
			respond(s, i, "No saved playlists. Use `/playlist save` to create one!")
			return nil
		}
		lines := make([]string, len(names))
		for idx, n := range names {
			lines[idx] = "• **" + n + "**"
		}
		respondEmbed(s, i, &discordgo.MessageEmbed{
			Title:       "📋 Saved Playlists",
			Description: strings.Join(lines, "\n"),
			Color:       viper.GetInt("theme"),
		})
	}
	return nil
}

func (m *Music) loadPlaylist(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, name string) *interactionError {
	tracks, err := m.Queue.LoadPlaylist(ctx, i.GuildID, name)
	switch {
	case errors.Is(err, playlist.ErrNotFound):
		return invalidArgument(fmt.Sprintf("❌ Playlist **%s** not found.", name))
	case err != nil:
		return &interactionError{err, "Couldn't load the playlist"}
	}
	req := requesterOf(i.Member.User)
	for idx, t := range tracks {
		tracks[idx] = t.WithRequester(req)
	}

	// outside voice the playlist only queues
	channelID := UserVoiceChannel(s, i.GuildID, i.Member.User.ID)
	if channelID != "" {
		if _, iErr := m.checkUserVoiceChannel(s, i); iErr != nil {
			return iErr
		}
	}

	deferResponse(s, i)
	var added int
	if channelID != "" && m.Player.Connect(ctx, i.GuildID, channelID) == nil {
		m.Notifier.Bind(i.GuildID, i.ChannelID)
		res, err := m.Player.Play(ctx, i.GuildID, tracks)
		if err != nil && !errors.Is(err, queue.ErrQueueFull) {
			return requestError(err)
		}
		added = res.Added
	} else {
		before := len(m.Queue.Pending(i.GuildID))
		n, err := m.Player.Enqueue(i.GuildID, tracks)
		if err != nil && !errors.Is(err, queue.ErrQueueFull) {
			return &interactionError{err, "Couldn't queue the playlist"}
		}
		added = n - before
	}
	go m.prefetch(i.GuildID)
	followup(s, i, fmt.Sprintf("📋 Loaded **%d** songs from playlist **%s**!", added, name))
	return nil
}

// requestChannel manages the channel where links are queued automatically
func (m *Music) requestChannel(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	if !hasPermission(i, discordgo.PermissionManageChannels) {
		return invalidArgument("You need the Manage Channels permission for that.")
	}
	switch subcommand(i) {
	case "set":
		m.Queue.SetRequestChannel(i.GuildID, i.ChannelID)
		respond(s, i, fmt.Sprintf("✅ Song requests enabled in <#%s>! Drop YouTube/Spotify links here.", i.ChannelID))
	case "clear":
		m.Queue.SetRequestChannel(i.GuildID, "")
		respond(s, i, "❌ Song request channel disabled.")
	default:
		ch := m.Queue.RequestChannel(i.GuildID)
		if ch == "" {
			respond(s, i, "Song request channel not set. Use `/requestchannel set` in the desired channel.")
			return nil
		}
		if _, err := s.State.Channel(ch); err != nil {
			respond(s, i, "⚠️ Request channel is set but the channel no longer exists. Use `/requestchannel clear`")
			return nil
		}
		respond(s, i, fmt.Sprintf("🎵 Song requests are enabled in <#%s>", ch))
	}
	return nil
}
