package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Nocturne/music"
	"Nocturne/player"
	"Nocturne/utils"

	"github.com/bwmarrin/discordgo"
)

const searchResults = 5

// play resolves the query and queues it, joining the caller's channel
func (m *Music) play(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	query := strings.TrimSpace(optionString(i, "query"))
	if query == "" {
		return invalidArgument("Give me a link or a song name 🎵")
	}
	channelID, iErr := m.checkUserVoiceChannel(s, i)
	if iErr != nil {
		return iErr
	}

	deferResponse(s, i)
	res, err := m.Request(ctx, i.GuildID, channelID, i.ChannelID, query, requesterOf(i.Member.User))
	if err != nil {
		return requestError(err)
	}
	followupEmbed(s, i, requestEmbed(res))
	return nil
}

// search lists the top results for a query with a menu to queue one
func (m *Music) search(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	query := strings.TrimSpace(optionString(i, "query"))
	if query == "" {
		return invalidArgument("Tell me what to search for 🔎")
	}

	deferResponse(s, i)
	tracks, err := m.Extractor.Search(ctx, query, requesterOf(i.Member.User), searchResults)
	if err != nil {
		return requestError(err)
	}
	embed, menu := searchEmbed(query, tracks)
	followupEmbed(s, i, embed, menu)
	return nil
}

// skip votes to skip the current song, skipping outright for the requester or moderators
func (m *Music) skip(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	channelID, iErr := m.checkUserVoiceChannel(s, i)
	if iErr != nil {
		return iErr
	}

	res, err := m.Player.Skip(i.GuildID, player.SkipRequest{
		VoterID:    i.Member.User.ID,
		Privileged: hasPermission(i, discordgo.PermissionManageChannels),
		Listeners:  Listeners(s, i.GuildID, channelID),
	})
	switch {
	case errors.Is(err, player.ErrNothingPlaying), errors.Is(err, player.ErrNotConnected):
		return invalidArgument("Nothing to skip.")
	case err != nil:
		return &interactionError{err, "Couldn't skip"}
	case res.AlreadyVoted:
		return invalidArgument("You already voted to skip!")
	case !res.Skipped:
		respond(s, i, fmt.Sprintf("🗳️ Vote to skip: %d/%d", res.Votes, res.Required))
	case res.Forced:
		respond(s, i, "⏭️ Skipped")
	default:
		respond(s, i, "🗳️ Vote passed! Skipping...")
	}
	return nil
}

// stop clears the queue and ends the current song
func (m *Music) stop(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	if _, iErr := m.checkUserVoiceChannel(s, i); iErr != nil {
		return iErr
	}
	m.Player.Stop(i.GuildID)
	respond(s, i, "Stopped and cleared queue. ⏹️")
	return nil
}

// pause pauses the current song
func (m *Music) pause(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	if _, iErr := m.checkUserVoiceChannel(s, i); iErr != nil {
		return iErr
	}
	switch {
	case m.Player.Pause(i.GuildID):
		respond(s, i, "⏸️ Paused")
	case m.Player.StateOf(i.GuildID) == player.Paused:
		respond(s, i, "Already paused.")
	default:
		respond(s, i, "Nothing is playing right now 😶")
	}
	return nil
}

// resume resumes the paused song
func (m *Music) resume(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	if _, iErr := m.checkUserVoiceChannel(s, i); iErr != nil {
		return iErr
	}
	switch {
	case m.Player.Resume(i.GuildID):
		respond(s, i, "▶️ Resumed")
	case m.Player.StateOf(i.GuildID) == player.Playing:
		respond(s, i, "Already playing.")
	default:
		respond(s, i, "Nothing paused.")
	}
	return nil
}

// volume sets the playback volume in percent
func (m *Music) volume(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	level := optionInt(i, "level", -1)
	if level < 0 || level > 100 {
		return invalidArgument("Volume must be between 0 and 100.")
	}
	if _, err := m.Player.SetVolume(ctx, i.GuildID, float64(level)/100); err != nil {
		return &interactionError{err, "Couldn't apply the new volume"}
	}
	respond(s, i, fmt.Sprintf("Volume set to %d%% 🔊", level))
	return nil
}

// loop sets the loop mode, cycling through modes when none is given
func (m *Music) loop(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	var mode music.LoopMode
	if name := optionString(i, "mode"); name != "" {
		parsed, err := music.ParseLoopMode(name)
		if err != nil {
			return invalidArgument("Loop mode must be off, song or queue.")
		}
		mode = parsed
		m.Player.Run(i.GuildID, func() {
			m.Queue.SetLoop(i.GuildID, mode)
		})
	} else {
		mode = m.cycleLoop(i.GuildID)
	}
	respond(s, i, fmt.Sprintf("%s Loop mode: **%s**", mode.Emoji(), mode))
	return nil
}

// seek jumps to a position in the current song
func (m *Music) seek(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	secs, err := utils.ParseTimestamp(optionString(i, "position"))
	if err != nil {
		return invalidArgument("❌ Invalid format. Use MM:SS or seconds.")
	}
	if _, iErr := m.checkUserVoiceChannel(s, i); iErr != nil {
		return iErr
	}

	deferResponse(s, i)
	err = m.Player.Seek(ctx, i.GuildID, secs)
	switch {
	case errors.Is(err, player.ErrInvalidPosition):
		return invalidArgument("❌ Timestamp exceeds song duration.")
	case errors.Is(err, player.ErrNothingPlaying), errors.Is(err, player.ErrNotConnected):
		return invalidArgument("Nothing is playing.")
	case err != nil:
		return &interactionError{err, "❌ Could not seek."}
	}
	followup(s, i, fmt.Sprintf("⏩ Seeked to **%s**", seconds(secs)))
	return nil
}

// filter applies an audio filter to the current and following songs
func (m *Music) filter(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	f, err := music.ParseFilter(strings.ToLower(optionString(i, "name")))
	if err != nil {
		names := make([]string, len(music.Filters))
		for idx, v := range music.Filters {
			names[idx] = string(v)
		}
		return invalidArgument("❌ Invalid filter. Available: " + strings.Join(names, ", "))
	}

	deferResponse(s, i)
	restarted, err := m.Player.ApplyFilter(ctx, i.GuildID, f)
	if err != nil {
		return &interactionError{err, "❌ Could not apply filter."}
	}
	msg := fmt.Sprintf("🎵 Filter set to **%s**", f)
	if !restarted {
		msg += ", it applies from the next song"
	}
	followup(s, i, msg)
	return nil
}

// shuffle shuffles the upcoming songs
func (m *Music) shuffle(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	shuffled := false
	m.Player.Run(i.GuildID, func() {
		if len(m.Queue.Pending(i.GuildID)) < 2 {
			return
		}
		m.Queue.Shuffle(i.GuildID)
		shuffled = true
	})
	if !shuffled {
		return invalidArgument("Not enough songs to shuffle.")
	}
	respond(s, i, "🔀 Queue shuffled!")
	return nil
}

// remove drops a song from the queue by position
func (m *Music) remove(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	pos := optionInt(i, "position", 0)
	var (
		removed *music.Track
		size    int
	)
	m.Player.Run(i.GuildID, func() {
		size = len(m.Queue.Pending(i.GuildID))
		if pos >= 1 && pos <= size {
			removed = m.Queue.RemoveAt(i.GuildID, pos-1)
		}
	})
	switch {
	case size == 0:
		return invalidArgument("Queue is empty.")
	case removed == nil:
		return invalidArgument(fmt.Sprintf("Invalid index. Must be 1-%d.", size))
	}
	respond(s, i, fmt.Sprintf("🗑️ Removed **%s** (#%d).", removed.Title, pos))
	return nil
}

// move moves a queued song to another position
func (m *Music) move(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	from, to := optionInt(i, "from", 0), optionInt(i, "to", 0)
	var (
		moved *music.Track
		size  int
	)
	m.Player.Run(i.GuildID, func() {
		pending := m.Queue.Pending(i.GuildID)
		size = len(pending)
		if from < 1 || from > size || to < 1 || to > size {
			return
		}
		if m.Queue.Move(i.GuildID, from-1, to-1) {
			moved = pending[from-1]
		}
	})
	switch {
	case size == 0:
		return invalidArgument("Queue is empty.")
	case moved == nil:
		return invalidArgument(fmt.Sprintf("Invalid positions. Queue has %d songs.", size))
	}
	respond(s, i, fmt.Sprintf("✅ Moved **%s** from #%d to #%d", moved.Title, from, to))
	return nil
}

// currentQueue shows a page of the queue
func (m *Music) currentQueue(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	snap := m.Queue.State(i.GuildID)
	if snap.Current == nil && len(snap.Pending) == 0 {
		respond(s, i, "🎶 The queue is empty 😶")
		return nil
	}
	respondEmbed(s, i, queueEmbed(snap, optionInt(i, "page", 1)))
	return nil
}

// nowPlaying shows the current song with its progress and the controls
func (m *Music) nowPlaying(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	st := m.Player.Snapshot(i.GuildID)
	if st.Queue.Current == nil {
		respond(s, i, "🎶 Nothing is playing right now 😶")
		return nil
	}
	m.Notifier.Bind(i.GuildID, i.ChannelID)
	respondEmbed(s, i, nowPlayingDetailed(st), controls(st.State == player.Paused, st.Queue.Loop)...)
	return nil
}

// disconnect leaves the voice channel and forgets the queue
func (m *Music) disconnect(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	if m.Player.ChannelID(i.GuildID) == "" {
		return invalidArgument("I'm not in a voice channel.")
	}
	if err := m.Player.Disconnect(ctx, i.GuildID); err != nil {
		return &interactionError{err, "Couldn't leave the voice channel cleanly"}
	}
	respond(s, i, "👋 Disconnected.")
	return nil
}

// alwaysOn toggles staying connected when the channel empties
func (m *Music) alwaysOn(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	if !hasPermission(i, discordgo.PermissionManageServer) {
		return invalidArgument("You need the Manage Server permission for that.")
	}
	if m.toggleAlways(i.GuildID) {
		respond(s, i, "✅ **24/7 mode enabled** - I'll stay connected even when alone.")
	} else {
		respond(s, i, "❌ **24/7 mode disabled** - I'll disconnect when left alone.")
	}
	return nil
}

// autoplay toggles queueing related songs when the queue runs out
func (m *Music) autoplay(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	if m.toggleAutoplay(i.GuildID) {
		respond(s, i, "🔄 **Auto-play enabled** - I'll play similar songs when the queue ends.")
	} else {
		respond(s, i, "⏹️ **Auto-play disabled** - I'll stop when the queue ends.")
	}
	return nil
}

// Settings toggles read and write on the guild lane.

func (m *Music) cycleLoop(guildID string) (mode music.LoopMode) {
	m.Player.Run(guildID, func() {
		mode = m.Queue.CycleLoop(guildID)
	})
	return mode
}

func (m *Music) toggleAlways(guildID string) (on bool) {
	m.Player.Run(guildID, func() {
		on = !m.Queue.Always(guildID)
		m.Queue.SetAlways(guildID, on)
	})
	return on
}

func (m *Music) toggleAutoplay(guildID string) (on bool) {
	m.Player.Run(guildID, func() {
		on = !m.Queue.Autoplay(guildID)
		m.Queue.SetAutoplay(guildID, on)
	})
	return on
}
