package commands

import (
	"context"
	"fmt"

	"Nocturne/player"

	"github.com/bwmarrin/discordgo"
)

// acknowledge answers a component interaction without changing the message
func acknowledge(s *discordgo.Session, i *discordgo.InteractionCreate) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

// updateControls redraws the buttons on the message the interaction came from
func (m *Music) updateControls(s *discordgo.Session, i *discordgo.InteractionCreate) {
	paused := m.Player.StateOf(i.GuildID) == player.Paused
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Components: controls(paused, m.Queue.Loop(i.GuildID)),
		},
	})
}

// togglePause pauses or resumes playback from the now playing message
func (m *Music) togglePause(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	if _, iErr := m.checkUserVoiceChannel(s, i); iErr != nil {
		return iErr
	}
	if !m.Player.Pause(i.GuildID) {
		m.Player.Resume(i.GuildID)
	}
	m.updateControls(s, i)
	return nil
}

// skipButton skips like the slash command, replying only when a vote is recorded
func (m *Music) skipButton(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
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
	case err != nil:
		return invalidArgument("Nothing to skip.")
	case res.AlreadyVoted:
		return invalidArgument("You already voted to skip!")
	case !res.Skipped:
		s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: fmt.Sprintf("🗳️ Vote to skip: %d/%d", res.Votes, res.Required),
			},
		})
		return nil
	}
	acknowledge(s, i)
	return nil
}

func (m *Music) stopButton(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	if _, iErr := m.checkUserVoiceChannel(s, i); iErr != nil {
		return iErr
	}
	m.Player.Stop(i.GuildID)
	acknowledge(s, i)
	return nil
}

func (m *Music) loopButton(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	m.cycleLoop(i.GuildID)
	m.updateControls(s, i)
	return nil
}

func (m *Music) shuffleButton(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	m.Player.Run(i.GuildID, func() {
		m.Queue.Shuffle(i.GuildID)
	})
	acknowledge(s, i)
	return nil
}

// searchPick queues the result chosen from a search menu
func (m *Music) searchPick(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return invalidArgument("Pick a song from the list.")
	}
	channelID, iErr := m.checkUserVoiceChannel(s, i)
	if iErr != nil {
		return iErr
	}

	deferResponse(s, i)
	res, err := m.Request(ctx, i.GuildID, channelID, i.ChannelID, values[0], requesterOf(i.Member.User))
	if err != nil {
		return requestError(err)
	}
	followupEmbed(s, i, requestEmbed(res))
	return nil
}
