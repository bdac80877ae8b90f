package commands

import (
	"errors"

	"Nocturne/player"
	"Nocturne/queue"
	"Nocturne/yt"

	"github.com/Strum355/log"
	"github.com/bwmarrin/discordgo"
)

var errInvalidArgument = errors.New("invalid command argument")

type interactionError struct {
	err     error
	message string
}

func invalidArgument(message string) *interactionError {
	return &interactionError{errInvalidArgument, message}
}

// Handle handles responding to error messages within Discord. Deferred
// interactions get a followup instead.
func (e *interactionError) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if errors.Is(e.err, errInvalidArgument) {
		log.WithError(e.err).Debug(e.message)
	} else {
		log.WithError(e.err).Error(e.message)
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:   discordgo.MessageFlagsEphemeral,
			Content: e.message,
		},
	})
	if err != nil {
		s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
			Flags:   discordgo.MessageFlagsEphemeral,
			Content: e.message,
		})
	}
}

// requestError turns a failed play request into a message for the user.
func requestError(err error) *interactionError {
	var (
		hint *yt.HintError
		perr *player.PlaybackError
	)
	switch {
	case errors.As(err, &hint):
		return &interactionError{err, "❌ No results found, " + hint.Hint + "."}
	case errors.Is(err, yt.ErrUnsupportedSource):
		return &interactionError{err, "❌ That link isn't supported."}
	case errors.Is(err, yt.ErrNoResults):
		return &interactionError{err, "No results found."}
	case errors.Is(err, queue.ErrQueueFull):
		return &interactionError{err, "The queue is full."}
	case errors.Is(err, player.ErrNotConnected), errors.As(err, &perr) && perr.Reason == player.ReasonTransport:
		return &interactionError{err, "Could not connect to voice channel."}
	}
	return &interactionError{err, "❌ Could not fetch that. It may be private or removed."}
}
