package handlers

import (
	"context"

	"Nocturne/commands"

	"github.com/Strum355/log"
	"github.com/bwmarrin/discordgo"
)

// shouldLeave reports whether the bot should leave after someone left
// channel left while the bot sits in botChannel.
func shouldLeave(botChannel, left string, humans int, always bool) bool {
	return botChannel != "" && botChannel == left && humans == 0 && !always
}

// VoiceStateHandler cleans up when the bot is removed from voice and leaves
// channels that have emptied, unless 24/7 mode is on
func VoiceStateHandler(mu *commands.Music) func(*discordgo.Session, *discordgo.VoiceStateUpdate) {
	return func(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
		if vs.VoiceState == nil {
			return
		}
		fields := log.Fields{"guild_id": vs.GuildID, "user_id": vs.UserID}

		if s.State.User != nil && vs.UserID == s.State.User.ID {
			if vs.ChannelID == "" {
				mu.Player.HandleVoiceLost(vs.GuildID)
			}
			return
		}

		before := vs.BeforeUpdate
		if before == nil || before.ChannelID == "" || before.ChannelID == vs.ChannelID {
			return
		}
		botChannel := mu.Player.ChannelID(vs.GuildID)
		if !shouldLeave(botChannel, before.ChannelID, commands.Listeners(s, vs.GuildID, before.ChannelID), mu.Queue.Always(vs.GuildID)) {
			return
		}
		log.WithFields(fields).Info("Left alone in voice, disconnecting")
		if err := mu.Player.Disconnect(context.Background(), vs.GuildID); err != nil {
			log.WithError(err).WithFields(fields).Warn("Couldn't leave voice cleanly")
		}
	}
}
