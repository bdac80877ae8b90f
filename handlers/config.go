package handlers

import (
	"Nocturne/commands"

	"github.com/bwmarrin/discordgo"
)

// HandlerConfig handles configs for intents and handlers
func HandlerConfig(s *discordgo.Session, m *commands.Music) {
	s.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates | discordgo.IntentsMessageContent
	s.AddHandler(MessageHandler)
	s.AddHandler(RequestChannelHandler(m))
	s.AddHandler(VoiceStateHandler(m))
}
