package handlers

import (
	"context"
	"regexp"
	"strings"

	"Nocturne/commands"
	"Nocturne/music"

	"github.com/Strum355/log"
	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

var linkPattern = regexp.MustCompile(`https?://\S+`)

// MessageHandler handles message commands
func MessageHandler(s *discordgo.Session, m *discordgo.MessageCreate) {
	// If message is sent from the bot
	if m.Author.ID == s.State.User.ID {
		return
	}
	prefix := viper.GetString("prefix")

	if len(m.Content) == 0 || len(prefix) == 0 {
		return
	}

	if !strings.HasPrefix(m.Content, prefix) {
		return
	}
	firstWord, _, _ := strings.Cut(m.Content, " ")
	switch firstWord {
	case prefix:
		s.ChannelMessageSend(m.ChannelID, "type `"+prefix+"help` to open help menu.") // invalid prefix command
	case prefix + "help":
		HelpEmbedding(s, m)
	}
}

// requestLink returns the first YouTube or Spotify link in content.
func requestLink(content string) string {
	for _, link := range linkPattern.FindAllString(content, -1) {
		if strings.Contains(link, "youtube.com") || strings.Contains(link, "youtu.be") || strings.Contains(link, "spotify.com") {
			return link
		}
	}
	return ""
}

// RequestChannelHandler queues links posted in a guild's request channel
func RequestChannelHandler(mu *commands.Music) func(*discordgo.Session, *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot || m.GuildID == "" {
			return
		}
		if ch := mu.Queue.RequestChannel(m.GuildID); ch == "" || ch != m.ChannelID {
			return
		}
		link := requestLink(m.Content)
		if link == "" {
			return
		}

		ctx := context.WithValue(context.Background(), log.Key, log.Fields{
			"author_id":        m.Author.ID,
			"channel_id":       m.ChannelID,
			"guild_id":         m.GuildID,
			"user":             m.Author.Username,
			"interaction_type": "request_channel",
		})

		voiceChannel := commands.UserVoiceChannel(s, m.GuildID, m.Author.ID)
		if voiceChannel == "" {
			s.MessageReactionAdd(m.ChannelID, m.ID, "❌")
			return
		}
		if bot := mu.Player.ChannelID(m.GuildID); bot != "" && bot != voiceChannel {
			s.MessageReactionAdd(m.ChannelID, m.ID, "❌")
			return
		}

		log.WithContext(ctx).Info("Queueing link from request channel")
		requester := music.Requester{ID: m.Author.ID, Name: m.Author.Username}
		res, err := mu.Request(ctx, m.GuildID, voiceChannel, m.ChannelID, link, requester)
		if err != nil {
			log.WithContext(ctx).WithError(err).Info("Request channel link failed")
			s.MessageReactionAdd(m.ChannelID, m.ID, "❌")
			return
		}
		if len(res.Tracks) > 1 {
			s.MessageReactionAdd(m.ChannelID, m.ID, "📋")
		} else {
			s.MessageReactionAdd(m.ChannelID, m.ID, "✅")
		}
	}
}
