package handlers

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

var helpSections = []struct {
	name     string
	commands []string
}{
	{"🎵 Playback", []string{"`/play <link or search>`", "`/search <query>`", "`/pause` `/resume` `/skip` `/stop`", "`/seek <position>`", "`/volume <0-100>`", "`/filter <name>`", "`/disconnect`"}},
	{"📋 Queue", []string{"`/queue [page]`", "`/nowplaying`", "`/shuffle`", "`/loop [mode]`", "`/remove <position>`", "`/move <from> <to>`"}},
	{"💾 Playlists", []string{"`/playlist save|load|delete <name>`", "`/playlist list`"}},
	{"⚙️ Server", []string{"`/247`", "`/autoplay`", "`/requestchannel set|clear|show`", "`/lyrics [query]`", "`/stats`"}},
}

// HelpEmbedding creates the embedding for the help menu
func HelpEmbedding(s *discordgo.Session, m *discordgo.MessageCreate) {
	botAvatarURL := s.State.User.AvatarURL("64")
	helpEmbed := &discordgo.MessageEmbed{
		Title: "Nocturne Help",
		Thumbnail: &discordgo.MessageEmbedThumbnail{
			URL: botAvatarURL,
		},
		Color: viper.GetInt("theme"),
	}
	for _, section := range helpSections {
		helpEmbed.Fields = append(helpEmbed.Fields, &discordgo.MessageEmbedField{
			Name:  section.name,
			Value: strings.Join(section.commands, "\n"),
		})
	}
	s.ChannelMessageSendEmbed(m.ChannelID, helpEmbed)
}
