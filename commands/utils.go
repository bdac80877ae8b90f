package commands

import (
	"Nocturne/music"

	"github.com/bwmarrin/discordgo"
)

// UserVoiceChannel returns the voice channel the user is in, or "".
func UserVoiceChannel(s *discordgo.Session, guildID, userID string) string {
	vs, err := s.State.VoiceState(guildID, userID)
	if err != nil || vs == nil {
		return ""
	}
	return vs.ChannelID
}

// checkUserVoiceChannel checks whether the user is in a voice channel the
// bot can use and returns it.
func (m *Music) checkUserVoiceChannel(s *discordgo.Session, i *discordgo.InteractionCreate) (string, *interactionError) {
	channelID := UserVoiceChannel(s, i.GuildID, i.Member.User.ID)
	if channelID == "" {
		return "", invalidArgument("Join a voice channel first 😉")
	}
	if bot := m.Player.ChannelID(i.GuildID); bot != "" && bot != channelID {
		return "", invalidArgument("I'm already in another voice channel 😅")
	}
	return channelID, nil
}

// Listeners counts the humans in a voice channel.
func Listeners(s *discordgo.Session, guildID, channelID string) int {
	g, err := s.State.Guild(guildID)
	if err != nil {
		return 0
	}
	n := 0
	for _, vs := range g.VoiceStates {
		if vs.ChannelID != channelID || vs.UserID == s.State.User.ID {
			continue
		}
		if vs.Member != nil && vs.Member.User != nil && vs.Member.User.Bot {
			continue
		}
		if mem, err := s.State.Member(guildID, vs.UserID); err == nil && mem.User != nil && mem.User.Bot {
			continue
		}
		n++
	}
	return n
}

func hasPermission(i *discordgo.InteractionCreate, perm int64) bool {
	if i.Member == nil {
		return false
	}
	return i.Member.Permissions&(perm|discordgo.PermissionAdministrator) != 0
}

func requesterOf(u *discordgo.User) music.Requester {
	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	return music.Requester{ID: u.ID, Name: name}
}

func options(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	if len(opts) == 1 && (opts[0].Type == discordgo.ApplicationCommandOptionSubCommand) {
		opts = opts[0].Options
	}
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		out[o.Name] = o
	}
	return out
}

func subcommand(i *discordgo.InteractionCreate) string {
	opts := i.ApplicationCommandData().Options
	if len(opts) == 0 || opts[0].Type != discordgo.ApplicationCommandOptionSubCommand {
		return ""
	}
	return opts[0].Name
}

func optionString(i *discordgo.InteractionCreate, name string) string {
	if o, ok := options(i)[name]; ok {
		return o.StringValue()
	}
	return ""
}

func optionInt(i *discordgo.InteractionCreate, name string, def int) int {
	if o, ok := options(i)[name]; ok {
		return int(o.IntValue())
	}
	return def
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components ...discordgo.MessageComponent) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
}

func deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func followup(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: content})
}

func followupEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components ...discordgo.MessageComponent) {
	s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
}
