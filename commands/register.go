package commands

import (
	"context"
	"errors"
	"time"

	"Nocturne/music"

	"github.com/Strum355/log"
	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

func nameOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "name",
		Description: description,
		Required:    true,
	}
}

func filterChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, len(music.Filters))
	for idx, f := range music.Filters {
		choices[idx] = &discordgo.ApplicationCommandOptionChoice{Name: string(f), Value: string(f)}
	}
	return choices
}

// RegisterSlashCommands adds all slash commands and components to the session.
func RegisterSlashCommands(s *discordgo.Session, m *Music) {
	m.started = time.Now()
	minVolume, minPosition, minPage := 0.0, 1.0, 1.0
	manageServer := int64(discordgo.PermissionManageServer)
	manageChannels := int64(discordgo.PermissionManageChannels)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "play",
			Description: "Play a song or playlist from a link or a search.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "YouTube or Spotify link, or what to search for",
					Required:    true,
				},
			},
		},
		m.play,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "search",
			Description: "Search YouTube and pick a result to queue.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "What to search for",
					Required:    true,
				},
			},
		},
		m.search,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "skip",
			Description: "Vote to skip the current song.",
		},
		m.skip,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "stop",
			Description: "Stop playback and clear the queue.",
		},
		m.stop,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "pause",
			Description: "Pause the current song.",
		},
		m.pause,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "resume",
			Description: "Resume the paused song.",
		},
		m.resume,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "volume",
			Description: "Set the volume.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "level",
					Description: "Volume from 0 to 100",
					Required:    true,
					MinValue:    &minVolume,
					MaxValue:    100,
				},
			},
		},
		m.volume,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "loop",
			Description: "Set or cycle the loop mode.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "mode",
					Description: "Loop mode",
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "off", Value: string(music.LoopOff)},
						{Name: "song", Value: string(music.LoopSong)},
						{Name: "queue", Value: string(music.LoopQueue)},
					},
				},
			},
		},
		m.loop,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "seek",
			Description: "Jump to a position in the current song.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "position",
					Description: "Seconds, MM:SS or 1m30s",
					Required:    true,
				},
			},
		},
		m.seek,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "filter",
			Description: "Apply an audio filter.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Filter to apply",
					Required:    true,
					Choices:     filterChoices(),
				},
			},
		},
		m.filter,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "shuffle",
			Description: "Shuffle the queue.",
		},
		m.shuffle,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "remove",
			Description: "Remove a song from the queue.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "position",
					Description: "Queue position",
					Required:    true,
					MinValue:    &minPosition,
				},
			},
		},
		m.remove,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "move",
			Description: "Move a song in the queue.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "from",
					Description: "Current position",
					Required:    true,
					MinValue:    &minPosition,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "to",
					Description: "New position",
					Required:    true,
					MinValue:    &minPosition,
				},
			},
		},
		m.move,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "queue",
			Description: "Show the song queue.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "page",
					Description: "Page number",
					MinValue:    &minPage,
				},
			},
		},
		m.currentQueue,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "nowplaying",
			Description: "Show the song that's now playing.",
		},
		m.nowPlaying,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "lyrics",
			Description: "Show lyrics for a song or the current one.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "Artist - Title",
				},
			},
		},
		m.showLyrics,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "stats",
			Description: "Show bot statistics.",
		},
		m.stats,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "disconnect",
			Description: "Disconnect the bot from voice chat.",
		},
		m.disconnect,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:                     "247",
			Description:              "Toggle staying in voice when everyone leaves.",
			DefaultMemberPermissions: &manageServer,
		},
		m.alwaysOn,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "autoplay",
			Description: "Toggle playing similar songs when the queue ends.",
		},
		m.autoplay,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:        "playlist",
			Description: "Manage saved playlists.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "save",
					Description: "Save the current queue",
					Options:     []*discordgo.ApplicationCommandOption{nameOption("Playlist name")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "load",
					Description: "Queue a saved playlist",
					Options:     []*discordgo.ApplicationCommandOption{nameOption("Playlist name")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "Show saved playlists",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "delete",
					Description: "Delete a saved playlist",
					Options:     []*discordgo.ApplicationCommandOption{nameOption("Playlist name")},
				},
			},
		},
		m.playList,
	)

	commands.Add(
		&discordgo.ApplicationCommand{
			Name:                     "requestchannel",
			Description:              "Manage the song request channel.",
			DefaultMemberPermissions: &manageChannels,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "set",
					Description: "Use this channel for song requests",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "clear",
					Description: "Disable the request channel",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "show",
					Description: "Show the request channel",
				},
			},
		},
		m.requestChannel,
	)

	commands.AddComponent(idPauseResume, m.togglePause)
	commands.AddComponent(idSkip, m.skipButton)
	commands.AddComponent(idStop, m.stopButton)
	commands.AddComponent(idLoop, m.loopButton)
	commands.AddComponent(idShuffle, m.shuffleButton)
	commands.AddComponent(idSearchPick, m.searchPick)

	if m.Metrics != nil {
		commands.metrics = m.Metrics
	}
	if err := commands.Register(s); err != nil {
		log.WithError(err).Error("Failed to register slash commands")
	}
}

type CommandHandler func(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError

// counter receives the outcome of every handled command.
type counter interface {
	CommandHandled(name string, err error)
}

type Commands struct {
	commands          []*discordgo.ApplicationCommand
	handlers          map[string]CommandHandler
	componentHandlers map[string]CommandHandler
	metrics           counter
}

var (
	commands = &Commands{}
)

// Adds command to the slash commands.
func (c *Commands) Add(com *discordgo.ApplicationCommand, handler CommandHandler) {
	c.commands = append(c.commands, com)
	if c.handlers == nil {
		c.handlers = map[string]CommandHandler{}
	}
	c.handlers[com.Name] = handler
}

// Adds command to component commands
func (c *Commands) AddComponent(name string, handler CommandHandler) {
	if c.componentHandlers == nil {
		c.componentHandlers = map[string]CommandHandler{}
	}
	c.componentHandlers[string(name[0])] = handler
}

// Register all slash commands and component commands
func (c *Commands) Register(s *discordgo.Session) error {
	// Handles all interactions and routes them to the correct command handler
	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			c.callCommandHandler(s, i)
		case discordgo.InteractionMessageComponent:
			c.callComponentHandler(s, i)
		}
	})

	// Registers slash commands
	if _, err := s.ApplicationCommandBulkOverwrite(viper.GetString("discord.app.id"), "", c.commands); err != nil {
		log.WithError(err).Error("Failed to create commands")
		return err
	}
	return nil
}

func (c *Commands) record(name string, iErr *interactionError) {
	if c.metrics == nil {
		return
	}
	var err error
	if iErr != nil {
		err = iErr.err
	}
	c.metrics.CommandHandled(name, err)
}

// Cannot be an interaction through DMs
func checkDirectMessage(i *discordgo.InteractionCreate) (*discordgo.User, *interactionError) {
	if i.GuildID == "" || i.Member == nil {
		return nil, &interactionError{
			errors.New("command invoked outside of valid guild"),
			"This command is only available in a valid server",
		}
	}
	return i.Member.User, nil
}

// Component or button based interactions
func (c *Commands) callComponentHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	user, iErr := checkDirectMessage(i)
	if iErr != nil {
		iErr.Handle(s, i)
		return
	}
	m := i.MessageComponentData()
	if m.CustomID == "" {
		iErr := &interactionError{
			errors.New("No custom_id assigned to component on message " + i.Message.ID),
			"Couldn't handle component, invalid custom_id",
		}
		iErr.Handle(s, i)
		return
	}
	commandLabel := string(m.CustomID[0])
	if handler, ok := c.componentHandlers[commandLabel]; ok {
		ctx := context.WithValue(ctx, log.Key, log.Fields{
			"user_id":          user.ID,
			"channel_id":       i.ChannelID,
			"guild_id":         i.GuildID,
			"user":             user.Username,
			"interaction_type": "component",
			"command":          m.CustomID,
		})
		log.WithContext(ctx).Info("Invoking component command")
		iErr := handler(ctx, s, i)
		c.record(m.CustomID, iErr)
		if iErr != nil {
			iErr.Handle(s, i)
		}
	}
}

// Text or slash command interactions
func (c *Commands) callCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var iError *interactionError
	ctx := context.Background()
	commandAuthor, iError := checkDirectMessage(i)
	if iError != nil {
		iError.Handle(s, i)
		return
	}

	commandName := i.ApplicationCommandData().Name

	channelName := ""
	if channel, err := s.State.Channel(i.ChannelID); err == nil {
		channelName = channel.Name
	}

	if handler, ok := c.handlers[commandName]; ok {
		ctx := context.WithValue(ctx, log.Key, log.Fields{
			"author_id":        commandAuthor.ID,
			"channel_id":       i.ChannelID,
			"guild_id":         i.GuildID,
			"user":             commandAuthor.Username,
			"channel_name":     channelName,
			"interaction_type": "application",
			"command":          commandName,
		})
		log.WithContext(ctx).Info("Invoking application command")
		iError = handler(ctx, s, i)
		c.record(commandName, iError)
		if iError != nil {
			iError.Handle(s, i)
		}
	}
}
