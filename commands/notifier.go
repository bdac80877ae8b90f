package commands

import (
	"fmt"
	"sync"

	"Nocturne/music"
	"Nocturne/player"
	"Nocturne/queue"

	"github.com/Strum355/log"
	"github.com/bwmarrin/discordgo"
)

// Notifier posts playback events to the text channel a guild last used.
// Messages are sent from their own goroutines so the guild lane never waits
// on Discord.
type Notifier struct {
	session *discordgo.Session
	queue   *queue.Manager

	mu       sync.Mutex
	channels map[string]string
}

func NewNotifier(s *discordgo.Session, q *queue.Manager) *Notifier {
	return &Notifier{
		session:  s,
		queue:    q,
		channels: map[string]string{},
	}
}

// Bind makes channelID the destination for guildID's notices.
func (n *Notifier) Bind(guildID, channelID string) {
	if channelID == "" {
		return
	}
	n.mu.Lock()
	n.channels[guildID] = channelID
	n.mu.Unlock()
}

func (n *Notifier) channel(guildID string) string {
	n.mu.Lock()
	ch := n.channels[guildID]
	n.mu.Unlock()
	if ch == "" {
		ch = n.queue.RequestChannel(guildID)
	}
	return ch
}

func (n *Notifier) NowPlaying(e player.Event) {
	ch := n.channel(e.GuildID)
	if ch == "" {
		return
	}
	msg := &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{nowPlayingEmbed(e)},
		Components: controls(false, e.Loop),
	}
	go n.send(ch, msg)
}

func (n *Notifier) TrackFailed(guildID string, t *music.Track, err error) {
	ch := n.channel(guildID)
	if ch == "" {
		return
	}
	go n.send(ch, &discordgo.MessageSend{Content: fmt.Sprintf("❌ Couldn't play **%s**, skipping.", t.Title)})
}

func (n *Notifier) QueueEnded(guildID string) {
	ch := n.channel(guildID)
	if ch == "" {
		return
	}
	go n.send(ch, &discordgo.MessageSend{Content: "🎶 Queue finished. Add more with `/play`."})
}

// Send posts a plain message in the background.
func (n *Notifier) Send(channelID, content string) {
	if channelID == "" {
		return
	}
	go n.send(channelID, &discordgo.MessageSend{Content: content})
}

func (n *Notifier) send(channelID string, msg *discordgo.MessageSend) {
	if _, err := n.session.ChannelMessageSendComplex(channelID, msg); err != nil {
		log.WithError(err).WithFields(log.Fields{"channel_id": channelID}).Warn("Couldn't send notice")
	}
}
