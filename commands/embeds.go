package commands

import (
	"fmt"
	"strings"
	"time"

	"Nocturne/cache"
	"Nocturne/music"
	"Nocturne/player"
	"Nocturne/queue"
	"Nocturne/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

const (
	queuePageSize = 10
	queueTitleMax = 40
)

// Component ids are routed on their first character.
const (
	idPauseResume = "p:pause_resume"
	idSkip        = "s:skip"
	idStop        = "x:stop"
	idLoop        = "l:loop"
	idShuffle     = "h:shuffle"
	idSearchPick  = "r:search"
)

func seconds(n int) string {
	return utils.FormatDuration(time.Duration(n) * time.Second)
}

func nowPlayingEmbed(e player.Event) *discordgo.MessageEmbed {
	t := e.Track
	embed := &discordgo.MessageEmbed{
		Title:       "🎵 Now Playing",
		Description: fmt.Sprintf("[%s](%s)", t.Title, t.Link()),
		Color:       viper.GetInt("theme"),
	}
	if t.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: t.Thumbnail}
	}
	if t.Duration > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Duration", Value: t.FormattedDuration(), Inline: true})
	}
	if t.Uploader != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Channel", Value: t.Uploader, Inline: true})
	}
	if t.Requester.ID != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Requested by", Value: "<@" + t.Requester.ID + ">", Inline: true})
	}
	if e.Next != nil {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Up next: %s • %d in queue", utils.Truncate(e.Next.Title, 60), e.Pending)}
	}
	return embed
}

func nowPlayingDetailed(st player.Status) *discordgo.MessageEmbed {
	t := st.Queue.Current
	embed := &discordgo.MessageEmbed{
		Title:       "🎵 Now Playing",
		Description: fmt.Sprintf("[%s](%s)", t.Title, t.Link()),
		Color:       viper.GetInt("theme"),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Progress",
				Value: fmt.Sprintf("%s\n`%s / %s`", utils.ProgressBar(st.Position, t.Duration, 15), seconds(st.Position), t.FormattedDuration()),
			},
			{Name: "Loop", Value: fmt.Sprintf("%s %s", st.Queue.Loop.Emoji(), st.Queue.Loop), Inline: true},
			{Name: "Volume", Value: fmt.Sprintf("🔊 %d%%", int(st.Queue.Volume*100+0.5)), Inline: true},
			{Name: "Queue", Value: fmt.Sprintf("📋 %d songs", len(st.Queue.Pending)), Inline: true},
		},
	}
	if st.Queue.Filter != music.FilterOff {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Filter", Value: string(st.Queue.Filter), Inline: true})
	}
	if t.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: t.Thumbnail}
	}
	return embed
}

// queuePages returns the number of pages needed for n pending tracks.
func queuePages(n int) int {
	return max(1, (n+queuePageSize-1)/queuePageSize)
}

func queueEmbed(snap queue.Snapshot, page int) *discordgo.MessageEmbed {
	pages := queuePages(len(snap.Pending))
	page = min(max(page, 1), pages)

	embed := &discordgo.MessageEmbed{
		Title: "🎵 Music Queue",
		Color: viper.GetInt("theme"),
	}
	if cur := snap.Current; cur != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Now Playing",
			Value: fmt.Sprintf("[%s](%s)\n`%s`", cur.Title, cur.Link(), cur.FormattedDuration()),
		})
	}
	if len(snap.Pending) == 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Queue", Value: "Empty"})
		return embed
	}

	start := (page - 1) * queuePageSize
	end := min(start+queuePageSize, len(snap.Pending))
	var b strings.Builder
	total := 0
	for idx, t := range snap.Pending {
		total += t.Duration
		if idx >= start && idx < end {
			fmt.Fprintf(&b, "`%d.` %s `%s`\n", idx+1, utils.Truncate(t.Title, queueTitleMax), t.FormattedDuration())
		}
	}
	loop := ""
	if snap.Loop != music.LoopOff {
		loop = " " + snap.Loop.Emoji()
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  fmt.Sprintf("Up Next (%d songs)%s", len(snap.Pending), loop),
		Value: b.String(),
	})
	embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Page %d/%d • Total: %s", page, pages, seconds(total))}
	return embed
}

func addedEmbed(t *music.Track, position int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "➕ Added to Queue",
		Description: fmt.Sprintf("[%s](%s)", t.Title, t.Link()),
		Color:       viper.GetInt("theme"),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Position", Value: fmt.Sprintf("#%d", position), Inline: true},
			{Name: "Duration", Value: t.FormattedDuration(), Inline: true},
		},
	}
	if t.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: t.Thumbnail}
	}
	return embed
}

func playlistAddedEmbed(count int, moreLoading bool) *discordgo.MessageEmbed {
	description := fmt.Sprintf("Added **%d** songs to queue", count)
	if moreLoading {
		description += "\n*Loading more songs in background...*"
	}
	return &discordgo.MessageEmbed{
		Title:       "📋 Playlist Added",
		Description: description,
		Color:       viper.GetInt("theme"),
	}
}

func requestEmbed(res RequestResult) *discordgo.MessageEmbed {
	if len(res.Tracks) == 1 {
		t := res.Tracks[0]
		if res.Started != nil {
			t = res.Started
		}
		return addedEmbed(t, res.Position)
	}
	return playlistAddedEmbed(res.Added, res.MoreLoading)
}

func searchEmbed(query string, tracks []*music.Track) (*discordgo.MessageEmbed, discordgo.MessageComponent) {
	var b strings.Builder
	menu := discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    idSearchPick,
		Placeholder: "Pick a song to queue",
	}
	for idx, t := range tracks {
		fmt.Fprintf(&b, "`%d.` [%s](%s) `%s`\n", idx+1, utils.Truncate(t.Title, 60), t.Link(), t.FormattedDuration())
		menu.Options = append(menu.Options, discordgo.SelectMenuOption{
			Label:       utils.Truncate(t.Title, 100),
			Value:       t.Link(),
			Description: utils.Truncate(t.Uploader+" • "+t.FormattedDuration(), 100),
		})
	}
	embed := &discordgo.MessageEmbed{
		Title:       "🔎 Results for " + utils.Truncate(query, 200),
		Description: b.String(),
		Color:       viper.GetInt("theme"),
	}
	return embed, discordgo.ActionsRow{Components: []discordgo.MessageComponent{menu}}
}

func lyricsEmbed(query, text string, page, total int) *discordgo.MessageEmbed {
	title := "📝 Lyrics: " + utils.Truncate(query, 200)
	if total > 1 {
		title = fmt.Sprintf("%s (%d/%d)", title, page, total)
	}
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: text,
		Color:       viper.GetInt("theme"),
	}
}

type botStats struct {
	Uptime      time.Duration
	Guilds      int
	Voice       int
	TotalQueued int
	Cache       map[cache.Namespace]cache.Stats
}

func statsEmbed(st botStats) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "📊 Bot Statistics",
		Color: viper.GetInt("theme"),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Uptime", Value: utils.FormatDuration(st.Uptime), Inline: true},
			{Name: "Guilds", Value: fmt.Sprint(st.Guilds), Inline: true},
			{Name: "Voice Connections", Value: fmt.Sprint(st.Voice), Inline: true},
			{Name: "Total Queued Songs", Value: fmt.Sprint(st.TotalQueued), Inline: true},
		},
	}
	var b strings.Builder
	for _, ns := range cache.Namespaces {
		s, ok := st.Cache[ns]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "**%s**: %s hit rate, %d cached\n", ns, hitRate(s), s.Size)
	}
	if b.Len() > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Cache Performance", Value: b.String()})
	}
	return embed
}

func hitRate(s cache.Stats) string {
	total := s.Hits + s.Misses
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(s.Hits)*100/float64(total))
}

// controls are the buttons attached to now playing messages.
func controls(paused bool, loop music.LoopMode) []discordgo.MessageComponent {
	pause := discordgo.Button{Emoji: &discordgo.ComponentEmoji{Name: "⏸️"}, Style: discordgo.SecondaryButton, CustomID: idPauseResume}
	if paused {
		pause.Emoji = &discordgo.ComponentEmoji{Name: "▶️"}
		pause.Style = discordgo.SuccessButton
	}
	loopButton := discordgo.Button{Emoji: &discordgo.ComponentEmoji{Name: loop.Emoji()}, Style: discordgo.SecondaryButton, CustomID: idLoop}
	if loop != music.LoopOff {
		loopButton.Style = discordgo.SuccessButton
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			pause,
			discordgo.Button{Emoji: &discordgo.ComponentEmoji{Name: "⏭️"}, Style: discordgo.SecondaryButton, CustomID: idSkip},
			discordgo.Button{Emoji: &discordgo.ComponentEmoji{Name: "⏹️"}, Style: discordgo.DangerButton, CustomID: idStop},
			loopButton,
			discordgo.Button{Emoji: &discordgo.ComponentEmoji{Name: "🔀"}, Style: discordgo.SecondaryButton, CustomID: idShuffle},
		}},
	}
}
