package player

import (
	"context"
	"time"

	"Nocturne/music"
)

// Source is one stream handed to the voice transport.
type Source struct {
	URL string
	// BeforeOptions are ffmpeg input directives, including any seek offset.
	BeforeOptions string
	FilterGraph   string
}

// Handle is a live voice connection in one guild.
//
// Play starts src, replacing nothing: callers stop the previous source
// first. onFinished is called exactly once per Play, from any goroutine,
// when the source ends, fails, or is stopped.
type Handle interface {
	Play(src Source, onFinished func(error)) error
	Pause()
	Resume()
	Stop()
	IsPlaying() bool
	IsPaused() bool
	Disconnect() error
}

type Connector interface {
	Connect(ctx context.Context, guildID, channelID string) (Handle, error)
}

// Extractor is the part of the resolver the controller needs.
type Extractor interface {
	RefreshURL(ctx context.Context, t *music.Track) (*music.Track, error)
	Related(ctx context.Context, seed *music.Track, limit int) []*music.Track
}

// Event describes a playback change for notifiers.
type Event struct {
	GuildID  string
	Track    *music.Track
	Next     *music.Track
	Pending  int
	Loop     music.LoopMode
	Filter   music.Filter
	Volume   float64
	Autoplay bool
	At       time.Time
}

// Notifier receives playback events. Methods run on the guild's task lane
// and must return quickly without calling back into the Controller.
type Notifier interface {
	NowPlaying(e Event)
	TrackFailed(guildID string, t *music.Track, err error)
	QueueEnded(guildID string)
}

// Recorder receives counters for metrics.
type Recorder interface {
	TrackStarted(guildID string)
	TrackFailed(reason string)
	VoiceSessions(n int)
}

type nopNotifier struct{}

func (nopNotifier) NowPlaying(Event) {}
func (nopNotifier) TrackFailed(string, *music.Track, error) {}
func (nopNotifier) QueueEnded(string) {}

type nopRecorder struct{}

func (nopRecorder) TrackStarted(string) {}
func (nopRecorder) TrackFailed(string) {}
func (nopRecorder) VoiceSessions(int) {}
