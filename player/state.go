package player

import (
	"errors"
	"fmt"

	"Nocturne/music"
)

type State int

const (
	Idle State = iota
	Resolving
	Playing
	Paused
	Seeking
)

func (s State) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Seeking:
		return "seeking"
	default:
		return "idle"
	}
}

var (
	ErrNotConnected    = errors.New("not connected to a voice channel")
	ErrNothingPlaying  = errors.New("nothing is playing")
	ErrInvalidPosition = errors.New("position is outside the track")
)

// Failure reasons reported to the Recorder.
const (
	ReasonNoStream  = "no_stream"
	ReasonTransport = "transport"
	ReasonStream    = "stream"
	ReasonPanic     = "panic"
)

// PlaybackError reports why a track could not be played.
type PlaybackError struct {
	Track  *music.Track
	Reason string
	Err    error
}

func (e *PlaybackError) Error() string {
	title := "track"
	if e.Track != nil {
		title = fmt.Sprintf("%q", e.Track.Title)
	}
	return fmt.Sprintf("couldn't play %s (%s): %v", title, e.Reason, e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}

func reasonOf(err error) string {
	var perr *PlaybackError
	if errors.As(err, &perr) {
		return perr.Reason
	}
	return ReasonStream
}
