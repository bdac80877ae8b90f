package music

import "fmt"

type LoopMode string

const (
	LoopOff   LoopMode = "off"
	LoopSong  LoopMode = "song"
	LoopQueue LoopMode = "queue"
)

// Next cycles off -> song -> queue -> off.
func (l LoopMode) Next() LoopMode {
	switch l {
	case LoopOff, "":
		return LoopSong
	case LoopSong:
		return LoopQueue
	default:
		return LoopOff
	}
}

func (l LoopMode) Emoji() string {
	switch l {
	case LoopSong:
		return "🔂"
	case LoopQueue:
		return "🔁"
	default:
		return "➡️"
	}
}

// ParseLoopMode accepts the persisted or user supplied name of a loop mode.
func ParseLoopMode(s string) (LoopMode, error) {
	switch LoopMode(s) {
	case LoopOff, LoopSong, LoopQueue:
		return LoopMode(s), nil
	case "":
		return LoopOff, nil
	}
	return LoopOff, fmt.Errorf("unknown loop mode %q", s)
}
