package queue

import (
	"strconv"

	"Nocturne/music"
)

// settings is the persisted settings document of a guild.
type settings struct {
	Volume           float64        `json:"volume"`
	LoopMode         music.LoopMode `json:"loop_mode"`
	Filter           music.Filter   `json:"filter"`
	Is247Mode        bool           `json:"is_247_mode"`
	AutoplayEnabled  bool           `json:"autoplay_enabled"`
	RequestChannelID *int64         `json:"request_channel_id"`
}

func (g *GuildState) settings() settings {
	s := settings{
		Volume:          g.Volume,
		LoopMode:        g.Loop,
		Filter:          g.Filter,
		Is247Mode:       g.Always,
		AutoplayEnabled: g.Autoplay,
	}
	if id, err := strconv.ParseInt(g.RequestChannelID, 10, 64); err == nil {
		s.RequestChannelID = &id
	}
	return s
}

func (g *GuildState) applySettings(s settings) {
	g.Volume = clampVolume(s.Volume)
	if loop, err := music.ParseLoopMode(string(s.LoopMode)); err == nil {
		g.Loop = loop
	}
	if f, err := music.ParseFilter(string(s.Filter)); err == nil {
		g.Filter = f
	}
	g.Always = s.Is247Mode
	g.Autoplay = s.AutoplayEnabled
	g.RequestChannelID = ""
	if s.RequestChannelID != nil {
		g.RequestChannelID = strconv.FormatInt(*s.RequestChannelID, 10)
	}
}

func clampVolume(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
