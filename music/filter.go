package music

import (
	"fmt"
	"strings"
)

type Filter string

const (
	FilterOff       Filter = "off"
	FilterNightcore Filter = "nightcore"
	FilterVaporwave Filter = "vaporwave"
	FilterBassboost Filter = "bassboost"
	Filter8D        Filter = "8d"
	FilterKaraoke   Filter = "karaoke"
)

const reconnectOptions = "-reconnect 1 -reconnect_streamed 1 -reconnect_delay_max 5"

var filterStages = map[Filter]string{
	FilterNightcore: "asetrate=48000*1.25,aresample=48000",
	FilterVaporwave: "asetrate=48000*0.8,aresample=48000",
	FilterBassboost: "bass=g=20",
	Filter8D:        "apulsator=hz=0.125",
	FilterKaraoke:   "stereotools=mlev=0.03",
}

// Filters lists every selectable filter in display order.
var Filters = []Filter{FilterOff, FilterNightcore, FilterVaporwave, FilterBassboost, Filter8D, FilterKaraoke}

// ErrUnknownFilter is returned for names outside the enumerated set.
type ErrUnknownFilter struct {
	Name string
}

func (e ErrUnknownFilter) Error() string {
	return fmt.Sprintf("unknown filter %q", e.Name)
}

func ParseFilter(name string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(name)))
	if f == "" || f == "none" {
		return FilterOff, nil
	}
	if f == FilterOff {
		return f, nil
	}
	if _, ok := filterStages[f]; ok {
		return f, nil
	}
	return FilterOff, ErrUnknownFilter{Name: name}
}

// FilterGraph builds the audio filter graph for a volume in [0,1] and a filter.
func FilterGraph(volume float64, f Filter) string {
	graph := fmt.Sprintf("volume=%g", volume)
	if stage, ok := filterStages[f]; ok {
		graph += "," + stage
	}
	return graph
}

// BeforeOptions are the ffmpeg directives placed ahead of the input.
// A positive offset makes ffmpeg start that many seconds into the stream.
func BeforeOptions(offsetSeconds int) string {
	if offsetSeconds > 0 {
		return fmt.Sprintf("-ss %d %s", offsetSeconds, reconnectOptions)
	}
	return reconnectOptions
}
