package voice

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestConnector_ReusesConnectionForGuild(t *testing.T) {
	c := &Connector{}
	vc := &discordgo.VoiceConnection{}

	first := c.connection("g", vc)
	assert.Same(t, first, c.connection("g", vc))

	other := c.connection("g", &discordgo.VoiceConnection{})
	assert.NotSame(t, first, other)

	// forgetting a replaced connection leaves the current one alone
	c.forget("g", vc)
	assert.Same(t, other, c.connection("g", other.vc))

	c.forget("g", other.vc)
	assert.NotSame(t, other, c.connection("g", other.vc))
}

func TestConnector_GuildsAreSeparate(t *testing.T) {
	c := &Connector{}
	a := c.connection("a", &discordgo.VoiceConnection{})
	b := c.connection("b", &discordgo.VoiceConnection{})
	assert.NotSame(t, a, b)
	assert.Len(t, c.conns, 2)
}
