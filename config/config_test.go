package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestInitConfig_Defaults(t *testing.T) {
	viper.Reset()
	InitConfig()

	assert.Equal(t, "-", viper.GetString("prefix"))
	assert.Equal(t, 50, viper.GetInt("music.max_playlist_items"))
	assert.Equal(t, 0.5, viper.GetFloat64("music.vote_skip_threshold"))
	assert.Equal(t, time.Hour, Seconds("cache.ttl.metadata"))
	assert.Equal(t, 5*time.Minute, Seconds("cache.ttl.stream"))
}

func TestInitConfig_EnvOverride(t *testing.T) {
	viper.Reset()
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("MUSIC_VOTE_SKIP_THRESHOLD", "0.75")
	InitConfig()

	assert.Equal(t, "memory", viper.GetString("store.backend"))
	assert.Equal(t, 0.75, viper.GetFloat64("music.vote_skip_threshold"))
}
