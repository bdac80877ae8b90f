package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"Nocturne/cache"
	"Nocturne/commands"
	"Nocturne/config"
	"Nocturne/db_client"
	"Nocturne/handlers"
	"Nocturne/lyrics"
	"Nocturne/metrics"
	"Nocturne/player"
	"Nocturne/queue"
	"Nocturne/redis_client"
	"Nocturne/store"
	"Nocturne/voice"
	"Nocturne/yt"

	"github.com/Strum355/log"
	"github.com/bwmarrin/discordgo"
	"github.com/lrstanley/go-ytdlp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

var production *bool

func main() {
	// Sets Flag to Debug Mode
	production = flag.Bool("p", false, "enables production with json logging")
	flag.Parse()
	if *production {
		log.InitJSONLogger(&log.Config{Output: os.Stdout})
	} else {
		log.InitSimpleLogger(&log.Config{Output: os.Stdout})
	}

	// Sets up Configurations for Viper
	config.InitConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if viper.GetBool("ytdlp.install") {
		if _, err := ytdlp.Install(ctx, nil); err != nil {
			log.WithError(err).Warn("Could not install yt-dlp, relying on PATH")
		}
	}

	rdb := connectRedis(ctx)
	st, closer := openStore(rdb)

	ttls := cache.TTLs{
		cache.Metadata:  config.Seconds("cache.ttl.metadata"),
		cache.StreamURL: config.Seconds("cache.ttl.stream"),
		cache.Lyrics:    config.Seconds("cache.ttl.lyrics"),
	}
	var c cache.Cache
	if rdb != nil {
		c = cache.NewRedis(rdb, ttls)
	} else {
		c = cache.NewMemory(viper.GetInt("cache.size"), ttls)
	}

	ext := yt.NewExtractor(
		yt.Chain{&yt.Ytdlp{Proxy: viper.GetString("ytdlp.proxy")}, &yt.YouTube{}},
		c,
		yt.WithScraper(yt.NewScraper()),
		yt.WithTimeout(config.Seconds("music.resolve_timeout")),
	)
	q := queue.NewManager(st, queue.WithMaxSize(viper.GetInt("music.max_queue_size")))

	// Creates Discord Bot Session
	s, err := discordgo.New("Bot " + viper.GetString("discord.token"))
	if err != nil {
		log.WithError(err).Error("Could not create discord session")
		return
	}

	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.WithFields(log.Fields{"guilds": len(r.Guilds)}).Info("Bot has registered handlers")
	})

	m := metrics.New(q.TotalQueued)
	m.WatchCache(c)

	notifier := commands.NewNotifier(s, q)
	controller := player.NewController(q, ext, &voice.Connector{Session: s}, player.Options{
		VoteThreshold: viper.GetFloat64("music.vote_skip_threshold"),
		StreamMaxAge:  config.Seconds("music.stream_max_age"),
		Timeout:       config.Seconds("music.resolve_timeout"),
		Notifier:      notifier,
		Recorder:      m,
	})

	music := &commands.Music{
		Player:           controller,
		Queue:            q,
		Extractor:        ext,
		Lyrics:           lyrics.NewProvider(viper.GetString("lyrics.api_url"), c),
		Cache:            c,
		Metrics:          m,
		Notifier:         notifier,
		MaxPlaylistItems: viper.GetInt("music.max_playlist_items"),
		PrefetchCount:    viper.GetInt("music.prefetch"),
	}

	// Configuring Intents and Adding Handlers
	handlers.HandlerConfig(s, music)

	// Register Slash and Component Commands
	commands.RegisterSlashCommands(s, music)

	// Connecting to Discord Server Gateway
	if err := s.Open(); err != nil {
		log.WithError(err).Error("Could not open gateway connection")
		return
	}
	log.Info("Bot is initialising")

	go func() {
		addr := viper.GetString("metrics.address")
		if err := m.Serve(ctx, addr); err != nil {
			log.WithError(err).WithFields(log.Fields{"address": addr}).Warn("Metrics server stopped")
		}
	}()

	<-ctx.Done()
	gracefulShutdown(s, controller, closer)
}

// connectRedis returns nil when redis is not configured or unreachable.
func connectRedis(ctx context.Context) *redis.Client {
	if viper.GetString("store.backend") != "redis" {
		return nil
	}
	rdb, err := redis_client.Connect(ctx)
	if err != nil {
		log.WithError(err).Warn("Redis unreachable, falling back to in-memory state")
		rdb.Close()
		return nil
	}
	return rdb
}

// openStore picks the persistence backend from store.backend. A backend that
// fails to open leaves the bot running on memory.
func openStore(rdb *redis.Client) (store.Store, io.Closer) {
	backend := viper.GetString("store.backend")
	fields := log.Fields{"backend": backend}

	switch backend {
	case "redis":
		if rdb != nil {
			return store.NewDegrading("redis", store.NewRedis(rdb)), rdb
		}
	case "postgres":
		db, err := db_client.Open(viper.GetString("postgres.dsn"), 5)
		if err != nil {
			log.WithError(err).WithFields(fields).Warn("Could not connect to postgres")
			break
		}
		g, err := store.NewGorm(db)
		if err != nil {
			log.WithError(err).WithFields(fields).Warn("Could not migrate postgres schema")
			break
		}
		sqlDB, _ := db.DB()
		return store.NewDegrading("postgres", g), sqlDB
	case "sqlite":
		sq, err := store.OpenSQLite(viper.GetString("sqlite.path"))
		if err != nil {
			log.WithError(err).WithFields(fields).Warn("Could not open sqlite database")
			break
		}
		return store.NewDegrading("sqlite", sq), sq
	case "memory":
	default:
		log.WithFields(fields).Warn("Unknown store backend")
	}
	log.WithFields(fields).Info("Using in-memory store")
	return store.NewMemory(), nil
}

// gracefulShutdown handles cleaning up after the bot is shutdown
func gracefulShutdown(s *discordgo.Session, c *player.Controller, closer io.Closer) {
	log.Info("Starting graceful shutdown...")

	c.Shutdown()

	if err := s.Close(); err != nil {
		log.WithError(err).Warn("Error closing discord session")
	}

	if closer != nil {
		if err := closer.Close(); err != nil {
			log.WithError(err).Warn("Error closing store")
		}
	}

	log.Info("Cleanly exiting")
}
