package voice

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"Nocturne/player"

	"github.com/Strum355/log"
	"github.com/bwmarrin/discordgo"
	"layeh.com/gopus"
)

// Connection plays sources over one Discord voice connection.
type Connection struct {
	vc      *discordgo.VoiceConnection
	mu      sync.Mutex
	session *Session
	closed  func()
}

func (c *Connection) current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Connection) Play(src player.Source, onFinished func(error)) error {
	cmd := exec.Command("ffmpeg", ffmpegArgs(src)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting ffmpeg: %w", err)
	}
	enc, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return err
	}

	s := newSession(cmd, enc)
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	go func() {
		c.vc.Speaking(true)
		err := s.stream(stdout, c.vc.OpusSend)
		c.vc.Speaking(false)
		if werr := cmd.Wait(); err == nil && werr != nil && !s.isStopped() {
			err = fmt.Errorf("ffmpeg: %w", werr)
		}
		close(s.done)
		onFinished(err)
	}()
	return nil
}

func (c *Connection) Pause() {
	if s := c.current(); s != nil {
		s.Pause()
	}
}

func (c *Connection) Resume() {
	if s := c.current(); s != nil {
		s.Resume()
	}
}

func (c *Connection) Stop() {
	if s := c.current(); s != nil {
		s.Stop()
	}
}

func (c *Connection) IsPlaying() bool {
	s := c.current()
	return s != nil && !s.isStopped() && !s.IsPaused()
}

func (c *Connection) IsPaused() bool {
	s := c.current()
	return s != nil && s.IsPaused()
}

func (c *Connection) Disconnect() error {
	c.Stop()
	if c.closed != nil {
		c.closed()
	}
	return c.vc.Disconnect()
}

// Connector joins voice channels through a discordgo session. Joining
// another channel in the same guild moves the existing connection.
type Connector struct {
	Session      *discordgo.Session
	ReadyTimeout time.Duration

	mu    sync.Mutex
	conns map[string]*Connection
}

func (c *Connector) Connect(ctx context.Context, guildID, channelID string) (player.Handle, error) {
	vc, err := c.Session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, err
	}
	if err := waitReady(ctx, vc, c.ReadyTimeout); err != nil {
		c.forget(guildID, vc)
		vc.Disconnect()
		return nil, err
	}
	log.WithFields(log.Fields{"guild_id": guildID, "channel_id": channelID}).Info("Joined voice channel")
	return c.connection(guildID, vc), nil
}

// connection returns the Connection already wrapping vc, so a move keeps
// the session that is playing on it.
func (c *Connector) connection(guildID string, vc *discordgo.VoiceConnection) *Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok := c.conns[guildID]; ok && conn.vc == vc {
		return conn
	}
	if c.conns == nil {
		c.conns = map[string]*Connection{}
	}
	conn := &Connection{vc: vc, closed: func() { c.forget(guildID, vc) }}
	c.conns[guildID] = conn
	return conn
}

func (c *Connector) forget(guildID string, vc *discordgo.VoiceConnection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok := c.conns[guildID]; ok && conn.vc == vc {
		delete(c.conns, guildID)
	}
}

func waitReady(ctx context.Context, vc *discordgo.VoiceConnection, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()
	for {
		vc.RLock()
		ready := vc.Ready
		vc.RUnlock()
		if ready {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.New("voice connection never became ready")
		case <-tick.C:
		}
	}
}
