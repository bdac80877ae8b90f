// Package player drives voice playback for every guild. All state changes
// for a guild, including those caused by the transport finishing a stream,
// run one at a time on that guild's task lane.
package player

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"Nocturne/music"
	"Nocturne/queue"

	"github.com/Strum355/log"
)

const autoplayBatch = 3

type guildPlayer struct {
	handle    Handle
	channelID string
	state     State
	// seeking marks the next completion callback as belonging to a source
	// that was replaced on purpose.
	seeking bool
	// quiet suppresses the queue-ended notice after an explicit stop.
	quiet    bool
	pausedAt time.Time
}

type Options struct {
	VoteThreshold float64
	// StreamMaxAge is how long a resolved stream URL is trusted.
	StreamMaxAge time.Duration
	// Timeout bounds resolver work started by the transport.
	Timeout  time.Duration
	Notifier Notifier
	Recorder Recorder
	Now      func() time.Time
}

type Controller struct {
	queue     *queue.Manager
	extractor Extractor
	connector Connector
	notifier  Notifier
	recorder  Recorder
	threshold float64
	maxAge    time.Duration
	timeout   time.Duration
	now       func() time.Time
	lanes     *lanes

	mu      sync.Mutex
	players map[string]*guildPlayer
}

func NewController(q *queue.Manager, e Extractor, c Connector, opts Options) *Controller {
	ctrl := &Controller{
		queue:     q,
		extractor: e,
		connector: c,
		notifier:  opts.Notifier,
		recorder:  opts.Recorder,
		threshold: opts.VoteThreshold,
		maxAge:    opts.StreamMaxAge,
		timeout:   opts.Timeout,
		now:       opts.Now,
		lanes:     newLanes(),
		players:   map[string]*guildPlayer{},
	}
	if ctrl.notifier == nil {
		ctrl.notifier = nopNotifier{}
	}
	if ctrl.recorder == nil {
		ctrl.recorder = nopRecorder{}
	}
	if ctrl.threshold <= 0 || ctrl.threshold > 1 {
		ctrl.threshold = 0.5
	}
	if ctrl.timeout <= 0 {
		ctrl.timeout = 30 * time.Second
	}
	if ctrl.now == nil {
		ctrl.now = time.Now
	}
	return ctrl
}

func (c *Controller) player(guildID string) *guildPlayer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.players[guildID]
}

func (c *Controller) setPlayer(guildID string, gp *guildPlayer) {
	c.mu.Lock()
	if gp == nil {
		delete(c.players, guildID)
	} else {
		c.players[guildID] = gp
	}
	n := len(c.players)
	c.mu.Unlock()
	c.recorder.VoiceSessions(n)
}

// Run executes fn on the guild's lane, serialized with playback changes.
func (c *Controller) Run(guildID string, fn func()) {
	c.lanes.do(guildID, fn)
}

// ActiveGuilds returns the number of guilds with a voice connection.
func (c *Controller) ActiveGuilds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.players)
}

// Connect joins channelID, reusing the connection when already there.
func (c *Controller) Connect(ctx context.Context, guildID, channelID string) error {
	var err error
	c.lanes.do(guildID, func() {
		gp := c.player(guildID)
		if gp != nil && gp.channelID == channelID {
			return
		}
		var h Handle
		h, err = c.connector.Connect(ctx, guildID, channelID)
		if err != nil {
			err = &PlaybackError{Reason: ReasonTransport, Err: err}
			return
		}
		if gp != nil {
			err = c.move(ctx, guildID, gp, h, channelID)
			return
		}
		c.setPlayer(guildID, &guildPlayer{handle: h, channelID: channelID})
	})
	return err
}

// move switches gp to h. A playing or paused track is stopped on the old
// handle and picked up on the new one at the same position.
func (c *Controller) move(ctx context.Context, guildID string, gp *guildPlayer, h Handle, channelID string) error {
	old := gp.handle
	gp.channelID = channelID
	cur := c.queue.Current(guildID)
	if old == nil || cur == nil || (gp.state != Playing && gp.state != Paused) {
		gp.handle = h
		return nil
	}

	pos := c.position(guildID, gp)
	if cur.Duration > 0 && pos >= cur.Duration {
		pos = cur.Duration - 1
	}
	gp.seeking = true
	gp.state = Seeking
	old.Stop()
	gp.handle = h

	t, err := c.ensureStream(ctx, guildID, gp, cur)
	if err == nil {
		if perr := h.Play(c.source(guildID, t, max(pos, 0)), c.completion(guildID, gp)); perr != nil {
			err = &PlaybackError{Track: t, Reason: ReasonTransport, Err: perr}
		}
	}
	if err != nil {
		// the old source's completion moves the queue on
		gp.seeking = false
		gp.state = Playing
		log.WithError(err).WithFields(log.Fields{"guild_id": guildID, "channel_id": channelID}).Warn("Couldn't resume track after moving channel")
		return nil
	}
	gp.state = Playing
	gp.pausedAt = time.Time{}
	c.queue.SetStartedAt(guildID, c.now().Add(-time.Duration(pos)*time.Second))
	log.WithFields(log.Fields{"guild_id": guildID, "channel_id": channelID, "position": pos}).Info("Moved playback to new channel")
	return nil
}

// ChannelID returns the voice channel the bot is in, or "".
func (c *Controller) ChannelID(guildID string) string {
	if gp := c.player(guildID); gp != nil {
		return gp.channelID
	}
	return ""
}

// Disconnect stops playback, leaves voice and forgets the guild's queue.
func (c *Controller) Disconnect(ctx context.Context, guildID string) error {
	var err error
	c.lanes.do(guildID, func() {
		err = c.teardown(guildID, true)
	})
	return err
}

// HandleVoiceLost cleans up after the bot was removed from voice by someone
// else. It is a no-op when the disconnect was initiated by the bot.
func (c *Controller) HandleVoiceLost(guildID string) {
	c.lanes.do(guildID, func() {
		if c.player(guildID) == nil {
			return
		}
		log.WithFields(log.Fields{"guild_id": guildID}).Info("Voice connection lost, cleaning up")
		_ = c.teardown(guildID, true)
	})
}

func (c *Controller) teardown(guildID string, forget bool) error {
	gp := c.player(guildID)
	c.setPlayer(guildID, nil)
	if forget {
		c.queue.Cleanup(guildID)
	}
	if gp == nil || gp.handle == nil {
		return nil
	}
	gp.handle.Stop()
	return gp.handle.Disconnect()
}

// Shutdown leaves every voice channel but keeps queues persisted.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	ids := make([]string, 0, len(c.players))
	for id := range c.players {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.lanes.do(id, func() {
				if err := c.teardown(id, false); err != nil {
					log.WithError(err).WithFields(log.Fields{"guild_id": id}).Warn("Couldn't leave voice cleanly")
				}
			})
		}()
	}
	wg.Wait()
}

// PlayResult describes what Play did.
type PlayResult struct {
	// Position is the 1-based queue position of the first added track.
	Position int
	Added    int
	// Started is set when playback began because the guild was idle.
	Started *music.Track
}

// Play appends tracks to the queue and starts playback when idle.
func (c *Controller) Play(ctx context.Context, guildID string, tracks []*music.Track) (PlayResult, error) {
	var (
		res PlayResult
		err error
	)
	c.lanes.do(guildID, func() {
		gp := c.player(guildID)
		if gp == nil || gp.handle == nil {
			err = ErrNotConnected
			return
		}
		before := len(c.queue.Pending(guildID))
		var n int
		n, err = c.queue.EnqueueMany(guildID, tracks)
		if err != nil {
			return
		}
		res.Added = n - before
		res.Position = before + 1
		if gp.state == Idle {
			res.Started, err = c.playNext(ctx, guildID, gp)
		}
	})
	return res, err
}

// Enqueue appends tracks without starting playback and returns the queue
// length.
func (c *Controller) Enqueue(guildID string, tracks []*music.Track) (int, error) {
	var (
		n   int
		err error
	)
	c.lanes.do(guildID, func() {
		n, err = c.queue.EnqueueMany(guildID, tracks)
	})
	return n, err
}

// PlayNext advances to the next track regardless of what is playing.
func (c *Controller) PlayNext(ctx context.Context, guildID string) (*music.Track, error) {
	var (
		t   *music.Track
		err error
	)
	c.lanes.do(guildID, func() {
		gp := c.player(guildID)
		if gp == nil || gp.handle == nil {
			err = ErrNotConnected
			return
		}
		if gp.state == Playing || gp.state == Paused {
			// the replaced source's completion must not advance again
			gp.seeking = true
			gp.handle.Stop()
		}
		t, err = c.playNext(ctx, guildID, gp)
	})
	return t, err
}

// playNext pops tracks until one starts. Tracks that fail are reported and
// dropped. When the queue runs dry with autoplay on, related tracks are
// queued once and tried.
func (c *Controller) playNext(ctx context.Context, guildID string, gp *guildPlayer) (*music.Track, error) {
	prior := c.queue.Current(guildID)
	autoplayed := false
	for {
		t := c.queue.NextTrack(guildID)
		if t == nil {
			if !autoplayed && prior != nil && c.queue.Autoplay(guildID) {
				autoplayed = true
				gp.state = Resolving
				if related := c.extractor.Related(ctx, prior, autoplayBatch); len(related) > 0 {
					log.WithFields(log.Fields{"guild_id": guildID, "seed": prior.Title, "count": len(related)}).Info("Autoplay queued related tracks")
					c.queue.EnqueueMany(guildID, related)
					continue
				}
			}
			gp.state = Idle
			c.queue.SetStartedAt(guildID, time.Time{})
			if !gp.quiet {
				c.notifier.QueueEnded(guildID)
			}
			gp.quiet = false
			return nil, nil
		}

		started, err := c.start(ctx, guildID, gp, t, 0)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{"guild_id": guildID, "track": t.Title}).Warn("Skipping track that failed to start")
			c.queue.SetCurrent(guildID, nil)
			c.notifier.TrackFailed(guildID, t, err)
			c.recorder.TrackFailed(reasonOf(err))
			continue
		}

		gp.quiet = false
		c.queue.ResetSkipVotes(guildID)
		c.recorder.TrackStarted(guildID)
		c.notifier.NowPlaying(c.event(guildID, started))
		return started, nil
	}
}

func (c *Controller) event(guildID string, t *music.Track) Event {
	s := c.queue.State(guildID)
	e := Event{
		GuildID:  guildID,
		Track:    t,
		Pending:  len(s.Pending),
		Loop:     s.Loop,
		Filter:   s.Filter,
		Volume:   s.Volume,
		Autoplay: s.Autoplay,
		At:       s.StartedAt,
	}
	if len(s.Pending) > 0 {
		e.Next = s.Pending[0]
	}
	return e
}

// start makes t the playing source, refreshing its stream URL when needed.
func (c *Controller) start(ctx context.Context, guildID string, gp *guildPlayer, t *music.Track, offset int) (started *music.Track, err error) {
	defer func() {
		if r := recover(); r != nil {
			gp.state = Idle
			err = &PlaybackError{Track: t, Reason: ReasonPanic, Err: fmt.Errorf("%v", r)}
		}
	}()

	t, err = c.ensureStream(ctx, guildID, gp, t)
	if err != nil {
		gp.state = Idle
		return nil, err
	}

	gp.state = Playing
	if err := gp.handle.Play(c.source(guildID, t, offset), c.completion(guildID, gp)); err != nil {
		gp.state = Idle
		return nil, &PlaybackError{Track: t, Reason: ReasonTransport, Err: err}
	}
	c.queue.SetStartedAt(guildID, c.now().Add(-time.Duration(offset)*time.Second))
	return t, nil
}

func (c *Controller) ensureStream(ctx context.Context, guildID string, gp *guildPlayer, t *music.Track) (*music.Track, error) {
	if t.Playable(c.now(), c.maxAge) {
		return t, nil
	}
	prev := gp.state
	gp.state = Resolving
	fresh, err := c.extractor.RefreshURL(ctx, t)
	gp.state = prev
	if err != nil {
		return nil, &PlaybackError{Track: t, Reason: ReasonNoStream, Err: err}
	}
	if c.queue.Current(guildID) == t {
		c.queue.SetCurrent(guildID, fresh)
	}
	return fresh, nil
}

func (c *Controller) source(guildID string, t *music.Track, offset int) Source {
	s := c.queue.State(guildID)
	return Source{
		URL:           t.StreamURL,
		BeforeOptions: music.BeforeOptions(offset),
		FilterGraph:   music.FilterGraph(s.Volume, s.Filter),
	}
}

// completion hands the transport's finish signal to the guild lane.
func (c *Controller) completion(guildID string, gp *guildPlayer) func(error) {
	var once sync.Once
	return func(err error) {
		once.Do(func() {
			c.lanes.submit(guildID, func() {
				c.finished(guildID, gp, err)
			})
		})
	}
}

func (c *Controller) finished(guildID string, gp *guildPlayer, err error) {
	if c.player(guildID) != gp {
		return
	}
	if gp.seeking {
		gp.seeking = false
		return
	}
	if err != nil {
		cur := c.queue.Current(guildID)
		log.WithError(err).WithFields(log.Fields{"guild_id": guildID}).Warn("Stream ended with an error")
		c.recorder.TrackFailed(ReasonStream)
		if cur != nil {
			c.notifier.TrackFailed(guildID, cur, err)
		}
		c.queue.SetCurrent(guildID, nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*c.timeout)
	defer cancel()
	if _, err := c.playNext(ctx, guildID, gp); err != nil {
		log.WithError(err).WithFields(log.Fields{"guild_id": guildID}).Warn("Couldn't continue playback")
	}
}

// Pause pauses the current track. It reports false when nothing was playing.
func (c *Controller) Pause(guildID string) bool {
	var ok bool
	c.lanes.do(guildID, func() {
		gp := c.player(guildID)
		if gp == nil || gp.state != Playing || !gp.handle.IsPlaying() {
			return
		}
		gp.handle.Pause()
		gp.state = Paused
		gp.pausedAt = c.now()
		ok = true
	})
	return ok
}

// Resume continues a paused track. It reports false when nothing was paused.
func (c *Controller) Resume(guildID string) bool {
	var ok bool
	c.lanes.do(guildID, func() {
		gp := c.player(guildID)
		if gp == nil || gp.state != Paused || !gp.handle.IsPaused() {
			return
		}
		gp.handle.Resume()
		gp.state = Playing
		if started := c.queue.StartedAt(guildID); !started.IsZero() && !gp.pausedAt.IsZero() {
			c.queue.SetStartedAt(guildID, started.Add(c.now().Sub(gp.pausedAt)))
		}
		gp.pausedAt = time.Time{}
		ok = true
	})
	return ok
}

func (c *Controller) active(guildID string) (*guildPlayer, *music.Track, error) {
	gp := c.player(guildID)
	if gp == nil || gp.handle == nil {
		return nil, nil, ErrNotConnected
	}
	cur := c.queue.Current(guildID)
	if cur == nil || (gp.state != Playing && gp.state != Paused) {
		return nil, nil, ErrNothingPlaying
	}
	return gp, cur, nil
}

// Seek restarts the current track at the given second.
func (c *Controller) Seek(ctx context.Context, guildID string, seconds int) error {
	var err error
	c.lanes.do(guildID, func() {
		gp, cur, aerr := c.active(guildID)
		if aerr != nil {
			err = aerr
			return
		}
		if seconds < 0 || (cur.Duration > 0 && seconds >= cur.Duration) {
			err = ErrInvalidPosition
			return
		}
		err = c.restart(ctx, guildID, gp, cur, seconds)
	})
	return err
}

// restart replaces the playing source with one starting at offset. The
// replaced source's completion is swallowed.
func (c *Controller) restart(ctx context.Context, guildID string, gp *guildPlayer, cur *music.Track, offset int) error {
	t, err := c.ensureStream(ctx, guildID, gp, cur)
	if err != nil {
		return err
	}

	gp.seeking = true
	gp.state = Seeking
	gp.handle.Stop()
	if err := gp.handle.Play(c.source(guildID, t, offset), c.completion(guildID, gp)); err != nil {
		// let the replaced source's completion advance the queue
		gp.seeking = false
		gp.state = Playing
		return &PlaybackError{Track: t, Reason: ReasonTransport, Err: err}
	}
	gp.state = Playing
	gp.pausedAt = time.Time{}
	c.queue.SetStartedAt(guildID, c.now().Add(-time.Duration(offset)*time.Second))
	return nil
}

// ApplyFilter stores the filter and, when something is playing, restarts it
// at the current position. It reports whether playback was restarted.
func (c *Controller) ApplyFilter(ctx context.Context, guildID string, f music.Filter) (bool, error) {
	var (
		restarted bool
		err       error
	)
	c.lanes.do(guildID, func() {
		c.queue.SetFilter(guildID, f)
		restarted, err = c.reapply(ctx, guildID)
	})
	return restarted, err
}

// SetVolume stores the volume and reapplies it to the playing track.
func (c *Controller) SetVolume(ctx context.Context, guildID string, v float64) (float64, error) {
	var (
		stored float64
		err    error
	)
	c.lanes.do(guildID, func() {
		stored = c.queue.SetVolume(guildID, v)
		_, err = c.reapply(ctx, guildID)
	})
	return stored, err
}

func (c *Controller) reapply(ctx context.Context, guildID string) (bool, error) {
	gp, cur, err := c.active(guildID)
	if err != nil {
		return false, nil
	}
	pos := c.position(guildID, gp)
	if cur.Duration > 0 && pos >= cur.Duration {
		pos = cur.Duration - 1
	}
	if err := c.restart(ctx, guildID, gp, cur, max(pos, 0)); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Controller) position(guildID string, gp *guildPlayer) int {
	started := c.queue.StartedAt(guildID)
	if started.IsZero() {
		return 0
	}
	now := c.now()
	if gp != nil && gp.state == Paused && !gp.pausedAt.IsZero() {
		now = gp.pausedAt
	}
	return int(math.Max(0, now.Sub(started).Seconds()))
}

// Position returns the elapsed seconds of the current track.
func (c *Controller) Position(guildID string) int {
	var pos int
	c.lanes.do(guildID, func() {
		pos = c.position(guildID, c.player(guildID))
	})
	return pos
}

// Stop clears the queue and ends the current track.
func (c *Controller) Stop(guildID string) {
	c.lanes.do(guildID, func() {
		c.queue.Clear(guildID)
		gp := c.player(guildID)
		if gp == nil || gp.handle == nil {
			return
		}
		if gp.state == Playing || gp.state == Paused {
			gp.quiet = true
			gp.handle.Stop()
		}
	})
}

// Status is a consistent view of a guild's playback.
type Status struct {
	State     State
	Connected bool
	ChannelID string
	Position  int
	Queue     queue.Snapshot
}

func (c *Controller) Snapshot(guildID string) Status {
	var s Status
	c.lanes.do(guildID, func() {
		gp := c.player(guildID)
		s.Queue = c.queue.State(guildID)
		if gp == nil {
			return
		}
		s.Connected = true
		s.ChannelID = gp.channelID
		s.State = gp.state
		s.Position = c.position(guildID, gp)
	})
	return s
}

func (c *Controller) StateOf(guildID string) State {
	var st State
	c.lanes.do(guildID, func() {
		if gp := c.player(guildID); gp != nil {
			st = gp.state
		}
	})
	return st
}
