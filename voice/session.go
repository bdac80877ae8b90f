// Package voice streams audio into Discord voice channels through ffmpeg
// and an Opus encoder.
package voice

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"Nocturne/player"
)

const (
	sampleRate       = 48000
	channels         = 2
	frameSize        = 960
	maxOpusFrameSize = 4000
	sendTimeout      = time.Second
)

// encoder is satisfied by *gopus.Encoder.
type encoder interface {
	Encode(pcm []int16, frameSize, maxDataBytes int) ([]byte, error)
}

// Session is a single ffmpeg stream. It is paused by holding a resume
// channel and stopped by closing stop.
type Session struct {
	cmd     *exec.Cmd // ffmpeg process converting the source to PCM
	enc     encoder   // Opus encoder for frames sent to Discord
	mu      sync.Mutex
	resume  chan struct{} // non-nil while paused
	stop    chan struct{}
	stopped bool
	done    chan struct{}
}

func newSession(cmd *exec.Cmd, enc encoder) *Session {
	return &Session{
		cmd:  cmd,
		enc:  enc,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// ffmpegArgs builds the command line that decodes src to raw PCM on stdout.
func ffmpegArgs(src player.Source) []string {
	args := strings.Fields(src.BeforeOptions)
	args = append(args, "-i", src.URL, "-vn")
	if src.FilterGraph != "" {
		args = append(args, "-filter:a", src.FilterGraph)
	}
	return append(args,
		"-f", "s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-loglevel", "error",
		"pipe:1",
	)
}

// IsPaused reports whether the session is paused
func (s *Session) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resume != nil
}

// Pause holds the stream until Resume or Stop
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resume == nil && !s.stopped {
		s.resume = make(chan struct{})
	}
}

// Resume releases a paused stream
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resume != nil {
		close(s.resume)
		s.resume = nil
	}
}

// Stop ends the stream, kills ffmpeg and waits for the send loop to exit
func (s *Session) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.stop != nil {
		close(s.stop)
	}
	if s.resume != nil {
		close(s.resume)
		s.resume = nil
	}
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	done := s.done
	s.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
		}
	}
}

func (s *Session) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// stream reads PCM frames from r, encodes them and sends them to out until
// the input ends or the session is stopped. A stopped session ends cleanly.
func (s *Session) stream(r io.Reader, out chan<- []byte) error {
	buf := make([]int16, frameSize*channels)
	for {
		s.mu.Lock()
		resume := s.resume
		s.mu.Unlock()
		if resume != nil {
			select {
			case <-resume:
			case <-s.stop:
				return nil
			}
		}

		if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
			if s.isStopped() {
				return nil
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("reading pcm: %w", err)
		}

		frame, err := s.enc.Encode(buf, frameSize, maxOpusFrameSize)
		if err != nil {
			return fmt.Errorf("encoding opus: %w", err)
		}
		if len(frame) == 0 {
			continue
		}

		select {
		case out <- frame:
		case <-s.stop:
			return nil
		case <-time.After(sendTimeout):
			return errors.New("timeout sending opus frame")
		}
	}
}
