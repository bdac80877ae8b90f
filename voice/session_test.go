package voice

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"Nocturne/player"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEncoder struct {
	frames int
	err    error
}

func (e *fakeEncoder) Encode(pcm []int16, frameSize, _ int) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.frames++
	return []byte{byte(len(pcm) / frameSize)}, nil
}

func pcmFrames(n int) *bytes.Reader {
	var buf bytes.Buffer
	frame := make([]int16, frameSize*channels)
	for range n {
		binary.Write(&buf, binary.LittleEndian, frame)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestSession_Pause(t *testing.T) {
	session := &Session{}

	assert.False(t, session.IsPaused())

	session.Pause()

	assert.True(t, session.IsPaused())
	assert.NotNil(t, session.resume)
}

func TestSession_Resume(t *testing.T) {
	session := &Session{}

	session.Pause()
	assert.True(t, session.IsPaused())

	session.Resume()

	assert.False(t, session.IsPaused())
	assert.Nil(t, session.resume)
}

func TestSession_PauseTwice(t *testing.T) {
	session := &Session{}

	session.Pause()
	first := session.resume

	session.Pause()
	second := session.resume

	assert.Equal(t, first, second)
	assert.True(t, session.IsPaused())
}

func TestSession_ResumeWithoutPause(t *testing.T) {
	session := &Session{}

	session.Resume()

	assert.False(t, session.IsPaused())
}

func TestSession_Stop(t *testing.T) {
	session := &Session{stop: make(chan struct{})}
	session.Pause()

	session.Stop()

	assert.True(t, session.stopped)
	assert.False(t, session.IsPaused())
}

func TestSession_StopTwice(t *testing.T) {
	session := &Session{stop: make(chan struct{})}

	session.Stop()
	session.Stop()

	assert.True(t, session.stopped)
}

func TestSession_PauseAfterStop(t *testing.T) {
	session := &Session{stop: make(chan struct{})}
	session.Stop()
	session.Pause()
	assert.False(t, session.IsPaused())
}

func TestSession_StreamSendsEveryFrame(t *testing.T) {
	enc := &fakeEncoder{}
	s := newSession(nil, enc)
	out := make(chan []byte, 10)

	err := s.stream(pcmFrames(3), out)

	require.NoError(t, err)
	assert.Equal(t, 3, enc.frames)
	assert.Len(t, out, 3)
	assert.Equal(t, []byte{channels}, <-out)
}

func TestSession_StreamEncodeError(t *testing.T) {
	s := newSession(nil, &fakeEncoder{err: errors.New("bad frame")})

	err := s.stream(pcmFrames(1), make(chan []byte, 1))

	assert.ErrorContains(t, err, "bad frame")
}

func TestSession_StreamStopsWhilePaused(t *testing.T) {
	s := newSession(nil, &fakeEncoder{})
	s.Pause()

	result := make(chan error, 1)
	go func() { result <- s.stream(pcmFrames(5), make(chan []byte, 10)) }()

	s.mu.Lock()
	close(s.done)
	s.mu.Unlock()
	s.Stop()

	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stream did not exit after stop")
	}
}

func TestFfmpegArgs(t *testing.T) {
	args := ffmpegArgs(player.Source{
		URL:           "https://cdn/a",
		BeforeOptions: "-ss 30 -reconnect 1",
		FilterGraph:   "volume=0.5",
	})

	assert.Equal(t, []string{
		"-ss", "30", "-reconnect", "1",
		"-i", "https://cdn/a", "-vn",
		"-filter:a", "volume=0.5",
		"-f", "s16le", "-ar", "48000", "-ac", "2",
		"-loglevel", "error",
		"pipe:1",
	}, args)
}

func TestFfmpegArgs_NoFilter(t *testing.T) {
	args := ffmpegArgs(player.Source{URL: "u"})
	assert.NotContains(t, args, "-filter:a")
	assert.Equal(t, "pipe:1", args[len(args)-1])
}
