package player

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLanes_RunInOrder(t *testing.T) {
	l := newLanes()
	var (
		mu  sync.Mutex
		got []int
	)
	for i := range 50 {
		l.submit("g", func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	l.do("g", func() {})

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, got, 50)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestLanes_PanicDoesNotKillLane(t *testing.T) {
	l := newLanes()
	l.do("g", func() { panic("boom") })

	ran := false
	l.do("g", func() { ran = true })
	assert.True(t, ran)
}

func TestLanes_GuildsAreIndependent(t *testing.T) {
	l := newLanes()
	block := make(chan struct{})
	l.submit("a", func() { <-block })

	done := false
	l.do("b", func() { done = true })
	assert.True(t, done)
	close(block)
}

func TestLanes_IdleLaneExits(t *testing.T) {
	l := newLanes()
	for _, g := range []string{"a", "b", "c"} {
		l.do(g, func() {})
	}
	assert.Eventually(t, func() bool { return l.active() == 0 }, time.Second, 5*time.Millisecond)

	// a reclaimed lane starts again on the next task
	ran := false
	l.do("a", func() { ran = true })
	assert.True(t, ran)
	assert.Eventually(t, func() bool { return l.active() == 0 }, time.Second, 5*time.Millisecond)
}
