package crawler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVisitTrackerMarkIfNew(t *testing.T) {
	tracker := NewVisitTracker()

	assert.True(t, tracker.MarkIfNew("https://example.test/a"))
	assert.False(t, tracker.MarkIfNew("https://example.test/a"))
	assert.True(t, tracker.MarkIfNew("https://example.test/b"))
	assert.False(t, tracker.MarkIfNew(""))
}

func TestVisitTrackerSeen(t *testing.T) {
	tracker := NewVisitTracker()

	assert.False(t, tracker.Seen("https://example.test/a"))
	tracker.MarkIfNew("https://example.test/a")
	assert.True(t, tracker.Seen("https://example.test/a"))
}

func TestVisitTrackerSingleWinnerUnderContention(t *testing.T) {
	tracker := NewVisitTracker()
	const goroutines = 32

	var wins atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if tracker.MarkIfNew("https://example.test/contended") {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), wins.Load())
}

func TestTimerPauseHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pauser := &timerPauseController{}
	started := time.Now()
	pauser.Pause(ctx, 5*time.Second)

	assert.Less(t, time.Since(started), time.Second)
}

func TestTimerPauseZeroDelayReturnsImmediately(t *testing.T) {
	pauser := &timerPauseController{}
	started := time.Now()
	pauser.Pause(context.Background(), 0)
	assert.Less(t, time.Since(started), 100*time.Millisecond)
}
