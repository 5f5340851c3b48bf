package crawler

import (
	"context"
	"sync"
	"time"
)

// VisitTracker is a concurrency-safe set of URLs already claimed during the
// current run. Check-and-mark is a single atomic step so two workers can never
// fetch the same URL concurrently.
type VisitTracker struct {
	seen sync.Map
}

// NewVisitTracker returns an empty tracker.
func NewVisitTracker() *VisitTracker {
	return &VisitTracker{}
}

// MarkIfNew stores the URL if it has not been seen before and returns true.
func (t *VisitTracker) MarkIfNew(url string) bool {
	if url == "" {
		return false
	}
	_, loaded := t.seen.LoadOrStore(url, struct{}{})
	return !loaded
}

// Seen reports whether the URL was already claimed, without marking it.
func (t *VisitTracker) Seen(url string) bool {
	_, ok := t.seen.Load(url)
	return ok
}

// pauseController abstracts how the fetcher waits between retry attempts.
type pauseController interface {
	Pause(ctx context.Context, delay time.Duration)
}

type timerPauseController struct{}

func (p *timerPauseController) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
