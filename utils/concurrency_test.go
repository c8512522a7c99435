package utils

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolAllComplete(t *testing.T) {
	pool := NewWorkerPool(4, 0)
	var done int64

	for i := 0; i < 50; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&done, 1)
		})
	}
	pool.Wait()

	if done != 50 {
		t.Errorf("expected all 50 jobs complete after Wait, got %d", done)
	}
}

func TestWorkerPoolIsolatesFailures(t *testing.T) {
	// One job "failing" (doing nothing useful) must not prevent the others
	// from completing.
	pool := NewWorkerPool(2, 0)
	var ok int64

	for i := 0; i < 10; i++ {
		i := i
		pool.Submit(func() {
			if i == 3 {
				return
			}
			atomic.AddInt64(&ok, 1)
		})
	}
	pool.Wait()

	if ok != 9 {
		t.Errorf("expected 9 successful jobs, got %d", ok)
	}
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 100
	pool := NewWorkerPool(1, rateLimitMs)

	var timestamps []time.Time
	mu := make(chan struct{}, 1)
	mu <- struct{}{}

	for i := 0; i < 3; i++ {
		pool.Submit(func() {
			<-mu
			timestamps = append(timestamps, time.Now())
			mu <- struct{}{}
		})
	}
	pool.Wait()

	// Timestamps are taken just after the limiter stamps its own clock, so
	// allow a little scheduling slack.
	min := time.Duration(rateLimitMs)*time.Millisecond - 20*time.Millisecond
	for i := 1; i < len(timestamps); i++ {
		if gap := timestamps[i].Sub(timestamps[i-1]); gap < min {
			t.Errorf("gap between job %d and %d: %v < minimum %v", i-1, i, gap, min)
		}
	}
}
