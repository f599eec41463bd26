package player

import (
	"sync"
	"time"
)

// interval runs fn every period on its own goroutine between Start and Stop.
type interval struct {
	period time.Duration
	fn     func()

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

func newInterval(period time.Duration, fn func()) *interval {
	return &interval{period: period, fn: fn}
}

// Start is a no-op when already running.
func (iv *interval) Start() {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	if iv.running {
		return
	}
	iv.running = true
	iv.stop = make(chan struct{})
	iv.wg.Add(1)

	go func(stop <-chan struct{}) {
		defer iv.wg.Done()
		ticker := time.NewTicker(iv.period)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				iv.fn()
			}
		}
	}(iv.stop)
}

// Stop cancels the ticker and waits for its goroutine to exit. Safe to call repeatedly.
func (iv *interval) Stop() {
	iv.mu.Lock()
	if !iv.running {
		iv.mu.Unlock()
		return
	}
	iv.running = false
	close(iv.stop)
	iv.mu.Unlock()

	iv.wg.Wait()
}

func (iv *interval) Running() bool {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	return iv.running
}
