package player

import (
	"sync"

	"github.com/desertthunder/ytplay/internal/models"
)

// Emitter receives engine events. Implementations must return promptly;
// the engine calls them from its event loop.
type Emitter interface {
	TrackStarted(track models.Track)
}

// EmitterFunc adapts a function to [Emitter].
type EmitterFunc func(models.Track)

func (f EmitterFunc) TrackStarted(track models.Track) { f(track) }

type nopEmitter struct{}

func (nopEmitter) TrackStarted(models.Track) {}

const eventBufferSize = 16

// Subscription delivers snapshots after every engine change.
//
// Updates is buffered and lossy: a slow reader sees the latest snapshots, not all of them.
// Done is closed when the subscription is cancelled or the engine closes.
type Subscription struct {
	Updates <-chan Snapshot
	Done    <-chan struct{}

	updates chan Snapshot
	done    chan struct{}
	once    sync.Once
}

func newSubscription() *Subscription {
	s := &Subscription{
		updates: make(chan Snapshot, eventBufferSize),
		done:    make(chan struct{}),
	}
	s.Updates = s.updates
	s.Done = s.done
	return s
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.done) })
}

// send never blocks. When the buffer is full the oldest pending snapshot is dropped.
func (s *Subscription) send(snap Snapshot) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.updates <- snap:
		return
	default:
	}

	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- snap:
	default:
	}
}

// subscribers is the engine's subscription set.
type subscribers struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func (s *subscribers) add() *Subscription {
	sub := newSubscription()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[*Subscription]struct{})
	}
	s.subs[sub] = struct{}{}
	return sub
}

func (s *subscribers) remove(sub *Subscription) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
	sub.close()
}

func (s *subscribers) broadcast(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		sub.send(snap)
	}
}

func (s *subscribers) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		sub.close()
		delete(s.subs, sub)
	}
}
