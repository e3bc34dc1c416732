// Package stream fans rendered PCM out to network listeners over chunked
// HTTP (MP3) and WebRTC (Opus).
package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "stream")

// Broadcaster fans out PCM frames from one source to N listeners.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[*Listener]struct{}
	frames    atomic.Uint64
}

// Listener receives PCM frames from the broadcaster.
type Listener struct {
	ID   string
	Kind string         // transport label for logs: "http", "webrtc"
	C    chan []int16   // buffered channel of 20ms PCM frames
	done chan struct{}

	dropped atomic.Uint64
	once    sync.Once
}

// Dropped reports how many frames were skipped because the listener fell
// behind.
func (l *Listener) Dropped() uint64 { return l.dropped.Load() }

// Done is closed when the listener is unsubscribed.
func (l *Listener) Done() <-chan struct{} { return l.done }

// NewBroadcaster creates a new broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		listeners: make(map[*Listener]struct{}),
	}
}

// Subscribe registers a new listener. Returns a Listener that receives frames.
func (b *Broadcaster) Subscribe(kind string) *Listener {
	l := &Listener{
		ID:   uuid.NewString(),
		Kind: kind,
		C:    make(chan []int16, 150), // ~3 seconds of buffer at 20ms/frame
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.listeners[l] = struct{}{}
	n := len(b.listeners)
	b.mu.Unlock()

	log.WithFields(logrus.Fields{"listener": l.ID, "kind": kind, "total": n}).Info("Listener connected")
	return l
}

// Unsubscribe removes a listener and signals it to stop. Calling it twice is
// harmless.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	l.once.Do(func() {
		b.mu.Lock()
		delete(b.listeners, l)
		n := len(b.listeners)
		b.mu.Unlock()
		close(l.done)

		log.WithFields(logrus.Fields{
			"listener": l.ID,
			"kind":     l.Kind,
			"dropped":  l.Dropped(),
			"total":    n,
		}).Info("Listener disconnected")
	})
}

// ListenerCount returns the number of active listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// FramesSent returns how many frames have been fanned out so far.
func (b *Broadcaster) FramesSent() uint64 { return b.frames.Load() }

// Run reads frames from source and fans out to all listeners.
// Slow listeners get frames dropped rather than blocking the broadcast.
func (b *Broadcaster) Run(ctx context.Context, source <-chan []int16) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-source:
			if !ok {
				log.Info("Source closed, broadcast finished")
				return
			}
			b.frames.Add(1)
			b.mu.RLock()
			for l := range b.listeners {
				select {
				case l.C <- frame:
				default:
					// listener too slow, drop frame to keep broadcast moving
					l.dropped.Add(1)
				}
			}
			b.mu.RUnlock()
		}
	}
}
