package stream

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pion/webrtc/v4/pkg/media"
	"gopkg.in/hraban/opus.v2"

	"github.com/satindergrewal/entrain/internal/audio"
)

type fakeTrack struct {
	mu      sync.Mutex
	samples []media.Sample
	err     error
}

func (f *fakeTrack) WriteSample(s media.Sample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	s.Data = append([]byte(nil), s.Data...)
	f.samples = append(f.samples, s)
	return nil
}

func (f *fakeTrack) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.samples)
}

func newTestPeer(t *testing.T, b *Broadcaster, track sampleWriter) *peer {
	t.Helper()
	enc, err := opus.NewEncoder(audio.SampleRate, audio.Channels, opus.AppAudio)
	if err != nil {
		t.Fatalf("opus.NewEncoder: %v", err)
	}
	l := b.Subscribe("webrtc")
	return &peer{bcast: b, listener: l, track: track, enc: enc, log: log.WithField("listener", l.ID)}
}

func testFrame(v int16) []int16 {
	f := make([]int16, audio.FrameSamples)
	for i := range f {
		f[i] = v
	}
	return f
}

// --- WebRTC peers ---

func TestPeerEncodesFrames(t *testing.T) {
	b := NewBroadcaster()
	track := &fakeTrack{}
	p := newTestPeer(t, b, track)

	done := make(chan struct{})
	go func() {
		p.stream()
		close(done)
	}()

	for i := 0; i < 3; i++ {
		p.listener.C <- testFrame(int16(1000 * i))
	}
	deadline := time.After(2 * time.Second)
	for track.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("encoded %d frames, want 3", track.count())
		case <-time.After(5 * time.Millisecond):
		}
	}

	b.Unsubscribe(p.listener)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not stop after unsubscribe")
	}

	if p.sent.Load() != 3 {
		t.Errorf("sent = %d, want 3", p.sent.Load())
	}
	for i, s := range track.samples {
		if len(s.Data) == 0 {
			t.Errorf("sample %d is empty", i)
		}
		if s.Duration != audio.FrameDuration {
			t.Errorf("sample %d duration = %v, want %v", i, s.Duration, audio.FrameDuration)
		}
	}
}

func TestPeerDroppedOnWriteError(t *testing.T) {
	b := NewBroadcaster()
	h, err := NewWebRTCHandler(b, Config{})
	if err != nil {
		t.Fatal(err)
	}
	p := newTestPeer(t, b, &fakeTrack{err: errors.New("closed")})
	h.add(p)
	if h.PeerCount() != 1 {
		t.Fatalf("PeerCount = %d, want 1", h.PeerCount())
	}

	p.listener.C <- testFrame(0)
	h.run(p)

	if h.PeerCount() != 0 {
		t.Errorf("PeerCount = %d after write error, want 0", h.PeerCount())
	}
	if b.ListenerCount() != 0 {
		t.Errorf("ListenerCount = %d, want 0", b.ListenerCount())
	}
}

func TestDropPeerTwice(t *testing.T) {
	b := NewBroadcaster()
	h, err := NewWebRTCHandler(b, Config{})
	if err != nil {
		t.Fatal(err)
	}
	p := newTestPeer(t, b, &fakeTrack{})
	h.add(p)

	h.drop(p)
	h.drop(p)

	select {
	case <-p.listener.Done():
	default:
		t.Error("listener not released")
	}
	if h.PeerCount() != 0 || b.ListenerCount() != 0 {
		t.Errorf("peers = %d, listeners = %d, want 0/0", h.PeerCount(), b.ListenerCount())
	}
	if p.close() {
		t.Error("close after drop should be a no-op")
	}
}
