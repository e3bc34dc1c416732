package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/sirupsen/logrus"
	"gopkg.in/hraban/opus.v2"

	"github.com/satindergrewal/entrain/internal/audio"
)

// WebRTCHandler answers SDP offers with a single Opus track fed from the
// broadcaster. Each peer gets its own listener and encoder.
type WebRTCHandler struct {
	broadcaster *Broadcaster
	cfg         Config
	mu          sync.Mutex
	peers       map[string]*peer
}

// sampleWriter is the part of a local track a peer writes to.
type sampleWriter interface {
	WriteSample(media.Sample) error
}

// peer is one connected WebRTC listener.
type peer struct {
	bcast    *Broadcaster
	listener *Listener
	pc       *webrtc.PeerConnection
	track    sampleWriter
	enc      *opus.Encoder
	sent     atomic.Uint64
	once     sync.Once
	log      *logrus.Entry
}

// negotiationError carries the HTTP status for a failed offer.
type negotiationError struct {
	status int
	msg    string
	err    error
}

func (e *negotiationError) Error() string { return fmt.Sprintf("%s: %v", e.msg, e.err) }
func (e *negotiationError) Unwrap() error { return e.err }

// NewWebRTCHandler creates a WebRTC stream handler. Opus accepts 8, 12, 16,
// 24 and 48 kHz input; any other rate is rejected here.
func NewWebRTCHandler(b *Broadcaster, cfg Config) (*WebRTCHandler, error) {
	cfg = cfg.withDefaults()
	switch cfg.SampleRate {
	case 8000, 12000, 16000, 24000, 48000:
	default:
		return nil, fmt.Errorf("opus cannot encode %d Hz", cfg.SampleRate)
	}
	return &WebRTCHandler{broadcaster: b, cfg: cfg, peers: make(map[string]*peer)}, nil
}

// PeerCount returns the number of active WebRTC peers.
func (h *WebRTCHandler) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

func (h *WebRTCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var offer webrtc.SessionDescription
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		http.Error(w, "invalid SDP offer", http.StatusBadRequest)
		return
	}

	p, err := h.newPeer()
	if err != nil {
		log.WithError(err).Error("WebRTC: peer setup")
		http.Error(w, "peer setup failed", http.StatusInternalServerError)
		return
	}
	answer, err := p.negotiate(offer)
	if err != nil {
		p.close()
		var ne *negotiationError
		status := http.StatusInternalServerError
		if errors.As(err, &ne) {
			status = ne.status
		}
		p.log.WithError(err).Warn("WebRTC: negotiation failed")
		http.Error(w, "negotiation failed", status)
		return
	}

	h.add(p)
	p.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		switch s {
		case webrtc.PeerConnectionStateFailed,
			webrtc.PeerConnectionStateClosed,
			webrtc.PeerConnectionStateDisconnected:
			h.drop(p)
		}
	})
	go h.run(p)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(answer)
}

// newPeer builds the encoder and peer connection before any listener is
// subscribed, so a failure leaves nothing to unwind on the broadcaster.
func (h *WebRTCHandler) newPeer() (*peer, error) {
	enc, err := opus.NewEncoder(h.cfg.SampleRate, audio.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("opus encoder: %w", err)
	}
	if err := enc.SetBitrate(h.cfg.OpusBitrate); err != nil {
		log.WithError(err).Warn("WebRTC: opus bitrate rejected, using encoder default")
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return nil, fmt.Errorf("peer connection: %w", err)
	}
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio",
		h.cfg.Name,
	)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("audio track: %w", err)
	}
	if _, err := pc.AddTrack(track); err != nil {
		pc.Close()
		return nil, fmt.Errorf("add track: %w", err)
	}

	l := h.broadcaster.Subscribe("webrtc")
	return &peer{
		bcast:    h.broadcaster,
		listener: l,
		pc:       pc,
		track:    track,
		enc:      enc,
		log:      log.WithField("listener", l.ID),
	}, nil
}

// negotiate applies the remote offer and returns the local answer once ICE
// gathering is complete.
func (p *peer) negotiate(offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	if err := p.pc.SetRemoteDescription(offer); err != nil {
		return nil, &negotiationError{http.StatusBadRequest, "set remote description", err}
	}
	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return nil, &negotiationError{http.StatusInternalServerError, "create answer", err}
	}
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return nil, &negotiationError{http.StatusInternalServerError, "set local description", err}
	}
	<-webrtc.GatheringCompletePromise(p.pc)
	return p.pc.LocalDescription(), nil
}

func (h *WebRTCHandler) add(p *peer) {
	h.mu.Lock()
	h.peers[p.listener.ID] = p
	n := len(h.peers)
	h.mu.Unlock()
	p.log.WithField("peers", n).Info("WebRTC peer connected")
}

// drop removes p and releases its listener and connection. It is safe to
// call from both the state callback and the streaming goroutine.
func (h *WebRTCHandler) drop(p *peer) {
	h.mu.Lock()
	delete(h.peers, p.listener.ID)
	n := len(h.peers)
	h.mu.Unlock()

	if p.close() {
		p.log.WithFields(logrus.Fields{
			"peers":   n,
			"sent":    p.sent.Load(),
			"dropped": p.listener.Dropped(),
		}).Info("WebRTC peer gone")
	}
}

// close reports whether this call did the work.
func (p *peer) close() bool {
	closed := false
	p.once.Do(func() {
		closed = true
		p.bcast.Unsubscribe(p.listener)
		if p.pc != nil {
			p.pc.Close()
		}
	})
	return closed
}

// run encodes the listener's frames to Opus until the listener is released
// or the track refuses a write.
func (h *WebRTCHandler) run(p *peer) {
	defer h.drop(p)
	p.stream()
}

func (p *peer) stream() {
	buf := make([]byte, 4000)
	for {
		select {
		case <-p.listener.done:
			return
		case frame, ok := <-p.listener.C:
			if !ok {
				return
			}
			n, err := p.enc.Encode(frame, buf)
			if err != nil {
				p.log.WithError(err).Warn("WebRTC: opus encode")
				continue
			}
			if err := p.track.WriteSample(media.Sample{
				Data:     buf[:n],
				Duration: audio.FrameDuration,
			}); err != nil {
				p.log.WithError(err).Debug("WebRTC: track closed")
				return
			}
			p.sent.Add(1)
		}
	}
}
