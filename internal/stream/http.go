package stream

import (
	"context"
	"io"
	"net/http"
	"os/exec"
	"strconv"

	"github.com/satindergrewal/entrain/internal/audio"
)

// Config describes the PCM the broadcaster carries and how it is encoded.
type Config struct {
	SampleRate  int
	MP3Bitrate  string // ffmpeg -b:a value, e.g. "192k"
	OpusBitrate int    // bits per second
	Name        string // station name sent as ICY-Name
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = audio.SampleRate
	}
	if c.MP3Bitrate == "" {
		c.MP3Bitrate = "192k"
	}
	if c.OpusBitrate <= 0 {
		c.OpusBitrate = 128000
	}
	if c.Name == "" {
		c.Name = "entrain"
	}
	return c
}

// HTTPHandler serves a chunked MP3 audio stream via HTTP.
// Each connection spawns an FFmpeg process to encode PCM -> MP3 in real-time.
type HTTPHandler struct {
	broadcaster *Broadcaster
	cfg         Config
}

// NewHTTPHandler creates an HTTP stream handler.
func NewHTTPHandler(b *Broadcaster, cfg Config) *HTTPHandler {
	return &HTTPHandler{broadcaster: b, cfg: cfg.withDefaults()}
}

// ffmpegArgs builds the PCM stdin -> MP3 stdout command line.
func (h *HTTPHandler) ffmpegArgs() []string {
	return []string{
		"-f", "s16le",
		"-ar", strconv.Itoa(h.cfg.SampleRate),
		"-ac", strconv.Itoa(audio.Channels),
		"-i", "pipe:0",
		"-codec:a", "libmp3lame",
		"-b:a", h.cfg.MP3Bitrate,
		"-f", "mp3",
		"-fflags", "nobuffer",
		"-flush_packets", "1",
		"-loglevel", "error",
		"pipe:1",
	}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "close")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("ICY-Name", h.cfg.Name)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg", h.ffmpegArgs()...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		log.WithError(err).Error("HTTP stream: stdin pipe")
		return
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		log.WithError(err).Error("HTTP stream: stdout pipe")
		return
	}

	if err := cmd.Start(); err != nil {
		log.WithError(err).Error("HTTP stream: ffmpeg start")
		return
	}

	listener := h.broadcaster.Subscribe("http")
	defer h.broadcaster.Unsubscribe(listener)

	// Feed PCM frames to FFmpeg
	go func() {
		defer stdin.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-listener.done:
				return
			case frame, ok := <-listener.C:
				if !ok {
					return
				}
				if _, err := stdin.Write(audio.SamplesToBytes(frame)); err != nil {
					return
				}
			}
		}
	}()

	// Read MP3 from FFmpeg and write to HTTP response
	buf := make([]byte, 4096)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				break
			}
			flusher.Flush()
		}
		if err != nil {
			if err != io.EOF {
				log.WithError(err).Warn("HTTP stream: ffmpeg read")
			}
			break
		}
	}

	cmd.Wait()
}
