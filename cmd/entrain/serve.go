package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/stream"
	"github.com/satindergrewal/entrain/internal/track"
)

var serveSteps []string

var serveCmd = &cobra.Command{
	Use:   "serve <track.json|track.yaml>",
	Short: "Stream a track over HTTP (MP3) and WebRTC (Opus)",
	Long: `Play a track step by step in real time and broadcast it to every
connected listener. Steps are rendered at the stream rate one block
ahead of playback.

Endpoints:
  GET  /stream       MP3 stream (needs ffmpeg on PATH)
  POST /offer        WebRTC SDP offer, answered with an Opus track
  GET  /api/status   current step, position and listener counts
  POST /api/skip     jump to the next step

Example:
  entrain serve session.yaml --port 8080`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&cfg.Port, "port", "p", cfg.Port, "Port to listen on")
	serveCmd.Flags().IntVar(&cfg.SampleRate, "rate", cfg.SampleRate, "Stream sample rate (an Opus rate)")
	serveCmd.Flags().BoolVar(&cfg.Loop, "loop", cfg.Loop, "Restart after the last step")
	serveCmd.Flags().StringSliceVar(&serveSteps, "steps", nil, "Append the steps of these track files")
}

// station ties the pipeline to its listeners and answers the API routes.
type station struct {
	track    *track.Track
	pipeline *audio.Pipeline
	bcast    *stream.Broadcaster
	webrtc   *stream.WebRTCHandler
}

func newStation(t *track.Track) (*station, error) {
	src := track.NewSource(track.NewAssembler(cfg.Workers), t, float64(cfg.SampleRate))
	p := audio.NewPipeline(src, audio.PipelineConfig{
		SampleRate: cfg.SampleRate,
		BlockSize:  cfg.BlockSize,
		Loop:       cfg.Loop,
		SkipFade:   cfg.SkipFade,
	})
	b := stream.NewBroadcaster()
	w, err := stream.NewWebRTCHandler(b, streamConfig())
	if err != nil {
		return nil, err
	}
	return &station{track: t, pipeline: p, bcast: b, webrtc: w}, nil
}

func streamConfig() stream.Config {
	return stream.Config{
		SampleRate:  cfg.SampleRate,
		MP3Bitrate:  cfg.MP3Bitrate,
		OpusBitrate: cfg.OpusBitrate,
	}
}

func (s *station) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/stream", stream.NewHTTPHandler(s.bcast, streamConfig()))
	mux.Handle("/offer", s.webrtc)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/skip", s.handleSkip)
	return mux
}

func (s *station) handleStatus(w http.ResponseWriter, r *http.Request) {
	step, pos, dur := s.pipeline.Status()
	var desc string
	if step >= 0 && step < len(s.track.Steps) {
		desc = s.track.Steps[step].Description
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(map[string]any{
		"step":             step,
		"steps":            len(s.track.Steps),
		"description":      desc,
		"position":         pos.Seconds(),
		"duration":         dur.Seconds(),
		"loop":             cfg.Loop,
		"sample_rate":      cfg.SampleRate,
		"frames_sent":      s.bcast.FramesSent(),
		"http_listeners":   s.bcast.ListenerCount(),
		"webrtc_listeners": s.webrtc.PeerCount(),
	})
}

func (s *station) handleSkip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	s.pipeline.Skip()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"ok": true})
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	t, err := loadTrack(args[0], serveSteps)
	if err != nil {
		return err
	}
	st, err := newStation(t)
	if err != nil {
		return err
	}

	go st.pipeline.Run(ctx)
	go st.bcast.Run(ctx, st.pipeline.Frames())

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: st.routes()}

	go func() {
		<-ctx.Done()
		logrus.Info("Shutting down...")
		server.Close()
	}()

	logrus.WithFields(logrus.Fields{
		"addr":  addr,
		"steps": len(t.Steps),
		"rate":  cfg.SampleRate,
	}).Info("entrain live")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
