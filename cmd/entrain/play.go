package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/device"
	"github.com/satindergrewal/entrain/internal/track"
)

var (
	playLive  bool
	playLoop  bool
	playSteps []string
)

var playCmd = &cobra.Command{
	Use:   "play <track.json|track.yaml>",
	Short: "Play a track on the default sound device",
	Long: `Assemble the whole track and play it through PortAudio. With --live the
steps are rendered block by block as they play, without crossfades or
overlays, the same way serve streams them.

Examples:
  entrain play session.json
  entrain play session.yaml --live --loop`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&playLive, "live", false, "Render steps while playing")
	playCmd.Flags().BoolVar(&playLoop, "loop", false, "Restart after the last step (live only)")
	playCmd.Flags().StringSliceVar(&playSteps, "steps", nil, "Append the steps of these track files")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	t, err := loadTrack(args[0], playSteps)
	if err != nil {
		return err
	}
	asm := track.NewAssembler(cfg.Workers)

	if playLive {
		err = playLiveTrack(ctx, asm, t)
	} else {
		err = playAssembled(ctx, asm, t)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func playAssembled(ctx context.Context, asm *track.Assembler, t *track.Track) error {
	buf, err := asm.Assemble(ctx, t)
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}
	rate := t.Settings.SampleRate
	out, err := device.Open(rate, audio.FrameSizeFor(int(rate)))
	if err != nil {
		return err
	}
	defer out.Close()

	logrus.WithField("duration", buf.Duration(rate).String()).Info("Playing")
	return out.Write(ctx, buf)
}

func playLiveTrack(ctx context.Context, asm *track.Assembler, t *track.Track) error {
	rate := cfg.SampleRate
	p := audio.NewPipeline(track.NewSource(asm, t, float64(rate)), audio.PipelineConfig{
		SampleRate: rate,
		BlockSize:  cfg.BlockSize,
		Loop:       playLoop,
		SkipFade:   cfg.SkipFade,
	})
	out, err := device.Open(float64(rate), p.FrameSize())
	if err != nil {
		return err
	}
	defer out.Close()

	go p.Run(ctx)
	return out.PlayFrames(ctx, p.Frames())
}
