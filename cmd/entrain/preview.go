package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/device"
	"github.com/satindergrewal/entrain/internal/preview"
	"github.com/satindergrewal/entrain/internal/track"
)

var (
	previewStep   int
	previewOutput string
)

var previewCmd = &cobra.Command{
	Use:   "preview <track.json|track.yaml>",
	Short: "Audition one step, looped to the preview length",
	Long: `Render a single step and loop it for the preview duration. The result
plays on the default device, or is written to a WAV with --output.

Examples:
  entrain preview session.json --step 2
  entrain preview session.yaml --step 0 --seconds 10 -o step0.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().IntVarP(&previewStep, "step", "s", 0, "Step index")
	previewCmd.Flags().Float64Var(&cfg.PreviewDuration, "seconds", cfg.PreviewDuration, "Preview length in seconds")
	previewCmd.Flags().StringVarP(&previewOutput, "output", "o", "", "Write the preview to this WAV instead of playing it")
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	t, err := track.Load(args[0])
	if err != nil {
		return err
	}
	if previewStep < 0 || previewStep >= len(t.Steps) {
		return fmt.Errorf("step %d out of range (track has %d)", previewStep, len(t.Steps))
	}

	rate := t.Settings.SampleRate
	p := preview.New(track.NewAssembler(cfg.Workers), rate, cfg.PreviewDuration)
	defer p.Close()

	p.Request(ctx, t.Steps[previewStep])
	if err := waitForPreview(ctx, p); err != nil {
		return err
	}
	p.Play()

	if previewOutput != "" {
		buf := drain(p, audio.FrameSizeFor(int(rate)))
		if err := audio.WriteWAV(previewOutput, buf, int(rate)); err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"output":   previewOutput,
			"step":     previewStep,
			"duration": p.Length().String(),
		}).Info("Preview written")
		return nil
	}

	out, err := device.Open(rate, audio.FrameSizeFor(int(rate)))
	if err != nil {
		return err
	}
	defer out.Close()
	if err := out.Pump(ctx, p); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// waitForPreview polls until the rendered step has been swapped in.
func waitForPreview(ctx context.Context, p *preview.Previewer) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for p.Length() == 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Read(audio.Stereo{})
		}
	}
	return nil
}

// drain reads r block by block until it runs dry.
func drain(r device.Reader, block int) audio.Stereo {
	var out audio.Stereo
	buf := audio.NewStereo(block)
	for {
		n := r.Read(buf)
		if n == 0 {
			return out
		}
		out = out.Append(buf.Slice(0, n))
	}
}
