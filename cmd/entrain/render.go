package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/track"
)

var (
	renderOutput string
	renderSteps  []string
)

var renderCmd = &cobra.Command{
	Use:   "render <track.json|track.yaml>",
	Short: "Render a track file to a 16-bit stereo WAV",
	Long: `Render every step of a track, crossfade neighbouring steps and lay the
background noise and clips over the mix.

Examples:
  entrain render session.json
  entrain render session.yaml -o focus.wav --steps extra.json`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output WAV (default: output_filename from the track)")
	renderCmd.Flags().StringSliceVar(&renderSteps, "steps", nil, "Append the steps of these track files")
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	t, err := loadTrack(args[0], renderSteps)
	if err != nil {
		return err
	}

	out := renderOutput
	if out == "" {
		out = t.Settings.OutputFilename
	}

	started := time.Now()
	buf, err := track.NewAssembler(cfg.Workers).Assemble(ctx, t)
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}
	rate := int(t.Settings.SampleRate)
	if err := audio.WriteWAV(out, buf, rate); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"output":   out,
		"duration": buf.Duration(t.Settings.SampleRate).Round(time.Millisecond).String(),
		"elapsed":  time.Since(started).Round(time.Millisecond).String(),
	}).Info("Track written")
	return nil
}

// loadTrack loads path and appends the steps of each extra file.
func loadTrack(path string, extra []string) (*track.Track, error) {
	t, err := track.Load(path)
	if err != nil {
		return nil, err
	}
	for _, p := range extra {
		steps, err := track.LoadExternalSteps(p)
		if err != nil {
			return nil, err
		}
		t.Steps = append(t.Steps, steps...)
		logrus.WithFields(logrus.Fields{"path": p, "steps": len(steps)}).Info("Appended steps")
	}
	return t, nil
}
