package track

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/dsp"
	"github.com/satindergrewal/entrain/internal/synth"
)

var log = logrus.WithField("component", "track")

// Assembler renders tracks. It holds no per-track state and may be shared.
type Assembler struct {
	// Workers bounds how many voices of one step render at once. Values
	// below 2 render sequentially. The mix is the same either way.
	Workers int
}

// NewAssembler creates an assembler with the given voice worker count.
func NewAssembler(workers int) *Assembler {
	return &Assembler{Workers: workers}
}

// RenderStep renders and mixes every voice of step at sampleRate. Each voice
// is padded or truncated to the step length; unknown kinds contribute
// silence. A mix that peaks above full scale is scaled down to 1.
func (a *Assembler) RenderStep(ctx context.Context, step Step, sampleRate float64) (audio.Stereo, error) {
	n := dsp.NumSamples(step.Duration, sampleRate)
	if n <= 0 {
		return audio.Stereo{}, nil
	}

	bufs := make([]audio.Stereo, len(step.Voices))
	render := func(i int) {
		v := step.Voices[i]
		buf, ok := synth.Generate(v.Kind, v.IsTransition, step.Duration, sampleRate, v.Params)
		if !ok {
			log.WithFields(logrus.Fields{
				"kind":        v.Kind,
				"description": v.Description,
			}).Warn("Unknown voice kind, rendering silence")
		}
		bufs[i] = buf
	}

	if err := a.forEach(ctx, len(step.Voices), render); err != nil {
		return audio.Stereo{}, err
	}

	mix := audio.NewStereo(n)
	for _, b := range bufs {
		mix.Mix(b.Fit(n), 0)
	}
	if peak := mix.Peak(); peak > 1 {
		mix.Scale(1 / peak)
	}
	return mix, nil
}

// forEach runs fn for 0..n-1 on at most Workers goroutines and waits for all
// of them. Cancellation stops new work from starting.
func (a *Assembler) forEach(ctx context.Context, n int, fn func(int)) error {
	if a.Workers < 2 || n < 2 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(i)
		}
		return nil
	}

	sem := make(chan struct{}, a.Workers)
	var wg sync.WaitGroup
	var err error
	for i := 0; i < n; i++ {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case sem <- struct{}{}:
		}
		if err != nil {
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}(i)
	}
	wg.Wait()
	return err
}

// Assemble renders every step, crossfades each one into the end of the mix
// so far and appends the rest, then lays the background and clips over the
// result. Step k starts cf seconds before the end of the mix, where cf is
// clamped to the lengths of step k and the step before it, so the output
// holds Σ step samples − Σ cf frames before overlays. A crossfade may reach
// back into the previous blend when a step is shorter than two crossfades.
func (a *Assembler) Assemble(ctx context.Context, t *Track) (audio.Stereo, error) {
	rate := t.Settings.SampleRate
	if rate <= 0 {
		return audio.Stereo{}, ErrInvalidSampleRate
	}
	started := time.Now()

	total := 0
	for _, s := range t.Steps {
		total += max(0, dsp.NumSamples(s.Duration, rate))
	}
	out := audio.Stereo{L: make([]float32, 0, total), R: make([]float32, 0, total)}
	cf := int(math.Round(t.Settings.CrossfadeDuration * rate))

	prevLen := 0
	for i, step := range t.Steps {
		if err := ctx.Err(); err != nil {
			return audio.Stereo{}, err
		}
		cur, err := a.RenderStep(ctx, step, rate)
		if err != nil {
			return audio.Stereo{}, err
		}
		if cur.Len() == 0 {
			log.WithField("step", i).Debug("Skipping empty step")
			continue
		}

		n := min(cf, prevLen, cur.Len())
		if n > 0 {
			at := out.Len() - n
			blend := audio.Crossfade(out.Slice(at, out.Len()), cur.Slice(0, n), t.Settings.CrossfadeCurve)
			copy(out.L[at:], blend.L)
			copy(out.R[at:], blend.R)
		}
		out = out.Append(cur.Slice(max(n, 0), cur.Len()))
		prevLen = cur.Len()
	}

	out = a.overlay(out, t)

	log.WithFields(logrus.Fields{
		"steps":    len(t.Steps),
		"duration": out.Duration(rate).Round(time.Millisecond).String(),
		"elapsed":  time.Since(started).Round(time.Millisecond).String(),
	}).Info("Track assembled")
	return out, nil
}
