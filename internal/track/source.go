package track

import (
	"context"
	"fmt"

	"github.com/satindergrewal/entrain/internal/audio"
)

// Source adapts a track to audio.StepSource so the streaming pipeline can
// play it step by step. Steps render at the pipeline's rate, not the
// track's, and are not crossfaded.
type Source struct {
	asm   *Assembler
	track *Track
	rate  float64
}

var _ audio.StepSource = (*Source)(nil)

// NewSource renders steps of t with asm at rate.
func NewSource(asm *Assembler, t *Track, rate float64) *Source {
	return &Source{asm: asm, track: t, rate: rate}
}

func (s *Source) NumSteps() int { return len(s.track.Steps) }

func (s *Source) RenderStep(ctx context.Context, i int) (audio.Stereo, error) {
	if i < 0 || i >= len(s.track.Steps) {
		return audio.Stereo{}, fmt.Errorf("step %d out of range [0,%d)", i, len(s.track.Steps))
	}
	return s.asm.RenderStep(ctx, s.track.Steps[i], s.rate)
}

// Step returns step i of the underlying track.
func (s *Source) Step(i int) Step { return s.track.Steps[i] }
