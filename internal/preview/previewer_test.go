package preview

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/params"
	"github.com/satindergrewal/entrain/internal/track"
)

const rate = 1000.0

func toneStep(dur, amp float64) track.Step {
	return track.Step{Duration: dur, Voices: []track.Voice{{
		Kind: "binaural_beat",
		Params: params.Set{
			"ampL":     params.Number(amp),
			"ampR":     params.Number(amp),
			"baseFreq": params.Number(100),
		},
	}}}
}

// waitLoaded reads until a preview of the expected length is swapped in.
func waitLoaded(t *testing.T, p *Previewer, want time.Duration) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for p.Length() != want {
		if time.Now().After(deadline) {
			t.Fatalf("preview not ready: length %v", p.Length())
		}
		p.Read(audio.NewStereo(0))
		time.Sleep(2 * time.Millisecond)
	}
}

func TestReadBeforeRenderIsSilent(t *testing.T) {
	p := New(track.NewAssembler(1), rate, 1)
	p.Play()
	dst := audio.NewStereo(64)
	dst.L[0] = 1
	assert.Equal(t, 0, p.Read(dst))
	assert.Equal(t, float32(0), dst.Peak())
}

func TestPreviewLoopsStep(t *testing.T) {
	p := New(track.NewAssembler(1), rate, 1)
	defer p.Close()

	job := p.Request(context.Background(), toneStep(0.3, 0.4))
	assert.NotEmpty(t, job)
	waitLoaded(t, p, time.Second)

	p.Play()
	dst := audio.NewStereo(1000)
	require.Equal(t, 1000, p.Read(dst))
	// The 0.3s step repeats every 300 frames.
	assert.Equal(t, dst.L[10], dst.L[310])
	assert.Equal(t, dst.R[20], dst.R[620])
	assert.Greater(t, dst.Peak(), float32(0.3))

	// Playback stops at the end of the preview.
	assert.False(t, p.Playing())
	assert.Equal(t, 0, p.Read(dst))
	assert.Equal(t, time.Second, p.Position())
}

func TestPreviewPauseAndSeek(t *testing.T) {
	p := New(track.NewAssembler(1), rate, 1)
	defer p.Close()
	p.Request(context.Background(), toneStep(1, 0.4))
	waitLoaded(t, p, time.Second)

	dst := audio.NewStereo(100)
	assert.Equal(t, 0, p.Read(dst), "paused previews stay silent")

	p.Play()
	p.Seek(0.5)
	assert.Equal(t, 100, p.Read(dst))
	assert.Equal(t, 600*time.Millisecond, p.Position())

	p.Stop()
	p.Read(dst)
	assert.Equal(t, time.Duration(0), p.Position())
	assert.False(t, p.Playing())
}

func TestNewRequestReplacesOld(t *testing.T) {
	p := New(track.NewAssembler(1), rate, 2)
	defer p.Close()

	first := p.Request(context.Background(), toneStep(60, 0.4))
	second := p.Request(context.Background(), toneStep(0.5, 0.2))
	assert.NotEqual(t, first, second)

	waitLoaded(t, p, 2*time.Second)
	p.Play()
	dst := audio.NewStereo(2000)
	require.Equal(t, 2000, p.Read(dst))
	assert.LessOrEqual(t, dst.Peak(), float32(0.2+1e-6))
}

func TestCancelledParentDropsRender(t *testing.T) {
	p := New(track.NewAssembler(1), rate, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Request(ctx, toneStep(1, 0.4))

	time.Sleep(50 * time.Millisecond)
	p.Read(audio.NewStereo(0))
	assert.Equal(t, time.Duration(0), p.Length())
}
