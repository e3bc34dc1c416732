package track

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/params"
)

const rate = 1000.0

func binaural(amp float64) Voice {
	return Voice{
		Kind: "binaural_beat",
		Params: params.Set{
			"ampL":     params.Number(amp),
			"ampR":     params.Number(amp),
			"baseFreq": params.Number(100),
			"beatFreq": params.Number(4),
		},
	}
}

func newTrack(cf float64, steps ...Step) *Track {
	s := DefaultSettings()
	s.SampleRate = rate
	s.CrossfadeDuration = cf
	return &Track{Settings: s, Steps: steps}
}

// --- RenderStep ---

func TestRenderStepUnknownKindIsSilence(t *testing.T) {
	a := NewAssembler(1)
	buf, err := a.RenderStep(context.Background(), Step{Duration: 0.5, Voices: []Voice{{Kind: "kazoo"}}}, rate)
	require.NoError(t, err)
	assert.Equal(t, 500, buf.Len())
	assert.Equal(t, float32(0), buf.Peak())
}

func TestRenderStepNormalizesHotMix(t *testing.T) {
	v := binaural(0.9)
	step := Step{Duration: 1, Voices: []Voice{v, v, v, v}}
	buf, err := NewAssembler(1).RenderStep(context.Background(), step, rate)
	require.NoError(t, err)
	assert.InDelta(t, 1, float64(buf.Peak()), 1e-6)
}

func TestRenderStepQuietMixUntouched(t *testing.T) {
	step := Step{Duration: 1, Voices: []Voice{binaural(0.3)}}
	buf, err := NewAssembler(1).RenderStep(context.Background(), step, rate)
	require.NoError(t, err)
	assert.LessOrEqual(t, buf.Peak(), float32(0.3+1e-6))
	assert.Greater(t, buf.Peak(), float32(0.25))
}

func TestRenderStepWorkersMatchSequential(t *testing.T) {
	step := Step{Duration: 0.5, Voices: []Voice{
		binaural(0.2),
		{Kind: "isochronic_tone", Params: params.Set{"amp": params.Number(0.2)}},
		{Kind: "generate_swept_notch_pink_sound", Params: params.Set{"seed": params.Number(9)}},
		{Kind: "qam_beat", IsTransition: true},
	}}
	seq, err := NewAssembler(1).RenderStep(context.Background(), step, rate)
	require.NoError(t, err)
	par, err := NewAssembler(4).RenderStep(context.Background(), step, rate)
	require.NoError(t, err)
	assert.Equal(t, seq, par)
}

func TestRenderStepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	step := Step{Duration: 0.5, Voices: []Voice{binaural(0.2), binaural(0.2)}}
	for _, workers := range []int{1, 4} {
		_, err := NewAssembler(workers).RenderStep(ctx, step, rate)
		assert.ErrorIs(t, err, context.Canceled)
	}
}

// --- Assemble ---

func TestAssembleLength(t *testing.T) {
	step := Step{Duration: 1, Voices: []Voice{binaural(0.3)}}
	tr := newTrack(0.25, step, step, step)
	out, err := NewAssembler(2).Assemble(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t, 3000-2*250, out.Len())
	assert.InDelta(t, 2.5, tr.Duration(), 1e-9)
}

func TestAssembleNoCrossfade(t *testing.T) {
	step := Step{Duration: 0.4, Voices: []Voice{binaural(0.3)}}
	out, err := NewAssembler(1).Assemble(context.Background(), newTrack(0, step, step))
	require.NoError(t, err)
	assert.Equal(t, 800, out.Len())
}

func TestAssembleCrossfadeClampedToShortStep(t *testing.T) {
	long := Step{Duration: 1, Voices: []Voice{binaural(0.3)}}
	short := Step{Duration: 0.1, Voices: []Voice{binaural(0.3)}}
	out, err := NewAssembler(1).Assemble(context.Background(), newTrack(0.5, long, short))
	require.NoError(t, err)
	assert.Equal(t, 1000, out.Len())
}

func TestAssembleShortMiddleStepKeepsFullCrossfades(t *testing.T) {
	outer := Step{Duration: 1, Voices: []Voice{binaural(0.3)}}
	for _, mid := range []float64{0.6, 0.5} {
		inner := Step{Duration: mid, Voices: []Voice{binaural(0.2)}}
		tr := newTrack(0.5, outer, inner, outer)
		out, err := NewAssembler(1).Assemble(context.Background(), tr)
		require.NoError(t, err)
		want := 2000 + int(math.Round(mid*rate)) - 2*500
		assert.Equal(t, want, out.Len(), "middle step %.1fs", mid)
		assert.InDelta(t, float64(want)/rate, tr.Duration(), 1e-9)
	}
}

func TestAssembleSkipsEmptySteps(t *testing.T) {
	step := Step{Duration: 0.5, Voices: []Voice{binaural(0.3)}}
	out, err := NewAssembler(1).Assemble(context.Background(), newTrack(0.1, step, Step{}, step))
	require.NoError(t, err)
	assert.Equal(t, 900, out.Len())
}

func TestAssembleCrossfadeRegion(t *testing.T) {
	a := Step{Duration: 0.5, Voices: []Voice{binaural(0.4)}}
	b := Step{Duration: 0.5, Voices: []Voice{{Kind: "isochronic_tone"}}}
	tr := newTrack(0.2, a, b)
	tr.Settings.CrossfadeCurve = audio.EqualPower

	asm := NewAssembler(1)
	ctx := context.Background()
	ra, err := asm.RenderStep(ctx, a, rate)
	require.NoError(t, err)
	rb, err := asm.RenderStep(ctx, b, rate)
	require.NoError(t, err)

	want := ra.Slice(0, 300).Clone().
		Append(audio.Crossfade(ra.Slice(300, 500), rb.Slice(0, 200), audio.EqualPower)).
		Append(rb.Slice(200, 500))

	got, err := asm.Assemble(ctx, tr)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAssembleUnknownVoiceKeepsLength(t *testing.T) {
	tr := newTrack(0, Step{Duration: 0.3, Voices: []Voice{{Kind: "nope"}}})
	out, err := NewAssembler(1).Assemble(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t, 300, out.Len())
	assert.Equal(t, float32(0), out.Peak())
}

func TestAssembleCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewAssembler(1).Assemble(ctx, newTrack(0, Step{Duration: 1}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssembleInvalidRate(t *testing.T) {
	tr := newTrack(0, Step{Duration: 1})
	tr.Settings.SampleRate = 0
	_, err := NewAssembler(1).Assemble(context.Background(), tr)
	assert.ErrorIs(t, err, ErrInvalidSampleRate)
}

// --- Overlays ---

func writeConstantWAV(t *testing.T, frames int, level float32, wavRate int) string {
	t.Helper()
	s := audio.NewStereo(frames)
	for i := range s.L {
		s.L[i], s.R[i] = level, level
	}
	path := filepath.Join(t.TempDir(), "overlay.wav")
	require.NoError(t, audio.WriteWAV(path, s, wavRate))
	return path
}

func TestClipExtendsTrack(t *testing.T) {
	path := writeConstantWAV(t, 500, 0.5, int(rate))
	tr := newTrack(0, Step{Duration: 1, Voices: []Voice{{Kind: "nope"}}})
	tr.Clips = []Clip{{FilePath: path, Start: 2, Amp: 1, Pan: -1}}

	out, err := NewAssembler(1).Assemble(context.Background(), tr)
	require.NoError(t, err)
	require.Equal(t, 2500, out.Len())
	assert.Equal(t, float32(0), out.L[1999])
	assert.InDelta(t, 0.5, float64(out.L[2100]), 1e-3)
	assert.InDelta(t, 0, float64(out.R[2100]), 1e-6)
}

func TestClipDurationAndFades(t *testing.T) {
	path := writeConstantWAV(t, 1000, 0.5, int(rate))
	tr := newTrack(0, Step{Duration: 1, Voices: []Voice{{Kind: "nope"}}})
	tr.Clips = []Clip{{FilePath: path, Duration: 0.5, Amp: 2, FadeIn: 0.1, FadeOut: 0.1}}

	out, err := NewAssembler(1).Assemble(context.Background(), tr)
	require.NoError(t, err)
	require.Equal(t, 1000, out.Len())

	full := 0.5 * 2 * math.Sqrt2 / 2
	assert.InDelta(t, 0, float64(out.L[0]), 1e-6)
	assert.InDelta(t, full, float64(out.L[250]), 1e-3)
	assert.Less(t, float64(out.L[480]), full/2)
	assert.Equal(t, float32(0), out.L[600])
}

func TestClipResampled(t *testing.T) {
	path := writeConstantWAV(t, 500, 0.5, 500)
	tr := newTrack(0, Step{Duration: 0.5, Voices: []Voice{{Kind: "nope"}}})
	tr.Clips = []Clip{{FilePath: path, Amp: 1, Pan: -1}}

	out, err := NewAssembler(1).Assemble(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t, 1000, out.Len())
}

func TestMissingOverlaySkipped(t *testing.T) {
	tr := newTrack(0, Step{Duration: 0.5, Voices: []Voice{{Kind: "nope"}}})
	tr.BackgroundNoise = BackgroundNoise{FilePath: filepath.Join(t.TempDir(), "gone.wav"), Amp: 1}
	tr.Clips = []Clip{{FilePath: filepath.Join(t.TempDir(), "gone.wav"), Amp: 1}, {}}

	out, err := NewAssembler(1).Assemble(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t, 500, out.Len())
}

func TestBackgroundEnvelope(t *testing.T) {
	path := writeConstantWAV(t, 1000, 0.5, int(rate))
	tr := newTrack(0, Step{Duration: 1, Voices: []Voice{{Kind: "nope"}}})
	tr.BackgroundNoise = BackgroundNoise{
		FilePath:    path,
		Amp:         0.1,
		Pan:         -1,
		AmpEnvelope: []EnvelopePoint{{0, 0}, {0.5, 1}},
	}

	out, err := NewAssembler(1).Assemble(context.Background(), tr)
	require.NoError(t, err)
	assert.InDelta(t, 0, float64(out.L[0]), 1e-6)
	assert.InDelta(t, 0.25, float64(out.L[250]), 1e-3)
	assert.InDelta(t, 0.5, float64(out.L[900]), 1e-3)
}

// --- Source ---

func TestSourceRendersAtItsRate(t *testing.T) {
	tr := newTrack(1, Step{Duration: 0.5, Voices: []Voice{binaural(0.2)}}, Step{Duration: 1})
	src := NewSource(NewAssembler(1), tr, 2000)
	assert.Equal(t, 2, src.NumSteps())

	buf, err := src.RenderStep(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1000, buf.Len())

	_, err = src.RenderStep(context.Background(), 5)
	assert.Error(t, err)
}

// --- Loading ---

const jsonTrack = `{
  "global_settings": {"sample_rate": 22050, "crossfade_curve": "equal_power"},
  "background_noise": {"file_path": "rain.wav", "amp": 0.2, "amp_envelope": [[0, 0.1], [10, 0.3]]},
  "clips": [
    {"file_path": "bell.wav", "start_time": 4, "gain": 0.5},
    {"file_path": "gong.wav"}
  ],
  "steps": [
    {"duration": 30, "description": "settle", "voices": [
      {"synth_function_name": "binaural_beat", "is_transition": false,
       "params": {"beatFreq": 10, "forceMono": false, "filter_sweeps": [[500, 1000]]}}
    ]}
  ]
}`

func TestParseJSON(t *testing.T) {
	tr, err := Parse([]byte(jsonTrack), JSON)
	require.NoError(t, err)

	assert.Equal(t, 22050.0, tr.Settings.SampleRate)
	assert.Equal(t, DefaultCrossfade, tr.Settings.CrossfadeDuration)
	assert.Equal(t, audio.EqualPower, tr.Settings.CrossfadeCurve)
	assert.Equal(t, DefaultOutputFilename, tr.Settings.OutputFilename)

	assert.Equal(t, []EnvelopePoint{{0, 0.1}, {10, 0.3}}, tr.BackgroundNoise.AmpEnvelope)

	require.Len(t, tr.Clips, 2)
	assert.Equal(t, 4.0, tr.Clips[0].Start)
	assert.Equal(t, 0.5, tr.Clips[0].Amp)
	assert.Equal(t, 1.0, tr.Clips[1].Amp)

	require.Len(t, tr.Steps, 1)
	v := tr.Steps[0].Voices[0]
	assert.Equal(t, "binaural_beat", v.Kind)
	assert.Equal(t, 10.0, v.Params.Float("beatFreq", 0))
	assert.False(t, v.Params.Bool("forceMono", true))
	assert.Len(t, v.Params.Array("filter_sweeps"), 1)
}

func TestParseYAML(t *testing.T) {
	doc := `
global_settings:
  sample_rate: 48000
  crossfade_duration: 0
steps:
  - duration: 5
    voices:
      - synth_function_name: isochronic_tone
        is_transition: true
        params:
          startBeatFreq: 12
          endBeatFreq: 8
`
	tr, err := Parse([]byte(doc), YAML)
	require.NoError(t, err)
	assert.Equal(t, 48000.0, tr.Settings.SampleRate)
	assert.Equal(t, 0.0, tr.Settings.CrossfadeDuration)
	assert.Equal(t, audio.Linear, tr.Settings.CrossfadeCurve)
	v := tr.Steps[0].Voices[0]
	assert.True(t, v.IsTransition)
	s, e := v.Params.Ramp("beatFreq", 0)
	assert.Equal(t, 12.0, s)
	assert.Equal(t, 8.0, e)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`{"steps": []}`), JSON)
	assert.ErrorIs(t, err, ErrNoSteps)

	_, err = Parse([]byte(`{"global_settings": {"sample_rate": 0}, "steps": [{"duration": 1, "voices": []}]}`), JSON)
	assert.ErrorIs(t, err, ErrInvalidSampleRate)

	_, err = Parse([]byte(`{"steps": [`), JSON)
	assert.Error(t, err)
}

func TestSaveLoadYAML(t *testing.T) {
	tr, err := Parse([]byte(jsonTrack), JSON)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "track.yaml")
	require.NoError(t, Save(tr, path))
	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, tr, back)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadExternalStepsSkipsIncomplete(t *testing.T) {
	doc := `{"steps": [
	  {"duration": 10, "voices": [{"synth_function_name": "qam_beat"}]},
	  {"voices": []},
	  {"duration": 5},
	  {"duration": 2, "voices": [], "description": "rest"}
	]}`
	path := filepath.Join(t.TempDir(), "steps.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	steps, err := LoadExternalSteps(path)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, 10.0, steps[0].Duration)
	assert.Equal(t, "qam_beat", steps[0].Voices[0].Kind)
	assert.Equal(t, "rest", steps[1].Description)
	assert.Empty(t, steps[1].Voices)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, YAML, FormatFor("a/b.YML"))
	assert.Equal(t, YAML, FormatFor("x.yaml"))
	assert.Equal(t, JSON, FormatFor("x.json"))
	assert.Equal(t, JSON, FormatFor("x"))
}
