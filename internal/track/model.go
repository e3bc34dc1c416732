// Package track describes multi-step entrainment tracks and assembles them
// into a single stereo buffer.
package track

import (
	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/params"
)

const (
	DefaultSampleRate     = 44100.0
	DefaultCrossfade      = 1.0
	DefaultOutputFilename = "my_track.wav"
)

// Voice is one synthesized layer of a step.
type Voice struct {
	Kind         string     `json:"synth_function_name" yaml:"synth_function_name"`
	IsTransition bool       `json:"is_transition" yaml:"is_transition"`
	Params       params.Set `json:"params" yaml:"params"`
	Description  string     `json:"description,omitempty" yaml:"description,omitempty"`
}

// Step is a fixed-length segment whose voices are mixed together.
type Step struct {
	Duration    float64 `json:"duration" yaml:"duration"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Voices      []Voice `json:"voices" yaml:"voices"`
}

type GlobalSettings struct {
	SampleRate        float64         `json:"sample_rate" yaml:"sample_rate"`
	CrossfadeDuration float64         `json:"crossfade_duration" yaml:"crossfade_duration"`
	CrossfadeCurve    audio.FadeCurve `json:"crossfade_curve" yaml:"crossfade_curve"`
	OutputFilename    string          `json:"output_filename" yaml:"output_filename"`
}

// DefaultSettings returns the settings used when a file omits them.
func DefaultSettings() GlobalSettings {
	return GlobalSettings{
		SampleRate:        DefaultSampleRate,
		CrossfadeDuration: DefaultCrossfade,
		CrossfadeCurve:    audio.Linear,
		OutputFilename:    DefaultOutputFilename,
	}
}

// EnvelopePoint is one [time, amp] pair of a background amplitude envelope.
// Times are seconds from the start of the background file.
type EnvelopePoint struct {
	Time float64
	Amp  float64
}

// BackgroundNoise is an audio file laid under the whole track. When
// AmpEnvelope is set it replaces Amp.
type BackgroundNoise struct {
	FilePath    string          `json:"file_path" yaml:"file_path"`
	Amp         float64         `json:"amp" yaml:"amp"`
	Pan         float64         `json:"pan" yaml:"pan"`
	StartTime   float64         `json:"start_time" yaml:"start_time"`
	FadeIn      float64         `json:"fade_in" yaml:"fade_in"`
	FadeOut     float64         `json:"fade_out" yaml:"fade_out"`
	AmpEnvelope []EnvelopePoint `json:"amp_envelope,omitempty" yaml:"amp_envelope,omitempty"`
}

// Clip is an audio file mixed in at a fixed start time. A positive Duration
// truncates the file.
type Clip struct {
	FilePath    string  `json:"file_path" yaml:"file_path"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Start       float64 `json:"start" yaml:"start"`
	Duration    float64 `json:"duration" yaml:"duration"`
	Amp         float64 `json:"amp" yaml:"amp"`
	Pan         float64 `json:"pan" yaml:"pan"`
	FadeIn      float64 `json:"fade_in" yaml:"fade_in"`
	FadeOut     float64 `json:"fade_out" yaml:"fade_out"`
}

type Track struct {
	Settings        GlobalSettings  `json:"global_settings" yaml:"global_settings"`
	BackgroundNoise BackgroundNoise `json:"background_noise" yaml:"background_noise"`
	Clips           []Clip          `json:"clips" yaml:"clips"`
	Steps           []Step          `json:"steps" yaml:"steps"`
}

// Duration is the nominal length in seconds: the step durations minus one
// crossfade per step boundary. Overlays can extend the rendered buffer.
func (t *Track) Duration() float64 {
	total := 0.0
	n := 0
	for _, s := range t.Steps {
		if s.Duration > 0 {
			total += s.Duration
			n++
		}
	}
	if n > 1 && t.Settings.CrossfadeDuration > 0 {
		total -= float64(n-1) * t.Settings.CrossfadeDuration
	}
	return total
}
