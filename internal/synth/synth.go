// Package synth renders individual voices. Every voice kind has a steady
// variant with fixed parameters and a transition variant whose parameters
// ramp between start and end values along a shaped alpha curve.
//
// Generators are pure: they read a params.Set, never mutate it and return a
// fresh buffer of exactly round(duration*sampleRate) frames. Degenerate input
// (non-positive duration or sample rate) yields an empty buffer.
package synth

import (
	"sort"
	"strings"

	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/params"
)

// Func renders one voice.
type Func func(duration, sampleRate float64, p params.Set) audio.Stereo

// Kind identifies a voice generator.
type Kind int

const (
	Unknown Kind = iota
	BinauralBeat
	IsochronicTone
	MonauralBeatStereoAmps
	QAMBeat
	HybridQAMMonauralBeat
	StereoAMIndependent
	WaveShapeStereoAM
	RhythmicWaveshaping
	SpatialAngleModulation
	SpatialAngleModulationMonauralBeat
	SweptNotchNoise
	SubliminalEncode

	numKinds
)

const transitionSuffix = "_transition"

type entry struct {
	name   string
	render func(v *voice) audio.Stereo
}

var table = [numKinds]entry{
	Unknown:                            {"", nil},
	BinauralBeat:                       {"binaural_beat", binauralBeat},
	IsochronicTone:                     {"isochronic_tone", isochronicTone},
	MonauralBeatStereoAmps:             {"monaural_beat_stereo_amps", monauralBeat},
	QAMBeat:                            {"qam_beat", qamBeat},
	HybridQAMMonauralBeat:              {"hybrid_qam_monaural_beat", hybridQAMMonauralBeat},
	StereoAMIndependent:                {"stereo_am_independent", stereoAMIndependent},
	WaveShapeStereoAM:                  {"wave_shape_stereo_am", waveShapeStereoAM},
	RhythmicWaveshaping:                {"rhythmic_waveshaping", rhythmicWaveshaping},
	SpatialAngleModulation:             {"spatial_angle_modulation", spatialAngleModulation},
	SpatialAngleModulationMonauralBeat: {"spatial_angle_modulation_monaural_beat", spatialMonauralBeat},
	SweptNotchNoise:                    {"generate_swept_notch_pink_sound", sweptNotchNoise},
	SubliminalEncode:                   {"subliminal_encode", subliminalEncode},
}

var byName = func() map[string]Kind {
	m := make(map[string]Kind, numKinds)
	for k := Unknown + 1; k < numKinds; k++ {
		m[table[k].name] = k
	}
	return m
}()

func (k Kind) String() string {
	if k <= Unknown || k >= numKinds {
		return "unknown"
	}
	return table[k].name
}

// ParseKind maps a persisted synth function name to its Kind. A trailing
// "_transition" selects the same kind and reports transition as true.
func ParseKind(name string) (kind Kind, transition bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if base, ok := strings.CutSuffix(name, transitionSuffix); ok {
		name, transition = base, true
	}
	return byName[name], transition
}

// Lookup returns the generator for kind, or nil for an unknown kind.
func Lookup(kind Kind, transition bool) Func {
	if kind <= Unknown || kind >= numKinds {
		return nil
	}
	render := table[kind].render
	return func(duration, sampleRate float64, p params.Set) audio.Stereo {
		v, ok := newVoice(duration, sampleRate, p, transition)
		if !ok {
			return audio.Stereo{}
		}
		return render(v)
	}
}

// Generate renders a voice by name. The bool is false when the name is not a
// known kind; the returned buffer is then silence of the requested length.
func Generate(name string, transition bool, duration, sampleRate float64, p params.Set) (audio.Stereo, bool) {
	kind, suffixed := ParseKind(name)
	fn := Lookup(kind, transition || suffixed)
	if fn == nil {
		return silence(duration, sampleRate), false
	}
	return fn(duration, sampleRate, p), true
}

// Kinds lists the registered synth function names in sorted order.
func Kinds() []string {
	names := make([]string, 0, numKinds-1)
	for k := Unknown + 1; k < numKinds; k++ {
		names = append(names, table[k].name)
	}
	sort.Strings(names)
	return names
}

func silence(duration, sampleRate float64) audio.Stereo {
	v, ok := newVoice(duration, sampleRate, nil, false)
	if !ok {
		return audio.Stereo{}
	}
	return v.buffer()
}

// subliminalEncode is registered so tracks that reference it still load. It
// renders silence.
func subliminalEncode(v *voice) audio.Stereo {
	return v.buffer()
}
