package synth

import (
	"math"

	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/dsp"
)

func degToRad(deg float64) float64 { return deg * math.Pi / 180 }

// spatialAngleModulation plays a mono beat (carrier ± beat/2 averaged) and
// moves it along an arc. The pan position is sin(angle)*pathRadius, where the
// angle sweeps from arcStartDeg to arcEndDeg over the voice. In transitions
// the sweep follows alpha from startArcStartDeg to endArcEndDeg.
//
// Parameters: amp, carrierFreq, beatFreq, pathRadius, arcStartDeg, arcEndDeg.
func spatialAngleModulation(v *voice) audio.Stereo {
	var (
		amp      = v.ramp("amp", 0.7)
		carrierF = v.ramp("carrierFreq", 440)
		beatF    = v.ramp("beatFreq", 4)
		radius   = v.ramp("pathRadius", 1)
		arc      = ramp{v.float("arcStartDeg", 0), v.float("arcEndDeg", 360)}
	)
	if v.transition {
		arc = ramp{v.float("startArcStartDeg", arc.start), v.float("endArcEndDeg", arc.end)}
	}

	out := v.buffer()
	carrier := dsp.NewPhasor(v.rate, 0)
	beat := dsp.NewPhasor(v.rate, 0)
	for i := 0; i < v.n; i++ {
		a := v.a(i)
		pos := v.t(i) / v.duration
		if v.transition {
			pos = a
		}
		pan := math.Sin(degToRad(arc.at(pos))) * radius.at(a)
		gl, gr := dsp.PanGains(pan)

		pc := carrier.Next(carrierF.at(a))
		pb := beat.Next(beatF.at(a))
		mono := (math.Sin(pc-pb/2) + math.Sin(pc+pb/2)) / 2 * amp.at(a)
		out.L[i] = float32(mono * gl)
		out.R[i] = float32(mono * gr)
	}
	return out
}

// spatialMonauralBeat renders a monaural beat, folds it to mono, applies an
// optional tremolo and rotates it between the ears at spatialBeatFreq.
//
// Parameters: every monaural_beat_stereo_amps parameter plus
// sam_ampOscDepth, sam_ampOscFreq, sam_ampOscPhaseOffset, spatialBeatFreq
// (defaults to beatFreq) and pathRadius.
func spatialMonauralBeat(v *voice) audio.Stereo {
	beat := monauralBeat(v)

	var (
		aod     = v.ramp("sam_ampOscDepth", 0)
		aof     = v.ramp("sam_ampOscFreq", 0)
		aop     = v.ramp("sam_ampOscPhaseOffset", 0)
		spatial = v.ramp("spatialBeatFreq", v.float("beatFreq", 4))
		radius  = v.ramp("pathRadius", 1)
	)

	out := v.buffer()
	rot := dsp.NewPhasor(v.rate, 0)
	for i := 0; i < v.n; i++ {
		a, t := v.a(i), v.t(i)
		mono := 0.5 * (float64(beat.L[i]) + float64(beat.R[i]))
		env := dsp.CenteredAmpOsc(t, aod.at(a), aof.at(a), aop.at(a))
		pan := math.Sin(rot.Next(spatial.at(a))) * radius.at(a)
		gl, gr := dsp.PanGains(pan)
		s := mono * env
		out.L[i] = float32(s * gl)
		out.R[i] = float32(s * gr)
	}
	return out
}
