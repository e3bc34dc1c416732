package synth

import (
	"math"

	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/dsp"
)

// binauralBeat plays base-beat/2 Hz in the left ear and base+beat/2 Hz in the
// right. Each ear has its own vibrato and tremolo, the pair can be phase
// spread, and glitch bursts may be mixed over both channels.
//
// Parameters: ampL, ampR, baseFreq, beatFreq, forceMono, startPhaseL,
// startPhaseR, ampOscDepthL/R, ampOscFreqL/R, ampOscPhaseOffsetL/R,
// freqOscRangeL/R, freqOscFreqL/R, phaseOscFreq, phaseOscRange,
// glitchInterval, glitchDur, glitchNoiseLevel, glitchFocusWidth,
// glitchFocusExp, seed.
func binauralBeat(v *voice) audio.Stereo {
	var (
		ampL      = v.ramp("ampL", 0.5)
		ampR      = v.ramp("ampR", 0.5)
		baseF     = v.ramp("baseFreq", 200)
		beatF     = v.ramp("beatFreq", 4)
		forceMono = v.ramp("forceMono", 0)
		phaseL0   = v.ramp("startPhaseL", 0).start
		phaseR0   = v.ramp("startPhaseR", 0).start

		aodL = v.ramp("ampOscDepthL", 0)
		aofL = v.ramp("ampOscFreqL", 0)
		aopL = v.ramp("ampOscPhaseOffsetL", 0)
		aodR = v.ramp("ampOscDepthR", 0)
		aofR = v.ramp("ampOscFreqR", 0)
		aopR = v.ramp("ampOscPhaseOffsetR", 0)

		forL = v.ramp("freqOscRangeL", 0)
		fofL = v.ramp("freqOscFreqL", 0)
		forR = v.ramp("freqOscRangeR", 0)
		fofR = v.ramp("freqOscFreqR", 0)

		pof = v.ramp("phaseOscFreq", 0)
		por = v.ramp("phaseOscRange", 0)
	)

	instL := make([]float64, v.n)
	instR := make([]float64, v.n)
	for i := range instL {
		a, t := v.a(i), v.t(i)
		base := baseF.at(a)
		beat := beatF.at(a)
		if forceMono.at(a) > 0.5 || beat == 0 {
			instL[i] = math.Max(0, base)
			instR[i] = instL[i]
			continue
		}
		instL[i] = math.Max(0, base-beat/2+dsp.Vibrato(t, fofL.at(a), forL.at(a)))
		instR[i] = math.Max(0, base+beat/2+dsp.Vibrato(t, fofR.at(a), forR.at(a)))
	}
	phL := dsp.IntegratePhase(instL, v.rate, phaseL0)
	phR := dsp.IntegratePhase(instR, v.rate, phaseR0)

	out := v.buffer()
	for i := range phL {
		a, t := v.a(i), v.t(i)
		d := dsp.SpreadOffset(t, pof.at(a), por.at(a), 0)
		envL := dsp.AmpOsc(t, aodL.at(a), aofL.at(a), aopL.at(a))
		envR := dsp.AmpOsc(t, aodR.at(a), aofR.at(a), aopR.at(a))
		out.L[i] = float32(math.Sin(phL[i]-d) * envL * ampL.at(a))
		out.R[i] = float32(math.Sin(phR[i]+d) * envR * ampR.at(a))
	}

	// Burst placement is fixed for the whole voice, so transitions use the
	// midpoint of each glitch ramp.
	g := Glitch{
		Interval:   v.ramp("glitchInterval", 0).mean(),
		Duration:   v.ramp("glitchDur", 0).mean(),
		NoiseLevel: v.ramp("glitchNoiseLevel", 0).mean(),
		FocusWidth: v.ramp("glitchFocusWidth", 0).mean(),
		FocusExp:   v.ramp("glitchFocusExp", 0).mean(),
	}
	if g.Enabled() {
		g.Apply(out, v.rate, baseF.mean(), v.rng())
	}
	return out
}
