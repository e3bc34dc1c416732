package synth

import (
	"math"

	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/dsp"
)

// monauralBeat sums a lower (base-beat/2) and upper (base+beat/2) tone into
// both channels with independent per-channel weights, so the beat is heard in
// each ear on its own. A shared tremolo and a phase spread between the two
// tones are optional. Output is clamped to [-1,1].
//
// Parameters: amp_lower_L, amp_upper_L, amp_lower_R, amp_upper_R, baseFreq,
// beatFreq, startPhaseL, startPhaseR, phaseOscFreq, phaseOscRange,
// ampOscDepth, ampOscFreq, ampOscPhaseOffset. In transitions the upper tone's
// start phase is read from startStartPhaseU.
func monauralBeat(v *voice) audio.Stereo {
	var (
		ampLL = v.ramp("amp_lower_L", 0.5)
		ampUL = v.ramp("amp_upper_L", 0.5)
		ampLR = v.ramp("amp_lower_R", 0.5)
		ampUR = v.ramp("amp_upper_R", 0.5)
		baseF = v.ramp("baseFreq", 200)
		beatF = v.ramp("beatFreq", 4)

		phaseLower0 = v.ramp("startPhaseL", 0).start
		phaseUpper0 = v.rampKeys("startPhaseR", "startStartPhaseU", "endStartPhaseU", 0).start

		pof = v.ramp("phaseOscFreq", 0)
		por = v.ramp("phaseOscRange", 0)
		aod = v.ramp("ampOscDepth", 0)
		aof = v.ramp("ampOscFreq", 0)
		aop = v.ramp("ampOscPhaseOffset", 0)
	)

	out := v.buffer()
	lower := dsp.NewPhasor(v.rate, phaseLower0)
	upper := dsp.NewPhasor(v.rate, phaseUpper0)
	for i := 0; i < v.n; i++ {
		a, t := v.a(i), v.t(i)
		base := math.Max(0, baseF.at(a))
		beat := math.Max(0, beatF.at(a))
		phLo := lower.Advance(math.Max(0, base-beat/2))
		phUp := upper.Advance(math.Max(0, base+beat/2))

		d := dsp.SpreadOffset(t, pof.at(a), por.at(a), 0)
		sLo := math.Sin(phLo - d)
		sUp := math.Sin(phUp + d)

		mod := dsp.CenteredAmpOsc(t, aod.at(a), aof.at(a), aop.at(a))
		l := (sLo*ampLL.at(a) + sUp*ampUL.at(a)) * mod
		r := (sLo*ampLR.at(a) + sUp*ampUR.at(a)) * mod
		out.L[i] = float32(dsp.Clamp(l, -1, 1))
		out.R[i] = float32(dsp.Clamp(r, -1, 1))
	}
	return out
}
