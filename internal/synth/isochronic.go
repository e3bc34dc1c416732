package synth

import (
	"math"

	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/dsp"
)

// isochronicTone gates a single sine with a trapezoid once per beat cycle and
// pans the result. The beat position is accumulated so the gate stays
// continuous while beatFreq ramps.
//
// Parameters: amp, baseFreq, beatFreq, rampPercent, gapPercent, pan.
func isochronicTone(v *voice) audio.Stereo {
	var (
		amp     = v.ramp("amp", 0.5)
		baseF   = v.ramp("baseFreq", 200)
		beatF   = v.ramp("beatFreq", 4)
		rampPct = v.ramp("rampPercent", 0.2)
		gapPct  = v.ramp("gapPercent", 0.15)
		pan     = v.ramp("pan", 0)
	)

	out := v.buffer()
	carrier := dsp.NewPhasor(v.rate, 0)
	beatPos := 0.0
	for i := 0; i < v.n; i++ {
		a := v.a(i)
		base := math.Max(0, baseF.at(a))
		beat := math.Max(0, beatF.at(a))

		env := 0.0
		if beat > 0 {
			cycle := 1 / beat
			_, frac := math.Modf(beatPos)
			env = dsp.Trapezoid(frac*cycle, cycle, rampPct.at(a), gapPct.at(a))
		}
		beatPos += beat * v.dt

		s := math.Sin(carrier.Next(base)) * amp.at(a) * env
		gl, gr := dsp.PanGains(pan.at(a))
		out.L[i] = float32(s * gl)
		out.R[i] = float32(s * gr)
	}
	return out
}
