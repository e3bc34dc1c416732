package synth

import (
	"math"

	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/dsp"
)

// lfoGain is the unipolar modulation gain 1 - depth*(1-lfo)/2 for lfo in
// [-1,1]. At full depth it swings between 0 and 1.
func lfoGain(depth, lfo float64) float64 {
	return 1 - depth*(1-lfo)*0.5
}

// stereoAMIndependent detunes the carrier by stereo_width_hz across the two
// ears and modulates each ear with its own LFO.
//
// Parameters: amp, carrierFreq, modFreqL, modDepthL, modPhaseL, modFreqR,
// modDepthR, modPhaseR, stereo_width_hz. Transitions read
// startStereoWidthHz/endStereoWidthHz for the width.
func stereoAMIndependent(v *voice) audio.Stereo {
	var (
		amp       = v.ramp("amp", 0.25)
		carrierF  = v.ramp("carrierFreq", 200)
		modFreqL  = v.ramp("modFreqL", 4)
		modDepthL = v.ramp("modDepthL", 0.8)
		modFreqR  = v.ramp("modFreqR", 4)
		modDepthR = v.ramp("modDepthR", 0.8)
		width     = v.rampKeys("stereo_width_hz", "startStereoWidthHz", "endStereoWidthHz", 0.2)
	)

	out := v.buffer()
	carL := dsp.NewPhasor(v.rate, 0)
	carR := dsp.NewPhasor(v.rate, 0)
	lfoL := dsp.NewPhasor(v.rate, v.ramp("modPhaseL", 0).start)
	lfoR := dsp.NewPhasor(v.rate, v.ramp("modPhaseR", 0).start)
	for i := 0; i < v.n; i++ {
		a := v.a(i)
		c, w := carrierF.at(a), width.at(a)
		modL := lfoGain(modDepthL.at(a), math.Sin(lfoL.Next(modFreqL.at(a))))
		modR := lfoGain(modDepthR.at(a), math.Sin(lfoR.Next(modFreqR.at(a))))
		g := amp.at(a)
		out.L[i] = float32(math.Sin(carL.Next(c-w/2)) * modL * g)
		out.R[i] = float32(math.Sin(carR.Next(c+w/2)) * modR * g)
	}
	return out
}
