package synth

import (
	"math"

	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/dsp"
)

// hybridQAMMonauralBeat puts an amplitude-modulated cosine carrier in the
// left ear and a two-tone monaural beat in the right. The right carrier can
// be frequency modulated, phase spread and tremolo modulated.
//
// Parameters: ampL, ampR, qamCarrierFreqL, qamAmFreqL, qamAmDepthL,
// qamAmPhaseOffsetL, qamStartPhaseL, monoCarrierFreqR,
// monoBeatFreqInChannelR, monoAmDepthR, monoAmFreqR, monoAmPhaseOffsetR,
// monoFmRangeR, monoFmFreqR, monoFmPhaseOffsetR, monoStartPhaseR_Tone1,
// monoStartPhaseR_Tone2, monoPhaseOscFreqR, monoPhaseOscRangeR,
// monoPhaseOscPhaseOffsetR.
func hybridQAMMonauralBeat(v *voice) audio.Stereo {
	var (
		ampL = v.ramp("ampL", 0.5)
		ampR = v.ramp("ampR", 0.5)

		qamCarrier = v.ramp("qamCarrierFreqL", 100)
		qamAmFreq  = v.ramp("qamAmFreqL", 4)
		qamAmDepth = v.ramp("qamAmDepthL", 0.5)
		qamAmPhase = v.ramp("qamAmPhaseOffsetL", 0)
		qamPhase0  = v.ramp("qamStartPhaseL", 0).start

		monoCarrier = v.ramp("monoCarrierFreqR", 100)
		monoBeat    = v.ramp("monoBeatFreqInChannelR", 4)
		monoAmDepth = v.ramp("monoAmDepthR", 0)
		monoAmFreq  = v.ramp("monoAmFreqR", 0)
		monoAmPhase = v.ramp("monoAmPhaseOffsetR", 0)
		fmRange     = v.ramp("monoFmRangeR", 0)
		fmFreq      = v.ramp("monoFmFreqR", 0)
		fmPhase     = v.ramp("monoFmPhaseOffsetR", 0)
		tone1Phase0 = v.ramp("monoStartPhaseR_Tone1", 0).start
		tone2Phase0 = v.ramp("monoStartPhaseR_Tone2", 0).start
		pof         = v.ramp("monoPhaseOscFreqR", 0)
		por         = v.ramp("monoPhaseOscRangeR", 0)
		pop         = v.ramp("monoPhaseOscPhaseOffsetR", 0)
	)

	out := v.buffer()
	qam := dsp.NewPhasor(v.rate, qamPhase0)
	tone1 := dsp.NewPhasor(v.rate, tone1Phase0)
	tone2 := dsp.NewPhasor(v.rate, tone2Phase0)
	for i := 0; i < v.n; i++ {
		a, t := v.a(i), v.t(i)

		envQAM := 1.0
		if f, d := qamAmFreq.at(a), qamAmDepth.at(a); f != 0 && d != 0 {
			envQAM = 1 + d*math.Cos(dsp.TwoPi*f*t+qamAmPhase.at(a))
		}
		left := math.Cos(qam.Next(qamCarrier.at(a))) * envQAM * ampL.at(a)

		fm := 0.0
		if f, r := fmFreq.at(a), fmRange.at(a); f != 0 && r != 0 {
			fm = r / 2 * math.Sin(dsp.TwoPi*f*t+fmPhase.at(a))
		}
		carrier := math.Max(0, monoCarrier.at(a)+fm)
		half := monoBeat.at(a) / 2
		ph1 := tone1.Advance(math.Max(0, carrier-half))
		ph2 := tone2.Advance(math.Max(0, carrier+half))
		d := dsp.SpreadOffset(t, pof.at(a), por.at(a), pop.at(a))

		envMono := 1.0
		if f, depth := monoAmFreq.at(a), monoAmDepth.at(a); f != 0 && depth != 0 {
			envMono = dsp.AmpOsc(t, dsp.Clamp(depth, 0, 1), f, monoAmPhase.at(a))
		}
		right := (math.Sin(ph1-d) + math.Sin(ph2+d)) * envMono * ampR.at(a)

		out.L[i] = float32(left)
		out.R[i] = float32(right)
	}
	return out
}
