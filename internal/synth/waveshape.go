package synth

import (
	"math"

	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/dsp"
)

// waveshape drives x into tanh and rescales so a full-scale input still
// peaks at 1.
func waveshape(x, amount float64) float64 {
	return math.Tanh(x*amount) / math.Tanh(math.Max(1e-6, amount))
}

// rhythmicWaveshaping pushes an LFO-gated carrier through tanh, so the
// timbre hardens and softens with the rhythm, then pans it.
//
// Parameters: amp, carrierFreq, modFreq, modDepth, shapeAmount, pan.
func rhythmicWaveshaping(v *voice) audio.Stereo {
	var (
		amp      = v.ramp("amp", 0.25)
		carrierF = v.ramp("carrierFreq", 200)
		modFreq  = v.ramp("modFreq", 4)
		modDepth = v.ramp("modDepth", 1)
		shape    = v.ramp("shapeAmount", 5)
		pan      = v.ramp("pan", 0)
	)

	out := v.buffer()
	carrier := dsp.NewPhasor(v.rate, 0)
	lfo := dsp.NewPhasor(v.rate, 0)
	for i := 0; i < v.n; i++ {
		a := v.a(i)
		c := math.Sin(carrier.Next(carrierF.at(a)))
		gate := lfoGain(modDepth.at(a), math.Sin(lfo.Next(modFreq.at(a))))
		s := waveshape(c*gate, shape.at(a)) * amp.at(a)
		gl, gr := dsp.PanGains(pan.at(a))
		out.L[i] = float32(s * gl)
		out.R[i] = float32(s * gr)
	}
	return out
}

// waveShapeStereoAM waveshapes a carrier whose drive follows a shape LFO and
// then applies independent left/right amplitude LFOs.
//
// Parameters: amp, carrierFreq, shapeModFreq, shapeModDepth, shapeAmount,
// stereoModFreqL, stereoModDepthL, stereoModPhaseL, stereoModFreqR,
// stereoModDepthR, stereoModPhaseR.
func waveShapeStereoAM(v *voice) audio.Stereo {
	var (
		amp        = v.ramp("amp", 0.15)
		carrierF   = v.ramp("carrierFreq", 200)
		shapeFreq  = v.ramp("shapeModFreq", 4)
		shapeDepth = v.ramp("shapeModDepth", 0.8)
		shape      = v.ramp("shapeAmount", 0.5)
		freqL      = v.ramp("stereoModFreqL", 4.1)
		depthL     = v.ramp("stereoModDepthL", 0.8)
		freqR      = v.ramp("stereoModFreqR", 4.0)
		depthR     = v.ramp("stereoModDepthR", 0.8)
	)

	out := v.buffer()
	carrier := dsp.NewPhasor(v.rate, 0)
	shapeLFO := dsp.NewPhasor(v.rate, 0)
	lfoL := dsp.NewPhasor(v.rate, v.ramp("stereoModPhaseL", 0).start)
	lfoR := dsp.NewPhasor(v.rate, v.ramp("stereoModPhaseR", math.Pi/2).start)
	for i := 0; i < v.n; i++ {
		a := v.a(i)
		c := math.Sin(carrier.Next(carrierF.at(a)))
		drive := lfoGain(shapeDepth.at(a), math.Sin(shapeLFO.Next(shapeFreq.at(a))))
		s := waveshape(c*drive, shape.at(a)) * amp.at(a)
		modL := lfoGain(depthL.at(a), math.Sin(lfoL.Next(freqL.at(a))))
		modR := lfoGain(depthR.at(a), math.Sin(lfoR.Next(freqR.at(a))))
		out.L[i] = float32(s * modL)
		out.R[i] = float32(s * modR)
	}
	return out
}
