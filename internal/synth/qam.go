package synth

import (
	"math"

	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/dsp"
)

// shapedCos is cos(phase) with its magnitude raised to 1/shape. Shapes above
// 1 square the wave off, shapes below 1 sharpen it.
func shapedCos(phase, shape float64) float64 {
	c := math.Cos(phase)
	if shape == 1 {
		return c
	}
	return math.Copysign(math.Pow(math.Abs(c), 1/math.Max(1e-6, shape)), c)
}

// qamBeat drives two cosine carriers with layered amplitude modulation: a
// shaped primary AM, a plain secondary AM, a sub-harmonic shared by both ears
// and an optional delayed cross-coupling of the two envelopes. Harmonics and
// beating sidebands can be added on top, and a linear attack/release frames
// the whole voice.
//
// Parameters: ampL, ampR, baseFreqL, baseFreqR, qamAmFreqL/R,
// qamAmDepthL/R, qamAmPhaseOffsetL/R, qamAm2FreqL/R, qamAm2DepthL/R,
// qamAm2PhaseOffsetL/R, modShapeL/R, crossModDepth, crossModDelay,
// harmonicDepth, harmonicRatio, subHarmonicFreq, subHarmonicDepth,
// startPhaseL, startPhaseR, phaseOscFreq, phaseOscRange, phaseOscPhaseOffset,
// beatingSidebands, sidebandOffset, sidebandDepth, attackTime, releaseTime.
func qamBeat(v *voice) audio.Stereo {
	var (
		ampL  = v.ramp("ampL", 0.5)
		ampR  = v.ramp("ampR", 0.5)
		baseL = v.ramp("baseFreqL", 200)
		baseR = v.ramp("baseFreqR", 204)

		amFreqL  = v.ramp("qamAmFreqL", 4)
		amDepthL = v.ramp("qamAmDepthL", 0.5)
		amPhaseL = v.ramp("qamAmPhaseOffsetL", 0)
		amFreqR  = v.ramp("qamAmFreqR", 4)
		amDepthR = v.ramp("qamAmDepthR", 0.5)
		amPhaseR = v.ramp("qamAmPhaseOffsetR", 0)

		am2FreqL  = v.ramp("qamAm2FreqL", 0)
		am2DepthL = v.ramp("qamAm2DepthL", 0)
		am2PhaseL = v.ramp("qamAm2PhaseOffsetL", 0)
		am2FreqR  = v.ramp("qamAm2FreqR", 0)
		am2DepthR = v.ramp("qamAm2DepthR", 0)
		am2PhaseR = v.ramp("qamAm2PhaseOffsetR", 0)

		shapeL     = v.ramp("modShapeL", 1)
		shapeR     = v.ramp("modShapeR", 1)
		crossDepth = v.ramp("crossModDepth", 0)
		harmDepth  = v.ramp("harmonicDepth", 0)
		subFreq    = v.ramp("subHarmonicFreq", 0)
		subDepth   = v.ramp("subHarmonicDepth", 0)
		pof        = v.ramp("phaseOscFreq", 0)
		por        = v.ramp("phaseOscRange", 0)

		phaseL0 = v.ramp("startPhaseL", 0).start
		phaseR0 = v.ramp("startPhaseR", 0).start

		crossDelay = v.float("crossModDelay", 0)
		harmRatio  = v.float("harmonicRatio", 2)
		pop        = v.float("phaseOscPhaseOffset", 0)
		sidebands  = v.p.Bool("beatingSidebands", false)
		sideOffset = v.float("sidebandOffset", 1)
		sideDepth  = v.float("sidebandDepth", 0.1)
		attack     = v.float("attackTime", 0)
		release    = v.float("releaseTime", 0)
	)

	am := func(freq, depth, phase, t float64, shaped func(float64) float64) float64 {
		if freq == 0 || depth == 0 {
			return 1
		}
		return 1 + depth*shaped(dsp.TwoPi*freq*t+phase)
	}

	envL := make([]float64, v.n)
	envR := make([]float64, v.n)
	for i := range envL {
		a, t := v.a(i), v.t(i)
		sl, sr := shapeL.at(a), shapeR.at(a)
		envL[i] = am(amFreqL.at(a), amDepthL.at(a), amPhaseL.at(a), t, func(p float64) float64 { return shapedCos(p, sl) })
		envR[i] = am(amFreqR.at(a), amDepthR.at(a), amPhaseR.at(a), t, func(p float64) float64 { return shapedCos(p, sr) })
		envL[i] *= am(am2FreqL.at(a), am2DepthL.at(a), am2PhaseL.at(a), t, math.Cos)
		envR[i] *= am(am2FreqR.at(a), am2DepthR.at(a), am2PhaseR.at(a), t, math.Cos)
		m := am(subFreq.at(a), subDepth.at(a), 0, t, math.Cos)
		envL[i] *= m
		envR[i] *= m
	}

	if delay := int(crossDelay * v.rate); crossDelay > 0 && delay < v.n {
		preL := append([]float64(nil), envL...)
		preR := append([]float64(nil), envR...)
		for i := delay; i < v.n; i++ {
			d := crossDepth.at(v.a(i))
			if d == 0 {
				continue
			}
			envL[i] *= 1 + d*(preR[i-delay]-1)
			envR[i] *= 1 + d*(preL[i-delay]-1)
		}
	}

	fl := make([]float64, v.n)
	fr := make([]float64, v.n)
	for i := range fl {
		a := v.a(i)
		fl[i] = baseL.at(a)
		fr[i] = baseR.at(a)
	}
	phL := dsp.IntegratePhase(fl, v.rate, phaseL0)
	phR := dsp.IntegratePhase(fr, v.rate, phaseR0)

	out := v.buffer()
	for i := range phL {
		a, t := v.a(i), v.t(i)
		d := dsp.SpreadOffset(t, pof.at(a), por.at(a), pop)
		pl, pr := phL[i]-d, phR[i]+d

		gain := 1.0
		if attack > 0 && t < attack {
			gain *= t / attack
		}
		if release > 0 && t > v.duration-release {
			gain *= (v.duration - t) / release
		}

		sigL := envL[i] * math.Cos(pl)
		sigR := envR[i] * math.Cos(pr)
		if hd := harmDepth.at(a); hd != 0 {
			sigL += hd * envL[i] * math.Cos(harmRatio*pl)
			sigR += hd * envR[i] * math.Cos(harmRatio*pr)
		}
		if sidebands && sideDepth != 0 {
			side := dsp.TwoPi * sideOffset * t
			sigL += sideDepth * envL[i] * (math.Cos(pl-side) + math.Cos(pl+side))
			sigR += sideDepth * envR[i] * (math.Cos(pr-side) + math.Cos(pr+side))
		}
		out.L[i] = float32(sigL * ampL.at(a) * gain)
		out.R[i] = float32(sigR * ampR.at(a) * gain)
	}
	return out
}
