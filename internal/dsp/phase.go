package dsp

import "math"

const TwoPi = 2 * math.Pi

// IntegratePhase turns per-sample instantaneous frequency into phase:
// phase[i] = phi0 + 2π·Σ_{k<i} freq[k]/sampleRate. The first sample is phi0.
func IntegratePhase(freq []float64, sampleRate, phi0 float64) []float64 {
	out := make([]float64, len(freq))
	if sampleRate <= 0 {
		for i := range out {
			out[i] = phi0
		}
		return out
	}
	dt := 1 / sampleRate
	acc := phi0
	for i, f := range freq {
		out[i] = acc
		acc += TwoPi * f * dt
	}
	return out
}

// Phasor accumulates phase one sample at a time, for generators that derive
// frequency on the fly. Value reports the phase before the current sample's
// increment is applied.
type Phasor struct {
	phase float64
	dt    float64
}

func NewPhasor(sampleRate, phi0 float64) *Phasor {
	dt := 0.0
	if sampleRate > 0 {
		dt = 1 / sampleRate
	}
	return &Phasor{phase: phi0, dt: dt}
}

func (p *Phasor) Value() float64 { return p.phase }

// Advance adds one sample of freq Hz and returns the new phase.
func (p *Phasor) Advance(freq float64) float64 {
	p.phase += TwoPi * freq * p.dt
	return p.phase
}

// Next returns the current phase and then advances by freq.
func (p *Phasor) Next(freq float64) float64 {
	ph := p.phase
	p.phase += TwoPi * freq * p.dt
	return ph
}

// SpreadOffset is the stereo phase-spread term (range/2)·sin(2π·freq·t+offset).
// Callers subtract it from the left phase and add it to the right.
func SpreadOffset(t, freq, rng, offset float64) float64 {
	if freq == 0 && rng == 0 {
		return 0
	}
	return rng * 0.5 * math.Sin(TwoPi*freq*t+offset)
}

// Vibrato is the instantaneous frequency deviation (range/2)·sin(2π·freq·t).
func Vibrato(t, freq, rng float64) float64 {
	if freq == 0 || rng == 0 {
		return 0
	}
	return rng * 0.5 * math.Sin(TwoPi*freq*t)
}

// Triangle maps a phase in radians to a triangle wave in [-1,1] that starts at
// +1 like cos.
func Triangle(phase float64) float64 {
	frac := phase / TwoPi
	frac -= math.Floor(frac)
	return 2*math.Abs(2*frac-1) - 1
}
