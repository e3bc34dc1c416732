package dsp

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
)

// Frequency and Q limits applied by the RBJ designers. Centers are kept
// strictly inside (0, Nyquist) so the recursion stays stable.
const (
	MinFrequency   = 1e-6
	MaxNyquistFrac = 0.499
	MinQ           = 0.1
)

// Biquad holds RBJ cookbook coefficients, normalized by a0, and a direct
// form I delay line. Filters whose coefficients stay fixed run through
// Section; the delay line serves cascades that redesign every sample, where
// state must be the raw input and output history. State persists across
// Process calls until Reset.
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64

	x1, x2 float64
	y1, y2 float64
}

// NewBiquad returns a pass-through filter.
func NewBiquad() *Biquad {
	return &Biquad{b0: 1}
}

// Reset clears the delay lines.
func (b *Biquad) Reset() {
	b.x1, b.x2, b.y1, b.y2 = 0, 0, 0, 0
}

// SetCoefficients installs raw coefficients, normalizing by a0.
func (b *Biquad) SetCoefficients(b0, b1, b2, a0, a1, a2 float64) {
	if a0 == 0 {
		a0 = 1
	}
	inv := 1 / a0
	b.b0 = b0 * inv
	b.b1 = b1 * inv
	b.b2 = b2 * inv
	b.a1 = a1 * inv
	b.a2 = a2 * inv
}

// Coefficients reports the normalized coefficients.
func (b *Biquad) Coefficients() (b0, b1, b2, a1, a2 float64) {
	return b.b0, b.b1, b.b2, b.a1, b.a2
}

func design(sampleRate, freq, q float64) (cosw, alpha float64) {
	freq = Clamp(freq, MinFrequency, sampleRate*MaxNyquistFrac)
	q = math.Max(q, MinQ)
	omega := TwoPi * freq / sampleRate
	return math.Cos(omega), math.Sin(omega) / (2 * q)
}

// SetBandpass configures a constant 0 dB peak gain bandpass.
func (b *Biquad) SetBandpass(sampleRate, center, q float64) {
	cosw, alpha := design(sampleRate, center, q)
	b.SetCoefficients(alpha, 0, -alpha, 1+alpha, -2*cosw, 1-alpha)
}

// SetNotch configures a band-reject filter.
func (b *Biquad) SetNotch(sampleRate, center, q float64) {
	cosw, alpha := design(sampleRate, center, q)
	b.SetCoefficients(1, -2*cosw, 1, 1+alpha, -2*cosw, 1-alpha)
}

// SetLowpass configures a second-order lowpass.
func (b *Biquad) SetLowpass(sampleRate, cutoff, q float64) {
	cosw, alpha := design(sampleRate, cutoff, q)
	b.SetCoefficients((1-cosw)/2, 1-cosw, (1-cosw)/2, 1+alpha, -2*cosw, 1-alpha)
}

// SetHighpass configures a second-order highpass.
func (b *Biquad) SetHighpass(sampleRate, cutoff, q float64) {
	cosw, alpha := design(sampleRate, cutoff, q)
	b.SetCoefficients((1+cosw)/2, -(1 + cosw), (1+cosw)/2, 1+alpha, -2*cosw, 1-alpha)
}

// ProcessSample filters one sample.
func (b *Biquad) ProcessSample(x0 float64) float64 {
	y0 := b.b0*x0 + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2
	b.x2, b.x1 = b.x1, x0
	b.y2, b.y1 = b.y1, y0
	return y0
}

// Process filters buf in place.
func (b *Biquad) Process(buf []float64) {
	for i, x := range buf {
		buf[i] = b.ProcessSample(x)
	}
}

// Butterworth is the Q of a maximally flat second-order section.
const Butterworth = math.Sqrt2 / 2

// BandpassFilter returns a bandpassed copy of data using fresh filter state.
func BandpassFilter(data []float64, center, q, sampleRate float64) []float64 {
	return filtered(data, sampleRate, func(b *Biquad) { b.SetBandpass(sampleRate, center, q) })
}

// BandrejectFilter returns a notch-filtered copy of data.
func BandrejectFilter(data []float64, center, q, sampleRate float64) []float64 {
	return filtered(data, sampleRate, func(b *Biquad) { b.SetNotch(sampleRate, center, q) })
}

// LowpassFilter returns a Butterworth lowpassed copy of data.
func LowpassFilter(data []float64, cutoff, sampleRate float64) []float64 {
	return filtered(data, sampleRate, func(b *Biquad) { b.SetLowpass(sampleRate, cutoff, Butterworth) })
}

func filtered(data []float64, sampleRate float64, configure func(*Biquad)) []float64 {
	out := make([]float64, len(data))
	copy(out, data)
	if len(data) == 0 || sampleRate <= 0 {
		return out
	}
	b := NewBiquad()
	configure(b)
	sec := b.Section()
	for i, x := range out {
		out[i] = sec.ProcessSample(x)
	}
	return out
}

// Section returns a fresh fixed-coefficient section with b's design.
func (b *Biquad) Section() *biquad.Section {
	return biquad.NewSection(biquad.Coefficients{
		B0: b.b0,
		B1: b.b1,
		B2: b.b2,
		A1: b.a1,
		A2: b.a2,
	})
}

// CopyCoefficients installs the coefficients of src without touching state.
// Cascades that redesign per sample compute once and copy into each stage.
func (b *Biquad) CopyCoefficients(src *Biquad) {
	b.b0, b.b1, b.b2, b.a1, b.a2 = src.b0, src.b1, src.b2, src.a1, src.a2
}
