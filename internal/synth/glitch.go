package synth

import (
	"math"
	"math/rand/v2"

	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/dsp"
)

// Glitch describes periodic noise bursts mixed into a voice.
type Glitch struct {
	Interval   float64 // seconds between burst ends
	Duration   float64 // burst length in seconds
	NoiseLevel float64 // peak level reached at the end of each burst
	FocusWidth float64 // bandpass width in Hz around the focus frequency; 0 disables
	FocusExp   float64 // ramp exponent; 0 or 1 is linear
}

// Enabled reports whether the glitch produces any bursts.
func (g Glitch) Enabled() bool {
	return g.Interval > 0 && g.Duration > 0 && g.NoiseLevel > 0
}

// Apply adds bursts to both channels of buf. Burst k ends at k*Interval;
// bursts that would run past the end of buf are skipped. Each burst is
// Gaussian noise, optionally bandpassed at focusFreq, normalized to its own
// peak and ramped up to NoiseLevel.
func (g Glitch) Apply(buf audio.Stereo, sampleRate, focusFreq float64, rng *rand.Rand) int {
	n := buf.Len()
	if !g.Enabled() || n == 0 || sampleRate <= 0 {
		return 0
	}
	burstLen := int(g.Duration * sampleRate)
	if burstLen <= 0 {
		return 0
	}
	total := float64(n) / sampleRate
	repeats := int(total / g.Interval)

	applied := 0
	for k := 1; k <= repeats; k++ {
		end := float64(k) * g.Interval
		start := math.Max(0, end-g.Duration)
		i0 := int(start * sampleRate)
		if i0+burstLen > n {
			continue
		}

		noise := dsp.GaussianNoise(burstLen, rng)
		if g.FocusWidth > 0 && focusFreq > 0 {
			q := focusFreq / math.Max(1e-6, g.FocusWidth)
			noise = dsp.BandpassFilter(noise, focusFreq, q, sampleRate)
		}
		peak := dsp.Peak(noise)
		if peak < 1e-6 {
			peak = 1
		}

		for i, x := range noise {
			r := float64(i) / float64(burstLen)
			if g.FocusExp > 0 && g.FocusExp != 1 {
				r = math.Pow(r, g.FocusExp)
			}
			s := float32(x / peak * r * g.NoiseLevel)
			buf.L[i0+i] += s
			buf.R[i0+i] += s
		}
		applied++
	}
	return applied
}
