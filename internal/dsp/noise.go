package dsp

import (
	"math"
	"math/rand/v2"
	"strings"
)

// NoiseType selects a coloured noise source.
type NoiseType int

const (
	White NoiseType = iota
	Pink
	Brown
)

func (t NoiseType) String() string {
	switch t {
	case Pink:
		return "pink"
	case Brown:
		return "brown"
	}
	return "white"
}

// ParseNoiseType maps a name to a NoiseType, defaulting to pink.
func ParseNoiseType(name string) NoiseType {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "white":
		return White
	case "brown", "brownian", "red":
		return Brown
	}
	return Pink
}

// NewRand returns a generator seeded from seed, or from the runtime source
// when seed is zero.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Noise generates n samples of the given colour.
func Noise(t NoiseType, n int, rng *rand.Rand) []float64 {
	switch t {
	case Brown:
		return BrownNoise(n, rng)
	case White:
		return WhiteNoise(n, rng)
	}
	return PinkNoise(n, rng)
}

// WhiteNoise returns n uniform samples in [-1,1).
func WhiteNoise(n int, rng *rand.Rand) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}

// GaussianNoise returns n standard-normal samples.
func GaussianNoise(n int, rng *rand.Rand) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64()
	}
	return out
}

// PinkNoise approximates 1/f noise with Paul Kellet's filter: six leaky
// accumulators, a direct term and a one-sample delayed term, all fed by one
// white draw per sample. Output is scaled by 0.11 and clamped to [-1,1].
func PinkNoise(n int, rng *rand.Rand) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	var b0, b1, b2, b3, b4, b5, b6 float64
	for i := range out {
		w := rng.Float64()*2 - 1
		b0 = 0.99886*b0 + w*0.0555179
		b1 = 0.99332*b1 + w*0.0750759
		b2 = 0.96900*b2 + w*0.1538520
		b3 = 0.86650*b3 + w*0.3104856
		b4 = 0.55000*b4 + w*0.5329522
		b5 = -0.7616*b5 - w*0.0168980
		v := (b0 + b1 + b2 + b3 + b4 + b5 + b6 + w*0.5362) * 0.11
		b6 = w * 0.115926
		out[i] = Clamp(v, -1, 1)
	}
	return out
}

// BrownNoise integrates uniform white noise and normalizes the whole buffer
// by its peak magnitude.
func BrownNoise(n int, rng *rand.Rand) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	sum := 0.0
	for i := range out {
		sum += rng.Float64()*2 - 1
		out[i] = sum
	}
	NormalizePeak(out, 1)
	return out
}

// NormalizePeak scales data so its peak magnitude equals target. Near-silent
// buffers are left untouched. It returns the peak found before scaling.
func NormalizePeak(data []float64, target float64) float64 {
	peak := Peak(data)
	if peak > 1e-9 {
		for i := range data {
			data[i] = data[i] / peak * target
		}
	}
	return peak
}

// Peak returns the largest magnitude in data.
func Peak(data []float64) float64 {
	peak := 0.0
	for _, v := range data {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

// RMS returns the root mean square of data.
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(data)))
}
