package audio

import (
	"math"
	"strings"
)

// FadeCurve selects the weighting used when two step buffers overlap.
type FadeCurve int

const (
	Linear FadeCurve = iota
	EqualPower
)

// ParseFadeCurve maps "equal_power" to EqualPower and anything else to Linear.
func ParseFadeCurve(s string) FadeCurve {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "equal_power", "equal-power", "equalpower":
		return EqualPower
	default:
		return Linear
	}
}

func (c FadeCurve) String() string {
	if c == EqualPower {
		return "equal_power"
	}
	return "linear"
}

// MarshalText lets FadeCurve round-trip through JSON and YAML track files.
func (c FadeCurve) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *FadeCurve) UnmarshalText(b []byte) error {
	*c = ParseFadeCurve(string(b))
	return nil
}

// Weights returns the outgoing and incoming gains at progress a in [0,1].
// The incoming gain is a (linear) or sin(a·π/2) (equal power); the outgoing
// gain is always its complement.
func (c FadeCurve) Weights(a float64) (out, in float64) {
	a = math.Max(0, math.Min(1, a))
	if c == EqualPower {
		a = math.Sin(a * math.Pi / 2)
	}
	return 1 - a, a
}

// Crossfade blends prev into cur over min(len(prev), len(cur)) frames using
// progress i/n. The result is a new buffer.
func Crossfade(prev, cur Stereo, curve FadeCurve) Stereo {
	n := min(prev.Len(), cur.Len())
	out := NewStereo(n)
	for i := 0; i < n; i++ {
		wo, wi := curve.Weights(float64(i) / float64(n))
		out.L[i] = float32(float64(prev.L[i])*wo + float64(cur.L[i])*wi)
		out.R[i] = float32(float64(prev.R[i])*wo + float64(cur.R[i])*wi)
	}
	return out
}

// Smoothstep returns the smoothstep interpolation for t in [0,1]:
// 3t^2 - 2t^3.
func Smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// CrossfadeFrames blends an outgoing PCM frame with an incoming one at the
// given progress (0 = all outgoing, 1 = all incoming) along a smoothstep
// curve. The pipeline uses it to declick skips. Frames must be the same
// length.
func CrossfadeFrames(outgoing, incoming []int16, progress float64) []int16 {
	gain := Smoothstep(progress)
	result := make([]int16, len(outgoing))
	for i := range outgoing {
		mixed := float64(outgoing[i])*(1-gain) + float64(incoming[i])*gain
		result[i] = clip16(mixed)
	}
	return result
}

func clip16(x float64) int16 {
	if x > math.MaxInt16 {
		return math.MaxInt16
	}
	if x < math.MinInt16 {
		return math.MinInt16
	}
	return int16(x)
}
