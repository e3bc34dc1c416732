// Package dsp contains the sample-level building blocks shared by every voice
// generator: transition curves, phase integration, envelopes, pan law,
// biquad filters and noise sources.
package dsp

import (
	"math"
	"strings"
)

// Curve shapes a linear transition fraction.
type Curve int

const (
	Linear Curve = iota
	Logarithmic
	Exponential
)

func (c Curve) String() string {
	switch c {
	case Logarithmic:
		return "logarithmic"
	case Exponential:
		return "exponential"
	}
	return "linear"
}

// ParseCurve maps a curve name to a Curve. Unknown names are linear.
func ParseCurve(name string) Curve {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "logarithmic", "log":
		return Logarithmic
	case "exponential", "exp":
		return Exponential
	}
	return Linear
}

// Shape applies the curve to a fraction already clamped to [0,1].
func (c Curve) Shape(a float64) float64 {
	switch c {
	case Logarithmic:
		return 1 - (1-a)*(1-a)
	case Exponential:
		return a * a
	}
	return a
}

// NumSamples returns round(duration*sampleRate), or 0 for degenerate input.
func NumSamples(duration, sampleRate float64) int {
	if duration <= 0 || sampleRate <= 0 || math.IsNaN(duration) || math.IsNaN(sampleRate) {
		return 0
	}
	return int(math.Round(duration * sampleRate))
}

// Alpha returns one interpolation fraction per sample of a transition lasting
// totalDuration seconds. The fraction holds at 0 until initialOffset, rises to
// 1 by totalDuration-postOffset and holds there.
func Alpha(totalDuration, sampleRate, initialOffset, postOffset float64, curve Curve) []float64 {
	n := NumSamples(totalDuration, sampleRate)
	if n <= 0 {
		return nil
	}

	start := math.Min(initialOffset, totalDuration)
	end := math.Max(start, totalDuration-postOffset)
	span := end - start

	out := make([]float64, n)
	for i := range out {
		t := float64(i) / sampleRate
		a := 0.0
		if span > 0 {
			a = Clamp((t-start)/span, 0, 1)
		}
		out[i] = curve.Shape(a)
	}
	return out
}

// Lerp interpolates between start and end by a.
func Lerp(start, end, a float64) float64 {
	return start + (end-start)*a
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
