package audio

import (
	"math"
	"time"
)

const (
	SampleRate    = 48000
	Channels      = 2
	BitDepth      = 16
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total interleaved samples per frame
	FrameBytes    = FrameSamples * 2     // bytes per frame (int16 = 2 bytes)
)

// FrameSizeFor returns the per-channel sample count of one 20ms frame at rate.
func FrameSizeFor(rate int) int {
	return rate * int(FrameDuration/time.Millisecond) / 1000
}

// Stereo is a pair of equal-length float32 channels.
type Stereo struct {
	L []float32
	R []float32
}

// NewStereo allocates n frames of silence.
func NewStereo(n int) Stereo {
	if n < 0 {
		n = 0
	}
	return Stereo{L: make([]float32, n), R: make([]float32, n)}
}

// Len returns the frame count.
func (s Stereo) Len() int { return min(len(s.L), len(s.R)) }

// Fit returns a copy of exactly n frames, zero-padded or truncated.
func (s Stereo) Fit(n int) Stereo {
	out := NewStereo(n)
	copy(out.L, s.L)
	copy(out.R, s.R)
	return out
}

// Slice returns frames [from, to) sharing storage with s.
func (s Stereo) Slice(from, to int) Stereo {
	n := s.Len()
	from = max(0, min(from, n))
	to = max(from, min(to, n))
	return Stereo{L: s.L[from:to], R: s.R[from:to]}
}

// Clone returns a deep copy.
func (s Stereo) Clone() Stereo {
	return s.Fit(s.Len())
}

// Mix adds o into s starting at frame offset. Frames of o that fall outside
// s are dropped.
func (s Stereo) Mix(o Stereo, offset int) {
	n := s.Len()
	for i := 0; i < o.Len(); i++ {
		j := offset + i
		if j < 0 {
			continue
		}
		if j >= n {
			break
		}
		s.L[j] += o.L[i]
		s.R[j] += o.R[i]
	}
}

// Scale multiplies both channels by g.
func (s Stereo) Scale(g float32) {
	for i := range s.L {
		s.L[i] *= g
	}
	for i := range s.R {
		s.R[i] *= g
	}
}

// Peak returns the largest magnitude across both channels.
func (s Stereo) Peak() float32 {
	var peak float32
	for _, ch := range [][]float32{s.L, s.R} {
		for _, v := range ch {
			if a := float32(math.Abs(float64(v))); a > peak {
				peak = a
			}
		}
	}
	return peak
}

// Append returns s followed by o.
func (s Stereo) Append(o Stereo) Stereo {
	return Stereo{L: append(s.L, o.L...), R: append(s.R, o.R...)}
}

// Duration reports the length of s at rate.
func (s Stereo) Duration(rate float64) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(float64(s.Len()) / rate * float64(time.Second))
}
