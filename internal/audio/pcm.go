package audio

import (
	"encoding/binary"
	"math"
)

// ToPCM16 interleaves s into signed 16-bit samples, clipping to full scale.
func ToPCM16(s Stereo) []int16 {
	n := s.Len()
	out := make([]int16, n*Channels)
	for i := 0; i < n; i++ {
		out[2*i] = floatTo16(s.L[i])
		out[2*i+1] = floatTo16(s.R[i])
	}
	return out
}

// FromPCM16 splits interleaved stereo int16 samples into a Stereo buffer.
// A trailing odd sample is dropped.
func FromPCM16(samples []int16) Stereo {
	n := len(samples) / Channels
	out := NewStereo(n)
	for i := 0; i < n; i++ {
		out.L[i] = float32(samples[2*i]) / 32768
		out.R[i] = float32(samples[2*i+1]) / 32768
	}
	return out
}

func floatTo16(x float32) int16 {
	v := float64(x)
	if math.IsNaN(v) {
		return 0
	}
	return clip16(math.Round(v * math.MaxInt16))
}

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// BytesToSamples is the inverse of SamplesToBytes. A trailing odd byte is
// ignored.
func BytesToSamples(b []byte) []int16 {
	samples := make([]int16, len(b)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(b[i*2 : i*2+2]))
	}
	return samples
}
