package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// --- Constants ---

func TestConstants(t *testing.T) {
	// 48kHz * 20ms = 960 samples per channel
	if got := SampleRate * int(FrameDuration/time.Millisecond) / 1000; got != FrameSize {
		t.Errorf("FrameSize mismatch: want %d, got %d", got, FrameSize)
	}
	if FrameSamples != FrameSize*Channels {
		t.Errorf("FrameSamples = %d, want %d", FrameSamples, FrameSize*Channels)
	}
	if FrameBytes != FrameSamples*2 {
		t.Errorf("FrameBytes = %d, want %d", FrameBytes, FrameSamples*2)
	}
}

// --- Smoothstep ---

func TestSmoothstepBoundaries(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{1.5, 1},
	}
	for _, tt := range tests {
		got := Smoothstep(tt.input)
		if got != tt.want {
			t.Errorf("Smoothstep(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSmoothstepMonotonic(t *testing.T) {
	prev := 0.0
	for i := 1; i <= 100; i++ {
		x := float64(i) / 100.0
		val := Smoothstep(x)
		if val < prev {
			t.Errorf("Smoothstep not monotonic: f(%v)=%v < f(%v)=%v", x, val, float64(i-1)/100.0, prev)
		}
		prev = val
	}
}

func TestSmoothstepSymmetry(t *testing.T) {
	// Smoothstep is symmetric around 0.5: f(0.5+d) + f(0.5-d) = 1
	for _, d := range []float64{0.1, 0.2, 0.3, 0.4, 0.5} {
		sum := Smoothstep(0.5+d) + Smoothstep(0.5-d)
		if diff := sum - 1.0; diff > 1e-10 || diff < -1e-10 {
			t.Errorf("Smoothstep symmetry broken at d=%v: sum=%v", d, sum)
		}
	}
}

// --- CrossfadeFrames ---

func TestCrossfadeAllOutgoing(t *testing.T) {
	out := []int16{1000, -1000, 500, -500}
	in := []int16{2000, -2000, 1500, -1500}
	result := CrossfadeFrames(out, in, 0)
	for i, v := range result {
		if v != out[i] {
			t.Errorf("At progress=0 sample[%d] = %d, want %d (all outgoing)", i, v, out[i])
		}
	}
}

func TestCrossfadeAllIncoming(t *testing.T) {
	out := []int16{1000, -1000, 500, -500}
	in := []int16{2000, -2000, 1500, -1500}
	result := CrossfadeFrames(out, in, 1)
	for i, v := range result {
		if v != in[i] {
			t.Errorf("At progress=1 sample[%d] = %d, want %d (all incoming)", i, v, in[i])
		}
	}
}

func TestCrossfadeMidpoint(t *testing.T) {
	out := []int16{1000, -1000}
	in := []int16{3000, -3000}
	result := CrossfadeFrames(out, in, 0.5)
	// At midpoint, smoothstep(0.5)=0.5, so average: (1000*0.5 + 3000*0.5) = 2000
	for i, want := range []int16{2000, -2000} {
		if result[i] != want {
			t.Errorf("At progress=0.5 sample[%d] = %d, want %d", i, result[i], want)
		}
	}
}

func TestCrossfadeClipping(t *testing.T) {
	out := []int16{32000, -32000}
	in := []int16{32000, -32000}
	result := CrossfadeFrames(out, in, 0.5)
	// Both loud at midpoint: 32000*0.5 + 32000*0.5 = 32000 (no clipping needed here)
	// But test with values that would overflow:
	out2 := []int16{32767, -32768}
	in2 := []int16{32767, -32768}
	result2 := CrossfadeFrames(out2, in2, 0.5)
	if result[0] > 32767 || result[0] < -32768 {
		t.Errorf("Clipping failed: got %d", result[0])
	}
	if result2[0] != 32767 {
		t.Errorf("Max values at midpoint: got %d, want 32767", result2[0])
	}
	if result2[1] != -32768 {
		t.Errorf("Min values at midpoint: got %d, want -32768", result2[1])
	}
}

// --- SamplesToBytes / round-trip ---

func TestSamplesToBytes(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 256}
	buf := SamplesToBytes(samples)
	if len(buf) != len(samples)*2 {
		t.Fatalf("SamplesToBytes length = %d, want %d", len(buf), len(samples)*2)
	}

	// Verify little-endian encoding manually for a few values
	// 256 = 0x0100 -> bytes [0x00, 0x01]
	idx := 5 * 2
	if buf[idx] != 0x00 || buf[idx+1] != 0x01 {
		t.Errorf("Sample 256 encoded as [%02x, %02x], want [00, 01]", buf[idx], buf[idx+1])
	}
}

func TestSamplesBytesRoundTrip(t *testing.T) {
	original := []int16{0, 1, -1, 32767, -32768, 12345, -6789}
	buf := SamplesToBytes(original)

	recovered := BytesToSamples(buf)

	for i, v := range original {
		if recovered[i] != v {
			t.Errorf("Round-trip sample[%d]: got %d, want %d", i, recovered[i], v)
		}
	}
}

// --- Stereo ---

func TestStereoFit(t *testing.T) {
	s := Stereo{L: []float32{1, 2, 3}, R: []float32{4, 5, 6}}
	long := s.Fit(5)
	if long.Len() != 5 || long.L[4] != 0 || long.R[2] != 6 {
		t.Errorf("Fit(5) = %v", long)
	}
	short := s.Fit(2)
	if short.Len() != 2 || short.L[1] != 2 {
		t.Errorf("Fit(2) = %v", short)
	}
	short.L[0] = 9
	if s.L[0] != 1 {
		t.Error("Fit must copy, not alias")
	}
}

func TestStereoMixOffset(t *testing.T) {
	dst := NewStereo(4)
	src := Stereo{L: []float32{1, 1, 1}, R: []float32{2, 2, 2}}
	dst.Mix(src, 2)
	want := []float32{0, 0, 1, 1}
	for i, v := range want {
		if dst.L[i] != v {
			t.Errorf("L[%d] = %v, want %v", i, dst.L[i], v)
		}
	}
	dst.Mix(src, -2)
	if dst.L[0] != 1 || dst.R[0] != 2 {
		t.Errorf("negative offset: got %v/%v", dst.L[0], dst.R[0])
	}
}

func TestStereoSliceClamps(t *testing.T) {
	s := NewStereo(10)
	if got := s.Slice(8, 20).Len(); got != 2 {
		t.Errorf("Slice(8,20).Len() = %d, want 2", got)
	}
	if got := s.Slice(12, 4).Len(); got != 0 {
		t.Errorf("Slice(12,4).Len() = %d, want 0", got)
	}
}

func TestStereoPeakScale(t *testing.T) {
	s := Stereo{L: []float32{0.5, -2}, R: []float32{1, 0}}
	if s.Peak() != 2 {
		t.Errorf("Peak = %v, want 2", s.Peak())
	}
	s.Scale(0.5)
	if s.Peak() != 1 {
		t.Errorf("Peak after Scale = %v, want 1", s.Peak())
	}
}

func TestStereoDuration(t *testing.T) {
	if got := NewStereo(48000).Duration(48000); got != time.Second {
		t.Errorf("Duration = %v, want 1s", got)
	}
	if got := NewStereo(10).Duration(0); got != 0 {
		t.Errorf("Duration at rate 0 = %v", got)
	}
}

// --- Step crossfade ---

func constant(n int, v float32) Stereo {
	s := NewStereo(n)
	for i := range s.L {
		s.L[i], s.R[i] = v, v
	}
	return s
}

func TestLinearCrossfadeRamp(t *testing.T) {
	n := 1000
	out := Crossfade(constant(n, 1), constant(n, -1), Linear)
	if out.Len() != n {
		t.Fatalf("Len = %d, want %d", out.Len(), n)
	}
	for i := 0; i < n; i++ {
		want := 1 - 2*float64(i)/float64(n)
		if math.Abs(float64(out.L[i])-want) > 1e-6 {
			t.Fatalf("sample %d = %v, want %v", i, out.L[i], want)
		}
	}
	if math.Abs(float64(out.L[n/2])) > 1e-6 {
		t.Errorf("midpoint = %v, want 0", out.L[n/2])
	}
}

func TestCrossfadeUsesShorterBuffer(t *testing.T) {
	if got := Crossfade(NewStereo(10), NewStereo(4), Linear).Len(); got != 4 {
		t.Errorf("Len = %d, want 4", got)
	}
}

func TestEqualPowerWeights(t *testing.T) {
	out, in := EqualPower.Weights(0.5)
	if math.Abs(in-math.Sin(math.Pi/4)) > 1e-12 {
		t.Errorf("incoming weight = %v, want sin(pi/4)", in)
	}
	if math.Abs(out-(1-math.Sin(math.Pi/4))) > 1e-12 {
		t.Errorf("outgoing weight = %v", out)
	}
	s, c := math.Sin(math.Pi/4), math.Cos(math.Pi/4)
	if math.Abs(s*s+c*c-1) > 1e-12 {
		t.Errorf("sin^2+cos^2 = %v", s*s+c*c)
	}

	o, i := EqualPower.Weights(0)
	if o != 1 || i != 0 {
		t.Errorf("Weights(0) = %v,%v", o, i)
	}
	o, i = EqualPower.Weights(1)
	if math.Abs(o) > 1e-12 || math.Abs(i-1) > 1e-12 {
		t.Errorf("Weights(1) = %v,%v", o, i)
	}
}

func TestParseFadeCurve(t *testing.T) {
	tests := map[string]FadeCurve{
		"linear":      Linear,
		"equal_power": EqualPower,
		" Equal_Power": EqualPower,
		"":            Linear,
		"cubic":       Linear,
	}
	for in, want := range tests {
		if got := ParseFadeCurve(in); got != want {
			t.Errorf("ParseFadeCurve(%q) = %v, want %v", in, got, want)
		}
	}
	var c FadeCurve
	if err := c.UnmarshalText([]byte("equal_power")); err != nil || c != EqualPower {
		t.Errorf("UnmarshalText: %v %v", c, err)
	}
}

// --- PCM ---

func TestToPCM16ClipsAndInterleaves(t *testing.T) {
	s := Stereo{L: []float32{0, 1, 2}, R: []float32{-1, 0.5, -3}}
	got := ToPCM16(s)
	want := []int16{0, -32767, 32767, 16384, 32767, -32768}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestFromPCM16(t *testing.T) {
	s := FromPCM16([]int16{16384, -32768, 0, 8192, 7})
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	if s.L[0] != 0.5 || s.R[0] != -1 || s.R[1] != 0.25 {
		t.Errorf("FromPCM16 = %v", s)
	}
}

// --- WAV ---

func TestWAVWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	s := NewStereo(441)
	for i := range s.L {
		s.L[i] = float32(0.5 * math.Sin(2*math.Pi*float64(i)/44.1))
		s.R[i] = -s.L[i]
	}
	if err := WriteWAV(path, s, 44100); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	got, rate, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if rate != 44100 {
		t.Errorf("rate = %d, want 44100", rate)
	}
	if got.Len() != s.Len() {
		t.Fatalf("Len = %d, want %d", got.Len(), s.Len())
	}
	for i := range s.L {
		if math.Abs(float64(got.L[i]-s.L[i])) > 1e-4 || math.Abs(float64(got.R[i]-s.R[i])) > 1e-4 {
			t.Fatalf("frame %d = %v/%v, want %v/%v", i, got.L[i], got.R[i], s.L[i], s.R[i])
		}
	}
}

func TestReadWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.wav")
	if err := os.WriteFile(path, []byte("definitely not riff data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ReadWAV(path); err == nil {
		t.Error("expected an error for a non-WAV file")
	}
	if _, _, err := ReadWAV(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

// --- Resample ---

func sine(n int, freq, rate, amp float64) Stereo {
	s := NewStereo(n)
	for i := range s.L {
		v := float32(amp * math.Sin(2*math.Pi*freq*float64(i)/rate))
		s.L[i], s.R[i] = v, v
	}
	return s
}

// rmsMiddle measures the middle half of x, away from filter edges.
func rmsMiddle(x []float32) float64 {
	mid := x[len(x)/4 : 3*len(x)/4]
	sum := 0.0
	for _, v := range mid {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(mid)))
}

func TestResampleLength(t *testing.T) {
	s := sine(4410, 1000, 44100, 0.5)
	out, err := Resample(s, 44100, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 4800 {
		t.Fatalf("Len = %d, want 4800", out.Len())
	}
	// A 1 kHz tone passes through with its level intact.
	if got, want := rmsMiddle(out.L), 0.5/math.Sqrt2; math.Abs(got-want) > 0.02 {
		t.Errorf("passband RMS = %.4f, want %.4f", got, want)
	}

	same, err := Resample(s, 44100, 44100)
	if err != nil || same.Len() != 4410 {
		t.Errorf("identity resample Len = %d, err = %v", same.Len(), err)
	}
}

func TestResampleRejectsAboveNyquist(t *testing.T) {
	// 30 kHz is above the 22.05 kHz output Nyquist and must not fold back.
	s := sine(9600, 30000, 96000, 0.5)
	out, err := Resample(s, 96000, 44100)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 4410 {
		t.Fatalf("Len = %d, want 4410", out.Len())
	}
	if got := rmsMiddle(out.R); got > 0.01 {
		t.Errorf("aliased RMS = %.4f, want < 0.01", got)
	}
}

func TestResampleEmpty(t *testing.T) {
	out, err := Resample(Stereo{}, 22050, 44100)
	if err != nil || out.Len() != 0 {
		t.Errorf("empty resample = %d frames, err = %v", out.Len(), err)
	}
}
