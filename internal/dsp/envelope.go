package dsp

import "math"

// PanGains returns constant-power left/right gains for pan in [-1,1].
// Out-of-range pans are clamped.
func PanGains(pan float64) (left, right float64) {
	if math.IsNaN(pan) {
		pan = 0
	}
	theta := (Clamp(pan, -1, 1) + 1) * math.Pi / 4
	return math.Cos(theta), math.Sin(theta)
}

// AmpOsc is the tremolo envelope 1 - depth·0.5·(1+sin(2π·freq·t+phase)).
// Depth is clamped to [0,2].
func AmpOsc(t, depth, freq, phase float64) float64 {
	depth = Clamp(depth, 0, 2)
	if depth == 0 {
		return 1
	}
	return 1 - depth*0.5*(1+math.Sin(TwoPi*freq*t+phase))
}

// CenteredAmpOsc is the variant that swings symmetrically around 1-depth/2:
// (1-depth/2) + (depth/2)·sin(2π·freq·t+phase).
func CenteredAmpOsc(t, depth, freq, phase float64) float64 {
	depth = Clamp(depth, 0, 2)
	if depth == 0 || freq == 0 {
		return 1
	}
	return (1 - depth*0.5) + depth*0.5*math.Sin(TwoPi*freq*t+phase)
}

// segments converts second lengths to sample counts and scales them down
// proportionally when together they exceed n.
func segments(n int, sampleRate float64, secs ...float64) []int {
	counts := make([]int, len(secs))
	total := 0
	for i, s := range secs {
		c := int(math.Max(0, s) * sampleRate)
		if c > n {
			c = n
		}
		counts[i] = c
		total += c
	}
	if total > n && total > 0 {
		scale := float64(n) / float64(total)
		used := 0
		for i := range counts[:len(counts)-1] {
			counts[i] = int(float64(counts[i]) * scale)
			used += counts[i]
		}
		counts[len(counts)-1] = n - used
	}
	return counts
}

// ADSR builds an n-sample attack/decay/sustain/release envelope.
func ADSR(n int, sampleRate, attack, decay, sustain, release float64) []float64 {
	if n <= 0 {
		return nil
	}
	sustain = Clamp(sustain, 0, 1)
	seg := segments(n, sampleRate, attack, decay, release)
	a, d, r := seg[0], seg[1], seg[2]
	s := n - a - d - r

	env := make([]float64, 0, n)
	for i := 0; i < a; i++ {
		env = append(env, float64(i)/float64(a))
	}
	for i := 0; i < d; i++ {
		env = append(env, 1+float64(i)/float64(d)*(sustain-1))
	}
	for i := 0; i < s; i++ {
		env = append(env, sustain)
	}
	for i := 0; i < r; i++ {
		env = append(env, (1-float64(i)/float64(r))*sustain)
	}
	return env
}

// Linen builds an n-sample linear attack/sustain/release envelope.
func Linen(n int, sampleRate, attack, release float64) []float64 {
	if n <= 0 {
		return nil
	}
	seg := segments(n, sampleRate, attack, release)
	a, r := seg[0], seg[1]
	s := n - a - r

	env := make([]float64, 0, n)
	for i := 0; i < a; i++ {
		env = append(env, float64(i)/float64(a))
	}
	for i := 0; i < s; i++ {
		env = append(env, 1)
	}
	for i := 0; i < r; i++ {
		env = append(env, 1-float64(i)/float64(r))
	}
	return env
}

// FadeDirection selects which end of the buffer a linear fade ramps.
type FadeDirection int

const (
	FadeIn FadeDirection = iota
	FadeOut
)

// LinearFade builds an envelope of round(total·sampleRate) samples that ramps
// from startAmp to endAmp over fade seconds at the head (FadeIn) or tail
// (FadeOut) and holds the other level elsewhere.
func LinearFade(total, sampleRate, fade, startAmp, endAmp float64, dir FadeDirection) []float64 {
	n := NumSamples(total, sampleRate)
	if n <= 0 {
		return nil
	}
	f := int(math.Max(0, fade) * sampleRate)
	if f > n {
		f = n
	}
	env := make([]float64, n)
	if dir == FadeIn {
		for i := range env {
			env[i] = endAmp
		}
		for i := 0; i < f; i++ {
			env[i] = Lerp(startAmp, endAmp, float64(i)/float64(f))
		}
		return env
	}
	hold := n - f
	for i := 0; i < hold; i++ {
		env[i] = startAmp
	}
	for i := 0; i < f; i++ {
		env[hold+i] = Lerp(startAmp, endAmp, float64(i)/float64(f))
	}
	return env
}

// Trapezoid evaluates an isochronic gate at position t within a cycle of
// cycleLen seconds. The audible part is (1-gap)·cycleLen, with linear ramps of
// ramp·audible at each edge.
func Trapezoid(t, cycleLen, ramp, gap float64) float64 {
	if cycleLen <= 0 {
		return 0
	}
	audible := (1 - gap) * cycleLen
	rampTotal := Clamp(audible*ramp*2, 0, math.Max(audible, 0))
	rampUp := rampTotal * 0.5
	stableEnd := rampUp + (audible - rampTotal)

	switch {
	case t >= audible:
		return 0
	case t < rampUp:
		return t / rampUp
	case t >= stableEnd:
		if rampUp <= 0 {
			return 1
		}
		return Clamp((audible-t)/rampUp, 0, 1)
	}
	return 1
}
