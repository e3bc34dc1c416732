package synth

import (
	"math"
	"math/rand/v2"

	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/dsp"
	"github.com/satindergrewal/entrain/internal/params"
)

// ramp is a parameter that moves from start to end as alpha goes 0 to 1.
// Steady generators use ramps whose ends are equal.
type ramp struct{ start, end float64 }

func (r ramp) at(a float64) float64 { return r.start + (r.end-r.start)*a }

func (r ramp) mean() float64 { return (r.start + r.end) / 2 }

// voice carries the per-call context shared by every generator: the sample
// grid, the parameter set and, for transitions, the alpha sequence.
type voice struct {
	p          params.Set
	duration   float64
	rate       float64
	n          int
	dt         float64
	transition bool
	alpha      []float64
}

func newVoice(duration, sampleRate float64, p params.Set, transition bool) (*voice, bool) {
	n := dsp.NumSamples(duration, sampleRate)
	if n <= 0 {
		return nil, false
	}
	v := &voice{
		p:          p,
		duration:   duration,
		rate:       sampleRate,
		n:          n,
		dt:         1 / sampleRate,
		transition: transition,
	}
	if transition {
		v.alpha = dsp.Alpha(duration, sampleRate,
			p.Float("initial_offset", 0),
			p.Float("post_offset", 0),
			dsp.ParseCurve(p.String("transition_curve", "linear")))
	}
	return v, true
}

// a returns the transition fraction at sample i. Steady voices sit at 0.
func (v *voice) a(i int) float64 {
	if i < len(v.alpha) {
		return v.alpha[i]
	}
	return 0
}

// t returns the time of sample i in seconds.
func (v *voice) t(i int) float64 { return float64(i) * v.dt }

func (v *voice) ramp(name string, def float64) ramp {
	if !v.transition {
		x := v.p.Float(name, def)
		return ramp{x, x}
	}
	s, e := v.p.Ramp(name, def)
	return ramp{s, e}
}

// rampKeys resolves a ramp whose transition names do not follow the
// start<Name>/end<Name> pattern of the steady name.
func (v *voice) rampKeys(name, startKey, endKey string, def float64) ramp {
	x := v.p.Float(name, def)
	if !v.transition {
		return ramp{x, x}
	}
	s := v.p.Float(startKey, x)
	return ramp{s, v.p.Float(endKey, s)}
}

func (v *voice) float(name string, def float64) float64 { return v.p.Float(name, def) }

func (v *voice) rng() *rand.Rand {
	seed := v.p.Float("seed", 0)
	return dsp.NewRand(uint64(math.Abs(seed)))
}

func (v *voice) buffer() audio.Stereo { return audio.NewStereo(v.n) }
