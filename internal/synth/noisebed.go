package synth

import (
	"math"
	"strings"

	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/dsp"
	"github.com/satindergrewal/entrain/internal/params"
)

const (
	defaultSweepMin = 1000.0
	defaultSweepMax = 10000.0
	noiseCeiling    = 0.95
	preLowpassHz    = 10000.0
	preHighpassHz   = 50.0
)

// sweep is one LFO-driven notch band. q and casc default to the voice-wide
// notch_q and cascade_count ramps.
type sweep struct {
	lo, hi  ramp
	q, casc ramp
}

// notchBank is a cascade of notch stages. All stages share one design that
// is recomputed every sample as the center moves. Only the first active
// stages run; a stage that drops out and comes back starts from silence.
type notchBank struct {
	design *dsp.Biquad
	stages []*dsp.Biquad
	active int
}

func newNotchBank(size int) *notchBank {
	b := &notchBank{design: dsp.NewBiquad(), stages: make([]*dsp.Biquad, size)}
	for i := range b.stages {
		b.stages[i] = dsp.NewBiquad()
	}
	return b
}

// activate sets the number of running stages, clearing any stage that
// rejoins the cascade.
func (b *notchBank) activate(casc int) {
	casc = min(casc, len(b.stages))
	for _, s := range b.stages[min(b.active, casc):casc] {
		s.Reset()
	}
	b.active = casc
}

func (b *notchBank) process(x, rate, center, q float64, casc int) float64 {
	b.activate(casc)
	b.design.SetNotch(rate, center, q)
	for _, s := range b.stages[:b.active] {
		s.CopyCoefficients(b.design)
		x = s.ProcessSample(x)
	}
	return x
}

// sweptNotchNoise filters pink or brown noise through one or more notch
// sweeps whose centers follow an LFO between each sweep's min and max. The
// right channel's LFO leads the left by lfo_phase_offset_deg, and every sweep
// runs a second cascade offset by intra_phase_offset_deg. Each channel is
// matched to the RMS of the pre-filtered noise and the pair is limited to a
// 0.95 peak.
//
// Parameters: lfo_freq, notch_q, cascade_count, lfo_phase_offset_deg,
// intra_phase_offset_deg, noise_type (pink, brown, white), lfo_waveform
// (sine, triangle), filter_sweeps, seed. Transitions also read
// start_filter_sweeps and end_filter_sweeps.
func sweptNotchNoise(v *voice) audio.Stereo {
	var (
		lfoFreq = v.ramp("lfo_freq", 1.0/12)
		q       = v.ramp("notch_q", 25)
		casc    = v.ramp("cascade_count", 10)
		offset  = v.ramp("lfo_phase_offset_deg", 90)
		intra   = v.ramp("intra_phase_offset_deg", 0)
	)
	lfo := math.Cos
	if strings.EqualFold(v.p.String("lfo_waveform", "sine"), "triangle") {
		lfo = dsp.Triangle
	}
	sweeps := v.sweeps(q, casc)

	noise := dsp.Noise(dsp.ParseNoiseType(v.p.String("noise_type", "pink")), v.n, v.rng())
	design := dsp.NewBiquad()
	design.SetLowpass(v.rate, preLowpassHz, dsp.Butterworth)
	lp := design.Section()
	design.SetHighpass(v.rate, preHighpassHz, dsp.Butterworth)
	hp := design.Section()
	for i, x := range noise {
		noise[i] = hp.ProcessSample(lp.ProcessSample(x))
	}
	rmsIn := math.Max(dsp.RMS(noise), 1e-8)

	type channelBanks struct{ main, intra []*notchBank }
	banks := [2]channelBanks{}
	for ch := range banks {
		for _, s := range sweeps {
			size := max(1, int(math.Round(math.Max(s.casc.start, s.casc.end))))
			banks[ch].main = append(banks[ch].main, newNotchBank(size))
			banks[ch].intra = append(banks[ch].intra, newNotchBank(size))
		}
	}

	left := make([]float64, v.n)
	right := make([]float64, v.n)
	phase := 0.0
	for i, x := range noise {
		a := v.a(i)
		off := degToRad(offset.at(a))
		in := degToRad(intra.at(a))
		l, r := x, x
		for k, s := range sweeps {
			lo, hi := s.lo.at(a), s.hi.at(a)
			qk := s.q.at(a)
			nk := max(1, int(math.Round(s.casc.at(a))))
			nk = min(nk, len(banks[0].main[k].stages))
			center := func(ph float64) float64 { return lo + (hi-lo)*(lfo(ph)+1)/2 }

			l = banks[0].main[k].process(l, v.rate, center(phase), qk, nk)
			l = banks[0].intra[k].process(l, v.rate, center(phase+in), qk, nk)
			r = banks[1].main[k].process(r, v.rate, center(phase+off), qk, nk)
			r = banks[1].intra[k].process(r, v.rate, center(phase+off+in), qk, nk)
		}
		left[i], right[i] = l, r
		phase += dsp.TwoPi * lfoFreq.at(a) * v.dt
	}

	for _, ch := range [][]float64{left, right} {
		if rms := dsp.RMS(ch); rms > 1e-8 {
			g := rmsIn / rms
			for i := range ch {
				ch[i] *= g
			}
		}
	}
	peak := math.Max(dsp.Peak(left), dsp.Peak(right))
	g := 1.0
	if peak > noiseCeiling {
		g = noiseCeiling / peak
	}

	out := v.buffer()
	for i := range left {
		out.L[i] = float32(left[i] * g)
		out.R[i] = float32(right[i] * g)
	}
	return out
}

// sweeps resolves the notch bands. Entries are [min, max] pairs or objects
// with min/max, start_min/start_max and end_min/end_max, plus optional q and
// casc overrides. Missing end entries hold their start values.
func (v *voice) sweeps(q, casc ramp) []sweep {
	starts := v.p.Array("filter_sweeps")
	ends := []params.Value(nil)
	if v.transition {
		if s := v.p.Array("start_filter_sweeps"); len(s) > 0 {
			starts = s
		}
		ends = v.p.Array("end_filter_sweeps")
	}

	count := max(len(starts), len(ends))
	if count == 0 {
		return []sweep{{
			lo:   ramp{defaultSweepMin, defaultSweepMin},
			hi:   ramp{defaultSweepMax, defaultSweepMax},
			q:    q,
			casc: casc,
		}}
	}

	out := make([]sweep, 0, count)
	for k := 0; k < count; k++ {
		s := sweep{
			lo:   ramp{defaultSweepMin, defaultSweepMin},
			hi:   ramp{defaultSweepMax, defaultSweepMax},
			q:    q,
			casc: casc,
		}
		if k < len(starts) {
			s.lo.start, s.hi.start = sweepBounds(starts[k], "start", s.lo.start, s.hi.start)
			s.q = sweepRamp(starts[k], "q", s.q)
			s.casc = sweepRamp(starts[k], "casc", s.casc)
		}
		s.lo.end, s.hi.end = s.lo.start, s.hi.start
		if v.transition && k < len(starts) {
			s.lo.end, s.hi.end = sweepBounds(starts[k], "end", s.lo.end, s.hi.end)
		}
		if k < len(ends) {
			s.lo.end, s.hi.end = sweepBounds(ends[k], "end", s.lo.end, s.hi.end)
		}
		if !v.transition {
			s.q.end, s.casc.end = s.q.start, s.casc.start
		}
		out = append(out, s)
	}
	return out
}

// sweepBounds reads one sweep entry. For objects the prefixed keys take
// precedence over plain min/max.
func sweepBounds(e params.Value, prefix string, lo, hi float64) (float64, float64) {
	if items := e.Items(); len(items) >= 2 {
		if f, ok := items[0].Float(); ok {
			lo = f
		}
		if f, ok := items[1].Float(); ok {
			hi = f
		}
		return lo, hi
	}
	read := func(def float64, keys ...string) float64 {
		for _, k := range keys {
			if x, ok := e.Field(k); ok {
				if f, ok := x.Float(); ok {
					return f
				}
			}
		}
		return def
	}
	if prefix == "end" {
		return read(lo, "end_min", "min"), read(hi, "end_max", "max")
	}
	return read(lo, "start_min", "min"), read(hi, "start_max", "max")
}

// sweepRamp applies a per-sweep q or casc override, either fixed (name) or
// ramping (start_name/end_name).
func sweepRamp(e params.Value, name string, def ramp) ramp {
	num := func(key string) (float64, bool) {
		x, ok := e.Field(key)
		if !ok {
			return 0, false
		}
		return x.Float()
	}
	if f, ok := num(name); ok {
		def = ramp{f, f}
	}
	if f, ok := num("start_" + name); ok {
		def.start = f
		def.end = f
	}
	if f, ok := num("end_" + name); ok {
		def.end = f
	}
	return def
}
