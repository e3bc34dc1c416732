package track

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/dsp"
)

// overlay mixes the background and clips into buf, growing it when an
// overlay runs past the end. Files that fail to load are logged and skipped.
func (a *Assembler) overlay(buf audio.Stereo, t *Track) audio.Stereo {
	rate := t.Settings.SampleRate

	if bg := t.BackgroundNoise; bg.FilePath != "" {
		if src, ok := loadOverlay(bg.FilePath, rate); ok {
			gain := bg.Amp
			if len(bg.AmpEnvelope) > 0 {
				gain = 1
				applyEnvelope(src, bg.AmpEnvelope, rate)
			}
			shape(src, gain, bg.Pan, bg.FadeIn, bg.FadeOut, rate)
			buf = place(buf, src, bg.StartTime, rate)
		}
	}

	for _, c := range t.Clips {
		if c.FilePath == "" {
			continue
		}
		src, ok := loadOverlay(c.FilePath, rate)
		if !ok {
			continue
		}
		if c.Duration > 0 {
			src = src.Slice(0, dsp.NumSamples(c.Duration, rate))
		}
		shape(src, c.Amp, c.Pan, c.FadeIn, c.FadeOut, rate)
		buf = place(buf, src, c.Start, rate)
	}
	return buf
}

// loadOverlay reads a WAV file directly and anything else through ffmpeg,
// then converts it to rate.
func loadOverlay(path string, rate float64) (audio.Stereo, bool) {
	entry := log.WithField("path", path)

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		s, src, err := audio.ReadWAV(path)
		if err != nil {
			entry.WithError(err).Warn("Overlay skipped")
			return audio.Stereo{}, false
		}
		out, err := audio.Resample(s, float64(src), rate)
		if err != nil {
			entry.WithError(err).Warn("Overlay skipped")
			return audio.Stereo{}, false
		}
		return out, out.Len() > 0
	}

	s, err := audio.DecodeFile(path, int(math.Round(rate)))
	if err != nil {
		entry.WithError(err).Warn("Overlay skipped")
		return audio.Stereo{}, false
	}
	entry.WithFields(logrus.Fields{"frames": s.Len()}).Debug("Overlay decoded")
	return s, s.Len() > 0
}

// shape applies gain, the pan law and linear fades in place.
func shape(s audio.Stereo, amp, pan, fadeIn, fadeOut, rate float64) {
	gl, gr := dsp.PanGains(pan)
	env := dsp.Linen(s.Len(), rate, fadeIn, fadeOut)
	for i := range env {
		s.L[i] = float32(float64(s.L[i]) * amp * gl * env[i])
		s.R[i] = float32(float64(s.R[i]) * amp * gr * env[i])
	}
}

// applyEnvelope scales s by the piecewise-linear [time, amp] envelope. The
// first and last amplitudes hold outside the envelope's span.
func applyEnvelope(s audio.Stereo, pts []EnvelopePoint, rate float64) {
	k := 0
	for i := 0; i < s.Len(); i++ {
		t := float64(i) / rate
		for k+1 < len(pts) && pts[k+1].Time <= t {
			k++
		}
		g := envelopeAt(pts, k, t)
		s.L[i] *= float32(g)
		s.R[i] *= float32(g)
	}
}

func envelopeAt(pts []EnvelopePoint, k int, t float64) float64 {
	p := pts[k]
	if t <= p.Time || k+1 >= len(pts) {
		return p.Amp
	}
	q := pts[k+1]
	span := q.Time - p.Time
	if span <= 0 {
		return q.Amp
	}
	return dsp.Lerp(p.Amp, q.Amp, (t-p.Time)/span)
}

// place mixes src into buf at start seconds, extending buf if needed.
func place(buf, src audio.Stereo, start, rate float64) audio.Stereo {
	at := int(math.Round(start * rate))
	if end := at + src.Len(); end > buf.Len() {
		buf = buf.Fit(end)
	}
	buf.Mix(src, at)
	return buf
}
