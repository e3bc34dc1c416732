package audio

import (
	"fmt"
	"math"

	resampler "github.com/tphakala/go-audio-resampler"
)

// Resample converts s from rate src to rate dst with a band-limited
// polyphase resampler. The output is fitted to round(len·dst/src) frames so
// overlays stay aligned to their start offset.
func Resample(s Stereo, src, dst float64) (Stereo, error) {
	if src <= 0 || dst <= 0 || math.Abs(src-dst) < 1e-6 {
		return s, nil
	}
	m := int(math.Round(float64(s.Len()) * dst / src))
	if s.Len() == 0 {
		return NewStereo(m), nil
	}
	l, r, err := resampler.ResampleStereoFloat32(s.L, s.R, src, dst, resampler.QualityHigh)
	if err != nil {
		return Stereo{}, fmt.Errorf("resample %g -> %g Hz: %w", src, dst, err)
	}
	return Stereo{L: l, R: r}.Fit(m), nil
}
