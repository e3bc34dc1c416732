package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrNotWAV is returned when a file lacks a valid RIFF/WAVE header.
var ErrNotWAV = errors.New("not a valid WAV file")

// WriteWAV writes s to path as 16-bit stereo PCM.
func WriteWAV(path string, s Stereo, rate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := EncodeWAV(f, s, rate); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// EncodeWAV writes s as 16-bit stereo PCM to w.
func EncodeWAV(w io.WriteSeeker, s Stereo, rate int) error {
	enc := wav.NewEncoder(w, rate, BitDepth, Channels, 1)
	pcm := ToPCM16(s)
	data := make([]int, len(pcm))
	for i, v := range pcm {
		data[i] = int(v)
	}
	buf := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{SampleRate: rate, NumChannels: Channels},
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

// ReadWAV loads a WAV file as float stereo and reports its sample rate.
// Mono files are duplicated to both channels; extra channels are dropped.
func ReadWAV(path string) (Stereo, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stereo{}, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	s, rate, err := DecodeWAV(f)
	if err != nil {
		return Stereo{}, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	return s, rate, nil
}

// DecodeWAV reads PCM WAV data from r.
func DecodeWAV(r io.ReadSeeker) (Stereo, int, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return Stereo{}, 0, ErrNotWAV
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return Stereo{}, 0, err
	}

	chans := int(d.NumChans)
	if chans < 1 {
		return Stereo{}, 0, ErrNotWAV
	}
	depth := int(d.BitDepth)
	scale := math.Exp2(float64(depth - 1))
	offset := 0.0
	if depth == 8 {
		offset = 128 // 8-bit PCM is unsigned
	}
	sample := func(i int) float32 { return float32((float64(buf.Data[i]) - offset) / scale) }

	n := len(buf.Data) / chans
	out := NewStereo(n)
	for i := 0; i < n; i++ {
		out.L[i] = sample(i * chans)
		if chans > 1 {
			out.R[i] = sample(i*chans + 1)
		} else {
			out.R[i] = out.L[i]
		}
	}
	return out, int(d.SampleRate), nil
}
