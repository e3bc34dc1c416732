// Package device plays audio on the default sound card through PortAudio.
package device

import (
	"context"
	"fmt"

	pa "github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"

	"github.com/satindergrewal/entrain/internal/audio"
)

var log = logrus.WithField("component", "device")

// Reader is a pull source such as the step previewer. Read fills dst and
// returns how many frames were real audio; 0 means the source is done.
type Reader interface {
	Read(dst audio.Stereo) int
}

// Output is a blocking stereo output stream on the default device.
type Output struct {
	stream *pa.Stream
	out    [][]float32
	block  int
	rate   float64
}

// Open initializes PortAudio and opens the default output at rate with the
// given frames per buffer.
func Open(rate float64, block int) (*Output, error) {
	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}
	o := &Output{
		out:   [][]float32{make([]float32, block), make([]float32, block)},
		block: block,
		rate:  rate,
	}
	stream, err := pa.OpenDefaultStream(0, audio.Channels, rate, block, &o.out)
	if err != nil {
		pa.Terminate()
		return nil, fmt.Errorf("open default output: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		pa.Terminate()
		return nil, fmt.Errorf("start output: %w", err)
	}
	o.stream = stream

	entry := log.WithFields(logrus.Fields{"rate": rate, "block": block})
	if d, err := pa.DefaultOutputDevice(); err == nil {
		entry = entry.WithField("device", d.Name)
	}
	entry.Info("Output opened")
	return o, nil
}

// Write plays s, blocking until the last buffer is queued.
func (o *Output) Write(ctx context.Context, s audio.Stereo) error {
	for at := 0; at < s.Len(); at += o.block {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk := s.Slice(at, at+o.block)
		n := copy(o.out[0], chunk.L)
		copy(o.out[1], chunk.R)
		clear(o.out[0][n:])
		clear(o.out[1][n:])
		if err := o.stream.Write(); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}

// Pump pulls blocks from r until it runs dry or ctx ends.
func (o *Output) Pump(ctx context.Context, r Reader) error {
	buf := audio.NewStereo(o.block)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.Read(buf) == 0 {
			return nil
		}
		if err := o.Write(ctx, buf); err != nil {
			return err
		}
	}
}

// PlayFrames plays interleaved PCM frames until the channel closes.
func (o *Output) PlayFrames(ctx context.Context, frames <-chan []int16) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			if err := o.Write(ctx, audio.FromPCM16(f)); err != nil {
				return err
			}
		}
	}
}

// Close stops the stream and releases PortAudio.
func (o *Output) Close() error {
	var first error
	if o.stream != nil {
		if err := o.stream.Stop(); err != nil {
			first = err
		}
		if err := o.stream.Close(); err != nil && first == nil {
			first = err
		}
	}
	if err := pa.Terminate(); err != nil && first == nil {
		first = err
	}
	return first
}
