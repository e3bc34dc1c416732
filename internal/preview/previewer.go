// Package preview renders a single step in the background and plays it back
// looped to a fixed preview length.
package preview

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/satindergrewal/entrain/internal/audio"
	"github.com/satindergrewal/entrain/internal/track"
)

// handoff carries a finished render to the read path. The render goroutine
// gives up the buffer once it is sent.
type handoff struct {
	job string
	buf audio.Stereo
}

// Previewer keeps at most one render in flight. Request cancels the previous
// render; Read, the realtime path, picks up finished buffers at block start.
type Previewer struct {
	asm      *track.Assembler
	rate     float64
	duration float64
	ready    chan handoff
	log      *logrus.Entry

	mu     sync.Mutex // guards cancel, job and sends on ready
	cancel context.CancelFunc
	job    string

	playing atomic.Bool
	seek    atomic.Int64 // pending seek in frames, -1 when none
	pos     atomic.Int64
	length  atomic.Int64

	// Owned by the Read caller.
	buf    audio.Stereo
	cursor int
}

// New returns a previewer that renders at rate and plays duration seconds.
func New(asm *track.Assembler, rate, duration float64) *Previewer {
	p := &Previewer{
		asm:      asm,
		rate:     rate,
		duration: duration,
		ready:    make(chan handoff, 1),
		log:      logrus.WithField("component", "preview"),
	}
	p.seek.Store(-1)
	return p
}

// Request starts rendering step and returns the job ID. Any render still in
// flight is cancelled and its result discarded.
func (p *Previewer) Request(ctx context.Context, step track.Step) string {
	job := uuid.NewString()
	rctx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = cancel
	p.job = job
	p.mu.Unlock()

	entry := p.log.WithFields(logrus.Fields{"job": job, "voices": len(step.Voices)})
	entry.Debug("Preview requested")

	go func() {
		started := time.Now()
		buf, err := p.render(rctx, step)
		if err != nil {
			entry.WithError(err).Debug("Preview render abandoned")
			return
		}
		if !p.deliver(handoff{job: job, buf: buf}) {
			return
		}
		entry.WithField("elapsed", time.Since(started).Round(time.Millisecond).String()).Info("Preview ready")
	}()
	return job
}

// deliver hands h to the read path if its job is still current, replacing
// any result nobody has read yet. Senders hold mu, so the send never blocks.
func (p *Previewer) deliver(h handoff) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.job != h.job {
		return false
	}
	select {
	case <-p.ready:
	default:
	}
	p.ready <- h
	return true
}

func (p *Previewer) current(job string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.job == job
}

// render produces the preview buffer: the step rendered once and repeated to
// fill the preview length.
func (p *Previewer) render(ctx context.Context, step track.Step) (audio.Stereo, error) {
	one, err := p.asm.RenderStep(ctx, step, p.rate)
	if err != nil {
		return audio.Stereo{}, err
	}
	total := int(math.Round(p.duration * p.rate))
	out := audio.NewStereo(total)
	if one.Len() == 0 {
		return out, nil
	}
	for at := 0; at < total; at += one.Len() {
		if err := ctx.Err(); err != nil {
			return audio.Stereo{}, err
		}
		out.Mix(one, at)
	}
	return out, nil
}

// Read fills dst with preview audio and returns the frames taken from the
// preview. The rest of dst is silence. Read never blocks.
func (p *Previewer) Read(dst audio.Stereo) int {
	select {
	case h := <-p.ready:
		if p.current(h.job) {
			p.buf, p.cursor = h.buf, 0
			p.length.Store(int64(h.buf.Len()))
		}
	default:
	}
	if s := p.seek.Swap(-1); s >= 0 {
		p.cursor = min(int(s), p.buf.Len())
	}

	n := 0
	if p.playing.Load() {
		src := p.buf.Slice(p.cursor, p.cursor+dst.Len())
		n = src.Len()
		copy(dst.L, src.L)
		copy(dst.R, src.R)
		p.cursor += n
		if p.cursor >= p.buf.Len() && p.buf.Len() > 0 {
			p.playing.Store(false)
		}
	}
	clear(dst.L[n:])
	clear(dst.R[n:])
	p.pos.Store(int64(p.cursor))
	return n
}

func (p *Previewer) Play() { p.playing.Store(true) }

func (p *Previewer) Pause() { p.playing.Store(false) }

// Stop pauses and rewinds.
func (p *Previewer) Stop() {
	p.playing.Store(false)
	p.seek.Store(0)
}

// Seek moves playback to seconds, taking effect at the next Read.
func (p *Previewer) Seek(seconds float64) {
	p.seek.Store(int64(math.Max(0, seconds) * p.rate))
}

func (p *Previewer) Playing() bool { return p.playing.Load() }

// Position reports the playback position.
func (p *Previewer) Position() time.Duration { return p.frames(p.pos.Load()) }

// Length reports the length of the loaded preview.
func (p *Previewer) Length() time.Duration { return p.frames(p.length.Load()) }

func (p *Previewer) frames(n int64) time.Duration {
	return time.Duration(float64(n) / p.rate * float64(time.Second))
}

// Close cancels any render in flight.
func (p *Previewer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.job = ""
}
