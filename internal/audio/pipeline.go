package audio

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// StepSource renders the steps of a sequence on demand. Each call renders
// one whole step at the source's sample rate.
type StepSource interface {
	NumSteps() int
	RenderStep(ctx context.Context, i int) (Stereo, error)
}

// PipelineConfig controls block size, looping and skip behaviour.
type PipelineConfig struct {
	SampleRate int
	BlockSize  int // frames per render block, rounded up to whole 20ms frames
	Loop       bool
	SkipFade   int // 20ms frames blended when skipping to the next step
}

// segment records which step a run of block frames came from.
type segment struct {
	at      int // first frame in the block
	step    int
	offset  int // frame offset inside the step
	stepLen int
}

type block struct {
	pcm    []int16 // interleaved
	frames int
	segs   []segment
	last   bool // the source is exhausted after this block
}

// cursor is the render position. Only the goroutine filling a block
// touches it; the playback loop joins that goroutine before moving it.
type cursor struct {
	step   int
	offset int
	buf    Stereo
	loaded bool
}

type rendered struct {
	blk *block
	err error
}

// Pipeline renders steps block by block and emits 20ms PCM frames at real
// time. While one block plays, the next is rendered into the other buffer.
type Pipeline struct {
	src       StepSource
	cfg       PipelineConfig
	frameSize int
	frameCh   chan []int16
	skipCh    chan struct{}
	scratch   [2]Stereo
	next      int
	log       *logrus.Entry

	mu       sync.RWMutex
	step     int
	position time.Duration
	duration time.Duration
}

// NewPipeline creates a pipeline over src.
func NewPipeline(src StepSource, cfg PipelineConfig) *Pipeline {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = SampleRate
	}
	fs := FrameSizeFor(cfg.SampleRate)
	if cfg.BlockSize < fs {
		cfg.BlockSize = fs
	}
	cfg.BlockSize = (cfg.BlockSize + fs - 1) / fs * fs
	return &Pipeline{
		src:       src,
		cfg:       cfg,
		frameSize: fs,
		frameCh:   make(chan []int16, 100),
		skipCh:    make(chan struct{}, 1),
		scratch:   [2]Stereo{NewStereo(cfg.BlockSize), NewStereo(cfg.BlockSize)},
		log:       logrus.WithField("component", "pipeline"),
	}
}

// Frames returns the channel of outgoing interleaved PCM frames (20ms each).
// It is closed when Run returns.
func (p *Pipeline) Frames() <-chan []int16 {
	return p.frameCh
}

// FrameSize returns the per-channel samples in each emitted frame.
func (p *Pipeline) FrameSize() int { return p.frameSize }

// Skip jumps to the start of the next step.
func (p *Pipeline) Skip() {
	select {
	case p.skipCh <- struct{}{}:
	default:
	}
}

// Status returns the playing step and the position within it.
func (p *Pipeline) Status() (step int, position, duration time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.step, p.position, p.duration
}

// Run plays the source until it is exhausted (when not looping) or ctx is
// cancelled.
func (p *Pipeline) Run(ctx context.Context) {
	defer close(p.frameCh)

	if p.src.NumSteps() == 0 {
		p.log.Warn("Nothing to play: no steps")
		return
	}

	ticker := time.NewTicker(FrameDuration)
	defer ticker.Stop()

	cur := &cursor{}
	blk, err := p.fill(ctx, cur)
	if err != nil {
		p.log.WithError(err).Error("Render failed")
		return
	}

	var fadeFrom [][]int16
	for {
		var ahead chan rendered
		if !blk.last {
			ahead = p.renderAhead(ctx, cur)
		}

		res := p.play(ctx, ticker, blk, fadeFrom)
		fadeFrom = nil

		switch {
		case res.cancelled:
			return

		case res.skipped:
			if ahead != nil {
				<-ahead
			}
			p.log.WithField("step", res.step).Info("Step skipped")
			next := res.step + 1
			if next >= p.src.NumSteps() {
				if !p.cfg.Loop {
					return
				}
				next = 0
			}
			*cur = cursor{step: next}
			nb, err := p.fill(ctx, cur)
			if err != nil {
				p.log.WithError(err).Error("Render failed")
				return
			}
			fadeFrom = p.frames(blk)[res.frame:]
			blk = nb

		default:
			if ahead == nil {
				p.log.Info("Playback finished")
				return
			}
			r := <-ahead
			if r.err != nil {
				p.log.WithError(r.err).Error("Render failed")
				return
			}
			blk = r.blk
		}
	}
}

// renderAhead fills the next block on its own goroutine. The result channel
// is buffered so an abandoned render never blocks.
func (p *Pipeline) renderAhead(ctx context.Context, cur *cursor) chan rendered {
	out := make(chan rendered, 1)
	go func() {
		blk, err := p.fill(ctx, cur)
		out <- rendered{blk: blk, err: err}
	}()
	return out
}

// fill renders up to one block starting at cur. A block may span several
// steps; each step is rendered once when the cursor reaches it.
func (p *Pipeline) fill(ctx context.Context, cur *cursor) (*block, error) {
	buf := p.scratch[p.next]
	p.next ^= 1

	n := p.src.NumSteps()
	blk := &block{}
	filled, empty := 0, 0
	for filled < p.cfg.BlockSize {
		if cur.step >= n {
			if !p.cfg.Loop {
				blk.last = true
				break
			}
			cur.step = 0
		}
		if !cur.loaded {
			s, err := p.src.RenderStep(ctx, cur.step)
			if err != nil {
				return nil, err
			}
			cur.buf, cur.offset, cur.loaded = s, 0, true
		}

		rem := cur.buf.Len() - cur.offset
		if rem <= 0 {
			if cur.buf.Len() == 0 {
				empty++
				if empty >= n {
					blk.last = true
					break
				}
			}
			cur.step++
			cur.loaded = false
			continue
		}
		empty = 0

		take := min(rem, p.cfg.BlockSize-filled)
		blk.segs = append(blk.segs, segment{at: filled, step: cur.step, offset: cur.offset, stepLen: cur.buf.Len()})
		copy(buf.L[filled:filled+take], cur.buf.L[cur.offset:])
		copy(buf.R[filled:filled+take], cur.buf.R[cur.offset:])
		cur.offset += take
		filled += take
	}

	if !blk.last && !p.cfg.Loop && cur.step == n-1 && cur.loaded && cur.offset >= cur.buf.Len() {
		blk.last = true
	}
	blk.frames = filled
	blk.pcm = ToPCM16(buf.Slice(0, filled))
	return blk, nil
}

// frames splits a block into 20ms frames, zero-padding the last one.
func (p *Pipeline) frames(blk *block) [][]int16 {
	size := p.frameSize * Channels
	var out [][]int16
	for at := 0; at < len(blk.pcm); at += size {
		end := min(at+size, len(blk.pcm))
		f := blk.pcm[at:end]
		if len(f) < size {
			padded := make([]int16, size)
			copy(padded, f)
			f = padded
		}
		out = append(out, f)
	}
	return out
}

type playResult struct {
	cancelled bool
	skipped   bool
	step      int // step playing when skipped
	frame     int // index of the first unsent frame
}

// play emits the frames of blk. When fadeFrom is set its frames are blended
// out under the head of blk.
func (p *Pipeline) play(ctx context.Context, ticker *time.Ticker, blk *block, fadeFrom [][]int16) playResult {
	frames := p.frames(blk)
	fade := min(p.cfg.SkipFade, len(fadeFrom), len(frames))

	for i, frame := range frames {
		if i < fade {
			frame = CrossfadeFrames(fadeFrom[i], frame, float64(i)/float64(fade))
		}
		step := p.updatePosition(blk, i*p.frameSize)

		select {
		case <-ctx.Done():
			return playResult{cancelled: true}
		case <-p.skipCh:
			return playResult{skipped: true, step: step, frame: i}
		case <-ticker.C:
		}

		select {
		case p.frameCh <- frame:
		case <-ctx.Done():
			return playResult{cancelled: true}
		}
	}
	return playResult{}
}

func (p *Pipeline) updatePosition(blk *block, at int) int {
	if len(blk.segs) == 0 {
		return p.step
	}
	seg := blk.segs[0]
	for _, s := range blk.segs[1:] {
		if s.at > at {
			break
		}
		seg = s
	}
	rate := float64(p.cfg.SampleRate)
	pos := seg.offset + at - seg.at

	p.mu.Lock()
	defer p.mu.Unlock()
	p.step = seg.step
	p.position = time.Duration(float64(pos) / rate * float64(time.Second))
	p.duration = time.Duration(float64(seg.stepLen) / rate * float64(time.Second))
	return seg.step
}
