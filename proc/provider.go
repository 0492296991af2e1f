package proc

import (
	"context"
	"io"
	"sync"
	"time"
)

var (
	// OpusSilence is the canonical Opus silence frame.
	OpusSilence = []byte{0xf8, 0xff, 0xfe}

	// SilenceDuration is the tail of silence appended after a track so
	// the jitter buffer drains cleanly.
	SilenceDuration = 1 * time.Second
)

// StreamProvider feeds Opus frames from the transcoder to the voice
// connection. It implements voice.OpusFrameProvider.
type StreamProvider struct {
	frames        chan []byte
	ctx           context.Context
	done          chan struct{}
	once          sync.Once
	draining      bool
	silenceFrames int
}

func NewStreamProvider(ctx context.Context) *StreamProvider {
	return &StreamProvider{
		frames: make(chan []byte, 100),
		ctx:    ctx,
		done:   make(chan struct{}),
	}
}

// PushFrame hands one encoded frame to the send loop. Blocks when the
// buffer is full, which paces the transcoder to real time.
func (p *StreamProvider) PushFrame(f []byte) {
	select {
	case p.frames <- f:
	case <-p.ctx.Done():
	}
}

// EndOfStream marks the input as exhausted. The send loop pads the tail
// with silence before reporting EOF.
func (p *StreamProvider) EndOfStream() {
	p.PushFrame(nil)
}

func (p *StreamProvider) Close() {
	p.once.Do(func() {
		close(p.done)
	})
}

// WaitDrained blocks until every buffered frame and the silence tail
// have been sent.
func (p *StreamProvider) WaitDrained(ctx context.Context) {
	select {
	case <-p.done:
	case <-ctx.Done():
	}
}

func (p *StreamProvider) ProvideOpusFrame() ([]byte, error) {
	if p.draining {
		target := int(SilenceDuration.Milliseconds() / 20)
		if p.silenceFrames < target {
			p.silenceFrames++
			return OpusSilence, nil
		}
		p.Close()
		return nil, io.EOF
	}

	select {
	case f := <-p.frames:
		if f == nil {
			p.draining = true
			return OpusSilence, nil
		}
		return f, nil
	case <-p.ctx.Done():
		p.Close()
		return nil, io.EOF
	case <-time.After(500 * time.Millisecond):
		return OpusSilence, nil
	}
}
