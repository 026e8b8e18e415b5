// Package oto plays audio sources through github.com/ebitengine/oto.
package oto

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/opsix/opsix"
)

type (
	// Context is an opsix.AudioContext on the default audio device. Only
	// one context can exist in a process.
	Context struct {
		ctx        *oto.Context
		sampleRate int
	}

	// Output is a running playback.
	Output struct {
		player    *oto.Player
		reader    *sourceReader
		closeOnce sync.Once
		done      chan struct{}
	}

	// sourceReader is the io.Reader oto pulls bytes from. Each Read renders
	// whole frames from the source and keeps any bytes oto did not take for
	// the next Read.
	sourceReader struct {
		source  opsix.AudioSource
		buffer  opsix.AudioBuffer
		bytes   []byte
		pending []byte
	}
)

var errContextCreated = errors.New("an oto context already exists")

var (
	contextMu      sync.Mutex
	contextCreated bool
)

// NewContext opens the default audio device. bufferSize is the latency of the
// device buffer; zero picks the platform default.
func NewContext(sampleRate int, bufferSize time.Duration) (*Context, error) {
	contextMu.Lock()
	defer contextMu.Unlock()
	if contextCreated {
		return nil, errContextCreated
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	contextCreated = true
	return &Context{ctx: ctx, sampleRate: sampleRate}, nil
}

func (c *Context) SampleRate() int {
	return c.sampleRate
}

// Play starts pulling audio from source. The source is called from the
// audio goroutine of oto.
func (c *Context) Play(source opsix.AudioSource) (opsix.CloserWaiter, error) {
	if err := c.ctx.Err(); err != nil {
		return nil, fmt.Errorf("oto context failed: %w", err)
	}
	r := &sourceReader{source: source}
	o := &Output{player: c.ctx.NewPlayer(r), reader: r, done: make(chan struct{})}
	o.player.Play()
	return o, nil
}

// Close suspends the device. oto contexts cannot be destroyed, so a closed
// Context can not be reopened with NewContext.
func (c *Context) Close() error {
	if err := c.ctx.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

func (o *Output) Close() (err error) {
	o.closeOnce.Do(func() {
		if e := o.player.Close(); e != nil {
			err = fmt.Errorf("cannot close oto player: %w", e)
		}
		close(o.done)
	})
	return err
}

// Wait blocks until the output is closed.
func (o *Output) Wait() {
	<-o.done
}

func (r *sourceReader) Read(p []byte) (int, error) {
	if len(r.pending) == 0 {
		frames := max(len(p)/bytesPerFrame, 1)
		if cap(r.buffer) < frames {
			r.buffer = make(opsix.AudioBuffer, frames)
		}
		r.buffer = r.buffer[:frames]
		r.source(r.buffer)
		r.bytes = appendFloat32LE(r.bytes[:0], r.buffer)
		r.pending = r.bytes
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}
