// Package recorder writes the audio going to the output device into a .wav
// file. The audio goroutine only pushes frames into a lock-free ring; a
// separate goroutine drains the ring into the file.
package recorder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/opsix/opsix"
	"github.com/opsix/opsix/lockfree"
)

// RingFrames is the number of frames the ring holds, about 2.7 s at 48 kHz.
const RingFrames = 1 << 17

type Recorder struct {
	ring    *lockfree.Ring[[2]float32]
	wav     *opsix.WavWriter
	buffer  opsix.AudioBuffer
	logger  *slog.Logger
	dropped uint64
}

func New(w io.WriteSeeker, sampleRate int, pcm16 bool, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ring, err := lockfree.NewRing[[2]float32](RingFrames)
	if err != nil {
		return nil, err
	}
	wav, err := opsix.NewWavWriter(w, sampleRate, pcm16)
	if err != nil {
		return nil, fmt.Errorf("could not start recording: %w", err)
	}
	return &Recorder{
		ring:   ring,
		wav:    wav,
		buffer: make(opsix.AudioBuffer, 0, RingFrames),
		logger: logger,
	}, nil
}

// Tap returns a source that renders source and copies every frame it
// produces to the recorder. Frames that do not fit in the ring are lost.
func (r *Recorder) Tap(source opsix.AudioSource) opsix.AudioSource {
	return func(buffer opsix.AudioBuffer) {
		source(buffer)
		for _, frame := range buffer {
			r.ring.Push(frame)
		}
	}
}

// Flush writes the frames queued so far to the file.
func (r *Recorder) Flush() error {
	r.buffer = r.buffer[:0]
	r.ring.Drain(func(frame [2]float32) {
		r.buffer = append(r.buffer, frame)
	})
	if d := r.ring.Dropped(); d > r.dropped {
		r.logger.Warn("recording lost frames", "count", d-r.dropped, "total", d)
		r.dropped = d
	}
	if len(r.buffer) == 0 {
		return nil
	}
	return r.wav.Write(r.buffer)
}

// Frames returns the number of frames written to the file.
func (r *Recorder) Frames() int {
	return r.wav.Frames()
}

// Run flushes the ring every interval until ctx is done, then writes the
// remaining frames and finalizes the file header.
func (r *Recorder) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return r.Close()
		case <-ticker.C:
			if err := r.Flush(); err != nil {
				return err
			}
		}
	}
}

// Close flushes the ring and finalizes the file. It does not close the
// underlying writer.
func (r *Recorder) Close() error {
	if err := r.Flush(); err != nil {
		return err
	}
	if err := r.wav.Close(); err != nil {
		return err
	}
	r.logger.Info("recording finished", "frames", r.wav.Frames())
	return nil
}
