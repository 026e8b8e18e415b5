package recorder_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/opsix/opsix"
	"github.com/opsix/opsix/recorder"
)

func constant(v float32) opsix.AudioSource {
	return func(buffer opsix.AudioBuffer) {
		for i := range buffer {
			buffer[i] = [2]float32{v, -v}
		}
	}
}

func TestRecordsTappedFrames(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	r, err := recorder.New(f, 48000, true, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatal(err)
	}
	source := r.Tap(constant(0.5))
	buffer := make(opsix.AudioBuffer, 256)
	for i := 0; i < 10; i++ {
		source(buffer)
		if buffer[0][0] != 0.5 {
			t.Fatal("tap should pass the audio through")
		}
		if i%3 == 0 {
			if err := r.Flush(); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if r.Frames() != 2560 {
		t.Fatalf("expected 2560 frames, got %d", r.Frames())
	}
	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 44+2560*4 {
		t.Fatalf("unexpected file size %d", len(data))
	}
	if size := binary.LittleEndian.Uint32(data[40:]); size != 2560*4 {
		t.Fatalf("data chunk size in header should be patched, got %d", size)
	}
}

func TestRunFinalizesOnCancel(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	r, err := recorder.New(f, 44100, false, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatal(err)
	}
	r.Tap(constant(0.25))(make(opsix.AudioBuffer, 100))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- r.Run(ctx, time.Millisecond) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if r.Frames() != 100 {
		t.Fatalf("expected 100 frames, got %d", r.Frames())
	}
}

func TestOverflowIsLogged(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var log bytes.Buffer
	r, err := recorder.New(f, 48000, true, slog.New(slog.NewTextHandler(&log, nil)))
	if err != nil {
		t.Fatal(err)
	}
	r.Tap(constant(0))(make(opsix.AudioBuffer, recorder.RingFrames+10))
	if err := r.Flush(); err != nil {
		t.Fatal(err)
	}
	if r.Frames() != recorder.RingFrames {
		t.Fatalf("expected %d frames, got %d", recorder.RingFrames, r.Frames())
	}
	if !strings.Contains(log.String(), "recording lost frames") || !strings.Contains(log.String(), "count=10") {
		t.Fatalf("expected a warning about 10 lost frames, got %q", log.String())
	}
}
