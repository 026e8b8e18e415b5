package opsix

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

// seekBuffer is an in-memory io.WriteSeeker.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if end := b.pos + len(p); end > len(b.data) {
		b.data = append(b.data, make([]byte, end-len(b.data))...)
	}
	copy(b.data[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		b.pos = int(offset)
	case io.SeekCurrent:
		b.pos += int(offset)
	case io.SeekEnd:
		b.pos = len(b.data) + int(offset)
	}
	return int64(b.pos), nil
}

func TestWavWriterPCM16(t *testing.T) {
	var out seekBuffer
	w, err := NewWavWriter(&out, 44100, true)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := w.Write(AudioBuffer{{0.5, -0.5}, {2, -2}}); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if w.Frames() != 6 {
		t.Fatalf("expected 6 frames, got %d", w.Frames())
	}
	const headerSize = 44
	if len(out.data) != headerSize+6*2*2 {
		t.Fatalf("unexpected file size %d", len(out.data))
	}
	if !bytes.Equal(out.data[:4], []byte("RIFF")) || !bytes.Equal(out.data[8:12], []byte("WAVE")) {
		t.Fatalf("bad header %q", out.data[:12])
	}
	if size := binary.LittleEndian.Uint32(out.data[4:]); size != 36+24 {
		t.Errorf("RIFF chunk size %d, want %d", size, 36+24)
	}
	if size := binary.LittleEndian.Uint32(out.data[40:]); size != 24 {
		t.Errorf("data chunk size %d, want 24", size)
	}
	if rate := binary.LittleEndian.Uint32(out.data[24:]); rate != 44100 {
		t.Errorf("sample rate %d, want 44100", rate)
	}
	samples := make([]int16, 12)
	binary.Read(bytes.NewReader(out.data[headerSize:]), binary.LittleEndian, samples)
	if samples[0] != 16383 || samples[1] != -16383 || samples[2] != 32767 || samples[3] != -32768 {
		t.Errorf("unexpected samples %v", samples[:4])
	}
}

func TestWavWriterFloat(t *testing.T) {
	var out seekBuffer
	w, err := NewWavWriter(&out, 48000, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(AudioBuffer{{0.25, -0.75}}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	const headerSize = 58
	if len(out.data) != headerSize+8 {
		t.Fatalf("unexpected file size %d", len(out.data))
	}
	if format := binary.LittleEndian.Uint16(out.data[20:]); format != 3 {
		t.Errorf("expected IEEE float format 3, got %d", format)
	}
	var frame [2]float32
	binary.Read(bytes.NewReader(out.data[headerSize:]), binary.LittleEndian, &frame)
	if frame != [2]float32{0.25, -0.75} {
		t.Errorf("unexpected frame %v", frame)
	}
}
