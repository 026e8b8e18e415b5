package opsix

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// WavWriter streams stereo audio into a .wav file. The header is written
// first with zero length and patched with the final length on Close, so the
// underlying writer must be seekable.
type WavWriter struct {
	w          io.WriteSeeker
	sampleRate int
	pcm16      bool
	frames     int
	buf        bytes.Buffer
}

func NewWavWriter(w io.WriteSeeker, sampleRate int, pcm16 bool) (*WavWriter, error) {
	ret := &WavWriter{w: w, sampleRate: sampleRate, pcm16: pcm16}
	if err := ret.writeHeader(); err != nil {
		return nil, err
	}
	return ret, nil
}

// Write appends the frames in buffer to the file.
func (w *WavWriter) Write(buffer AudioBuffer) error {
	w.buf.Reset()
	var err error
	if w.pcm16 {
		for _, frame := range buffer {
			for _, v := range frame {
				s := int16(clamp(int(v*math.MaxInt16), math.MinInt16, math.MaxInt16))
				if err = binary.Write(&w.buf, binary.LittleEndian, s); err != nil {
					break
				}
			}
		}
	} else {
		err = binary.Write(&w.buf, binary.LittleEndian, [][2]float32(buffer))
	}
	if err != nil {
		return fmt.Errorf("could not binary write data to buffer: %w", err)
	}
	if _, err := w.w.Write(w.buf.Bytes()); err != nil {
		return fmt.Errorf("could not write wav data: %w", err)
	}
	w.frames += len(buffer)
	return nil
}

// Frames returns the number of frames written so far.
func (w *WavWriter) Frames() int {
	return w.frames
}

// Close rewrites the header with the final length. It does not close the
// underlying writer.
func (w *WavWriter) Close() error {
	if _, err := w.w.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("could not seek to wav header: %w", err)
	}
	if err := w.writeHeader(); err != nil {
		return err
	}
	if _, err := w.w.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("could not seek to end of wav: %w", err)
	}
	return nil
}

func (w *WavWriter) writeHeader() error {
	w.buf.Reset()
	wavHeader(w.frames*2, w.sampleRate, w.pcm16, &w.buf)
	if _, err := w.w.Write(w.buf.Bytes()); err != nil {
		return fmt.Errorf("could not write wav header: %w", err)
	}
	return nil
}

// wavHeader writes a wave header for either float32 or int16 .wav file into the
// bytes.buffer. bufferLength is the number of samples (L + R), the file is
// always stereo. If pcm16 = true, then the header is for int16 audio; pcm16 =
// false means the header is for float32 audio.
func wavHeader(bufferLength, sampleRate int, pcm16 bool, buf *bytes.Buffer) {
	// Refer to: http://www-mmsp.ece.mcgill.ca/Documents/AudioFormats/WAVE/WAVE.html
	numChannels := 2
	var bytesPerSample, chunkSize, fmtChunkSize, waveFormat int
	var factChunk bool
	if pcm16 {
		bytesPerSample = 2
		chunkSize = 36 + bytesPerSample*bufferLength
		fmtChunkSize = 16
		waveFormat = 1 // PCM
	} else {
		bytesPerSample = 4
		chunkSize = 50 + bytesPerSample*bufferLength
		fmtChunkSize = 18
		waveFormat = 3 // IEEE float
		factChunk = true
	}
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(chunkSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(fmtChunkSize))
	binary.Write(buf, binary.LittleEndian, uint16(waveFormat))
	binary.Write(buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*numChannels*bytesPerSample)) // avgBytesPerSec
	binary.Write(buf, binary.LittleEndian, uint16(numChannels*bytesPerSample))            // blockAlign
	binary.Write(buf, binary.LittleEndian, uint16(8*bytesPerSample))                      // bits per sample
	if fmtChunkSize > 16 {
		binary.Write(buf, binary.LittleEndian, uint16(0)) // size of extension
	}
	if factChunk {
		buf.WriteString("fact")
		binary.Write(buf, binary.LittleEndian, uint32(4))                        // fact chunk size
		binary.Write(buf, binary.LittleEndian, uint32(bufferLength/numChannels)) // frames per channel
	}
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(bytesPerSample*bufferLength))
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
