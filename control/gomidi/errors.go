package gomidi

import "errors"

var (
	// ErrNoInput is returned by Open when no matching input port exists.
	ErrNoInput = errors.New("no MIDI input found")
	// ErrNotCompiled is returned by Open in builds without cgo, where the
	// RtMidi driver is not available.
	ErrNotCompiled = errors.New("MIDI support not compiled in, rebuild with cgo")
)
