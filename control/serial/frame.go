// Package serial connects a microcontroller control surface over a serial
// port. The surface sends framed knob, key and switch messages and receives
// level frames for its LEDs.
package serial

import (
	"github.com/opsix/opsix/control"
)

// Frames on the wire:
//
//	[SOF0][SOF1][LEN][CMD][payload...][CKS]
//
// LEN counts CMD and the payload. CKS is the XOR of LEN, CMD and the payload.
const (
	SOF0 = 0xAA
	SOF1 = 0x55

	CmdKnob   = 0x20 // knob index, value 0..127
	CmdKey    = 0x21 // note, velocity (0 = release)
	CmdSwitch = 0x22 // switch index, state (0 = off)
	CmdLevels = 0x30 // one byte per voice, 0..255, sent to the surface

	maxPayload = 64
)

// Switches of the surface.
const (
	SwitchSustain = 0
	SwitchPanic   = 1
	SwitchMono    = 2
)

// DefaultKnobs maps the knobs of the surface to MIDI controllers.
var DefaultKnobs = []byte{control.CCModWheel, control.CCPortamentoTime, control.CCVolume}

// Encode builds the on-wire representation of a frame.
func Encode(cmd byte, payload []byte) []byte {
	length := byte(len(payload) + 1)
	cks := length ^ cmd
	for _, b := range payload {
		cks ^= b
	}
	out := make([]byte, 0, len(payload)+5)
	out = append(out, SOF0, SOF1, length, cmd)
	out = append(out, payload...)
	return append(out, cks)
}

type (
	// Decoder reassembles frames from a byte stream and converts them into
	// control events. Bytes before a start of frame are skipped, so the
	// decoder resynchronizes after noise or a lost byte.
	Decoder struct {
		// Knobs maps knob indices to controller numbers; knobs beyond it are
		// ignored.
		Knobs []byte
		// Channel is put in the generated events.
		Channel int

		state   decoderState
		length  byte
		cmd     byte
		payload [maxPayload]byte
		n       int
		cks     byte

		// Errors counts the frames dropped for a bad length or checksum.
		Errors int
	}

	decoderState int
)

const (
	waitSOF0 decoderState = iota
	waitSOF1
	waitLength
	waitCmd
	waitPayload
	waitChecksum
)

func NewDecoder() *Decoder {
	return &Decoder{Knobs: DefaultKnobs}
}

// Feed decodes the bytes in data, calling emit for every event completed.
func (d *Decoder) Feed(data []byte, emit func(event any)) {
	for _, b := range data {
		switch d.state {
		case waitSOF0:
			if b == SOF0 {
				d.state = waitSOF1
			}
		case waitSOF1:
			switch b {
			case SOF1:
				d.state = waitLength
			case SOF0:
			default:
				d.state = waitSOF0
			}
		case waitLength:
			if b == 0 || int(b)-1 > maxPayload {
				d.Errors++
				d.state = waitSOF0
				continue
			}
			d.length, d.cks = b, b
			d.state = waitCmd
		case waitCmd:
			d.cmd = b
			d.cks ^= b
			d.n = 0
			d.state = waitPayload
			if d.length == 1 {
				d.state = waitChecksum
			}
		case waitPayload:
			d.payload[d.n] = b
			d.n++
			d.cks ^= b
			if d.n == int(d.length)-1 {
				d.state = waitChecksum
			}
		case waitChecksum:
			d.state = waitSOF0
			if b != d.cks {
				d.Errors++
				continue
			}
			if event, ok := d.event(); ok {
				emit(event)
			}
		}
	}
}

func (d *Decoder) event() (any, bool) {
	p := d.payload[:d.n]
	if len(p) < 2 {
		return nil, false
	}
	switch d.cmd {
	case CmdKnob:
		if int(p[0]) >= len(d.Knobs) {
			return nil, false
		}
		return control.ControlChange{Channel: d.Channel, Controller: d.Knobs[p[0]], Value: min(p[1], 127)}, true
	case CmdKey:
		return control.NoteEvent{On: p[1] > 0, Channel: d.Channel, Note: min(p[0], 127), Velocity: min(p[1], 127)}, true
	case CmdSwitch:
		on := byte(0)
		if p[1] != 0 {
			on = 127
		}
		switch p[0] {
		case SwitchSustain:
			return control.ControlChange{Channel: d.Channel, Controller: control.CCSustain, Value: on}, true
		case SwitchPanic:
			if on == 0 {
				return nil, false
			}
			return control.Panic{}, true
		case SwitchMono:
			if on == 0 {
				return control.ControlChange{Channel: d.Channel, Controller: control.CCPolyOn}, true
			}
			return control.ControlChange{Channel: d.Channel, Controller: control.CCMonoOn}, true
		}
	}
	return nil, false
}
