// Package gomidi reads MIDI input with gitlab.com/gomidi/midi and decodes it
// into control events.
package gomidi

import (
	"github.com/opsix/opsix/control"
	"gitlab.com/gomidi/midi/v2"
)

// Decode converts a MIDI message into a control event. ok is false for
// messages that have no event, such as clock or sysex.
func Decode(msg midi.Message) (event any, ok bool) {
	var channel, key, velocity, controller, value, program uint8
	var bend int16
	var absolute uint16
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		return control.NoteEvent{On: velocity > 0, Channel: int(channel), Note: key, Velocity: velocity}, true
	case msg.GetNoteOff(&channel, &key, &velocity):
		return control.NoteEvent{Channel: int(channel), Note: key, Velocity: velocity}, true
	case msg.GetControlChange(&channel, &controller, &value):
		return control.ControlChange{Channel: int(channel), Controller: controller, Value: value}, true
	case msg.GetPitchBend(&channel, &bend, &absolute):
		return control.PitchBend{Channel: int(channel), Value: bend}, true
	case msg.GetProgramChange(&channel, &program):
		return control.ProgramChange{Channel: int(channel), Program: program}, true
	}
	return nil, false
}
