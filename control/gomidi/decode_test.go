package gomidi_test

import (
	"testing"

	"github.com/opsix/opsix/control"
	"github.com/opsix/opsix/control/gomidi"
	"gitlab.com/gomidi/midi/v2"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		name string
		msg  midi.Message
		want any
	}{
		{"note on", midi.NoteOn(2, 60, 100), control.NoteEvent{On: true, Channel: 2, Note: 60, Velocity: 100}},
		{"note on zero velocity", midi.NoteOn(0, 61, 0), control.NoteEvent{Channel: 0, Note: 61}},
		{"note off", midi.NoteOffVelocity(1, 62, 40), control.NoteEvent{Channel: 1, Note: 62, Velocity: 40}},
		{"control change", midi.ControlChange(0, 64, 127), control.ControlChange{Controller: 64, Value: 127}},
		{"pitch bend", midi.Pitchbend(3, -4096), control.PitchBend{Channel: 3, Value: -4096}},
		{"program change", midi.ProgramChange(0, 12), control.ProgramChange{Program: 12}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := gomidi.Decode(c.msg)
			if !ok {
				t.Fatalf("could not decode %v", c.msg)
			}
			if got != c.want {
				t.Fatalf("got %#v, want %#v", got, c.want)
			}
		})
	}
}

func TestDecodeIgnoresSystemMessages(t *testing.T) {
	if ev, ok := gomidi.Decode(midi.TimingClock()); ok {
		t.Fatalf("timing clock should not decode, got %v", ev)
	}
}
