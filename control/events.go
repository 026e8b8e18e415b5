// Package control turns input from MIDI devices, serial control surfaces and
// the computer keyboard into engine commands. Input sources send decoded
// events to a Router, which is the only goroutine that enqueues commands into
// the engine.
package control

type (
	// NoteEvent is a key pressed or released on channel 0..15. A NoteOn with
	// zero velocity is decoded as a release.
	NoteEvent struct {
		On       bool
		Channel  int
		Note     byte
		Velocity byte
	}

	// PitchBend is the signed 14-bit pitch wheel position, -8192..8191.
	PitchBend struct {
		Channel int
		Value   int16
	}

	ControlChange struct {
		Channel    int
		Controller byte
		Value      byte
	}

	ProgramChange struct {
		Channel int
		Program byte
	}

	// Panic stops all notes and centers the pitch bend and mod wheel.
	Panic struct{}
)

// Controller numbers understood by the Translator.
const (
	CCModWheel        = 1
	CCPortamentoTime  = 5
	CCVolume          = 7
	CCSustain         = 64
	CCPortamento      = 65
	CCAllSoundOff     = 120
	CCResetAll        = 121
	CCAllNotesOff     = 123
	CCMonoOn          = 126
	CCPolyOn          = 127
	pitchBendCenter   = 8192
	switchOnThreshold = 64
)
