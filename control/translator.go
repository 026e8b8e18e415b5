package control

import (
	"fmt"

	"github.com/opsix/opsix"
)

type (
	// PatchSource looks up the patch selected by a program change.
	PatchSource interface {
		Patch(program int) (*opsix.Patch, error)
	}

	// Translator converts decoded events into engine commands. It keeps no
	// state other than its configuration, so it can be shared by all sources
	// that feed the same Router.
	Translator struct {
		// Channel is the MIDI channel listened to, or OmniChannel for all of
		// them.
		Channel int
		// Patches resolves program changes; nil ignores them.
		Patches PatchSource
	}
)

const OmniChannel = -1

// Translate appends to cmds the commands for event and returns the extended
// slice. Events that do not map to a command append nothing. opsix.Command
// values are passed through unchanged.
func (t *Translator) Translate(event any, cmds []opsix.Command) ([]opsix.Command, error) {
	switch e := event.(type) {
	case opsix.Command:
		return append(cmds, e), nil
	case NoteEvent:
		if !t.listens(e.Channel) {
			return cmds, nil
		}
		if e.On && e.Velocity > 0 {
			return append(cmds, opsix.NoteOn(int(e.Note), int(e.Velocity))), nil
		}
		return append(cmds, opsix.NoteOff(int(e.Note))), nil
	case PitchBend:
		if !t.listens(e.Channel) {
			return cmds, nil
		}
		return append(cmds, opsix.SetGlobalParam(opsix.ParamPitchBend, bendValue(e.Value))), nil
	case ControlChange:
		if !t.listens(e.Channel) {
			return cmds, nil
		}
		return t.controlChange(e, cmds), nil
	case ProgramChange:
		if !t.listens(e.Channel) || t.Patches == nil {
			return cmds, nil
		}
		patch, err := t.Patches.Patch(int(e.Program))
		if err != nil {
			return cmds, fmt.Errorf("program change %d: %w", e.Program, err)
		}
		return patch.Commands(cmds)
	case Panic:
		return append(cmds,
			opsix.AllNotesOff(),
			opsix.SetGlobalParam(opsix.ParamSustain, 0),
			opsix.SetGlobalParam(opsix.ParamPitchBend, 0),
			opsix.SetGlobalParam(opsix.ParamModWheel, 0),
		), nil
	}
	return cmds, fmt.Errorf("unknown event type %T", event)
}

func (t *Translator) listens(channel int) bool {
	return t.Channel == OmniChannel || t.Channel == channel
}

func (t *Translator) controlChange(e ControlChange, cmds []opsix.Command) []opsix.Command {
	v := float32(e.Value) / 127
	on := float32(0)
	if e.Value >= switchOnThreshold {
		on = 1
	}
	switch e.Controller {
	case CCModWheel:
		return append(cmds, opsix.SetGlobalParam(opsix.ParamModWheel, v*100))
	case CCPortamentoTime:
		return append(cmds, opsix.SetGlobalParam(opsix.ParamPortamentoTime, v*opsix.MaxLevel))
	case CCVolume:
		return append(cmds, opsix.SetGlobalParam(opsix.ParamMasterVolume, v))
	case CCSustain:
		return append(cmds, opsix.SetGlobalParam(opsix.ParamSustain, on))
	case CCPortamento:
		return append(cmds, opsix.SetGlobalParam(opsix.ParamPortamento, on))
	case CCAllSoundOff, CCAllNotesOff:
		return append(cmds, opsix.AllNotesOff())
	case CCResetAll:
		return append(cmds,
			opsix.SetGlobalParam(opsix.ParamSustain, 0),
			opsix.SetGlobalParam(opsix.ParamPitchBend, 0),
			opsix.SetGlobalParam(opsix.ParamModWheel, 0),
		)
	case CCMonoOn:
		return append(cmds, opsix.SetGlobalParam(opsix.ParamMode, float32(opsix.Mono)))
	case CCPolyOn:
		return append(cmds, opsix.SetGlobalParam(opsix.ParamMode, float32(opsix.Poly)))
	}
	return cmds
}

// bendValue maps the 14-bit bend to -1..1, with both extremes reachable.
func bendValue(v int16) float32 {
	if v >= 0 {
		return float32(v) / (pitchBendCenter - 1)
	}
	return float32(v) / pitchBendCenter
}
