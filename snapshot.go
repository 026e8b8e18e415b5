package opsix

type (
	// VoiceState is the lifecycle state of a voice.
	VoiceState uint8

	// VoiceMeter is the metering information of a single voice.
	VoiceMeter struct {
		Note  int
		Level float32 // RMS of the voice output over the last block
		State VoiceState
	}

	// Snapshot is a read-only copy of the engine state, published once per
	// block for displays and telemetry. All fields of a snapshot are from the
	// same block.
	Snapshot struct {
		// Sequence is the number of blocks processed before this snapshot
		// was taken.
		Sequence uint64
		// ActiveVoices is the number of voices in the Active state. Voices
		// fading out in Releasing are not counted.
		ActiveVoices int
		Voices       [MaxVoices]VoiceMeter
		LFOPhase     float32
		LFOValue     float32
		Algorithm    int
		Params       GlobalParams
		// Dropped counts the commands that did not fit in the command queue.
		Dropped uint64
		// Clamped counts the out-of-range values corrected by the engine.
		Clamped uint64
	}
)

const (
	Idle VoiceState = iota
	Active
	Releasing
)

func (s VoiceState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Releasing:
		return "releasing"
	}
	return "unknown"
}

// CountActive counts the voices in the Active state.
func (s *Snapshot) CountActive() int {
	n := 0
	for _, v := range s.Voices {
		if v.State == Active {
			n++
		}
	}
	return n
}
