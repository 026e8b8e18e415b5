// Package opsix holds the data model of a six-operator FM synthesizer: the
// commands that control it, its parameters, the algorithms routing its
// operators and the snapshots it publishes. The synthesis itself lives in the
// fm package; this package has no audio-rate code.
package opsix

const (
	// MaxVoices is the hard polyphony limit of the engine.
	MaxVoices = 16
	// NumOperators is the number of operators in each voice.
	NumOperators = 6
	// NumStages is the number of rate/level stages in an operator envelope.
	NumStages = 4
	// MaxLevel is the maximum value of all 0..99 style parameters.
	MaxLevel = 99
)

type (
	// Range is an inclusive range of valid values of a parameter.
	Range struct {
		Min, Max float32
	}
)

// Clamp limits value into the range. The returned bool is true if the value
// had to be changed, which happens for NaNs too: those are mapped to Min.
func (r Range) Clamp(value float32) (float32, bool) {
	if !(value >= r.Min) {
		return r.Min, true
	}
	if value > r.Max {
		return r.Max, true
	}
	return value, false
}

// ClampInt is like Clamp but rounds the clamped value to the nearest integer.
func (r Range) ClampInt(value float32) (int, bool) {
	v, clamped := r.Clamp(value)
	if v >= 0 {
		return int(v + 0.5), clamped
	}
	return int(v - 0.5), clamped
}
