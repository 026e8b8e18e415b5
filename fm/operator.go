package fm

import (
	"math"

	"github.com/opsix/opsix"
)

const (
	// modulationIndex is the phase deviation, in cycles, caused by a
	// modulator at full output.
	modulationIndex = 2.0
	// feedbackIndex is the same for feedback edges.
	feedbackIndex = 0.5

	// velocityCurve scales the velocity sensitivity parameter into the
	// exponent of the velocity response.
	velocityCurve = 0.5
)

// Operator is one oscillator of a voice with its envelope.
type Operator struct {
	env        Envelope
	phase      float64 // cycles, 0..1
	freqFactor float64 // ratio and detune
	gain       float64 // key scaled output level
	prev       float64 // output of the previous sample
	disabled   bool
}

// trigger starts a note on the operator. With restart the operator starts
// from silence and zero phase; otherwise the envelope restarts from its
// current level, for legato and re-struck notes.
func (o *Operator) trigger(p *opsix.OperatorParams, note, velocity int, sampleRate float64, restart bool) {
	if restart {
		o.phase = 0
		o.prev = 0
		o.env.reset()
	}
	o.update(p, note, velocity, sampleRate)
	o.env.trigger()
}

// update recomputes the cached values after a parameter or note change.
func (o *Operator) update(p *opsix.OperatorParams, note, velocity int, sampleRate float64) {
	o.disabled = p.Disabled
	o.freqFactor = float64(opsix.QuantizeRatio(p.Ratio)) * centsToRatio(float64(p.Detune))
	o.gain = levelToAmplitude(scaledLevel(p, note))
	o.env.configure(p, velocityGain(velocity, p.VelocitySensitivity), rateFactor(p, note), sampleRate)
}

func (o *Operator) release() {
	o.env.release()
}

func (o *Operator) fastRelease(sampleRate float64) {
	o.env.fastRelease(sampleRate)
}

// sounding reports whether the operator still produces output.
func (o *Operator) sounding() bool {
	return !o.disabled && !o.env.idle()
}

// process advances the operator by one sample. inc is the phase increment
// of the voice frequency, mod the summed modulation input and amp the
// amplitude modulation (1 for modulators).
func (o *Operator) process(inc, mod, amp float64) float64 {
	o.phase += inc * o.freqFactor
	if o.phase >= 1 {
		o.phase -= math.Floor(o.phase)
	}
	level := o.env.next()
	if o.disabled {
		o.prev = 0
		return 0
	}
	out := sine(o.phase+mod) * level * o.gain * amp
	o.prev = out
	return out
}

// velocityGain is the power-law velocity response, 1 at full velocity.
func velocityGain(velocity, sensitivity int) float64 {
	if sensitivity <= 0 {
		return 1
	}
	v := float64(max(min(velocity, 127), 1)) / 127
	return math.Pow(v, float64(sensitivity)*velocityCurve)
}

// rateFactor speeds up envelopes above the breakpoint and slows them below
// it.
func rateFactor(p *opsix.OperatorParams, note int) float64 {
	if p.RateScaling <= 0 {
		return 1
	}
	d := max(min(float64(note-p.Breakpoint)/24, 0.75), -0.75)
	return 1 + d*float64(p.RateScaling)/7
}

// scaledLevel applies the level scaling curves to the output level of the
// operator.
func scaledLevel(p *opsix.OperatorParams, note int) float64 {
	dist := note - p.Breakpoint
	depth, curve := p.RightDepth, p.RightCurve
	if dist < 0 {
		dist = -dist
		depth, curve = p.LeftDepth, p.LeftCurve
	}
	level := float64(p.Level)
	if depth == 0 || dist == 0 {
		return level
	}
	var amount float64
	switch curve {
	case opsix.LinearDown, opsix.LinearUp:
		amount = min(float64(dist)/48, 1)
	default:
		// 0 at the breakpoint, 1 four octaves away
		amount = min((math.Exp2(float64(dist)/12)-1)/15, 1)
	}
	offset := amount * float64(depth)
	if curve == opsix.LinearDown || curve == opsix.ExpDown {
		offset = -offset
	}
	return max(min(level+offset, opsix.MaxLevel), 0)
}
