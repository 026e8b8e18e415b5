package fm

import (
	"math"

	"github.com/opsix/opsix"
)

// maxVibratoCents is the pitch deviation at full pitch depth and full mod
// wheel.
const maxVibratoCents = 1200

// LFO is the low frequency oscillator shared by all voices.
type LFO struct {
	params     opsix.LFOParams
	sampleRate float64

	phase float64
	inc   float64
	value float64
	hold  float64
	rng   uint32

	pitchDepth float64 // cents
	ampDepth   float64

	// key sync gating
	delay   float64 // samples
	elapsed float64 // samples since the last key on
}

func newLFO(params opsix.LFOParams, sampleRate float64) LFO {
	l := LFO{rng: 0x9e3779b9}
	l.hold = l.random()
	l.setParams(params, sampleRate)
	return l
}

func (l *LFO) setParams(p opsix.LFOParams, sampleRate float64) {
	if l.sampleRate > 0 {
		// the delay keeps its progress in seconds
		l.elapsed *= sampleRate / l.sampleRate
	}
	l.params = p
	l.sampleRate = sampleRate
	l.inc = LFOFrequency(p.Rate) / sampleRate
	l.delay = LFODelaySeconds(p.Delay) * sampleRate
	d := float64(p.PitchDepth) / opsix.MaxLevel
	l.pitchDepth = d * d * maxVibratoCents
	l.ampDepth = float64(p.AmpDepth) / opsix.MaxLevel
}

// keyOn restarts the LFO and its delay if key sync is enabled.
func (l *LFO) keyOn() {
	if !l.params.KeySync {
		return
	}
	l.phase = 0
	l.elapsed = 0
}

// advance returns the pitch deviation in cents and the amplitude reduction
// (0..1) for the current sample and moves to the next one. wheel is the mod
// wheel position, 0..1.
func (l *LFO) advance(wheel float64) (pitchCents, ampDelta float64) {
	l.value = l.wave()
	l.phase += l.inc
	if l.phase >= 1 {
		l.phase -= math.Floor(l.phase)
		l.hold = l.random()
	}
	gate := wheel
	if l.params.KeySync && l.elapsed < l.delay {
		x := l.elapsed / l.delay
		gate *= x * x * (3 - 2*x)
		l.elapsed++
	}
	pitchCents = l.value * l.pitchDepth * gate
	ampDelta = (l.value + 1) * 0.5 * l.ampDepth * gate
	return
}

func (l *LFO) wave() float64 {
	p := l.phase
	switch l.params.Waveform {
	case opsix.Sine:
		return sine(p)
	case opsix.Square:
		if p < 0.5 {
			return 1
		}
		return -1
	case opsix.SawUp:
		return 2*p - 1
	case opsix.SawDown:
		return 1 - 2*p
	case opsix.SampleHold:
		return l.hold
	default:
		if p < 0.5 {
			return 4*p - 1
		}
		return 3 - 4*p
	}
}

// random returns a value in -1..1 from a xorshift generator.
func (l *LFO) random() float64 {
	x := l.rng
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	l.rng = x
	return float64(x)/float64(math.MaxUint32)*2 - 1
}
