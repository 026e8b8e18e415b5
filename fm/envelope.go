package fm

import (
	"math"

	"github.com/opsix/opsix"
)

const (
	stageIdle = -1
	// stageRelease is entered on note off, the stage before it is held.
	stageRelease = opsix.NumStages - 1
	stageSustain = stageRelease - 1

	envEpsilon         = 1e-4
	fastReleaseSeconds = 0.005
)

var logInvEpsilon = math.Log(1 / envEpsilon)

// Envelope is a four stage rate/level generator. Each stage approaches its
// target level exponentially; the stage advances once the level is within
// envEpsilon of the target. A release to a nonzero fourth level holds there
// until a fast release ends it.
type Envelope struct {
	stage  int
	level  float64
	target float64
	coef   float64
	// fast is set while a fast release runs; parameter changes do not undo
	// it.
	fast bool

	targets [opsix.NumStages]float64
	coefs   [opsix.NumStages]float64
}

// stageCoef returns the per sample approach coefficient that covers the full
// level range within envEpsilon in the given time.
func stageCoef(seconds, sampleRate float64) float64 {
	samples := seconds * sampleRate
	if samples < 1 {
		return 1
	}
	return 1 - math.Exp(-logInvEpsilon/samples)
}

// configure computes the stage targets and coefficients. velocityGain scales
// all target levels; rateFactor > 1 makes every stage faster.
func (e *Envelope) configure(p *opsix.OperatorParams, velocityGain, rateFactor, sampleRate float64) {
	for s := 0; s < opsix.NumStages; s++ {
		e.targets[s] = float64(p.Levels[s]) / opsix.MaxLevel * velocityGain
		e.coefs[s] = stageCoef(RateSeconds(p.Rates[s])/rateFactor, sampleRate)
	}
	switch {
	case e.stage == stageIdle:
	case e.fast:
		e.coef = stageCoef(fastReleaseSeconds, sampleRate)
	default:
		e.target = e.targets[e.stage]
		e.coef = e.coefs[e.stage]
	}
}

// trigger restarts the envelope from stage 0 at the current level.
func (e *Envelope) trigger() {
	e.enter(0)
}

func (e *Envelope) release() {
	if e.stage == stageIdle {
		return
	}
	e.enter(stageRelease)
}

// fastRelease fades the envelope to silence in a few milliseconds.
func (e *Envelope) fastRelease(sampleRate float64) {
	if e.stage == stageIdle {
		return
	}
	e.stage = stageRelease
	e.fast = true
	e.target = 0
	e.coef = stageCoef(fastReleaseSeconds, sampleRate)
}

func (e *Envelope) reset() {
	e.stage = stageIdle
	e.level = 0
	e.fast = false
}

func (e *Envelope) idle() bool {
	return e.stage == stageIdle
}

func (e *Envelope) enter(stage int) {
	e.stage = stage
	e.fast = false
	e.target = e.targets[stage]
	e.coef = e.coefs[stage]
}

func (e *Envelope) next() float64 {
	if e.stage == stageIdle {
		return 0
	}
	e.level += (e.target - e.level) * e.coef
	if math.Abs(e.target-e.level) < envEpsilon {
		switch e.stage {
		case stageSustain:
		case stageRelease:
			if e.target == 0 {
				e.reset()
			}
		default:
			e.enter(e.stage + 1)
		}
	}
	return e.level
}
