package fm

import "math"

// glideSnap is the distance, in octaves, below which a glide jumps to its
// target. It is a hundredth of a cent.
const glideSnap = 0.01 / 1200

// Glide is the pitch glide of a voice. It moves exponentially towards the
// target in log-frequency, so equal musical intervals take equal time. The
// time constant is a tenth of the glide time, so any glide up to about 190
// semitones is within a cent of the target when the glide time has elapsed.
type Glide struct {
	current float64 // log2 Hz
	target  float64 // log2 Hz
	freq    float64 // Hz, 2^current
	coef    float64
	samples float64 // time constant
	gliding bool
}

// Jump sets the frequency immediately.
func (g *Glide) Jump(freq float64) {
	g.current = math.Log2(freq)
	g.target = g.current
	g.freq = freq
	g.gliding = false
}

// To starts a glide from the current frequency to freq, taking the given
// time.
func (g *Glide) To(freq, seconds, sampleRate float64) {
	g.target = math.Log2(freq)
	samples := seconds * sampleRate / 10
	if samples < 1 || g.freq == 0 {
		g.Jump(freq)
		return
	}
	g.samples = samples
	g.coef = 1 - math.Exp(-1/samples)
	g.gliding = g.current != g.target
}

// Rescale keeps the remaining glide time when the sample rate changes by
// the given factor.
func (g *Glide) Rescale(factor float64) {
	if !g.gliding {
		return
	}
	g.samples *= factor
	g.coef = 1 - math.Exp(-1/max(g.samples, 1))
}

// Frequency returns the current frequency without advancing.
func (g *Glide) Frequency() float64 {
	return g.freq
}

// Gliding reports whether the glide has not yet reached its target.
func (g *Glide) Gliding() bool {
	return g.gliding
}

// Next advances the glide by one sample and returns the new frequency.
func (g *Glide) Next() float64 {
	if !g.gliding {
		return g.freq
	}
	d := g.target - g.current
	if math.Abs(d) < glideSnap {
		g.current = g.target
		g.gliding = false
	} else {
		g.current += d * g.coef
	}
	g.freq = math.Exp2(g.current)
	return g.freq
}
