package control

import (
	"math"
	"time"

	"github.com/opsix/opsix"
	"github.com/viterin/vek/vek32"
)

type (
	// Meter smooths the voice levels of successive snapshots into decibels
	// relative to full scale (0 dB = signal level of +-1).
	//
	// The levels follow the new values with an exponentially decaying
	// average: with time constant Attack when the level rises and Release
	// when it falls. Typical constants for an average level display would be
	// 0.3 seconds for both; for peak display, Attack could be 1.5e-3 and
	// Release 1.5. Min and Max are hard limits in decibels.
	Meter struct {
		Voices  [opsix.MaxVoices]float64 // smoothed level of each voice
		Master  float64                  // smoothed level of all voices together
		Attack  float64                  // seconds
		Release float64                  // seconds
		Min     float64
		Max     float64

		scratch [opsix.MaxVoices]float32
	}
)

// NewMeter returns a Meter for an average level display with all levels at
// the minimum.
func NewMeter() *Meter {
	m := &Meter{Attack: 0.3, Release: 0.3, Min: -60, Max: 0}
	m.Reset()
	return m
}

// Reset sets all levels to the minimum.
func (m *Meter) Reset() {
	for i := range m.Voices {
		m.Voices[i] = m.Min
	}
	m.Master = m.Min
}

// Update moves the levels towards the voice levels of s. elapsed is the time
// since the previous update.
func (m *Meter) Update(s *opsix.Snapshot, elapsed time.Duration) {
	dt := elapsed.Seconds()
	alphaAttack := 1 - math.Exp(-dt/m.Attack)
	alphaRelease := 1 - math.Exp(-dt/m.Release)
	floor := float32(math.Pow(10, m.Min/20))
	var power float64
	for i, v := range s.Voices {
		m.scratch[i] = max(v.Level, floor)
		power += float64(v.Level) * float64(v.Level)
	}
	levels := m.scratch[:]
	vek32.Log10_Inplace(levels)
	vek32.MulNumber_Inplace(levels, 20)
	for i, dB := range levels {
		m.Voices[i] = m.smooth(m.Voices[i], float64(dB), alphaAttack, alphaRelease)
	}
	master := m.Min
	if power > 0 {
		master = 10 * math.Log10(power)
	}
	m.Master = m.smooth(m.Master, master, alphaAttack, alphaRelease)
}

// Loudest returns the index of the loudest voice and its level.
func (m *Meter) Loudest() (int, float64) {
	for i, v := range m.Voices {
		m.scratch[i] = float32(v)
	}
	idx := vek32.ArgMax(m.scratch[:])
	return idx, m.Voices[idx]
}

func (m *Meter) smooth(level, dB, attack, release float64) float64 {
	if math.IsNaN(dB) || dB < m.Min {
		dB = m.Min
	}
	if dB > m.Max {
		dB = m.Max
	}
	a := attack
	if dB < level {
		a = release
	}
	return level + (dB-level)*a
}
