package fm

import "math"

const (
	sineTableBits = 12
	sineTableSize = 1 << sineTableBits
)

var (
	// one extra entry so interpolation never wraps the index
	sineTable [sineTableSize + 1]float64

	levelTable [100]float64 // output level 0..99 to linear amplitude
	rateTable  [100]float64 // envelope rate 0..99 to stage time in seconds
)

func init() {
	for i := range sineTable {
		sineTable[i] = math.Sin(2 * math.Pi * float64(i) / sineTableSize)
	}
	for i := range levelTable {
		levelTable[i] = levelToAmplitude(float64(i))
	}
	for i := range rateTable {
		rateTable[i] = max(41*math.Exp2(-float64(i)*12/99), 0.008)
	}
}

// sine returns sin(2π·phase) for any phase, with linear interpolation
// between table entries.
func sine(phase float64) float64 {
	phase -= math.Floor(phase)
	x := phase * sineTableSize
	i := int(x)
	if i >= sineTableSize { // phase was just below 1 and rounded up
		i = sineTableSize - 1
	}
	f := x - float64(i)
	return sineTable[i] + (sineTable[i+1]-sineTable[i])*f
}

// levelToAmplitude converts an output level (0..99) to linear amplitude. Each
// step is 0.75 dB and level 0 is silence.
func levelToAmplitude(level float64) float64 {
	if level <= 0 {
		return 0
	}
	return math.Pow(10, (min(level, 99)-99)*0.75/20)
}

// NoteFrequency returns the frequency of a MIDI note in Hz, with A4 (69) at
// 440 Hz. Fractional notes are allowed.
func NoteFrequency(note float64) float64 {
	return 440 * math.Exp2((note-69)/12)
}

// RateSeconds returns the time an envelope stage with the given rate (0..99)
// takes to reach its target from the full opposite level.
func RateSeconds(rate int) float64 {
	return rateTable[max(min(rate, 99), 0)]
}

// PortamentoSeconds maps the portamento time parameter (0..99) exponentially
// to 5 ms .. 2.5 s.
func PortamentoSeconds(time int) float64 {
	t := float64(max(min(time, 99), 0))
	return 0.005 * math.Pow(500, t/99)
}

// LFOFrequency maps the LFO rate parameter (0..99) exponentially to
// 0.062 .. 20 Hz.
func LFOFrequency(rate int) float64 {
	r := float64(max(min(rate, 99), 0))
	return 0.062 * math.Pow(20/0.062, r/99)
}

// LFODelaySeconds maps the LFO delay parameter (0..99) linearly to 0 .. 5 s.
func LFODelaySeconds(delay int) float64 {
	return float64(max(min(delay, 99), 0)) / 99 * 5
}

func centsToRatio(cents float64) float64 {
	return math.Exp2(cents / 1200)
}
