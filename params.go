package opsix

import "fmt"

type (
	// Mode selects between polyphonic and monophonic voice allocation.
	Mode int

	// Waveform is the shape of the global LFO.
	Waveform int

	// Curve is the shape of one side of the operator level scaling: the
	// linear and exponential curves either attenuate (Down) or boost (Up)
	// the level as the note moves away from the breakpoint.
	Curve int

	// GlobalParamID identifies a field of GlobalParams in SetGlobalParam
	// commands.
	GlobalParamID int

	// OperatorParamID identifies a field of OperatorParams in
	// SetOperatorParam commands.
	OperatorParamID int

	// LFOParamID identifies a field of LFOParams in SetLFOParam commands.
	LFOParamID int

	// GlobalParams are the parameters shared by all voices.
	GlobalParams struct {
		MasterTune     float32 `yaml:"mastertune,omitempty"` // cents, -150..150
		Mode           Mode    `yaml:"mode,omitempty"`
		PitchBendRange int     `yaml:"pitchbendrange"` // semitones, 0..12
		Portamento     bool    `yaml:"portamento,omitempty"`
		PortamentoTime int     `yaml:"portamentotime"` // 0..99, roughly 5 ms .. 2.5 s
		MasterVolume   float32 `yaml:"mastervolume"`   // linear gain, 0..1

		// ModWheel scales both LFO depths, in percent.
		ModWheel float32 `yaml:"-"`
		// PitchBend is the normalized bender position, -1..1.
		PitchBend float32 `yaml:"-"`
		// Sustain is the state of the sustain pedal.
		Sustain bool `yaml:"-"`
	}

	// OperatorParams are the sound parameters of one operator. The same
	// parameters are applied to the operator in every voice.
	OperatorParams struct {
		// Ratio is the frequency ratio relative to the note, quantized to
		// 0.5, 1, 2, ..., 31.
		Ratio float32 `yaml:"ratio"`
		// Detune is the fine tuning in cents, -100..100.
		Detune float32 `yaml:"detune,omitempty"`
		// Level is the output level, 0..99. Each step is 0.75 dB.
		Level int `yaml:"level"`
		// VelocitySensitivity is the exponent of the velocity response, 0..7.
		// 0 disables the velocity response.
		VelocitySensitivity int `yaml:"velocity,omitempty"`
		// Breakpoint is the MIDI note where level scaling starts.
		Breakpoint int `yaml:"breakpoint,omitempty"`
		LeftDepth  int   `yaml:"leftdepth,omitempty"`
		RightDepth int   `yaml:"rightdepth,omitempty"`
		LeftCurve  Curve `yaml:"leftcurve,omitempty"`
		RightCurve Curve `yaml:"rightcurve,omitempty"`
		// RateScaling makes envelopes faster above the breakpoint and slower
		// below it, 0..7.
		RateScaling int `yaml:"ratescaling,omitempty"`
		// Rates and Levels are the envelope stages, all 0..99. The third
		// stage is held until the note is released.
		Rates    [NumStages]int `yaml:"rates,flow"`
		Levels   [NumStages]int `yaml:"levels,flow"`
		Disabled bool           `yaml:"disabled,omitempty"`
	}

	// LFOParams are the parameters of the global LFO.
	LFOParams struct {
		Rate       int      `yaml:"rate"`  // 0..99, 0.062 .. 20 Hz
		Delay      int      `yaml:"delay"` // 0..99, 0 .. 5 s
		PitchDepth int      `yaml:"pitchdepth"`
		AmpDepth   int      `yaml:"ampdepth"`
		Waveform   Waveform `yaml:"waveform"`
		KeySync    bool     `yaml:"keysync,omitempty"`
	}
)

const (
	Poly Mode = iota
	Mono
)

const (
	Triangle Waveform = iota
	Sine
	Square
	SawUp
	SawDown
	SampleHold
	NumWaveforms
)

const (
	LinearDown Curve = iota
	ExpDown
	ExpUp
	LinearUp
)

const (
	ParamMasterTune GlobalParamID = iota
	ParamMode
	ParamPitchBendRange
	ParamPortamento
	ParamPortamentoTime
	ParamMasterVolume
	ParamModWheel
	ParamPitchBend
	ParamSustain
	NumGlobalParams
)

const (
	OpRatio OperatorParamID = iota
	OpDetune
	OpLevel
	OpVelocitySensitivity
	OpBreakpoint
	OpLeftDepth
	OpRightDepth
	OpLeftCurve
	OpRightCurve
	OpRateScaling
	OpRate1
	OpRate2
	OpRate3
	OpRate4
	OpEnvLevel1
	OpEnvLevel2
	OpEnvLevel3
	OpEnvLevel4
	OpEnabled
	NumOperatorParams
)

const (
	LFORate LFOParamID = iota
	LFODelay
	LFOPitchDepth
	LFOAmpDepth
	LFOWaveform
	LFOKeySync
	NumLFOParams
)

var (
	levelRange = Range{0, MaxLevel}
	flagRange  = Range{0, 1}

	globalRanges = [NumGlobalParams]Range{
		ParamMasterTune:     {-150, 150},
		ParamMode:           {float32(Poly), float32(Mono)},
		ParamPitchBendRange: {0, 12},
		ParamPortamento:     flagRange,
		ParamPortamentoTime: levelRange,
		ParamMasterVolume:   {0, 1},
		ParamModWheel:       {0, 100},
		ParamPitchBend:      {-1, 1},
		ParamSustain:        flagRange,
	}

	operatorRanges = [NumOperatorParams]Range{
		OpRatio:               {0.5, 31},
		OpDetune:              {-100, 100},
		OpLevel:               levelRange,
		OpVelocitySensitivity: {0, 7},
		OpBreakpoint:          {0, 127},
		OpLeftDepth:           levelRange,
		OpRightDepth:          levelRange,
		OpLeftCurve:           {float32(LinearDown), float32(LinearUp)},
		OpRightCurve:          {float32(LinearDown), float32(LinearUp)},
		OpRateScaling:         {0, 7},
		OpRate1:               levelRange,
		OpRate2:               levelRange,
		OpRate3:               levelRange,
		OpRate4:               levelRange,
		OpEnvLevel1:           levelRange,
		OpEnvLevel2:           levelRange,
		OpEnvLevel3:           levelRange,
		OpEnvLevel4:           levelRange,
		OpEnabled:             flagRange,
	}

	lfoRanges = [NumLFOParams]Range{
		LFORate:       levelRange,
		LFODelay:      levelRange,
		LFOPitchDepth: levelRange,
		LFOAmpDepth:   levelRange,
		LFOWaveform:   {float32(Triangle), float32(SampleHold)},
		LFOKeySync:    flagRange,
	}
)

var (
	modeNames     = [...]string{"poly", "mono"}
	waveformNames = [...]string{"triangle", "sine", "square", "sawup", "sawdown", "samplehold"}
	curveNames    = [...]string{"-lin", "-exp", "+exp", "+lin"}
)

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
	return waveformNames[w]
}

func (c Curve) String() string {
	if c < 0 || int(c) >= len(curveNames) {
		return fmt.Sprintf("Curve(%d)", int(c))
	}
	return curveNames[c]
}

// Range returns the valid values of the parameter. Unknown ids have an empty
// range at zero.
func (id GlobalParamID) Range() Range {
	if id < 0 || id >= NumGlobalParams {
		return Range{}
	}
	return globalRanges[id]
}

func (id OperatorParamID) Range() Range {
	if id < 0 || id >= NumOperatorParams {
		return Range{}
	}
	return operatorRanges[id]
}

func (id LFOParamID) Range() Range {
	if id < 0 || id >= NumLFOParams {
		return Range{}
	}
	return lfoRanges[id]
}

// DefaultGlobalParams returns the power-on state of the global parameters.
func DefaultGlobalParams() GlobalParams {
	return GlobalParams{
		PitchBendRange: 2,
		PortamentoTime: 50,
		MasterVolume:   0.7,
	}
}

// DefaultOperatorParams returns an audible operator with a plain organ-like
// envelope.
func DefaultOperatorParams() OperatorParams {
	return OperatorParams{
		Ratio:      1,
		Level:      MaxLevel,
		Breakpoint: 60,
		Rates:      [NumStages]int{99, 50, 35, 50},
		Levels:     [NumStages]int{99, 75, 50, 0},
	}
}

func DefaultLFOParams() LFOParams {
	return LFOParams{Rate: 50, PitchDepth: 25, AmpDepth: 15, Waveform: Triangle}
}

// Set assigns the parameter identified by id, clamping the value into its
// range. It returns true if the value was out of range or the id unknown.
func (p *GlobalParams) Set(id GlobalParamID, value float32) (clamped bool) {
	r := id.Range()
	switch id {
	case ParamMasterTune:
		p.MasterTune, clamped = r.Clamp(value)
	case ParamMode:
		var m int
		m, clamped = r.ClampInt(value)
		p.Mode = Mode(m)
	case ParamPitchBendRange:
		p.PitchBendRange, clamped = r.ClampInt(value)
	case ParamPortamento:
		var v int
		v, clamped = r.ClampInt(value)
		p.Portamento = v != 0
	case ParamPortamentoTime:
		p.PortamentoTime, clamped = r.ClampInt(value)
	case ParamMasterVolume:
		p.MasterVolume, clamped = r.Clamp(value)
	case ParamModWheel:
		p.ModWheel, clamped = r.Clamp(value)
	case ParamPitchBend:
		p.PitchBend, clamped = r.Clamp(value)
	case ParamSustain:
		var v int
		v, clamped = r.ClampInt(value)
		p.Sustain = v != 0
	default:
		return true
	}
	return clamped
}

// Set assigns the parameter identified by id, clamping the value into its
// range. Ratios are additionally quantized; quantization alone does not count
// as clamping.
func (p *OperatorParams) Set(id OperatorParamID, value float32) (clamped bool) {
	r := id.Range()
	switch {
	case id == OpRatio:
		var v float32
		v, clamped = r.Clamp(value)
		p.Ratio = QuantizeRatio(v)
	case id == OpDetune:
		p.Detune, clamped = r.Clamp(value)
	case id == OpLevel:
		p.Level, clamped = r.ClampInt(value)
	case id == OpVelocitySensitivity:
		p.VelocitySensitivity, clamped = r.ClampInt(value)
	case id == OpBreakpoint:
		p.Breakpoint, clamped = r.ClampInt(value)
	case id == OpLeftDepth:
		p.LeftDepth, clamped = r.ClampInt(value)
	case id == OpRightDepth:
		p.RightDepth, clamped = r.ClampInt(value)
	case id == OpLeftCurve:
		var c int
		c, clamped = r.ClampInt(value)
		p.LeftCurve = Curve(c)
	case id == OpRightCurve:
		var c int
		c, clamped = r.ClampInt(value)
		p.RightCurve = Curve(c)
	case id == OpRateScaling:
		p.RateScaling, clamped = r.ClampInt(value)
	case id >= OpRate1 && id <= OpRate4:
		p.Rates[id-OpRate1], clamped = r.ClampInt(value)
	case id >= OpEnvLevel1 && id <= OpEnvLevel4:
		p.Levels[id-OpEnvLevel1], clamped = r.ClampInt(value)
	case id == OpEnabled:
		var v int
		v, clamped = r.ClampInt(value)
		p.Disabled = v == 0
	default:
		return true
	}
	return clamped
}

// Get returns the current value of the parameter, in the same units Set
// takes.
func (p *OperatorParams) Get(id OperatorParamID) float32 {
	switch {
	case id == OpRatio:
		return p.Ratio
	case id == OpDetune:
		return p.Detune
	case id == OpLevel:
		return float32(p.Level)
	case id == OpVelocitySensitivity:
		return float32(p.VelocitySensitivity)
	case id == OpBreakpoint:
		return float32(p.Breakpoint)
	case id == OpLeftDepth:
		return float32(p.LeftDepth)
	case id == OpRightDepth:
		return float32(p.RightDepth)
	case id == OpLeftCurve:
		return float32(p.LeftCurve)
	case id == OpRightCurve:
		return float32(p.RightCurve)
	case id == OpRateScaling:
		return float32(p.RateScaling)
	case id >= OpRate1 && id <= OpRate4:
		return float32(p.Rates[id-OpRate1])
	case id >= OpEnvLevel1 && id <= OpEnvLevel4:
		return float32(p.Levels[id-OpEnvLevel1])
	case id == OpEnabled:
		if p.Disabled {
			return 0
		}
		return 1
	}
	return 0
}

func (p *LFOParams) Set(id LFOParamID, value float32) (clamped bool) {
	r := id.Range()
	switch id {
	case LFORate:
		p.Rate, clamped = r.ClampInt(value)
	case LFODelay:
		p.Delay, clamped = r.ClampInt(value)
	case LFOPitchDepth:
		p.PitchDepth, clamped = r.ClampInt(value)
	case LFOAmpDepth:
		p.AmpDepth, clamped = r.ClampInt(value)
	case LFOWaveform:
		var w int
		w, clamped = r.ClampInt(value)
		p.Waveform = Waveform(w)
	case LFOKeySync:
		var v int
		v, clamped = r.ClampInt(value)
		p.KeySync = v != 0
	default:
		return true
	}
	return clamped
}

func (p *LFOParams) Get(id LFOParamID) float32 {
	switch id {
	case LFORate:
		return float32(p.Rate)
	case LFODelay:
		return float32(p.Delay)
	case LFOPitchDepth:
		return float32(p.PitchDepth)
	case LFOAmpDepth:
		return float32(p.AmpDepth)
	case LFOWaveform:
		return float32(p.Waveform)
	case LFOKeySync:
		if p.KeySync {
			return 1
		}
	}
	return 0
}

// QuantizeRatio snaps a frequency ratio to the nearest value in 0.5, 1, 2,
// ..., 31.
func QuantizeRatio(ratio float32) float32 {
	if !(ratio >= 0.75) {
		return 0.5
	}
	if ratio >= 31 {
		return 31
	}
	return float32(int(ratio + 0.5))
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(text []byte) error {
	return unmarshalName(text, modeNames[:], (*int)(m), "mode")
}

func (w Waveform) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

func (w *Waveform) UnmarshalText(text []byte) error {
	return unmarshalName(text, waveformNames[:], (*int)(w), "waveform")
}

func (c Curve) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Curve) UnmarshalText(text []byte) error {
	return unmarshalName(text, curveNames[:], (*int)(c), "curve")
}

func unmarshalName(text []byte, names []string, dst *int, kind string) error {
	s := string(text)
	for i, n := range names {
		if n == s {
			*dst = i
			return nil
		}
	}
	return fmt.Errorf("unknown %s %q", kind, s)
}
