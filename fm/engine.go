// Package fm implements the six-operator FM synthesis engine. The Engine owns
// all voice, LFO and glide state; other goroutines talk to it only by
// enqueueing commands and reading snapshots.
package fm

import (
	"errors"
	"fmt"
	"math"

	"github.com/opsix/opsix"
	"github.com/opsix/opsix/lockfree"
	"github.com/viterin/vek/vek32"
)

const (
	// CommandQueueSize is the number of commands that can be queued between
	// two blocks.
	CommandQueueSize = 1024

	// blockSize is the largest number of frames rendered in one pass;
	// longer buffers are rendered in several passes.
	blockSize = 256

	limiterThreshold = 0.8
	limiterCeiling   = 0.95
)

var ErrSampleRate = errors.New("sample rate must be positive")

// Engine renders audio from the commands it receives. Process is called from
// the audio goroutine; Enqueue from a single control goroutine; Snapshot and
// ReadSnapshot from any goroutine.
type Engine struct {
	sampleRate float64

	params    opsix.GlobalParams
	lfoParams opsix.LFOParams
	opParams  [opsix.NumOperators]opsix.OperatorParams

	lfo     LFO
	voices  VoiceManager
	routing routing

	commands  *lockfree.Ring[opsix.Command]
	snapshots *lockfree.TripleBuffer[opsix.Snapshot]
	apply     func(opsix.Command)

	sequence uint64
	clamped  uint64
	snap     opsix.Snapshot

	mix      [blockSize]float32
	voiceBuf [blockSize]float32
	pitch    [blockSize]float64
	amp      [blockSize]float64
}

// NewEngine creates an engine with the initial voice loaded and the default
// global parameters.
func NewEngine(sampleRate int) (*Engine, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("NewEngine(%d): %w", sampleRate, ErrSampleRate)
	}
	commands, err := lockfree.NewRing[opsix.Command](CommandQueueSize)
	if err != nil {
		return nil, fmt.Errorf("could not create command queue: %w", err)
	}
	e := &Engine{
		sampleRate: float64(sampleRate),
		params:     opsix.DefaultGlobalParams(),
		commands:   commands,
	}
	patch := opsix.InitPatch()
	e.opParams = patch.Operators
	e.lfoParams = patch.LFO
	e.lfo = newLFO(e.lfoParams, e.sampleRate)
	e.voices = newVoiceManager(&e.opParams, e.sampleRate)
	e.voices.SetPortamento(e.params.Portamento, PortamentoSeconds(e.params.PortamentoTime))
	alg, err := opsix.NewAlgorithm(patch.Algorithm, opsix.FeedbackWeight(patch.Feedback))
	if err != nil {
		return nil, fmt.Errorf("could not create initial algorithm: %w", err)
	}
	e.routing.load(alg)
	e.apply = e.applyCommand
	e.fillSnapshot()
	e.snapshots = lockfree.NewTripleBuffer(e.snap)
	return e, nil
}

// Enqueue queues a command for the next block. It never blocks; if the
// queue is full the command is dropped, counted in the snapshots, and false
// is returned. Only one goroutine may enqueue at a time.
func (e *Engine) Enqueue(c opsix.Command) bool {
	return e.commands.Push(c)
}

// Snapshot returns the most recently published engine state.
func (e *Engine) Snapshot() opsix.Snapshot {
	return e.snapshots.Load()
}

// ReadSnapshot copies the most recently published engine state into dst.
func (e *Engine) ReadSnapshot(dst *opsix.Snapshot) {
	e.snapshots.Read(dst)
}

// SampleRate returns the sample rate the engine is currently running at.
func (e *Engine) SampleRate() int {
	return int(e.sampleRate)
}

// Process applies the queued commands and renders len(buffer) frames into
// buffer. sampleRate is the rate of the output device; a change of rate
// takes effect immediately. Process does not allocate, lock or block.
func (e *Engine) Process(buffer opsix.AudioBuffer, sampleRate int) {
	if sampleRate > 0 && float64(sampleRate) != e.sampleRate {
		e.setSampleRate(float64(sampleRate))
	}
	e.commands.Drain(e.apply)
	for len(buffer) > 0 {
		n := min(len(buffer), blockSize)
		e.render(buffer[:n])
		buffer = buffer[n:]
	}
	e.sequence++
	e.fillSnapshot()
	e.snapshots.Publish(&e.snap)
}

func (e *Engine) setSampleRate(sampleRate float64) {
	e.sampleRate = sampleRate
	e.lfo.setParams(e.lfoParams, sampleRate)
	e.voices.setSampleRate(sampleRate)
}

func (e *Engine) render(out opsix.AudioBuffer) {
	n := len(out)
	mix := e.mix[:n]
	buf := e.voiceBuf[:n]
	pitch, amp := e.pitch[:n], e.amp[:n]
	clear(mix)
	baseCents := float64(e.params.MasterTune) + float64(e.params.PitchBend)*float64(e.params.PitchBendRange)*100
	wheel := float64(e.params.ModWheel) / 100
	for i := range pitch {
		cents, ampDelta := e.lfo.advance(wheel)
		pitch[i] = centsToRatio(baseCents + cents)
		amp[i] = 1 - ampDelta
	}
	for i := range e.voices.voices {
		v := &e.voices.voices[i]
		if v.State == opsix.Idle {
			continue
		}
		e.voices.render(v, buf, pitch, amp, &e.routing)
		vek32.Add_Inplace(mix, buf)
		v.energy += float64(vek32.Dot(buf, buf))
		v.frames += n
	}
	vek32.MulNumber_Inplace(mix, e.params.MasterVolume)
	for i, s := range mix {
		s = softLimit(s)
		out[i] = [2]float32{s, s}
	}
}

// softLimit passes samples below the threshold unchanged and bends larger
// ones smoothly towards the ceiling. NaNs become silence.
func softLimit(x float32) float32 {
	if x != x {
		return 0
	}
	a := math.Abs(float64(x))
	if a <= limiterThreshold {
		return x
	}
	const knee = limiterCeiling - limiterThreshold
	y := float32(limiterThreshold + knee*math.Tanh((a-limiterThreshold)/knee))
	if x < 0 {
		return -y
	}
	return y
}

func (e *Engine) applyCommand(c opsix.Command) {
	switch c.Kind {
	case opsix.CmdNoteOn:
		note := e.clampInt(opsix.Range{Min: 0, Max: 127}, c.Note)
		velocity := e.clampInt(opsix.Range{Min: 0, Max: 127}, c.Velocity)
		if velocity == 0 {
			e.voices.Release(note)
			return
		}
		e.voices.Allocate(note, velocity)
		e.lfo.keyOn()
	case opsix.CmdNoteOff:
		e.voices.Release(e.clampInt(opsix.Range{Min: 0, Max: 127}, c.Note))
	case opsix.CmdAllNotesOff:
		e.voices.AllNotesOff()
	case opsix.CmdSetGlobalParam:
		e.count(e.params.Set(opsix.GlobalParamID(c.Param), c.Value))
		switch opsix.GlobalParamID(c.Param) {
		case opsix.ParamMode:
			e.voices.SetMode(e.params.Mode)
		case opsix.ParamSustain:
			e.voices.SetSustain(e.params.Sustain)
		case opsix.ParamPortamento, opsix.ParamPortamentoTime:
			e.voices.SetPortamento(e.params.Portamento, PortamentoSeconds(e.params.PortamentoTime))
		}
	case opsix.CmdSetOperatorParam:
		op := e.clampInt(opsix.Range{Min: 0, Max: opsix.NumOperators - 1}, c.Operator)
		e.count(e.opParams[op].Set(opsix.OperatorParamID(c.Param), c.Value))
		e.voices.UpdateOperator(op)
	case opsix.CmdLoadAlgorithm:
		if c.Algorithm == nil {
			e.clamped++
			return
		}
		e.clamped += uint64(e.routing.load(c.Algorithm))
	case opsix.CmdSetLFOParam:
		e.count(e.lfoParams.Set(opsix.LFOParamID(c.Param), c.Value))
		e.lfo.setParams(e.lfoParams, e.sampleRate)
	default:
		e.clamped++
	}
}

func (e *Engine) clampInt(r opsix.Range, v int) int {
	ret, clamped := r.ClampInt(float32(v))
	e.count(clamped)
	return ret
}

func (e *Engine) count(clamped bool) {
	if clamped {
		e.clamped++
	}
}

func (e *Engine) fillSnapshot() {
	s := &e.snap
	s.Sequence = e.sequence
	s.ActiveVoices = 0
	for i := range e.voices.voices {
		v := &e.voices.voices[i]
		m := &s.Voices[i]
		m.Note, m.State, m.Level = v.Note, v.State, 0
		if v.frames > 0 {
			m.Level = float32(math.Sqrt(v.energy / float64(v.frames)))
		}
		v.energy, v.frames = 0, 0
		if v.State == opsix.Active {
			s.ActiveVoices++
		}
	}
	s.LFOPhase = float32(e.lfo.phase)
	s.LFOValue = float32(e.lfo.value)
	s.Algorithm = e.routing.algorithm.Number
	s.Params = e.params
	s.Dropped = e.commands.Dropped()
	s.Clamped = e.clamped
}
