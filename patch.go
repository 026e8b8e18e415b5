package opsix

import (
	"errors"
	"fmt"
)

type (
	// Patch is a complete sound: an algorithm, six operators and the LFO.
	Patch struct {
		Name      string `yaml:",omitempty"`
		Comment   string `yaml:",omitempty"`
		Algorithm int    // library algorithm number, 1..NumAlgorithms
		Feedback  int    `yaml:",omitempty"` // 0..7
		Operators [NumOperators]OperatorParams
		LFO       LFOParams
		// Global optionally overrides the performance parameters. The
		// controller positions (mod wheel, bender, sustain) are never part
		// of a patch.
		Global *GlobalParams `yaml:",omitempty"`
	}
)

var ErrNoPatch = errors.New("no patch")

// InitPatch returns the initial voice: algorithm 1 with only operator 1
// audible.
func InitPatch() Patch {
	p := Patch{Name: "INIT VOICE", Algorithm: 1, LFO: DefaultLFOParams()}
	for i := range p.Operators {
		op := DefaultOperatorParams()
		op.Rates = [NumStages]int{95, 25, 25, 67}
		op.Levels = [NumStages]int{99, 75, 0, 0}
		if i > 0 {
			op.Level = 0
		}
		p.Operators[i] = op
	}
	return p
}

// Validate checks that the patch can be converted into commands. Out-of-range
// parameter values are not errors, the engine clamps them.
func (p *Patch) Validate() error {
	if p.Algorithm < 1 || p.Algorithm > NumAlgorithms {
		return fmt.Errorf("patch %q: algorithm %d out of range 1..%d", p.Name, p.Algorithm, NumAlgorithms)
	}
	for i, op := range p.Operators {
		if op.Ratio == 0 {
			return fmt.Errorf("patch %q: operator %d has no ratio", p.Name, i+1)
		}
	}
	return nil
}

// Commands appends to cmds the commands that load the patch into an engine,
// and returns the extended slice. The sequence does not include AllNotesOff;
// sounding notes continue with the new parameters.
func (p *Patch) Commands(cmds []Command) ([]Command, error) {
	if p == nil {
		return cmds, ErrNoPatch
	}
	if err := p.Validate(); err != nil {
		return cmds, err
	}
	alg, err := NewAlgorithm(p.Algorithm, FeedbackWeight(p.Feedback))
	if err != nil {
		return cmds, fmt.Errorf("patch %q: %w", p.Name, err)
	}
	cmds = append(cmds, LoadAlgorithm(alg))
	for i := range p.Operators {
		op := &p.Operators[i]
		for id := OperatorParamID(0); id < NumOperatorParams; id++ {
			cmds = append(cmds, SetOperatorParam(i, id, op.Get(id)))
		}
	}
	for id := LFOParamID(0); id < NumLFOParams; id++ {
		cmds = append(cmds, SetLFOParam(id, p.LFO.Get(id)))
	}
	if g := p.Global; g != nil {
		cmds = append(cmds,
			SetGlobalParam(ParamMasterTune, g.MasterTune),
			SetGlobalParam(ParamMode, float32(g.Mode)),
			SetGlobalParam(ParamPitchBendRange, float32(g.PitchBendRange)),
			SetGlobalParam(ParamPortamento, boolToFloat(g.Portamento)),
			SetGlobalParam(ParamPortamentoTime, float32(g.PortamentoTime)),
			SetGlobalParam(ParamMasterVolume, g.MasterVolume),
		)
	}
	return cmds, nil
}

func boolToFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
