package opsix_test

import (
	"errors"
	"testing"

	"github.com/opsix/opsix"
)

func TestInitPatchCommands(t *testing.T) {
	p := opsix.InitPatch()
	if err := p.Validate(); err != nil {
		t.Fatalf("init patch is invalid: %v", err)
	}
	cmds, err := p.Commands(nil)
	if err != nil {
		t.Fatalf("Commands failed: %v", err)
	}
	want := 1 + opsix.NumOperators*int(opsix.NumOperatorParams) + int(opsix.NumLFOParams)
	if len(cmds) != want {
		t.Fatalf("expected %d commands, got %d", want, len(cmds))
	}
	if cmds[0].Kind != opsix.CmdLoadAlgorithm || cmds[0].Algorithm.Number != 1 {
		t.Fatalf("first command should load algorithm 1, got %v", cmds[0])
	}
	var ops [opsix.NumOperators]opsix.OperatorParams
	for _, c := range cmds[1:] {
		if c.Kind == opsix.CmdSetOperatorParam {
			if ops[c.Operator].Set(opsix.OperatorParamID(c.Param), c.Value) {
				t.Errorf("patch command %v needed clamping", c)
			}
		}
	}
	if ops != p.Operators {
		t.Fatalf("replaying the commands gave %+v, want %+v", ops, p.Operators)
	}
}

func TestPatchCommandsWithGlobals(t *testing.T) {
	p := opsix.InitPatch()
	g := opsix.DefaultGlobalParams()
	g.Mode = opsix.Mono
	g.Portamento = true
	p.Global = &g
	cmds, err := p.Commands(nil)
	if err != nil {
		t.Fatal(err)
	}
	var got opsix.GlobalParams
	for _, c := range cmds {
		if c.Kind == opsix.CmdSetGlobalParam {
			got.Set(opsix.GlobalParamID(c.Param), c.Value)
		}
	}
	if got != g {
		t.Fatalf("expected globals %+v, got %+v", g, got)
	}
}

func TestPatchValidate(t *testing.T) {
	p := opsix.InitPatch()
	p.Algorithm = 40
	if err := p.Validate(); err == nil {
		t.Error("algorithm 40 should be rejected")
	}
	p = opsix.InitPatch()
	p.Operators[3].Ratio = 0
	if _, err := p.Commands(nil); err == nil {
		t.Error("an operator without a ratio should be rejected")
	}
	var nilPatch *opsix.Patch
	if _, err := nilPatch.Commands(nil); !errors.Is(err, opsix.ErrNoPatch) {
		t.Errorf("expected ErrNoPatch, got %v", err)
	}
}

func TestCommandString(t *testing.T) {
	cases := map[string]opsix.Command{
		"NoteOn(60, 100)":              opsix.NoteOn(60, 100),
		"NoteOff(61)":                  opsix.NoteOff(61),
		"AllNotesOff":                  opsix.AllNotesOff(),
		"LoadAlgorithm(nil)":           opsix.LoadAlgorithm(nil),
		"SetOperatorParam(op2, 2, 50)": opsix.SetOperatorParam(1, opsix.OpLevel, 50),
	}
	for want, c := range cases {
		if got := c.String(); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}
