package preset_test

import (
	"errors"
	"math"
	"testing"
	"testing/fstest"

	"github.com/opsix/opsix"
	"github.com/opsix/opsix/fm"
	"github.com/opsix/opsix/preset"
)

func TestBuiltinBank(t *testing.T) {
	b, err := preset.Builtin()
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Presets) < 10 {
		t.Fatalf("expected at least 10 builtin presets, got %d", len(b.Presets))
	}
	names := b.Names()
	if names[0] != "E.PIANO 1" || names[1] != "BASS 1" {
		t.Fatalf("unexpected program order %v", names)
	}
	if i := b.Find("tub bells"); i != 2 {
		t.Fatalf("expected TUB BELLS at program 2, got %d", i)
	}
	if i := b.Find("no such sound"); i != -1 {
		t.Fatalf("expected -1 for a missing preset, got %d", i)
	}
	for _, p := range b.Presets {
		if p.User || p.Directory != "" {
			t.Errorf("%s: builtin preset should be top level and not user, got %+v", p.Patch.Name, p)
		}
	}
}

func TestBuiltinPresetsSound(t *testing.T) {
	b, err := preset.Builtin()
	if err != nil {
		t.Fatal(err)
	}
	for program, name := range b.Names() {
		t.Run(name, func(t *testing.T) {
			e, err := fm.NewEngine(48000)
			if err != nil {
				t.Fatal(err)
			}
			patch, err := b.Patch(program)
			if err != nil {
				t.Fatal(err)
			}
			cmds, err := patch.Commands(nil)
			if err != nil {
				t.Fatal(err)
			}
			cmds = append(cmds, opsix.NoteOn(60, 100))
			for _, c := range cmds {
				if !e.Enqueue(c) {
					t.Fatalf("command %v dropped", c)
				}
			}
			buf := make(opsix.AudioBuffer, 24000)
			e.Process(buf, 48000)
			var peak float64
			for _, f := range buf {
				if math.IsNaN(float64(f[0])) {
					t.Fatal("preset produced NaN")
				}
				peak = max(peak, math.Abs(float64(f[0])))
			}
			if peak < 1e-3 || peak > 0.95 {
				t.Fatalf("expected an audible, limited note, got peak %v", peak)
			}
			if s := e.Snapshot(); s.Clamped != 0 {
				t.Fatalf("preset has %d out of range values", s.Clamped)
			}
		})
	}
}

func TestPatchOutOfRange(t *testing.T) {
	b, err := preset.Builtin()
	if err != nil {
		t.Fatal(err)
	}
	for _, program := range []int{-1, len(b.Presets)} {
		if _, err := b.Patch(program); !errors.Is(err, preset.ErrNoProgram) {
			t.Errorf("program %d: expected ErrNoProgram, got %v", program, err)
		}
	}
}

func TestMarshalParse(t *testing.T) {
	b, err := preset.Builtin()
	if err != nil {
		t.Fatal(err)
	}
	want := b.Presets[b.Find("flute")].Patch
	data, err := preset.Marshal(&want)
	if err != nil {
		t.Fatal(err)
	}
	got, err := preset.Parse(data)
	if err != nil {
		t.Fatalf("could not parse marshaled preset: %v\n%s", err, data)
	}
	if got.Name != want.Name || got.Operators != want.Operators || got.LFO != want.LFO || *got.Global != *want.Global {
		t.Fatalf("round trip changed the patch:\n%s", data)
	}
}

func TestLoadUserPresets(t *testing.T) {
	fsys := fstest.MapFS{
		"presets/pads/02_warm.yml": {Data: []byte(`
algorithm: 32
operators:
  - {ratio: 1.4, level: 90, rates: [50, 50, 50, 50], levels: [99, 99, 99, 0]}
  - {ratio: 2, level: 0, rates: [99, 99, 99, 99], levels: [0, 0, 0, 0]}
  - {ratio: 2, level: 0, rates: [99, 99, 99, 99], levels: [0, 0, 0, 0]}
  - {ratio: 2, level: 0, rates: [99, 99, 99, 99], levels: [0, 0, 0, 0]}
  - {ratio: 2, level: 0, rates: [99, 99, 99, 99], levels: [0, 0, 0, 0]}
  - {ratio: 2, level: 0, rates: [99, 99, 99, 99], levels: [0, 0, 0, 0]}
lfo: {rate: 10, delay: 0, pitchdepth: 0, ampdepth: 0, waveform: square}
`)},
		"presets/readme.txt": {Data: []byte("not a preset")},
	}
	var b preset.Bank
	if err := b.Load(fsys); err != nil {
		t.Fatal(err)
	}
	if len(b.Presets) != 1 {
		t.Fatalf("expected 1 preset, got %d", len(b.Presets))
	}
	p := b.Presets[0]
	if p.Patch.Name != "WARM" || p.Directory != "pads" || !p.User {
		t.Fatalf("unexpected preset %+v", p)
	}
	if p.Patch.Operators[0].Ratio != 1 {
		t.Fatalf("ratio should be quantized to 1, got %v", p.Patch.Operators[0].Ratio)
	}
	if p.Patch.LFO.Waveform != opsix.Square {
		t.Fatalf("expected square LFO, got %v", p.Patch.LFO.Waveform)
	}
}

func TestParseRejectsBadPresets(t *testing.T) {
	cases := map[string]string{
		"unknown field": "algorithm: 1\ncolour: red\n",
		"bad algorithm": "algorithm: 99\n",
		"zero ratio":    "algorithm: 1\n",
		"bad waveform":  "algorithm: 1\nlfo: {waveform: wobble}\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := preset.Parse([]byte(data)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestFilenameToName(t *testing.T) {
	for in, want := range map[string]string{
		"01_e.piano_1.yml": "E.PIANO 1",
		"bass.yaml":        "BASS",
		"2nd_take.yml":     "2ND TAKE",
	} {
		if got := preset.FilenameToName(in); got != want {
			t.Errorf("%q: got %q, want %q", in, got, want)
		}
	}
}
