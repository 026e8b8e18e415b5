package report_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opsix/opsix"
	"github.com/opsix/opsix/preset"
	"github.com/opsix/opsix/report"
)

func newReporter(t *testing.T) *report.Reporter {
	t.Helper()
	r, err := report.New()
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestAlgorithmSheet(t *testing.T) {
	var buf bytes.Buffer
	if err := newReporter(t).Algorithms(&buf, 7); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		" 1  TWO STACKS\n    carriers    1 3\n    modulation  2>1  4>3  5>4  6>5\n    feedback    6>6 x1.00\n",
		"32  SIX CARRIERS\n    carriers    1 2 3 4 5 6\n    feedback    6>6",
		"35  CHAOS",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("sheet does not contain %q:\n%s", want, out)
		}
	}
}

func TestPatchSheet(t *testing.T) {
	b, err := preset.Builtin()
	if err != nil {
		t.Fatal(err)
	}
	p, err := b.Patch(b.Find("flute"))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := newReporter(t).Patch(&buf, p); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"FLUTE", "algorithm 16", "mode mono", "portamento 25", "LFO sine", "key sync", "\n1*", "\n2 ", "  off\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("sheet does not contain %q:\n%s", want, out)
		}
	}
}

func TestPatchSheetInitVoice(t *testing.T) {
	p := opsix.InitPatch()
	var buf bytes.Buffer
	if err := newReporter(t).Patch(&buf, &p); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "INIT VOICE\nalgorithm 1 \"Two Stacks\"") {
		t.Fatalf("unexpected header:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "mode ") {
		t.Fatal("a patch without global overrides should not print them")
	}
	if err := newReporter(t).Patch(&buf, nil); !errors.Is(err, opsix.ErrNoPatch) {
		t.Fatalf("expected ErrNoPatch, got %v", err)
	}
}

func TestBankSheet(t *testing.T) {
	b := &preset.Bank{Presets: []preset.Preset{
		{Patch: opsix.Patch{Name: "ONE"}},
		{Directory: "pads", User: true, Patch: opsix.Patch{Name: "TWO"}},
	}}
	var buf bytes.Buffer
	if err := newReporter(t).Bank(&buf, b); err != nil {
		t.Fatal(err)
	}
	want := "\n  0  ONE\n  1  TWO  [pads]  (user)"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestCustomTemplates(t *testing.T) {
	dir := t.TempDir()
	tmpl := `{{range .Algorithms}}{{.Number}},{{end}}`
	if err := os.WriteFile(filepath.Join(dir, "algorithms.txt"), []byte(tmpl), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := report.NewFromTemplates(dir)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := r.Algorithms(&buf, 0); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "1,2,3,") || strings.Count(buf.String(), ",") != opsix.NumAlgorithms {
		t.Fatalf("unexpected output %q", buf.String())
	}
	if err := r.Bank(&buf, &preset.Bank{}); err == nil {
		t.Fatal("expected an error for a template the directory does not define")
	}
}
