package fm

import (
	"math"
	"testing"

	"github.com/opsix/opsix"
)

func triggerAll(ops *[opsix.NumOperators]Operator, note int) {
	p := opsix.DefaultOperatorParams()
	p.Levels = [opsix.NumStages]int{99, 99, 99, 0}
	for i := range ops {
		ops[i].env.reset()
		ops[i].trigger(&p, note, 127, testSampleRate, true)
	}
}

func TestRoutingMarksFeedbackEdges(t *testing.T) {
	var a opsix.Algorithm
	a.Carriers[0] = true
	a.Weights[1][0] = 1   // forward
	a.Weights[2][2] = 0.5 // self loop
	a.Weights[0][3] = 0.5 // backward
	var r routing
	if n := r.load(&a); n != 0 {
		t.Fatalf("a valid algorithm should need no corrections, got %d", n)
	}
	cases := []struct {
		dst, src int
		feedback bool
	}{{0, 1, false}, {2, 2, true}, {3, 0, true}}
	for _, c := range cases {
		found := false
		for _, e := range r.inputs[c.dst][:r.numInputs[c.dst]] {
			if e.src == c.src {
				found = true
				if e.feedback != c.feedback {
					t.Errorf("edge %d->%d: feedback %v, want %v", c.src, c.dst, e.feedback, c.feedback)
				}
			}
		}
		if !found {
			t.Errorf("edge %d->%d missing", c.src, c.dst)
		}
	}
}

func TestRoutingSanitizesCopy(t *testing.T) {
	var a opsix.Algorithm
	a.Weights[1][0] = 3
	var r routing
	if n := r.load(&a); n != 2 {
		t.Fatalf("expected 2 corrections (weight and carrier), got %d", n)
	}
	if !r.carriers[0] || r.algorithm.Weights[1][0] != 1 {
		t.Fatal("loaded algorithm was not repaired")
	}
	if a.Weights[1][0] != 3 || a.Carriers[0] {
		t.Fatal("load should not modify the caller's algorithm")
	}
}

func TestRoutingSumsCarriersOnly(t *testing.T) {
	var a opsix.Algorithm
	a.Carriers[0] = true
	var r routing
	r.load(&a)
	var ops [opsix.NumOperators]Operator
	triggerAll(&ops, 69)
	inc := NoteFrequency(69) / testSampleRate
	for i := 0; i < 100; i++ {
		out := r.process(&ops, inc, 1)
		if math.Abs(out-ops[0].prev) > 1e-12 {
			t.Fatalf("output %v should be carrier 0 alone (%v)", out, ops[0].prev)
		}
	}
}

func TestRoutingForwardEdgeUsesCurrentSample(t *testing.T) {
	var a opsix.Algorithm
	a.Carriers[0] = true
	a.Weights[1][0] = 1
	var r routing
	r.load(&a)
	var ops [opsix.NumOperators]Operator
	triggerAll(&ops, 60)
	inc := NoteFrequency(60) / testSampleRate
	for i := 0; i < 1000; i++ {
		r.process(&ops, inc, 1)
	}
	// replay the carrier with the modulator output of the same sample
	carrier := ops[0]
	out := r.process(&ops, inc, 1)
	want := carrier.process(inc, modulationIndex*ops[1].prev, 1)
	if math.Abs(out-want) > 1e-12 {
		t.Fatalf("carrier output %v, expected %v from the modulator's current sample", out, want)
	}
}

func TestFeedbackStaysBounded(t *testing.T) {
	for _, fb := range []float32{0, 0.25, 0.5, 1} {
		for number := 1; number <= opsix.NumAlgorithms; number++ {
			alg, err := opsix.NewAlgorithm(number, fb)
			if err != nil {
				t.Fatal(err)
			}
			var r routing
			r.load(alg)
			var ops [opsix.NumOperators]Operator
			triggerAll(&ops, 48)
			carriers := 0
			for _, c := range alg.Carriers {
				if c {
					carriers++
				}
			}
			inc := NoteFrequency(48) / testSampleRate
			for i := 0; i < testSampleRate; i++ {
				out := r.process(&ops, inc, 1)
				if math.IsNaN(out) || math.Abs(out) > float64(carriers)+1e-9 {
					t.Fatalf("algorithm %d feedback %v: output %v at sample %d", number, fb, out, i)
				}
			}
		}
	}
}

func TestFullFeedbackLongRun(t *testing.T) {
	var a opsix.Algorithm
	a.Carriers[0] = true
	for i := range a.Weights {
		for j := range a.Weights[i] {
			a.Weights[i][j] = 1
		}
	}
	var r routing
	r.load(&a)
	var ops [opsix.NumOperators]Operator
	triggerAll(&ops, 60)
	inc := NoteFrequency(60) / testSampleRate
	for i := 0; i < 10*testSampleRate; i++ {
		out := r.process(&ops, inc, 1)
		if math.IsNaN(out) || math.IsInf(out, 0) || math.Abs(out) > 1+1e-9 {
			t.Fatalf("output %v at sample %d", out, i)
		}
	}
}

func TestRoutingSounding(t *testing.T) {
	alg, _ := opsix.NewAlgorithm(1, 0)
	var r routing
	r.load(alg)
	var ops [opsix.NumOperators]Operator
	for i := range ops {
		ops[i].env.reset()
	}
	if r.sounding(&ops) {
		t.Fatal("idle operators should not be sounding")
	}
	ops[1].env.trigger() // a modulator
	if r.sounding(&ops) {
		t.Fatal("a modulator alone should not keep the voice sounding")
	}
	ops[2].env.trigger() // carrier of the second stack
	if !r.sounding(&ops) {
		t.Fatal("a triggered carrier should be sounding")
	}
}
