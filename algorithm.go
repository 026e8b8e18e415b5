package opsix

import "fmt"

type (
	// Algorithm routes the six operators of a voice. Weights[src][dst] is the
	// modulation depth from operator src into the phase of operator dst, 0..1.
	// Operators with Carriers set are mixed to the output.
	//
	// Operators are evaluated from 5 down to 0. An edge from a higher to a
	// lower operator uses the current output of the source; all other edges,
	// including self-loops, are feedback and use the output of the previous
	// sample.
	Algorithm struct {
		Number   int
		Name     string
		Weights  [NumOperators][NumOperators]float32
		Carriers [NumOperators]bool
	}

	// algorithmDef describes a library algorithm with 1-based operator
	// numbers, as they are printed on the front panel.
	algorithmDef struct {
		name     string
		carriers []int
		edges    [][2]int // source, destination
		feedback [][2]int // weighted by the feedback amount
	}
)

// NumAlgorithms is the number of algorithms in the library: the 32 classic
// routings followed by a few extended topologies.
const NumAlgorithms = 35

var algorithmDefs = [NumAlgorithms]algorithmDef{
	{"Two Stacks", []int{1, 3}, [][2]int{{2, 1}, {4, 3}, {5, 4}, {6, 5}}, [][2]int{{6, 6}}},
	{"Two Stacks, Op2 Feedback", []int{1, 3}, [][2]int{{2, 1}, {4, 3}, {5, 4}, {6, 5}}, [][2]int{{2, 2}}},
	{"Twin Triples", []int{1, 4}, [][2]int{{2, 1}, {3, 2}, {5, 4}, {6, 5}}, [][2]int{{6, 6}}},
	{"Twin Triples, Loop", []int{1, 4}, [][2]int{{2, 1}, {3, 2}, {5, 4}, {6, 5}}, [][2]int{{4, 6}}},
	{"Three Pairs", []int{1, 3, 5}, [][2]int{{2, 1}, {4, 3}, {6, 5}}, [][2]int{{6, 6}}},
	{"Three Pairs, Loop", []int{1, 3, 5}, [][2]int{{2, 1}, {4, 3}, {6, 5}}, [][2]int{{5, 6}}},
	{"Pair and Branch", []int{1, 3}, [][2]int{{2, 1}, {4, 3}, {5, 3}, {6, 5}}, [][2]int{{6, 6}}},
	{"Pair and Branch, Op4 Feedback", []int{1, 3}, [][2]int{{2, 1}, {4, 3}, {5, 3}, {6, 5}}, [][2]int{{4, 4}}},
	{"Pair and Branch, Op2 Feedback", []int{1, 3}, [][2]int{{2, 1}, {4, 3}, {5, 3}, {6, 5}}, [][2]int{{2, 2}}},
	{"Triple and Fork", []int{1, 4}, [][2]int{{2, 1}, {3, 2}, {5, 4}, {6, 4}}, [][2]int{{3, 3}}},
	{"Triple and Fork, Op6 Feedback", []int{1, 4}, [][2]int{{2, 1}, {3, 2}, {5, 4}, {6, 4}}, [][2]int{{6, 6}}},
	{"Pair and Trident", []int{1, 3}, [][2]int{{2, 1}, {4, 3}, {5, 3}, {6, 3}}, [][2]int{{2, 2}}},
	{"Pair and Trident, Op6 Feedback", []int{1, 3}, [][2]int{{2, 1}, {4, 3}, {5, 3}, {6, 3}}, [][2]int{{6, 6}}},
	{"Pair and Tree", []int{1, 3}, [][2]int{{2, 1}, {4, 3}, {5, 4}, {6, 4}}, [][2]int{{6, 6}}},
	{"Pair and Tree, Op2 Feedback", []int{1, 3}, [][2]int{{2, 1}, {4, 3}, {5, 4}, {6, 4}}, [][2]int{{2, 2}}},
	{"Three Branches", []int{1}, [][2]int{{2, 1}, {3, 1}, {4, 3}, {5, 1}, {6, 5}}, [][2]int{{6, 6}}},
	{"Three Branches, Op2 Feedback", []int{1}, [][2]int{{2, 1}, {3, 1}, {4, 3}, {5, 1}, {6, 5}}, [][2]int{{2, 2}}},
	{"Deep Branch", []int{1}, [][2]int{{2, 1}, {3, 1}, {4, 1}, {5, 4}, {6, 5}}, [][2]int{{3, 3}}},
	{"Triple and Shared", []int{1, 4, 5}, [][2]int{{2, 1}, {3, 2}, {6, 4}, {6, 5}}, [][2]int{{6, 6}}},
	{"Shared and Fork", []int{1, 2, 4}, [][2]int{{3, 1}, {3, 2}, {5, 4}, {6, 4}}, [][2]int{{3, 3}}},
	{"Two Shared", []int{1, 2, 4, 5}, [][2]int{{3, 1}, {3, 2}, {6, 4}, {6, 5}}, [][2]int{{3, 3}}},
	{"Pair and Triple Shared", []int{1, 3, 4, 5}, [][2]int{{2, 1}, {6, 3}, {6, 4}, {6, 5}}, [][2]int{{6, 6}}},
	{"Single, Pair, Shared", []int{1, 2, 4, 5}, [][2]int{{3, 2}, {6, 4}, {6, 5}}, [][2]int{{6, 6}}},
	{"Five Carriers, Triple Shared", []int{1, 2, 3, 4, 5}, [][2]int{{6, 3}, {6, 4}, {6, 5}}, [][2]int{{6, 6}}},
	{"Five Carriers, Double Shared", []int{1, 2, 3, 4, 5}, [][2]int{{6, 4}, {6, 5}}, [][2]int{{6, 6}}},
	{"Single, Pair, Fork", []int{1, 2, 4}, [][2]int{{3, 2}, {5, 4}, {6, 4}}, [][2]int{{6, 6}}},
	{"Single, Pair, Fork, Op3 Feedback", []int{1, 2, 4}, [][2]int{{3, 2}, {5, 4}, {6, 4}}, [][2]int{{3, 3}}},
	{"Pair, Triple, Single", []int{1, 3, 6}, [][2]int{{2, 1}, {4, 3}, {5, 4}}, [][2]int{{5, 5}}},
	{"Two Singles, Two Pairs", []int{1, 2, 3, 5}, [][2]int{{4, 3}, {6, 5}}, [][2]int{{6, 6}}},
	{"Singles and Triple", []int{1, 2, 3, 6}, [][2]int{{4, 3}, {5, 4}}, [][2]int{{5, 5}}},
	{"Four Singles and Pair", []int{1, 2, 3, 4, 5}, [][2]int{{6, 5}}, [][2]int{{6, 6}}},
	{"Six Carriers", []int{1, 2, 3, 4, 5, 6}, nil, [][2]int{{6, 6}}},
	{"Dual Feedback", []int{1, 4}, [][2]int{{2, 1}, {3, 2}, {5, 4}, {6, 5}}, [][2]int{{2, 2}, {5, 5}}},
	{"Ring", []int{1}, [][2]int{{2, 1}, {3, 1}, {4, 2}, {5, 3}, {6, 4}}, nil},
	{"Chaos", []int{1, 2}, [][2]int{{3, 1}, {4, 2}, {5, 3}, {6, 4}}, [][2]int{{1, 6}, {2, 5}}},
}

// NewAlgorithm builds library algorithm number (1..NumAlgorithms) with the
// given feedback weight (0..1) on its feedback edges. The returned algorithm
// is a fresh copy that may be modified freely.
func NewAlgorithm(number int, feedback float32) (*Algorithm, error) {
	if number < 1 || number > NumAlgorithms {
		return nil, fmt.Errorf("algorithm %d does not exist, expected 1..%d", number, NumAlgorithms)
	}
	feedback, _ = Range{0, 1}.Clamp(feedback)
	def := &algorithmDefs[number-1]
	a := &Algorithm{Number: number, Name: def.name}
	for _, c := range def.carriers {
		a.Carriers[c-1] = true
	}
	for _, e := range def.edges {
		a.Weights[e[0]-1][e[1]-1] = 1
	}
	for _, e := range def.feedback {
		a.Weights[e[0]-1][e[1]-1] = feedback
	}
	return a, nil
}

// FeedbackWeight converts the 0..7 feedback setting of a patch into a matrix
// weight.
func FeedbackWeight(level int) float32 {
	v, _ := Range{0, 7}.Clamp(float32(level))
	return v / 7
}

// IsFeedback reports whether the edge from src to dst reads the previous
// sample of src.
func IsFeedback(src, dst int) bool {
	return src <= dst
}

// Sanitize repairs an algorithm in place so that it can be evaluated: weights
// are clamped to 0..1 and, if no operator is a carrier, operator 0 becomes
// one. It returns the number of corrections made.
func (a *Algorithm) Sanitize() (corrections int) {
	r := Range{0, 1}
	for i := range a.Weights {
		for j := range a.Weights[i] {
			var clamped bool
			if a.Weights[i][j], clamped = r.Clamp(a.Weights[i][j]); clamped {
				corrections++
			}
		}
	}
	for _, c := range a.Carriers {
		if c {
			return corrections
		}
	}
	a.Carriers[0] = true
	return corrections + 1
}

// Modulators returns the operators that modulate dst, in ascending order,
// appended to buf.
func (a *Algorithm) Modulators(dst int, buf []int) []int {
	for src := range a.Weights {
		if a.Weights[src][dst] > 0 {
			buf = append(buf, src)
		}
	}
	return buf
}
