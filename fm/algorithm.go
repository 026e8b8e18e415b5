package fm

import "github.com/opsix/opsix"

type (
	// routing is an Algorithm compiled for evaluation: for every operator the
	// list of its modulators, each marked as a feedback edge or not.
	routing struct {
		algorithm opsix.Algorithm
		inputs    [opsix.NumOperators][opsix.NumOperators]edge
		numInputs [opsix.NumOperators]int
		carriers  [opsix.NumOperators]bool
	}

	edge struct {
		src      int
		weight   float64
		feedback bool
	}
)

// load copies and compiles a. It returns the number of corrections made to
// the copy to make it valid.
func (r *routing) load(a *opsix.Algorithm) int {
	r.algorithm = *a
	corrections := r.algorithm.Sanitize()
	for dst := range r.inputs {
		n := 0
		for src := range r.algorithm.Weights {
			w := r.algorithm.Weights[src][dst]
			if w <= 0 {
				continue
			}
			fb := opsix.IsFeedback(src, dst)
			index := modulationIndex
			if fb {
				index = feedbackIndex
			}
			r.inputs[dst][n] = edge{src: src, weight: float64(w) * index, feedback: fb}
			n++
		}
		r.numInputs[dst] = n
	}
	r.carriers = r.algorithm.Carriers
	return corrections
}

// process evaluates one sample of the operators from 5 down to 0 and returns
// the sum of the carriers. Edges from higher operators use their output of
// this sample; feedback edges use the previous sample, which is still in
// prev because their source has not been evaluated yet.
func (r *routing) process(ops *[opsix.NumOperators]Operator, inc, amp float64) float64 {
	var out [opsix.NumOperators]float64
	sum := 0.0
	for dst := opsix.NumOperators - 1; dst >= 0; dst-- {
		mod := 0.0
		for _, e := range r.inputs[dst][:r.numInputs[dst]] {
			if e.feedback {
				mod += e.weight * ops[e.src].prev
			} else {
				mod += e.weight * out[e.src]
			}
		}
		if r.carriers[dst] {
			out[dst] = ops[dst].process(inc, mod, amp)
			sum += out[dst]
		} else {
			out[dst] = ops[dst].process(inc, mod, 1)
		}
	}
	return sum
}

// sounding reports whether any carrier of the voice is still audible.
func (r *routing) sounding(ops *[opsix.NumOperators]Operator) bool {
	for i := range ops {
		if r.carriers[i] && ops[i].sounding() {
			return true
		}
	}
	return false
}
