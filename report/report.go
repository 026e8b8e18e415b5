// Package report prints human readable sheets of the algorithm library,
// patches and preset banks using text/template.
package report

import (
	"embed"
	"fmt"
	"io"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/opsix/opsix"
	"github.com/opsix/opsix/preset"
)

//go:embed templates/*
var templateFS embed.FS

type Reporter struct {
	Template *template.Template
}

type (
	algorithmSheet struct {
		Algorithms     []algorithmRow
		FeedbackWeight float32
	}

	algorithmRow struct {
		Number   int
		Name     string
		Carriers []string
		Edges    []string
		Feedback []string
	}

	patchSheet struct {
		Patch         *opsix.Patch
		AlgorithmName string
		Carriers      [opsix.NumOperators]bool
	}
)

// New returns a reporter using the builtin templates.
func New() (*Reporter, error) {
	tmpl, err := template.New("base").Funcs(sprig.TxtFuncMap()).ParseFS(templateFS, "templates/*")
	if err != nil {
		return nil, fmt.Errorf("could not parse builtin templates: %w", err)
	}
	return &Reporter{Template: tmpl}, nil
}

// NewFromTemplates parses every file in templateDirectory. The directory must
// define the same template names as the builtin templates.
func NewFromTemplates(templateDirectory string) (*Reporter, error) {
	globPtrn := filepath.Join(templateDirectory, "*.*")
	tmpl, err := template.New("base").Funcs(sprig.TxtFuncMap()).ParseGlob(globPtrn)
	if err != nil {
		return nil, fmt.Errorf(`could not create template based on directory "%v": %w`, templateDirectory, err)
	}
	return &Reporter{Template: tmpl}, nil
}

// Algorithms writes the library with the feedback edges weighted by the
// given 0..7 feedback level.
func (r *Reporter) Algorithms(w io.Writer, feedback int) error {
	sheet := algorithmSheet{FeedbackWeight: opsix.FeedbackWeight(feedback)}
	for n := 1; n <= opsix.NumAlgorithms; n++ {
		a, err := opsix.NewAlgorithm(n, sheet.FeedbackWeight)
		if err != nil {
			return err
		}
		sheet.Algorithms = append(sheet.Algorithms, newAlgorithmRow(a))
	}
	return r.execute(w, "algorithms.txt", sheet)
}

// Patch writes the parameter sheet of a patch.
func (r *Reporter) Patch(w io.Writer, p *opsix.Patch) error {
	if p == nil {
		return opsix.ErrNoPatch
	}
	a, err := opsix.NewAlgorithm(p.Algorithm, 1)
	if err != nil {
		return err
	}
	return r.execute(w, "patch.txt", patchSheet{Patch: p, AlgorithmName: a.Name, Carriers: a.Carriers})
}

// Bank lists the program numbers and names of a bank.
func (r *Reporter) Bank(w io.Writer, b *preset.Bank) error {
	return r.execute(w, "bank.txt", b)
}

func (r *Reporter) execute(w io.Writer, name string, data any) error {
	if err := r.Template.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf(`could not execute template "%v": %w`, name, err)
	}
	return nil
}

// newAlgorithmRow lists the edges of a with 1-based operator numbers.
// Edges with zero weight are left out.
func newAlgorithmRow(a *opsix.Algorithm) algorithmRow {
	row := algorithmRow{Number: a.Number, Name: a.Name}
	for i, c := range a.Carriers {
		if c {
			row.Carriers = append(row.Carriers, fmt.Sprint(i+1))
		}
	}
	var buf []int
	for dst := range a.Weights {
		buf = a.Modulators(dst, buf[:0])
		for _, src := range buf {
			edge := fmt.Sprintf("%d>%d", src+1, dst+1)
			if opsix.IsFeedback(src, dst) {
				row.Feedback = append(row.Feedback, edge)
			} else {
				row.Edges = append(row.Edges, edge)
			}
		}
	}
	return row
}
