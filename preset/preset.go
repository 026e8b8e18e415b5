// Package preset loads banks of patches from .yml files. A bank is built
// from the presets embedded in the binary, optionally followed by the
// user's own presets from the config directory.
package preset

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/opsix/opsix"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed presets/*
var builtinFS embed.FS

type (
	Preset struct {
		// Directory is the path of the preset relative to the bank root,
		// without the file name.
		Directory string
		User      bool
		Patch     opsix.Patch
	}

	// Bank is an ordered list of presets. The index of a preset in the bank
	// is its MIDI program number.
	Bank struct {
		Presets []Preset
	}
)

var ErrNoProgram = errors.New("no preset for program")

var orderPrefix = regexp.MustCompile(`^\d+_`)

// Builtin returns the bank of embedded presets.
func Builtin() (*Bank, error) {
	b := &Bank{}
	if err := b.load(builtinFS, false); err != nil {
		return nil, err
	}
	return b, nil
}

// Default returns the builtin bank extended with the presets found in the
// opsix directory under the user config directory. A missing user directory
// is not an error.
func Default() (*Bank, error) {
	b, err := Builtin()
	if err != nil {
		return nil, err
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return b, nil
	}
	user := os.DirFS(filepath.Join(configDir, "opsix"))
	if _, err := fs.Stat(user, "presets"); err != nil {
		return b, nil
	}
	if err := b.load(user, true); err != nil {
		return nil, err
	}
	return b, nil
}

// Load appends the presets under the "presets" directory of fsys to the
// bank. Files are visited in lexical order, so a numeric prefix in the file
// name fixes the program number.
func (b *Bank) Load(fsys fs.FS) error {
	return b.load(fsys, true)
}

func (b *Bank) load(fsys fs.FS, user bool) error {
	var loaded []Preset
	err := fs.WalkDir(fsys, "presets", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || (path.Ext(p) != ".yml" && path.Ext(p) != ".yaml") {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		patch, err := Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		dir, file := path.Split(strings.TrimPrefix(p, "presets/"))
		if patch.Name == "" {
			patch.Name = FilenameToName(file)
		}
		loaded = append(loaded, Preset{Directory: strings.TrimSuffix(dir, "/"), User: user, Patch: patch})
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not load presets: %w", err)
	}
	b.Presets = append(b.Presets, loaded...)
	return nil
}

// Parse decodes a preset, rejecting unknown fields, and checks that it can be
// loaded into an engine. Operator ratios are quantized to the values the
// front panel offers.
func Parse(data []byte) (opsix.Patch, error) {
	var patch opsix.Patch
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&patch); err != nil {
		return opsix.Patch{}, fmt.Errorf("could not parse preset: %w", err)
	}
	for i := range patch.Operators {
		op := &patch.Operators[i]
		if op.Ratio != 0 {
			op.Ratio = opsix.QuantizeRatio(op.Ratio)
		}
	}
	if err := patch.Validate(); err != nil {
		return opsix.Patch{}, err
	}
	return patch, nil
}

// Marshal encodes a patch in the preset file format.
func Marshal(patch *opsix.Patch) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(patch); err != nil {
		return nil, fmt.Errorf("could not marshal preset: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("could not marshal preset: %w", err)
	}
	return buf.Bytes(), nil
}

// FilenameToName turns "01_e.piano_1.yml" into "E.PIANO 1".
func FilenameToName(filename string) string {
	name := strings.TrimSuffix(filename, path.Ext(filename))
	name = orderPrefix.ReplaceAllString(name, "")
	return cases.Upper(language.English).String(strings.ReplaceAll(name, "_", " "))
}

// Patch returns the patch of a program number. It implements
// control.PatchSource.
func (b *Bank) Patch(program int) (*opsix.Patch, error) {
	if program < 0 || program >= len(b.Presets) {
		return nil, fmt.Errorf("%w %d, bank has %d presets", ErrNoProgram, program, len(b.Presets))
	}
	p := b.Presets[program].Patch
	return &p, nil
}

// Find returns the program number of the first preset whose name matches
// name, ignoring case, or -1.
func (b *Bank) Find(name string) int {
	for i, p := range b.Presets {
		if strings.EqualFold(p.Patch.Name, name) {
			return i
		}
	}
	return -1
}

func (b *Bank) Names() []string {
	names := make([]string, len(b.Presets))
	for i, p := range b.Presets {
		names[i] = p.Patch.Name
	}
	return names
}
