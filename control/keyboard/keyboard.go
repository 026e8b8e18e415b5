// Package keyboard plays notes from the computer keyboard. The terminal is
// put in raw mode, so each key press arrives as a byte; terminals do not
// report key releases, so every note is released after a fixed gate time.
package keyboard

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/opsix/opsix/control"
	"golang.org/x/term"
)

// Two rows of a piano: the lower row starts at the base note, the upper row
// an octave above it.
var layout = map[byte]int{
	'z': 0, 's': 1, 'x': 2, 'd': 3, 'c': 4, 'v': 5, 'g': 6, 'b': 7, 'h': 8, 'n': 9, 'j': 10, 'm': 11, ',': 12,
	'q': 12, '2': 13, 'w': 14, '3': 15, 'e': 16, 'r': 17, '5': 18, 't': 19, '6': 20, 'y': 21, '7': 22, 'u': 23, 'i': 24,
}

const (
	keyCtrlC  = 0x03
	keyEscape = 0x1b
)

type Keyboard struct {
	// Base is the note of the 'z' key.
	Base     int
	Velocity byte
	// Gate is how long a note sounds before it is released.
	Gate time.Duration

	events  chan<- any
	mu      sync.Mutex
	timers  [128]*time.Timer
	program int
}

// New returns a keyboard sending events to events, with 'z' at C3 (48).
func New(events chan<- any) *Keyboard {
	return &Keyboard{Base: 48, Velocity: 100, Gate: 400 * time.Millisecond, events: events}
}

// Key handles one byte of input. It returns false if the key asks to quit.
//
//	z s x d c ...  notes from Base
//	q 2 w 3 e ...  notes from Base+12
//	- =            octave down, up
//	[ ]            previous, next program
//	space          panic
//	ESC, Ctrl-C    quit
func (k *Keyboard) Key(b byte) bool {
	if offset, ok := layout[b]; ok {
		k.play(k.Base + offset)
		return true
	}
	switch b {
	case keyCtrlC, keyEscape:
		return false
	case '-':
		k.Base = max(k.Base-12, 0)
	case '=':
		k.Base = min(k.Base+12, 96)
	case '[':
		k.program = max(k.program-1, 0)
		k.send(control.ProgramChange{Program: byte(k.program)})
	case ']':
		k.program = min(k.program+1, 127)
		k.send(control.ProgramChange{Program: byte(k.program)})
	case ' ':
		k.send(control.Panic{})
	}
	return true
}

func (k *Keyboard) play(note int) {
	if note < 0 || note > 127 {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if t := k.timers[note]; t != nil && t.Stop() {
		// still held: restrike without a release in between
		k.send(control.NoteEvent{Note: byte(note)})
	}
	k.send(control.NoteEvent{On: true, Note: byte(note), Velocity: k.Velocity})
	k.timers[note] = time.AfterFunc(k.Gate, func() {
		k.mu.Lock()
		defer k.mu.Unlock()
		k.send(control.NoteEvent{Note: byte(note)})
	})
}

func (k *Keyboard) send(event any) {
	control.TrySend(k.events, event)
}

// Run reads keys from r until a quit key or an error. It returns nil when
// the user quits.
func (k *Keyboard) Run(r io.Reader) error {
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			if !k.Key(b) {
				return nil
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("could not read keyboard: %w", err)
		}
	}
}

// RawTerminal puts the terminal fd into raw mode and returns a function that
// restores it.
func RawTerminal(fd int) (restore func() error, err error) {
	if !term.IsTerminal(fd) {
		return nil, errors.New("keyboard input needs a terminal")
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to set raw mode: %w", err)
	}
	return func() error { return term.Restore(fd, state) }, nil
}
