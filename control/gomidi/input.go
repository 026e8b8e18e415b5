//go:build cgo

package gomidi

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/opsix/opsix/control"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Input is an open RtMidi input port. Decoded events are sent to the events
// channel without blocking; if the channel is full, events are dropped.
type Input struct {
	driver *rtmididrv.Driver
	in     drivers.In
	stop   func()
	logger *slog.Logger
}

// Inputs lists the names of the available MIDI input ports.
func Inputs() ([]string, error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("could not open MIDI driver: %w", err)
	}
	defer driver.Close()
	ins, err := driver.Ins()
	if err != nil {
		return nil, fmt.Errorf("could not list MIDI inputs: %w", err)
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names, nil
}

// Open opens the first input port whose name starts with namePrefix. An
// empty prefix takes the first port.
func Open(namePrefix string, events chan<- any, logger *slog.Logger) (*Input, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("could not open MIDI driver: %w", err)
	}
	ins, err := driver.Ins()
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("could not list MIDI inputs: %w", err)
	}
	for _, in := range ins {
		if !strings.HasPrefix(in.String(), namePrefix) {
			continue
		}
		if err := in.Open(); err != nil {
			driver.Close()
			return nil, fmt.Errorf("opening MIDI input %q failed: %w", in.String(), err)
		}
		ret := &Input{driver: driver, in: in, logger: logger}
		ret.stop, err = midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
			event, ok := Decode(msg)
			if !ok {
				return
			}
			if !control.TrySend(events, event) {
				ret.logger.Warn("MIDI event dropped, event queue full", "event", event)
			}
		})
		if err != nil {
			in.Close()
			driver.Close()
			return nil, fmt.Errorf("could not listen to MIDI input %q: %w", in.String(), err)
		}
		logger.Info("MIDI input opened", "port", in.String())
		return ret, nil
	}
	driver.Close()
	if namePrefix == "" {
		return nil, ErrNoInput
	}
	return nil, fmt.Errorf("no MIDI input starting with %q: %w", namePrefix, ErrNoInput)
}

func (i *Input) String() string {
	return i.in.String()
}

func (i *Input) Close() error {
	if i.stop != nil {
		i.stop()
	}
	if i.in.IsOpen() {
		if err := i.in.Close(); err != nil {
			return fmt.Errorf("could not close MIDI input: %w", err)
		}
	}
	return i.driver.Close()
}
