package serial

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/opsix/opsix/control"
	"go.bug.st/serial"
)

// Surface is an open serial control surface.
type Surface struct {
	port    serial.Port
	decoder *Decoder
	logger  *slog.Logger
	name    string

	closeOnce sync.Once
	finished  chan struct{}
	out       []byte
}

// Ports lists the serial ports of the system.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("could not list serial ports: %w", err)
	}
	return ports, nil
}

// Open opens the named serial device at the given baud rate.
func Open(name string, baud int, logger *slog.Logger) (*Surface, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("could not open serial port %q: %w", name, err)
	}
	logger.Info("serial: port opened", "device", name, "baud", baud)
	return &Surface{port: p, decoder: NewDecoder(), logger: logger, name: name, finished: make(chan struct{})}, nil
}

// Decoder returns the decoder of the surface, for configuring the knob map
// before Run.
func (s *Surface) Decoder() *Decoder {
	return s.decoder
}

// Run reads frames until the port is closed, sending the decoded events to
// events without blocking. Events that do not fit are dropped.
func (s *Surface) Run(events chan<- any) {
	defer close(s.finished)
	buf := make([]byte, 256)
	emit := func(event any) {
		if !control.TrySend(events, event) {
			s.logger.Warn("serial: event dropped, event queue full", "event", event)
		}
	}
	for {
		n, err := s.port.Read(buf)
		if err != nil {
			var portErr *serial.PortError
			if errors.Is(err, io.EOF) || (errors.As(err, &portErr) && portErr.Code() == serial.PortClosed) {
				return
			}
			s.logger.Error("serial: read error", "device", s.name, "err", err)
			return
		}
		errs := s.decoder.Errors
		s.decoder.Feed(buf[:n], emit)
		if s.decoder.Errors > errs {
			s.logger.Debug("serial: bad frames skipped", "count", s.decoder.Errors-errs)
		}
	}
}

// SendLevels writes a level frame with one byte per meter voice, scaling the
// range Min..Max of the meter to 0..255.
func (s *Surface) SendLevels(m *control.Meter) error {
	var payload [len(m.Voices)]byte
	for i, v := range m.Voices {
		x := (v - m.Min) / (m.Max - m.Min)
		payload[i] = byte(math.Round(max(min(x, 1), 0) * 255))
	}
	s.out = Encode(CmdLevels, payload[:])
	if _, err := s.port.Write(s.out); err != nil {
		return fmt.Errorf("serial: write error: %w", err)
	}
	return nil
}

// Close closes the port, which makes Run return.
func (s *Surface) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.logger.Info("serial: closing port", "device", s.name)
		err = s.port.Close()
	})
	return err
}

// Finished is closed when Run has returned.
func (s *Surface) Finished() <-chan struct{} {
	return s.finished
}
