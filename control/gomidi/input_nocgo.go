//go:build !cgo

package gomidi

import "log/slog"

// Input is not available without cgo; Open always fails.
type Input struct{}

func Inputs() ([]string, error) {
	return nil, ErrNotCompiled
}

func Open(namePrefix string, events chan<- any, logger *slog.Logger) (*Input, error) {
	return nil, ErrNotCompiled
}

func (i *Input) String() string { return "" }

func (i *Input) Close() error { return nil }
