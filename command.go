package opsix

import "fmt"

type (
	// CommandKind tags the variant of a Command.
	CommandKind uint8

	// Command is a control intent sent to the engine. It is a flat value
	// rather than an interface so that it can be passed through the command
	// ring without boxing. Which fields are meaningful depends on Kind; use
	// the constructor functions to build commands.
	//
	// Values are not validated when a command is built. The engine clamps
	// every out-of-range value when it applies the command.
	Command struct {
		Kind     CommandKind
		Operator int     // SetOperatorParam: 0..5
		Param    int     // the GlobalParamID, OperatorParamID or LFOParamID
		Note     int     // NoteOn, NoteOff: 0..127
		Velocity int     // NoteOn: 0..127
		Value    float32 // Set*Param

		// Algorithm is the routing loaded by LoadAlgorithm. The engine copies
		// it when the command is applied; the sender must not modify it after
		// enqueueing.
		Algorithm *Algorithm
	}
)

const (
	CmdNone CommandKind = iota
	CmdNoteOn
	CmdNoteOff
	CmdAllNotesOff
	CmdSetGlobalParam
	CmdSetOperatorParam
	CmdLoadAlgorithm
	CmdSetLFOParam
)

var commandNames = [...]string{"None", "NoteOn", "NoteOff", "AllNotesOff", "SetGlobalParam", "SetOperatorParam", "LoadAlgorithm", "SetLFOParam"}

func (k CommandKind) String() string {
	if int(k) >= len(commandNames) {
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
	return commandNames[k]
}

func NoteOn(note, velocity int) Command {
	return Command{Kind: CmdNoteOn, Note: note, Velocity: velocity}
}

func NoteOff(note int) Command {
	return Command{Kind: CmdNoteOff, Note: note}
}

// AllNotesOff forces every sounding voice into a fast release.
func AllNotesOff() Command {
	return Command{Kind: CmdAllNotesOff}
}

func SetGlobalParam(id GlobalParamID, value float32) Command {
	return Command{Kind: CmdSetGlobalParam, Param: int(id), Value: value}
}

// SetOperatorParam changes a parameter of one operator in all voices.
func SetOperatorParam(operator int, id OperatorParamID, value float32) Command {
	return Command{Kind: CmdSetOperatorParam, Operator: operator, Param: int(id), Value: value}
}

func LoadAlgorithm(a *Algorithm) Command {
	return Command{Kind: CmdLoadAlgorithm, Algorithm: a}
}

func SetLFOParam(id LFOParamID, value float32) Command {
	return Command{Kind: CmdSetLFOParam, Param: int(id), Value: value}
}

func (c Command) String() string {
	switch c.Kind {
	case CmdNoteOn:
		return fmt.Sprintf("NoteOn(%d, %d)", c.Note, c.Velocity)
	case CmdNoteOff:
		return fmt.Sprintf("NoteOff(%d)", c.Note)
	case CmdSetGlobalParam, CmdSetLFOParam:
		return fmt.Sprintf("%v(%d, %g)", c.Kind, c.Param, c.Value)
	case CmdSetOperatorParam:
		return fmt.Sprintf("%v(op%d, %d, %g)", c.Kind, c.Operator+1, c.Param, c.Value)
	case CmdLoadAlgorithm:
		if c.Algorithm == nil {
			return "LoadAlgorithm(nil)"
		}
		return fmt.Sprintf("LoadAlgorithm(%d)", c.Algorithm.Number)
	}
	return c.Kind.String()
}
