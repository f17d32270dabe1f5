package sequencing

import (
	"fmt"

	"github.com/Nomos11/qupulse/pkg/waveform"
)

// Instruction is one step of a compiled program.
type Instruction interface {
	instruction()
	String() string
}

// EXECInstruction plays one waveform, possibly a MultiChannelWaveform,
// synchronously across all its channels.
type EXECInstruction struct {
	Waveform waveform.Waveform
}

func (*EXECInstruction) instruction() {}

func (i *EXECInstruction) String() string {
	return fmt.Sprintf("exec %s", i.Waveform.CompareKey())
}

// CHANInstruction branches execution in parallel: each output channel is
// routed to its own sub-sequence of instructions.
type CHANInstruction struct {
	Blocks map[waveform.ChannelID]*InstructionBlock
}

func (*CHANInstruction) instruction() {}

func (i *CHANInstruction) String() string {
	return fmt.Sprintf("chan over %d channels", len(i.Blocks))
}

// MEASInstruction emits measurement windows at the current position.
type MEASInstruction struct {
	Windows []waveform.MeasurementWindow
}

func (*MEASInstruction) instruction() {}

func (i *MEASInstruction) String() string {
	return fmt.Sprintf("meas %d windows", len(i.Windows))
}

// GOTOInstruction continues execution at the target block.
type GOTOInstruction struct {
	Target *InstructionBlock
}

func (*GOTOInstruction) instruction() {}

func (i *GOTOInstruction) String() string {
	return "goto"
}

// STOPInstruction terminates execution of the program.
type STOPInstruction struct{}

func (*STOPInstruction) instruction() {}

func (i *STOPInstruction) String() string {
	return "stop"
}
