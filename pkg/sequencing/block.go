package sequencing

import "github.com/Nomos11/qupulse/pkg/waveform"

// InstructionBlock is an ordered sequence of instructions. Blocks are
// created through a Sequencer and addressed by pointer.
type InstructionBlock struct {
	instructions []Instruction
}

// Instructions returns the ordered instructions of the block.
func (b *InstructionBlock) Instructions() []Instruction {
	return b.instructions
}

// Len returns the number of instructions in the block.
func (b *InstructionBlock) Len() int {
	return len(b.instructions)
}

// Add appends an instruction to the block.
func (b *InstructionBlock) Add(instruction Instruction) {
	b.instructions = append(b.instructions, instruction)
}

// AddExec appends an EXECInstruction playing wf.
func (b *InstructionBlock) AddExec(wf waveform.Waveform) {
	b.Add(&EXECInstruction{Waveform: wf})
}

// AddChan appends a CHANInstruction routing channels to sub-blocks.
func (b *InstructionBlock) AddChan(blocks map[waveform.ChannelID]*InstructionBlock) {
	b.Add(&CHANInstruction{Blocks: blocks})
}

// AddMeasurement appends a MEASInstruction when windows is non-empty.
func (b *InstructionBlock) AddMeasurement(windows []waveform.MeasurementWindow) {
	if len(windows) == 0 {
		return
	}
	b.Add(&MEASInstruction{Windows: windows})
}

// AddGoto appends a GOTOInstruction to the target block.
func (b *InstructionBlock) AddGoto(target *InstructionBlock) {
	b.Add(&GOTOInstruction{Target: target})
}

// AddStop appends a STOPInstruction.
func (b *InstructionBlock) AddStop() {
	b.Add(&STOPInstruction{})
}
