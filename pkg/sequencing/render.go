package sequencing

import (
	"fmt"

	"github.com/Nomos11/qupulse/pkg/program"
	"github.com/Nomos11/qupulse/pkg/waveform"
)

// RenderLoop converts a fully built instruction block into a playback
// tree. Measurement windows attach to the waveform they precede. Channel
// branch and jump instructions have no single-tree representation and
// are rejected.
func RenderLoop(block *InstructionBlock) (*program.Loop, error) {
	root := program.NewLoop(1)
	var pending []waveform.MeasurementWindow

	for _, instruction := range block.Instructions() {
		switch in := instruction.(type) {
		case *MEASInstruction:
			pending = append(pending, in.Windows...)
		case *EXECInstruction:
			leaf := program.NewLeaf(in.Waveform, 1)
			leaf.AddMeasurements(pending)
			pending = nil
			root.AppendChild(leaf)
		case *STOPInstruction:
			return root, nil
		case *CHANInstruction:
			return nil, fmt.Errorf("cannot render a program with channel branches")
		case *GOTOInstruction:
			return nil, fmt.Errorf("cannot render a program with jumps")
		default:
			return nil, fmt.Errorf("cannot render instruction %s", instruction)
		}
	}

	return root, nil
}
