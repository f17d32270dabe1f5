package sequencing

import (
	"github.com/Nomos11/qupulse/pkg/waveform"
)

// Parameter is a concrete or deferred numeric value bound to a template
// parameter name. A parameter that requires a stop is not yet evaluable;
// the sequencer suspends until the caller supplies it.
type Parameter interface {
	Get() (float64, error)
	RequiresStop() bool
}

// Condition is a runtime branching condition. Conditions that require a
// stop suspend sequencing like parameters do.
type Condition interface {
	RequiresStop() bool
}

// SequencingElement is anything the sequencer can compile: it either
// contributes terminal instructions to its target block or pushes further
// nested requests onto the sequencer.
type SequencingElement interface {
	BuildSequence(sequencer *Sequencer, parameters map[string]Parameter, conditions map[string]Condition,
		measurementMapping map[string]string, channelMapping map[waveform.ChannelID]waveform.ChannelID,
		block *InstructionBlock) error

	RequiresStop(parameters map[string]Parameter, conditions map[string]Condition) (bool, error)
}

// StackEntry is one pending sequencing request.
type StackEntry struct {
	Element            SequencingElement
	Parameters         map[string]Parameter
	Conditions         map[string]Condition
	MeasurementMapping map[string]string
	ChannelMapping     map[waveform.ChannelID]waveform.ChannelID
}

// Sequencer is a single-threaded, re-entrant instruction builder. Each
// block carries a stack of pending requests; Build advances every stack
// until it empties or its top element requires a stop. The caller may
// update bindings and call Build again to resume.
type Sequencer struct {
	main       *InstructionBlock
	blocks     []*InstructionBlock
	stacks     map[*InstructionBlock][]*StackEntry
	terminated bool
}

// NewSequencer creates a sequencer with an empty main block.
func NewSequencer() *Sequencer {
	main := &InstructionBlock{}
	return &Sequencer{
		main:   main,
		blocks: []*InstructionBlock{main},
		stacks: make(map[*InstructionBlock][]*StackEntry),
	}
}

// MainBlock returns the root block of the program under construction.
func (s *Sequencer) MainBlock() *InstructionBlock {
	return s.main
}

// AddBlock creates a new empty block owned by the sequencer.
func (s *Sequencer) AddBlock() *InstructionBlock {
	block := &InstructionBlock{}
	s.blocks = append(s.blocks, block)
	return block
}

// Push adds a sequencing request for element onto the stack of the target
// block. A nil target addresses the main block. Requests pushed onto the
// same block are processed in last-in-first-out order.
func (s *Sequencer) Push(target *InstructionBlock, element SequencingElement,
	parameters map[string]Parameter, conditions map[string]Condition,
	measurementMapping map[string]string, channelMapping map[waveform.ChannelID]waveform.ChannelID) {
	if target == nil {
		target = s.main
	}
	s.stacks[target] = append(s.stacks[target], &StackEntry{
		Element:            element,
		Parameters:         parameters,
		Conditions:         conditions,
		MeasurementMapping: measurementMapping,
		ChannelMapping:     channelMapping,
	})
}

// StackFor returns the pending requests targeted at block, bottom first.
func (s *Sequencer) StackFor(block *InstructionBlock) []*StackEntry {
	return s.stacks[block]
}

// Build advances every block's stack. It returns the main block once no
// further progress is possible; HasFinished reports whether the program is
// complete or suspended on a stop request.
func (s *Sequencer) Build() (*InstructionBlock, error) {
	// Blocks created during the build are appended to s.blocks and picked
	// up by the index loop.
	for i := 0; i < len(s.blocks); i++ {
		block := s.blocks[i]
		for len(s.stacks[block]) > 0 {
			stack := s.stacks[block]
			entry := stack[len(stack)-1]

			stop, err := entry.Element.RequiresStop(entry.Parameters, entry.Conditions)
			if err != nil {
				return nil, err
			}
			if stop {
				// Leave the request pending; the caller resumes later.
				break
			}

			s.stacks[block] = stack[:len(stack)-1]
			if err := entry.Element.BuildSequence(s, entry.Parameters, entry.Conditions,
				entry.MeasurementMapping, entry.ChannelMapping, block); err != nil {
				return nil, err
			}
		}
	}

	if s.HasFinished() && !s.terminated {
		s.main.AddStop()
		s.terminated = true
	}
	return s.main, nil
}

// HasFinished reports whether every pending request has been compiled.
func (s *Sequencer) HasFinished() bool {
	for _, stack := range s.stacks {
		if len(stack) > 0 {
			return false
		}
	}
	return true
}
