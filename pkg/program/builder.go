package program

import (
	"github.com/Nomos11/qupulse/pkg/waveform"
)

// Builder assembles a Loop tree through a stack of open nodes. Scoped
// sections are expressed as closures instead of explicit push/pop pairs,
// so the stack can never be left unbalanced.
type Builder struct {
	root  *Loop
	stack []*Loop
}

// NewBuilder creates a builder with an empty root program.
func NewBuilder() *Builder {
	root := NewLoop(1)
	return &Builder{root: root, stack: []*Loop{root}}
}

func (b *Builder) top() *Loop {
	return b.stack[len(b.stack)-1]
}

func (b *Builder) push(node *Loop) {
	b.stack = append(b.stack, node)
}

// pop removes the top node and attaches it to its parent if it carries any
// content. Empty sections vanish silently.
func (b *Builder) pop() {
	node := b.top()
	b.stack = b.stack[:len(b.stack)-1]
	if len(node.children) != 0 || node.wf != nil {
		b.top().AppendChild(node)
	}
}

// PlayWaveform appends a waveform at the current position.
func (b *Builder) PlayWaveform(wf waveform.Waveform) {
	b.top().AppendWaveform(wf)
}

// HoldVoltage appends a constant-level section for the given channels.
func (b *Builder) HoldVoltage(duration waveform.TimeType, voltages map[waveform.ChannelID]float64) error {
	wf, err := waveform.ConstantFromMapping(duration, voltages)
	if err != nil {
		return err
	}
	b.PlayWaveform(wf)
	return nil
}

// Measure attaches measurement windows at the current position.
func (b *Builder) Measure(measurements []waveform.MeasurementWindow) {
	b.top().AddMeasurements(measurements)
}

// WithRepetition runs body inside a section repeated repetitionCount times.
// The section is dropped if body adds nothing to it.
func (b *Builder) WithRepetition(repetitionCount int, body func(*Builder) error) error {
	b.push(NewLoop(repetitionCount))
	err := body(b)
	b.pop()
	return err
}

// WithSequence runs body inside a new sequential section. The section is
// dropped if body adds nothing to it.
func (b *Builder) WithSequence(body func(*Builder) error) error {
	b.push(NewLoop(1))
	err := body(b)
	b.pop()
	return err
}

// Program returns the assembled root node.
func (b *Builder) Program() *Loop {
	return b.root
}
