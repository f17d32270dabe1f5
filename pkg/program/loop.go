package program

import (
	"fmt"
	"strings"

	"github.com/Nomos11/qupulse/pkg/waveform"
)

// Loop is a node of the program tree. An inner node repeats its ordered
// children, a leaf repeats a single waveform. The zero repetition count is
// normalized to one.
type Loop struct {
	repetitionCount int
	wf              waveform.Waveform
	children        []*Loop
	measurements    []waveform.MeasurementWindow
}

// NewLoop creates an inner node repeating its children repetitionCount times.
func NewLoop(repetitionCount int) *Loop {
	if repetitionCount < 1 {
		repetitionCount = 1
	}
	return &Loop{repetitionCount: repetitionCount}
}

// NewLeaf creates a leaf node playing wf repetitionCount times.
func NewLeaf(wf waveform.Waveform, repetitionCount int) *Loop {
	l := NewLoop(repetitionCount)
	l.wf = wf
	return l
}

// RepetitionCount returns how often the node content is played.
func (l *Loop) RepetitionCount() int {
	return l.repetitionCount
}

// Waveform returns the leaf waveform or nil for inner nodes.
func (l *Loop) Waveform() waveform.Waveform {
	return l.wf
}

// Children returns the ordered child nodes.
func (l *Loop) Children() []*Loop {
	return l.children
}

// IsLeaf reports whether the node plays a waveform directly.
func (l *Loop) IsLeaf() bool {
	return l.wf != nil && len(l.children) == 0
}

// AppendChild adds a child node.
func (l *Loop) AppendChild(child *Loop) {
	l.children = append(l.children, child)
}

// AppendWaveform adds a leaf child playing wf once.
func (l *Loop) AppendWaveform(wf waveform.Waveform) {
	l.AppendChild(NewLeaf(wf, 1))
}

// AddMeasurements attaches measurement windows to the node.
func (l *Loop) AddMeasurements(measurements []waveform.MeasurementWindow) {
	l.measurements = append(l.measurements, measurements...)
}

// Measurements returns the windows attached to this node.
func (l *Loop) Measurements() []waveform.MeasurementWindow {
	return l.measurements
}

// Duration returns the exact total playback duration of the subtree.
func (l *Loop) Duration() waveform.TimeType {
	var body waveform.TimeType
	if l.IsLeaf() {
		body = l.wf.Duration()
	} else {
		for _, child := range l.children {
			body = body.Add(child.Duration())
		}
	}
	return body.MulInt(int64(l.repetitionCount))
}

// DepthFirst visits the subtree in depth-first pre-order.
func (l *Loop) DepthFirst(visit func(*Loop)) {
	visit(l)
	for _, child := range l.children {
		child.DepthFirst(visit)
	}
}

// Leaves returns the leaf nodes in depth-first order.
func (l *Loop) Leaves() []*Loop {
	var leaves []*Loop
	l.DepthFirst(func(node *Loop) {
		if node.IsLeaf() {
			leaves = append(leaves, node)
		}
	})
	return leaves
}

// String renders the tree structure for diagnostics.
func (l *Loop) String() string {
	var b strings.Builder
	l.render(&b, 0)
	return b.String()
}

func (l *Loop) render(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	if l.IsLeaf() {
		fmt.Fprintf(b, "%dx %s\n", l.repetitionCount, l.wf.CompareKey())
		return
	}
	fmt.Fprintf(b, "%dx:\n", l.repetitionCount)
	for _, child := range l.children {
		child.render(b, depth+1)
	}
}
