// Package sequencing compiles bound pulse templates into an instruction
// tree. The Sequencer drives a stack of pending sequencing requests per
// instruction block; elements either contribute terminal instructions or
// push further requests. Building is cooperative: when an element reports
// that it requires a stop, the build suspends and can be re-entered once
// the caller has supplied the missing runtime values.
package sequencing
