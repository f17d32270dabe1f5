package expressions

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// ParseError reports that a source string is not a valid expression.
type ParseError struct {
	Source      string
	Diagnostics hcl.Diagnostics
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid expression %q: %s", e.Source, e.Diagnostics.Error())
}

// EvaluationError reports that an expression could not be evaluated under
// the supplied parameter binding.
type EvaluationError struct {
	Expression  string
	Missing     string
	Message     string
	Diagnostics hcl.Diagnostics
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	switch {
	case e.Missing != "":
		return fmt.Sprintf("cannot evaluate %q: parameter %q is not bound", e.Expression, e.Missing)
	case e.Message != "":
		return fmt.Sprintf("cannot evaluate %q: %s", e.Expression, e.Message)
	default:
		return fmt.Sprintf("cannot evaluate %q: %s", e.Expression, e.Diagnostics.Error())
	}
}
