package expressions

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// Expression is an immutable symbolic scalar expression over named
// parameters, e.g. "2*t_gate + t_wait".
type Expression struct {
	src       string
	canonical string
	expr      hclsyntax.Expression
	variables []string
}

// MakeExpression parses src as an HCL expression.
func MakeExpression(src string) (*Expression, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "expression", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, &ParseError{Source: src, Diagnostics: diags}
	}

	canonical, err := canonicalize(src)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var variables []string
	for _, traversal := range expr.Variables() {
		name := traversal.RootName()
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			variables = append(variables, name)
		}
	}
	sort.Strings(variables)

	return &Expression{
		src:       src,
		canonical: canonical,
		expr:      expr,
		variables: variables,
	}, nil
}

// FromFloat returns a constant expression holding the given value.
func FromFloat(value float64) *Expression {
	expr, err := MakeExpression(strconv.FormatFloat(value, 'g', -1, 64))
	if err != nil {
		// A formatted float is always a valid expression.
		panic(fmt.Sprintf("expressions: cannot parse formatted float: %v", err))
	}
	return expr
}

// Variables returns the free variable names, sorted.
func (e *Expression) Variables() []string {
	out := make([]string, len(e.variables))
	copy(out, e.variables)
	return out
}

// IsConstant reports whether the expression has no free variables.
func (e *Expression) IsConstant() bool {
	return len(e.variables) == 0
}

// Evaluate computes the numeric value of the expression under the given
// parameter binding. Every free variable must be bound.
func (e *Expression) Evaluate(scope map[string]float64) (float64, error) {
	for _, name := range e.variables {
		if _, ok := scope[name]; !ok {
			return 0, &EvaluationError{Expression: e.src, Missing: name}
		}
	}

	variables := make(map[string]cty.Value, len(scope))
	for name, value := range scope {
		variables[name] = cty.NumberFloatVal(value)
	}

	val, diags := e.expr.Value(&hcl.EvalContext{Variables: variables})
	if diags.HasErrors() {
		return 0, &EvaluationError{Expression: e.src, Diagnostics: diags}
	}
	if val.Type() != cty.Number {
		return 0, &EvaluationError{Expression: e.src, Message: fmt.Sprintf("expression is not numeric, got %s", val.Type().FriendlyName())}
	}

	result, _ := val.AsBigFloat().Float64()
	return result, nil
}

// EvaluateBool computes the boolean value of the expression, e.g. a
// parameter constraint such as "a < b".
func (e *Expression) EvaluateBool(scope map[string]float64) (bool, error) {
	for _, name := range e.variables {
		if _, ok := scope[name]; !ok {
			return false, &EvaluationError{Expression: e.src, Missing: name}
		}
	}

	variables := make(map[string]cty.Value, len(scope))
	for name, value := range scope {
		variables[name] = cty.NumberFloatVal(value)
	}

	val, diags := e.expr.Value(&hcl.EvalContext{Variables: variables})
	if diags.HasErrors() {
		return false, &EvaluationError{Expression: e.src, Diagnostics: diags}
	}
	if val.Type() != cty.Bool {
		return false, &EvaluationError{Expression: e.src, Message: fmt.Sprintf("expression is not boolean, got %s", val.Type().FriendlyName())}
	}
	return val.True(), nil
}

// Substitute replaces free variables by other expressions and returns the
// resulting expression. Variables without a substitution are kept.
// Substituted expressions are parenthesized so operator precedence of the
// surrounding expression is preserved.
func (e *Expression) Substitute(substitutions map[string]*Expression) (*Expression, error) {
	tokens, diags := hclsyntax.LexExpression([]byte(e.src), "expression", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, &ParseError{Source: e.src, Diagnostics: diags}
	}

	var b strings.Builder
	for _, token := range tokens {
		if token.Type == hclsyntax.TokenEOF {
			break
		}
		if token.Type == hclsyntax.TokenIdent {
			if sub, ok := substitutions[string(token.Bytes)]; ok {
				b.WriteString("(")
				b.WriteString(sub.src)
				b.WriteString(")")
				b.WriteString(" ")
				continue
			}
		}
		b.Write(token.Bytes)
		b.WriteString(" ")
	}

	return MakeExpression(strings.TrimSpace(b.String()))
}

// Equal reports whether both expressions have the identical canonical token
// sequence. This is symbolic identity, not algebraic equivalence: "a+b" and
// "b+a" are not equal.
func (e *Expression) Equal(other *Expression) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.canonical == other.canonical
}

// Key returns the canonical form, usable as a map key.
func (e *Expression) Key() string {
	return e.canonical
}

// String returns the original source of the expression.
func (e *Expression) String() string {
	return e.src
}

// canonicalize renders the whitespace-insensitive token form of src.
func canonicalize(src string) (string, error) {
	tokens, diags := hclsyntax.LexExpression([]byte(src), "expression", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return "", &ParseError{Source: src, Diagnostics: diags}
	}

	parts := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token.Type == hclsyntax.TokenEOF {
			break
		}
		parts = append(parts, string(token.Bytes))
	}
	return strings.Join(parts, " "), nil
}
