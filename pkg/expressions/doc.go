// Package expressions provides symbolic scalar expressions over named
// parameters. Expressions are written in HCL expression syntax and are
// evaluated against a numeric parameter binding. Two expressions are
// considered the same only if their canonical token sequences are
// identical; numeric coincidence under one binding is not equality.
package expressions
