package value

import (
	"fmt"
	"strings"
)

// Error is one of the closed set of language-level error codes. Errors are
// ordinary runtime values: operations that fail produce them in place of a
// result, and try/except matches on them by value equality.
type Error uint8

const (
	E_NONE Error = iota
	E_TYPE
	E_DIV
	E_PERM
	E_PROPNF
	E_VERBNF
	E_VARNF
	E_INVIND
	E_RECMOVE
	E_MAXREC
	E_RANGE
	E_ARGS
	E_NACC
	E_INVARG
	E_QUOTA
	E_FLOAT

	numErrors
)

var errNames = [numErrors]string{
	"E_NONE", "E_TYPE", "E_DIV", "E_PERM", "E_PROPNF", "E_VERBNF",
	"E_VARNF", "E_INVIND", "E_RECMOVE", "E_MAXREC", "E_RANGE", "E_ARGS",
	"E_NACC", "E_INVARG", "E_QUOTA", "E_FLOAT",
}

var errMessages = [numErrors]string{
	"No error",
	"Type mismatch",
	"Division by zero",
	"Permission denied",
	"Property not found",
	"Verb not found",
	"Variable not found",
	"Invalid indirection",
	"Recursive move",
	"Too many verb calls",
	"Range error",
	"Incorrect number of arguments",
	"Move refused by destination",
	"Invalid argument",
	"Resource limit exceeded",
	"Floating-point arithmetic error",
}

// Name returns the source-level spelling of the code, e.g. "E_TYPE".
func (e Error) Name() string {
	if e >= numErrors {
		return fmt.Sprintf("E_?%d", uint8(e))
	}
	return errNames[e]
}

// Message returns the default human-readable message for the code.
func (e Error) Message() string {
	if e >= numErrors {
		return "Unknown error"
	}
	return errMessages[e]
}

func (e Error) String() string { return e.Name() }

// ParseError resolves a source-level error name ("E_TYPE", case-insensitive)
// back to its code.
func ParseError(name string) (Error, bool) {
	for i, n := range errNames {
		if strings.EqualFold(n, name) {
			return Error(i), true
		}
	}
	return E_NONE, false
}
