package codegen

import "fmt"

// UnknownBuiltinError reports a call to a function the registry has no entry
// for. Verb calls are late-bound, builtin calls are not.
type UnknownBuiltinError struct {
	Name string
}

func (e *UnknownBuiltinError) Error() string {
	return fmt.Sprintf("codegen: unknown built-in function %q", e.Name)
}

// UnknownLoopError reports a labelled break or continue that names no
// enclosing loop.
type UnknownLoopError struct {
	Name string
}

func (e *UnknownLoopError) Error() string {
	return fmt.Sprintf("codegen: no enclosing loop named %q", e.Name)
}
