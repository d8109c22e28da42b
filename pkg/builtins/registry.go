// Package builtins holds the registry of built-in functions. Compiled code
// references builtins by dense id, so the registry order is part of the wire
// format: new functions go at the end, and nothing is ever removed or
// reordered.
package builtins

import (
	"strings"

	"github.com/moorhen-dev/moorhen/pkg/program"
	"github.com/moorhen-dev/moorhen/pkg/value"
)

// Env is the slice of the running task a builtin may touch.
type Env interface {
	TaskID() int64
	Notify(player value.Objid, msg string) value.Error
}

// ResultKind says how the interpreter should proceed after a builtin call.
type ResultKind uint8

const (
	// RetValue: push the value and continue.
	RetValue ResultKind = iota
	// RetError: raise the error in the calling frame, honoring its debug
	// flag. Message and Value travel with the exception when set.
	RetError
	// Suspend: suspend the task. Value holds the delay in seconds, or is
	// None for an indefinite suspend.
	Suspend
)

// Result is the outcome of a builtin call.
type Result struct {
	Kind    ResultKind
	Value   value.Var
	Code    value.Error
	Message string
}

// Ret wraps a plain return value.
func Ret(v value.Var) Result {
	return Result{Kind: RetValue, Value: v}
}

// RaiseErr wraps an error raise with the code's default message.
func RaiseErr(code value.Error) Result {
	return Result{Kind: RetError, Code: code, Message: code.Message()}
}

// Func is the implementation of one builtin. Argument counts are checked by
// Dispatch before the function runs.
type Func func(env Env, args []value.Var) Result

// Desc describes one registered builtin. MaxArgs of -1 means variadic.
type Desc struct {
	Name    string
	MinArgs int
	MaxArgs int
	Fn      Func
}

var registry = []Desc{
	{"typeof", 1, 1, bfTypeof},
	{"tostr", 0, -1, bfTostr},
	{"toint", 1, 1, bfToint},
	{"tofloat", 1, 1, bfTofloat},
	{"toobj", 1, 1, bfToobj},
	{"length", 1, 1, bfLength},
	{"listappend", 2, 3, bfListappend},
	{"listinsert", 2, 3, bfListinsert},
	{"listdelete", 2, 2, bfListdelete},
	{"setadd", 2, 2, bfSetadd},
	{"setremove", 2, 2, bfSetremove},
	{"equal", 2, 2, bfEqual},
	{"raise", 1, 3, bfRaise},
	{"suspend", 0, 1, bfSuspend},
	{"time", 0, 0, bfTime},
	{"random", 0, 1, bfRandom},
	{"min", 1, -1, bfMin},
	{"max", 1, -1, bfMax},
	{"abs", 1, 1, bfAbs},
	{"notify", 2, 2, bfNotify},
	{"task_id", 0, 0, bfTaskID},
}

var byName = func() map[string]program.Builtin {
	m := make(map[string]program.Builtin, len(registry))
	for i, d := range registry {
		m[d.Name] = program.Builtin(i)
	}
	return m
}()

// Lookup resolves a function name to its id. Names are case-insensitive.
func Lookup(name string) (program.Builtin, bool) {
	id, ok := byName[strings.ToLower(name)]
	return id, ok
}

// Name returns the canonical name for an id.
func Name(id program.Builtin) (string, bool) {
	if int(id) >= len(registry) {
		return "", false
	}
	return registry[id].Name, true
}

// Dispatch runs the builtin with the given id, enforcing its arity.
func Dispatch(id program.Builtin, env Env, args []value.Var) Result {
	if int(id) >= len(registry) {
		return RaiseErr(value.E_INVARG)
	}
	d := registry[id]
	if len(args) < d.MinArgs || (d.MaxArgs >= 0 && len(args) > d.MaxArgs) {
		return RaiseErr(value.E_ARGS)
	}
	return d.Fn(env, args)
}
