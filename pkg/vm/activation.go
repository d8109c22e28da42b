// Package vm executes compiled programs: an activation stack of frames, a
// single-instruction dispatch loop, and a handler-stack exception model with
// one unified unwind path for raises, returns, and loop exits.
package vm

import (
	"github.com/moorhen-dev/moorhen/pkg/program"
	"github.com/moorhen-dev/moorhen/pkg/value"
)

// handlerKind says what a handler-stack entry guards.
type handlerKind uint8

const (
	// handlerCatchLabel marks one catch arm: its codes list sits on the
	// value stack at push time, and Label is where the arm's code lives.
	handlerCatchLabel handlerKind = iota
	// handlerCatch groups the Count arm entries directly beneath it.
	handlerCatch
	// handlerFinally runs its label on any unwind crossing it.
	handlerFinally
)

type handler struct {
	kind        handlerKind
	label       program.Label
	count       int
	valstackPos int
}

// VerbDef is what the world resolves a verb call to.
type VerbDef struct {
	Program *program.Program
	Definer value.Objid
	Owner   value.Objid
	Name    string
	// Debug is the verb's d-bit: with it set, raised errors unwind as
	// exceptions; without it, they are pushed as plain error values.
	Debug bool
}

// activation is one frame on the task's call stack.
type activation struct {
	prog *program.Program
	// ops is the vector being executed: the main vector, or one fork
	// vector for a forked task.
	ops []program.Op
	pc  int

	valstack     []value.Var
	env          []value.Var
	temp         value.Var
	handlers     []handler
	finallyStack []finallyReason

	this        value.Objid
	player      value.Objid
	caller      value.Objid
	verb        string
	definer     value.Objid
	permissions value.Objid
	args        []value.Var
	debug       bool
}

func newActivation(vd *VerbDef, this, player, caller value.Objid, args []value.Var) *activation {
	a := &activation{
		prog:        vd.Program,
		ops:         vd.Program.MainVector,
		valstack:    make([]value.Var, 0, vd.Program.MaxStack),
		env:         make([]value.Var, vd.Program.VarNames.Width()),
		this:        this,
		player:      player,
		caller:      caller,
		verb:        vd.Name,
		definer:     vd.Definer,
		permissions: vd.Owner,
		args:        args,
		debug:       vd.Debug,
	}
	a.seedGlobals()
	return a
}

func (a *activation) seedGlobals() {
	set := func(n program.Name, v value.Var) {
		if int(n) < len(a.env) {
			a.env[n] = v
		}
	}
	set(program.GlobalPlayer, value.Obj(a.player))
	set(program.GlobalThis, value.Obj(a.this))
	set(program.GlobalCaller, value.Obj(a.caller))
	set(program.GlobalVerb, value.Str(a.verb))
	set(program.GlobalArgs, value.List(a.args...))
}

func (a *activation) push(v value.Var) {
	a.valstack = append(a.valstack, v)
}

func (a *activation) pop() value.Var {
	v := a.valstack[len(a.valstack)-1]
	a.valstack = a.valstack[:len(a.valstack)-1]
	return v
}

// peek returns the value n slots below the top without popping.
func (a *activation) peek(n int) value.Var {
	return a.valstack[len(a.valstack)-1-n]
}

// poke overwrites the value n slots below the top.
func (a *activation) poke(n int, v value.Var) {
	a.valstack[len(a.valstack)-1-n] = v
}

// truncate cuts the value stack down to the given length.
func (a *activation) truncate(n int) {
	a.valstack = a.valstack[:n]
}

func (a *activation) jump(l program.Label) {
	a.pc = int(a.prog.JumpPosition(l))
}

func (a *activation) pushHandler(kind handlerKind, label program.Label, count int) {
	a.handlers = append(a.handlers, handler{
		kind:        kind,
		label:       label,
		count:       count,
		valstackPos: len(a.valstack),
	})
}

func (a *activation) popHandler() handler {
	h := a.handlers[len(a.handlers)-1]
	a.handlers = a.handlers[:len(a.handlers)-1]
	return h
}
