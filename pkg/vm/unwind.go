package vm

import (
	"fmt"

	"github.com/moorhen-dev/moorhen/pkg/value"

	"github.com/moorhen-dev/moorhen/pkg/program"
)

// reasonKind classifies why the stack is unwinding.
type reasonKind uint8

const (
	reasonFallthrough reasonKind = iota
	reasonRaise
	reasonReturn
	reasonExit
	reasonAbort
)

// Language-visible reason codes: the second value a finally handler sees on
// its stack. Fixed numbering, visible to running programs.
const (
	unwindCodeRaise       = 0
	unwindCodeUncaught    = 1
	unwindCodeReturn      = 2
	unwindCodeAbort       = 3
	unwindCodeExit        = 4
	unwindCodeFallthrough = 5
)

// Exception is a raised error after it has left the frame that raised it.
type Exception struct {
	Code      value.Error
	Message   string
	Value     value.Var
	Backtrace []string
}

func (e *Exception) Error() string {
	return fmt.Sprintf("%s: %s", e.Code.Name(), e.Message)
}

// AsList renders the exception the way catch arms receive it: a four-element
// list of code, message, value and backtrace.
func (e *Exception) AsList() value.Var {
	bt := make([]value.Var, len(e.Backtrace))
	for i, line := range e.Backtrace {
		bt[i] = value.Str(line)
	}
	return value.List(value.Err(e.Code), value.Str(e.Message), e.Value, value.List(bt...))
}

// finallyReason carries an in-flight unwind. When a finally handler
// intercepts one, the reason parks on the frame's finally stack until
// FinallyContinue resumes it.
type finallyReason struct {
	kind  reasonKind
	value value.Var // return value
	exc   *Exception
	stack program.Offset // exit: valstack depth to cut to
	label program.Label  // exit: where to resume
}

// unwindValues is what a finally handler finds on its value stack: the
// payload and the reason code.
func (r *finallyReason) unwindValues() (value.Var, value.Var) {
	switch r.kind {
	case reasonRaise:
		return r.exc.AsList(), value.Int(unwindCodeRaise)
	case reasonReturn:
		return r.value, value.Int(unwindCodeReturn)
	case reasonExit:
		return value.Int(0), value.Int(unwindCodeExit)
	case reasonAbort:
		return value.Int(0), value.Int(unwindCodeAbort)
	default:
		return value.Int(0), value.Int(unwindCodeFallthrough)
	}
}

// backtrace renders one line per live activation, innermost first.
func (s *State) backtrace() []string {
	lines := make([]string, 0, len(s.stack))
	for i := len(s.stack) - 1; i >= 0; i-- {
		a := s.stack[i]
		lines = append(lines, fmt.Sprintf("#%d:%s", a.this, a.verb))
	}
	return lines
}

// pushError raises code in the current frame if its debug bit is set, and
// otherwise pushes the code as a plain value and continues.
func (s *State) pushError(code value.Error) *execResult {
	return s.pushErrorMsg(code, code.Message(), value.None())
}

func (s *State) pushErrorMsg(code value.Error, msg string, v value.Var) *execResult {
	a := s.top()
	if a.debug {
		return s.raise(&Exception{Code: code, Message: msg, Value: v, Backtrace: s.backtrace()})
	}
	a.push(value.Err(code))
	return nil
}

// raise starts a raise unwind from the current frame.
func (s *State) raise(exc *Exception) *execResult {
	return s.unwind(finallyReason{kind: reasonRaise, exc: exc})
}

// interceptFinally diverts an unwind into a finally handler. The handler has
// already been popped; execution resumes at its label with the reason's
// payload and code on the stack, and the reason itself parked for
// FinallyContinue.
func (a *activation) interceptFinally(h handler, r finallyReason) {
	a.truncate(h.valstackPos)
	v, code := r.unwindValues()
	a.push(v)
	a.push(code)
	a.finallyStack = append(a.finallyStack, r)
	a.jump(h.label)
}

// matchCatch scans the arms of a catch handler for one whose codes cover the
// exception. Arm codes live on the value stack beneath the handler: a list
// of error values, or the integer 0 meaning any error.
func (a *activation) matchCatch(h handler, code value.Error) (program.Label, bool) {
	base := h.valstackPos - h.count
	// The arm entries sit directly beneath the group entry, pushed in
	// source order.
	arms := a.handlers[len(a.handlers)-h.count:]
	for i := 0; i < h.count; i++ {
		codes := a.valstack[base+i]
		if codesMatch(codes, code) {
			return arms[i].label, true
		}
	}
	return 0, false
}

func codesMatch(codes value.Var, code value.Error) bool {
	if codes.Type() != value.TypeList {
		// The "any" marker.
		return true
	}
	for _, c := range codes.ListItems() {
		if c.Type() == value.TypeErr && c.Err() == code {
			return true
		}
	}
	return false
}

// unwind walks handler stacks and activations until the reason is consumed:
// a finally handler intercepts it, a catch handler matches it, a return
// lands in the caller, or the task completes. A nil result means execution
// continues; otherwise the task is done.
func (s *State) unwind(r finallyReason) *execResult {
	for len(s.stack) > 0 {
		a := s.top()
		for len(a.handlers) > 0 {
			h := a.popHandler()
			switch h.kind {
			case handlerFinally:
				if r.kind == reasonAbort {
					continue
				}
				a.interceptFinally(h, r)
				return nil

			case handlerCatch:
				if r.kind != reasonRaise {
					// Returns and exits pass straight through
					// catch handlers; drop the arm entries too.
					a.handlers = a.handlers[:len(a.handlers)-h.count]
					continue
				}
				label, ok := a.matchCatch(h, r.exc.Code)
				a.handlers = a.handlers[:len(a.handlers)-h.count]
				if !ok {
					continue
				}
				// Cut away the codes lists and anything the
				// protected code left, then deliver the
				// exception to the arm.
				a.truncate(h.valstackPos - h.count)
				a.push(r.exc.AsList())
				a.jump(label)
				return nil

			case handlerCatchLabel:
				// Reached only when its group entry was never
				// pushed, meaning the protected body is still
				// being set up; nothing to do.
			}
		}

		switch r.kind {
		case reasonExit:
			// Exits never cross frames; the handlers above the
			// target were consumed, so land the jump here.
			a.truncate(int(r.stack))
			a.jump(r.label)
			return nil

		case reasonReturn:
			s.stack = s.stack[:len(s.stack)-1]
			if len(s.stack) == 0 {
				return &execResult{kind: execComplete, value: r.value}
			}
			// The caller's CallVerb or Pass left the stack ready
			// for the result.
			s.top().push(r.value)
			return nil

		default:
			s.stack = s.stack[:len(s.stack)-1]
		}
	}

	if r.kind == reasonRaise {
		return &execResult{kind: execException, exc: r.exc}
	}
	return &execResult{kind: execAborted}
}

// exitLoop handles break and continue: unwind within the current frame down
// to the loop's stack depth, running any finally handlers on the way. Every
// try construct holds a marker slot at or above the depth of any loop inside
// it, so the position comparison cleanly separates handlers the exit crosses
// from handlers wrapped around the loop.
func (s *State) exitLoop(stack program.Offset, label program.Label) *execResult {
	a := s.top()
	for len(a.handlers) > 0 && a.handlers[len(a.handlers)-1].valstackPos >= int(stack) {
		h := a.popHandler()
		switch h.kind {
		case handlerFinally:
			a.interceptFinally(h, finallyReason{kind: reasonExit, stack: stack, label: label})
			return nil
		case handlerCatch:
			a.handlers = a.handlers[:len(a.handlers)-h.count]
		}
	}
	a.truncate(int(stack))
	a.jump(label)
	return nil
}
