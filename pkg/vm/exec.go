package vm

import (
	"github.com/moorhen-dev/moorhen/pkg/builtins"
	"github.com/moorhen-dev/moorhen/pkg/program"
	"github.com/moorhen-dev/moorhen/pkg/value"
)

type execKind uint8

const (
	execComplete execKind = iota
	execException
	execAborted
	execSuspend
	execFork
)

// execResult is what the interpreter hands back to the host when a task
// stops running, even momentarily. A nil *execResult from exec means the
// tick slice ran out with the task still runnable.
type execResult struct {
	kind       execKind
	value      value.Var
	exc        *Exception
	fork       *Fork
	suspendFor value.Var
}

// Fork is a fork statement caught in flight: everything the scheduler needs
// to start the branch as its own task.
type Fork struct {
	// Delay is the fork's delay expression value, in seconds.
	Delay value.Var

	fv        program.Offset
	taskIDVar *program.Name
	prog      *program.Program
	env       []value.Var
	this      value.Objid
	player    value.Objid
	caller    value.Objid
	verb      string
	definer   value.Objid
	perms     value.Objid
	debug     bool
}

// State is one task's execution state: its activation stack and tick
// accounting. It is not safe for concurrent use.
type State struct {
	taskID        int64
	world         WorldState
	stack         []*activation
	tickCount     uint64
	maxStackDepth int
}

func (s *State) top() *activation {
	return s.stack[len(s.stack)-1]
}

// bfEnv adapts the task state to the builtins' view of it.
type bfEnv struct{ s *State }

func (e bfEnv) TaskID() int64 { return e.s.taskID }

func (e bfEnv) Notify(player value.Objid, msg string) value.Error {
	return e.s.world.Notify(player, msg)
}

// exec runs up to tickSlice instructions. It returns nil when the slice is
// exhausted and the task should be rescheduled, or a result when the task
// completed, suspended, forked, or blew up.
func (s *State) exec(tickSlice uint64) *execResult {
	for ticks := uint64(0); ticks < tickSlice; ticks++ {
		s.tickCount++
		a := s.top()
		if a.pc >= len(a.ops) {
			// Falling off a vector is a compiler bug; every vector
			// ends in Done.
			return &execResult{kind: execAborted}
		}
		op := a.ops[a.pc]
		a.pc++
		if r := s.step(a, op); r != nil {
			return r
		}
	}
	return nil
}

func (s *State) step(a *activation, op program.Op) *execResult {
	switch op.Code {
	case program.OpImmNone:
		a.push(value.None())
	case program.OpImmInt:
		a.push(value.Int(op.Int))
	case program.OpImmFloat:
		a.push(value.Float(op.Float))
	case program.OpImmErr:
		a.push(value.Err(op.Err))
	case program.OpImmObjid:
		a.push(value.Obj(value.Objid(op.Int)))
	case program.OpImmEmptyList:
		a.push(value.List())
	case program.OpImm:
		a.push(a.prog.FindLiteral(op.Literal))

	case program.OpPush:
		v := a.env[op.Name]
		if v.IsNone() {
			return s.pushError(value.E_VARNF)
		}
		a.push(v)
	case program.OpPut:
		a.env[op.Name] = a.peek(0)
	case program.OpPop:
		a.pop()

	case program.OpIf, program.OpEif, program.OpIfQues, program.OpWhile:
		if !a.pop().IsTrue() {
			a.jump(op.Label)
		}
	case program.OpWhileID:
		v := a.pop()
		a.env[op.Name] = v
		if !v.IsTrue() {
			a.jump(op.Label)
		}
	case program.OpJump:
		a.jump(op.Label)

	case program.OpForList:
		list, counter := a.peek(1), a.peek(0)
		if list.Type() != value.TypeList {
			a.pop()
			a.pop()
			a.jump(op.Label)
			return s.pushError(value.E_TYPE)
		}
		items := list.ListItems()
		i := counter.Int()
		if i >= int64(len(items)) {
			a.pop()
			a.pop()
			a.jump(op.Label)
			break
		}
		a.env[op.Name] = items[i]
		a.poke(0, value.Int(i+1))

	case program.OpForRange:
		from, to := a.peek(1), a.peek(0)
		ft, tt := from.Type(), to.Type()
		if ft != tt || (ft != value.TypeInt && ft != value.TypeObj) {
			a.pop()
			a.pop()
			a.jump(op.Label)
			return s.pushError(value.E_TYPE)
		}
		if from.Int() > to.Int() {
			a.pop()
			a.pop()
			a.jump(op.Label)
			break
		}
		a.env[op.Name] = from
		if ft == value.TypeInt {
			a.poke(1, value.Int(from.Int()+1))
		} else {
			a.poke(1, value.Obj(from.Obj()+1))
		}

	case program.OpExit, program.OpExitID:
		return s.exitLoop(op.Stack, op.Label)

	case program.OpFork:
		delay := a.pop()
		switch delay.Type() {
		case value.TypeInt, value.TypeFloat:
		default:
			return s.pushError(value.E_TYPE)
		}
		if (delay.Type() == value.TypeInt && delay.Int() < 0) ||
			(delay.Type() == value.TypeFloat && delay.Float() < 0) {
			return s.pushError(value.E_INVARG)
		}
		env := make([]value.Var, len(a.env))
		copy(env, a.env)
		return &execResult{kind: execFork, fork: &Fork{
			Delay:     delay,
			fv:        op.FV,
			taskIDVar: op.NameOpt,
			prog:      a.prog,
			env:       env,
			this:      a.this,
			player:    a.player,
			caller:    a.caller,
			verb:      a.verb,
			definer:   a.definer,
			perms:     a.permissions,
			debug:     a.debug,
		}}

	case program.OpAnd:
		if !a.peek(0).IsTrue() {
			a.jump(op.Label)
		} else {
			a.pop()
		}
	case program.OpOr:
		if a.peek(0).IsTrue() {
			a.jump(op.Label)
		} else {
			a.pop()
		}
	case program.OpNot:
		a.push(value.Bool(!a.pop().IsTrue()))
	case program.OpUnaryMinus:
		v, errc := a.pop().Negate()
		if errc != value.E_NONE {
			return s.pushError(errc)
		}
		a.push(v)

	case program.OpEq:
		rhs, lhs := a.pop(), a.pop()
		a.push(value.Bool(lhs.Equal(rhs)))
	case program.OpNe:
		rhs, lhs := a.pop(), a.pop()
		a.push(value.Bool(!lhs.Equal(rhs)))
	case program.OpLt, program.OpLe, program.OpGt, program.OpGe:
		rhs, lhs := a.pop(), a.pop()
		c, errc := lhs.Compare(rhs)
		if errc != value.E_NONE {
			return s.pushError(errc)
		}
		var ok bool
		switch op.Code {
		case program.OpLt:
			ok = c < 0
		case program.OpLe:
			ok = c <= 0
		case program.OpGt:
			ok = c > 0
		case program.OpGe:
			ok = c >= 0
		}
		a.push(value.Bool(ok))
	case program.OpIn:
		rhs, lhs := a.pop(), a.pop()
		v, errc := lhs.IndexIn(rhs)
		if errc != value.E_NONE {
			return s.pushError(errc)
		}
		a.push(v)

	case program.OpAdd, program.OpSub, program.OpMul, program.OpDiv, program.OpMod, program.OpExp:
		rhs, lhs := a.pop(), a.pop()
		var v value.Var
		var errc value.Error
		switch op.Code {
		case program.OpAdd:
			v, errc = lhs.Add(rhs)
		case program.OpSub:
			v, errc = lhs.Sub(rhs)
		case program.OpMul:
			v, errc = lhs.Mul(rhs)
		case program.OpDiv:
			v, errc = lhs.Div(rhs)
		case program.OpMod:
			v, errc = lhs.Mod(rhs)
		case program.OpExp:
			v, errc = lhs.Pow(rhs)
		}
		if errc != value.E_NONE {
			return s.pushError(errc)
		}
		a.push(v)

	case program.OpRef:
		index, base := a.pop(), a.pop()
		v, errc := refIndex(base, index)
		if errc != value.E_NONE {
			return s.pushError(errc)
		}
		a.push(v)
	case program.OpPushRef:
		v, errc := refIndex(a.peek(1), a.peek(0))
		if errc != value.E_NONE {
			return s.pushError(errc)
		}
		a.push(v)
	case program.OpRangeRef:
		to, from, base := a.pop(), a.pop(), a.pop()
		if from.Type() != value.TypeInt || to.Type() != value.TypeInt {
			return s.pushError(value.E_TYPE)
		}
		v, errc := base.Range(from.Int(), to.Int())
		if errc != value.E_NONE {
			return s.pushError(errc)
		}
		a.push(v)

	case program.OpIndexSet:
		val, index, base := a.pop(), a.pop(), a.pop()
		if index.Type() != value.TypeInt {
			return s.pushError(value.E_TYPE)
		}
		v, errc := base.IndexSet(index.Int(), val)
		if errc != value.E_NONE {
			return s.pushError(errc)
		}
		a.push(v)
	case program.OpRangeSet:
		val, to, from, base := a.pop(), a.pop(), a.pop(), a.pop()
		if from.Type() != value.TypeInt || to.Type() != value.TypeInt {
			return s.pushError(value.E_TYPE)
		}
		v, errc := base.RangeSet(val, from.Int(), to.Int())
		if errc != value.E_NONE {
			return s.pushError(errc)
		}
		a.push(v)

	case program.OpLength:
		n, errc := a.valstack[op.Stack].Len()
		if errc != value.E_NONE {
			return s.pushError(errc)
		}
		a.push(value.Int(n))
	case program.OpPutTemp:
		a.temp = a.peek(0)
	case program.OpPushTemp:
		a.push(a.temp)
		a.temp = value.None()

	case program.OpMakeSingletonList:
		a.push(value.List(a.pop()))
	case program.OpCheckListForSplice:
		if a.peek(0).Type() != value.TypeList {
			a.pop()
			return s.pushError(value.E_TYPE)
		}
	case program.OpListAddTail:
		tail, list := a.pop(), a.pop()
		v, errc := list.ListPush(tail)
		if errc != value.E_NONE {
			return s.pushError(errc)
		}
		a.push(v)
	case program.OpListAppend:
		tail, list := a.pop(), a.pop()
		v, errc := list.ListConcat(tail)
		if errc != value.E_NONE {
			return s.pushError(errc)
		}
		a.push(v)

	case program.OpGetProp:
		name, obj := a.pop(), a.pop()
		v, errc := s.getProp(obj, name)
		if errc != value.E_NONE {
			return s.pushError(errc)
		}
		a.push(v)
	case program.OpPushGetProp:
		v, errc := s.getProp(a.peek(1), a.peek(0))
		if errc != value.E_NONE {
			return s.pushError(errc)
		}
		a.push(v)
	case program.OpPutProp:
		val, name, obj := a.pop(), a.pop(), a.pop()
		if obj.Type() != value.TypeObj || name.Type() != value.TypeStr {
			return s.pushError(value.E_TYPE)
		}
		if errc := s.world.SetProperty(obj.Obj(), name.Str(), val); errc != value.E_NONE {
			return s.pushError(errc)
		}
		a.push(val)

	case program.OpCallVerb:
		args, name, obj := a.pop(), a.pop(), a.pop()
		if obj.Type() != value.TypeObj || name.Type() != value.TypeStr || args.Type() != value.TypeList {
			return s.pushError(value.E_TYPE)
		}
		vd, errc := s.world.FindVerb(obj.Obj(), name.Str())
		if errc != value.E_NONE {
			return s.pushError(errc)
		}
		return s.call(vd, obj.Obj(), args.ListItems())

	case program.OpPass:
		args := a.pop()
		if args.Type() != value.TypeList {
			return s.pushError(value.E_TYPE)
		}
		vd, errc := s.world.FindVerbAbove(a.definer, a.verb)
		if errc != value.E_NONE {
			return s.pushError(errc)
		}
		// `this` stays put; only the definer moves up the chain.
		return s.call(vd, a.this, args.ListItems())

	case program.OpFuncCall:
		args := a.pop()
		if args.Type() != value.TypeList {
			return s.pushError(value.E_TYPE)
		}
		r := builtins.Dispatch(op.Builtin, bfEnv{s}, args.ListItems())
		switch r.Kind {
		case builtins.RetValue:
			a.push(r.Value)
		case builtins.RetError:
			return s.pushErrorMsg(r.Code, r.Message, r.Value)
		case builtins.Suspend:
			return &execResult{kind: execSuspend, suspendFor: r.Value}
		}

	case program.OpReturn:
		return s.unwind(finallyReason{kind: reasonReturn, value: a.pop()})
	case program.OpReturn0, program.OpDone:
		return s.unwind(finallyReason{kind: reasonReturn, value: value.Int(0)})

	case program.OpPushCatchLabel:
		a.pushHandler(handlerCatchLabel, op.Label, 0)
	// Each try construct owns a marker slot on the value stack, pushed
	// right after its handler records the position beneath it. The marker
	// keeps handler positions strictly ordered against the depths that
	// loop exits unwind to.
	case program.OpTryExcept:
		a.pushHandler(handlerCatch, 0, int(op.Count))
		a.push(value.None())
	case program.OpTryCatch:
		a.pushHandler(handlerCatch, 0, 1)
		a.push(value.None())
	case program.OpTryFinally:
		a.pushHandler(handlerFinally, op.Label, 0)
		a.push(value.None())

	case program.OpEndCatch:
		v := a.pop()
		h := a.popHandler()
		a.popHandler()
		// Drop the marker and the codes list beneath it.
		a.truncate(h.valstackPos - h.count)
		a.push(v)
		a.jump(op.Label)
	case program.OpEndExcept:
		h := a.popHandler()
		a.handlers = a.handlers[:len(a.handlers)-h.count]
		a.truncate(h.valstackPos - h.count)
		a.jump(op.Label)
	case program.OpEndFinally:
		h := a.popHandler()
		r := finallyReason{kind: reasonFallthrough}
		v, code := r.unwindValues()
		a.truncate(h.valstackPos)
		a.push(v)
		a.push(code)
		a.finallyStack = append(a.finallyStack, r)
	case program.OpFinallyContinue:
		a.pop()
		a.pop()
		r := a.finallyStack[len(a.finallyStack)-1]
		a.finallyStack = a.finallyStack[:len(a.finallyStack)-1]
		switch r.kind {
		case reasonFallthrough:
		case reasonExit:
			return s.exitLoop(r.stack, r.label)
		default:
			return s.unwind(r)
		}

	case program.OpScatter:
		return s.scatter(a, op.Scatter)

	default:
		return &execResult{kind: execAborted}
	}
	return nil
}

// refIndex implements `base[index]` for Ref and PushRef; catch arms also
// index into caught exception lists with it.
func refIndex(base, index value.Var) (value.Var, value.Error) {
	if index.Type() != value.TypeInt {
		return value.Var{}, value.E_TYPE
	}
	return base.Index(index.Int())
}

func (s *State) getProp(obj, name value.Var) (value.Var, value.Error) {
	if obj.Type() != value.TypeObj || name.Type() != value.TypeStr {
		return value.Var{}, value.E_TYPE
	}
	return s.world.GetProperty(obj.Obj(), name.Str())
}

// call pushes a new activation for a resolved verb. The caller's frame has
// already consumed the call operands; the return value arrives via the
// return unwind.
func (s *State) call(vd *VerbDef, this value.Objid, args []value.Var) *execResult {
	if len(s.stack) >= s.maxStackDepth {
		return s.pushError(value.E_MAXREC)
	}
	caller := s.top().this
	player := s.top().player
	s.stack = append(s.stack, newActivation(vd, this, player, caller, args))
	return nil
}

// scatter destructures the list on top of the stack into the targets; the
// list itself stays put as the expression's value.
func (s *State) scatter(a *activation, sc *program.ScatterArgs) *execResult {
	list := a.peek(0)
	if list.Type() != value.TypeList {
		return s.pushError(value.E_TYPE)
	}
	items := list.ListItems()
	nargs := sc.NArgs()
	nreq := sc.NReq()
	haveRest := sc.RestIndex() <= nargs
	n := len(items)

	if n < nreq || (!haveRest && n > nargs) {
		return s.pushError(value.E_ARGS)
	}
	noptAvail := n - nreq
	nrest := 0
	if haveRest && n >= nargs {
		nrest = n - nargs + 1
	}

	var jumpTo *program.Label
	idx := 0
	for _, target := range sc.Labels {
		switch target.Kind {
		case program.ScatterRequired:
			a.env[target.ID] = items[idx]
			idx++
		case program.ScatterRest:
			rest := make([]value.Var, nrest)
			copy(rest, items[idx:idx+nrest])
			idx += nrest
			a.env[target.ID] = value.List(rest...)
		case program.ScatterOptional:
			if noptAvail > 0 {
				noptAvail--
				a.env[target.ID] = items[idx]
				idx++
			} else if jumpTo == nil && target.Label != nil {
				// Unfilled optionals form a suffix; their default
				// blocks run in sequence from the first one.
				jumpTo = target.Label
			}
		}
	}
	if jumpTo != nil {
		a.jump(*jumpTo)
	} else {
		a.jump(sc.Done)
	}
	return nil
}
