// Package decompile reconstructs syntax trees from compiled programs. It is
// the inverse of codegen: a walk over the instruction stream with a small
// expression stack, consuming the jump labels the generator laid down and
// rebuilding the statement structure they imply. Instruction streams that
// did not come out of the generator are reported as malformed, never guessed
// at.
package decompile

import (
	"github.com/moorhen-dev/moorhen/pkg/ast"
	"github.com/moorhen-dev/moorhen/pkg/builtins"
	"github.com/moorhen-dev/moorhen/pkg/program"
	"github.com/moorhen-dev/moorhen/pkg/value"
)

type decompiler struct {
	prog *program.Program
	// ops is the vector being decompiled: the main vector, or one fork
	// vector for a fork body.
	ops []program.Op
	pos int

	exprs []ast.Expr
	stmts []ast.Stmt
}

// Program reconstructs the statement list a program was compiled from.
func Program(p *program.Program) ([]ast.Stmt, error) {
	d := &decompiler{prog: p, ops: p.MainVector}
	if err := d.run(); err != nil {
		return nil, err
	}
	return d.stmts, nil
}

func (d *decompiler) run() error {
	for d.pos < len(d.ops) {
		if err := d.step(); err != nil {
			return err
		}
	}
	return nil
}

func (d *decompiler) next() (program.Op, error) {
	if d.pos >= len(d.ops) {
		return program.Op{}, ErrUnexpectedEnd
	}
	op := d.ops[d.pos]
	d.pos++
	return op, nil
}

func (d *decompiler) pushExpr(e ast.Expr) {
	d.exprs = append(d.exprs, e)
}

func (d *decompiler) popExpr() (ast.Expr, error) {
	if len(d.exprs) == 0 {
		return nil, malformed("expected expression on stack at %d", d.pos)
	}
	e := d.exprs[len(d.exprs)-1]
	d.exprs = d.exprs[:len(d.exprs)-1]
	return e, nil
}

func (d *decompiler) findJump(l program.Label) (program.JumpLabel, error) {
	jl, ok := d.prog.FindJump(l)
	if !ok {
		return program.JumpLabel{}, &UnknownLabelError{Label: l}
	}
	return jl, nil
}

func (d *decompiler) name(n program.Name) (string, error) {
	s, ok := d.prog.VarNames.NameOf(n)
	if !ok {
		return "", &UnknownNameError{Name: n}
	}
	return s, nil
}

// splitOff removes and returns the statements accumulated past the mark.
func (d *decompiler) splitOff(mark int) []ast.Stmt {
	out := append([]ast.Stmt(nil), d.stmts[mark:]...)
	d.stmts = d.stmts[:mark]
	return out
}

// stmtsUntilMatch decompiles until the predicate matches an upcoming
// instruction, consuming the match and returning it alongside the statements
// produced on the way.
func (d *decompiler) stmtsUntilMatch(pred func(pos int, op program.Op) bool) ([]ast.Stmt, program.Op, error) {
	mark := len(d.stmts)
	for d.pos < len(d.ops) {
		if pred(d.pos, d.ops[d.pos]) {
			op, err := d.next()
			if err != nil {
				return nil, program.Op{}, err
			}
			return d.splitOff(mark), op, nil
		}
		if err := d.step(); err != nil {
			return nil, program.Op{}, err
		}
	}
	return nil, program.Op{}, ErrUnexpectedEnd
}

func (d *decompiler) stmtsSubOffset(l program.Label, offset int) ([]ast.Stmt, error) {
	jl, err := d.findJump(l)
	if err != nil {
		return nil, err
	}
	mark := len(d.stmts)
	for d.pos+offset < int(jl.Position) {
		if err := d.step(); err != nil {
			return nil, err
		}
	}
	return d.splitOff(mark), nil
}

// stmtsUpTo decompiles up to the label position, exclusive of the
// instruction right before it.
func (d *decompiler) stmtsUpTo(l program.Label) ([]ast.Stmt, error) {
	return d.stmtsSubOffset(l, 1)
}

// stmtsUntil decompiles everything before the label position.
func (d *decompiler) stmtsUntil(l program.Label) ([]ast.Stmt, error) {
	return d.stmtsSubOffset(l, 0)
}

// stmtsUntilBranchEnd decompiles a branch arm: everything before the label,
// where the last instruction must be the generator's jump to the end of the
// whole construct. Returns the arm and that end label.
func (d *decompiler) stmtsUntilBranchEnd(l program.Label) ([]ast.Stmt, program.Label, error) {
	jl, err := d.findJump(l)
	if err != nil {
		return nil, 0, err
	}
	mark := len(d.stmts)
	for d.pos+1 < int(jl.Position) {
		if err := d.step(); err != nil {
			return nil, 0, err
		}
	}
	op, err := d.next()
	if err != nil {
		return nil, 0, err
	}
	if op.Code != program.OpJump {
		return nil, 0, malformed("expected jump at branch end, got %s", op.Code)
	}
	return d.splitOff(mark), op.Label, nil
}

// skipPastPushTemp advances past the store chain an indexed assignment
// leaves behind; the lvalue structure is already encoded in the expressions
// the chain consumed.
func (d *decompiler) skipPastPushTemp() error {
	for d.pos < len(d.ops) {
		op, err := d.next()
		if err != nil {
			return err
		}
		if op.Code == program.OpPushTemp {
			return nil
		}
	}
	return ErrUnexpectedEnd
}

func argsOf(e ast.Expr) ([]ast.Arg, error) {
	list, ok := e.(*ast.ListExpr)
	if !ok {
		return nil, malformed("expected argument list, got %T", e)
	}
	return list.Args, nil
}

// catchCodes maps a reconstructed code-set expression back to its source
// form: the generator compiles "any" to a bare integer and an explicit set
// to a list.
func catchCodes(e ast.Expr) (ast.CatchCodes, error) {
	switch e := e.(type) {
	case *ast.VarExpr:
		return ast.CatchCodes{Any: true}, nil
	case *ast.ListExpr:
		return ast.CatchCodes{Codes: e.Args}, nil
	default:
		return ast.CatchCodes{}, malformed("invalid catch codes %T", e)
	}
}

var binaryOps = map[program.Opcode]ast.BinaryOp{
	program.OpAdd: ast.BinAdd,
	program.OpSub: ast.BinSub,
	program.OpMul: ast.BinMul,
	program.OpDiv: ast.BinDiv,
	program.OpMod: ast.BinMod,
	program.OpExp: ast.BinExp,
	program.OpEq:  ast.BinEq,
	program.OpNe:  ast.BinNe,
	program.OpLt:  ast.BinLt,
	program.OpLe:  ast.BinLe,
	program.OpGt:  ast.BinGt,
	program.OpGe:  ast.BinGe,
	program.OpIn:  ast.BinIn,
}

func (d *decompiler) step() error {
	op, err := d.next()
	if err != nil {
		return err
	}

	switch op.Code {
	case program.OpImmNone:
		d.pushExpr(&ast.VarExpr{Value: value.None()})
	case program.OpImmInt:
		d.pushExpr(&ast.VarExpr{Value: value.Int(op.Int)})
	case program.OpImmFloat:
		d.pushExpr(&ast.VarExpr{Value: value.Float(op.Float)})
	case program.OpImmErr:
		d.pushExpr(&ast.VarExpr{Value: value.Err(op.Err)})
	case program.OpImmObjid:
		d.pushExpr(&ast.VarExpr{Value: value.Obj(value.Objid(op.Int))})
	case program.OpImm:
		d.pushExpr(&ast.VarExpr{Value: d.prog.FindLiteral(op.Literal)})
	case program.OpImmEmptyList:
		d.pushExpr(&ast.ListExpr{})

	case program.OpPush:
		name, err := d.name(op.Name)
		if err != nil {
			return err
		}
		d.pushExpr(&ast.ID{Name: name})

	case program.OpPut:
		e, err := d.popExpr()
		if err != nil {
			return err
		}
		name, err := d.name(op.Name)
		if err != nil {
			return err
		}
		d.pushExpr(&ast.Assign{Left: &ast.ID{Name: name}, Right: e})

	case program.OpPop:
		e, err := d.popExpr()
		if err != nil {
			return err
		}
		d.stmts = append(d.stmts, &ast.ExprStmt{Expr: e})

	case program.OpIf:
		cond, err := d.popExpr()
		if err != nil {
			return err
		}
		arm, end, err := d.stmtsUntilBranchEnd(op.Label)
		if err != nil {
			return err
		}
		c := &ast.Cond{Arms: []ast.CondArm{{Condition: cond, Statements: arm}}}
		d.stmts = append(d.stmts, c)
		// Elseif arms decompiled on the way to the end label append
		// themselves to c; everything else is the else body.
		otherwise, err := d.stmtsUntil(end)
		if err != nil {
			return err
		}
		c.Otherwise = otherwise

	case program.OpEif:
		cond, err := d.popExpr()
		if err != nil {
			return err
		}
		arm, _, err := d.stmtsUntilBranchEnd(op.Label)
		if err != nil {
			return err
		}
		if len(d.stmts) == 0 {
			return malformed("elseif with no working if")
		}
		c, ok := d.stmts[len(d.stmts)-1].(*ast.Cond)
		if !ok {
			return malformed("elseif with no working if")
		}
		c.Arms = append(c.Arms, ast.CondArm{Condition: cond, Statements: arm})

	case program.OpWhile, program.OpWhileID:
		cond, err := d.popExpr()
		if err != nil {
			return err
		}
		body, _, err := d.stmtsUntilBranchEnd(op.Label)
		if err != nil {
			return err
		}
		w := &ast.While{Condition: cond, Body: body}
		if op.Code == program.OpWhileID {
			if w.ID, err = d.name(op.Name); err != nil {
				return err
			}
		}
		d.stmts = append(d.stmts, w)

	case program.OpForList:
		counter, err := d.popExpr()
		if err != nil {
			return err
		}
		seed, ok := counter.(*ast.VarExpr)
		if !ok || seed.Value.Type() != value.TypeInt || seed.Value.Int() != 0 {
			return malformed("expected loop counter seed before ForList")
		}
		list, err := d.popExpr()
		if err != nil {
			return err
		}
		body, _, err := d.stmtsUntilBranchEnd(op.Label)
		if err != nil {
			return err
		}
		id, err := d.name(op.Name)
		if err != nil {
			return err
		}
		d.stmts = append(d.stmts, &ast.ForList{ID: id, Expr: list, Body: body})

	case program.OpForRange:
		to, err := d.popExpr()
		if err != nil {
			return err
		}
		from, err := d.popExpr()
		if err != nil {
			return err
		}
		body, _, err := d.stmtsUntilBranchEnd(op.Label)
		if err != nil {
			return err
		}
		id, err := d.name(op.Name)
		if err != nil {
			return err
		}
		d.stmts = append(d.stmts, &ast.ForRange{ID: id, From: from, To: to, Body: body})

	case program.OpExit, program.OpExitID:
		jl, err := d.findJump(op.Label)
		if err != nil {
			return err
		}
		var exit string
		if op.Code == program.OpExitID {
			if jl.Name == nil {
				return malformed("named exit to an anonymous label")
			}
			if exit, err = d.name(*jl.Name); err != nil {
				return err
			}
		}
		// A backward jump restarts the loop, a forward one leaves it.
		if int(jl.Position) < d.pos {
			d.stmts = append(d.stmts, &ast.Continue{Exit: exit})
		} else {
			d.stmts = append(d.stmts, &ast.Break{Exit: exit})
		}

	case program.OpFork:
		delay, err := d.popExpr()
		if err != nil {
			return err
		}
		fd := &decompiler{prog: d.prog, ops: d.prog.Fork(op.FV)}
		if err := fd.run(); err != nil {
			return err
		}
		f := &ast.Fork{Time: delay, Body: fd.stmts}
		if op.NameOpt != nil {
			if f.ID, err = d.name(*op.NameOpt); err != nil {
				return err
			}
		}
		d.stmts = append(d.stmts, f)

	case program.OpReturn:
		e, err := d.popExpr()
		if err != nil {
			return err
		}
		d.stmts = append(d.stmts, &ast.Return{Expr: e})
	case program.OpReturn0:
		d.stmts = append(d.stmts, &ast.Return{})
	case program.OpDone:
		if d.pos != len(d.ops) {
			return malformed("Done before end of vector")
		}

	case program.OpAnd, program.OpOr:
		left, err := d.popExpr()
		if err != nil {
			return err
		}
		if _, err := d.stmtsUntil(op.Label); err != nil {
			return err
		}
		right, err := d.popExpr()
		if err != nil {
			return err
		}
		if op.Code == program.OpAnd {
			d.pushExpr(&ast.And{LHS: left, RHS: right})
		} else {
			d.pushExpr(&ast.Or{LHS: left, RHS: right})
		}

	case program.OpNot, program.OpUnaryMinus:
		e, err := d.popExpr()
		if err != nil {
			return err
		}
		unop := ast.UnaryNot
		if op.Code == program.OpUnaryMinus {
			unop = ast.UnaryNeg
		}
		d.pushExpr(&ast.Unary{Op: unop, Expr: e})

	case program.OpEq, program.OpNe, program.OpLt, program.OpLe, program.OpGt, program.OpGe,
		program.OpIn, program.OpAdd, program.OpSub, program.OpMul, program.OpDiv,
		program.OpMod, program.OpExp:
		right, err := d.popExpr()
		if err != nil {
			return err
		}
		left, err := d.popExpr()
		if err != nil {
			return err
		}
		d.pushExpr(&ast.Binary{Op: binaryOps[op.Code], LHS: left, RHS: right})

	case program.OpRef, program.OpPushRef:
		index, err := d.popExpr()
		if err != nil {
			return err
		}
		base, err := d.popExpr()
		if err != nil {
			return err
		}
		d.pushExpr(&ast.Index{Base: base, Index: index})

	case program.OpRangeRef:
		to, err := d.popExpr()
		if err != nil {
			return err
		}
		from, err := d.popExpr()
		if err != nil {
			return err
		}
		base, err := d.popExpr()
		if err != nil {
			return err
		}
		d.pushExpr(&ast.RangeExpr{Base: base, From: from, To: to})

	case program.OpLength:
		d.pushExpr(&ast.Length{})

	case program.OpPutTemp:
		// The store chain's scratch write; nothing to reconstruct.

	case program.OpIndexSet:
		rval, err := d.popExpr()
		if err != nil {
			return err
		}
		index, err := d.popExpr()
		if err != nil {
			return err
		}
		base, err := d.popExpr()
		if err != nil {
			return err
		}
		d.pushExpr(&ast.Assign{
			Left:  &ast.Index{Base: base, Index: index},
			Right: rval,
		})
		if err := d.skipPastPushTemp(); err != nil {
			return err
		}

	case program.OpRangeSet:
		rval, err := d.popExpr()
		if err != nil {
			return err
		}
		to, err := d.popExpr()
		if err != nil {
			return err
		}
		from, err := d.popExpr()
		if err != nil {
			return err
		}
		base, err := d.popExpr()
		if err != nil {
			return err
		}
		d.pushExpr(&ast.Assign{
			Left:  &ast.RangeExpr{Base: base, From: from, To: to},
			Right: rval,
		})
		if err := d.skipPastPushTemp(); err != nil {
			return err
		}

	case program.OpMakeSingletonList:
		e, err := d.popExpr()
		if err != nil {
			return err
		}
		d.pushExpr(&ast.ListExpr{Args: []ast.Arg{{Kind: ast.ArgNormal, Expr: e}}})

	case program.OpCheckListForSplice:
		e, err := d.popExpr()
		if err != nil {
			return err
		}
		d.pushExpr(&ast.ListExpr{Args: []ast.Arg{{Kind: ast.ArgSplice, Expr: e}}})

	case program.OpListAddTail, program.OpListAppend:
		e, err := d.popExpr()
		if err != nil {
			return err
		}
		le, err := d.popExpr()
		if err != nil {
			return err
		}
		list, ok := le.(*ast.ListExpr)
		if !ok {
			return malformed("expected list under %s", op.Code)
		}
		kind := ast.ArgNormal
		if op.Code == program.OpListAppend {
			kind = ast.ArgSplice
		}
		list.Args = append(list.Args, ast.Arg{Kind: kind, Expr: e})
		d.pushExpr(list)

	case program.OpGetProp, program.OpPushGetProp:
		prop, err := d.popExpr()
		if err != nil {
			return err
		}
		obj, err := d.popExpr()
		if err != nil {
			return err
		}
		d.pushExpr(&ast.Prop{Location: obj, Property: prop})

	case program.OpPutProp:
		rval, err := d.popExpr()
		if err != nil {
			return err
		}
		prop, err := d.popExpr()
		if err != nil {
			return err
		}
		obj, err := d.popExpr()
		if err != nil {
			return err
		}
		d.pushExpr(&ast.Assign{
			Left:  &ast.Prop{Location: obj, Property: prop},
			Right: rval,
		})

	case program.OpFuncCall:
		args, err := d.popExpr()
		if err != nil {
			return err
		}
		list, err := argsOf(args)
		if err != nil {
			return err
		}
		name, ok := builtins.Name(op.Builtin)
		if !ok {
			return &UnknownBuiltinError{ID: op.Builtin}
		}
		d.pushExpr(&ast.Call{Function: name, Args: list})

	case program.OpCallVerb:
		args, err := d.popExpr()
		if err != nil {
			return err
		}
		list, err := argsOf(args)
		if err != nil {
			return err
		}
		verb, err := d.popExpr()
		if err != nil {
			return err
		}
		obj, err := d.popExpr()
		if err != nil {
			return err
		}
		d.pushExpr(&ast.Verb{Location: obj, Verb: verb, Args: list})

	case program.OpPass:
		args, err := d.popExpr()
		if err != nil {
			return err
		}
		list, err := argsOf(args)
		if err != nil {
			return err
		}
		d.pushExpr(&ast.Pass{Args: list})

	case program.OpIfQues:
		cond, err := d.popExpr()
		if err != nil {
			return err
		}
		if _, err := d.stmtsUpTo(op.Label); err != nil {
			return err
		}
		jump, err := d.next()
		if err != nil {
			return err
		}
		if jump.Code != program.OpJump {
			return malformed("expected jump between ternary branches")
		}
		consequence, err := d.popExpr()
		if err != nil {
			return err
		}
		if _, err := d.stmtsUntil(jump.Label); err != nil {
			return err
		}
		alternative, err := d.popExpr()
		if err != nil {
			return err
		}
		d.pushExpr(&ast.CondExpr{
			Condition:   cond,
			Consequence: consequence,
			Alternative: alternative,
		})

	case program.OpScatter:
		sa := op.Scatter
		// The label on each defaulted optional points at the start of its
		// default expression; the end of that expression is the next such
		// label, or the done label for the last one.
		var optLabels []program.Label
		for _, sl := range sa.Labels {
			if sl.Kind == program.ScatterOptional && sl.Label != nil {
				optLabels = append(optLabels, *sl.Label)
			}
		}
		optLabels = append(optLabels, sa.Done)

		items := make([]ast.ScatterItem, 0, len(sa.Labels))
		seen := 0
		for _, sl := range sa.Labels {
			id, err := d.name(sl.ID)
			if err != nil {
				return err
			}
			item := ast.ScatterItem{Kind: ast.ScatterKind(sl.Kind), ID: id}
			if sl.Kind == program.ScatterOptional && sl.Label != nil {
				seen++
				if _, err := d.stmtsUpTo(optLabels[seen]); err != nil {
					return err
				}
				e, err := d.popExpr()
				if err != nil {
					return err
				}
				as, ok := e.(*ast.Assign)
				if !ok {
					return malformed("expected default assignment in scatter, got %T", e)
				}
				// Consume the pop that follows the default's store.
				if _, err := d.next(); err != nil {
					return err
				}
				item.Expr = as.Right
			}
			items = append(items, item)
		}
		e, err := d.popExpr()
		if err != nil {
			return err
		}
		d.pushExpr(&ast.Scatter{Items: items, Expr: e})

	case program.OpPushCatchLabel:
		// The paired TryCatch or TryExcept does the work.

	case program.OpTryCatch:
		codesExpr, err := d.popExpr()
		if err != nil {
			return err
		}
		codes, err := catchCodes(codesExpr)
		if err != nil {
			return err
		}
		// The protected expression runs out right before the handler.
		if _, err := d.stmtsUpTo(op.Label); err != nil {
			return err
		}
		ec, err := d.next()
		if err != nil {
			return err
		}
		if ec.Code != program.OpEndCatch {
			return malformed("expected EndCatch, got %s", ec.Code)
		}
		trye, err := d.popExpr()
		if err != nil {
			return err
		}
		// The handler either discards the exception and evaluates the
		// except expression, or extracts the caught code.
		nxt, err := d.next()
		if err != nil {
			return err
		}
		var except ast.Expr
		switch {
		case nxt.Code == program.OpPop:
			if _, err := d.stmtsUntil(ec.Label); err != nil {
				return err
			}
			if except, err = d.popExpr(); err != nil {
				return err
			}
		case nxt.Code == program.OpImmInt && nxt.Int == 1:
			ref, err := d.next()
			if err != nil {
				return err
			}
			if ref.Code != program.OpRef {
				return malformed("expected Ref in default catch handler")
			}
		default:
			return malformed("bad catch handler start %s", nxt.Code)
		}
		d.pushExpr(&ast.Catch{Trye: trye, Codes: codes, Except: except})

	case program.OpTryExcept:
		arms := make([]ast.ExceptArm, op.Count)
		// Code sets pop in reverse source order.
		for i := len(arms) - 1; i >= 0; i-- {
			codesExpr, err := d.popExpr()
			if err != nil {
				return err
			}
			if arms[i].Codes, err = catchCodes(codesExpr); err != nil {
				return err
			}
		}
		body, endOp, err := d.stmtsUntilMatch(func(_ int, o program.Op) bool {
			return o.Code == program.OpEndExcept
		})
		if err != nil {
			return err
		}
		end := endOp.Label
		endJump, err := d.findJump(end)
		if err != nil {
			return err
		}
		for i := range arms {
			// Each arm starts by binding or discarding the exception.
			nxt, err := d.next()
			if err != nil {
				return err
			}
			if nxt.Code == program.OpPut {
				if arms[i].ID, err = d.name(nxt.Name); err != nil {
					return err
				}
				if nxt, err = d.next(); err != nil {
					return err
				}
			}
			if nxt.Code != program.OpPop {
				return malformed("expected Pop at except arm start, got %s", nxt.Code)
			}
			stmts, _, err := d.stmtsUntilMatch(func(pos int, o program.Op) bool {
				if pos == int(endJump.Position) {
					return true
				}
				return o.Code == program.OpJump && o.Label == end
			})
			if err != nil {
				return err
			}
			arms[i].Statements = stmts
		}
		// The last arm has no jump, so its scan consumed the instruction
		// at the end label; give it back.
		d.pos--
		d.stmts = append(d.stmts, &ast.TryExcept{Body: body, Excepts: arms})

	case program.OpTryFinally:
		body, _, err := d.stmtsUntilMatch(func(_ int, o program.Op) bool {
			return o.Code == program.OpEndFinally
		})
		if err != nil {
			return err
		}
		handler, _, err := d.stmtsUntilMatch(func(_ int, o program.Op) bool {
			return o.Code == program.OpFinallyContinue
		})
		if err != nil {
			return err
		}
		d.stmts = append(d.stmts, &ast.TryFinally{Body: body, Handler: handler})

	default:
		// Jump, PushTemp, and the end instructions belong to the
		// constructs above; meeting one cold means the stream is not
		// generator output.
		return malformed("unexpected %s at %d", op.Code, d.pos-1)
	}
	return nil
}
