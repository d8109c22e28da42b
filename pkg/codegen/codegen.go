// Package codegen translates syntax trees into programs for the stack
// machine. Branch targets go through the jump-label table in two phases: a
// label is allocated before the branch that references it is emitted, and
// committed to an instruction position once that position is known, so no
// emitted instruction is ever patched.
//
// The generator also tracks the operand-stack depth through every emission.
// Statements are stack-neutral and expressions net exactly one push; the
// final depth must come back to zero, and a nonzero residue means the
// generator itself is buggy.
package codegen

import (
	"fmt"

	"github.com/moorhen-dev/moorhen/pkg/ast"
	"github.com/moorhen-dev/moorhen/pkg/builtins"
	"github.com/moorhen-dev/moorhen/pkg/program"
	"github.com/moorhen-dev/moorhen/pkg/value"
)

// loop tracks one enclosing loop while its body is generated: where continue
// and break land, and the stack depth each target expects.
type loop struct {
	name        *program.Name
	topLabel    program.Label
	topStack    program.Offset
	bottomLabel program.Label
	bottomStack program.Offset
}

type generator struct {
	ops         []program.Op
	jumps       []program.JumpLabel
	names       *program.Names
	literals    []value.Var
	forkVectors [][]program.Op
	loops       []loop

	curStack int
	maxStack int
	// savedStack remembers the valstack offset of the sequence being
	// indexed, so `$` inside the index expression can find it. Nil outside
	// index/range context.
	savedStack *program.Offset
}

// Compile generates a program from a statement list.
func Compile(stmts []ast.Stmt) (*program.Program, error) {
	g := &generator{names: program.NewNames()}
	for _, s := range stmts {
		if err := g.stmt(s); err != nil {
			return nil, err
		}
	}
	g.emit(program.Op{Code: program.OpDone})

	if g.curStack != 0 || g.savedStack != nil {
		return nil, fmt.Errorf("codegen: internal error: unbalanced stack after generation (depth %d)", g.curStack)
	}

	return &program.Program{
		Literals:    g.literals,
		JumpLabels:  g.jumps,
		VarNames:    g.names,
		MainVector:  g.ops,
		ForkVectors: g.forkVectors,
		MaxStack:    program.Offset(g.maxStack),
	}, nil
}

func (g *generator) emit(op program.Op) {
	g.ops = append(g.ops, op)
}

func (g *generator) findName(name string) program.Name {
	return g.names.FindOrAdd(name)
}

// addLiteral interns a value into the pool, deduplicating with
// case-sensitive equality so distinct string spellings stay distinct.
func (g *generator) addLiteral(v value.Var) program.Literal {
	for i, existing := range g.literals {
		if existing.Type() == v.Type() && existing.EqualCaseSensitive(v) {
			return program.Literal(i)
		}
	}
	g.literals = append(g.literals, v)
	return program.Literal(len(g.literals) - 1)
}

func (g *generator) makeJumpLabel(name *program.Name) program.Label {
	id := program.Label(len(g.jumps))
	g.jumps = append(g.jumps, program.JumpLabel{ID: id, Name: name})
	return id
}

// commitJumpLabel pins a label to the next instruction position in the
// vector currently being generated.
func (g *generator) commitJumpLabel(l program.Label) {
	g.jumps[l].Position = program.Offset(len(g.ops))
}

func (g *generator) pushStack(n int) {
	g.curStack += n
	if g.curStack > g.maxStack {
		g.maxStack = g.curStack
	}
}

func (g *generator) popStack(n int) {
	g.curStack -= n
}

// saveStackTop records the offset of the value currently on top of the
// stack (the sequence about to be indexed) and returns the previous record
// for restoration, since index expressions nest.
func (g *generator) saveStackTop() *program.Offset {
	old := g.savedStack
	off := program.Offset(g.curStack - 1)
	g.savedStack = &off
	return old
}

func (g *generator) restoreStackTop(old *program.Offset) {
	g.savedStack = old
}

func (g *generator) findLoop(name string) (*loop, error) {
	id, ok := g.names.Find(name)
	if !ok {
		return nil, &UnknownLoopError{Name: name}
	}
	for i := len(g.loops) - 1; i >= 0; i-- {
		l := &g.loops[i]
		if l.name != nil && *l.name == id {
			return l, nil
		}
	}
	return nil, &UnknownLoopError{Name: name}
}

// pushConstant emits the cheapest immediate form for a literal value.
func (g *generator) pushConstant(v value.Var) {
	switch v.Type() {
	case value.TypeNone:
		g.emit(program.Op{Code: program.OpImmNone})
	case value.TypeInt:
		g.emit(program.Op{Code: program.OpImmInt, Int: v.Int()})
	case value.TypeFloat:
		g.emit(program.Op{Code: program.OpImmFloat, Float: v.Float()})
	case value.TypeObj:
		g.emit(program.Op{Code: program.OpImmObjid, Int: int64(v.Obj())})
	case value.TypeErr:
		g.emit(program.Op{Code: program.OpImmErr, Err: v.Err()})
	case value.TypeList:
		if len(v.ListItems()) == 0 {
			g.emit(program.Op{Code: program.OpImmEmptyList})
			break
		}
		g.emit(program.Op{Code: program.OpImm, Literal: g.addLiteral(v)})
	default:
		g.emit(program.Op{Code: program.OpImm, Literal: g.addLiteral(v)})
	}
	g.pushStack(1)
}

var binaryOps = map[ast.BinaryOp]program.Opcode{
	ast.BinAdd: program.OpAdd,
	ast.BinSub: program.OpSub,
	ast.BinMul: program.OpMul,
	ast.BinDiv: program.OpDiv,
	ast.BinMod: program.OpMod,
	ast.BinExp: program.OpExp,
	ast.BinEq:  program.OpEq,
	ast.BinNe:  program.OpNe,
	ast.BinLt:  program.OpLt,
	ast.BinLe:  program.OpLe,
	ast.BinGt:  program.OpGt,
	ast.BinGe:  program.OpGe,
	ast.BinIn:  program.OpIn,
}

func (g *generator) expr(e ast.Expr) error {
	switch e := e.(type) {
	case *ast.VarExpr:
		g.pushConstant(e.Value)

	case *ast.ID:
		g.emit(program.Op{Code: program.OpPush, Name: g.findName(e.Name)})
		g.pushStack(1)

	case *ast.ListExpr:
		return g.argList(e.Args)

	case *ast.Binary:
		if err := g.expr(e.LHS); err != nil {
			return err
		}
		if err := g.expr(e.RHS); err != nil {
			return err
		}
		g.emit(program.Op{Code: binaryOps[e.Op]})
		g.popStack(1)

	case *ast.Unary:
		if err := g.expr(e.Expr); err != nil {
			return err
		}
		switch e.Op {
		case ast.UnaryNeg:
			g.emit(program.Op{Code: program.OpUnaryMinus})
		case ast.UnaryNot:
			g.emit(program.Op{Code: program.OpNot})
		}

	case *ast.And:
		if err := g.expr(e.LHS); err != nil {
			return err
		}
		end := g.makeJumpLabel(nil)
		g.emit(program.Op{Code: program.OpAnd, Label: end})
		g.popStack(1)
		if err := g.expr(e.RHS); err != nil {
			return err
		}
		g.commitJumpLabel(end)

	case *ast.Or:
		if err := g.expr(e.LHS); err != nil {
			return err
		}
		end := g.makeJumpLabel(nil)
		g.emit(program.Op{Code: program.OpOr, Label: end})
		g.popStack(1)
		if err := g.expr(e.RHS); err != nil {
			return err
		}
		g.commitJumpLabel(end)

	case *ast.CondExpr:
		if err := g.expr(e.Condition); err != nil {
			return err
		}
		elseLabel := g.makeJumpLabel(nil)
		g.emit(program.Op{Code: program.OpIfQues, Label: elseLabel})
		g.popStack(1)
		if err := g.expr(e.Consequence); err != nil {
			return err
		}
		end := g.makeJumpLabel(nil)
		g.emit(program.Op{Code: program.OpJump, Label: end})
		// Only one branch's value ends up on the stack.
		g.popStack(1)
		g.commitJumpLabel(elseLabel)
		if err := g.expr(e.Alternative); err != nil {
			return err
		}
		g.commitJumpLabel(end)

	case *ast.Index:
		if err := g.expr(e.Base); err != nil {
			return err
		}
		old := g.saveStackTop()
		if err := g.expr(e.Index); err != nil {
			return err
		}
		g.restoreStackTop(old)
		g.emit(program.Op{Code: program.OpRef})
		g.popStack(1)

	case *ast.RangeExpr:
		if err := g.expr(e.Base); err != nil {
			return err
		}
		old := g.saveStackTop()
		if err := g.expr(e.From); err != nil {
			return err
		}
		if err := g.expr(e.To); err != nil {
			return err
		}
		g.restoreStackTop(old)
		g.emit(program.Op{Code: program.OpRangeRef})
		g.popStack(2)

	case *ast.Length:
		if g.savedStack == nil {
			return fmt.Errorf("codegen: $ used outside an index expression")
		}
		g.emit(program.Op{Code: program.OpLength, Stack: *g.savedStack})
		g.pushStack(1)

	case *ast.Prop:
		if err := g.expr(e.Location); err != nil {
			return err
		}
		if err := g.expr(e.Property); err != nil {
			return err
		}
		g.emit(program.Op{Code: program.OpGetProp})
		g.popStack(1)

	case *ast.Assign:
		return g.assign(e.Left, e.Right)

	case *ast.Scatter:
		if err := g.expr(e.Expr); err != nil {
			return err
		}
		return g.scatterAssign(e.Items)

	case *ast.Verb:
		if err := g.expr(e.Location); err != nil {
			return err
		}
		if err := g.expr(e.Verb); err != nil {
			return err
		}
		if err := g.argList(e.Args); err != nil {
			return err
		}
		g.emit(program.Op{Code: program.OpCallVerb})
		g.popStack(2)

	case *ast.Call:
		id, ok := builtins.Lookup(e.Function)
		if !ok {
			return &UnknownBuiltinError{Name: e.Function}
		}
		if err := g.argList(e.Args); err != nil {
			return err
		}
		g.emit(program.Op{Code: program.OpFuncCall, Builtin: id})

	case *ast.Pass:
		if err := g.argList(e.Args); err != nil {
			return err
		}
		g.emit(program.Op{Code: program.OpPass})

	case *ast.Catch:
		handler := g.makeJumpLabel(nil)
		if err := g.codes(e.Codes); err != nil {
			return err
		}
		g.emit(program.Op{Code: program.OpPushCatchLabel, Label: handler})
		g.emit(program.Op{Code: program.OpTryCatch, Label: handler})
		// The codes list and the handler's marker slot stay on the stack
		// until EndCatch clears them.
		g.pushStack(1)
		if err := g.expr(e.Trye); err != nil {
			return err
		}
		end := g.makeJumpLabel(nil)
		g.emit(program.Op{Code: program.OpEndCatch, Label: end})
		g.popStack(2)
		g.commitJumpLabel(handler)
		// On the handler path the stack slot holds the caught exception
		// rather than the expression value.
		if e.Except == nil {
			// Yield the caught code itself.
			g.emit(program.Op{Code: program.OpImmInt, Int: 1})
			g.pushStack(1)
			g.emit(program.Op{Code: program.OpRef})
			g.popStack(1)
		} else {
			g.emit(program.Op{Code: program.OpPop})
			g.popStack(1)
			if err := g.expr(e.Except); err != nil {
				return err
			}
		}
		g.commitJumpLabel(end)

	default:
		return fmt.Errorf("codegen: internal error: unhandled expression %T", e)
	}
	return nil
}

// codes pushes the code set of a catch handler: an explicit list, or the
// integer 0 meaning "any error".
func (g *generator) codes(c ast.CatchCodes) error {
	if c.Any {
		g.emit(program.Op{Code: program.OpImmInt, Int: 0})
		g.pushStack(1)
		return nil
	}
	return g.argList(c.Codes)
}

// argList builds a list from argument expressions, splicing where marked.
func (g *generator) argList(args []ast.Arg) error {
	if len(args) == 0 {
		g.emit(program.Op{Code: program.OpImmEmptyList})
		g.pushStack(1)
		return nil
	}
	for i, a := range args {
		if err := g.expr(a.Expr); err != nil {
			return err
		}
		var code program.Opcode
		switch {
		case i == 0 && a.Kind == ast.ArgNormal:
			code = program.OpMakeSingletonList
		case i == 0:
			code = program.OpCheckListForSplice
		case a.Kind == ast.ArgNormal:
			code = program.OpListAddTail
		default:
			code = program.OpListAppend
		}
		g.emit(program.Op{Code: code})
		if i > 0 {
			g.popStack(1)
		}
	}
	return nil
}

// pushLvalue generates the container chain of an assignment target. Only the
// outermost level consumes the assigned value; inner levels re-push their
// container so the store chain can rebuild outward.
func (g *generator) pushLvalue(e ast.Expr, indexedAbove bool) error {
	switch e := e.(type) {
	case *ast.ID:
		if indexedAbove {
			g.emit(program.Op{Code: program.OpPush, Name: g.findName(e.Name)})
			g.pushStack(1)
		}

	case *ast.Index:
		if err := g.pushLvalue(e.Base, true); err != nil {
			return err
		}
		old := g.saveStackTop()
		if err := g.expr(e.Index); err != nil {
			return err
		}
		g.restoreStackTop(old)
		if indexedAbove {
			g.emit(program.Op{Code: program.OpPushRef})
			g.pushStack(1)
		}

	case *ast.RangeExpr:
		if err := g.pushLvalue(e.Base, true); err != nil {
			return err
		}
		old := g.saveStackTop()
		if err := g.expr(e.From); err != nil {
			return err
		}
		if err := g.expr(e.To); err != nil {
			return err
		}
		g.restoreStackTop(old)
		if indexedAbove {
			g.emit(program.Op{Code: program.OpPushRef})
			g.pushStack(1)
		}

	case *ast.Prop:
		if err := g.expr(e.Location); err != nil {
			return err
		}
		if err := g.expr(e.Property); err != nil {
			return err
		}
		if indexedAbove {
			g.emit(program.Op{Code: program.OpPushGetProp})
			g.pushStack(1)
		}

	default:
		return fmt.Errorf("codegen: invalid assignment target %T", e)
	}
	return nil
}

func (g *generator) assign(left, right ast.Expr) error {
	if err := g.pushLvalue(left, false); err != nil {
		return err
	}
	if err := g.expr(right); err != nil {
		return err
	}

	// For an indexed target, stash the assigned value in the frame
	// temporary before any store consumes it: the stores that follow push
	// rebuilt containers, and the expression's value must stay the rhs.
	isIndexed := false
	switch left.(type) {
	case *ast.Index, *ast.RangeExpr:
		g.emit(program.Op{Code: program.OpPutTemp})
		isIndexed = true
	}

	// Walk back out of the container chain, rebuilding each level.
	e := left
walk:
	for {
		switch t := e.(type) {
		case *ast.RangeExpr:
			g.emit(program.Op{Code: program.OpRangeSet})
			g.popStack(3)
			e = t.Base
		case *ast.Index:
			g.emit(program.Op{Code: program.OpIndexSet})
			g.popStack(2)
			e = t.Base
		case *ast.ID:
			g.emit(program.Op{Code: program.OpPut, Name: g.findName(t.Name)})
			break walk
		case *ast.Prop:
			g.emit(program.Op{Code: program.OpPutProp})
			g.popStack(2)
			break walk
		default:
			return fmt.Errorf("codegen: invalid assignment target %T", e)
		}
	}
	if isIndexed {
		g.emit(program.Op{Code: program.OpPop})
		g.emit(program.Op{Code: program.OpPushTemp})
	}
	return nil
}

// scatterAssign destructures the list on top of the stack into the targets.
// The list stays on the stack as the value of the whole expression.
func (g *generator) scatterAssign(items []ast.ScatterItem) error {
	labels := make([]program.ScatterLabel, 0, len(items))
	defaults := make([]*program.Label, len(items))
	for i, item := range items {
		sl := program.ScatterLabel{
			Kind: program.ScatterKind(item.Kind),
			ID:   g.findName(item.ID),
		}
		if item.Kind == ast.ScatterOptional && item.Expr != nil {
			l := g.makeJumpLabel(nil)
			sl.Label = &l
			defaults[i] = &l
		}
		labels = append(labels, sl)
	}
	done := g.makeJumpLabel(nil)
	g.emit(program.Op{Code: program.OpScatter, Scatter: &program.ScatterArgs{
		Labels: labels,
		Done:   done,
	}})
	for i, item := range items {
		if defaults[i] == nil {
			continue
		}
		g.commitJumpLabel(*defaults[i])
		if err := g.expr(item.Expr); err != nil {
			return err
		}
		g.emit(program.Op{Code: program.OpPut, Name: g.findName(item.ID)})
		g.emit(program.Op{Code: program.OpPop})
		g.popStack(1)
	}
	g.commitJumpLabel(done)
	return nil
}

func (g *generator) stmts(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := g.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) stmt(s ast.Stmt) error {
	switch s := s.(type) {
	case *ast.Cond:
		end := g.makeJumpLabel(nil)
		isElseif := false
		for _, arm := range s.Arms {
			if err := g.expr(arm.Condition); err != nil {
				return err
			}
			otherwise := g.makeJumpLabel(nil)
			code := program.OpIf
			if isElseif {
				code = program.OpEif
			}
			g.emit(program.Op{Code: code, Label: otherwise})
			g.popStack(1)
			if err := g.stmts(arm.Statements); err != nil {
				return err
			}
			g.emit(program.Op{Code: program.OpJump, Label: end})
			g.commitJumpLabel(otherwise)
			isElseif = true
		}
		if err := g.stmts(s.Otherwise); err != nil {
			return err
		}
		g.commitJumpLabel(end)

	case *ast.While:
		var name *program.Name
		if s.ID != "" {
			id := g.findName(s.ID)
			name = &id
		}
		top := g.makeJumpLabel(name)
		g.commitJumpLabel(top)
		end := g.makeJumpLabel(name)
		if err := g.expr(s.Condition); err != nil {
			return err
		}
		if name != nil {
			g.emit(program.Op{Code: program.OpWhileID, Name: *name, Label: end})
		} else {
			g.emit(program.Op{Code: program.OpWhile, Label: end})
		}
		g.popStack(1)
		g.loops = append(g.loops, loop{
			name:        name,
			topLabel:    top,
			topStack:    program.Offset(g.curStack),
			bottomLabel: end,
			bottomStack: program.Offset(g.curStack),
		})
		if err := g.stmts(s.Body); err != nil {
			return err
		}
		g.emit(program.Op{Code: program.OpJump, Label: top})
		g.commitJumpLabel(end)
		g.loops = g.loops[:len(g.loops)-1]

	case *ast.ForList:
		id := g.findName(s.ID)
		end := g.makeJumpLabel(&id)
		if err := g.expr(s.Expr); err != nil {
			return err
		}
		// The loop counter rides the stack under the list.
		g.emit(program.Op{Code: program.OpImmInt, Int: 0})
		g.pushStack(1)
		top := g.makeJumpLabel(&id)
		g.commitJumpLabel(top)
		g.emit(program.Op{Code: program.OpForList, Name: id, Label: end})
		g.loops = append(g.loops, loop{
			name:        &id,
			topLabel:    top,
			topStack:    program.Offset(g.curStack),
			bottomLabel: end,
			bottomStack: program.Offset(g.curStack - 2),
		})
		if err := g.stmts(s.Body); err != nil {
			return err
		}
		g.emit(program.Op{Code: program.OpJump, Label: top})
		g.commitJumpLabel(end)
		g.popStack(2)
		g.loops = g.loops[:len(g.loops)-1]

	case *ast.ForRange:
		id := g.findName(s.ID)
		end := g.makeJumpLabel(&id)
		if err := g.expr(s.From); err != nil {
			return err
		}
		if err := g.expr(s.To); err != nil {
			return err
		}
		top := g.makeJumpLabel(&id)
		g.commitJumpLabel(top)
		g.emit(program.Op{Code: program.OpForRange, Name: id, Label: end})
		g.loops = append(g.loops, loop{
			name:        &id,
			topLabel:    top,
			topStack:    program.Offset(g.curStack),
			bottomLabel: end,
			bottomStack: program.Offset(g.curStack - 2),
		})
		if err := g.stmts(s.Body); err != nil {
			return err
		}
		g.emit(program.Op{Code: program.OpJump, Label: top})
		g.commitJumpLabel(end)
		g.popStack(2)
		g.loops = g.loops[:len(g.loops)-1]

	case *ast.Fork:
		if err := g.expr(s.Time); err != nil {
			return err
		}
		// The body compiles into its own vector; labels committed inside
		// it hold positions relative to that vector.
		saved := g.ops
		g.ops = nil
		if err := g.stmts(s.Body); err != nil {
			return err
		}
		g.emit(program.Op{Code: program.OpDone})
		fv := program.Offset(len(g.forkVectors))
		g.forkVectors = append(g.forkVectors, g.ops)
		g.ops = saved

		op := program.Op{Code: program.OpFork, FV: fv}
		if s.ID != "" {
			id := g.findName(s.ID)
			op.NameOpt = &id
		}
		g.emit(op)
		g.popStack(1)

	case *ast.TryExcept:
		armLabels := make([]program.Label, len(s.Excepts))
		for i, arm := range s.Excepts {
			armLabels[i] = g.makeJumpLabel(nil)
			if err := g.codes(arm.Codes); err != nil {
				return err
			}
			g.emit(program.Op{Code: program.OpPushCatchLabel, Label: armLabels[i]})
		}
		g.emit(program.Op{Code: program.OpTryExcept, Count: uint16(len(s.Excepts))})
		// The arm code lists and the handler's marker slot stay on the
		// stack for the whole protected body, so exits from inside it sit
		// strictly above the handler's recorded position.
		g.pushStack(1)
		if err := g.stmts(s.Body); err != nil {
			return err
		}
		end := g.makeJumpLabel(nil)
		g.emit(program.Op{Code: program.OpEndExcept, Label: end})
		g.popStack(len(s.Excepts) + 1)
		for i, arm := range s.Excepts {
			g.commitJumpLabel(armLabels[i])
			// The caught exception arrives on the stack.
			g.pushStack(1)
			if arm.ID != "" {
				g.emit(program.Op{Code: program.OpPut, Name: g.findName(arm.ID)})
			}
			g.emit(program.Op{Code: program.OpPop})
			g.popStack(1)
			if err := g.stmts(arm.Statements); err != nil {
				return err
			}
			if i+1 < len(s.Excepts) {
				g.emit(program.Op{Code: program.OpJump, Label: end})
			}
		}
		g.commitJumpLabel(end)

	case *ast.TryFinally:
		handler := g.makeJumpLabel(nil)
		g.emit(program.Op{Code: program.OpTryFinally, Label: handler})
		// The handler's marker slot stays on the stack while the body runs.
		g.pushStack(1)
		if err := g.stmts(s.Body); err != nil {
			return err
		}
		g.emit(program.Op{Code: program.OpEndFinally})
		g.popStack(1)
		g.commitJumpLabel(handler)
		// The handler runs with the unwind value and reason code pushed.
		g.pushStack(2)
		if err := g.stmts(s.Handler); err != nil {
			return err
		}
		g.emit(program.Op{Code: program.OpFinallyContinue})
		g.popStack(2)

	case *ast.Break:
		if s.Exit == "" {
			if len(g.loops) == 0 {
				return &UnknownLoopError{Name: "break"}
			}
			l := g.loops[len(g.loops)-1]
			g.emit(program.Op{Code: program.OpExit, Stack: l.bottomStack, Label: l.bottomLabel})
		} else {
			l, err := g.findLoop(s.Exit)
			if err != nil {
				return err
			}
			g.emit(program.Op{Code: program.OpExitID, Stack: l.bottomStack, Label: l.bottomLabel})
		}

	case *ast.Continue:
		if s.Exit == "" {
			if len(g.loops) == 0 {
				return &UnknownLoopError{Name: "continue"}
			}
			l := g.loops[len(g.loops)-1]
			g.emit(program.Op{Code: program.OpExit, Stack: l.topStack, Label: l.topLabel})
		} else {
			l, err := g.findLoop(s.Exit)
			if err != nil {
				return err
			}
			g.emit(program.Op{Code: program.OpExitID, Stack: l.topStack, Label: l.topLabel})
		}

	case *ast.Return:
		if s.Expr == nil {
			g.emit(program.Op{Code: program.OpReturn0})
		} else {
			if err := g.expr(s.Expr); err != nil {
				return err
			}
			g.emit(program.Op{Code: program.OpReturn})
			g.popStack(1)
		}

	case *ast.ExprStmt:
		if err := g.expr(s.Expr); err != nil {
			return err
		}
		g.emit(program.Op{Code: program.OpPop})
		g.popStack(1)

	default:
		return fmt.Errorf("codegen: internal error: unhandled statement %T", s)
	}
	return nil
}
