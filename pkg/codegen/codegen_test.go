package codegen

import (
	"errors"
	"testing"

	"github.com/moorhen-dev/moorhen/pkg/ast"
	"github.com/moorhen-dev/moorhen/pkg/program"
	"github.com/moorhen-dev/moorhen/pkg/value"
)

func mustCompile(t *testing.T, stmts ...ast.Stmt) *program.Program {
	t.Helper()
	p, err := Compile(stmts)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return p
}

func codes(ops []program.Op) []program.Opcode {
	cs := make([]program.Opcode, len(ops))
	for i, op := range ops {
		cs[i] = op.Code
	}
	return cs
}

func wantCodes(t *testing.T, got []program.Op, want ...program.Opcode) {
	t.Helper()
	gc := codes(got)
	if len(gc) != len(want) {
		t.Fatalf("got %v, want %v", gc, want)
	}
	for i := range want {
		if gc[i] != want[i] {
			t.Fatalf("op %d: got %v, want %v\nfull: %v", i, gc[i], want[i], gc)
		}
	}
}

func exprStmt(e ast.Expr) ast.Stmt { return &ast.ExprStmt{Expr: e} }

func lit(v value.Var) ast.Expr { return &ast.VarExpr{Value: v} }

func TestSimpleArithmetic(t *testing.T) {
	// 1 + 2;
	p := mustCompile(t, exprStmt(&ast.Binary{Op: ast.BinAdd, LHS: lit(value.Int(1)), RHS: lit(value.Int(2))}))
	wantCodes(t, p.MainVector,
		program.OpImmInt, program.OpImmInt, program.OpAdd, program.OpPop, program.OpDone)
	if p.MaxStack != 2 {
		t.Errorf("MaxStack = %d, want 2", p.MaxStack)
	}
}

func TestLiteralPoolDedup(t *testing.T) {
	// "a" + "a"; "A";
	p := mustCompile(t,
		exprStmt(&ast.Binary{Op: ast.BinAdd, LHS: lit(value.Str("a")), RHS: lit(value.Str("a"))}),
		exprStmt(lit(value.Str("A"))),
	)
	// Case-sensitive dedup: "a" shared, "A" distinct.
	if len(p.Literals) != 2 {
		t.Fatalf("literal pool = %v, want 2 entries", p.Literals)
	}
}

func TestAssignVariable(t *testing.T) {
	// x = 5;
	p := mustCompile(t, exprStmt(&ast.Assign{Left: &ast.ID{Name: "x"}, Right: lit(value.Int(5))}))
	wantCodes(t, p.MainVector,
		program.OpImmInt, program.OpPut, program.OpPop, program.OpDone)
	if _, ok := p.VarNames.Find("x"); !ok {
		t.Errorf("x was not interned")
	}
}

func TestIndexedAssign(t *testing.T) {
	// x[2] = 9;
	p := mustCompile(t, exprStmt(&ast.Assign{
		Left:  &ast.Index{Base: &ast.ID{Name: "x"}, Index: lit(value.Int(2))},
		Right: lit(value.Int(9)),
	}))
	wantCodes(t, p.MainVector,
		program.OpPush, program.OpImmInt, // container, index
		program.OpImmInt,                       // rhs
		program.OpPutTemp, program.OpIndexSet,  // store back
		program.OpPut,                          // rebuilt container into x
		program.OpPop, program.OpPushTemp,      // expression value is the rhs
		program.OpPop, program.OpDone)
}

func TestRangeAssign(t *testing.T) {
	// s[2..3] = "";
	p := mustCompile(t, exprStmt(&ast.Assign{
		Left:  &ast.RangeExpr{Base: &ast.ID{Name: "s"}, From: lit(value.Int(2)), To: lit(value.Int(3))},
		Right: lit(value.Str("")),
	}))
	wantCodes(t, p.MainVector,
		program.OpPush, program.OpImmInt, program.OpImmInt,
		program.OpImm,
		program.OpPutTemp, program.OpRangeSet,
		program.OpPut,
		program.OpPop, program.OpPushTemp,
		program.OpPop, program.OpDone)
}

func TestChainedAssignShape(t *testing.T) {
	// l[1][2] = 9;
	p := mustCompile(t, exprStmt(&ast.Assign{
		Left: &ast.Index{
			Base:  &ast.Index{Base: &ast.ID{Name: "l"}, Index: lit(value.Int(1))},
			Index: lit(value.Int(2)),
		},
		Right: lit(value.Int(9)),
	}))
	// The temp write happens exactly once, right after the rhs, so the
	// stores rebuilding the chain cannot clobber the expression's value.
	wantCodes(t, p.MainVector,
		program.OpPush, program.OpImmInt, program.OpPushRef, program.OpImmInt,
		program.OpImmInt,
		program.OpPutTemp,
		program.OpIndexSet, program.OpIndexSet,
		program.OpPop, program.OpPushTemp,
		program.OpPop, program.OpDone)

	// o.p = 1; — a plain property store never touches the temp.
	p = mustCompile(t, exprStmt(&ast.Assign{
		Left:  &ast.Prop{Location: &ast.ID{Name: "o"}, Property: lit(value.Str("p"))},
		Right: lit(value.Int(1)),
	}))
	wantCodes(t, p.MainVector,
		program.OpPush, program.OpImm, program.OpImmInt,
		program.OpPutProp,
		program.OpPop, program.OpDone)
}

func TestLengthInsideIndex(t *testing.T) {
	// x[$];
	p := mustCompile(t, exprStmt(&ast.Index{Base: &ast.ID{Name: "x"}, Index: &ast.Length{}}))
	wantCodes(t, p.MainVector,
		program.OpPush, program.OpLength, program.OpRef, program.OpPop, program.OpDone)
	// $ refers to the stack slot the container occupies.
	if p.MainVector[1].Stack != 0 {
		t.Errorf("Length offset = %d, want 0", p.MainVector[1].Stack)
	}

	_, err := Compile([]ast.Stmt{exprStmt(&ast.Length{})})
	if err == nil {
		t.Errorf("$ outside index compiled")
	}
}

func TestIfElse(t *testing.T) {
	// if (x) return 1; elseif (y) return 2; else return 0; endif
	p := mustCompile(t, &ast.Cond{
		Arms: []ast.CondArm{
			{Condition: &ast.ID{Name: "x"}, Statements: []ast.Stmt{&ast.Return{Expr: lit(value.Int(1))}}},
			{Condition: &ast.ID{Name: "y"}, Statements: []ast.Stmt{&ast.Return{Expr: lit(value.Int(2))}}},
		},
		Otherwise: []ast.Stmt{&ast.Return{}},
	})
	wantCodes(t, p.MainVector,
		program.OpPush, program.OpIf, program.OpImmInt, program.OpReturn, program.OpJump,
		program.OpPush, program.OpEif, program.OpImmInt, program.OpReturn, program.OpJump,
		program.OpReturn0,
		program.OpDone)

	// The If branch targets the Eif arm; both Jumps target the end.
	ifOp := p.MainVector[1]
	if p.JumpPosition(ifOp.Label) != 5 {
		t.Errorf("If target = %d, want 5", p.JumpPosition(ifOp.Label))
	}
	if p.JumpPosition(p.MainVector[4].Label) != 11 {
		t.Errorf("Jump target = %d, want 11", p.JumpPosition(p.MainVector[4].Label))
	}
}

func TestWhileLoop(t *testing.T) {
	// while (x) x = x - 1; endwhile
	p := mustCompile(t, &ast.While{
		Condition: &ast.ID{Name: "x"},
		Body: []ast.Stmt{exprStmt(&ast.Assign{
			Left:  &ast.ID{Name: "x"},
			Right: &ast.Binary{Op: ast.BinSub, LHS: &ast.ID{Name: "x"}, RHS: lit(value.Int(1))},
		})},
	})
	wantCodes(t, p.MainVector,
		program.OpPush, program.OpWhile,
		program.OpPush, program.OpImmInt, program.OpSub, program.OpPut, program.OpPop,
		program.OpJump,
		program.OpDone)
	// The loop jump returns to the condition, the While branch exits.
	if p.JumpPosition(p.MainVector[7].Label) != 0 {
		t.Errorf("loop jump target = %d, want 0", p.JumpPosition(p.MainVector[7].Label))
	}
	if p.JumpPosition(p.MainVector[1].Label) != 8 {
		t.Errorf("While exit target = %d, want 8", p.JumpPosition(p.MainVector[1].Label))
	}
}

func TestLabelledWhileEmitsWhileID(t *testing.T) {
	p := mustCompile(t, &ast.While{
		ID:        "outer",
		Condition: lit(value.Int(1)),
		Body:      []ast.Stmt{&ast.Break{Exit: "outer"}},
	})
	wantCodes(t, p.MainVector,
		program.OpImmInt, program.OpWhileID, program.OpExitID, program.OpJump, program.OpDone)
	if sym, _ := p.VarNames.NameOf(p.MainVector[1].Name); sym != "outer" {
		t.Errorf("WhileID variable = %q", sym)
	}
}

func TestForListLoop(t *testing.T) {
	// for v in (x) ... endfor
	p := mustCompile(t, &ast.ForList{
		ID:   "v",
		Expr: &ast.ID{Name: "x"},
		Body: []ast.Stmt{exprStmt(&ast.ID{Name: "v"})},
	})
	wantCodes(t, p.MainVector,
		program.OpPush, program.OpImmInt, // list, counter
		program.OpForList,
		program.OpPush, program.OpPop,
		program.OpJump,
		program.OpDone)
	// Continue target is the ForList itself; the counter starts at 0.
	if p.MainVector[1].Int != 0 {
		t.Errorf("counter seed = %d", p.MainVector[1].Int)
	}
	if p.JumpPosition(p.MainVector[5].Label) != 2 {
		t.Errorf("loop jump target = %d, want 2", p.JumpPosition(p.MainVector[5].Label))
	}
}

func TestBreakContinueDepths(t *testing.T) {
	// for v in (x) break; continue; endfor
	p := mustCompile(t, &ast.ForList{
		ID:   "v",
		Expr: &ast.ID{Name: "x"},
		Body: []ast.Stmt{&ast.Break{}, &ast.Continue{}},
	})
	brk, cont := p.MainVector[3], p.MainVector[4]
	if brk.Code != program.OpExit || cont.Code != program.OpExit {
		t.Fatalf("body ops = %v", codes(p.MainVector))
	}
	// Break discards the loop's two stack slots; continue keeps them.
	if brk.Stack != 0 {
		t.Errorf("break stack = %d, want 0", brk.Stack)
	}
	if cont.Stack != 2 {
		t.Errorf("continue stack = %d, want 2", cont.Stack)
	}

	_, err := Compile([]ast.Stmt{&ast.Break{}})
	var ule *UnknownLoopError
	if !errors.As(err, &ule) {
		t.Errorf("break outside loop: got %v", err)
	}
}

func TestForkVector(t *testing.T) {
	// fork ident (5) return 1; endfork
	p := mustCompile(t, &ast.Fork{
		ID:   "ident",
		Time: lit(value.Int(5)),
		Body: []ast.Stmt{&ast.Return{Expr: lit(value.Int(1))}},
	})
	wantCodes(t, p.MainVector, program.OpImmInt, program.OpFork, program.OpDone)
	if len(p.ForkVectors) != 1 {
		t.Fatalf("fork vectors = %d, want 1", len(p.ForkVectors))
	}
	wantCodes(t, p.ForkVectors[0], program.OpImmInt, program.OpReturn, program.OpDone)
	fork := p.MainVector[1]
	if fork.FV != 0 || fork.NameOpt == nil {
		t.Fatalf("fork op = %+v", fork)
	}
	if sym, _ := p.VarNames.NameOf(*fork.NameOpt); sym != "ident" {
		t.Errorf("fork task-id variable = %q", sym)
	}
}

func TestTryExceptShape(t *testing.T) {
	// try x; except e (E_VARNF) y; endtry
	p := mustCompile(t, &ast.TryExcept{
		Body: []ast.Stmt{exprStmt(&ast.ID{Name: "x"})},
		Excepts: []ast.ExceptArm{{
			ID:         "e",
			Codes:      ast.CatchCodes{Codes: []ast.Arg{{Kind: ast.ArgNormal, Expr: lit(value.Err(value.E_VARNF))}}},
			Statements: []ast.Stmt{exprStmt(&ast.ID{Name: "y"})},
		}},
	})
	wantCodes(t, p.MainVector,
		program.OpImmErr, program.OpMakeSingletonList, program.OpPushCatchLabel,
		program.OpTryExcept,
		program.OpPush, program.OpPop,
		program.OpEndExcept,
		program.OpPut, program.OpPop,
		program.OpPush, program.OpPop,
		program.OpDone)
	if p.MainVector[3].Count != 1 {
		t.Errorf("TryExcept arms = %d", p.MainVector[3].Count)
	}
	// The arm label lands on the Put, right after EndExcept.
	if p.JumpPosition(p.MainVector[2].Label) != 7 {
		t.Errorf("arm label = %d, want 7", p.JumpPosition(p.MainVector[2].Label))
	}
}

func TestTryFinallyShape(t *testing.T) {
	p := mustCompile(t, &ast.TryFinally{
		Body:    []ast.Stmt{exprStmt(&ast.ID{Name: "x"})},
		Handler: []ast.Stmt{exprStmt(&ast.ID{Name: "y"})},
	})
	wantCodes(t, p.MainVector,
		program.OpTryFinally,
		program.OpPush, program.OpPop,
		program.OpEndFinally,
		program.OpPush, program.OpPop,
		program.OpFinallyContinue,
		program.OpDone)
	if p.JumpPosition(p.MainVector[0].Label) != 4 {
		t.Errorf("handler label = %d, want 4", p.JumpPosition(p.MainVector[0].Label))
	}
}

func TestCatchExpression(t *testing.T) {
	// `x ! ANY';
	p := mustCompile(t, exprStmt(&ast.Catch{
		Trye:  &ast.ID{Name: "x"},
		Codes: ast.CatchCodes{Any: true},
	}))
	wantCodes(t, p.MainVector,
		program.OpImmInt, program.OpPushCatchLabel, program.OpTryCatch,
		program.OpPush,
		program.OpEndCatch,
		program.OpImmInt, program.OpRef,
		program.OpPop, program.OpDone)
	// ANY compiles to the integer 0 rather than a code list.
	if p.MainVector[0].Int != 0 {
		t.Errorf("ANY marker = %d", p.MainVector[0].Int)
	}
	// Tracked depth covers both paths: codes, marker and protected value on
	// the main one, the caught exception and its indexed code on the other.
	if p.MaxStack != 3 {
		t.Errorf("MaxStack = %d, want 3", p.MaxStack)
	}
}

func TestScatterShape(t *testing.T) {
	// {a, ?b = 4, @c} = x;
	p := mustCompile(t, exprStmt(&ast.Scatter{
		Items: []ast.ScatterItem{
			{Kind: ast.ScatterRequired, ID: "a"},
			{Kind: ast.ScatterOptional, ID: "b", Expr: lit(value.Int(4))},
			{Kind: ast.ScatterRest, ID: "c"},
		},
		Expr: &ast.ID{Name: "x"},
	}))
	wantCodes(t, p.MainVector,
		program.OpPush, program.OpScatter,
		program.OpImmInt, program.OpPut, program.OpPop, // b's default
		program.OpPop, program.OpDone)
	sc := p.MainVector[1].Scatter
	if sc.NArgs() != 3 || sc.NReq() != 1 || sc.RestIndex() != 3 {
		t.Errorf("scatter args = nargs %d nreq %d rest %d", sc.NArgs(), sc.NReq(), sc.RestIndex())
	}
	if sc.Labels[1].Label == nil {
		t.Fatalf("optional target lost its default label")
	}
	if p.JumpPosition(*sc.Labels[1].Label) != 2 {
		t.Errorf("default label = %d, want 2", p.JumpPosition(*sc.Labels[1].Label))
	}
	if p.JumpPosition(sc.Done) != 5 {
		t.Errorf("done label = %d, want 5", p.JumpPosition(sc.Done))
	}
}

func TestBuiltinCall(t *testing.T) {
	p := mustCompile(t, exprStmt(&ast.Call{
		Function: "length",
		Args:     []ast.Arg{{Kind: ast.ArgNormal, Expr: &ast.ID{Name: "x"}}},
	}))
	wantCodes(t, p.MainVector,
		program.OpPush, program.OpMakeSingletonList, program.OpFuncCall,
		program.OpPop, program.OpDone)

	_, err := Compile([]ast.Stmt{exprStmt(&ast.Call{Function: "frobnicate"})})
	var ube *UnknownBuiltinError
	if !errors.As(err, &ube) || ube.Name != "frobnicate" {
		t.Errorf("unknown builtin: got %v", err)
	}
}

func TestArgListSplice(t *testing.T) {
	// {@x, 1, @y};
	p := mustCompile(t, exprStmt(&ast.ListExpr{Args: []ast.Arg{
		{Kind: ast.ArgSplice, Expr: &ast.ID{Name: "x"}},
		{Kind: ast.ArgNormal, Expr: lit(value.Int(1))},
		{Kind: ast.ArgSplice, Expr: &ast.ID{Name: "y"}},
	}}))
	wantCodes(t, p.MainVector,
		program.OpPush, program.OpCheckListForSplice,
		program.OpImmInt, program.OpListAddTail,
		program.OpPush, program.OpListAppend,
		program.OpPop, program.OpDone)
}

func TestVerbCallAndPass(t *testing.T) {
	// x:tell(1); pass();
	p := mustCompile(t,
		exprStmt(&ast.Verb{
			Location: &ast.ID{Name: "x"},
			Verb:     lit(value.Str("tell")),
			Args:     []ast.Arg{{Kind: ast.ArgNormal, Expr: lit(value.Int(1))}},
		}),
		exprStmt(&ast.Pass{}),
	)
	wantCodes(t, p.MainVector,
		program.OpPush, program.OpImm, program.OpImmInt, program.OpMakeSingletonList,
		program.OpCallVerb, program.OpPop,
		program.OpImmEmptyList, program.OpPass, program.OpPop,
		program.OpDone)
}

func TestShortCircuitAndTernary(t *testing.T) {
	// x && y; x ? y | z;
	p := mustCompile(t,
		exprStmt(&ast.And{LHS: &ast.ID{Name: "x"}, RHS: &ast.ID{Name: "y"}}),
		exprStmt(&ast.CondExpr{
			Condition:   &ast.ID{Name: "x"},
			Consequence: &ast.ID{Name: "y"},
			Alternative: &ast.ID{Name: "z"},
		}),
	)
	wantCodes(t, p.MainVector,
		program.OpPush, program.OpAnd, program.OpPush, program.OpPop,
		program.OpPush, program.OpIfQues, program.OpPush, program.OpJump, program.OpPush, program.OpPop,
		program.OpDone)
}

func TestEveryProgramEndsBalanced(t *testing.T) {
	// A grab bag of nested constructs; Compile's internal depth check
	// rejects the result if any path leaks stack.
	p := mustCompile(t,
		&ast.ForList{ID: "v", Expr: &ast.ID{Name: "x"}, Body: []ast.Stmt{
			&ast.Cond{Arms: []ast.CondArm{{
				Condition: &ast.Binary{Op: ast.BinGt, LHS: &ast.ID{Name: "v"}, RHS: lit(value.Int(2))},
				Statements: []ast.Stmt{
					&ast.TryFinally{
						Body:    []ast.Stmt{&ast.Break{}},
						Handler: []ast.Stmt{exprStmt(&ast.Call{Function: "time"})},
					},
				},
			}}},
		}},
		&ast.Return{Expr: &ast.ID{Name: "x"}},
	)
	last := p.MainVector[len(p.MainVector)-1]
	if last.Code != program.OpDone {
		t.Errorf("program does not end in DONE: %v", last.Code)
	}
}
