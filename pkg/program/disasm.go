package program

import (
	"fmt"
	"strings"
)

// Disassemble renders a program as human-readable text: the shared tables
// first, then the main vector, then each fork vector. The output is for
// debugging and test diffs, not for machine consumption.
func Disassemble(p *Program) string {
	var b strings.Builder

	fmt.Fprintf(&b, "LITERALS: %d\n", len(p.Literals))
	for i, lit := range p.Literals {
		fmt.Fprintf(&b, "  %3d: %s\n", i, lit)
	}

	fmt.Fprintf(&b, "VARIABLES: %d\n", p.VarNames.Width())
	for i, sym := range p.VarNames.Symbols() {
		fmt.Fprintf(&b, "  %3d: %s\n", i, sym)
	}

	fmt.Fprintf(&b, "LABELS: %d\n", len(p.JumpLabels))
	for _, jl := range p.JumpLabels {
		if jl.Name != nil {
			sym, _ := p.VarNames.NameOf(*jl.Name)
			fmt.Fprintf(&b, "  %3d: -> %d (%s)\n", jl.ID, jl.Position, sym)
		} else {
			fmt.Fprintf(&b, "  %3d: -> %d\n", jl.ID, jl.Position)
		}
	}

	b.WriteString("MAIN:\n")
	disasmVector(&b, p, p.MainVector)
	for i, fv := range p.ForkVectors {
		fmt.Fprintf(&b, "FORK %d:\n", i)
		disasmVector(&b, p, fv)
	}
	return b.String()
}

func disasmVector(b *strings.Builder, p *Program, ops []Op) {
	for pc, op := range ops {
		fmt.Fprintf(b, "  %04d  %-21s %s\n", pc, op.Code, operandString(p, op))
	}
}

func operandString(p *Program, op Op) string {
	varName := func(n Name) string {
		sym, ok := p.VarNames.NameOf(n)
		if !ok {
			return fmt.Sprintf("var?%d", n)
		}
		return sym
	}
	label := func(l Label) string {
		if jl, ok := p.FindJump(l); ok {
			return fmt.Sprintf("L%d @%d", l, jl.Position)
		}
		return fmt.Sprintf("L%d", l)
	}

	switch op.Code {
	case OpImmInt:
		return fmt.Sprintf("%d", op.Int)
	case OpImmObjid:
		return fmt.Sprintf("#%d", op.Int)
	case OpImmFloat:
		return fmt.Sprintf("%g", op.Float)
	case OpImmErr:
		return op.Err.Name()
	case OpImm:
		return fmt.Sprintf("literal %d: %s", op.Literal, p.FindLiteral(op.Literal))
	case OpPush, OpPut:
		return fmt.Sprintf("%s (%d)", varName(op.Name), op.Name)
	case OpIf, OpEif, OpIfQues, OpWhile, OpAnd, OpOr, OpJump,
		OpExitID, OpPushCatchLabel, OpTryCatch, OpTryFinally,
		OpEndCatch, OpEndExcept:
		return label(op.Label)
	case OpWhileID, OpForList, OpForRange:
		return fmt.Sprintf("%s (%d) end=%s", varName(op.Name), op.Name, label(op.Label))
	case OpExit:
		return fmt.Sprintf("stack=%d %s", op.Stack, label(op.Label))
	case OpFork:
		if op.NameOpt != nil {
			return fmt.Sprintf("fv=%d -> %s", op.FV, varName(*op.NameOpt))
		}
		return fmt.Sprintf("fv=%d", op.FV)
	case OpLength:
		return fmt.Sprintf("stack=%d", op.Stack)
	case OpTryExcept:
		return fmt.Sprintf("arms=%d", op.Count)
	case OpFuncCall:
		return fmt.Sprintf("builtin=%d", op.Builtin)
	case OpScatter:
		parts := make([]string, 0, len(op.Scatter.Labels))
		for _, sl := range op.Scatter.Labels {
			switch sl.Kind {
			case ScatterRequired:
				parts = append(parts, varName(sl.ID))
			case ScatterOptional:
				if sl.Label != nil {
					parts = append(parts, fmt.Sprintf("?%s=%s", varName(sl.ID), label(*sl.Label)))
				} else {
					parts = append(parts, "?"+varName(sl.ID))
				}
			case ScatterRest:
				parts = append(parts, "@"+varName(sl.ID))
			}
		}
		return fmt.Sprintf("{%s} done=%s", strings.Join(parts, ", "), label(op.Scatter.Done))
	default:
		return ""
	}
}
