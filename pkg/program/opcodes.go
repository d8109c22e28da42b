package program

import (
	"fmt"

	"github.com/moorhen-dev/moorhen/pkg/value"
)

// Opcode identifies one instruction in the stack machine.
type Opcode uint8

const (
	// Immediates. The small common cases get dedicated opcodes so they
	// bypass the literal pool entirely.
	OpImmNone Opcode = iota
	OpImmInt
	OpImmFloat
	OpImmErr
	OpImmObjid
	OpImmEmptyList
	OpImm // Literal: pool index

	// Variables.
	OpPush // Name
	OpPut  // Name
	OpPop

	// Control flow. Conditional branches jump when the popped condition is
	// false; the four spellings exist only so the decompiler can tell the
	// source constructs apart.
	OpIf     // Label
	OpEif    // Label
	OpIfQues // Label
	OpWhile  // Label
	OpWhileID // Name + Label
	OpForList // Name + Label
	OpForRange // Name + Label
	OpJump   // Label
	OpExit   // Stack + Label: unlabelled break/continue
	OpExitID // Label: labelled break/continue
	OpFork   // FV + optional NameOpt

	// Short-circuit logic and unary operators.
	OpAnd // Label
	OpOr  // Label
	OpNot
	OpUnaryMinus

	// Binary operators.
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpIn
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpExp

	// Indexing and assignment plumbing.
	OpRef
	OpPushRef
	OpRangeRef
	OpIndexSet
	OpRangeSet
	OpLength // Stack: absolute valstack offset of the value being indexed
	OpPutTemp
	OpPushTemp

	// List construction.
	OpMakeSingletonList
	OpListAddTail
	OpListAppend
	OpCheckListForSplice

	// Properties and calls.
	OpGetProp
	OpPushGetProp
	OpPutProp
	OpPass
	OpCallVerb
	OpFuncCall // Builtin

	// Returns.
	OpReturn
	OpReturn0
	OpDone

	// Exception handling.
	OpPushCatchLabel // Label
	OpTryExcept      // Count: number of except arms
	OpTryCatch       // Label: handler
	OpTryFinally     // Label: handler
	OpEndCatch       // Label: end of the protected expression
	OpEndExcept      // Label: end of the whole statement
	OpEndFinally
	OpFinallyContinue

	// Scatter assignment.
	OpScatter // Scatter

	numOpcodes
)

var opNames = [numOpcodes]string{
	OpImmNone:            "IMM_NONE",
	OpImmInt:             "IMM_INT",
	OpImmFloat:           "IMM_FLOAT",
	OpImmErr:             "IMM_ERR",
	OpImmObjid:           "IMM_OBJID",
	OpImmEmptyList:       "IMM_EMPTY_LIST",
	OpImm:                "IMM",
	OpPush:               "PUSH",
	OpPut:                "PUT",
	OpPop:                "POP",
	OpIf:                 "IF",
	OpEif:                "EIF",
	OpIfQues:             "IF_QUES",
	OpWhile:              "WHILE",
	OpWhileID:            "WHILE_ID",
	OpForList:            "FOR_LIST",
	OpForRange:           "FOR_RANGE",
	OpJump:               "JUMP",
	OpExit:               "EXIT",
	OpExitID:             "EXIT_ID",
	OpFork:               "FORK",
	OpAnd:                "AND",
	OpOr:                 "OR",
	OpNot:                "NOT",
	OpUnaryMinus:         "UNARY_MINUS",
	OpEq:                 "EQ",
	OpNe:                 "NE",
	OpLt:                 "LT",
	OpLe:                 "LE",
	OpGt:                 "GT",
	OpGe:                 "GE",
	OpIn:                 "IN",
	OpAdd:                "ADD",
	OpSub:                "SUB",
	OpMul:                "MUL",
	OpDiv:                "DIV",
	OpMod:                "MOD",
	OpExp:                "EXP",
	OpRef:                "REF",
	OpPushRef:            "PUSH_REF",
	OpRangeRef:           "RANGE_REF",
	OpIndexSet:           "INDEX_SET",
	OpRangeSet:           "RANGE_SET",
	OpLength:             "LENGTH",
	OpPutTemp:            "PUT_TEMP",
	OpPushTemp:           "PUSH_TEMP",
	OpMakeSingletonList:  "MAKE_SINGLETON_LIST",
	OpListAddTail:        "LIST_ADD_TAIL",
	OpListAppend:         "LIST_APPEND",
	OpCheckListForSplice: "CHECK_LIST_FOR_SPLICE",
	OpGetProp:            "GET_PROP",
	OpPushGetProp:        "PUSH_GET_PROP",
	OpPutProp:            "PUT_PROP",
	OpPass:               "PASS",
	OpCallVerb:           "CALL_VERB",
	OpFuncCall:           "FUNC_CALL",
	OpReturn:             "RETURN",
	OpReturn0:            "RETURN_0",
	OpDone:               "DONE",
	OpPushCatchLabel:     "PUSH_CATCH_LABEL",
	OpTryExcept:          "TRY_EXCEPT",
	OpTryCatch:           "TRY_CATCH",
	OpTryFinally:         "TRY_FINALLY",
	OpEndCatch:           "END_CATCH",
	OpEndExcept:          "END_EXCEPT",
	OpEndFinally:         "END_FINALLY",
	OpFinallyContinue:    "FINALLY_CONTINUE",
	OpScatter:            "SCATTER",
}

func (c Opcode) String() string {
	if int(c) < len(opNames) && opNames[c] != "" {
		return opNames[c]
	}
	return fmt.Sprintf("OPCODE(%d)", uint8(c))
}

// Builtin identifies a built-in function by its dense registry id.
type Builtin uint16

// ScatterKind distinguishes the three flavors of scatter target.
type ScatterKind uint8

const (
	ScatterRequired ScatterKind = iota
	ScatterOptional
	ScatterRest
)

// ScatterLabel is one target of a scatter assignment. Optional targets with
// a default expression carry the label of the code that computes it.
type ScatterLabel struct {
	Kind  ScatterKind `cbor:"1,keyasint"`
	ID    Name        `cbor:"2,keyasint"`
	Label *Label      `cbor:"3,keyasint,omitempty"`
}

// ScatterArgs is the operand of OpScatter: the targets in declaration order
// and the label of the first instruction after all default-value code.
type ScatterArgs struct {
	Labels []ScatterLabel `cbor:"1,keyasint"`
	Done   Label          `cbor:"2,keyasint"`
}

// NArgs is the total number of scatter targets.
func (s *ScatterArgs) NArgs() int { return len(s.Labels) }

// NReq is the number of required targets.
func (s *ScatterArgs) NReq() int {
	n := 0
	for _, l := range s.Labels {
		if l.Kind == ScatterRequired {
			n++
		}
	}
	return n
}

// RestIndex is the 1-based position of the rest target, or NArgs+1 when
// there is none.
func (s *ScatterArgs) RestIndex() int {
	for i, l := range s.Labels {
		if l.Kind == ScatterRest {
			return i + 1
		}
	}
	return len(s.Labels) + 1
}

// Op is one decoded instruction. The operand fields form a union; Code
// determines which are meaningful. A flat struct keeps the vectors dense and
// the wire encoding trivial.
type Op struct {
	Code    Opcode       `cbor:"1,keyasint"`
	Label   Label        `cbor:"2,keyasint,omitempty"`
	Name    Name         `cbor:"3,keyasint,omitempty"`
	NameOpt *Name        `cbor:"4,keyasint,omitempty"`
	Int     int64        `cbor:"5,keyasint,omitempty"`
	Float   float64      `cbor:"6,keyasint,omitempty"`
	Err     value.Error  `cbor:"7,keyasint,omitempty"`
	Literal Literal      `cbor:"8,keyasint,omitempty"`
	Stack   Offset       `cbor:"9,keyasint,omitempty"`
	Count   uint16       `cbor:"10,keyasint,omitempty"`
	FV      Offset       `cbor:"11,keyasint,omitempty"`
	Builtin Builtin      `cbor:"12,keyasint,omitempty"`
	Scatter *ScatterArgs `cbor:"13,keyasint,omitempty"`
}
