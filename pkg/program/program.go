package program

import (
	"github.com/moorhen-dev/moorhen/pkg/value"
)

// Program is the complete compiled form of one verb: the main instruction
// vector, one extra vector per fork statement, and the shared tables the
// vectors index into.
type Program struct {
	Literals    []value.Var `cbor:"1,keyasint"`
	JumpLabels  []JumpLabel `cbor:"2,keyasint"`
	VarNames    *Names      `cbor:"3,keyasint"`
	MainVector  []Op        `cbor:"4,keyasint"`
	ForkVectors [][]Op      `cbor:"5,keyasint,omitempty"`

	// MaxStack is the deepest operand-stack level the compiler observed, so
	// frames can preallocate their value stack.
	MaxStack Offset `cbor:"6,keyasint,omitempty"`
}

// New returns an empty program with a seeded name table.
func New() *Program {
	return &Program{
		Literals:   []value.Var{},
		JumpLabels: []JumpLabel{},
		VarNames:   NewNames(),
		MainVector: []Op{},
	}
}

// FindLiteral returns the pool entry at the given index.
func (p *Program) FindLiteral(l Literal) value.Var {
	return p.Literals[l]
}

// JumpPosition resolves a label id to an instruction position.
func (p *Program) JumpPosition(l Label) Offset {
	return p.JumpLabels[l].Position
}

// FindJump returns the full jump-label entry for a label id.
func (p *Program) FindJump(l Label) (JumpLabel, bool) {
	if int(l) >= len(p.JumpLabels) {
		return JumpLabel{}, false
	}
	return p.JumpLabels[l], true
}

// Fork returns the fork vector at the given offset.
func (p *Program) Fork(fv Offset) []Op {
	return p.ForkVectors[fv]
}
