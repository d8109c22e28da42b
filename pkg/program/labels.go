// Package program defines the compiled verb artifact: the instruction set,
// the jump-label table, the literal pool and the variable-name table. A
// Program is immutable once produced and may be shared across concurrently
// executing tasks.
package program

// Name indexes a slot in an activation's environment array.
// Label indexes the jump-label table.
// Offset indexes a position on an operand stack, or a fork vector.
// Literal indexes the literal pool.
//
// All four are distinct integer domains; mixing them up is a compiler bug,
// which is why they are distinct types rather than bare ints.
type (
	Name    uint16
	Label   uint16
	Offset  uint16
	Literal uint16
)

// JumpLabel is one entry in a program's jump-label table. Branches reference
// labels by id, and the interpreter resolves ids to instruction positions
// through this table, so codegen never back-patches emitted instructions.
//
// A label optionally carries the Name of the loop variable it belongs to, so
// labelled break/continue can resolve their target by name.
type JumpLabel struct {
	ID       Label  `cbor:"1,keyasint"`
	Name     *Name  `cbor:"2,keyasint,omitempty"`
	Position Offset `cbor:"3,keyasint"`
}
