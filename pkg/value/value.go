// Package value implements the runtime value model: a closed tagged variant
// over none, integers, floats, strings, object references, error codes and
// lists, together with the operator semantics the interpreter leans on
// (1-based indexing, range slicing and assignment, truth testing, ordering).
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Type tags a Var.
type Type uint8

const (
	TypeNone Type = iota
	TypeInt
	TypeFloat
	TypeStr
	TypeObj
	TypeErr
	TypeList
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeStr:
		return "str"
	case TypeObj:
		return "obj"
	case TypeErr:
		return "err"
	case TypeList:
		return "list"
	}
	return fmt.Sprintf("type?%d", uint8(t))
}

// Objid is a reference to an object in the world. Negative ids are valid and
// conventionally used for system sentinels (#-1 is "nothing").
type Objid int64

// Var is a single runtime value. The zero Var is None, which the interpreter
// also treats as "unset" in variable environments.
//
// Vars are immutable by convention: operations return new Vars and never
// mutate list contents in place, so they may be shared freely across
// activations and forked tasks.
type Var struct {
	t Type
	i int64
	f float64
	s string
	l []Var
}

// None returns the none value.
func None() Var { return Var{} }

// Int returns an integer value.
func Int(i int64) Var { return Var{t: TypeInt, i: i} }

// Float returns a float value.
func Float(f float64) Var { return Var{t: TypeFloat, f: f} }

// Str returns a string value.
func Str(s string) Var { return Var{t: TypeStr, s: s} }

// Obj returns an object-reference value.
func Obj(o Objid) Var { return Var{t: TypeObj, i: int64(o)} }

// Err returns an error-code value.
func Err(e Error) Var { return Var{t: TypeErr, i: int64(e)} }

// List returns a list value holding the given elements. The slice is owned by
// the new value and must not be mutated afterwards.
func List(items ...Var) Var {
	if items == nil {
		items = []Var{}
	}
	return Var{t: TypeList, l: items}
}

// Bool returns Int(1) or Int(0); the language has no distinct boolean type.
func Bool(b bool) Var {
	if b {
		return Int(1)
	}
	return Int(0)
}

func (v Var) Type() Type { return v.t }

func (v Var) IsNone() bool { return v.t == TypeNone }

// Int returns the integer payload; valid only when Type() == TypeInt.
func (v Var) Int() int64 { return v.i }

// Float returns the float payload; valid only when Type() == TypeFloat.
func (v Var) Float() float64 { return v.f }

// Str returns the string payload; valid only when Type() == TypeStr.
func (v Var) Str() string { return v.s }

// Obj returns the object payload; valid only when Type() == TypeObj.
func (v Var) Obj() Objid { return Objid(v.i) }

// Err returns the error payload; valid only when Type() == TypeErr.
func (v Var) Err() Error { return Error(v.i) }

// ListItems returns the list payload; valid only when Type() == TypeList.
// Callers must not mutate the returned slice.
func (v Var) ListItems() []Var { return v.l }

// IsTrue reports language-level truthiness: non-zero numbers and non-empty
// strings and lists are true; none, objects and errors are false.
func (v Var) IsTrue() bool {
	switch v.t {
	case TypeInt:
		return v.i != 0
	case TypeFloat:
		return v.f != 0
	case TypeStr:
		return v.s != ""
	case TypeList:
		return len(v.l) > 0
	default:
		return false
	}
}

// Equal is the language's `==`: strings compare case-insensitively, lists
// compare elementwise, values of different types are unequal (never an error).
func (v Var) Equal(other Var) bool {
	return v.equal(other, false)
}

// EqualCaseSensitive compares with case-sensitive string semantics, as the
// `equal()` builtin and the codegen literal pool do.
func (v Var) EqualCaseSensitive(other Var) bool {
	return v.equal(other, true)
}

func (v Var) equal(other Var, caseSensitive bool) bool {
	if v.t != other.t {
		return false
	}
	switch v.t {
	case TypeNone:
		return true
	case TypeInt, TypeObj, TypeErr:
		return v.i == other.i
	case TypeFloat:
		return v.f == other.f
	case TypeStr:
		if caseSensitive {
			return v.s == other.s
		}
		return strings.EqualFold(v.s, other.s)
	case TypeList:
		if len(v.l) != len(other.l) {
			return false
		}
		for i := range v.l {
			if !v.l[i].equal(other.l[i], caseSensitive) {
				return false
			}
		}
		return true
	}
	return false
}

// Compare orders two values of the same type: -1, 0 or 1. Lists and none do
// not order; comparing across types or against them yields E_TYPE.
func (v Var) Compare(other Var) (int, Error) {
	if v.t != other.t {
		return 0, E_TYPE
	}
	switch v.t {
	case TypeInt, TypeObj, TypeErr:
		return cmpInt(v.i, other.i), E_NONE
	case TypeFloat:
		if v.f < other.f {
			return -1, E_NONE
		}
		if v.f > other.f {
			return 1, E_NONE
		}
		return 0, E_NONE
	case TypeStr:
		a, b := strings.ToLower(v.s), strings.ToLower(other.s)
		return strings.Compare(a, b), E_NONE
	default:
		return 0, E_TYPE
	}
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Len returns the length of a string or list, or E_TYPE.
func (v Var) Len() (int64, Error) {
	switch v.t {
	case TypeStr:
		return int64(len(v.s)), E_NONE
	case TypeList:
		return int64(len(v.l)), E_NONE
	default:
		return 0, E_TYPE
	}
}

// String renders the value the way the language's tostr()/toliteral() would,
// which the disassembler and tracebacks rely on.
func (v Var) String() string {
	switch v.t {
	case TypeNone:
		return "none"
	case TypeInt:
		return strconv.FormatInt(v.i, 10)
	case TypeFloat:
		// Always keep a fractional marker so floats read back as floats.
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") && !math.IsInf(v.f, 0) && !math.IsNaN(v.f) {
			s += ".0"
		}
		return s
	case TypeStr:
		return strconv.Quote(v.s)
	case TypeObj:
		return fmt.Sprintf("#%d", v.i)
	case TypeErr:
		return Error(v.i).Name()
	case TypeList:
		var sb strings.Builder
		sb.WriteByte('{')
		for i, e := range v.l {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.String())
		}
		sb.WriteByte('}')
		return sb.String()
	}
	return "?"
}
