package value

import "math"

// Arithmetic never mixes ints and floats implicitly: both operands must share
// a numeric type, or the operation yields E_TYPE. All failures come back as
// Error codes, never as Go errors, because the interpreter pushes them as
// values.

// Add sums numbers or concatenates strings.
func (v Var) Add(other Var) (Var, Error) {
	switch {
	case v.t == TypeInt && other.t == TypeInt:
		return Int(v.i + other.i), E_NONE
	case v.t == TypeFloat && other.t == TypeFloat:
		return Float(v.f + other.f), E_NONE
	case v.t == TypeStr && other.t == TypeStr:
		return Str(v.s + other.s), E_NONE
	}
	return Var{}, E_TYPE
}

func (v Var) Sub(other Var) (Var, Error) {
	switch {
	case v.t == TypeInt && other.t == TypeInt:
		return Int(v.i - other.i), E_NONE
	case v.t == TypeFloat && other.t == TypeFloat:
		return Float(v.f - other.f), E_NONE
	}
	return Var{}, E_TYPE
}

func (v Var) Mul(other Var) (Var, Error) {
	switch {
	case v.t == TypeInt && other.t == TypeInt:
		return Int(v.i * other.i), E_NONE
	case v.t == TypeFloat && other.t == TypeFloat:
		return Float(v.f * other.f), E_NONE
	}
	return Var{}, E_TYPE
}

func (v Var) Div(other Var) (Var, Error) {
	switch {
	case v.t == TypeInt && other.t == TypeInt:
		if other.i == 0 {
			return Var{}, E_DIV
		}
		return Int(v.i / other.i), E_NONE
	case v.t == TypeFloat && other.t == TypeFloat:
		if other.f == 0 {
			return Var{}, E_DIV
		}
		return Float(v.f / other.f), E_NONE
	}
	return Var{}, E_TYPE
}

func (v Var) Mod(other Var) (Var, Error) {
	switch {
	case v.t == TypeInt && other.t == TypeInt:
		if other.i == 0 {
			return Var{}, E_DIV
		}
		return Int(v.i % other.i), E_NONE
	case v.t == TypeFloat && other.t == TypeFloat:
		if other.f == 0 {
			return Var{}, E_DIV
		}
		return Float(math.Mod(v.f, other.f)), E_NONE
	}
	return Var{}, E_TYPE
}

// Pow raises v to other. An integer base takes only an integer exponent; a
// float base takes either.
func (v Var) Pow(other Var) (Var, Error) {
	switch v.t {
	case TypeInt:
		if other.t != TypeInt {
			return Var{}, E_TYPE
		}
		return intPow(v.i, other.i)
	case TypeFloat:
		switch other.t {
		case TypeInt:
			return Float(math.Pow(v.f, float64(other.i))), E_NONE
		case TypeFloat:
			return Float(math.Pow(v.f, other.f)), E_NONE
		}
		return Var{}, E_TYPE
	}
	return Var{}, E_TYPE
}

func intPow(base, exp int64) (Var, Error) {
	if exp < 0 {
		switch base {
		case 0:
			return Var{}, E_DIV
		case 1:
			return Int(1), E_NONE
		case -1:
			if exp%2 == 0 {
				return Int(1), E_NONE
			}
			return Int(-1), E_NONE
		default:
			return Int(0), E_NONE
		}
	}
	var r int64 = 1
	for ; exp != 0; exp >>= 1 {
		if exp&1 != 0 {
			r *= base
		}
		base *= base
	}
	return Int(r), E_NONE
}

// Negate returns the arithmetic negation of a number.
func (v Var) Negate() (Var, Error) {
	switch v.t {
	case TypeInt:
		return Int(-v.i), E_NONE
	case TypeFloat:
		return Float(-v.f), E_NONE
	}
	return Var{}, E_TYPE
}

// Index returns v[index] with 1-based indexing over lists and strings.
func (v Var) Index(index int64) (Var, Error) {
	i := index - 1
	switch v.t {
	case TypeList:
		if i < 0 || i >= int64(len(v.l)) {
			return Var{}, E_RANGE
		}
		return v.l[i], E_NONE
	case TypeStr:
		if i < 0 || i >= int64(len(v.s)) {
			return Var{}, E_RANGE
		}
		return Str(v.s[i : i+1]), E_NONE
	}
	return Var{}, E_TYPE
}

// IndexSet returns a copy of v with v[index] replaced. String elements must
// be single-character strings.
func (v Var) IndexSet(index int64, val Var) (Var, Error) {
	i := index - 1
	switch v.t {
	case TypeList:
		if i < 0 || i >= int64(len(v.l)) {
			return Var{}, E_RANGE
		}
		nl := make([]Var, len(v.l))
		copy(nl, v.l)
		nl[i] = val
		return List(nl...), E_NONE
	case TypeStr:
		if i < 0 || i >= int64(len(v.s)) {
			return Var{}, E_RANGE
		}
		if val.t != TypeStr || len(val.s) != 1 {
			return Var{}, E_INVARG
		}
		return Str(v.s[:i] + val.s + v.s[i+1:]), E_NONE
	}
	return Var{}, E_TYPE
}

// Range returns v[from..to], 1-based and inclusive. An inverted range yields
// an empty value of the same type; bounds outside the sequence yield E_RANGE.
func (v Var) Range(from, to int64) (Var, Error) {
	if to < from {
		switch v.t {
		case TypeList:
			return List(), E_NONE
		case TypeStr:
			return Str(""), E_NONE
		}
		return Var{}, E_TYPE
	}
	switch v.t {
	case TypeList:
		if from < 1 || to > int64(len(v.l)) {
			return Var{}, E_RANGE
		}
		sub := make([]Var, to-from+1)
		copy(sub, v.l[from-1:to])
		return List(sub...), E_NONE
	case TypeStr:
		if from < 1 || to > int64(len(v.s)) {
			return Var{}, E_RANGE
		}
		return Str(v.s[from-1 : to]), E_NONE
	}
	return Var{}, E_TYPE
}

// RangeSet returns a copy of v with v[from..to] replaced by val: replacement
// when the ranges overlap, insertion when the source range is empty
// (to == from-1), deletion when val is empty. The replacement must be the
// same sequence type as the base.
func (v Var) RangeSet(val Var, from, to int64) (Var, Error) {
	switch v.t {
	case TypeList:
		if val.t != TypeList {
			return Var{}, E_TYPE
		}
		n := int64(len(v.l))
		if from < 1 || from > n+1 || to < from-1 || to > n {
			return Var{}, E_RANGE
		}
		nl := make([]Var, 0, from-1+int64(len(val.l))+n-to)
		nl = append(nl, v.l[:from-1]...)
		nl = append(nl, val.l...)
		nl = append(nl, v.l[to:]...)
		return List(nl...), E_NONE
	case TypeStr:
		if val.t != TypeStr {
			return Var{}, E_TYPE
		}
		n := int64(len(v.s))
		if from < 1 || from > n+1 || to < from-1 || to > n {
			return Var{}, E_RANGE
		}
		return Str(v.s[:from-1] + val.s + v.s[to:]), E_NONE
	}
	return Var{}, E_TYPE
}

// IndexIn implements the `in` operator: the 1-based position of v in the
// list, or 0 if absent.
func (v Var) IndexIn(list Var) (Var, Error) {
	if list.t != TypeList {
		return Var{}, E_TYPE
	}
	for i, e := range list.l {
		if v.Equal(e) {
			return Int(int64(i + 1)), E_NONE
		}
	}
	return Int(0), E_NONE
}

// ListPush returns a copy of the list with one element appended.
func (v Var) ListPush(item Var) (Var, Error) {
	if v.t != TypeList {
		return Var{}, E_TYPE
	}
	nl := make([]Var, 0, len(v.l)+1)
	nl = append(nl, v.l...)
	nl = append(nl, item)
	return List(nl...), E_NONE
}

// ListConcat returns the concatenation of two lists.
func (v Var) ListConcat(tail Var) (Var, Error) {
	if v.t != TypeList || tail.t != TypeList {
		return Var{}, E_TYPE
	}
	nl := make([]Var, 0, len(v.l)+len(tail.l))
	nl = append(nl, v.l...)
	nl = append(nl, tail.l...)
	return List(nl...), E_NONE
}
