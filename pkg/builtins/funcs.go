package builtins

import (
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/moorhen-dev/moorhen/pkg/value"
)

func bfTypeof(_ Env, args []value.Var) Result {
	return Ret(value.Int(int64(args[0].Type())))
}

// display renders a value the way tostr does: strings unquoted, everything
// else in literal notation.
func display(v value.Var) string {
	switch v.Type() {
	case value.TypeStr:
		return v.Str()
	case value.TypeErr:
		return v.Err().Message()
	default:
		return v.String()
	}
}

func bfTostr(_ Env, args []value.Var) Result {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(display(a))
	}
	return Ret(value.Str(b.String()))
}

func bfToint(_ Env, args []value.Var) Result {
	v := args[0]
	switch v.Type() {
	case value.TypeInt:
		return Ret(v)
	case value.TypeFloat:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return RaiseErr(value.E_INVARG)
		}
		return Ret(value.Int(int64(f)))
	case value.TypeStr:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Str()), 10, 64)
		if err != nil {
			return Ret(value.Int(0))
		}
		return Ret(value.Int(n))
	case value.TypeErr:
		return Ret(value.Int(int64(v.Err())))
	}
	return RaiseErr(value.E_TYPE)
}

func bfTofloat(_ Env, args []value.Var) Result {
	v := args[0]
	switch v.Type() {
	case value.TypeFloat:
		return Ret(v)
	case value.TypeInt:
		return Ret(value.Float(float64(v.Int())))
	case value.TypeStr:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str()), 64)
		if err != nil {
			return Ret(value.Float(0))
		}
		return Ret(value.Float(f))
	case value.TypeErr:
		return Ret(value.Float(float64(v.Err())))
	}
	return RaiseErr(value.E_TYPE)
}

func bfToobj(_ Env, args []value.Var) Result {
	v := args[0]
	switch v.Type() {
	case value.TypeObj:
		return Ret(v)
	case value.TypeInt:
		return Ret(value.Obj(value.Objid(v.Int())))
	case value.TypeStr:
		s := strings.TrimSpace(v.Str())
		s = strings.TrimPrefix(s, "#")
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Ret(value.Obj(0))
		}
		return Ret(value.Obj(value.Objid(n)))
	}
	return RaiseErr(value.E_TYPE)
}

func bfLength(_ Env, args []value.Var) Result {
	n, errc := args[0].Len()
	if errc != value.E_NONE {
		return RaiseErr(errc)
	}
	return Ret(value.Int(n))
}

func bfListappend(_ Env, args []value.Var) Result {
	l := args[0]
	if l.Type() != value.TypeList {
		return RaiseErr(value.E_TYPE)
	}
	items := l.ListItems()
	// Insert after the given position, defaulting to the end.
	pos := int64(len(items))
	if len(args) == 3 {
		if args[2].Type() != value.TypeInt {
			return RaiseErr(value.E_TYPE)
		}
		pos = args[2].Int()
	}
	return insertAt(items, args[1], pos)
}

func bfListinsert(_ Env, args []value.Var) Result {
	l := args[0]
	if l.Type() != value.TypeList {
		return RaiseErr(value.E_TYPE)
	}
	items := l.ListItems()
	// Insert before the given position, defaulting to the front.
	pos := int64(0)
	if len(args) == 3 {
		if args[2].Type() != value.TypeInt {
			return RaiseErr(value.E_TYPE)
		}
		pos = args[2].Int() - 1
	}
	return insertAt(items, args[1], pos)
}

func insertAt(items []value.Var, v value.Var, pos int64) Result {
	if pos < 0 {
		pos = 0
	}
	if pos > int64(len(items)) {
		pos = int64(len(items))
	}
	nl := make([]value.Var, 0, len(items)+1)
	nl = append(nl, items[:pos]...)
	nl = append(nl, v)
	nl = append(nl, items[pos:]...)
	return Ret(value.List(nl...))
}

func bfListdelete(_ Env, args []value.Var) Result {
	l := args[0]
	if l.Type() != value.TypeList || args[1].Type() != value.TypeInt {
		return RaiseErr(value.E_TYPE)
	}
	items := l.ListItems()
	i := args[1].Int() - 1
	if i < 0 || i >= int64(len(items)) {
		return RaiseErr(value.E_RANGE)
	}
	nl := make([]value.Var, 0, len(items)-1)
	nl = append(nl, items[:i]...)
	nl = append(nl, items[i+1:]...)
	return Ret(value.List(nl...))
}

func bfSetadd(_ Env, args []value.Var) Result {
	l := args[0]
	if l.Type() != value.TypeList {
		return RaiseErr(value.E_TYPE)
	}
	pos, errc := args[1].IndexIn(l)
	if errc != value.E_NONE {
		return RaiseErr(errc)
	}
	if pos.Int() != 0 {
		return Ret(l)
	}
	nl, errc := l.ListPush(args[1])
	if errc != value.E_NONE {
		return RaiseErr(errc)
	}
	return Ret(nl)
}

func bfSetremove(_ Env, args []value.Var) Result {
	l := args[0]
	if l.Type() != value.TypeList {
		return RaiseErr(value.E_TYPE)
	}
	pos, errc := args[1].IndexIn(l)
	if errc != value.E_NONE {
		return RaiseErr(errc)
	}
	if pos.Int() == 0 {
		return Ret(l)
	}
	return bfListdelete(nil, []value.Var{l, pos})
}

func bfEqual(_ Env, args []value.Var) Result {
	return Ret(value.Bool(args[0].EqualCaseSensitive(args[1])))
}

func bfRaise(_ Env, args []value.Var) Result {
	if args[0].Type() != value.TypeErr {
		return RaiseErr(value.E_INVARG)
	}
	code := args[0].Err()
	r := Result{Kind: RetError, Code: code, Message: code.Message()}
	if len(args) > 1 {
		if args[1].Type() != value.TypeStr {
			return RaiseErr(value.E_TYPE)
		}
		r.Message = args[1].Str()
	}
	if len(args) > 2 {
		r.Value = args[2]
	}
	return r
}

func bfSuspend(_ Env, args []value.Var) Result {
	r := Result{Kind: Suspend}
	if len(args) == 1 {
		switch args[0].Type() {
		case value.TypeInt, value.TypeFloat:
			r.Value = args[0]
		default:
			return RaiseErr(value.E_TYPE)
		}
	}
	return r
}

func bfTime(_ Env, _ []value.Var) Result {
	return Ret(value.Int(time.Now().Unix()))
}

func bfRandom(_ Env, args []value.Var) Result {
	max := int64(math.MaxInt32)
	if len(args) == 1 {
		if args[0].Type() != value.TypeInt {
			return RaiseErr(value.E_TYPE)
		}
		max = args[0].Int()
	}
	if max < 1 {
		return RaiseErr(value.E_INVARG)
	}
	return Ret(value.Int(rand.Int63n(max) + 1))
}

func bfMin(_ Env, args []value.Var) Result { return extreme(args, -1) }
func bfMax(_ Env, args []value.Var) Result { return extreme(args, 1) }

func extreme(args []value.Var, dir int) Result {
	best := args[0]
	for _, a := range args[1:] {
		c, errc := a.Compare(best)
		if errc != value.E_NONE {
			return RaiseErr(errc)
		}
		if c*dir > 0 {
			best = a
		}
	}
	return Ret(best)
}

func bfAbs(_ Env, args []value.Var) Result {
	switch args[0].Type() {
	case value.TypeInt:
		n := args[0].Int()
		if n < 0 {
			n = -n
		}
		return Ret(value.Int(n))
	case value.TypeFloat:
		return Ret(value.Float(math.Abs(args[0].Float())))
	}
	return RaiseErr(value.E_TYPE)
}

func bfNotify(env Env, args []value.Var) Result {
	if args[0].Type() != value.TypeObj || args[1].Type() != value.TypeStr {
		return RaiseErr(value.E_TYPE)
	}
	if errc := env.Notify(args[0].Obj(), args[1].Str()); errc != value.E_NONE {
		return RaiseErr(errc)
	}
	return Ret(value.Int(1))
}

func bfTaskID(env Env, _ []value.Var) Result {
	return Ret(value.Int(env.TaskID()))
}
