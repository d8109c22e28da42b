package builtins

import (
	"testing"

	"github.com/moorhen-dev/moorhen/pkg/program"
	"github.com/moorhen-dev/moorhen/pkg/value"
)

type fakeEnv struct {
	taskID   int64
	notified []string
}

func (f *fakeEnv) TaskID() int64 { return f.taskID }

func (f *fakeEnv) Notify(player value.Objid, msg string) value.Error {
	if player < 0 {
		return value.E_INVARG
	}
	f.notified = append(f.notified, msg)
	return value.E_NONE
}

func call(t *testing.T, name string, args ...value.Var) Result {
	t.Helper()
	id, ok := Lookup(name)
	if !ok {
		t.Fatalf("unknown builtin %q", name)
	}
	return Dispatch(id, &fakeEnv{taskID: 7}, args)
}

func wantValue(t *testing.T, r Result, want value.Var) {
	t.Helper()
	if r.Kind != RetValue {
		t.Fatalf("result kind = %d (code %v), want value", r.Kind, r.Code)
	}
	if !r.Value.EqualCaseSensitive(want) {
		t.Fatalf("got %s, want %s", r.Value, want)
	}
}

func wantError(t *testing.T, r Result, code value.Error) {
	t.Helper()
	if r.Kind != RetError || r.Code != code {
		t.Fatalf("result = kind %d code %v, want error %v", r.Kind, r.Code, code)
	}
}

func TestLookupIsStable(t *testing.T) {
	// Ids are part of the wire format: the first few registrations must
	// never move.
	for i, name := range []string{"typeof", "tostr", "toint"} {
		id, ok := Lookup(name)
		if !ok || id != program.Builtin(i) {
			t.Errorf("Lookup(%s) = (%d, %v), want %d", name, id, ok, i)
		}
	}
	if got, _ := Name(0); got != "typeof" {
		t.Errorf("Name(0) = %q", got)
	}
	if id, ok := Lookup("TOSTR"); !ok || id != 1 {
		t.Errorf("case-insensitive lookup failed: (%d, %v)", id, ok)
	}
	if _, ok := Lookup("no_such_fn"); ok {
		t.Errorf("Lookup accepted unknown name")
	}
}

func TestArityChecks(t *testing.T) {
	wantError(t, call(t, "typeof"), value.E_ARGS)
	wantError(t, call(t, "typeof", value.Int(1), value.Int(2)), value.E_ARGS)
	wantError(t, call(t, "time", value.Int(1)), value.E_ARGS)
}

func TestConversions(t *testing.T) {
	wantValue(t, call(t, "typeof", value.Str("x")), value.Int(int64(value.TypeStr)))
	wantValue(t, call(t, "tostr", value.Int(1), value.Str("+"), value.Float(2.5)), value.Str("1+2.5"))
	wantValue(t, call(t, "toint", value.Str(" 42 ")), value.Int(42))
	wantValue(t, call(t, "toint", value.Str("junk")), value.Int(0))
	wantValue(t, call(t, "toint", value.Float(3.9)), value.Int(3))
	wantValue(t, call(t, "tofloat", value.Int(2)), value.Float(2))
	wantValue(t, call(t, "toobj", value.Str("#17")), value.Obj(17))
	wantError(t, call(t, "toint", value.List()), value.E_TYPE)
}

func TestListBuiltins(t *testing.T) {
	l := value.List(value.Int(1), value.Int(2), value.Int(3))

	wantValue(t, call(t, "length", l), value.Int(3))
	wantValue(t, call(t, "listappend", l, value.Int(4)),
		value.List(value.Int(1), value.Int(2), value.Int(3), value.Int(4)))
	wantValue(t, call(t, "listappend", l, value.Int(9), value.Int(1)),
		value.List(value.Int(1), value.Int(9), value.Int(2), value.Int(3)))
	wantValue(t, call(t, "listinsert", l, value.Int(0)),
		value.List(value.Int(0), value.Int(1), value.Int(2), value.Int(3)))
	wantValue(t, call(t, "listinsert", l, value.Int(9), value.Int(2)),
		value.List(value.Int(1), value.Int(9), value.Int(2), value.Int(3)))
	wantValue(t, call(t, "listdelete", l, value.Int(2)),
		value.List(value.Int(1), value.Int(3)))
	wantError(t, call(t, "listdelete", l, value.Int(4)), value.E_RANGE)

	wantValue(t, call(t, "setadd", l, value.Int(2)), l)
	wantValue(t, call(t, "setadd", l, value.Int(4)),
		value.List(value.Int(1), value.Int(2), value.Int(3), value.Int(4)))
	wantValue(t, call(t, "setremove", l, value.Int(2)),
		value.List(value.Int(1), value.Int(3)))
	wantValue(t, call(t, "setremove", l, value.Int(9)), l)
}

func TestEqualIsCaseSensitive(t *testing.T) {
	wantValue(t, call(t, "equal", value.Str("Foo"), value.Str("foo")), value.Int(0))
	wantValue(t, call(t, "equal", value.Str("foo"), value.Str("foo")), value.Int(1))
}

func TestRaise(t *testing.T) {
	r := call(t, "raise", value.Err(value.E_PERM))
	if r.Kind != RetError || r.Code != value.E_PERM || r.Message != value.E_PERM.Message() {
		t.Fatalf("raise(E_PERM) = %+v", r)
	}
	r = call(t, "raise", value.Err(value.E_PERM), value.Str("no way"), value.Int(5))
	if r.Code != value.E_PERM || r.Message != "no way" || !r.Value.Equal(value.Int(5)) {
		t.Fatalf("raise with message/value = %+v", r)
	}
	wantError(t, call(t, "raise", value.Int(1)), value.E_INVARG)
}

func TestSuspend(t *testing.T) {
	r := call(t, "suspend")
	if r.Kind != Suspend || !r.Value.IsNone() {
		t.Fatalf("suspend() = %+v", r)
	}
	r = call(t, "suspend", value.Int(5))
	if r.Kind != Suspend || !r.Value.Equal(value.Int(5)) {
		t.Fatalf("suspend(5) = %+v", r)
	}
	wantError(t, call(t, "suspend", value.Str("x")), value.E_TYPE)
}

func TestNumeric(t *testing.T) {
	wantValue(t, call(t, "min", value.Int(3), value.Int(1), value.Int(2)), value.Int(1))
	wantValue(t, call(t, "max", value.Int(3), value.Int(1), value.Int(2)), value.Int(3))
	wantError(t, call(t, "min", value.Int(1), value.Float(2)), value.E_TYPE)
	wantValue(t, call(t, "abs", value.Int(-4)), value.Int(4))
	wantValue(t, call(t, "abs", value.Float(-1.5)), value.Float(1.5))

	r := call(t, "random", value.Int(1))
	wantValue(t, r, value.Int(1))
	wantError(t, call(t, "random", value.Int(0)), value.E_INVARG)
}

func TestEnvBuiltins(t *testing.T) {
	env := &fakeEnv{taskID: 42}
	id, _ := Lookup("task_id")
	r := Dispatch(id, env, nil)
	wantValue(t, r, value.Int(42))

	id, _ = Lookup("notify")
	r = Dispatch(id, env, []value.Var{value.Obj(2), value.Str("hello")})
	wantValue(t, r, value.Int(1))
	if len(env.notified) != 1 || env.notified[0] != "hello" {
		t.Errorf("notify did not reach the env: %v", env.notified)
	}
	r = Dispatch(id, env, []value.Var{value.Obj(-1), value.Str("x")})
	wantError(t, r, value.E_INVARG)
}
