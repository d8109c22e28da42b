package value

import "testing"

func TestTruthiness(t *testing.T) {
	tests := []struct {
		name string
		v    Var
		want bool
	}{
		{"none", None(), false},
		{"zero int", Int(0), false},
		{"nonzero int", Int(3), true},
		{"negative int", Int(-1), true},
		{"zero float", Float(0), false},
		{"nonzero float", Float(0.5), true},
		{"empty string", Str(""), false},
		{"string", Str("x"), true},
		{"empty list", List(), false},
		{"list", List(Int(1)), true},
		{"object", Obj(1), false},
		{"error", Err(E_PERM), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsTrue(); got != tt.want {
				t.Errorf("IsTrue(%s) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestEquality(t *testing.T) {
	tests := []struct {
		name string
		a, b Var
		want bool
	}{
		{"ints", Int(1), Int(1), true},
		{"ints differ", Int(1), Int(2), false},
		{"int vs float", Int(1), Float(1), false},
		{"strings fold case", Str("Foo"), Str("foo"), true},
		{"objects", Obj(2), Obj(2), true},
		{"errors", Err(E_TYPE), Err(E_TYPE), true},
		{"lists", List(Int(1), Str("a")), List(Int(1), Str("A")), true},
		{"lists differ", List(Int(1)), List(Int(2)), false},
		{"none", None(), None(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("%s == %s: got %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}

	if Str("Foo").EqualCaseSensitive(Str("foo")) {
		t.Errorf("case-sensitive equality folded case")
	}
}

func TestCompare(t *testing.T) {
	got, errc := Str("abc").Compare(Str("ABD"))
	if errc != E_NONE || got != -1 {
		t.Errorf("string compare: got (%d, %v)", got, errc)
	}
	if _, errc := Int(1).Compare(Float(1)); errc != E_TYPE {
		t.Errorf("cross-type compare: want E_TYPE, got %v", errc)
	}
	if _, errc := List(Int(1)).Compare(List(Int(1))); errc != E_TYPE {
		t.Errorf("list compare: want E_TYPE, got %v", errc)
	}
}

func TestParseError(t *testing.T) {
	e, ok := ParseError("e_propnf")
	if !ok || e != E_PROPNF {
		t.Fatalf("ParseError(e_propnf) = (%v, %v)", e, ok)
	}
	if _, ok := ParseError("E_BOGUS"); ok {
		t.Fatalf("ParseError accepted unknown name")
	}
}

func TestVarCBORRoundTrip(t *testing.T) {
	vals := []Var{
		None(),
		Int(-42),
		Float(3.25),
		Str("hello"),
		Obj(-1),
		Err(E_RANGE),
		List(),
		List(Int(1), Str("two"), List(Obj(3), Err(E_PERM))),
	}
	for _, v := range vals {
		data, err := v.MarshalCBOR()
		if err != nil {
			t.Fatalf("marshal %s: %v", v, err)
		}
		var back Var
		if err := back.UnmarshalCBOR(data); err != nil {
			t.Fatalf("unmarshal %s: %v", v, err)
		}
		if !v.EqualCaseSensitive(back) {
			t.Errorf("round trip %s: got %s", v, back)
		}
		// Canonical encoding: same value, same bytes.
		again, err := back.MarshalCBOR()
		if err != nil {
			t.Fatalf("re-marshal %s: %v", v, err)
		}
		if string(again) != string(data) {
			t.Errorf("encoding of %s is not deterministic", v)
		}
	}
}
