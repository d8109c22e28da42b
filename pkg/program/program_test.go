package program

import (
	"strings"
	"testing"

	"github.com/moorhen-dev/moorhen/pkg/value"
)

func TestNamesSeededGlobals(t *testing.T) {
	n := NewNames()
	if n.Width() != 11 {
		t.Fatalf("seeded width = %d, want 11", n.Width())
	}
	id, ok := n.Find("this")
	if !ok || id != GlobalThis {
		t.Errorf("Find(this) = (%d, %v), want %d", id, ok, GlobalThis)
	}
	// Lookup folds case but keeps the first spelling.
	if got := n.FindOrAdd("PLAYER"); got != GlobalPlayer {
		t.Errorf("FindOrAdd(PLAYER) = %d, want %d", got, GlobalPlayer)
	}
	sym, _ := n.NameOf(GlobalPlayer)
	if sym != "player" {
		t.Errorf("NameOf(player slot) = %q", sym)
	}
}

func TestNamesFindOrAdd(t *testing.T) {
	n := NewNames()
	a := n.FindOrAdd("counter")
	b := n.FindOrAdd("Counter")
	if a != b {
		t.Errorf("case-folded lookup allocated a second slot: %d vs %d", a, b)
	}
	c := n.FindOrAdd("other")
	if c != a+1 {
		t.Errorf("slots are not allocated in order: %d after %d", c, a)
	}
	if _, ok := n.Find("missing"); ok {
		t.Errorf("Find(missing) succeeded")
	}
}

func TestScatterArgs(t *testing.T) {
	lbl := Label(3)
	s := &ScatterArgs{
		Labels: []ScatterLabel{
			{Kind: ScatterRequired, ID: 11},
			{Kind: ScatterRequired, ID: 12},
			{Kind: ScatterOptional, ID: 13, Label: &lbl},
			{Kind: ScatterRest, ID: 14},
		},
		Done: 4,
	}
	if s.NArgs() != 4 {
		t.Errorf("NArgs = %d", s.NArgs())
	}
	if s.NReq() != 2 {
		t.Errorf("NReq = %d", s.NReq())
	}
	if s.RestIndex() != 4 {
		t.Errorf("RestIndex = %d", s.RestIndex())
	}

	noRest := &ScatterArgs{Labels: s.Labels[:2], Done: 1}
	if noRest.RestIndex() != 3 {
		t.Errorf("RestIndex without rest = %d, want NArgs+1", noRest.RestIndex())
	}
}

func sampleProgram() *Program {
	p := New()
	x := p.VarNames.FindOrAdd("x")
	p.Literals = append(p.Literals, value.Str("hello"))
	p.JumpLabels = append(p.JumpLabels,
		JumpLabel{ID: 0, Position: 5},
		JumpLabel{ID: 1, Name: &x, Position: 2},
	)
	p.MainVector = []Op{
		{Code: OpImmInt, Int: 2},
		{Code: OpImm, Literal: 0},
		{Code: OpPut, Name: x},
		{Code: OpPop},
		{Code: OpFork, FV: 0},
		{Code: OpDone},
	}
	p.ForkVectors = [][]Op{{
		{Code: OpPush, Name: x},
		{Code: OpReturn},
		{Code: OpDone},
	}}
	return p
}

func TestWireRoundTrip(t *testing.T) {
	p := sampleProgram()
	data, err := Encode(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(back.MainVector) != len(p.MainVector) {
		t.Fatalf("main vector length %d, want %d", len(back.MainVector), len(p.MainVector))
	}
	for i := range p.MainVector {
		if back.MainVector[i].Code != p.MainVector[i].Code {
			t.Errorf("op %d: %s, want %s", i, back.MainVector[i].Code, p.MainVector[i].Code)
		}
	}
	if !back.FindLiteral(0).EqualCaseSensitive(value.Str("hello")) {
		t.Errorf("literal pool mangled: %s", back.FindLiteral(0))
	}
	if back.VarNames.Width() != p.VarNames.Width() {
		t.Errorf("name table width %d, want %d", back.VarNames.Width(), p.VarNames.Width())
	}
	jl, ok := back.FindJump(1)
	if !ok || jl.Position != 2 || jl.Name == nil {
		t.Errorf("jump label 1 mangled: %+v", jl)
	}

	// Canonical encoding: re-encoding the decoded program reproduces the
	// original bytes exactly.
	again, err := Encode(back)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if string(again) != string(data) {
		t.Errorf("encoding is not deterministic")
	}
}

func TestDecodeRejectsBadHeader(t *testing.T) {
	p := sampleProgram()
	data, err := cborEncMode.Marshal(programWire{Magic: "XXXX", Version: wireVersion, Body: p})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(data); err == nil {
		t.Errorf("decode accepted bad magic")
	}

	data, err = cborEncMode.Marshal(programWire{Magic: wireMagic, Version: 99, Body: p})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(data); err == nil {
		t.Errorf("decode accepted future version")
	}

	if _, err := Decode([]byte{0xff, 0x00}); err == nil {
		t.Errorf("decode accepted garbage")
	}
}

func TestDisassemble(t *testing.T) {
	out := Disassemble(sampleProgram())
	for _, want := range []string{"MAIN:", "FORK 0:", "IMM_INT", `"hello"`, "PUT", "x"} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q:\n%s", want, out)
		}
	}
}
