package program

import "strings"

// The global variables every verb environment starts with, in slot order.
// The compiler seeds its name table with these so that slot assignment is
// stable across every compiled program.
var globalNames = []string{
	"player", "this", "caller", "verb", "args",
	"argstr", "dobj", "dobjstr", "prepstr", "iobj", "iobjstr",
}

// Environment slots of the seeded globals.
const (
	GlobalPlayer Name = iota
	GlobalThis
	GlobalCaller
	GlobalVerb
	GlobalArgs
	GlobalArgstr
	GlobalDobj
	GlobalDobjstr
	GlobalPrepstr
	GlobalIobj
	GlobalIobjstr
)

// Names maps variable identifiers to environment slots. Lookup is
// case-insensitive; the spelling first seen is the one kept for decompilation.
type Names struct {
	names []string
}

// NewNames returns a name table pre-seeded with the built-in globals.
func NewNames() *Names {
	n := &Names{names: make([]string, 0, len(globalNames)+8)}
	n.names = append(n.names, globalNames...)
	return n
}

// FindOrAdd returns the slot for name, allocating a new one on first sight.
func (n *Names) FindOrAdd(name string) Name {
	if id, ok := n.Find(name); ok {
		return id
	}
	n.names = append(n.names, name)
	return Name(len(n.names) - 1)
}

// Find returns the slot for name, if it has one.
func (n *Names) Find(name string) (Name, bool) {
	for i, existing := range n.names {
		if strings.EqualFold(existing, name) {
			return Name(i), true
		}
	}
	return 0, false
}

// NameOf returns the identifier stored in a slot.
func (n *Names) NameOf(id Name) (string, bool) {
	if int(id) >= len(n.names) {
		return "", false
	}
	return n.names[id], true
}

// Width is the number of environment slots a frame for this table needs.
func (n *Names) Width() int {
	return len(n.names)
}

// Symbols returns the identifiers in slot order. The slice is shared; callers
// must not modify it.
func (n *Names) Symbols() []string {
	return n.names
}

// MarshalCBOR encodes the table as its ordered identifier list.
func (n *Names) MarshalCBOR() ([]byte, error) {
	return cborEncMode.Marshal(n.names)
}

// UnmarshalCBOR restores the table from its ordered identifier list.
func (n *Names) UnmarshalCBOR(data []byte) error {
	var names []string
	if err := cborDecode(data, &names); err != nil {
		return err
	}
	n.names = names
	return nil
}
