package vm

import (
	"strings"
	"sync"

	"github.com/moorhen-dev/moorhen/pkg/value"
)

// WorldState is the interpreter's window onto the object database. The VM
// never touches storage directly; property and verb resolution, inheritance,
// and permissions all live behind this interface.
type WorldState interface {
	GetProperty(obj value.Objid, name string) (value.Var, value.Error)
	SetProperty(obj value.Objid, name string, v value.Var) value.Error
	// FindVerb resolves a verb call on an object, walking its parent chain.
	FindVerb(obj value.Objid, name string) (*VerbDef, value.Error)
	// FindVerbAbove resolves a pass(): the same verb name strictly above
	// the given definer in the chain.
	FindVerbAbove(definer value.Objid, name string) (*VerbDef, value.Error)
	Notify(player value.Objid, msg string) value.Error
}

// MemWorld is an in-memory WorldState: a flat object table with single
// inheritance. It backs eval-style tooling and tests; durable storage
// plugs in through the store package instead.
type MemWorld struct {
	mu      sync.RWMutex
	parents map[value.Objid]value.Objid
	props   map[value.Objid]map[string]value.Var
	verbs   map[value.Objid]map[string]*VerbDef
	output  []string
}

func NewMemWorld() *MemWorld {
	return &MemWorld{
		parents: make(map[value.Objid]value.Objid),
		props:   make(map[value.Objid]map[string]value.Var),
		verbs:   make(map[value.Objid]map[string]*VerbDef),
	}
}

// SetParent links obj under parent for property and verb inheritance.
func (w *MemWorld) SetParent(obj, parent value.Objid) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.parents[obj] = parent
}

// AddVerb installs a verb definition on an object.
func (w *MemWorld) AddVerb(obj value.Objid, vd *VerbDef) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.verbs[obj] == nil {
		w.verbs[obj] = make(map[string]*VerbDef)
	}
	w.verbs[obj][strings.ToLower(vd.Name)] = vd
}

func (w *MemWorld) GetProperty(obj value.Objid, name string) (value.Var, value.Error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	name = strings.ToLower(name)
	for {
		if props, ok := w.props[obj]; ok {
			if v, ok := props[name]; ok {
				return v, value.E_NONE
			}
		}
		parent, ok := w.parents[obj]
		if !ok {
			return value.Var{}, value.E_PROPNF
		}
		obj = parent
	}
}

func (w *MemWorld) SetProperty(obj value.Objid, name string, v value.Var) value.Error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.props[obj] == nil {
		w.props[obj] = make(map[string]value.Var)
	}
	w.props[obj][strings.ToLower(name)] = v
	return value.E_NONE
}

func (w *MemWorld) FindVerb(obj value.Objid, name string) (*VerbDef, value.Error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.findVerbLocked(obj, strings.ToLower(name))
}

func (w *MemWorld) findVerbLocked(obj value.Objid, name string) (*VerbDef, value.Error) {
	for {
		if verbs, ok := w.verbs[obj]; ok {
			if vd, ok := verbs[name]; ok {
				return vd, value.E_NONE
			}
		}
		parent, ok := w.parents[obj]
		if !ok {
			return nil, value.E_VERBNF
		}
		obj = parent
	}
}

func (w *MemWorld) FindVerbAbove(definer value.Objid, name string) (*VerbDef, value.Error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	parent, ok := w.parents[definer]
	if !ok {
		return nil, value.E_VERBNF
	}
	return w.findVerbLocked(parent, strings.ToLower(name))
}

func (w *MemWorld) Notify(player value.Objid, msg string) value.Error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.output = append(w.output, msg)
	return value.E_NONE
}

// Output returns everything notify() has emitted so far.
func (w *MemWorld) Output() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, len(w.output))
	copy(out, w.output)
	return out
}
