package scopeid

import (
	"errors"
)

// ScopeID numbers a scope name. Per function ids start at zero; module ids
// are shifted by the function's offset.
type ScopeID uint32

// ScopeName pairs an id with its scope name.
type ScopeName struct {
	ID   ScopeID
	Name string
}

// ScopeParent links a scope to its enclosing scope. Nothing produces these
// yet; the type keeps the query surface stable.
type ScopeParent struct {
	ID     ScopeID
	Parent ScopeID
}

var (
	// ErrNoScopeID is returned for instructions that have no scope id: they
	// are not scope markers, or they were part of a nesting defect.
	ErrNoScopeID = errors.New("instruction has no scope id")
	// ErrUnknownInstr is returned for instruction ids outside the module.
	ErrUnknownInstr = errors.New("instruction not in module")
	// ErrUnknownFunc is returned for functions that were not allocated.
	ErrUnknownFunc = errors.New("function not allocated")
)
