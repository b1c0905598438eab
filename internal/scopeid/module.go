package scopeid

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"scopealloc/internal/callgraph"
	"scopealloc/internal/diag"
	"scopealloc/internal/ir"
	"scopealloc/internal/trace"
)

// ModuleAllocation gives every allocated function of a module a disjoint
// range of ids. It is read-only after NewModuleAllocation returns and safe
// for concurrent readers.
type ModuleAllocation struct {
	module  *ir.Module
	order   []ir.FuncID
	offsets map[ir.FuncID]ScopeID
	funcs   map[ir.FuncID]*Allocation
	names   map[ir.FuncID][]ScopeName
	parents map[ir.FuncID][]ScopeParent
	total   ScopeID
}

// NewModuleAllocation allocates every function of m, callees before callers.
// Each function is allocated once however many call sites reach it; its
// offset is the number of scopes allocated before it.
func NewModuleAllocation(m *ir.Module, r diag.Reporter, opts ...Option) *ModuleAllocation {
	o := buildOptions(opts)
	ma := &ModuleAllocation{
		module:  m,
		offsets: make(map[ir.FuncID]ScopeID),
		funcs:   make(map[ir.FuncID]*Allocation),
		names:   make(map[ir.FuncID][]ScopeName),
		parents: make(map[ir.FuncID][]ScopeParent),
	}
	if m == nil {
		return ma
	}

	span := trace.Begin(o.tracer, trace.ScopeModule, "scopeid.module", 0)
	g := callgraph.Build(m)
	walk := callgraph.WalkOptions{Roots: o.roots, Unreachable: o.unreachable}

	var offset ScopeID
	g.Walk(walk, func(from, to ir.FuncID) {}, func(id ir.FuncID) {
		if _, done := ma.funcs[id]; done {
			return
		}
		f := m.Func(id)
		a := NewAllocation(f, r, opts...)
		ma.funcs[id] = a
		ma.offsets[id] = offset
		ma.order = append(ma.order, id)
		if trace.On(o.tracer, trace.ScopeModule) {
			trace.Point(o.tracer, trace.ScopeModule, "scopeid.func",
				fmt.Sprintf("@%s offset=%d scopes=%d", f.Name, offset, a.NumScopes()))
		}
		n, err := safecast.Conv[uint32](a.NumScopes())
		if err != nil {
			panic(fmt.Errorf("scope count overflow in @%s: %w", f.Name, err))
		}
		offset += ScopeID(n)
	})
	ma.total = offset

	for _, id := range ma.order {
		ma.names[id] = ma.funcs[id].shiftedNames(ma.offsets[id])
		ma.parents[id] = []ScopeParent{}
	}
	span.WithExtra("funcs", fmt.Sprint(len(ma.order))).End(fmt.Sprintf("total=%d", ma.total))
	return ma
}

// Module returns the module the allocation was computed for.
func (ma *ModuleAllocation) Module() *ir.Module {
	return ma.module
}

// ScopeIDOf returns the module-wide id of a marker instruction. It fails
// with ErrUnknownInstr for ids outside the module, ErrUnknownFunc when the
// enclosing function was skipped, and ErrNoScopeID when the instruction is
// not a correctly paired marker.
func (ma *ModuleAllocation) ScopeIDOf(id ir.InstrID) (ScopeID, error) {
	f, ok := ma.module.EnclosingFunc(id)
	if !ok {
		return 0, fmt.Errorf("i%d: %w", id, ErrUnknownInstr)
	}
	a, ok := ma.funcs[f.ID]
	if !ok {
		return 0, fmt.Errorf("i%d in @%s: %w", id, f.Name, ErrUnknownFunc)
	}
	local, err := a.InstrScopeID(id)
	if err != nil {
		return 0, err
	}
	return ma.offsets[f.ID] + local, nil
}

// ScopeNamesOf returns the module-space (id, name) pairs of one function.
func (ma *ModuleAllocation) ScopeNamesOf(id ir.FuncID) []ScopeName {
	return slices.Clone(ma.names[id])
}

// ScopeNames returns the (id, name) pairs of every function in allocation
// order. Equal names in different functions keep their distinct ids.
func (ma *ModuleAllocation) ScopeNames() []ScopeName {
	out := make([]ScopeName, 0, int(ma.total))
	for _, id := range ma.order {
		out = append(out, ma.names[id]...)
	}
	return out
}

// ScopeParentsOf returns the parent relation of one function; always empty.
func (ma *ModuleAllocation) ScopeParentsOf(id ir.FuncID) []ScopeParent {
	return append([]ScopeParent{}, ma.parents[id]...)
}

// ScopeParents returns the parent relation of the module; always empty.
func (ma *ModuleAllocation) ScopeParents() []ScopeParent {
	out := []ScopeParent{}
	for _, id := range ma.order {
		out = append(out, ma.parents[id]...)
	}
	return out
}

// NumScopesOf reports how many ids a function occupies.
func (ma *ModuleAllocation) NumScopesOf(id ir.FuncID) int {
	a, ok := ma.funcs[id]
	if !ok {
		return 0
	}
	return a.NumScopes()
}

// Offset returns the first module id of a function's range.
func (ma *ModuleAllocation) Offset(id ir.FuncID) (ScopeID, bool) {
	off, ok := ma.offsets[id]
	return off, ok
}

// Order returns the functions in allocation order.
func (ma *ModuleAllocation) Order() []ir.FuncID {
	return slices.Clone(ma.order)
}

// Allocation returns the per-function result, or nil if the function was
// not allocated.
func (ma *ModuleAllocation) Allocation(id ir.FuncID) *Allocation {
	return ma.funcs[id]
}

// Total reports the size of the module id space.
func (ma *ModuleAllocation) Total() int {
	return int(ma.total)
}
