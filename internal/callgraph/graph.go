package callgraph

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"scopealloc/internal/ir"
)

// Graph holds the call edges of one module.
type Graph struct {
	Edges [][]ir.FuncID // Edges[caller] = callees, sorted, no duplicates
	Indeg []int         // number of distinct callers, self-calls excluded

	module *ir.Module
}

// Build collects call edges from every function body of m. Calls that were
// never resolved to a function are ignored.
func Build(m *ir.Module) *Graph {
	n := len(m.Funcs)
	g := &Graph{
		Edges:  make([][]ir.FuncID, n),
		Indeg:  make([]int, n),
		module: m,
	}
	for from, f := range m.Funcs {
		calls := ir.Calls(f)
		if len(calls) == 0 {
			continue
		}
		seen := make(map[ir.FuncID]struct{}, len(calls))
		for _, in := range calls {
			to := in.Call.Callee
			if m.Func(to) == nil {
				continue
			}
			if _, dup := seen[to]; dup {
				continue
			}
			seen[to] = struct{}{}
			g.Edges[from] = append(g.Edges[from], to)
			if int(to) != from {
				g.Indeg[to]++
			}
		}
		if len(g.Edges[from]) > 1 {
			slices.Sort(g.Edges[from])
		}
	}
	return g
}

// Len reports the number of functions in the graph.
func (g *Graph) Len() int {
	return len(g.Edges)
}

// Module returns the module the graph was built from.
func (g *Graph) Module() *ir.Module {
	return g.module
}

// Callees returns the distinct functions called by id.
func (g *Graph) Callees(id ir.FuncID) []ir.FuncID {
	if id < 0 || int(id) >= len(g.Edges) {
		return nil
	}
	return slices.Clone(g.Edges[id])
}

// Roots returns the functions nobody else calls, in module order.
// A function that only calls itself is still a root.
func (g *Graph) Roots() []ir.FuncID {
	var roots []ir.FuncID
	for i, deg := range g.Indeg {
		if deg == 0 {
			roots = append(roots, funcID(i))
		}
	}
	return roots
}

// ResolveRoots maps function names to ids of their first definitions.
func ResolveRoots(m *ir.Module, names []string) ([]ir.FuncID, error) {
	out := make([]ir.FuncID, 0, len(names))
	for _, name := range names {
		f, ok := m.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("root function @%s: %w", name, ErrUnknownRoot)
		}
		out = append(out, f.ID)
	}
	return out, nil
}

func funcID(i int) ir.FuncID {
	id, err := safecast.Conv[int32](i)
	if err != nil {
		panic(fmt.Errorf("function id overflow: %w", err))
	}
	return ir.FuncID(id)
}
