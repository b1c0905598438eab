package callgraph

import (
	"errors"
	"fmt"
	"strings"

	"scopealloc/internal/ir"
)

// ErrUnknownRoot is returned when a configured root names no function.
var ErrUnknownRoot = errors.New("unknown root function")

// Unreachable selects what Walk does with functions no root reaches.
type Unreachable uint8

const (
	// UnreachableVisit walks leftover functions as extra roots in module order.
	UnreachableVisit Unreachable = iota
	// UnreachableSkip leaves them out of the walk.
	UnreachableSkip
)

func (u Unreachable) String() string {
	switch u {
	case UnreachableVisit:
		return "visit"
	case UnreachableSkip:
		return "skip"
	}
	return "unknown"
}

// ParseUnreachable parses "visit" or "skip"; the empty string means visit.
func ParseUnreachable(s string) (Unreachable, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "visit":
		return UnreachableVisit, nil
	case "skip":
		return UnreachableSkip, nil
	}
	return UnreachableVisit, fmt.Errorf("unknown unreachable policy %q (want visit or skip)", s)
}

// WalkOptions controls where a walk starts.
type WalkOptions struct {
	// Roots overrides Graph.Roots when non-empty.
	Roots       []ir.FuncID
	Unreachable Unreachable
}

type frame struct {
	node ir.FuncID
	next int
}

// Walk runs a depth-first traversal. preEdge (may be nil) sees every call
// edge when it is followed; postNode sees every function once, after all of
// its callees have been finished. On a cycle the edge back to a function
// still on the stack is reported but not followed, so that function is
// finished after the callee that closes the cycle.
func (g *Graph) Walk(opts WalkOptions, preEdge func(from, to ir.FuncID), postNode func(ir.FuncID)) {
	visited := make([]bool, len(g.Edges))
	var stack []frame

	visit := func(root ir.FuncID) {
		if root < 0 || int(root) >= len(visited) || visited[root] {
			return
		}
		visited[root] = true
		stack = append(stack[:0], frame{node: root})
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			callees := g.Edges[top.node]
			if top.next < len(callees) {
				to := callees[top.next]
				top.next++
				if preEdge != nil {
					preEdge(top.node, to)
				}
				if !visited[to] {
					visited[to] = true
					stack = append(stack, frame{node: to})
				}
				continue
			}
			done := top.node
			stack = stack[:len(stack)-1]
			if postNode != nil {
				postNode(done)
			}
		}
	}

	roots := opts.Roots
	if len(roots) == 0 {
		roots = g.Roots()
	}
	for _, r := range roots {
		visit(r)
	}
	if opts.Unreachable == UnreachableSkip {
		return
	}
	for i := range visited {
		visit(funcID(i))
	}
}

// PostOrder returns the order in which Walk finishes functions.
func (g *Graph) PostOrder(opts WalkOptions) []ir.FuncID {
	order := make([]ir.FuncID, 0, len(g.Edges))
	g.Walk(opts, nil, func(id ir.FuncID) {
		order = append(order, id)
	})
	return order
}
