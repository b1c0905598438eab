// Package testkit holds invariant checks shared by tests and fuzz targets.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"scopealloc/internal/ir"
	"scopealloc/internal/scopeid"
	"scopealloc/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed
// module:
// 1) every function and instruction span is non-empty, points at sf and
// lies within its content
// 2) instruction spans start in pre-order within each function
func CheckSpanInvariants(m *ir.Module, sf *source.File) error {
	if m == nil || sf == nil {
		return fmt.Errorf("nil module or file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	check := func(what string, sp source.Span) error {
		if sp.End <= sp.Start {
			return fmt.Errorf("%s: empty span %v", what, sp)
		}
		if sp.File != sf.ID {
			return fmt.Errorf("%s: span points to file %d, want %d", what, sp.File, sf.ID)
		}
		if sp.End > lenContent {
			return fmt.Errorf("%s: span end beyond content: %d > %d", what, sp.End, lenContent)
		}
		return nil
	}
	for _, f := range m.Funcs {
		if err := check("func @"+f.Name, f.Span); err != nil {
			return err
		}
		var prev uint32
		ir.Walk(f, func(in *ir.Instr) bool {
			if err != nil {
				return false
			}
			what := fmt.Sprintf("i%d in @%s", in.ID, f.Name)
			if err = check(what, in.Span); err != nil {
				return false
			}
			if in.Span.Start < prev {
				err = fmt.Errorf("%s: span starts at %d before previous instruction at %d", what, in.Span.Start, prev)
				return false
			}
			prev = in.Span.Start
			return true
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// CheckAllocation verifies the structural guarantees of a module
// allocation:
// 1) functions in Order occupy consecutive ranges starting at 0 and the
// ranges add up to Total
// 2) each function's names are dense within its range, ascending, and
// Names of the per-function allocation agree after shifting
// 3) the parent relation is empty
func CheckAllocation(ma *scopeid.ModuleAllocation) error {
	if ma == nil {
		return fmt.Errorf("nil allocation")
	}
	var next scopeid.ScopeID
	for _, fn := range ma.Order() {
		off, ok := ma.Offset(fn)
		if !ok {
			return fmt.Errorf("func %d in order but has no offset", fn)
		}
		if off != next {
			return fmt.Errorf("func %d: offset %d, want %d", fn, off, next)
		}
		count := ma.NumScopesOf(fn)
		names := ma.ScopeNamesOf(fn)
		if len(names) != count {
			return fmt.Errorf("func %d: %d names for %d scopes", fn, len(names), count)
		}
		local := ma.Allocation(fn).Names()
		for i, sn := range names {
			want := off + scopeid.ScopeID(i)
			if sn.ID != want {
				return fmt.Errorf("func %d: name %d has id %d, want %d", fn, i, sn.ID, want)
			}
			if local[i].Name != sn.Name || local[i].ID+off != sn.ID {
				return fmt.Errorf("func %d: module name %v does not match local %v", fn, sn, local[i])
			}
		}
		if len(ma.ScopeParentsOf(fn)) != 0 {
			return fmt.Errorf("func %d: non-empty parent relation", fn)
		}
		next += scopeid.ScopeID(count)
	}
	if int(next) != ma.Total() {
		return fmt.Errorf("ranges cover %d ids, total is %d", next, ma.Total())
	}
	if len(ma.ScopeNames()) != ma.Total() {
		return fmt.Errorf("%d module names for total %d", len(ma.ScopeNames()), ma.Total())
	}
	return nil
}
