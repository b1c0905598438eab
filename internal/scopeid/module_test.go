package scopeid_test

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"testing"

	"scopealloc/internal/callgraph"
	"scopealloc/internal/diag"
	"scopealloc/internal/ir"
	"scopealloc/internal/scopeid"
	"scopealloc/internal/source"
	"scopealloc/internal/trace"
)

type fixture struct {
	m      *ir.Module
	instrs map[string]ir.InstrID // "func/index" -> instruction
}

// fn describes one function: markers first, then calls.
type fn struct {
	name    string
	markers []marker
	calls   []string
}

func buildModule(funcs ...fn) fixture {
	b := ir.NewBuilder()
	fx := fixture{instrs: make(map[string]ir.InstrID)}
	for _, f := range funcs {
		fb := b.Func(f.name, source.Span{})
		for i, mk := range f.markers {
			fx.instrs[fmt.Sprintf("%s/%d", f.name, i)] = fb.Record(string(mk[1:]), mk[0] == '+', source.Span{})
		}
		for _, c := range f.calls {
			fb.Call(c, source.Span{})
		}
	}
	fx.m = b.Build()
	return fx
}

func (fx fixture) id(name string) ir.FuncID {
	f, _ := fx.m.Lookup(name)
	return f.ID
}

func TestModuleCalleeBeforeCaller(t *testing.T) {
	fx := buildModule(
		fn{name: "f", markers: []marker{"+F1", "-F1", "+F2", "-F2"}, calls: []string{"g"}},
		fn{name: "g", markers: []marker{"+G", "-G"}},
	)
	ma := scopeid.NewModuleAllocation(fx.m, nil)

	if got := ma.Order(); !slices.Equal(got, []ir.FuncID{fx.id("g"), fx.id("f")}) {
		t.Fatalf("order = %v", got)
	}
	if off, _ := ma.Offset(fx.id("g")); off != 0 {
		t.Errorf("offset(g) = %d, want 0", off)
	}
	if off, _ := ma.Offset(fx.id("f")); off != 1 {
		t.Errorf("offset(f) = %d, want 1", off)
	}
	want := []scopeid.ScopeName{{ID: 0, Name: "G"}, {ID: 1, Name: "F1"}, {ID: 2, Name: "F2"}}
	if got := ma.ScopeNames(); !slices.Equal(got, want) {
		t.Fatalf("ScopeNames = %v, want %v", got, want)
	}
	if got := ma.ScopeNamesOf(fx.id("f")); !slices.Equal(got, want[1:]) {
		t.Errorf("ScopeNamesOf(f) = %v", got)
	}
	if ma.Total() != 3 {
		t.Errorf("Total = %d, want 3", ma.Total())
	}

	lookups := map[string]scopeid.ScopeID{"g/0": 0, "g/1": 0, "f/0": 1, "f/1": 1, "f/2": 2, "f/3": 2}
	for key, want := range lookups {
		got, err := ma.ScopeIDOf(fx.instrs[key])
		if err != nil {
			t.Fatalf("%s: %v", key, err)
		}
		if got != want {
			t.Errorf("%s = %d, want %d", key, got, want)
		}
	}
}

func TestModuleIndependentFunctionsFollowTraversal(t *testing.T) {
	fx := buildModule(
		fn{name: "f", markers: []marker{"+A", "-A"}},
		fn{name: "g", markers: []marker{"+A", "-A"}},
	)
	ma := scopeid.NewModuleAllocation(fx.m, nil)
	want := []scopeid.ScopeName{{ID: 0, Name: "A"}, {ID: 1, Name: "A"}}
	if got := ma.ScopeNames(); !slices.Equal(got, want) {
		t.Fatalf("ScopeNames = %v, want %v", got, want)
	}
	f, _ := ma.ScopeIDOf(fx.instrs["f/0"])
	g, _ := ma.ScopeIDOf(fx.instrs["g/0"])
	if f == g {
		t.Fatal("same name in two functions must get distinct module ids")
	}
}

func TestModuleRangesAreDisjoint(t *testing.T) {
	fx := buildModule(
		fn{name: "main", markers: []marker{"+m", "-m"}, calls: []string{"a", "b", "a"}},
		fn{name: "a", markers: []marker{"+x", "+y", "-y", "-x"}, calls: []string{"leaf"}},
		fn{name: "b", markers: []marker{"+x", "-x"}, calls: []string{"leaf", "b"}},
		fn{name: "leaf"},
		fn{name: "orphan", markers: []marker{"+o", "-o", "+p", "-p"}},
		fn{name: "ping", markers: []marker{"+q", "-q"}, calls: []string{"pong"}},
		fn{name: "pong", markers: []marker{"+r"}, calls: []string{"ping"}},
	)
	ma := scopeid.NewModuleAllocation(fx.m, diag.NopReporter{})

	if len(ma.Order()) != len(fx.m.Funcs) {
		t.Fatalf("allocated %d of %d functions", len(ma.Order()), len(fx.m.Funcs))
	}
	type rng struct{ lo, hi int }
	var ranges []rng
	sum := 0
	for _, f := range fx.m.Funcs {
		off, ok := ma.Offset(f.ID)
		if !ok {
			t.Fatalf("@%s has no offset", f.Name)
		}
		n := ma.NumScopesOf(f.ID)
		sum += n
		ranges = append(ranges, rng{int(off), int(off) + n})
	}
	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].lo != ranges[j].lo {
			return ranges[i].lo < ranges[j].lo
		}
		return ranges[i].hi < ranges[j].hi
	})
	next := 0
	for _, r := range ranges {
		if r.lo != next {
			t.Fatalf("ranges %v leave a gap or overlap at %d", ranges, next)
		}
		next = r.hi
	}
	if sum != ma.Total() || next != ma.Total() {
		t.Fatalf("sum %d, end %d, total %d", sum, next, ma.Total())
	}

	all := ma.ScopeNames()
	for i, sn := range all {
		if int(sn.ID) != i {
			t.Fatalf("ScopeNames not dense: %v", all)
		}
	}
}

func TestModuleSharedCalleeAllocatedOnce(t *testing.T) {
	fx := buildModule(
		fn{name: "main", calls: []string{"a", "b"}},
		fn{name: "a", calls: []string{"leaf"}},
		fn{name: "b", calls: []string{"leaf"}},
		fn{name: "leaf", markers: []marker{"+L"}},
	)
	bag := diag.NewBag(0)
	ma := scopeid.NewModuleAllocation(fx.m, diag.BagReporter{Bag: bag})

	if n := bag.Count(diag.ScopeNeverClosed); n != 1 {
		t.Fatalf("leaf reported %d times, want once", n)
	}
	wantOrder := []ir.FuncID{fx.id("leaf"), fx.id("a"), fx.id("b"), fx.id("main")}
	if got := ma.Order(); !slices.Equal(got, wantOrder) {
		t.Fatalf("order = %v, want %v", got, wantOrder)
	}
}

func TestModuleLookupErrors(t *testing.T) {
	fx := buildModule(
		fn{name: "main", markers: []marker{"+A", "-B", "-A"}},
		fn{name: "ping", markers: []marker{"+P", "-P"}, calls: []string{"pong"}},
		fn{name: "pong", calls: []string{"ping"}},
	)
	ma := scopeid.NewModuleAllocation(fx.m, nil, scopeid.WithUnreachable(callgraph.UnreachableSkip))

	if _, err := ma.ScopeIDOf(fx.instrs["main/1"]); !errors.Is(err, scopeid.ErrNoScopeID) {
		t.Errorf("defective marker: err = %v, want ErrNoScopeID", err)
	}
	if _, err := ma.ScopeIDOf(ir.InstrID(fx.m.NumInstrs() + 5)); !errors.Is(err, scopeid.ErrUnknownInstr) {
		t.Errorf("out of range: err = %v, want ErrUnknownInstr", err)
	}
	if _, err := ma.ScopeIDOf(fx.instrs["ping/0"]); !errors.Is(err, scopeid.ErrUnknownFunc) {
		t.Errorf("skipped function: err = %v, want ErrUnknownFunc", err)
	}
	if _, ok := ma.Offset(fx.id("ping")); ok {
		t.Error("skipped function must have no offset")
	}
	if ma.Allocation(fx.id("pong")) != nil {
		t.Error("skipped function must have no allocation")
	}
	if got := ma.ScopeNamesOf(fx.id("ping")); len(got) != 0 {
		t.Errorf("ScopeNamesOf(ping) = %v", got)
	}
}

func TestModuleCallInstructionHasNoScopeID(t *testing.T) {
	b := ir.NewBuilder()
	main := b.Func("main", source.Span{})
	call := main.Call("main", source.Span{})
	ma := scopeid.NewModuleAllocation(b.Build(), nil)
	if _, err := ma.ScopeIDOf(call); !errors.Is(err, scopeid.ErrNoScopeID) {
		t.Fatalf("err = %v, want ErrNoScopeID", err)
	}
}

func TestModuleExplicitRoots(t *testing.T) {
	fx := buildModule(
		fn{name: "a", markers: []marker{"+a", "-a"}},
		fn{name: "b", markers: []marker{"+b", "-b"}},
	)
	ma := scopeid.NewModuleAllocation(fx.m, nil, scopeid.WithRoots(fx.id("b")))
	want := []scopeid.ScopeName{{ID: 0, Name: "b"}, {ID: 1, Name: "a"}}
	if got := ma.ScopeNames(); !slices.Equal(got, want) {
		t.Fatalf("ScopeNames = %v, want %v", got, want)
	}
}

func TestModuleParentsAlwaysEmpty(t *testing.T) {
	fx := buildModule(
		fn{name: "f", markers: []marker{"+outer", "+inner", "-inner", "-outer"}},
	)
	ma := scopeid.NewModuleAllocation(fx.m, nil)
	if got := ma.ScopeParents(); got == nil || len(got) != 0 {
		t.Errorf("ScopeParents = %#v, want empty", got)
	}
	if got := ma.ScopeParentsOf(fx.id("f")); got == nil || len(got) != 0 {
		t.Errorf("ScopeParentsOf = %#v, want empty", got)
	}
}

func TestModuleQueriesAreStable(t *testing.T) {
	fx := buildModule(
		fn{name: "main", markers: []marker{"+A", "-A", "-Z"}, calls: []string{"lib"}},
		fn{name: "lib", markers: []marker{"+A", "+B", "-B", "-A"}},
	)
	ma := scopeid.NewModuleAllocation(fx.m, nil)
	snapshot := func() string {
		out := fmt.Sprint(ma.Order(), ma.ScopeNames(), ma.ScopeParents(), ma.Total())
		for _, f := range fx.m.Funcs {
			off, ok := ma.Offset(f.ID)
			out += fmt.Sprint(ma.ScopeNamesOf(f.ID), ma.NumScopesOf(f.ID), off, ok)
		}
		keys := make([]string, 0, len(fx.instrs))
		for key := range fx.instrs {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			id, err := ma.ScopeIDOf(fx.instrs[key])
			out += fmt.Sprint(key, id, err != nil)
		}
		return out
	}
	first := snapshot()
	for range 3 {
		if snapshot() != first {
			t.Fatal("module queries changed between calls")
		}
	}

	names := ma.ScopeNames()
	names[0].ID = 99
	order := ma.Order()
	order[0] = 42
	if ma.ScopeNames()[0].ID != 0 || ma.Order()[0] == 42 {
		t.Fatal("queries expose internal state")
	}
}

func TestModuleTraceEvents(t *testing.T) {
	ring := trace.NewRingTracer(64, trace.LevelDebug)
	fx := buildModule(fn{name: "f", markers: []marker{"+A", "-A"}})
	scopeid.NewModuleAllocation(fx.m, nil, scopeid.WithTracer(ring))

	var names []string
	for _, ev := range ring.Snapshot() {
		names = append(names, ev.Name)
	}
	for _, want := range []string{"scopeid.module", "scopeid.func", "scopeid.record", "scopeid.assign"} {
		if !slices.Contains(names, want) {
			t.Errorf("missing %s event in %v", want, names)
		}
	}
}

func TestNilModule(t *testing.T) {
	ma := scopeid.NewModuleAllocation(nil, nil)
	if ma.Total() != 0 || len(ma.ScopeNames()) != 0 {
		t.Fatal("nil module must allocate nothing")
	}
	if _, err := ma.ScopeIDOf(0); !errors.Is(err, scopeid.ErrUnknownInstr) {
		t.Fatalf("err = %v", err)
	}
}
