package scopeid_test

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"scopealloc/internal/diag"
	"scopealloc/internal/ir"
	"scopealloc/internal/scopeid"
	"scopealloc/internal/source"
)

// marker is "+name" for a start and "-name" for an end.
type marker string

// buildFunc creates a one-function module whose body is the given markers.
// Each marker gets a distinct span so diagnostics can be told apart.
func buildFunc(markers ...marker) (*ir.Module, []ir.InstrID) {
	b := ir.NewBuilder()
	fb := b.Func("f", source.Span{File: 1, Start: 0, End: 1})
	ids := make([]ir.InstrID, len(markers))
	for i, mk := range markers {
		sp := source.Span{File: 1, Start: uint32(10 * (i + 1)), End: uint32(10*(i+1) + 5)}
		ids[i] = fb.Record(string(mk[1:]), mk[0] == '+', sp)
	}
	return b.Build(), ids
}

func allocate(t *testing.T, markers ...marker) (*scopeid.Allocation, []ir.InstrID, *diag.Bag) {
	t.Helper()
	m, ids := buildFunc(markers...)
	bag := diag.NewBag(0)
	a := scopeid.NewAllocation(m.Funcs[0], diag.BagReporter{Bag: bag})
	return a, ids, bag
}

func codes(bag *diag.Bag) []diag.Code {
	out := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestWellNestedRoundTrip(t *testing.T) {
	a, ids, bag := allocate(t, "+A", "+B", "-B", "-A")
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", codes(bag))
	}
	if a.NumScopes() != 2 {
		t.Fatalf("NumScopes = %d, want 2", a.NumScopes())
	}
	if id, _ := a.ScopeID("A"); id != 0 {
		t.Errorf("A = %d, want 0", id)
	}
	if id, _ := a.ScopeID("B"); id != 1 {
		t.Errorf("B = %d, want 1", id)
	}
	want := []scopeid.ScopeID{0, 1, 1, 0}
	for i, in := range ids {
		got, err := a.InstrScopeID(in)
		if err != nil {
			t.Fatalf("instr %d: %v", i, err)
		}
		if got != want[i] {
			t.Errorf("instr %d = %d, want %d", i, got, want[i])
		}
	}
}

func TestIDsAreDenseAndUnique(t *testing.T) {
	tests := []struct {
		name    string
		markers []marker
		want    []string
	}{
		{name: "empty", want: []string{}},
		{name: "sequential", markers: []marker{"+x", "-x", "+y", "-y", "+z", "-z"}, want: []string{"x", "y", "z"}},
		{name: "nested", markers: []marker{"+a", "+b", "+c", "-c", "-b", "-a"}, want: []string{"a", "b", "c"}},
		{name: "overlapping", markers: []marker{"+a", "+b", "-a", "-b"}, want: []string{"a", "b"}},
		{name: "end before start", markers: []marker{"-q", "+p", "+q", "-q", "-p"}, want: []string{"p", "q"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _, _ := allocate(t, tt.markers...)
			if a.NumScopes() != len(tt.want) {
				t.Fatalf("NumScopes = %d, want %d", a.NumScopes(), len(tt.want))
			}
			seen := make(map[scopeid.ScopeID]bool)
			for i, name := range tt.want {
				id, ok := a.ScopeID(name)
				if !ok {
					t.Fatalf("%q has no id", name)
				}
				if int(id) != i {
					t.Errorf("%q = %d, want %d", name, id, i)
				}
				if seen[id] {
					t.Errorf("id %d assigned twice", id)
				}
				seen[id] = true
				if back, ok := a.ScopeName(id); !ok || back != name {
					t.Errorf("ScopeName(%d) = %q, %v", id, back, ok)
				}
			}
			if _, ok := a.ScopeName(scopeid.ScopeID(len(tt.want))); ok {
				t.Error("ScopeName past the end must fail")
			}
		})
	}
}

func TestDoubleOpen(t *testing.T) {
	a, ids, bag := allocate(t, "+A", "+A", "-A")
	if got := codes(bag); !slices.Equal(got, []diag.Code{diag.ScopeAlreadyOpen}) {
		t.Fatalf("codes = %v", got)
	}
	d := bag.Items()[0]
	if d.Message != "the scope name 'A' is already open" {
		t.Errorf("message = %q", d.Message)
	}
	if d.Primary.Start != 20 {
		t.Errorf("diagnostic anchored at %v, want second start", d.Primary)
	}
	if len(d.Notes) != 1 || d.Notes[0].Span.Start != 10 {
		t.Errorf("notes = %+v, want a note at the first start", d.Notes)
	}
	if a.NumScopes() != 1 {
		t.Errorf("NumScopes = %d, want 1", a.NumScopes())
	}
	if _, err := a.InstrScopeID(ids[1]); !errors.Is(err, scopeid.ErrNoScopeID) {
		t.Errorf("second start: err = %v, want ErrNoScopeID", err)
	}
	for _, i := range []int{0, 2} {
		if id, err := a.InstrScopeID(ids[i]); err != nil || id != 0 {
			t.Errorf("instr %d = %d, %v", i, id, err)
		}
	}
}

func TestUnmatchedClose(t *testing.T) {
	a, ids, bag := allocate(t, "-A")
	if got := codes(bag); !slices.Equal(got, []diag.Code{diag.ScopeNotOpened}) {
		t.Fatalf("codes = %v", got)
	}
	if msg := bag.Items()[0].Message; msg != "the scope name 'A' was not opened or already closed" {
		t.Errorf("message = %q", msg)
	}
	if a.NumScopes() != 0 {
		t.Errorf("NumScopes = %d, want 0", a.NumScopes())
	}
	if _, err := a.InstrScopeID(ids[0]); !errors.Is(err, scopeid.ErrNoScopeID) {
		t.Errorf("err = %v, want ErrNoScopeID", err)
	}
}

func TestCloseTwicePointsAtFirstClose(t *testing.T) {
	_, _, bag := allocate(t, "+A", "-A", "-A")
	if got := codes(bag); !slices.Equal(got, []diag.Code{diag.ScopeNotOpened}) {
		t.Fatalf("codes = %v", got)
	}
	d := bag.Items()[0]
	if d.Primary.Start != 30 {
		t.Errorf("anchored at %v", d.Primary)
	}
	if len(d.Notes) != 1 || d.Notes[0].Span.Start != 20 || d.Notes[0].Msg != "last closed here" {
		t.Errorf("notes = %+v", d.Notes)
	}
}

func TestUnclosedAtEnd(t *testing.T) {
	a, ids, bag := allocate(t, "+A")
	if got := codes(bag); !slices.Equal(got, []diag.Code{diag.ScopeNeverClosed}) {
		t.Fatalf("codes = %v", got)
	}
	d := bag.Items()[0]
	if d.Message != "scope name 'A' was opened but never closed" {
		t.Errorf("message = %q", d.Message)
	}
	if d.Primary != a.Func().Span {
		t.Errorf("anchored at %v, want function span %v", d.Primary, a.Func().Span)
	}
	if id, ok := a.ScopeID("A"); !ok || id != 0 {
		t.Errorf("A = %d, %v", id, ok)
	}
	if id, err := a.InstrScopeID(ids[0]); err != nil || id != 0 {
		t.Errorf("start = %d, %v", id, err)
	}
}

func TestUnclosedReportedInIDOrder(t *testing.T) {
	_, _, bag := allocate(t, "+c", "+a", "+b", "+d", "-a")
	var got []string
	for _, d := range bag.Items() {
		got = append(got, d.Message)
	}
	want := []string{
		"scope name 'c' was opened but never closed",
		"scope name 'b' was opened but never closed",
		"scope name 'd' was opened but never closed",
	}
	if !slices.Equal(got, want) {
		t.Fatalf("messages = %q", got)
	}
}

func TestReopenSameName(t *testing.T) {
	a, ids, bag := allocate(t, "+A", "-A", "+A", "-A")
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", codes(bag))
	}
	if a.NumScopes() != 1 {
		t.Fatalf("NumScopes = %d, want 1", a.NumScopes())
	}
	for i, in := range ids {
		if id, err := a.InstrScopeID(in); err != nil || id != 0 {
			t.Errorf("instr %d = %d, %v", i, id, err)
		}
	}
}

func TestIndependentDefectsAllReported(t *testing.T) {
	_, _, bag := allocate(t, "-x", "+A", "+A", "-A", "-A", "+B")
	want := []diag.Code{diag.ScopeNotOpened, diag.ScopeAlreadyOpen, diag.ScopeNotOpened, diag.ScopeNeverClosed}
	if got := codes(bag); !slices.Equal(got, want) {
		t.Fatalf("codes = %v, want %v", got, want)
	}
}

func TestMarkersInsideRegions(t *testing.T) {
	b := ir.NewBuilder()
	fb := b.Func("loop", source.Span{})
	outer := fb.Start("outer", source.Span{})
	fb.BeginRegion("body", source.Span{})
	inner := fb.Start("inner", source.Span{})
	fb.End("inner", source.Span{})
	fb.EndRegion()
	fb.End("outer", source.Span{})
	m := b.Build()

	bag := diag.NewBag(0)
	a := scopeid.NewAllocation(m.Funcs[0], diag.BagReporter{Bag: bag})
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", codes(bag))
	}
	if id, _ := a.InstrScopeID(outer); id != 0 {
		t.Errorf("outer = %d", id)
	}
	if id, _ := a.InstrScopeID(inner); id != 1 {
		t.Errorf("inner = %d", id)
	}
}

func TestAllocationQueriesAreStable(t *testing.T) {
	a, ids, _ := allocate(t, "+A", "+B", "-B", "+A", "-A")
	first := fmt.Sprint(a.Names(), a.Parents(), a.NumScopes())
	for range 3 {
		if got := fmt.Sprint(a.Names(), a.Parents(), a.NumScopes()); got != first {
			t.Fatalf("query changed: %s vs %s", got, first)
		}
		for _, in := range ids {
			x, errX := a.InstrScopeID(in)
			y, errY := a.InstrScopeID(in)
			if x != y || (errX == nil) != (errY == nil) {
				t.Fatalf("InstrScopeID(%d) not stable", in)
			}
		}
	}
	names := a.Names()
	names[0].Name = "mutated"
	if a.Names()[0].Name != "A" {
		t.Fatal("Names exposes internal state")
	}
	if len(a.Parents()) != 0 {
		t.Fatal("parents must be empty")
	}
}
