package diag

import (
	"testing"

	"scopealloc/internal/source"
)

func TestBagLimit(t *testing.T) {
	b := NewBag(2)
	for i := range 3 {
		b.Add(NewError(ScopeNotOpened, source.Span{Start: uint32(i)}, "x"))
	}
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
	if b.Dropped() != 1 {
		t.Fatalf("Dropped = %d, want 1", b.Dropped())
	}
	if !b.HasErrors() {
		t.Fatal("expected HasErrors")
	}
}

func TestBagUnlimited(t *testing.T) {
	b := NewBag(0)
	for range 100 {
		b.Add(New(SevInfo, ObsInfo, source.Span{}, "i"))
	}
	if b.Len() != 100 || b.Dropped() != 0 {
		t.Fatalf("Len=%d Dropped=%d", b.Len(), b.Dropped())
	}
	if b.HasErrors() || b.HasWarnings() {
		t.Fatal("info diagnostics must not count as errors or warnings")
	}
}

func TestBagSortAndDedup(t *testing.T) {
	b := NewBag(0)
	b.Add(NewError(ScopeNeverClosed, source.Span{File: 1, Start: 0, End: 4}, "late file"))
	b.Add(NewError(ScopeNotOpened, source.Span{File: 0, Start: 9, End: 12}, "b"))
	b.Add(New(SevWarning, ScopeAlreadyOpen, source.Span{File: 0, Start: 2, End: 3}, "a"))
	b.Add(NewError(ScopeNotOpened, source.Span{File: 0, Start: 9, End: 12}, "b"))

	b.Sort()
	b.Dedup()

	items := b.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items after dedup, got %d", len(items))
	}
	if items[0].Message != "a" || items[1].Message != "b" || items[2].Message != "late file" {
		t.Errorf("unexpected order: %q %q %q", items[0].Message, items[1].Message, items[2].Message)
	}
	if b.Count(ScopeNotOpened) != 1 {
		t.Errorf("Count(ScopeNotOpened) = %d", b.Count(ScopeNotOpened))
	}
}

func TestBagMergeGrowsLimit(t *testing.T) {
	a := NewBag(1)
	a.Add(NewError(ScopeNotOpened, source.Span{}, "a"))
	other := NewBag(2)
	other.Add(NewError(ScopeNotOpened, source.Span{}, "b"))
	other.Add(NewError(ScopeNotOpened, source.Span{}, "c"))

	a.Merge(other)
	if a.Len() != 3 {
		t.Fatalf("Len after merge = %d, want 3", a.Len())
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	b := NewBag(0)
	rb := ReportError(BagReporter{Bag: b}, ScopeAlreadyOpen, source.Span{Start: 5, End: 9}, "again").
		WithNote(source.Span{Start: 0, End: 4}, "previously opened here")
	rb.Emit()
	rb.Emit()

	if b.Len() != 1 {
		t.Fatalf("expected exactly one diagnostic, got %d", b.Len())
	}
	d := b.Items()[0]
	if len(d.Notes) != 1 || d.Notes[0].Msg != "previously opened here" {
		t.Errorf("notes = %+v", d.Notes)
	}
}

func TestDedupReporter(t *testing.T) {
	b := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: b})
	sp := source.Span{File: 0, Start: 1, End: 2}
	r.Report(ScopeNotOpened, SevError, sp, "m", nil)
	r.Report(ScopeNotOpened, SevError, sp, "m", nil)
	r.Report(ScopeNotOpened, SevError, sp, "other", nil)
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
	if r.Suppressed() != 1 {
		t.Fatalf("Suppressed = %d, want 1", r.Suppressed())
	}
	r.Report(ScopeNotOpened, SevError, source.Span{File: 1, Start: 1, End: 2}, "m", nil)
	if b.Len() != 3 {
		t.Fatalf("same offsets in another file were treated as a repeat")
	}
}

func TestCodeID(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{LexUnknownChar, "LEX1001"},
		{SynUnknownOpcode, "SYN2005"},
		{IRUnknownCallee, "IRM3002"},
		{ScopeAlreadyOpen, "SCP4001"},
		{ScopeNotOpened, "SCP4002"},
		{ScopeNeverClosed, "SCP4003"},
		{IOLoadFileError, "IO5001"},
		{ObsTimings, "OBS6001"},
		{UnknownCode, "E0000"},
	}
	for _, tt := range tests {
		if got := tt.code.ID(); got != tt.want {
			t.Errorf("%d.ID() = %q, want %q", tt.code, got, tt.want)
		}
	}
	if Code(4999).Title() != "Unknown error" {
		t.Errorf("unknown code title = %q", Code(4999).Title())
	}
}

func TestFormatShortDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("k.pir", []byte("func @f {\n  record end \"a\"\n}\n"))

	diags := []Diagnostic{
		NewError(ScopeNeverClosed, source.Span{File: file, Start: 0, End: 4}, "scope name 'b'\nwas opened"),
		NewError(ScopeNotOpened, source.Span{File: file, Start: 12, End: 26}, "the scope name 'a' was not opened or already closed").
			WithNote(source.Span{File: file, Start: 0, End: 4}, "in function"),
	}

	want := "error SCP4003 k.pir:1:1 scope name 'b' was opened\n" +
		"error SCP4002 k.pir:2:3 the scope name 'a' was not opened or already closed\n" +
		"note SCP4002 k.pir:1:1 in function"
	if got := FormatShortDiagnostics(diags, fs, true); got != want {
		t.Fatalf("unexpected output:\nwant:\n%s\ngot:\n%s", want, got)
	}
}
