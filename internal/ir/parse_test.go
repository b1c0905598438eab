package ir_test

import (
	"strings"
	"testing"

	"scopealloc/internal/diag"
	"scopealloc/internal/ir"
	"scopealloc/internal/source"
)

func parse(t *testing.T, src string) (*ir.Module, *diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.pir", []byte(src))
	bag := diag.NewBag(0)
	m := ir.Parse(fs, id, diag.BagReporter{Bag: bag})
	return m, bag, fs
}

func TestParseModule(t *testing.T) {
	src := `// kernel with a helper
func @main {
  record start "outer"
  call @helper
  region "loop" {
    record start "inner"
    record end "inner"
  }
  nop
  record end "outer"
}

func @helper {
  record start "h"; record end "h"
}
`
	m, bag, fs := parse(t, src)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", diag.FormatShortDiagnostics(bag.Items(), fs, true))
	}
	if len(m.Funcs) != 2 {
		t.Fatalf("expected 2 functions, got %d", len(m.Funcs))
	}
	if err := ir.Validate(m); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	main, _ := m.Lookup("main")
	helper, _ := m.Lookup("helper")
	calls := ir.Calls(main)
	if len(calls) != 1 || calls[0].Call.Callee != helper.ID {
		t.Fatalf("calls = %+v", calls)
	}

	var names []string
	ir.WalkRecords(main, func(in *ir.Instr) {
		kind := "end"
		if in.Record.IsStart {
			kind = "start"
		}
		names = append(names, kind+":"+in.Record.Name)
	})
	if got := strings.Join(names, ","); got != "start:outer,start:inner,end:inner,end:outer" {
		t.Errorf("records = %s", got)
	}

	start, _ := fs.Resolve(main.Span)
	if start.Line != 2 || start.Col != 1 {
		t.Errorf("main span starts at %+v", start)
	}
	text := string(fs.Get(main.Span.File).Content[main.Span.Start:main.Span.End])
	if text != "func @main" {
		t.Errorf("function span covers %q", text)
	}
}

func TestParseNormalizesScopeNames(t *testing.T) {
	// precomposed é and e followed by a combining acute accent
	m, bag, _ := parse(t, "func @f {\n record start \"caf\u00e9\"\n record end \"cafe\u0301\"\n}\n")
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %d", bag.Len())
	}
	var names []string
	ir.WalkRecords(m.Funcs[0], func(in *ir.Instr) { names = append(names, in.Record.Name) })
	if len(names) != 2 || names[0] != names[1] {
		t.Fatalf("names not normalized: %q", names)
	}
}

func TestParseEscapes(t *testing.T) {
	m, bag, _ := parse(t, `func @f { record start "a\"b\tc" record end "a\"b\tc" }`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %d", bag.Len())
	}
	if got := m.Funcs[0].Body[0].Record.Name; got != "a\"b\tc" {
		t.Errorf("name = %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []diag.Code
	}{
		{
			name: "unknown opcode",
			src:  "func @f { jump }",
			want: []diag.Code{diag.SynUnknownOpcode},
		},
		{
			name: "bad record kind",
			src:  "func @f { record open \"a\" }",
			want: []diag.Code{diag.SynBadRecordKind, diag.SynUnexpectedToken},
		},
		{
			name: "missing scope name",
			src:  "func @f { record start }",
			want: []diag.Code{diag.SynExpectScopeName},
		},
		{
			name: "empty scope name",
			src:  "func @f { record start \"\" }",
			want: []diag.Code{diag.IREmptyScope},
		},
		{
			name: "unknown callee",
			src:  "func @f { call @g }",
			want: []diag.Code{diag.IRUnknownCallee},
		},
		{
			name: "duplicate function",
			src:  "func @f { }\nfunc @f { }",
			want: []diag.Code{diag.IRDuplicateFunc},
		},
		{
			name: "unclosed function",
			src:  "func @f {\n record start \"a\"\n",
			want: []diag.Code{diag.SynUnclosedBrace},
		},
		{
			name: "unterminated string",
			src:  "func @f { record start \"abc\n}",
			want: []diag.Code{diag.LexUnterminatedString},
		},
		{
			name: "stray character",
			src:  "func @f { # }",
			want: []diag.Code{diag.LexUnknownChar, diag.SynUnexpectedToken},
		},
		{
			name: "missing function name",
			src:  "func { }\nfunc @ok { }",
			want: []diag.Code{diag.SynExpectFuncName},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bag, fs := parse(t, tt.src)
			got := make([]diag.Code, 0, bag.Len())
			for _, d := range bag.Items() {
				got = append(got, d.Code)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("codes = %v, want %v\n%s", got, tt.want, diag.FormatShortDiagnostics(bag.Items(), fs, false))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("codes = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	src := `func @main {
  record start "a"
  region "loop" {
    call @main
  }
  nop
  record end "a"
}
`
	m, bag, _ := parse(t, src)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %d", bag.Len())
	}
	var sb strings.Builder
	if err := ir.DumpModule(&sb, m, ir.DumpOptions{}); err != nil {
		t.Fatal(err)
	}
	if sb.String() != src {
		t.Fatalf("round trip mismatch:\n%s", sb.String())
	}
}
