package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"scopealloc/internal/source"
)

func TestJSON(t *testing.T) {
	fs := source.NewFileSet()
	bag := sampleBag(fs)

	var buf bytes.Buffer
	opts := JSONOpts{IncludePositions: true, PathMode: source.PathBasename, IncludeNotes: true}
	if err := JSON(&buf, bag, fs, opts); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 2 || len(out.Diagnostics) != 2 {
		t.Fatalf("count = %d", out.Count)
	}
	first := out.Diagnostics[0]
	if first.Code != "SCP4002" || first.Severity != "ERROR" || first.Title != "Scope not opened or already closed" {
		t.Errorf("first = %+v", first)
	}
	if first.Location.File != "main.pir" || first.Location.StartLine != 3 || first.Location.StartCol != 2 {
		t.Errorf("location = %+v", first.Location)
	}
	if len(out.Diagnostics[1].Notes) != 1 || out.Diagnostics[1].Notes[0].Location.StartLine != 2 {
		t.Errorf("notes = %+v", out.Diagnostics[1].Notes)
	}
}

func TestJSONMax(t *testing.T) {
	fs := source.NewFileSet()
	bag := sampleBag(fs)
	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 1})
	if out.Count != 1 || out.Dropped != 1 {
		t.Fatalf("count = %d dropped = %d", out.Count, out.Dropped)
	}
	if out.Diagnostics[0].Location.StartLine != 0 {
		t.Error("positions must be omitted unless requested")
	}
	if out.Diagnostics[0].Notes != nil {
		t.Error("notes must be omitted unless requested")
	}
}
