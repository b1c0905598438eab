package fuzztests

import (
	"testing"
	"time"

	"scopealloc/internal/diag"
	"scopealloc/internal/ir"
	"scopealloc/internal/source"
	"scopealloc/internal/testkit"
)

// parseTimeout is the maximum time allowed for parsing a single input.
// If parsing takes longer, it indicates a potential infinite loop.
const parseTimeout = 5 * time.Second

func parseInput(input []byte) (*ir.Module, *diag.Bag, *source.File) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("fuzz.pir", input)
	bag := diag.NewBag(128)
	m := ir.Parse(fs, fileID, diag.BagReporter{Bag: bag})
	return m, bag, fs.Get(fileID)
}

func FuzzParse(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)

		done := make(chan error, 1)
		go func() {
			m, bag, file := parseInput(input)
			if err := testkit.CheckSpanInvariants(m, file); err != nil {
				done <- err
				return
			}
			if !bag.HasErrors() {
				done <- ir.Validate(m)
				return
			}
			done <- nil
		}()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("invariant violated: %v\ninput (%d bytes): %q", err, len(input), truncateForLog(input, 200))
			}
		case <-time.After(parseTimeout):
			t.Fatalf("parser hang detected: parsing took longer than %v\ninput (%d bytes): %q",
				parseTimeout, len(input), truncateForLog(input, 200))
		}
	})
}
