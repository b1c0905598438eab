package diagfmt

import "scopealloc/internal/source"

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	Context   int8 // source lines shown above the primary line
	PathMode  source.PathMode
	ShowNotes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludePositions bool // add line/col
	PathMode         source.PathMode
	Max              int // output cut-off; the bag is left alone
	IncludeNotes     bool
}
