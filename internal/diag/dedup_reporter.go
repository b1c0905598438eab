package diag

import "scopealloc/internal/source"

// DedupReporter forwards each distinct (code, primary span, message) report
// once and counts the repeats it swallows.
type DedupReporter struct {
	next       Reporter
	seen       map[reportKey]struct{}
	suppressed int
}

type reportKey struct {
	code Code
	span source.Span
	msg  string
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: map[reportKey]struct{}{}}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	if r == nil {
		return
	}
	k := reportKey{code: code, span: primary, msg: msg}
	if _, dup := r.seen[k]; dup {
		r.suppressed++
		return
	}
	r.seen[k] = struct{}{}
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes)
	}
}

// Suppressed counts the reports that were dropped as repeats.
func (r *DedupReporter) Suppressed() int {
	if r == nil {
		return 0
	}
	return r.suppressed
}
