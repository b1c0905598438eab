// Package diag defines the diagnostic model shared by the IR reader, the
// scope-id allocator and the driver.
//
// # Purpose
//
//   - Provide deterministic, serialisable records for findings produced by
//     the .pir reader, IR structure checks and scope validation.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to storage or formatting.
//
// Package diag does no formatting beyond the single-line short form and no
// IO. Pretty/JSON rendering lives in internal/diagfmt.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity: Info, Warning or Error (severity.go).
//   - Code: compact numeric identifier with a stable string form (codes.go).
//   - Message: short human text naming the offending scope or symbol.
//   - Primary: the source.Span the finding is anchored to. Scope defects
//     are anchored at the marker instruction, or at the function when no
//     instruction is responsible (an unclosed scope).
//   - Notes: optional secondary spans, e.g. "previously opened here".
//
// # Emitting diagnostics
//
// Producers receive a Reporter. ReportError/ReportWarning/ReportInfo return a
// ReportBuilder for attaching notes before Emit. BagReporter collects into a
// Bag, which supports sorting, deduplication and a cap on the number of
// stored items. DedupReporter drops repeated reports before they reach the
// next reporter.
package diag
