// Package fuzztests houses Go fuzz harnesses for the .pir reader and the
// scope allocator. They guard against panics, hangs and broken allocation
// invariants on arbitrary input; they do not write files or run the CLI.
package fuzztests
