// Package callgraph derives call edges from an ir.Module and walks them so
// that every function is finished before the functions that call it.
package callgraph
