// Package ir is the host intermediate representation consumed by the
// scope-id allocator.
//
// A Module is a flat list of functions. Each function body is an ordered
// list of instructions; region instructions (loops, branches) carry a nested
// body. The instructions that matter to scope allocation are record markers
// ("record start/end <name>") and calls, which define the call graph.
//
// Instruction ids are dense over the whole module and are assigned in
// pre-order, so walking a body with Walk visits ids in increasing order.
// The Module keeps an index from instruction id to the owning function,
// which backs Module.EnclosingFunc.
//
// Modules are built with Builder or read from the .pir text format with
// Parse. A built Module must not be mutated; the instruction index points
// into function bodies.
package ir
