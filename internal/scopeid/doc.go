// Package scopeid assigns dense numeric ids to named profiling scopes.
//
// An Allocation numbers the scope names of one function in the order their
// first start marker appears and checks that markers pair up. A
// ModuleAllocation runs one Allocation per function, callees first, and
// shifts each function's ids by the number of scopes allocated before it so
// the whole module shares one gap-free id space.
//
// Parent relations between scopes are part of the result types but are not
// tracked; the parent lists are always empty.
package scopeid
