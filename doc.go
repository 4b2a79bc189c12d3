// doc.go: package documentation for errchain
//
// Package errchain pairs a code generator with a tiny runtime. The generator
// (cmd/errchain, usually run through go generate) writes Unwrap() error
// methods for error types declared in a package; the runtime walks the
// resulting cause chains.
//
// # Declaring causes
//
// Mark a type with the errchain:derive directive and tag at most one field
// per variant with the error struct tag:
//
//	//errchain:derive
//	type ReadError struct {
//		Path string
//		Err  error `error:"source"`
//	}
//
// Two payloads are recognized, and nothing else:
//
//	+-------------------+---------------------------------------------------+
//	| Tag               | Generated cause                                   |
//	+-------------------+---------------------------------------------------+
//	| error:"source"    | the field itself                                  |
//	| error:"defer"     | the field's own cause (skips one link)            |
//	| (no tag)          | nil                                               |
//	+-------------------+---------------------------------------------------+
//
// defer is for a wrapped error that already describes itself; reporting its
// cause avoids a redundant level when the chain is walked.
//
// # Unions
//
// A sealed interface is a union: its variants are the struct types of the
// package that implement its unexported marker method, in source order.
//
//	//errchain:derive
//	type MainError interface {
//		error
//		isMainError()
//	}
//
//	type Parse struct{ ParseError `error:"source"` }
//	func (Parse) isMainError() {}
//
// The generator emits one dispatch function with a type switch over the
// variants and an Unwrap per variant that calls it. An interface without
// variants gets a switch with no cases.
//
// # Walking chains
//
//	it := errchain.Chain(err)
//	for cause, ok := it.Next(); ok; cause, ok = it.Next() {
//		...
//	}
//
// or with range-over-func:
//
//	for cause := range errchain.All(err) { ... }
//
// The root is never yielded; only its causes are. An exhausted Iter stays
// exhausted. Cycles are a caller error and are not detected.
//
// # Static guarantees
//
// Generated files carry `var _ errchain.Error = T{}` assertions, so a type
// that stops satisfying the capability fails the build instead of a walk.
package errchain
