// error.go: the capability contract shared by generated code and the runtime.
//
// Design tenets:
//   - Interop-first: the capability is the stdlib Unwrap() error, so
//     errors.Is/As see exactly the chain Chain walks.
//   - One cause per value: a value reports at most one cause; multi-error
//     containers (Unwrap() []error) end a chain.
//   - Borrow, never own: traversal holds references to caller-owned values.

package errchain

// Error is the capability generated code implements.
//
// Unwrap returns the cause of the receiver, or nil when it has none. A generated
// implementation reports either a field of the value itself ("source") or that
// field's own cause ("defer").
//
// Implementations MUST be immutable once constructed. A Chain cursor may be
// held for as long as the root value is reachable and may be shared between
// goroutines, so nothing reachable through Unwrap may change under a reader.
type Error interface {
	error
	Unwrap() error
}

// Check is a compile-time gate: the type argument must implement Error.
//
//	var _ = errchain.Check[MyError]
//
// Generated code uses interface assignments instead; Check exists for
// hand-written types that want the same guarantee in generic contexts.
func Check[E Error]() {}
