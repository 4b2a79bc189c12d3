// chain.go: lazy, forward-only traversal of single-cause error chains.
//
// States: Positioned(err) and Exhausted. Chain(root) starts Positioned(root);
// every Next asks the current value for its cause and either moves to it or
// becomes Exhausted for good. The root itself is never yielded.
//
// Cycles (a value that is transitively its own cause) are not detected; a
// cyclic chain never exhausts.
package errchain

import (
	"errors"
	"iter"
)

// Iter is a cursor over the causes of a root error. The zero Iter is exhausted.
//
// An Iter is not restartable. Start a new one with Chain to replay a chain.
type Iter struct {
	cur error // nil once exhausted
}

// Chain returns a cursor positioned at root. The first Next yields root's own
// cause. A nil root is already exhausted.
func Chain(root error) *Iter {
	return &Iter{cur: root}
}

// Next yields the next cause. ok is false once the chain is exhausted, and stays
// false on every later call.
func (it *Iter) Next() (err error, ok bool) {
	if it == nil || it.cur == nil {
		return nil, false
	}
	cause := Source(it.cur)
	it.cur = cause
	if cause == nil {
		return nil, false
	}
	return cause, true
}

// Exhausted reports whether the cursor has nothing left to yield without
// advancing it.
func (it *Iter) Exhausted() bool {
	return it == nil || it.cur == nil || Source(it.cur) == nil
}

// All adapts Chain to range-over-func. Every call of the returned sequence
// starts a fresh traversal from root.
//
//	for cause := range errchain.All(err) { ... }
func All(root error) iter.Seq[error] {
	return func(yield func(error) bool) {
		it := Chain(root)
		for {
			e, ok := it.Next()
			if !ok || !yield(e) {
				return
			}
		}
	}
}

// Source returns the single cause of err, or nil. Values with only
// Unwrap() []error have no single source.
func Source(err error) error {
	if err == nil {
		return nil
	}
	return errors.Unwrap(err)
}

// Root returns the last error of err's chain: err itself when it has no cause.
// If err is nil, Root returns nil.
func Root(err error) error {
	last := err
	for cause := range All(err) {
		last = cause
	}
	return last
}

// Depth returns the number of causes below err.
func Depth(err error) int {
	n := 0
	for range All(err) {
		n++
	}
	return n
}

// Find returns the first cause whose dynamic type is E. The root is not
// considered, matching what Chain yields.
func Find[E error](err error) (E, bool) {
	for cause := range All(err) {
		if e, ok := cause.(E); ok {
			return e, true
		}
	}
	var zero E
	return zero, false
}

// Slice collects the whole chain. Use it only on chains known to be acyclic.
func Slice(err error) []error {
	var out []error
	for cause := range All(err) {
		out = append(out, cause)
	}
	return out
}
