// chain_test.go — verification of Chain / All / Root / Depth / Find semantics.
package errchain

import (
	"errors"
	"fmt"
	"testing"
)

// ---------- helpers -----------------------------------------------------------

type leafErr struct{ s string }

func (e leafErr) Error() string { return e.s }
func (e leafErr) Unwrap() error { return nil }

// A has no cause.
type errA struct{}

func (errA) Error() string { return "A" }
func (errA) Unwrap() error { return nil }

// B's cause is its A field.
type errB struct{ a errA }

func (errB) Error() string   { return "B" }
func (e errB) Unwrap() error { return e.a }

// C's cause is its B field.
type errC struct{ b errB }

func (errC) Error() string   { return "C" }
func (e errC) Unwrap() error { return e.b }

// D defers to its B field: it reports B's cause, skipping B.
type errD struct{ b errB }

func (errD) Error() string   { return "D" }
func (e errD) Unwrap() error { return e.b.Unwrap() }

// pointer-typed single wrapper (good for identity checks)
type wrap1 struct{ cause error }

func (w *wrap1) Error() string { return "single:" + w.cause.Error() }
func (w *wrap1) Unwrap() error { return w.cause }

// build a single-unwrap chain of length n ending at leaf
func makeChain(n int, leaf error) error {
	e := leaf
	for i := 0; i < n; i++ {
		e = &wrap1{cause: e}
	}
	return e
}

func collect(it *Iter) []error {
	var out []error
	for {
		e, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, e)
	}
}

func sameChain(t *testing.T, got []error, want ...error) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d elements %v want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("element %d: got %v want %v", i, got[i], want[i])
		}
	}
}

var (
	_ Error = errA{}
	_ Error = errB{}
	_ Error = errC{}
	_ Error = errD{}
	_ Error = (*wrap1)(nil)
)

// ---------- tests: Chain ------------------------------------------------------

func TestChain_YieldsCausesNotRoot(t *testing.T) {
	t.Parallel()
	c := errC{b: errB{a: errA{}}}
	sameChain(t, collect(Chain(c)), errB{a: errA{}}, errA{})
}

func TestChain_DeferredSkipsOneLevel(t *testing.T) {
	t.Parallel()
	d := errD{b: errB{a: errA{}}}
	sameChain(t, collect(Chain(d)), errA{})
}

func TestChain_NoCauseIsEmpty(t *testing.T) {
	t.Parallel()
	it := Chain(errA{})
	if !it.Exhausted() {
		t.Fatalf("cursor over a causeless root must report exhausted")
	}
	if e, ok := it.Next(); ok || e != nil {
		t.Fatalf("got (%v, %v) want (nil, false)", e, ok)
	}
}

func TestChain_NilRoot(t *testing.T) {
	t.Parallel()
	if _, ok := Chain(nil).Next(); ok {
		t.Fatalf("nil root must be exhausted")
	}
	var it *Iter
	if _, ok := it.Next(); ok || !it.Exhausted() {
		t.Fatalf("nil cursor must be exhausted")
	}
	var zero Iter
	if _, ok := zero.Next(); ok {
		t.Fatalf("zero Iter must be exhausted")
	}
}

func TestChain_StaysExhausted(t *testing.T) {
	t.Parallel()
	it := Chain(errB{})
	if _, ok := it.Next(); !ok {
		t.Fatalf("first Next must yield A")
	}
	for i := 0; i < 3; i++ {
		if e, ok := it.Next(); ok || e != nil {
			t.Fatalf("call %d after exhaustion: got (%v, %v)", i, e, ok)
		}
	}
}

func TestChain_ExhaustedDoesNotAdvance(t *testing.T) {
	t.Parallel()
	it := Chain(errC{})
	if it.Exhausted() {
		t.Fatalf("C has a cause")
	}
	if it.Exhausted() {
		t.Fatalf("Exhausted must not move the cursor")
	}
	sameChain(t, collect(it), errB{}, errA{})
}

func TestChain_PreservesIdentity(t *testing.T) {
	t.Parallel()
	leaf := &wrap1{cause: leafErr{"leaf"}}
	mid := &wrap1{cause: leaf}
	sameChain(t, collect(Chain(&wrap1{cause: mid})), mid, leaf, leafErr{"leaf"})
}

func TestChain_OnlySingleUnwrap(t *testing.T) {
	t.Parallel()
	// errors.Join values expose Unwrap() []error only; they have no single cause.
	root := &wrap1{cause: errors.Join(leafErr{"x"}, leafErr{"y"})}
	got := collect(Chain(root))
	if len(got) != 1 {
		t.Fatalf("got %v want one element: the join itself", got)
	}
}

func TestChain_InteropWithFmtErrorf(t *testing.T) {
	t.Parallel()
	base := leafErr{"base"}
	err := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", base))
	got := Slice(err)
	if len(got) != 2 || got[1] != base {
		t.Fatalf("got %v want [inner, base]", got)
	}
}

// ---------- tests: All --------------------------------------------------------

func TestAll_FreshTraversalPerRange(t *testing.T) {
	t.Parallel()
	seq := All(errC{})
	for round := 0; round < 2; round++ {
		var names []string
		for e := range seq {
			names = append(names, e.Error())
		}
		if len(names) != 2 || names[0] != "B" || names[1] != "A" {
			t.Fatalf("round %d: got %v want [B A]", round, names)
		}
	}
}

func TestAll_EarlyBreak(t *testing.T) {
	t.Parallel()
	n := 0
	for range All(makeChain(10, leafErr{"leaf"})) {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Fatalf("got %d iterations want 3", n)
	}
}

// ---------- tests: helpers ----------------------------------------------------

func TestRootAndDepth(t *testing.T) {
	t.Parallel()
	leaf := leafErr{"leaf"}
	cases := []struct {
		name  string
		err   error
		root  error
		depth int
	}{
		{"nil", nil, nil, 0},
		{"leaf", leaf, leaf, 0},
		{"one", makeChain(1, leaf), leaf, 1},
		{"deep", makeChain(1000, leaf), leaf, 1000},
		{"deferred", errD{}, errA{}, 1},
	}
	for _, tc := range cases {
		if got := Root(tc.err); got != tc.root {
			t.Fatalf("%s: Root got %v want %v", tc.name, got, tc.root)
		}
		if got := Depth(tc.err); got != tc.depth {
			t.Fatalf("%s: Depth got %d want %d", tc.name, got, tc.depth)
		}
	}
}

func TestSource(t *testing.T) {
	t.Parallel()
	if Source(nil) != nil {
		t.Fatalf("Source(nil) must be nil")
	}
	if got := Source(errB{}); got != (errA{}) {
		t.Fatalf("got %v want A", got)
	}
	if Source(leafErr{"x"}) != nil {
		t.Fatalf("leaf has no source")
	}
}

func TestFind(t *testing.T) {
	t.Parallel()
	c := errC{b: errB{a: errA{}}}
	if b, ok := Find[errB](c); !ok || b != (errB{}) {
		t.Fatalf("got (%v, %v) want B", b, ok)
	}
	if _, ok := Find[errC](c); ok {
		t.Fatalf("the root is not part of its own chain")
	}
	if _, ok := Find[*wrap1](c); ok {
		t.Fatalf("no wrap1 in chain")
	}
	w := makeChain(3, leafErr{"leaf"})
	got, ok := Find[*wrap1](w)
	if !ok || got != w.(*wrap1).cause {
		t.Fatalf("got %v want the first wrapper below root", got)
	}
}

func TestSlice_Empty(t *testing.T) {
	t.Parallel()
	if got := Slice(errA{}); got != nil {
		t.Fatalf("got %v want nil", got)
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()
	Check[errC]()
	Check[*wrap1]()
}
