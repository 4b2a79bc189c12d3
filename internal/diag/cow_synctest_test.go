package diag

import (
	"testing"
	"testing/synctest"
)

// TestCOW_ConcurrentFluentMethods_Synctest checks that fluent builders never
// mutate a shared diagnostic, even when many goroutines derive from it.
func TestCOW_ConcurrentFluentMethods_Synctest(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		base := UnsupportedDecl("T", "nope").With("phase", "scan")

		const N = 64
		results := make(chan Error, N)
		for i := 0; i < N; i++ {
			go func() {
				results <- base.With("gid", i).At(fieldPos)
			}()
		}
		synctest.Wait()
		close(results)

		seen := map[int]bool{}
		for e := range results {
			ctx := e.Context()
			gid, ok := ctx["gid"].(int)
			if !ok || seen[gid] {
				t.Fatalf("bad or duplicate gid in %v", ctx)
			}
			seen[gid] = true
			if ctx["phase"] != "scan" || e.Pos() != fieldPos {
				t.Fatalf("derived error lost data: %+v", e)
			}
		}
		if len(seen) != N {
			t.Fatalf("got %d results want %d", len(seen), N)
		}
		if _, ok := base.Context()["gid"]; ok || base.Pos().IsValid() {
			t.Fatalf("base was mutated: %+v", base)
		}
	})
}
