package walker

import (
	"strings"
	"testing"

	"github.com/xgx-io/xgx-errchain/internal/diag"
)

func FuzzParsePayload(f *testing.F) {
	for _, s := range []string{"source", "defer", "", " source ", "source,defer", "source(x)", "Source", "defer="} {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, payload string) {
		a, err := ParsePayload(DefaultTag, payload)
		word := strings.TrimSpace(payload)
		switch {
		case word == WordSource:
			if err != nil || a != AnnotDirect {
				t.Fatalf("ParsePayload(%q) = %v, %v; want direct", payload, a, err)
			}
		case word == WordDefer:
			if err != nil || a != AnnotDeferred {
				t.Fatalf("ParsePayload(%q) = %v, %v; want deferred", payload, a, err)
			}
		default:
			if err == nil {
				t.Fatalf("ParsePayload(%q) accepted %v", payload, a)
			}
			if a != AnnotNone {
				t.Fatalf("ParsePayload(%q) = %v on error", payload, a)
			}
			if diag.CodeOf(err) != diag.CodeMalformedAnnotation {
				t.Fatalf("code = %q, want %q", diag.CodeOf(err), diag.CodeMalformedAnnotation)
			}
		}
	})
}
