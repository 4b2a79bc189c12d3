// context.go: ordered, immutable key/value context for diagnostics.
//
// Internal representation is an append-only []Field so verbose output is
// deterministic. Builders always allocate a fresh slice.
package diag

// Field is one contextual key/value pair.
type Field struct {
	Key string
	Val any
}

type fields []Field

var emptyFields = make(fields, 0)

// ctxCloneAppend returns a NEW slice with dst followed by add.
func ctxCloneAppend(dst fields, add ...Field) fields {
	n, m := len(dst), len(add)
	if n+m == 0 {
		return emptyFields
	}
	out := make(fields, n+m)
	copy(out, dst)
	copy(out[n:], add)
	return out
}

// ctxFromKV reads (key, value) pairs left to right. A non-string key drops
// the whole pair; a trailing key gets a nil value.
func ctxFromKV(kv ...any) fields {
	if len(kv) == 0 {
		return emptyFields
	}
	out := make(fields, 0, len(kv)/2+1)
	for i := 0; i < len(kv); {
		k, ok := kv[i].(string)
		if !ok {
			i += 2
			continue
		}
		var v any
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		i += 2
		out = append(out, Field{Key: k, Val: v})
	}
	if len(out) == 0 {
		return emptyFields
	}
	return out
}

// ctxToMap creates a NEW map; later duplicates win.
func ctxToMap(fs fields) map[string]any {
	if len(fs) == 0 {
		return nil
	}
	m := make(map[string]any, len(fs))
	for _, f := range fs {
		m[f.Key] = f.Val
	}
	return m
}
