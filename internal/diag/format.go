// format.go: fmt.Formatter for diagnostics.
//
//	%s, %v   → concise: "file.go:12:3: message: cause"
//	%+v      → verbose, multi-line:
//	             code=<code> pos=<pos> msg="<message>"
//	             ctx: key1=val1 key2=val2
//	             cause: <cause formatted with %+v>
//	%q       → quoted concise form
package diag

import (
	"fmt"
	"io"
)

func formatVerbose(w io.Writer, e *failure) {
	if e.code != "" {
		_, _ = fmt.Fprintf(w, "code=%s ", e.code)
	}
	if e.pos.IsValid() || e.pos.File != "" {
		_, _ = fmt.Fprintf(w, "pos=%s ", e.pos)
	}
	_, _ = fmt.Fprintf(w, "msg=%q", e.msg)

	if len(e.ctx) > 0 {
		_, _ = io.WriteString(w, "\nctx:")
		for _, f := range e.ctx {
			if f.Key != "" {
				_, _ = fmt.Fprintf(w, " %s=%v", f.Key, f.Val)
			}
		}
	}

	if e.cause != nil {
		_, _ = io.WriteString(w, "\ncause: ")
		_, _ = fmt.Fprintf(w, "%+v", e.cause)
	}
}

func (e *failure) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			formatVerbose(s, e)
			return
		}
		_, _ = io.WriteString(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	default:
		_, _ = io.WriteString(s, e.Error())
	}
}
