package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/xgx-io/xgx-errchain/internal/diag"
)

const (
	ansiRed   = "\x1b[31m"
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

// colorEnabled reports whether diagnostics written to f may use ANSI color.
func colorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// report prints one line per diagnostic in err. verbose switches to the %+v
// form with code, context and cause.
func report(w io.Writer, err error, verbose, color bool) {
	for _, e := range diag.Flatten(err) {
		code := diag.CodeOf(e)
		if code == "" {
			code = "error"
		}
		label := string(code)
		if color {
			label = ansiBold + ansiRed + label + ansiReset
		}
		if verbose {
			fmt.Fprintf(w, "%s: %+v\n", label, e)
			continue
		}
		fmt.Fprintf(w, "%s: %v\n", label, e)
	}
}
