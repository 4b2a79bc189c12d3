// join.go: one diagnostic per failing type, reported together.
//
// Join mirrors errors.Join for Error() and Unwrap() []error, and adds a %+v
// that renders each child verbosely.
package diag

import (
	"fmt"
	"strings"
)

type multi struct {
	errs []error
}

func (m *multi) Error() string {
	var sb strings.Builder
	for i, e := range m.errs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(e.Error())
	}
	return sb.String()
}

func (m *multi) Unwrap() []error { return m.errs }

func (m *multi) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		for i, e := range m.errs {
			if i > 0 {
				fmt.Fprint(s, "\n")
			}
			fmt.Fprintf(s, "%+v", e)
		}
		return
	}
	if verb == 'q' {
		fmt.Fprintf(s, "%q", m.Error())
		return
	}
	fmt.Fprint(s, m.Error())
}

// Join combines errs, dropping nils.
//   - all nil → nil
//   - one non-nil → that error, identity preserved
//   - otherwise → a multi error with Unwrap() []error
func Join(errs ...error) error {
	nz := make([]error, 0, len(errs))
	for _, e := range errs {
		if e != nil {
			nz = append(nz, e)
		}
	}
	switch len(nz) {
	case 0:
		return nil
	case 1:
		return nz[0]
	default:
		return &multi{errs: nz}
	}
}

// Split returns the children of a joined error, or err alone.
func Split(err error) []error {
	if err == nil {
		return nil
	}
	if m, ok := err.(interface{ Unwrap() []error }); ok {
		return m.Unwrap()
	}
	return []error{err}
}

// Flatten is Split applied recursively: nested joins are expanded in order.
func Flatten(err error) []error {
	var out []error
	for _, e := range Split(err) {
		if _, ok := e.(interface{ Unwrap() []error }); ok {
			out = append(out, Flatten(e)...)
			continue
		}
		out = append(out, e)
	}
	return out
}
