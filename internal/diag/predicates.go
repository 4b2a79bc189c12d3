// predicates.go: classification helpers over diagnostic chains.
//
// All helpers use errors.As, which walks both Unwrap() error and
// Unwrap() []error.
package diag

import (
	"errors"

	errchain "github.com/xgx-io/xgx-errchain"
	"github.com/xgx-io/xgx-errchain/internal/schema"
)

type coded interface{ CodeVal() Code }

// HasCode reports whether any diagnostic in err's graph carries code.
func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	found := false
	walk(err, func(e error) bool {
		if c, ok := e.(coded); ok && c.CodeVal() == code {
			found = true
			return false
		}
		return true
	})
	return found
}

// CodeOf returns the first code found along err's chain, "" if none.
func CodeOf(err error) Code {
	var c coded
	if errors.As(err, &c) {
		return c.CodeVal()
	}
	return ""
}

// RootCode returns the code of the innermost diagnostic in err's single-cause
// chain. For a FieldError wrapping a MalformedAnnotation it is the latter.
func RootCode(err error) Code {
	var code Code
	if c, ok := err.(coded); ok {
		code = c.CodeVal()
	}
	for cause := range errchain.All(err) {
		if c, ok := cause.(coded); ok {
			code = c.CodeVal()
		}
	}
	return code
}

// PosOf returns the first valid position on err or its causes.
func PosOf(err error) schema.Pos {
	type positioned interface{ Pos() schema.Pos }
	if p, ok := err.(positioned); ok && p.Pos().IsValid() {
		return p.Pos()
	}
	for cause := range errchain.All(err) {
		if p, ok := cause.(positioned); ok && p.Pos().IsValid() {
			return p.Pos()
		}
	}
	return schema.Pos{}
}

// walk visits err and everything below it in pre-order until visit returns false.
func walk(err error, visit func(error) bool) bool {
	if err == nil {
		return true
	}
	if !visit(err) {
		return false
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, c := range u.Unwrap() {
			if !walk(c, visit) {
				return false
			}
		}
	case interface{ Unwrap() error }:
		return walk(u.Unwrap(), visit)
	}
	return true
}
