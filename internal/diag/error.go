// error.go: the diagnostic error model used by the generator.
//
// Every failure the walker, the synthesis engine, the front end or the driver
// reports is a diag.Error:
//   - classified by a Code (see codes.go),
//   - pinned to a schema.Pos when one is known,
//   - carrying ordered key/value context,
//   - optionally wrapping a cause via Unwrap() error.
//
// Fluent methods are copy-on-write; a published Error is never mutated, so it
// may be shared freely between goroutines of the driver.
package diag

import (
	"fmt"

	errchain "github.com/xgx-io/xgx-errchain"
	"github.com/xgx-io/xgx-errchain/internal/schema"
)

// Error is the contract of every diagnostic.
type Error interface {
	error

	// CodeVal returns the classification code.
	CodeVal() Code

	// Pos returns the pinned source location; the zero Pos if none.
	Pos() schema.Pos

	// Context returns a copy of the key/value context.
	Context() map[string]any

	// With adds a single key/value. Returns a NEW Error.
	With(key string, val any) Error

	// At pins the diagnostic to pos. Returns a NEW Error.
	At(pos schema.Pos) Error

	// Unwrap returns the cause, nil if none.
	Unwrap() error
}

type failure struct {
	msg   string
	code  Code
	pos   schema.Pos
	ctx   fields
	cause error
}

func (e *failure) Error() string {
	s := e.msg
	if s == "" {
		s = string(e.code)
	}
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	if e.pos.IsValid() || e.pos.File != "" {
		return e.pos.String() + ": " + s
	}
	return s
}

func (e *failure) Unwrap() error           { return e.cause }
func (e *failure) CodeVal() Code           { return e.code }
func (e *failure) Pos() schema.Pos         { return e.pos }
func (e *failure) Context() map[string]any { return ctxToMap(e.ctx) }

func (e *failure) With(key string, val any) Error {
	n := e.clone()
	n.ctx = ctxCloneAppend(n.ctx, Field{Key: key, Val: val})
	return n
}

func (e *failure) At(pos schema.Pos) Error {
	n := e.clone()
	n.pos = pos
	return n
}

func (e *failure) clone() *failure {
	n := *e
	if len(e.ctx) > 0 {
		n.ctx = make(fields, len(e.ctx))
		copy(n.ctx, e.ctx)
	} else {
		n.ctx = emptyFields
	}
	return &n
}

// -----------------------------------------------------------------------------
// Synthesis failures
// -----------------------------------------------------------------------------

// MalformedAnnotation reports a tag whose payload is not one of the
// recognized single words. The message always names the accepted syntax.
func MalformedAnnotation(tag, payload, reason string) Error {
	return &failure{
		msg:  fmt.Sprintf("malformed %s annotation %q: %s (expected %s:\"source\" or %s:\"defer\")", tag, payload, reason, tag, tag),
		code: CodeMalformedAnnotation,
		ctx:  ctxFromKV("tag", tag, "payload", payload),
	}
}

// DuplicateCauseField reports a second tagged field in one variant.
func DuplicateCauseField(tag, first, second string) Error {
	return &failure{
		msg:  fmt.Sprintf("only one field per variant may carry a %s tag; %s is already the cause, found %s", tag, first, second),
		code: CodeDuplicateCauseField,
		ctx:  ctxFromKV("first", first, "second", second),
	}
}

// UnsupportedShape rejects types whose storage layout cannot carry the capability.
func UnsupportedShape(typeName string, shape schema.Shape) Error {
	return &failure{
		msg:  fmt.Sprintf("cannot derive Unwrap for %s: %s types are not supported", typeName, shape),
		code: CodeUnsupportedShape,
		ctx:  ctxFromKV("type", typeName, "shape", shape.String()),
	}
}

// FieldError attributes cause to one field of one variant and pins it to the
// field's position.
func FieldError(typeName, variant string, field schema.FieldDecl, cause error) Error {
	label := typeName
	if variant != "" && variant != typeName {
		label += "." + variant
	}
	label += "." + field.Label()
	return &failure{
		msg:   label,
		code:  CodeFieldError,
		pos:   field.Pos,
		ctx:   ctxFromKV("type", typeName, "variant", variant, "field", field.Label()),
		cause: cause,
	}
}

// -----------------------------------------------------------------------------
// Front end & driver failures
// -----------------------------------------------------------------------------

// UnsupportedDecl rejects a directive on a declaration that is neither a
// struct nor a sealed interface.
func UnsupportedDecl(name, reason string) Error {
	return &failure{
		msg:  fmt.Sprintf("cannot derive Unwrap for %s: %s", name, reason),
		code: CodeUnsupportedDecl,
		ctx:  ctxFromKV("type", name),
	}
}

// Parse wraps a source or description parse failure.
func Parse(file string, err error) Error {
	return &failure{msg: "parse " + file, code: CodeParse, ctx: ctxFromKV("file", file), cause: err}
}

// IO wraps a file system failure.
func IO(op, path string, err error) Error {
	return &failure{msg: op + " " + path, code: CodeIO, ctx: ctxFromKV("op", op, "path", path), cause: err}
}

// InvalidConfig reports a configuration value that fails validation.
func InvalidConfig(key, reason string) Error {
	return &failure{
		msg:  fmt.Sprintf("invalid config %s: %s", key, reason),
		code: CodeInvalidConfig,
		ctx:  ctxFromKV("key", key),
	}
}

// Stale reports a generated file that does not match what would be generated.
func Stale(path string) Error {
	return &failure{
		msg:  "generated file is out of date; run errchain generate",
		code: CodeStale,
		pos:  schema.Pos{File: path},
		ctx:  ctxFromKV("path", path),
	}
}

// Newf creates an internal diagnostic.
func Newf(format string, args ...any) Error {
	return &failure{msg: fmt.Sprintf(format, args...), code: CodeInternal, ctx: emptyFields}
}

// Wrap attaches msg to err as an internal diagnostic. nil stays nil.
func Wrap(err error, msg string, kv ...any) Error {
	if err == nil {
		return nil
	}
	return &failure{msg: msg, code: CodeInternal, ctx: ctxFromKV(kv...), cause: err}
}

var (
	_ Error          = (*failure)(nil)
	_ errchain.Error = (*failure)(nil)
)
