// codes.go: classification codes for generation-time failures.
//
// Conventions:
//   - Codes are lowercase snake_case ASCII.
//   - The empty Code means "unspecified" and is never a built-in.
package diag

// Code classifies diagnostics into machine-readable categories.
type Code string

// Synthesis
const (
	CodeMalformedAnnotation Code = "malformed_annotation"
	CodeDuplicateCauseField Code = "duplicate_cause_field"
	CodeUnsupportedShape    Code = "unsupported_shape"
	CodeFieldError          Code = "field_error"
)

// Front end / driver
const (
	CodeUnsupportedDecl Code = "unsupported_decl"
	CodeParse           Code = "parse"
	CodeIO              Code = "io"
	CodeInvalidConfig   Code = "invalid_config"
	CodeStale           Code = "stale"
	CodeInternal        Code = "internal"
)

var allBuiltinCodes = []Code{
	CodeMalformedAnnotation,
	CodeDuplicateCauseField,
	CodeUnsupportedShape,
	CodeFieldError,

	CodeUnsupportedDecl,
	CodeParse,
	CodeIO,
	CodeInvalidConfig,
	CodeStale,
	CodeInternal,
}

// BuiltinCodes returns a copy of the built-in codes in a stable order.
func BuiltinCodes() []Code {
	out := make([]Code, len(allBuiltinCodes))
	copy(out, allBuiltinCodes)
	return out
}

// IsSynthesis reports whether c is raised by the walker or the synthesis
// engine, as opposed to the front end or the driver.
func (c Code) IsSynthesis() bool {
	switch c {
	case CodeMalformedAnnotation, CodeDuplicateCauseField, CodeUnsupportedShape, CodeFieldError:
		return true
	}
	return false
}
