// Package walker resolves, for every variant of a schema, which field (if any)
// is the cause and how it is reported.
//
// Recognition is purely syntactic: a field is tagged when one of its raw
// annotations carries the recognized tag. Field types are never inspected.
package walker

import (
	"fmt"
	"strings"

	"github.com/xgx-io/xgx-errchain/internal/diag"
	"github.com/xgx-io/xgx-errchain/internal/schema"
)

// DefaultTag is the struct tag key recognized when none is configured.
const DefaultTag = "error"

// Payload words. Case-sensitive.
const (
	WordSource = "source"
	WordDefer  = "defer"
)

// Strategy is how a tagged field is reported as the cause.
type Strategy uint8

const (
	// Direct reports the field itself.
	Direct Strategy = iota + 1
	// Deferred reports the field's own cause, one level further down.
	Deferred
)

func (s Strategy) String() string {
	switch s {
	case Direct:
		return "direct"
	case Deferred:
		return "deferred"
	default:
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
}

// Annotation is the normalized decision for one field.
type Annotation uint8

const (
	AnnotNone Annotation = iota
	AnnotDirect
	AnnotDeferred
)

// Strategy maps a non-None annotation to its strategy.
func (a Annotation) Strategy() (Strategy, bool) {
	switch a {
	case AnnotDirect:
		return Direct, true
	case AnnotDeferred:
		return Deferred, true
	}
	return 0, false
}

// Selection is the resolved cause of one variant: NoCause or CauseAt.
// The zero Selection is NoCause.
type Selection struct {
	field    int // index + 1; 0 means no cause
	strategy Strategy
}

// NoCause is the selection of a variant without a tagged field.
func NoCause() Selection { return Selection{} }

// CauseAt selects the field at index with strategy s.
func CauseAt(index int, s Strategy) Selection {
	return Selection{field: index + 1, strategy: s}
}

// Cause returns the selected field index and strategy. ok is false for NoCause.
func (s Selection) Cause() (index int, strategy Strategy, ok bool) {
	if s.field == 0 {
		return 0, 0, false
	}
	return s.field - 1, s.strategy, true
}

// IsNone reports whether the selection is NoCause.
func (s Selection) IsNone() bool { return s.field == 0 }

func (s Selection) String() string {
	i, st, ok := s.Cause()
	if !ok {
		return "none"
	}
	return fmt.Sprintf("%s@%d", st, i)
}

// Variant pairs a variant shape with its resolved selection.
type Variant struct {
	Shape     schema.VariantShape
	Selection Selection
}

// Field returns the selected field and its strategy. ok is false for NoCause.
func (v Variant) Field() (schema.FieldDecl, Strategy, bool) {
	i, st, ok := v.Selection.Cause()
	if !ok {
		return schema.FieldDecl{}, 0, false
	}
	return v.Shape.Fields[i], st, true
}

// Walker resolves schemas against one recognized tag.
type Walker struct {
	tag string
}

// New returns a Walker recognizing tag. An empty tag means DefaultTag.
func New(tag string) *Walker {
	if tag == "" {
		tag = DefaultTag
	}
	return &Walker{tag: tag}
}

// Tag returns the recognized tag key.
func (w *Walker) Tag() string { return w.tag }

// Resolve resolves ts with the default tag.
func Resolve(ts schema.TypeSchema) ([]Variant, error) {
	return New(DefaultTag).Resolve(ts)
}

// Resolve returns one Variant per variant of ts, in declaration order. An
// uninhabited schema resolves to an empty sequence. The first offending field
// aborts resolution with a diag.FieldError pinned to it.
func (w *Walker) Resolve(ts schema.TypeSchema) ([]Variant, error) {
	if ts.Shape == schema.ShapeOverlapping {
		return nil, diag.UnsupportedShape(ts.Name, ts.Shape).At(ts.Pos)
	}
	out := make([]Variant, 0, len(ts.Variants))
	for _, v := range ts.Variants {
		sel, err := w.variant(ts.Name, v)
		if err != nil {
			return nil, err
		}
		out = append(out, Variant{Shape: v, Selection: sel})
	}
	return out, nil
}

func (w *Walker) variant(typeName string, v schema.VariantShape) (Selection, error) {
	sel := NoCause()
	var first schema.FieldDecl
	for i, f := range v.Fields {
		a, err := w.Annotation(f)
		if err != nil {
			return Selection{}, diag.FieldError(typeName, v.Name, f, err)
		}
		st, tagged := a.Strategy()
		if !tagged {
			continue
		}
		if !sel.IsNone() {
			return Selection{}, diag.FieldError(typeName, v.Name, f,
				diag.DuplicateCauseField(w.tag, first.Label(), f.Label()))
		}
		sel, first = CauseAt(i, st), f
	}
	return sel, nil
}

// Annotation normalizes the raw annotations of f.
func (w *Walker) Annotation(f schema.FieldDecl) (Annotation, error) {
	var found *schema.Annotation
	for i := range f.Annotations {
		a := &f.Annotations[i]
		if a.Tag != w.tag {
			continue
		}
		if found != nil {
			return AnnotNone, diag.MalformedAnnotation(w.tag, a.Payload, "field carries the tag more than once")
		}
		found = a
	}
	if found == nil {
		return AnnotNone, nil
	}
	return ParsePayload(w.tag, found.Payload)
}

// ParsePayload accepts exactly one of the words "source" or "defer".
func ParsePayload(tag, payload string) (Annotation, error) {
	word := strings.TrimSpace(payload)
	switch {
	case word == "":
		return AnnotNone, diag.MalformedAnnotation(tag, payload, "payload is empty")
	case strings.ContainsAny(word, ", \t\n"):
		return AnnotNone, diag.MalformedAnnotation(tag, payload, "payload must be a single word")
	case strings.ContainsAny(word, "=()[]{}:\"'"):
		return AnnotNone, diag.MalformedAnnotation(tag, payload, "payload takes no arguments")
	}
	switch word {
	case WordSource:
		return AnnotDirect, nil
	case WordDefer:
		return AnnotDeferred, nil
	}
	return AnnotNone, diag.MalformedAnnotation(tag, payload, "unknown word")
}
