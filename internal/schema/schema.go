// schema.go: the normalized type-shape description consumed by the generator.
//
// A TypeSchema is produced by a front end (Go source scanning or a YAML
// description) and handed to the walker unchanged. Nothing in this package
// interprets annotations or field types; it only carries them.
package schema

import (
	"fmt"
	"strings"
)

// Shape classifies the storage layout of a TypeSchema.
type Shape uint8

const (
	// ShapeProduct is a single product type with exactly one variant.
	ShapeProduct Shape = iota
	// ShapeVariants is a tagged union. Zero variants means uninhabited.
	ShapeVariants
	// ShapeOverlapping is an overlapping-storage (untagged union) type.
	// The capability can never be derived for it.
	ShapeOverlapping
)

func (s Shape) String() string {
	switch s {
	case ShapeProduct:
		return "product"
	case ShapeVariants:
		return "variants"
	case ShapeOverlapping:
		return "overlapping"
	default:
		return fmt.Sprintf("Shape(%d)", uint8(s))
	}
}

// ParseShape maps the textual form used in descriptions back to a Shape.
func ParseShape(s string) (Shape, error) {
	switch s {
	case "product", "":
		return ShapeProduct, nil
	case "variants", "enum":
		return ShapeVariants, nil
	case "overlapping", "union":
		return ShapeOverlapping, nil
	}
	return 0, fmt.Errorf("unknown shape %q", s)
}

// Kind is the closed set of variant layouts.
type Kind uint8

const (
	KindUnit Kind = iota
	KindPositional
	KindNamed
)

func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "unit"
	case KindPositional:
		return "positional"
	case KindNamed:
		return "named"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind maps the textual form used in descriptions back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "unit":
		return KindUnit, nil
	case "positional", "tuple":
		return KindPositional, nil
	case "named", "struct":
		return KindNamed, nil
	}
	return 0, fmt.Errorf("unknown variant kind %q", s)
}

// Pos is a source location. The zero Pos is "unknown".
type Pos struct {
	File   string
	Line   int
	Column int
}

// IsValid reports whether the position carries a line.
func (p Pos) IsValid() bool { return p.Line > 0 }

func (p Pos) String() string {
	if !p.IsValid() {
		if p.File != "" {
			return p.File
		}
		return "-"
	}
	if p.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Annotation is one raw tag/payload pair attached to a field.
type Annotation struct {
	Tag     string
	Payload string
	Pos     Pos
}

// FieldDecl is one field of a variant.
type FieldDecl struct {
	Index       int
	Name        string // empty for positional fields
	Type        string // type expression as written; opaque here
	Annotations []Annotation
	Pos         Pos
}

// Label names the field for diagnostics: its name, or its index.
func (f FieldDecl) Label() string {
	if f.Name != "" {
		return f.Name
	}
	return fmt.Sprintf("#%d", f.Index)
}

// EmbeddedName is the implicit field name Go gives an embedded field of type
// expression typ: "*pkg.Name[T]" becomes "Name".
func EmbeddedName(typ string) string {
	s := strings.TrimLeft(strings.TrimSpace(typ), "*")
	if i := strings.IndexByte(s, '['); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

// VariantShape is one arm of a TypeSchema.
type VariantShape struct {
	Name   string
	Kind   Kind
	Fields []FieldDecl
	// Pointer records that values of this variant are *Name. Renderer hint.
	Pointer bool
	Pos     Pos
}

// TypeParam is a generic parameter with its declared constraint text.
type TypeParam struct {
	Name       string
	Constraint string
}

// Receiver selects the receiver form of generated product methods.
type Receiver uint8

const (
	ReceiverValue Receiver = iota
	ReceiverPointer
)

// TypeSchema is the type being processed.
type TypeSchema struct {
	Name       string
	TypeParams []TypeParam
	Shape      Shape
	Variants   []VariantShape
	Pos        Pos

	// Package and Receiver are renderer hints; the core never reads them.
	Package  string
	Receiver Receiver
}

// Product builds a single-shape schema whose only variant carries the type name.
func Product(name string, kind Kind, fields ...FieldDecl) TypeSchema {
	return TypeSchema{
		Name:     name,
		Shape:    ShapeProduct,
		Variants: []VariantShape{{Name: name, Kind: kind, Fields: indexed(fields)}},
	}
}

// Variants builds a tagged-union schema. With no variants it is uninhabited.
func Variants(name string, vs ...VariantShape) TypeSchema {
	out := make([]VariantShape, len(vs))
	for i, v := range vs {
		v.Fields = indexed(v.Fields)
		out[i] = v
	}
	return TypeSchema{Name: name, Shape: ShapeVariants, Variants: out}
}

// indexed copies fields and stamps their position index.
func indexed(fs []FieldDecl) []FieldDecl {
	if len(fs) == 0 {
		return nil
	}
	out := make([]FieldDecl, len(fs))
	for i, f := range fs {
		f.Index = i
		out[i] = f
	}
	return out
}

// Uninhabited reports whether the schema is a union with no variants.
func (ts TypeSchema) Uninhabited() bool {
	return ts.Shape == ShapeVariants && len(ts.Variants) == 0
}

// Generic reports whether the schema declares type parameters.
func (ts TypeSchema) Generic() bool { return len(ts.TypeParams) > 0 }

// TypeArgs renders "[A, B]" for generic schemas, "" otherwise.
func (ts TypeSchema) TypeArgs() string {
	if len(ts.TypeParams) == 0 {
		return ""
	}
	names := make([]string, len(ts.TypeParams))
	for i, p := range ts.TypeParams {
		names[i] = p.Name
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// TypeParamList renders "[A any, B error]" for generic schemas, "" otherwise.
func (ts TypeSchema) TypeParamList() string {
	if len(ts.TypeParams) == 0 {
		return ""
	}
	parts := make([]string, len(ts.TypeParams))
	for i, p := range ts.TypeParams {
		c := p.Constraint
		if c == "" {
			c = "any"
		}
		parts[i] = p.Name + " " + c
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Validate checks the structural invariants every front end must uphold.
// It does not look at annotations.
func (ts TypeSchema) Validate() error {
	if ts.Name == "" {
		return fmt.Errorf("schema has no name")
	}
	if ts.Shape == ShapeProduct && len(ts.Variants) != 1 {
		return fmt.Errorf("product %s must have exactly one variant, has %d", ts.Name, len(ts.Variants))
	}
	seen := make(map[string]struct{}, len(ts.Variants))
	for _, v := range ts.Variants {
		if _, dup := seen[v.Name]; dup {
			return fmt.Errorf("%s: duplicate variant %s", ts.Name, v.Name)
		}
		seen[v.Name] = struct{}{}
		switch v.Kind {
		case KindUnit:
			if len(v.Fields) != 0 {
				return fmt.Errorf("%s.%s: unit variant has %d fields", ts.Name, v.Name, len(v.Fields))
			}
		case KindPositional:
			for _, f := range v.Fields {
				if f.Name != "" {
					return fmt.Errorf("%s.%s: positional field %d is named %q", ts.Name, v.Name, f.Index, f.Name)
				}
			}
		case KindNamed:
			for _, f := range v.Fields {
				if f.Name == "" {
					return fmt.Errorf("%s.%s: named variant has unnamed field %d", ts.Name, v.Name, f.Index)
				}
			}
		default:
			return fmt.Errorf("%s.%s: unknown kind %v", ts.Name, v.Name, v.Kind)
		}
		for i, f := range v.Fields {
			if f.Index != i {
				return fmt.Errorf("%s.%s: field %s has index %d, want %d", ts.Name, v.Name, f.Label(), f.Index, i)
			}
		}
	}
	return nil
}
