// Package synth turns resolved variants into the structure of a generated
// Unwrap implementation: one destructuring pattern and one body per variant,
// plus the capability assertion for the target type.
//
// Everything here is a pure function of its inputs. Rendering to source text
// lives in package render.
package synth

import (
	"fmt"

	"github.com/xgx-io/xgx-errchain/internal/diag"
	"github.com/xgx-io/xgx-errchain/internal/schema"
	"github.com/xgx-io/xgx-errchain/internal/walker"
)

// MethodName is the capability method every implementation defines.
const MethodName = "Unwrap"

// Binding captures one field in a pattern.
type Binding struct {
	// Name is the identifier the pattern binds: the declared name for named
	// fields, a placeholder derived from the index for positional ones.
	Name string
	// Field is the position index of the captured field.
	Field int
	// Selector is the Go field selector that reaches the field.
	Selector string
	// Type is the declared type expression of the field.
	Type string
}

// Pattern destructures one variant.
type Pattern struct {
	Variant  string
	Kind     schema.Kind
	Pointer  bool
	Bindings []Binding
}

// Binding returns the binding for the field at index.
func (p Pattern) Binding(index int) (Binding, bool) {
	for _, b := range p.Bindings {
		if b.Field == index {
			return b, true
		}
	}
	return Binding{}, false
}

// BodyKind is what an arm evaluates to.
type BodyKind uint8

const (
	// BodyNone yields the "no cause" sentinel.
	BodyNone BodyKind = iota
	// BodyDirect yields a reference to the bound field.
	BodyDirect
	// BodyDeferred yields the result of the bound field's own cause lookup.
	BodyDeferred
)

func (k BodyKind) String() string {
	switch k {
	case BodyNone:
		return "none"
	case BodyDirect:
		return "direct"
	case BodyDeferred:
		return "deferred"
	default:
		return fmt.Sprintf("BodyKind(%d)", uint8(k))
	}
}

// Body is the expression of one arm.
type Body struct {
	Kind    BodyKind
	Binding Binding // zero for BodyNone
}

// Arm is one case of the dispatch.
type Arm struct {
	Pattern Pattern
	Body    Body
}

// Marker is a structural constraint the target must satisfy for its chains to
// be held and shared arbitrarily long.
type Marker uint8

const (
	// Shareable: safe to read from concurrently executing goroutines.
	Shareable Marker = iota + 1
	// Transferable: safe to hand from one goroutine to another.
	Transferable
	// Static: holds no data bound to a transient scope.
	Static
)

func (m Marker) String() string {
	switch m {
	case Shareable:
		return "shareable"
	case Transferable:
		return "transferable"
	case Static:
		return "static"
	default:
		return fmt.Sprintf("Marker(%d)", uint8(m))
	}
}

// Markers is the constraint set every target gains.
var Markers = []Marker{Shareable, Transferable, Static}

// Constraint binds a subject (a type parameter or the target itself) to the
// bounds it must meet.
type Constraint struct {
	Subject string
	Bounds  []string // declared bounds, threaded through unchanged
	Markers []Marker // added markers; only on the self constraint
}

// Assertion is the compile-time check emitted next to the implementation.
type Assertion struct {
	Target      string
	TypeParams  []schema.TypeParam
	Constraints []Constraint
	// Variants lists the concrete match types of a union; the assertion is
	// made for each of them. Empty for products.
	Variants []Pattern
}

// Self returns the constraint on the target type.
func (a Assertion) Self() Constraint {
	for _, c := range a.Constraints {
		if c.Subject == a.Target {
			return c
		}
	}
	return Constraint{}
}

// Method is the single dispatch method of the implementation.
type Method struct {
	Name string
	// Dispatch is true for variant lists (a type switch), false for a product
	// (one always-taken arm).
	Dispatch bool
	Arms     []Arm
}

// Implementation is the complete synthesized artifact for one type.
type Implementation struct {
	Type       string
	TypeParams []schema.TypeParam
	Shape      schema.Shape
	Package    string
	Receiver   schema.Receiver
	Assertion  Assertion
	Method     Method
	Pos        schema.Pos
}

// Reachable reports whether the dispatch has any arm at all.
func (impl *Implementation) Reachable() bool { return len(impl.Method.Arms) > 0 }

// Engine synthesizes implementations for one recognized tag.
type Engine struct {
	walker *walker.Walker
}

// New returns an Engine resolving annotations with tag.
func New(tag string) *Engine {
	return &Engine{walker: walker.New(tag)}
}

// Generate resolves and synthesizes ts with the default tag.
func Generate(ts schema.TypeSchema) (*Implementation, error) {
	return New(walker.DefaultTag).Generate(ts)
}

// Generate is the whole pipeline for one schema. Shape is checked before any
// per-variant work; walker failures propagate unchanged.
func (e *Engine) Generate(ts schema.TypeSchema) (*Implementation, error) {
	if err := checkShape(ts); err != nil {
		return nil, err
	}
	resolved, err := e.walker.Resolve(ts)
	if err != nil {
		return nil, err
	}
	return Synthesize(ts, resolved)
}

// Resolve exposes the engine's walker.
func (e *Engine) Resolve(ts schema.TypeSchema) ([]walker.Variant, error) {
	return e.walker.Resolve(ts)
}

func checkShape(ts schema.TypeSchema) error {
	switch ts.Shape {
	case schema.ShapeProduct:
		if len(ts.Variants) != 1 {
			return diag.Newf("product %s has %d variants", ts.Name, len(ts.Variants)).At(ts.Pos)
		}
		return nil
	case schema.ShapeVariants:
		return nil
	case schema.ShapeOverlapping:
		return diag.UnsupportedShape(ts.Name, ts.Shape).At(ts.Pos)
	default:
		return diag.UnsupportedShape(ts.Name, ts.Shape).At(ts.Pos)
	}
}

// Synthesize builds the implementation of ts from its resolved variants.
func Synthesize(ts schema.TypeSchema, resolved []walker.Variant) (*Implementation, error) {
	if err := checkShape(ts); err != nil {
		return nil, err
	}
	if len(resolved) != len(ts.Variants) {
		return nil, diag.Newf("%s: %d variants resolved, schema has %d", ts.Name, len(resolved), len(ts.Variants)).At(ts.Pos)
	}

	arms := make([]Arm, 0, len(resolved))
	for _, rv := range resolved {
		arm, err := buildArm(rv)
		if err != nil {
			return nil, diag.Wrap(err, ts.Name).At(rv.Shape.Pos)
		}
		arms = append(arms, arm)
	}

	impl := &Implementation{
		Type:       ts.Name,
		TypeParams: ts.TypeParams,
		Shape:      ts.Shape,
		Package:    ts.Package,
		Receiver:   ts.Receiver,
		Method: Method{
			Name:     MethodName,
			Dispatch: ts.Shape == schema.ShapeVariants,
			Arms:     arms,
		},
		Pos: ts.Pos,
	}
	impl.Assertion = assertion(ts, arms)
	return impl, nil
}

func buildArm(rv walker.Variant) (Arm, error) {
	pat := PatternOf(rv.Shape)
	i, st, ok := rv.Selection.Cause()
	if !ok {
		return Arm{Pattern: pat, Body: Body{Kind: BodyNone}}, nil
	}
	b, found := pat.Binding(i)
	if !found {
		return Arm{}, fmt.Errorf("variant %s selects field %d but binds no such field", rv.Shape.Name, i)
	}
	switch st {
	case walker.Direct:
		return Arm{Pattern: pat, Body: Body{Kind: BodyDirect, Binding: b}}, nil
	case walker.Deferred:
		return Arm{Pattern: pat, Body: Body{Kind: BodyDeferred, Binding: b}}, nil
	default:
		return Arm{}, fmt.Errorf("variant %s: unknown strategy %v", rv.Shape.Name, st)
	}
}

// PatternOf builds the destructuring pattern of v.
func PatternOf(v schema.VariantShape) Pattern {
	p := Pattern{Variant: v.Name, Kind: v.Kind, Pointer: v.Pointer}
	switch v.Kind {
	case schema.KindUnit:
	case schema.KindPositional:
		p.Bindings = make([]Binding, len(v.Fields))
		for i, f := range v.Fields {
			p.Bindings[i] = Binding{
				Name:     Placeholder(i),
				Field:    i,
				Selector: schema.EmbeddedName(f.Type),
				Type:     f.Type,
			}
		}
	case schema.KindNamed:
		p.Bindings = make([]Binding, len(v.Fields))
		for i, f := range v.Fields {
			p.Bindings[i] = Binding{Name: f.Name, Field: i, Selector: f.Name, Type: f.Type}
		}
	default:
		panic(fmt.Sprintf("synth: unknown variant kind %v", v.Kind))
	}
	return p
}

// Placeholder is the binding name of the positional field at index.
func Placeholder(index int) string {
	return fmt.Sprintf("f%d", index)
}

func assertion(ts schema.TypeSchema, arms []Arm) Assertion {
	a := Assertion{Target: ts.Name, TypeParams: ts.TypeParams}
	for _, p := range ts.TypeParams {
		c := Constraint{Subject: p.Name}
		if p.Constraint != "" {
			c.Bounds = []string{p.Constraint}
		}
		a.Constraints = append(a.Constraints, c)
	}
	self := Constraint{Subject: ts.Name, Markers: append([]Marker(nil), Markers...)}
	a.Constraints = append(a.Constraints, self)
	if ts.Shape == schema.ShapeVariants {
		for _, arm := range arms {
			a.Variants = append(a.Variants, arm.Pattern)
		}
	}
	return a
}
