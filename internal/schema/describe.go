// describe.go: YAML description format for schemas.
//
// A description lets a non-Go front end (or a test) hand the generator a
// normalized shape without going through source parsing:
//
//	package: demo
//	types:
//	  - name: C
//	    shape: product
//	    variants:
//	      - name: C
//	        kind: positional
//	        fields:
//	          - type: B
//	            annotations: [{tag: error, payload: source}]
package schema

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Description is the document root.
type Description struct {
	Package string            `yaml:"package"`
	Types   []TypeDescription `yaml:"types"`
}

// TypeDescription mirrors TypeSchema in YAML.
type TypeDescription struct {
	Name     string               `yaml:"name"`
	Shape    string               `yaml:"shape,omitempty"`
	Receiver string               `yaml:"receiver,omitempty"`
	Params   []TypeParam          `yaml:"params,omitempty"`
	Variants []VariantDescription `yaml:"variants,omitempty"`

	line int
}

// VariantDescription mirrors VariantShape in YAML.
type VariantDescription struct {
	Name    string             `yaml:"name"`
	Kind    string             `yaml:"kind,omitempty"`
	Pointer bool               `yaml:"pointer,omitempty"`
	Fields  []FieldDescription `yaml:"fields,omitempty"`
}

// FieldDescription mirrors FieldDecl in YAML.
type FieldDescription struct {
	Name        string       `yaml:"name,omitempty"`
	Type        string       `yaml:"type"`
	Annotations []Annotation `yaml:"annotations,omitempty"`
}

// UnmarshalYAML records the line of each type for diagnostics.
func (d *TypeDescription) UnmarshalYAML(n *yaml.Node) error {
	type plain TypeDescription
	var p plain
	if err := n.Decode(&p); err != nil {
		return err
	}
	*d = TypeDescription(p)
	d.line = n.Line
	return nil
}

// UnmarshalYAML accepts both {tag: x, payload: y} and the short "x:y" form.
func (a *Annotation) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		for i := 0; i < len(n.Value); i++ {
			if n.Value[i] == ':' {
				a.Tag, a.Payload = n.Value[:i], n.Value[i+1:]
				a.Pos = Pos{Line: n.Line, Column: n.Column}
				return nil
			}
		}
		return fmt.Errorf("line %d: annotation %q is not tag:payload", n.Line, n.Value)
	}
	var raw struct {
		Tag     string `yaml:"tag"`
		Payload string `yaml:"payload"`
	}
	if err := n.Decode(&raw); err != nil {
		return err
	}
	a.Tag, a.Payload = raw.Tag, raw.Payload
	a.Pos = Pos{Line: n.Line, Column: n.Column}
	return nil
}

// MarshalYAML writes the long form and drops the position.
func (a Annotation) MarshalYAML() (any, error) {
	return map[string]string{"tag": a.Tag, "payload": a.Payload}, nil
}

// Decode reads a description and converts it into schemas. file is used only
// to stamp positions.
func Decode(r io.Reader, file string) ([]TypeSchema, error) {
	d, err := DecodeDescription(r, file)
	if err != nil {
		return nil, err
	}
	return d.Schemas(file)
}

// DecodeDescription reads a description without converting it. Unknown keys
// are rejected. An empty document is an empty description.
func DecodeDescription(r io.Reader, file string) (Description, error) {
	var d Description
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		if err == io.EOF {
			return Description{}, nil
		}
		return Description{}, fmt.Errorf("%s: %w", file, err)
	}
	return d, nil
}

// Schemas converts the description into validated schemas.
func (d Description) Schemas(file string) ([]TypeSchema, error) {
	out := make([]TypeSchema, 0, len(d.Types))
	for _, td := range d.Types {
		ts, err := td.schema(file)
		if err != nil {
			return nil, err
		}
		ts.Package = d.Package
		out = append(out, ts)
	}
	return out, nil
}

func (td TypeDescription) schema(file string) (TypeSchema, error) {
	pos := Pos{File: file, Line: td.line}
	shape, err := ParseShape(td.Shape)
	if err != nil {
		return TypeSchema{}, fmt.Errorf("%s: %s: %w", pos, td.Name, err)
	}
	ts := TypeSchema{
		Name:       td.Name,
		TypeParams: td.Params,
		Shape:      shape,
		Pos:        pos,
	}
	switch td.Receiver {
	case "", "value":
	case "pointer":
		ts.Receiver = ReceiverPointer
	default:
		return TypeSchema{}, fmt.Errorf("%s: %s: unknown receiver %q", pos, td.Name, td.Receiver)
	}
	for _, vd := range td.Variants {
		kind, err := ParseKind(vd.Kind)
		if err != nil {
			if vd.Kind != "" {
				return TypeSchema{}, fmt.Errorf("%s: %s.%s: %w", pos, td.Name, vd.Name, err)
			}
			kind = inferKind(vd.Fields)
		}
		name := vd.Name
		if name == "" && shape == ShapeProduct {
			name = td.Name
		}
		v := VariantShape{Name: name, Kind: kind, Pointer: vd.Pointer, Pos: pos}
		for i, fd := range vd.Fields {
			anns := make([]Annotation, len(fd.Annotations))
			for j, a := range fd.Annotations {
				a.Pos.File = file
				anns[j] = a
			}
			fpos := pos
			if len(anns) > 0 {
				fpos = anns[0].Pos
			}
			v.Fields = append(v.Fields, FieldDecl{
				Index:       i,
				Name:        fd.Name,
				Type:        fd.Type,
				Annotations: anns,
				Pos:         fpos,
			})
		}
		ts.Variants = append(ts.Variants, v)
	}
	if err := ts.Validate(); err != nil {
		return TypeSchema{}, fmt.Errorf("%s: %w", pos, err)
	}
	return ts, nil
}

// inferKind picks a kind when the description omits it.
func inferKind(fs []FieldDescription) Kind {
	if len(fs) == 0 {
		return KindUnit
	}
	if fs[0].Name == "" {
		return KindPositional
	}
	return KindNamed
}

// Describe converts schemas back into a description, e.g. for `errchain resolve`.
func Describe(pkg string, schemas []TypeSchema) Description {
	d := Description{Package: pkg}
	for _, ts := range schemas {
		td := TypeDescription{Name: ts.Name, Shape: ts.Shape.String(), Params: ts.TypeParams}
		if ts.Receiver == ReceiverPointer {
			td.Receiver = "pointer"
		}
		for _, v := range ts.Variants {
			vd := VariantDescription{Name: v.Name, Kind: v.Kind.String(), Pointer: v.Pointer}
			for _, f := range v.Fields {
				vd.Fields = append(vd.Fields, FieldDescription{Name: f.Name, Type: f.Type, Annotations: f.Annotations})
			}
			td.Variants = append(td.Variants, vd)
		}
		d.Types = append(d.Types, td)
	}
	return d
}
