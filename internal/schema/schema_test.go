package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedName(t *testing.T) {
	tests := map[string]string{
		"Inner":             "Inner",
		"*Inner":            "Inner",
		"os.PathError":      "PathError",
		"*os.PathError":     "PathError",
		"Box[T]":            "Box",
		"*pkg.Pair[K, V]":   "Pair",
		" *pkg.Pair[K, V] ": "Pair",
	}
	for in, want := range tests {
		assert.Equal(t, want, EmbeddedName(in), in)
	}
}

func TestTypeParamRendering(t *testing.T) {
	ts := TypeSchema{Name: "G"}
	assert.Empty(t, ts.TypeArgs())
	assert.Empty(t, ts.TypeParamList())
	assert.False(t, ts.Generic())

	ts.TypeParams = []TypeParam{{Name: "E", Constraint: "error"}, {Name: "T"}}
	assert.True(t, ts.Generic())
	assert.Equal(t, "[E, T]", ts.TypeArgs())
	assert.Equal(t, "[E error, T any]", ts.TypeParamList())
}

func TestConstructorsIndexFields(t *testing.T) {
	p := Product("P", KindNamed, FieldDecl{Name: "A", Index: 7}, FieldDecl{Name: "B"})
	require.Len(t, p.Variants, 1)
	assert.Equal(t, "P", p.Variants[0].Name)
	assert.Equal(t, 0, p.Variants[0].Fields[0].Index)
	assert.Equal(t, 1, p.Variants[0].Fields[1].Index)
	require.NoError(t, p.Validate())

	u := Variants("U")
	assert.True(t, u.Uninhabited())
	require.NoError(t, u.Validate())
	assert.False(t, Product("P", KindUnit).Uninhabited())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		ts   TypeSchema
		want string
	}{
		{"no name", TypeSchema{Shape: ShapeVariants}, "no name"},
		{"product arity", TypeSchema{Name: "P"}, "exactly one variant"},
		{"duplicate variant", Variants("U", VariantShape{Name: "A"}, VariantShape{Name: "A"}), "duplicate variant A"},
		{"unit with fields", Variants("U", VariantShape{Name: "A", Kind: KindUnit, Fields: []FieldDecl{{Type: "int"}}}), "unit variant has 1 fields"},
		{"named positional", Product("P", KindPositional, FieldDecl{Name: "x"}), "positional field 0 is named"},
		{"unnamed named", Product("P", KindNamed, FieldDecl{Type: "int"}), "unnamed field 0"},
		{"bad kind", Product("P", Kind(9)), "unknown kind Kind(9)"},
		{"bad index", TypeSchema{Name: "P", Variants: []VariantShape{{Name: "P", Kind: KindPositional, Fields: []FieldDecl{{Index: 3}}}}}, "index 3, want 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ts.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestStringsAndParsing(t *testing.T) {
	for _, s := range []Shape{ShapeProduct, ShapeVariants, ShapeOverlapping} {
		got, err := ParseShape(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	for _, k := range []Kind{KindUnit, KindPositional, KindNamed} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	got, err := ParseShape("enum")
	require.NoError(t, err)
	assert.Equal(t, ShapeVariants, got)

	_, err = ParseShape("blob")
	assert.Error(t, err)
	_, err = ParseKind("")
	assert.Error(t, err)
	assert.Equal(t, "Shape(7)", Shape(7).String())
}

func TestPosString(t *testing.T) {
	assert.Equal(t, "-", Pos{}.String())
	assert.Equal(t, "a.go", Pos{File: "a.go"}.String())
	assert.Equal(t, "a.go:3", Pos{File: "a.go", Line: 3}.String())
	assert.Equal(t, "a.go:3:9", Pos{File: "a.go", Line: 3, Column: 9}.String())
	assert.Equal(t, "#2", FieldDecl{Index: 2}.Label())
	assert.Equal(t, "Err", FieldDecl{Index: 2, Name: "Err"}.Label())
}
