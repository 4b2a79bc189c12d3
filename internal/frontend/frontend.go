// Package frontend builds schemas from Go source.
//
// A type opts in with a directive line in its doc comment:
//
//	//errchain:derive
//	//errchain:derive pointer   (product methods get a pointer receiver)
//
// Structs become products; a sealed interface (one unexported niladic marker
// method) becomes a union whose variants are the package's struct types that
// declare the marker method, in source order. Fields carry raw annotations
// taken verbatim from their struct tags.
package frontend

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/structtag"
	"go.uber.org/zap"

	"github.com/xgx-io/xgx-errchain/internal/diag"
	"github.com/xgx-io/xgx-errchain/internal/schema"
)

// Directive marks a type declaration for generation.
const Directive = "//errchain:derive"

// Options configure a Scanner.
type Options struct {
	// Output is the base name of the generated file; it is never scanned.
	Output string
	// Receiver is the default receiver form of product methods.
	Receiver schema.Receiver
	// IncludeTests also scans _test.go files.
	IncludeTests bool
}

// Package is the scan result for one directory.
type Package struct {
	Name    string
	Dir     string
	Files   []string // base names of the scanned files, sorted
	Schemas []schema.TypeSchema
}

// Scanner parses package directories.
type Scanner struct {
	opts Options
	log  *zap.Logger
}

// New returns a Scanner. A nil logger discards output.
func New(opts Options, log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{opts: opts, log: log.Named("frontend")}
}

// ScanDir parses the Go files of dir and returns every marked type. A
// directory with no marked types yields a Package with no schemas.
func (s *Scanner) ScanDir(dir string) (*Package, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, diag.IO("read dir", dir, err)
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasSuffix(n, ".go") || n == s.opts.Output {
			continue
		}
		if strings.HasSuffix(n, "_test.go") && !s.opts.IncludeTests {
			continue
		}
		names = append(names, n)
	}
	sort.Strings(names)

	srcs := make(map[string][]byte, len(names))
	for _, n := range names {
		b, err := os.ReadFile(filepath.Join(dir, n))
		if err != nil {
			return nil, diag.IO("read", filepath.Join(dir, n), err)
		}
		srcs[filepath.Join(dir, n)] = b
	}
	pkg, err := s.Scan(srcs)
	if err != nil {
		return nil, err
	}
	pkg.Dir = dir
	return pkg, nil
}

// Scan parses in-memory sources keyed by file name. Generated files are skipped.
func (s *Scanner) Scan(srcs map[string][]byte) (*Package, error) {
	paths := make([]string, 0, len(srcs))
	for p := range srcs {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	fset := token.NewFileSet()
	var files []*ast.File
	pkg := &Package{}
	for _, p := range paths {
		f, err := parser.ParseFile(fset, p, srcs[p], parser.ParseComments)
		if err != nil {
			return nil, diag.Parse(p, err)
		}
		if ast.IsGenerated(f) {
			s.log.Debug("skipping generated file", zap.String("file", p))
			continue
		}
		if pkg.Name == "" {
			pkg.Name = f.Name.Name
		} else if f.Name.Name != pkg.Name && !strings.HasSuffix(f.Name.Name, "_test") {
			return nil, diag.Parse(p, diag.Newf("package %s, expected %s", f.Name.Name, pkg.Name))
		}
		files = append(files, f)
		pkg.Files = append(pkg.Files, filepath.Base(p))
	}

	c := &collector{fset: fset, opts: s.opts, structs: map[string]*structDecl{}}
	c.index(files)

	var errs []error
	for _, m := range c.marked {
		ts, err := c.schemaOf(m)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ts.Package = pkg.Name
		pkg.Schemas = append(pkg.Schemas, ts)
		s.log.Debug("found type",
			zap.String("type", ts.Name),
			zap.Stringer("shape", ts.Shape),
			zap.Int("variants", len(ts.Variants)))
	}
	errs = append(errs, checkOverlap(pkg.Schemas)...)
	if err := diag.Join(errs...); err != nil {
		return nil, err
	}
	return pkg, nil
}

// checkOverlap rejects a struct that is both marked itself and a variant of a
// marked union: it would receive two Unwrap methods.
func checkOverlap(schemas []schema.TypeSchema) []error {
	unionOf := map[string]string{}
	for _, ts := range schemas {
		if ts.Shape != schema.ShapeVariants {
			continue
		}
		for _, v := range ts.Variants {
			unionOf[v.Name] = ts.Name
		}
	}
	var errs []error
	for _, ts := range schemas {
		if u, ok := unionOf[ts.Name]; ok && ts.Shape == schema.ShapeProduct {
			errs = append(errs, diag.UnsupportedDecl(ts.Name, "already a variant of "+u+"; remove one directive").At(ts.Pos))
		}
	}
	return errs
}

type structDecl struct {
	spec *ast.TypeSpec
	st   *ast.StructType
}

type markedDecl struct {
	spec    *ast.TypeSpec
	options []string
}

type collector struct {
	fset    *token.FileSet
	opts    Options
	structs map[string]*structDecl
	marked  []markedDecl
	// methods maps a method name to the receivers declaring it, in source order.
	methods map[string][]receiver
}

type receiver struct {
	typeName string
	pointer  bool
	pos      token.Pos
}

func (c *collector) index(files []*ast.File) {
	c.methods = map[string][]receiver{}
	for _, f := range files {
		for _, decl := range f.Decls {
			switch d := decl.(type) {
			case *ast.GenDecl:
				if d.Tok != token.TYPE {
					continue
				}
				for _, spec := range d.Specs {
					ts := spec.(*ast.TypeSpec)
					if st, ok := ts.Type.(*ast.StructType); ok && ts.Assign == token.NoPos {
						c.structs[ts.Name.Name] = &structDecl{spec: ts, st: st}
					}
					doc := ts.Doc
					if doc == nil && len(d.Specs) == 1 {
						doc = d.Doc
					}
					if opts, ok := directive(doc); ok {
						c.marked = append(c.marked, markedDecl{spec: ts, options: opts})
					}
				}
			case *ast.FuncDecl:
				if d.Recv == nil || len(d.Recv.List) != 1 {
					continue
				}
				name, ptr := receiverType(d.Recv.List[0].Type)
				if name == "" {
					continue
				}
				c.methods[d.Name.Name] = append(c.methods[d.Name.Name], receiver{typeName: name, pointer: ptr, pos: d.Pos()})
			}
		}
	}
}

// directive reports whether doc carries the derive directive, with its options.
func directive(doc *ast.CommentGroup) ([]string, bool) {
	if doc == nil {
		return nil, false
	}
	for _, cm := range doc.List {
		text := strings.TrimSpace(cm.Text)
		if text == Directive {
			return nil, true
		}
		if rest, ok := strings.CutPrefix(text, Directive+" "); ok {
			return strings.Fields(rest), true
		}
	}
	return nil, false
}

// receiverType extracts the base type name of a method receiver.
func receiverType(expr ast.Expr) (name string, pointer bool) {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr, pointer = star.X, true
	}
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name, pointer
	case *ast.IndexExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return id.Name, pointer
		}
	case *ast.IndexListExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return id.Name, pointer
		}
	}
	return "", false
}

func (c *collector) position(p token.Pos) schema.Pos {
	pp := c.fset.Position(p)
	return schema.Pos{File: pp.Filename, Line: pp.Line, Column: pp.Column}
}

func (c *collector) schemaOf(m markedDecl) (schema.TypeSchema, error) {
	spec := m.spec
	name := spec.Name.Name
	pos := c.position(spec.Pos())
	if spec.Assign != token.NoPos {
		return schema.TypeSchema{}, diag.UnsupportedDecl(name, "type aliases cannot declare methods").At(pos)
	}

	recv := c.opts.Receiver
	for _, o := range m.options {
		switch o {
		case "pointer":
			recv = schema.ReceiverPointer
		case "value":
			recv = schema.ReceiverValue
		default:
			return schema.TypeSchema{}, diag.UnsupportedDecl(name, "unknown directive option "+strconv.Quote(o)).At(pos)
		}
	}

	ts := schema.TypeSchema{
		Name:       name,
		TypeParams: c.typeParams(spec.TypeParams),
		Pos:        pos,
		Receiver:   recv,
	}
	switch t := spec.Type.(type) {
	case *ast.StructType:
		v, err := c.variant(name, t)
		if err != nil {
			return schema.TypeSchema{}, err
		}
		v.Pos = pos
		ts.Shape = schema.ShapeProduct
		ts.Variants = []schema.VariantShape{v}
	case *ast.InterfaceType:
		marker, err := markerMethod(t)
		if err != nil {
			return schema.TypeSchema{}, diag.UnsupportedDecl(name, err.Error()).At(pos)
		}
		ts.Shape = schema.ShapeVariants
		vs, err := c.variants(marker)
		if err != nil {
			return schema.TypeSchema{}, err
		}
		ts.Variants = vs
	default:
		return schema.TypeSchema{}, diag.UnsupportedDecl(name, "only struct and sealed interface types are supported").At(pos)
	}
	if err := ts.Validate(); err != nil {
		return schema.TypeSchema{}, diag.Wrap(err, "invalid schema").At(pos)
	}
	return ts, nil
}

func (c *collector) typeParams(fl *ast.FieldList) []schema.TypeParam {
	if fl == nil {
		return nil
	}
	var out []schema.TypeParam
	for _, f := range fl.List {
		constraint := types.ExprString(f.Type)
		for _, n := range f.Names {
			out = append(out, schema.TypeParam{Name: n.Name, Constraint: constraint})
		}
	}
	return out
}

// markerMethod finds the single unexported niladic method of a sealed interface.
func markerMethod(it *ast.InterfaceType) (string, error) {
	var found []string
	for _, m := range it.Methods.List {
		ft, ok := m.Type.(*ast.FuncType)
		if !ok || len(m.Names) != 1 {
			continue
		}
		n := m.Names[0].Name
		if ast.IsExported(n) {
			continue
		}
		if (ft.Params != nil && len(ft.Params.List) > 0) || (ft.Results != nil && len(ft.Results.List) > 0) {
			continue
		}
		found = append(found, n)
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return "", diag.Newf("interface has no unexported marker method")
	default:
		return "", diag.Newf("interface has %d marker methods (%s), want one", len(found), strings.Join(found, ", "))
	}
}

func (c *collector) variants(marker string) ([]schema.VariantShape, error) {
	recvs := c.methods[marker]
	seen := map[string]bool{}
	type pending struct {
		decl *structDecl
		ptr  bool
	}
	var ps []pending
	for _, r := range recvs {
		sd, ok := c.structs[r.typeName]
		if !ok || seen[r.typeName] {
			continue
		}
		seen[r.typeName] = true
		ps = append(ps, pending{decl: sd, ptr: r.pointer})
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].decl.spec.Pos() < ps[j].decl.spec.Pos() })

	out := make([]schema.VariantShape, 0, len(ps))
	for _, p := range ps {
		name := p.decl.spec.Name.Name
		v, err := c.variant(name, p.decl.st)
		if err != nil {
			return nil, err
		}
		v.Pointer = p.ptr
		v.Pos = c.position(p.decl.spec.Pos())
		out = append(out, v)
	}
	return out, nil
}

// variant converts one struct into a variant shape.
func (c *collector) variant(name string, st *ast.StructType) (schema.VariantShape, error) {
	v := schema.VariantShape{Name: name}
	embeddedOnly := true
	for _, f := range st.Fields.List {
		anns, err := c.annotations(f)
		if err != nil {
			return schema.VariantShape{}, diag.FieldError(name, name, schema.FieldDecl{Index: len(v.Fields), Pos: c.position(f.Pos())}, err)
		}
		typ := types.ExprString(f.Type)
		if len(f.Names) == 0 {
			v.Fields = append(v.Fields, schema.FieldDecl{
				Index:       len(v.Fields),
				Type:        typ,
				Annotations: anns,
				Pos:         c.position(f.Pos()),
			})
			continue
		}
		embeddedOnly = false
		for _, n := range f.Names {
			v.Fields = append(v.Fields, schema.FieldDecl{
				Index:       len(v.Fields),
				Name:        n.Name,
				Type:        typ,
				Annotations: anns,
				Pos:         c.position(n.Pos()),
			})
		}
	}
	switch {
	case len(v.Fields) == 0:
		v.Kind = schema.KindUnit
	case embeddedOnly:
		v.Kind = schema.KindPositional
	default:
		v.Kind = schema.KindNamed
		for i := range v.Fields {
			if v.Fields[i].Name == "" {
				v.Fields[i].Name = schema.EmbeddedName(v.Fields[i].Type)
			}
		}
	}
	return v, nil
}

// annotations splits a struct tag into raw tag/payload pairs, duplicates kept.
func (c *collector) annotations(f *ast.Field) ([]schema.Annotation, error) {
	if f.Tag == nil {
		return nil, nil
	}
	raw, err := strconv.Unquote(f.Tag.Value)
	if err != nil {
		return nil, diag.Parse("struct tag "+f.Tag.Value, err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	tags, err := structtag.Parse(raw)
	if err != nil {
		return nil, diag.Parse("struct tag "+f.Tag.Value, err)
	}
	if tags == nil {
		return nil, nil
	}
	pos := c.position(f.Tag.Pos())
	var out []schema.Annotation
	for _, t := range tags.Tags() {
		out = append(out, schema.Annotation{Tag: t.Key, Payload: t.Value(), Pos: pos})
	}
	return out, nil
}
