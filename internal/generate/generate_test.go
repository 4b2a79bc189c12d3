package generate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xgx-io/xgx-errchain/internal/config"
	"github.com/xgx-io/xgx-errchain/internal/diag"
	"github.com/xgx-io/xgx-errchain/internal/render"
)

const parseSrc = `package parse

import "strconv"

//errchain:derive
type ParseError interface{ parseError() }

type Empty struct{}

type Unexpected struct {
	Char rune
}

func (Empty) parseError()      {}
func (Unexpected) parseError() {}

func (Empty) Error() string      { return "empty input" }
func (Unexpected) Error() string { return "unexpected character" }

//errchain:derive
type ToNumberError struct {
	Input string
	Err   *strconv.NumError ` + "`error:\"source\"`" + `
}

func (e ToNumberError) Error() string { return "cannot convert " + e.Input }
`

func writePkg(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	return dir
}

func newGenerator(t *testing.T) *Generator {
	t.Helper()
	cfg := config.Default()
	cfg.Jobs = 2
	return New(cfg, zaptest.NewLogger(t))
}

func TestPackage_WriteThenCheck(t *testing.T) {
	dir := writePkg(t, map[string]string{"parse.go": parseSrc})
	g := newGenerator(t)
	ctx := context.Background()

	res, err := g.Package(ctx, dir, Write)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "parse", res.Package)
	assert.Equal(t, filepath.Join(dir, "parse_errchain.go"), res.Path)
	assert.Equal(t, []string{"ParseError", "ToNumberError"}, res.Types)

	got, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, res.Source, got)
	assert.True(t, bytes.HasPrefix(got, []byte(render.Header)))
	assert.Contains(t, string(got), "func unwrapParseError(e ParseError) error {")
	assert.Contains(t, string(got), "func (e ToNumberError) Unwrap() error {")

	// The generated file is skipped on rescan, so output is stable.
	res, err = g.Package(ctx, dir, Check)
	require.NoError(t, err)
	assert.False(t, res.Changed)

	res, err = g.Package(ctx, dir, Write)
	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestPackage_CheckDetectsStale(t *testing.T) {
	dir := writePkg(t, map[string]string{"parse.go": parseSrc})
	g := newGenerator(t)
	ctx := context.Background()

	_, err := g.Package(ctx, dir, Check)
	require.Error(t, err)
	assert.True(t, diag.HasCode(err, diag.CodeStale))
	_, statErr := os.Stat(filepath.Join(dir, "parse_errchain.go"))
	assert.True(t, os.IsNotExist(statErr), "check must not write")

	_, err = g.Package(ctx, dir, Write)
	require.NoError(t, err)

	src := strings.Replace(parseSrc, "type Empty struct{}", "type Empty struct{}\n\ntype Other struct{}\n\nfunc (Other) parseError() {}\nfunc (Other) Error() string { return \"other\" }", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "parse.go"), []byte(src), 0o644))

	_, err = g.Package(ctx, dir, Check)
	require.Error(t, err)
	assert.Equal(t, diag.CodeStale, diag.CodeOf(err))
	assert.Equal(t, filepath.Join(dir, "parse_errchain.go"), diag.PosOf(err).File)
}

func TestPackage_DryRunLeavesDisk(t *testing.T) {
	dir := writePkg(t, map[string]string{"parse.go": parseSrc})
	res, err := newGenerator(t).Package(context.Background(), dir, DryRun)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.NotEmpty(t, res.Source)
	_, statErr := os.Stat(res.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPackage_RemovesOutputWhenNothingMarked(t *testing.T) {
	dir := writePkg(t, map[string]string{"parse.go": parseSrc})
	g := newGenerator(t)
	ctx := context.Background()
	_, err := g.Package(ctx, dir, Write)
	require.NoError(t, err)

	plain := strings.ReplaceAll(parseSrc, "//errchain:derive\n", "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "parse.go"), []byte(plain), 0o644))

	res, err := g.Package(ctx, dir, Write)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Empty(t, res.Types)
	_, statErr := os.Stat(res.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPackage_FailuresAreJoinedPerType(t *testing.T) {
	src := "package bad\n\n" +
		"//errchain:derive\ntype A struct {\n\tX error `error:\"source\"`\n\tY error `error:\"source\"`\n}\n\n" +
		"//errchain:derive\ntype B struct {\n\tX error `error:\"origin\"`\n}\n"
	dir := writePkg(t, map[string]string{"bad.go": src})

	_, err := newGenerator(t).Package(context.Background(), dir, Write)
	require.Error(t, err)
	parts := diag.Split(err)
	require.Len(t, parts, 2)
	assert.True(t, diag.HasCode(parts[0], diag.CodeDuplicateCauseField))
	assert.True(t, diag.HasCode(parts[1], diag.CodeMalformedAnnotation))

	entries, rerr := os.ReadDir(dir)
	require.NoError(t, rerr)
	assert.Len(t, entries, 1, "nothing is written when a type fails")
}

func TestRun_ProcessesAllDirs(t *testing.T) {
	good := writePkg(t, map[string]string{"parse.go": parseSrc})
	bad := writePkg(t, map[string]string{"bad.go": "package bad\n\n//errchain:derive\ntype A int\n"})
	empty := writePkg(t, map[string]string{"x.go": "package x\n"})

	results, err := newGenerator(t).Run(context.Background(), []string{good, bad, empty}, Write)
	require.Error(t, err)
	assert.True(t, diag.HasCode(err, diag.CodeUnsupportedDecl))
	require.Len(t, results, 2)
	assert.Equal(t, good, results[0].Dir)
	assert.True(t, results[0].Changed)
	assert.Equal(t, empty, results[1].Dir)
	assert.False(t, results[1].Changed)
}

func TestRun_CancelledContext(t *testing.T) {
	dir := writePkg(t, map[string]string{"parse.go": parseSrc})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := newGenerator(t).Run(ctx, []string{dir}, Write)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestPackage_HonorsConfiguredTagAndOutput(t *testing.T) {
	src := "package p\n\n//errchain:derive pointer\ntype E struct {\n\tInner error `cause:\"defer\"`\n}\n"
	dir := writePkg(t, map[string]string{"p.go": src})
	cfg := config.Default()
	cfg.Tag = "cause"
	cfg.Output = "zz_generated.go"

	res, err := New(cfg, nil).Package(context.Background(), dir, Write)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "zz_generated.go"), res.Path)
	out := string(res.Source)
	assert.Contains(t, out, "func (e *E) Unwrap() error {")
	assert.Contains(t, out, "return e.Inner.Unwrap()")
	assert.Contains(t, out, "_ errchain.Error = (*E)(nil)")
}

func TestDescription(t *testing.T) {
	doc := `package demo
types:
  - name: A
    variants:
      - kind: unit
  - name: C
    variants:
      - kind: positional
        fields:
          - type: A
            annotations: [{tag: error, payload: source}]
`
	out, err := newGenerator(t).Description(strings.NewReader(doc), "demo.yaml")
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "package demo")
	assert.Contains(t, s, "// Sources: demo.yaml")
	assert.Contains(t, s, "return e.A")
}

func TestDescription_BadDocument(t *testing.T) {
	_, err := newGenerator(t).Description(strings.NewReader("bogus: 1\n"), "d.yaml")
	require.Error(t, err)
	assert.Equal(t, diag.CodeParse, diag.CodeOf(err))
}

func TestResolve(t *testing.T) {
	dir := writePkg(t, map[string]string{"parse.go": parseSrc})
	res, err := newGenerator(t).Resolve(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, res.Types, 2)

	union := res.Types[0]
	assert.Equal(t, "ParseError", union.Name)
	assert.Equal(t, "variants", union.Shape)
	assert.Equal(t, []VariantResolution{
		{Name: "Empty", Cause: "none"},
		{Name: "Unexpected", Cause: "none"},
	}, union.Variants)

	prod := res.Types[1]
	assert.Equal(t, []VariantResolution{
		{Name: "ToNumberError", Cause: "Err", Type: "*strconv.NumError", Strategy: "direct"},
	}, prod.Variants)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "write", Write.String())
	assert.Equal(t, "check", Check.String())
	assert.Equal(t, "dry-run", DryRun.String())
}

func TestPackage_ExampleIsUpToDate(t *testing.T) {
	dir := filepath.Join("..", "..", "examples", "parse")
	res, err := newGenerator(t).Package(context.Background(), dir, Check)
	require.NoError(t, err, "examples/parse is stale: run errchain generate there")
	assert.False(t, res.Changed)
	assert.Equal(t, []string{"ParseError", "ToNumberError", "MainError", "Fatal"}, res.Types)
}
