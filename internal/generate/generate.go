// Package generate drives the pipeline for whole package directories: scan,
// resolve and synthesize every marked type, render one file, then write it,
// compare it against disk, or hand it back untouched.
package generate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xgx-io/xgx-errchain/internal/config"
	"github.com/xgx-io/xgx-errchain/internal/diag"
	"github.com/xgx-io/xgx-errchain/internal/frontend"
	"github.com/xgx-io/xgx-errchain/internal/render"
	"github.com/xgx-io/xgx-errchain/internal/schema"
	"github.com/xgx-io/xgx-errchain/internal/synth"
)

// Mode selects what happens to rendered output.
type Mode uint8

const (
	// Write replaces the generated file when its contents change.
	Write Mode = iota
	// Check reports a stale generated file without touching it.
	Check
	// DryRun renders only; Result.Source carries the output.
	DryRun
)

func (m Mode) String() string {
	switch m {
	case Write:
		return "write"
	case Check:
		return "check"
	case DryRun:
		return "dry-run"
	}
	return "unknown"
}

// Result describes one processed package.
type Result struct {
	Dir     string
	Package string
	// Path is the generated file; empty when the directory has no package.
	Path  string
	Types []string
	// Changed reports that Path was (Write) or would be (Check, DryRun)
	// created, rewritten or removed.
	Changed bool
	// Source is the rendered file; nil when no type is marked.
	Source []byte
}

// Generator runs the pipeline with one configuration.
type Generator struct {
	cfg     *config.Config
	log     *zap.Logger
	engine  *synth.Engine
	scanner *frontend.Scanner
}

// New returns a Generator. A nil logger discards output.
func New(cfg *config.Config, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	recv := schema.ReceiverValue
	if cfg.PointerReceiver() {
		recv = schema.ReceiverPointer
	}
	return &Generator{
		cfg:    cfg,
		log:    log.Named("generate"),
		engine: synth.New(cfg.Tag),
		scanner: frontend.New(frontend.Options{
			Output:       cfg.Output,
			Receiver:     recv,
			IncludeTests: cfg.IncludeTests,
		}, log),
	}
}

// Run processes dirs concurrently, at most cfg.Jobs at a time. Every
// directory is processed; failures are joined in input order and results of
// successful directories are still returned.
func (g *Generator) Run(ctx context.Context, dirs []string, mode Mode) ([]*Result, error) {
	results := make([]*Result, len(dirs))
	errs := make([]error, len(dirs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(g.cfg.Jobs, 1))
	for i, dir := range dirs {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			results[i], errs[i] = g.Package(egCtx, dir, mode)
			return nil
		})
	}
	_ = eg.Wait()

	out := results[:0]
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, diag.Join(errs...)
}

// Package processes one directory.
func (g *Generator) Package(ctx context.Context, dir string, mode Mode) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := g.log.With(zap.String("dir", dir), zap.Stringer("mode", mode))

	pkg, err := g.scanner.ScanDir(dir)
	if err != nil {
		return nil, err
	}
	res := &Result{Dir: dir, Package: pkg.Name}
	if pkg.Name == "" {
		log.Debug("no Go package")
		return res, nil
	}
	res.Path = filepath.Join(dir, g.cfg.OutputFor(pkg.Name))

	impls, err := g.Implementations(pkg.Schemas)
	if err != nil {
		return nil, err
	}
	for _, impl := range impls {
		res.Types = append(res.Types, impl.Type)
	}
	if len(impls) > 0 {
		res.Source, err = render.Render(pkg.Name, impls, render.Options{Runtime: g.cfg.Runtime, Sources: pkg.Files})
		if err != nil {
			return nil, err
		}
	}

	current, err := readGenerated(res.Path)
	if err != nil {
		return nil, err
	}
	res.Changed = !bytes.Equal(current, res.Source)

	switch mode {
	case Check:
		if res.Changed {
			return res, diag.Stale(res.Path)
		}
	case Write:
		if res.Changed {
			if err := writeGenerated(res.Path, res.Source); err != nil {
				return nil, err
			}
			log.Info("generated", zap.String("file", res.Path), zap.Strings("types", res.Types))
		}
	case DryRun:
	}
	log.Debug("package done", zap.Int("types", len(res.Types)), zap.Bool("changed", res.Changed))
	return res, nil
}

// Implementations synthesizes every schema. All schemas are attempted; one
// diagnostic per failing type is joined into the returned error, in which
// case no implementation is returned.
func (g *Generator) Implementations(schemas []schema.TypeSchema) ([]*synth.Implementation, error) {
	impls := make([]*synth.Implementation, 0, len(schemas))
	var errs []error
	for _, ts := range schemas {
		impl, err := g.engine.Generate(ts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		impls = append(impls, impl)
	}
	if err := diag.Join(errs...); err != nil {
		return nil, err
	}
	return impls, nil
}

// Description renders the file for a YAML description read from r.
func (g *Generator) Description(r io.Reader, file string) ([]byte, error) {
	d, err := schema.DecodeDescription(r, file)
	if err != nil {
		return nil, diag.Parse(file, err)
	}
	schemas, err := d.Schemas(file)
	if err != nil {
		return nil, diag.Parse(file, err)
	}
	pkg := d.Package
	if pkg == "" {
		pkg = "main"
	}
	impls, err := g.Implementations(schemas)
	if err != nil {
		return nil, err
	}
	return render.Render(pkg, impls, render.Options{Runtime: g.cfg.Runtime, Sources: []string{filepath.Base(file)}})
}

// readGenerated returns the contents of path, or nil if it does not exist.
func readGenerated(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, diag.IO("read", path, err)
	}
	return b, nil
}

// writeGenerated replaces path with src atomically; nil src removes it.
func writeGenerated(path string, src []byte) error {
	if src == nil {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return diag.IO("remove", path, err)
		}
		return nil
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".errchain-*.tmp")
	if err != nil {
		return diag.IO("create temp", filepath.Dir(path), err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(src); err != nil {
		tmp.Close()
		return diag.IO("write", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return diag.IO("close", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return diag.IO("chmod", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return diag.IO("rename", path, err)
	}
	return nil
}
