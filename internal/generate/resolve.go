package generate

import (
	"context"

	"github.com/xgx-io/xgx-errchain/internal/diag"
)

// Resolution is the YAML report of one package's resolved selections.
type Resolution struct {
	Dir     string           `yaml:"dir"`
	Package string           `yaml:"package"`
	Types   []TypeResolution `yaml:"types,omitempty"`
}

// TypeResolution lists the selection of every variant of one type.
type TypeResolution struct {
	Name     string              `yaml:"name"`
	Shape    string              `yaml:"shape"`
	Pos      string              `yaml:"pos"`
	Variants []VariantResolution `yaml:"variants"`
}

// VariantResolution is one variant's cause, if any.
type VariantResolution struct {
	Name     string `yaml:"name"`
	Cause    string `yaml:"cause"` // field label, or "none"
	Type     string `yaml:"type,omitempty"`
	Strategy string `yaml:"strategy,omitempty"`
}

// Resolve scans dir and reports what the walker selects for each marked type
// without synthesizing or rendering anything.
func (g *Generator) Resolve(ctx context.Context, dir string) (*Resolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pkg, err := g.scanner.ScanDir(dir)
	if err != nil {
		return nil, err
	}
	res := &Resolution{Dir: dir, Package: pkg.Name}
	var errs []error
	for _, ts := range pkg.Schemas {
		vs, err := g.engine.Resolve(ts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		tr := TypeResolution{Name: ts.Name, Shape: ts.Shape.String(), Pos: ts.Pos.String(), Variants: []VariantResolution{}}
		for _, v := range vs {
			vr := VariantResolution{Name: v.Shape.Name, Cause: "none"}
			if f, st, ok := v.Field(); ok {
				vr.Cause, vr.Type, vr.Strategy = f.Label(), f.Type, st.String()
			}
			tr.Variants = append(tr.Variants, vr)
		}
		res.Types = append(res.Types, tr)
	}
	if err := diag.Join(errs...); err != nil {
		return nil, err
	}
	return res, nil
}

