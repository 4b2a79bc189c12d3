package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/xgx-io/xgx-errchain/internal/diag"
	"github.com/xgx-io/xgx-errchain/internal/generate"
	"github.com/xgx-io/xgx-errchain/internal/watch"
)

func newGenerateCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "generate [dir...]",
		Short: "Write the generated file of each package",
		Long: `Scans each directory (default ".") and writes its generated file when the
contents change. A trailing /... also visits every subdirectory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := generate.Write
			if dryRun {
				mode = generate.DryRun
			}
			return a.run(cmd, args, mode)
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print generated files instead of writing them")
	return cmd
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [dir...]",
		Short: "Fail if any generated file is out of date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, args, generate.Check)
		},
	}
}

func (a *app) run(cmd *cobra.Command, args []string, mode generate.Mode) error {
	dirs, err := expandDirs(args)
	if err != nil {
		return err
	}
	g := generate.New(a.cfg, a.logger)
	results, err := g.Run(cmd.Context(), dirs, mode)

	out := cmd.OutOrStdout()
	for _, r := range results {
		switch {
		case mode == generate.DryRun && r.Source != nil:
			fmt.Fprintf(out, "// ==> %s\n", r.Path)
			out.Write(r.Source)
		case mode == generate.Write && r.Changed:
			fmt.Fprintln(out, r.Path)
		}
	}
	return err
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir...]",
		Short: "Regenerate packages whenever their sources change",
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs, err := expandDirs(args)
			if err != nil {
				return err
			}
			g := generate.New(a.cfg, a.logger)
			if _, err := g.Run(cmd.Context(), dirs, generate.Write); err != nil {
				report(a.stderr, err, a.verbose, colorEnabled(os.Stderr))
			}

			debounce, err := a.cfg.DebounceDuration()
			if err != nil {
				return err
			}
			regen := func(ctx context.Context, dir string) error {
				_, err := g.Package(ctx, dir, generate.Write)
				if err != nil {
					report(a.stderr, err, a.verbose, colorEnabled(os.Stderr))
				}
				return err
			}
			w, err := watch.New(dirs, regen, watch.Options{
				Debounce: debounce,
				Ignore:   a.isOutput,
			}, a.logger)
			if err != nil {
				return err
			}
			if err := w.Start(cmd.Context()); err != nil {
				w.Stop()
				return err
			}
			a.logger.Info("watching", zap.Strings("dirs", dirs))
			<-w.Done()
			w.Stop()
			return nil
		},
	}
}

// isOutput reports whether a file base name is generated output.
func (a *app) isOutput(name string) bool {
	if a.cfg.Output != "" {
		return name == a.cfg.Output
	}
	return strings.HasSuffix(name, "_errchain.go")
}

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [dir...]",
		Short: "Print the cause field selected for every variant, as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs, err := expandDirs(args)
			if err != nil {
				return err
			}
			g := generate.New(a.cfg, a.logger)
			var (
				reports []*generate.Resolution
				errs    []error
			)
			for _, dir := range dirs {
				r, err := g.Resolve(cmd.Context(), dir)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				if len(r.Types) > 0 {
					reports = append(reports, r)
				}
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(reports); err != nil {
				return err
			}
			if err := enc.Close(); err != nil {
				return err
			}
			return diag.Join(errs...)
		},
	}
}

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <file>",
		Short: "Generate from a YAML type description and print the result",
		Long:  `Reads a YAML description ("-" for stdin) and writes the generated Go file to stdout.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				r    io.Reader
				name = args[0]
			)
			if name == "-" {
				r, name = cmd.InOrStdin(), "<stdin>"
			} else {
				f, err := os.Open(name)
				if err != nil {
					return diag.IO("open", name, err)
				}
				defer f.Close()
				r = f
			}
			src, err := generate.New(a.cfg, a.logger).Description(r, name)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(src)
			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			v := version
			if info, ok := debug.ReadBuildInfo(); ok && v == "dev" && info.Main.Version != "" {
				v = info.Main.Version
			}
			fmt.Fprintf(cmd.OutOrStdout(), "errchain %s\n", v)
		},
	}
}

// expandDirs turns arguments into package directories. No arguments means
// ".", and "dir/..." means dir and every subdirectory holding Go files.
func expandDirs(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	var dirs []string
	seen := map[string]bool{}
	add := func(d string) {
		d = filepath.Clean(d)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	for _, arg := range args {
		base, recursive := strings.CutSuffix(filepath.ToSlash(arg), "/...")
		if arg == "..." {
			base, recursive = ".", true
		}
		base = filepath.FromSlash(base)
		fi, err := os.Stat(base)
		if err != nil {
			return nil, diag.IO("stat", base, err)
		}
		if !fi.IsDir() {
			return nil, diag.IO("stat", base, fmt.Errorf("not a directory"))
		}
		if !recursive {
			add(base)
			continue
		}
		err = filepath.WalkDir(base, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			name := d.Name()
			if path != base && (name == "testdata" || name == "vendor" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			if hasGoFiles(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, diag.IO("walk", base, err)
		}
	}
	return dirs, nil
}

func hasGoFiles(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".go") {
			return true
		}
	}
	return false
}
