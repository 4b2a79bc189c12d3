// Command errchain generates Unwrap methods for error types marked with
// //errchain:derive.
//
//	//go:generate go run github.com/xgx-io/xgx-errchain/cmd/errchain generate
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xgx-io/xgx-errchain/internal/config"
	"github.com/xgx-io/xgx-errchain/internal/logging"
)

// version is set at link time.
var version = "dev"

// app is the state shared by all subcommands of one invocation.
type app struct {
	// Global flags
	configPath string
	verbose    bool
	tag        string
	output     string
	jobs       int

	cfg    *config.Config
	logger *zap.Logger
	stderr io.Writer
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "errchain",
		Short: "Derive Unwrap methods for error chains",
		Long: `errchain reads Go packages, finds types marked with //errchain:derive,
and writes <package>_errchain.go with an Unwrap method for each of them.

A struct field tagged error:"source" is the cause; error:"defer" reports the
field's own cause instead. A sealed interface marks a union whose variants are
the structs implementing it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.FileName, "Config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging and diagnostics")
	root.PersistentFlags().StringVar(&a.tag, "tag", "", "Struct tag key marking cause fields (default from config: error)")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "", "Generated file name (default <package>_errchain.go)")
	root.PersistentFlags().IntVarP(&a.jobs, "jobs", "j", 0, "Packages generated concurrently (default NumCPU)")

	root.AddCommand(
		newGenerateCmd(a),
		newCheckCmd(a),
		newWatchCmd(a),
		newResolveCmd(a),
		newSchemaCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads config, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("tag") {
		cfg.Tag = a.tag
	}
	if flags.Changed("output") {
		cfg.Output = a.output
	}
	if flags.Changed("jobs") {
		cfg.Jobs = a.jobs
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(logging.FromConfig(cfg.Logging, a.verbose))
	if err != nil {
		return err
	}
	a.logger = logger
	a.logger.Debug("config loaded",
		zap.String("path", a.configPath),
		zap.String("tag", cfg.Tag),
		zap.Int("jobs", cfg.Jobs))
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{stderr: os.Stderr}
	root := newRootCmd(a)
	if err := root.ExecuteContext(ctx); err != nil {
		report(a.stderr, err, a.verbose, colorEnabled(os.Stderr))
		stop()
		os.Exit(1)
	}
}
