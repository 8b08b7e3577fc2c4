package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/goplus/iosbuild/internal/build"
	"github.com/goplus/iosbuild/internal/config"
	"github.com/goplus/iosbuild/internal/logging"
	"github.com/goplus/iosbuild/internal/runner"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Exit codes returned by iosbuild.
const (
	ExitSuccess = 0
	// ExitFailure reports a failed build, merge or configuration load.
	ExitFailure = 1
	// ExitUsage reports invalid flags or arguments.
	ExitUsage = 2
)

const bannerWidth = 60

type options struct {
	configuration    config.Configuration
	bitcode          bool
	deploymentTarget string
	recipePath       string
	sourceRoot       string
	toolchain        string
	verbose          bool
}

// app holds what a command run needs from its environment.
type app struct {
	stdout    io.Writer
	stderr    io.Writer
	newRunner func(log zerolog.Logger) runner.Runner
}

// runError marks errors raised after the arguments were accepted.
type runError struct{ err error }

func (e *runError) Error() string { return e.err.Error() }
func (e *runError) Unwrap() error { return e.err }

func newRootCmd(a *app) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "iosbuild <out_dir>",
		Short: "Build the Avro C library and Jansson as a universal iOS framework",
		Long: `iosbuild cross-compiles Jansson and the Avro C library for the iOS simulator
and device with CMake and the ios-cmake toolchain, merges the static libraries of
each platform with libtool and combines them with lipo into <out_dir>/avro.framework.`,
		Example: strings.TrimSpace(`
  iosbuild out --configuration Release
  iosbuild out --configuration Debug --enable-bitcode --deployment_target 12.0
  iosbuild out --config recipe.toml --source-root ~/src/avro`),
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, opts, args[0])
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	flags := cmd.Flags()
	flags.Var(&opts.configuration, "configuration", "configuration to build (Debug, Release)")
	flags.BoolVar(&opts.bitcode, "enable-bitcode", false, "enable bitcode (disabled by default)")
	flags.StringVar(&opts.deploymentTarget, "deployment_target", config.DefaultDeploymentTargetFromEnv(), "deployment target")
	flags.StringVar(&opts.recipePath, "config", "", "recipe file listing the libraries to build (TOML)")
	flags.StringVar(&opts.sourceRoot, "source-root", ".", "directory library sources and the toolchain are resolved against")
	flags.StringVar(&opts.toolchain, "toolchain", "", "ios-cmake toolchain file, relative to the working directory (default <source-root>/"+config.DefaultToolchain+")")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}

func (a *app) run(cmd *cobra.Command, opts *options, outDir string) error {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	recipe := config.DefaultRecipe()
	if opts.recipePath != "" {
		r, err := config.LoadRecipe(opts.recipePath)
		if err != nil {
			return &runError{fmt.Errorf("load recipe: %w", err)}
		}
		recipe = r
	}
	if err := applyRecipeDefaults(opts, recipe, changed); err != nil {
		return &runError{err}
	}
	if opts.configuration == "" {
		return errors.New(`required flag "configuration" not set`)
	}

	cfg, err := config.NewBuildConfig(opts.configuration, opts.bitcode, opts.deploymentTarget)
	if err != nil {
		return &runError{err}
	}

	log := logging.New(a.stderr, opts.verbose)
	// An explicit --toolchain is relative to the working directory, the
	// recipe's to the source root.
	toolchain := recipe.Toolchain
	if opts.toolchain != "" {
		abs, err := filepath.Abs(opts.toolchain)
		if err != nil {
			return &runError{err}
		}
		toolchain = abs
	}
	b, err := build.NewBuilder(build.Options{
		Config:     cfg,
		SourceRoot: opts.sourceRoot,
		Toolchain:  toolchain,
		BundleID:   recipe.BundleID,
		Runner:     a.newRunner(log),
		Logger:     log,
	})
	if err != nil {
		return &runError{err}
	}
	log.Info().
		Str("configuration", string(cfg.Configuration())).
		Bool("bitcode", cfg.Bitcode()).
		Str("deployment_target", cfg.DeploymentTarget()).
		Str("out", outDir).
		Msg("building")
	if err := b.Run(cmd.Context(), outDir, recipe); err != nil {
		return &runError{err}
	}
	log.Info().Str("framework", recipe.Merge+".framework").Msg("done")
	return nil
}

// applyRecipeDefaults fills options from the recipe unless the matching flag
// was set explicitly.
func applyRecipeDefaults(opts *options, r config.Recipe, changed map[string]bool) error {
	if r.Configuration != "" && !changed["configuration"] {
		if err := opts.configuration.Set(r.Configuration); err != nil {
			return fmt.Errorf("recipe: %w", err)
		}
	}
	if r.Bitcode != nil && !changed["enable-bitcode"] {
		opts.bitcode = *r.Bitcode
	}
	if r.DeploymentTarget != "" && !changed["deployment_target"] {
		opts.deploymentTarget = r.DeploymentTarget
	}
	return nil
}

// execute runs the command with args and returns the process exit code.
func (a *app) execute(ctx context.Context, args []string) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	var re *runError
	if errors.As(err, &re) {
		printBanner(a.stderr, re.err)
		return ExitFailure
	}
	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	fmt.Fprintln(a.stderr, cmd.UsageString())
	return ExitUsage
}

// printBanner reports err between two rules followed by its unwrap chain.
func printBanner(w io.Writer, err error) {
	rule := strings.Repeat("=", bannerWidth)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "ERROR: %v\n", err)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Trace:")
	for e := err; e != nil; e = errors.Unwrap(e) {
		fmt.Fprintf(w, "  %T: %v\n", e, e)
		if cmdErr, ok := e.(*runner.CommandError); ok {
			fmt.Fprintf(w, "    command: %s\n", cmdErr.Cmd)
			if cmdErr.Cmd.Dir != "" {
				fmt.Fprintf(w, "    dir: %s\n", cmdErr.Cmd.Dir)
			}
			if cmdErr.ExitCode >= 0 {
				fmt.Fprintf(w, "    exit status: %d\n", cmdErr.ExitCode)
			}
		}
	}
}

// Execute runs iosbuild with the process arguments and exits with its
// status. This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		newRunner: func(log zerolog.Logger) runner.Runner {
			return runner.NewExec(log)
		},
	}
	code := a.execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
