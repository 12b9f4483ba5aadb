package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/kr/pretty"
	"github.com/spf13/cobra"
	"github.com/vito/tiny/pkg/ast"
	"github.com/vito/tiny/pkg/ioctx"
	"github.com/vito/tiny/pkg/tiny"
)

// Config holds the application configuration
type Config struct {
	Debug      bool
	Trace      bool
	Dump       bool
	NoCache    bool
	ClearCache bool
	Example    string
	File       string
}

func main() {
	var cfg Config

	// Create the root command
	rootCmd := &cobra.Command{
		Use:   "tiny [flags] [tree.yaml]",
		Short: "Resolve, compile and run let-expressions",
		Long: `tiny evaluates arithmetic let-expressions by resolving names to stack
offsets, compiling the result to bytecode and running it on a stack machine.

Trees are written in YAML:

  let: x
  be: 11
  in: {mul: [x, 3]}`,
		Example: `  # Evaluate a tree file
  tiny prog.yaml

  # Run a built-in example with every machine step logged
  tiny --trace --example nested

  # Show the tree, its nameless form and the program
  tiny --dump prog.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Handle cache clearing first
			if cfg.ClearCache {
				return clearCache(cmd.Context())
			}

			if len(args) == 1 {
				cfg.File = args[0]
			}
			if cfg.File == "" && cfg.Example == "" {
				return cmd.Help()
			}
			return run(cmd.Context(), cfg)
		},
	}

	// Add flags
	rootCmd.PersistentFlags().BoolVarP(&cfg.Debug, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&cfg.Trace, "trace", false, "Log every machine step (implies --debug)")
	rootCmd.PersistentFlags().BoolVar(&cfg.NoCache, "no-cache", false, "Do not read or write the bytecode cache")
	rootCmd.Flags().BoolVar(&cfg.Dump, "dump", false, "Print the tree, nameless tree and program before running")
	rootCmd.Flags().BoolVar(&cfg.ClearCache, "clear-cache", false, "Clear the bytecode cache and exit")
	rootCmd.Flags().StringVar(&cfg.Example, "example", "", "Run a built-in example instead of a file")

	rootCmd.AddCommand(runCmd(&cfg))
	rootCmd.AddCommand(examplesCmd())
	rootCmd.AddCommand(disasmCmd(&cfg))

	// Use fang for styled execution with enhanced features
	ctx := context.Background()
	ctx = ioctx.StdoutToContext(ctx, os.Stdout)
	if err := fang.Execute(ctx, rootCmd,
		fang.WithVersion("v0.1.0"),
		fang.WithCommit("dev"),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, err.Error())
		}),
	); err != nil {
		os.Exit(1)
	}
}

func runCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] [tree.yaml]",
		Short: "Evaluate a tree file or a built-in example",
		Example: `  tiny run prog.yaml
  tiny run --example shadow`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.File = args[0]
			}
			if cfg.File == "" && cfg.Example == "" {
				return fmt.Errorf("a tree file or --example is required")
			}
			return run(cmd.Context(), *cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.Dump, "dump", false, "Print the tree, nameless tree and program before running")
	cmd.Flags().StringVar(&cfg.Example, "example", "", "Run a built-in example instead of a file")

	return cmd
}

func disasmCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disasm [flags] [tree.yaml]",
		Short: "Print the program compiled from a tree",
		Example: `  tiny disasm prog.yaml
  tiny disasm --example nested`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.File = args[0]
			}
			if cfg.File == "" && cfg.Example == "" {
				return fmt.Errorf("a tree file or --example is required")
			}
			return disasm(cmd.Context(), *cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.Example, "example", "", "Disassemble a built-in example instead of a file")

	return cmd
}

func examplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "List the built-in examples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listExamples(ioctx.StdoutFromContext(cmd.Context()))
			return nil
		},
	}
}

func setupLogging(ctx context.Context, debug bool) context.Context {
	// Set up slog with appropriate level
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	return ioctx.LoggerToContext(ctx, logger)
}

func run(ctx context.Context, cfg Config) error {
	project, err := loadProject(ctx)
	if err != nil {
		return err
	}
	ctx = setupLogging(ctx, cfg.Debug || cfg.Trace || project.Trace)
	stdout := ioctx.StdoutFromContext(ctx)

	expr, source, err := loadExpr(cfg)
	if err != nil {
		return err
	}

	ev, closeCache := newEvaluator(ctx, cfg, project)
	defer closeCache()

	if missing := missingBindings(expr, ev.Bindings); len(missing) > 0 {
		slog.WarnContext(ctx, "expression has unbound variables",
			"names", missing,
			"hint", "bind them in tiny.toml or with TINY_BINDING_<NAME>")
	}

	if cfg.Dump {
		// a cached program has no nameless tree to show
		ev.Cache = nil
	}

	res, err := ev.Evaluate(ctx, expr)
	if err != nil {
		return tiny.WithSource(err, source)
	}

	if cfg.Dump {
		_, _ = pretty.Fprintf(stdout, "%# v\n", res.Expr)
		fmt.Fprintln(stdout, res.Expr)
		fmt.Fprintf(stdout, "depth %d, %d instructions\n", ast.Depth(res.Expr), len(res.Program))
		fmt.Fprintln(stdout, res.Nameless)
		fmt.Fprint(stdout, res.Program)
	}

	fmt.Fprintln(stdout, res.Stack)
	return nil
}

func disasm(ctx context.Context, cfg Config) error {
	project, err := loadProject(ctx)
	if err != nil {
		return err
	}
	ctx = setupLogging(ctx, cfg.Debug || cfg.Trace || project.Trace)

	expr, source, err := loadExpr(cfg)
	if err != nil {
		return err
	}

	ev, closeCache := newEvaluator(ctx, cfg, project)
	defer closeCache()

	_, prog, _, err := ev.Compile(ctx, expr)
	if err != nil {
		return tiny.WithSource(err, source)
	}

	fmt.Fprint(ioctx.StdoutFromContext(ctx), prog)
	return nil
}

func clearCache(ctx context.Context) error {
	project, err := loadProject(ctx)
	if err != nil {
		return err
	}
	if err := tiny.ClearCache(project.CacheDirectory()); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Fprintln(ioctx.StdoutFromContext(ctx), "Bytecode cache cleared successfully")
	return nil
}

// loadExpr returns the tree to run and the source it was read from, if any.
func loadExpr(cfg Config) (ast.Expr, string, error) {
	if cfg.Example != "" {
		if cfg.File != "" {
			return nil, "", fmt.Errorf("cannot use --example with a tree file")
		}
		ex, ok := tiny.LookupExample(cfg.Example)
		if !ok {
			return nil, "", fmt.Errorf("unknown example %q (see `tiny examples`)", cfg.Example)
		}
		return ex.Expr, "", nil
	}

	expr, source, err := tiny.LoadExprFile(cfg.File)
	if err != nil {
		return nil, "", tiny.WithSource(err, source)
	}
	return expr, source, nil
}

// loadProject finds tiny.toml above the working directory and applies
// environment overrides.
func loadProject(ctx context.Context) (*tiny.Config, error) {
	cwd, _ := os.Getwd()
	configPath, project, err := tiny.FindConfig(cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", tiny.ConfigFile, err)
	}
	if project == nil {
		project = tiny.DefaultConfig()
	} else {
		slog.DebugContext(ctx, "loaded project config", "path", configPath)
	}
	if err := project.ApplyEnv(os.Environ()); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	return project, nil
}

func newEvaluator(ctx context.Context, cfg Config, project *tiny.Config) (*tiny.Evaluator, func()) {
	ev := &tiny.Evaluator{
		Bindings: project.BindingList(),
		Trace:    cfg.Trace || project.Trace,
	}

	closeCache := func() {}
	if project.Cache && !cfg.NoCache {
		cache, err := tiny.OpenCache(project.CacheDirectory())
		if err != nil {
			slog.WarnContext(ctx, "bytecode cache unavailable", "error", err)
		} else {
			ev.Cache = cache
			closeCache = func() {
				if err := cache.Close(); err != nil {
					slog.WarnContext(ctx, "failed to close bytecode cache", "error", err)
				}
			}
		}
	}

	return ev, closeCache
}

func missingBindings(expr ast.Expr, bindings tiny.Bindings) []string {
	var missing []string
	for _, name := range ast.FreeVariables(expr) {
		if _, ok := bindings.Lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
