package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ivoronin/repolizer/internal/cache"
	"github.com/ivoronin/repolizer/internal/check"
	"github.com/ivoronin/repolizer/internal/config"
	"github.com/ivoronin/repolizer/internal/duplication"
	"github.com/ivoronin/repolizer/internal/report"
)

// analysisOptions holds CLI flags shared by the duplication and check commands.
type analysisOptions struct {
	timeout    int
	maxSizeStr string
	minBlock   int
	excludes   []string
	workers    int
	cacheFile  string
	configPath string
	noProgress bool
	verbose    bool
}

// duplicationOptions holds CLI flags for the duplication command.
type duplicationOptions struct {
	analysisOptions
	format string
}

func bindAnalysisFlags(cmd *cobra.Command, opts *analysisOptions) {
	cmd.Flags().IntVar(&opts.timeout, "timeout", int(duplication.DefaultTimeout.Seconds()), "Per-file read timeout in seconds (0 disables)")
	cmd.Flags().StringVar(&opts.maxSizeStr, "max-size", "1MiB", "Skip files larger than this (e.g., 500K, 1MiB)")
	cmd.Flags().IntVar(&opts.minBlock, "min-block", duplication.DefaultMinBlockSize, "Minimum duplicate block size in non-blank lines")
	cmd.Flags().StringSliceVarP(&opts.excludes, "exclude", "e", nil, "Glob patterns to exclude (doublestar syntax)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", duplication.DefaultMaxWorkers, "Maximum number of parallel workers")
	cmd.Flags().StringVar(&opts.cacheFile, "cache-file", "", "Path to lines cache file (enables caching)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to YAML configuration file")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Disable progress output")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
}

// newDuplicationCmd creates the duplication subcommand.
func newDuplicationCmd() *cobra.Command {
	opts := &duplicationOptions{format: "text"}

	cmd := &cobra.Command{
		Use:   "duplication [path]",
		Short: "Measure verbatim code duplication",
		Long: `Walks the repository, fingerprints every window of --min-block consecutive
non-blank lines per language, and reports how many lines repeat code found elsewhere.

The score runs from 1 (40% or more duplicated) to 100 (no duplication).
Exit status is 1 if the analysis fails.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDuplication(cmd, rootPath(args), opts)
		},
	}

	bindAnalysisFlags(cmd, &opts.analysisOptions)
	cmd.Flags().StringVar(&opts.format, "format", opts.format, "Output format: text or json")

	return cmd
}

func rootPath(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

// runDuplication executes the duplication check and renders its envelope.
func runDuplication(cmd *cobra.Command, path string, opts *duplicationOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("invalid --format %q: must be text or json", opts.format)
	}

	dupOpts, closeCache, err := buildOptions(cmd, &opts.analysisOptions)
	if err != nil {
		return err
	}
	defer closeCache()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	env := check.NewDuplicationCheck(dupOpts).Run(ctx, check.Repository{LocalPath: path})

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		if err := report.JSON(out, env); err != nil {
			return err
		}
	} else if err := renderText(out, cmd.ErrOrStderr(), env); err != nil {
		return err
	}

	if env.Status == check.StatusFailed {
		return errCheckFailed
	}
	return nil
}

func renderText(out, errOut io.Writer, env check.Envelope) error {
	if env.Status == check.StatusFailed {
		msg := "unknown error"
		if env.Errors != nil {
			msg = *env.Errors
		}
		_, err := fmt.Fprintf(errOut, "%s %s\n", color.New(color.FgRed, color.Bold).Sprint("failed:"), msg)
		return err
	}
	res, ok := env.Result.(*duplication.Result)
	if !ok {
		return fmt.Errorf("unexpected result type %T", env.Result)
	}
	return report.Text(out, res, report.DefaultTheme)
}

// buildOptions merges the config file with explicitly set flags and opens the cache.
// The returned close function is always safe to call.
func buildOptions(cmd *cobra.Command, opts *analysisOptions) (duplication.Options, func(), error) {
	noop := func() {}

	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return duplication.Options{}, noop, err
		}
		cfg = loaded
	}

	if err := applyFlags(cmd, opts, &cfg.Duplication); err != nil {
		return duplication.Options{}, noop, err
	}

	dupOpts, err := cfg.Options()
	if err != nil {
		return duplication.Options{}, noop, fmt.Errorf("invalid configuration: %w", err)
	}

	linesCache, err := cache.Open(cfg.Duplication.CacheFile)
	if err != nil {
		return duplication.Options{}, noop, fmt.Errorf("open cache: %w", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), opts.verbose)
	dupOpts.Cache = linesCache
	dupOpts.Logger = logger
	dupOpts.ShowProgress = !opts.noProgress

	return dupOpts, func() {
		if err := linesCache.Close(); err != nil {
			logger.Warn("closing cache", "error", err)
		}
	}, nil
}

// applyFlags overrides config values with flags the user set explicitly.
func applyFlags(cmd *cobra.Command, opts *analysisOptions, d *config.DuplicationConfig) error {
	flags := cmd.Flags()

	if flags.Changed("timeout") {
		if opts.timeout < 0 {
			return fmt.Errorf("invalid --timeout: must not be negative, got %d", opts.timeout)
		}
		d.Timeout = fmt.Sprintf("%ds", opts.timeout)
	}
	if flags.Changed("max-size") {
		if _, err := parseSize(opts.maxSizeStr); err != nil {
			return fmt.Errorf("invalid --max-size: %w", err)
		}
		d.MaxFileSize = opts.maxSizeStr
	}
	if flags.Changed("min-block") {
		d.MinBlockSize = opts.minBlock
	}
	if flags.Changed("exclude") {
		if err := validateGlobPatterns(opts.excludes); err != nil {
			return fmt.Errorf("invalid --exclude: %w", err)
		}
		d.Exclude = append(d.Exclude, opts.excludes...)
	}
	if flags.Changed("workers") {
		d.MaxWorkers = opts.workers
	}
	if flags.Changed("cache-file") {
		d.CacheFile = opts.cacheFile
	}
	return nil
}
