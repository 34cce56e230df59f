package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ivoronin/repolizer/internal/check"
	"github.com/ivoronin/repolizer/internal/report"
)

// newCheckCmd creates the check subcommand, which runs every registered check.
func newCheckCmd() *cobra.Command {
	opts := &analysisOptions{}

	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Run all repository checks and print their envelopes as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, rootPath(args), opts)
		},
	}

	bindAnalysisFlags(cmd, opts)
	return cmd
}

func runCheck(cmd *cobra.Command, path string, opts *analysisOptions) error {
	dupOpts, closeCache, err := buildOptions(cmd, opts)
	if err != nil {
		return err
	}
	defer closeCache()

	registry := check.NewRegistry()
	if err := registry.Register(check.NewDuplicationCheck(dupOpts)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	repo := check.Repository{Name: filepath.Base(path), LocalPath: path}
	if abs, err := filepath.Abs(path); err == nil {
		repo.Name = filepath.Base(abs)
	}

	results := registry.RunAll(ctx, repo)
	if err := report.JSON(cmd.OutOrStdout(), results); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	for _, env := range results {
		if env.Status == check.StatusFailed {
			return errCheckFailed
		}
	}
	return nil
}
