// Package duplication measures how much of a repository's source code is
// repeated verbatim, per language.
//
// # Pipeline
//
//	Analyze(root)
//	    │
//	    ├──► scanner: walk root, prune excluded dirs, classify by extension
//	    │
//	    ├──► coordinator: size ceiling, guarded read, normalize → one Outcome per file
//	    │
//	    ├──► barrier: every dispatched file is accounted for
//	    │
//	    └──► Aggregate: language buckets → fingerprint index → counts, exemplars, score
//
// Per-file problems (oversized, too short, timed out, unreadable) are counted
// and logged but never fail the run. Only a run-level failure, such as a root
// that cannot be listed once the walk has started, is returned as an error.
package duplication

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/ivoronin/repolizer/internal/coordinator"
	"github.com/ivoronin/repolizer/internal/reader"
	"github.com/ivoronin/repolizer/internal/scanner"
)

// Analyze runs a duplication analysis of the directory tree at root.
//
// A root that does not exist or is not a directory yields an empty result
// and a logged warning, not an error.
func Analyze(ctx context.Context, root string, opts Options) (*Result, error) {
	start := time.Now()
	log := opts.logger()

	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		log.Warn("repository path is not a directory, nothing to analyze", "path", root, "error", err)
		res := NewResult()
		res.DurationMS = time.Since(start).Milliseconds()
		return res, nil
	}

	errCh := make(chan error, 100)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		logErrors(log, errCh)
	}()

	files, err := scanner.New([]string{root}, opts.ExcludeDirs, opts.Excludes,
		opts.MaxWorkers, opts.ShowProgress, errCh).Run(ctx)
	if err != nil {
		close(errCh)
		<-drained
		return nil, err
	}
	rd := reader.New(opts.Timeout, opts.ReadFunc)
	log.Debug("scan complete", "root", root, "files", len(files), "read_budget", rd.Budget())

	outcomes := coordinator.New(files, coordinator.Options{
		Reader:            rd,
		Cache:             opts.Cache,
		MaxFileSize:       opts.MaxFileSize,
		MinLines:          opts.window(),
		MaxWorkers:        opts.MaxWorkers,
		ParallelThreshold: opts.ParallelThreshold,
		ShowProgress:      opts.ShowProgress,
	}, errCh).Run(ctx)

	close(errCh)
	<-drained

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := Aggregate(outcomes, opts)
	res.FilesScanned = len(files)
	res.DurationMS = time.Since(start).Milliseconds()

	log.Info("duplication analysis complete",
		"root", root,
		"files_checked", res.FilesChecked,
		"files_skipped", res.FilesSkipped,
		"files_timed_out", res.FilesTimedOut,
		"duplicate_lines", res.DuplicateLines,
		"percentage", res.DuplicationPercentage,
		"score", res.DuplicationScore,
	)
	return res, nil
}

// logErrors drains non-fatal errors published by the pipeline stages.
func logErrors(log *slog.Logger, errCh <-chan error) {
	for err := range errCh {
		var te *reader.TimeoutError
		if errors.As(err, &te) {
			log.Warn("file read timed out", "path", te.Path, "budget", te.Budget)
			continue
		}
		log.Warn("file skipped", "error", err)
	}
}
