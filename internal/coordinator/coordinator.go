// Package coordinator turns eligible files into per-file outcomes.
//
// # Architecture Overview
//
// Each eligible file passes through a fixed sequence of checks and produces
// exactly one types.Outcome, whatever happens to it:
//
//	size ceiling ──► cache lookup ──► guarded read ──► normalize ──► min lines
//	     │                │                 │                            │
//	 Skipped{size}   Success(lines)   TimedOut / Error            Skipped{lines}
//
// # Concurrency Model
//
// Small inputs (at most ParallelThreshold files) are processed sequentially on
// the calling goroutine. Larger inputs use a fixed worker pool:
//
//  1. WORKER GOROUTINES (fixed pool)
//     - min(NumCPU, MaxWorkers, len(files)) workers consume jobCh
//     - A panic while handling a file becomes an Error outcome for that file
//
//  2. FEEDER GOROUTINE
//     - Queues every file, then closes jobCh
//
//  3. COLLECTOR (main goroutine)
//     - Drains resultsCh until workers finish; outcomes arrive in completion order
//
// # Synchronization Primitives
//
//	┌─────────────────┬────────────────────────────────────────────────┐
//	│ Primitive       │ Purpose                                        │
//	├─────────────────┼────────────────────────────────────────────────┤
//	│ jobCh           │ Buffered channel of files to process           │
//	│ resultsCh       │ Buffered channel of outcomes (fan-in)          │
//	│ workerWg        │ Signals worker pool completion                 │
//	│ atomic counters │ Lock-free stats updates from any worker        │
//	└─────────────────┴────────────────────────────────────────────────┘
//
// A read that exceeds its budget is abandoned by the reader's watchdog, so a
// stuck file costs one worker at most Reader.Budget() before it moves on.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ivoronin/repolizer/internal/cache"
	"github.com/ivoronin/repolizer/internal/progress"
	"github.com/ivoronin/repolizer/internal/reader"
	"github.com/ivoronin/repolizer/internal/types"
)

// Options configure a Coordinator.
type Options struct {
	Reader            *reader.Reader // Guarded reader (nil = unguarded os.ReadFile)
	Cache             *cache.Cache   // Optional normalized-lines cache (nil = disabled)
	MaxFileSize       int64          // Files larger than this are skipped (0 = no limit)
	MinLines          int            // Files with fewer normalized lines are skipped
	MaxWorkers        int            // Upper bound on the worker pool
	ParallelThreshold int            // Inputs up to this size run sequentially
	ShowProgress      bool           // Whether to display a progress bar
}

// stats tracks coordination progress.
type stats struct {
	total     int
	done      atomic.Int64
	readBytes atomic.Uint64
	cached    atomic.Int64
	skipped   atomic.Int64
	timedOut  atomic.Int64
	errored   atomic.Int64
	startTime time.Time
}

func (s *stats) String() string {
	return fmt.Sprintf("Read %d/%d files (%s), cached %d, skipped %d, timed out %d, errors %d in %.1fs",
		s.done.Load(), s.total, humanize.IBytes(s.readBytes.Load()), s.cached.Load(),
		s.skipped.Load(), s.timedOut.Load(), s.errored.Load(), time.Since(s.startTime).Seconds())
}

// Coordinator reads eligible files and produces one outcome per file.
//
// The coordinator is designed for single-use: create with New(), call Run() once.
type Coordinator struct {
	// Config (immutable, set by New)
	files []*types.FileInfo
	opts  Options
	errCh chan error // Timeouts and read failures, for logging

	// Runtime (initialized in Run)
	stats *stats
	bar   *progress.Bar
}

// New creates a Coordinator for the given files.
func New(files []*types.FileInfo, opts Options, errCh chan error) *Coordinator {
	if opts.Reader == nil {
		opts.Reader = reader.New(0, nil)
	}
	return &Coordinator{files: files, opts: opts, errCh: errCh}
}

// Workers returns the size of the pool Run will use, 0 meaning sequential.
func (c *Coordinator) Workers() int {
	n := len(c.files)
	if n <= c.opts.ParallelThreshold {
		return 0
	}
	return max(min(runtime.NumCPU(), c.opts.MaxWorkers, n), 1)
}

// Run processes every file and returns the outcomes.
//
// Coordination sequence (parallel mode):
//  1. Start N worker goroutines (consume jobCh)
//  2. Goroutine: queue every file, close jobCh
//  3. Goroutine: wait for workers, close resultsCh
//  4. Collect outcomes from resultsCh
func (c *Coordinator) Run(ctx context.Context) []types.Outcome {
	c.bar = progress.New(progress.Output(c.opts.ShowProgress), int64(len(c.files)))
	c.stats = &stats{total: len(c.files), startTime: time.Now()}
	c.bar.Describe(c.stats)

	outcomes := make([]types.Outcome, 0, len(c.files))
	workers := c.Workers()

	if workers == 0 {
		for _, fi := range c.files {
			outcomes = append(outcomes, c.safeProcess(ctx, fi))
		}
		c.bar.Finish(c.stats)
		return outcomes
	}

	jobCh := make(chan *types.FileInfo, len(c.files))
	resultsCh := make(chan types.Outcome, 100)
	var workerWg sync.WaitGroup

	for i := 0; i < workers; i++ {
		workerWg.Add(1)
		go func() {
			defer workerWg.Done()
			for fi := range jobCh {
				resultsCh <- c.safeProcess(ctx, fi)
			}
		}()
	}

	go func() {
		for _, fi := range c.files {
			jobCh <- fi
		}
		close(jobCh)
	}()

	go func() {
		workerWg.Wait()
		close(resultsCh)
	}()

	for o := range resultsCh {
		outcomes = append(outcomes, o)
	}

	c.bar.Finish(c.stats)
	return outcomes
}

// safeProcess wraps process so that a panic yields an Error outcome for the file.
func (c *Coordinator) safeProcess(ctx context.Context, fi *types.FileInfo) (out types.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = types.Failed(fi, fmt.Errorf("panic: %v", r))
			c.sendError(fmt.Errorf("%s: panic: %v", fi.Path, r))
		}
		c.record(out)
	}()
	return c.process(ctx, fi)
}

// process applies the per-file checks in order.
func (c *Coordinator) process(ctx context.Context, fi *types.FileInfo) types.Outcome {
	if err := ctx.Err(); err != nil {
		return types.Failed(fi, err)
	}

	if c.opts.MaxFileSize > 0 && fi.Size > c.opts.MaxFileSize {
		return types.Skipped(fi, types.SkipSize)
	}

	lines, hit, err := c.opts.Cache.Lookup(fi)
	if err != nil {
		c.sendError(err)
	}
	if hit {
		c.stats.cached.Add(1)
	} else {
		lines, err = c.opts.Reader.Lines(ctx, fi.Path)
		switch {
		case errors.Is(err, reader.ErrTimedOut):
			c.sendError(err)
			return types.TimedOut(fi)
		case err != nil:
			if ctx.Err() == nil {
				c.sendError(err)
			}
			return types.Failed(fi, err)
		}
		c.stats.readBytes.Add(uint64(fi.Size))

		if err := c.opts.Cache.Store(fi, lines); err != nil {
			c.sendError(err)
		}
	}

	if len(lines) < c.opts.MinLines {
		return types.Skipped(fi, types.SkipLines)
	}
	return types.Success(fi, lines)
}

// record updates counters for a finished outcome.
func (c *Coordinator) record(o types.Outcome) {
	c.stats.done.Add(1)
	switch o.Kind {
	case types.OutcomeSkipped:
		c.stats.skipped.Add(1)
	case types.OutcomeTimedOut:
		c.stats.timedOut.Add(1)
	case types.OutcomeError:
		c.stats.errored.Add(1)
	}
	c.bar.Add(1)
	c.bar.Describe(c.stats)
}

// sendError sends an error to the errors channel if it's not nil.
func (c *Coordinator) sendError(err error) {
	if c.errCh != nil {
		c.errCh <- err
	}
}
