// Package scanner discovers source files eligible for duplication analysis.
//
// # Architecture Overview
//
// The scanner uses a concurrent fan-out/fan-in architecture to traverse
// directory trees while respecting system resource limits. Excluded
// directories (VCS metadata, build output, dependency trees) are pruned before
// they are listed, which bounds the total work on large repositories.
//
// # Concurrency Model
//
// The scanner employs three concurrent components:
//
//  1. WALKER GOROUTINES (fan-out)
//     - One goroutine spawned per directory discovered
//     - Concurrency limited by a weighted semaphore (dirSem)
//     - Each walker: acquires semaphore → lists directory → releases semaphore → spawns child walkers
//
//  2. COLLECTOR GOROUTINE (fan-in)
//     - Single goroutine that drains resultCh into a slice
//     - Drops paths already seen (overlapping roots yield each file once)
//
//  3. MAIN GOROUTINE (orchestrator)
//     - Spawns initial walkers, waits for walkerWg, closes resultCh, waits for collector
//
// # Synchronization Primitives
//
//	┌─────────────────┬────────────────────────────────────────────────┐
//	│ Primitive       │ Purpose                                        │
//	├─────────────────┼────────────────────────────────────────────────┤
//	│ dirSem          │ Limits concurrent directory reads (ctx-aware)  │
//	│ walkerWg        │ Tracks active walker goroutines                │
//	│ collectorWg     │ Signals collector goroutine completion         │
//	│ resultCh        │ Buffered channel for eligible files (fan-in)   │
//	│ atomic counters │ Lock-free stats updates from any goroutine     │
//	└─────────────────┴────────────────────────────────────────────────┘
//
// # Error Policy
//
//   - Entries that cannot be stat'd are skipped silently
//   - Unreadable subdirectories are reported to errCh and skipped
//   - A root directory that cannot be listed fails the run (ErrRootUnreadable)
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/semaphore"

	"github.com/ivoronin/repolizer/internal/language"
	"github.com/ivoronin/repolizer/internal/progress"
	"github.com/ivoronin/repolizer/internal/types"
)

// ErrRootUnreadable is returned when a root directory cannot be listed.
var ErrRootUnreadable = errors.New("root directory unreadable")

// DefaultExcludeDirs are directory names pruned from every walk.
var DefaultExcludeDirs = []string{
	".git", ".hg", ".svn", ".bzr",
	"node_modules", "bower_components", "vendor",
	"dist", "build", "target",
	"__pycache__", ".venv", "venv", ".tox",
	".idea", ".vscode",
}

// Scanner discovers eligible source files using parallel directory traversal.
//
// The scanner is designed for single-use: create with New(), call Run() once.
type Scanner struct {
	// Config (immutable, set by New)
	paths        []string            // Root paths to scan
	excludeDirs  map[string]struct{} // Directory base names to prune
	excludes     []string            // Doublestar globs for paths to skip
	workers      int                 // Max concurrent directory reads
	showProgress bool                // Whether to display progress bar
	errCh        chan error          // Non-fatal errors (permission denied, etc.)

	// Runtime (initialized in Run)
	ctx      context.Context
	walkerWg sync.WaitGroup       // Tracks in-flight walker goroutines
	dirSem   *semaphore.Weighted  // Limits concurrent directory reads
	resultCh chan *types.FileInfo // Fan-in channel: walkers → collector
	stats    *stats               // Atomic counters for progress tracking
	bar      *progress.Bar        // Progress display (thread-safe)
	fatalMu  sync.Mutex
	fatal    error // First run-level error (unreadable root)
}

// New creates a Scanner. excludeDirs are matched against directory base names,
// excludes are doublestar globs matched against root-relative paths and base names.
func New(paths, excludeDirs, excludes []string, workers int, showProgress bool, errCh chan error) *Scanner {
	dirs := make(map[string]struct{}, len(excludeDirs))
	for _, d := range excludeDirs {
		dirs[d] = struct{}{}
	}
	return &Scanner{
		paths:        paths,
		excludeDirs:  dirs,
		excludes:     excludes,
		workers:      max(workers, 1),
		showProgress: showProgress,
		errCh:        errCh,
	}
}

// stats tracks scanning progress using atomic counters for lock-free updates.
type stats struct {
	scannedFiles atomic.Int64 // Regular files seen
	matchedFiles atomic.Int64 // Files with a known language
	matchedBytes atomic.Int64 // Bytes of matched files
	prunedDirs   atomic.Int64 // Directories skipped by exclusion
	startTime    time.Time
}

func (s *stats) String() string {
	return fmt.Sprintf("Scanned %d files, matched %d source files (%s), pruned %d dirs in %.1fs",
		s.scannedFiles.Load(), s.matchedFiles.Load(), humanize.IBytes(uint64(s.matchedBytes.Load())),
		s.prunedDirs.Load(), time.Since(s.startTime).Seconds())
}

// Run executes the scan and returns eligible files sorted by absolute path.
//
// Coordination sequence:
//  1. Start collector goroutine (drains resultCh → results slice, drops repeats)
//  2. Spawn walker for each root path (fan-out begins)
//  3. Wait for all walkers to complete (walkerWg.Wait)
//  4. Close resultCh to signal collector to finish
//  5. Wait for collector to drain remaining items (collectorWg.Wait)
func (s *Scanner) Run(ctx context.Context) ([]*types.FileInfo, error) {
	s.ctx = ctx
	s.dirSem = semaphore.NewWeighted(int64(s.workers))
	s.bar = progress.New(progress.Output(s.showProgress), -1)
	s.stats = &stats{startTime: time.Now()}
	s.bar.Describe(s.stats)
	s.resultCh = make(chan *types.FileInfo, 1000)

	var results []*types.FileInfo
	collectorWg := sync.WaitGroup{}

	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		seen := make(map[string]struct{})
		for f := range s.resultCh {
			if _, dup := seen[f.Path]; dup {
				continue
			}
			seen[f.Path] = struct{}{}
			results = append(results, f)
		}
	}()

	for _, p := range s.paths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			s.setFatal(fmt.Errorf("%w: %s: %v", ErrRootUnreadable, p, err))
			continue
		}
		s.walkDirectory(absPath, absPath)
	}

	s.walkerWg.Wait()
	close(s.resultCh)
	collectorWg.Wait()

	s.bar.Finish(s.stats)

	if s.fatal != nil {
		return nil, s.fatal
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return types.NewFileList(results).Items(), nil
}

// walkDirectory spawns a goroutine to process one directory and recursively spawn children.
//
// walkerWg.Add(1) happens BEFORE the goroutine starts to prevent a race with Wait.
// The semaphore is released after listing but before spawning children so that
// children can acquire it while the parent's results are being sent.
func (s *Scanner) walkDirectory(root, dir string) {
	s.walkerWg.Add(1)
	go func() {
		defer s.walkerWg.Done()

		if err := s.dirSem.Acquire(s.ctx, 1); err != nil {
			return // Context cancelled
		}
		files, subdirs, err := s.listDirectory(root, dir)
		s.dirSem.Release(1)

		if err != nil {
			if dir == root {
				s.setFatal(fmt.Errorf("%w: %s: %v", ErrRootUnreadable, dir, err))
			} else {
				s.sendError(err)
			}
			return
		}

		for _, f := range files {
			s.resultCh <- f
			s.stats.matchedFiles.Add(1)
			s.stats.matchedBytes.Add(f.Size)
		}
		s.bar.Describe(s.stats)

		for _, sub := range subdirs {
			s.walkDirectory(root, sub)
		}
	}()
}

// listDirectory reads a single directory, returning eligible files and subdirectories to descend.
//
// Uses batched ReadDir (1000 entries per batch) to bound memory on huge directories.
// This is the ONLY place where directory I/O occurs - protected by dirSem.
func (s *Scanner) listDirectory(root, dirPath string) (files []*types.FileInfo, subdirs []string, err error) {
	dir, err := os.Open(dirPath)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = dir.Close() }()

	const batchSize = 1000
	for {
		entries, err := dir.ReadDir(batchSize)
		if len(entries) == 0 {
			if err != nil && err != io.EOF {
				return files, subdirs, err
			}
			break
		}

		for _, entry := range entries {
			f, sub := s.processEntry(root, dirPath, entry)
			if f != nil {
				files = append(files, f)
			}
			if sub != "" {
				subdirs = append(subdirs, sub)
			}
		}
	}

	return files, subdirs, nil
}

// processEntry classifies a single directory entry.
// Returns (nil, "") for entries that are skipped: pruned directories, symlinks,
// devices, unknown extensions, excluded paths and entries that cannot be stat'd.
func (s *Scanner) processEntry(root, dirPath string, entry os.DirEntry) (file *types.FileInfo, subdir string) {
	fullPath := filepath.Join(dirPath, entry.Name())
	rel := relPath(root, fullPath)

	if entry.IsDir() {
		if _, pruned := s.excludeDirs[entry.Name()]; pruned || s.shouldExclude(rel) {
			s.stats.prunedDirs.Add(1)
			return nil, ""
		}
		return nil, fullPath
	}

	if !entry.Type().IsRegular() {
		return nil, ""
	}
	s.stats.scannedFiles.Add(1)

	lang, ok := language.Classify(entry.Name())
	if !ok || s.shouldExclude(rel) {
		return nil, ""
	}

	info, err := entry.Info()
	if err != nil {
		return nil, "" // Vanished or unreadable metadata: skip silently
	}

	return newFileInfo(fullPath, rel, lang, info), ""
}

// shouldExclude reports whether a root-relative path matches any exclude glob,
// either as a whole or by its base name.
func (s *Scanner) shouldExclude(rel string) bool {
	if len(s.excludes) == 0 {
		return false
	}
	base := filepath.Base(rel)
	return slices.ContainsFunc(s.excludes, func(pattern string) bool {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		ok, _ := doublestar.Match(pattern, base)
		return ok
	})
}

// sendError sends an error to the errors channel if it's not nil.
func (s *Scanner) sendError(err error) {
	if s.errCh != nil {
		s.errCh <- err
	}
}

// setFatal records the first run-level error.
func (s *Scanner) setFatal(err error) {
	s.fatalMu.Lock()
	defer s.fatalMu.Unlock()
	if s.fatal == nil {
		s.fatal = err
	}
}

// relPath returns path relative to root in slash form.
func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
