package duplication

import (
	"log/slog"
	"time"

	"github.com/ivoronin/repolizer/internal/cache"
	"github.com/ivoronin/repolizer/internal/reader"
	"github.com/ivoronin/repolizer/internal/scanner"
)

// Defaults used when an Options field is left at its zero value by DefaultOptions.
const (
	DefaultMinBlockSize      = 5
	DefaultMaxFileSize       = 1 << 20 // 1 MiB
	DefaultTimeout           = 30 * time.Second
	DefaultMaxWorkers        = 16
	DefaultParallelThreshold = 10
	DefaultMaxExemplars      = 10
	DefaultSnippetLength     = 200
)

// Options configure one analysis run.
type Options struct {
	MinBlockSize      int           // Window size in non-blank lines
	MaxFileSize       int64         // Larger files are skipped (0 = no limit)
	Timeout           time.Duration // Per-file read budget (<= 0 disables the watchdog)
	MaxWorkers        int           // Upper bound on walker and coordinator concurrency
	ParallelThreshold int           // Up to this many files are read sequentially
	ExcludeDirs       []string      // Directory base names pruned from the walk
	Excludes          []string      // Doublestar globs of paths to skip
	MaxExemplars      int           // Cap on reported duplicate blocks (all languages)
	SnippetLength     int           // Snippet length in characters before "..."
	ShowProgress      bool

	Cache    *cache.Cache    // Optional normalized-lines cache
	ReadFunc reader.ReadFunc // Replaces os.ReadFile (tests)
	Logger   *slog.Logger    // nil = slog.Default()
}

// DefaultOptions returns the options of a standard run.
func DefaultOptions() Options {
	return Options{
		MinBlockSize:      DefaultMinBlockSize,
		MaxFileSize:       DefaultMaxFileSize,
		Timeout:           DefaultTimeout,
		MaxWorkers:        DefaultMaxWorkers,
		ParallelThreshold: DefaultParallelThreshold,
		ExcludeDirs:       scanner.DefaultExcludeDirs,
		MaxExemplars:      DefaultMaxExemplars,
		SnippetLength:     DefaultSnippetLength,
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) window() int {
	return max(o.MinBlockSize, 1)
}
