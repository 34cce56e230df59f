// Package testfs provides test infrastructure for source-tree fixtures.
//
// It supports two modes:
//   - Integration tests: Harness creates files in t.TempDir() and runs the
//     duplication check in-process
//   - E2E tests: Harness uses a Docker container with tmpfs mounts and runs
//     the repolizer binary
//
// # Unified FileTree Specification
//
// Tests describe the repository once and the expected report separately:
//
//	given := testfs.FileTree{
//	    Volumes: []Volume{
//	        {
//	            MountPoint: "/repo",
//	            Files: []File{
//	                {Path: []string{"a/util.py", "b/util.py"}, Lines: testfs.Numbered("x = %d", 10)},
//	                {Path: []string{"big.py"}, Lines: []string{"pass"}, Pad: "2MiB"},
//	            },
//	        },
//	    },
//	}
//	then := testfs.Expected{
//	    Status: "completed", FilesChecked: 2, FilesSkipped: 1,
//	    TotalLines: 20, DuplicateLines: 10, Detected: true,
//	}
//
//	h := testfs.New(t, given)
//	h.RunRepolizer("duplication", "--format", "json", "/repo")
//	h.Assert(then)
//
// Subdirectories are created automatically from file paths (mkdir -p semantics).
// File paths are relative to the volume mount point.
package testfs

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/ivoronin/repolizer/internal/duplication"
)

// -----------------------------------------------------------------------------
// FileTree Specification Types
// -----------------------------------------------------------------------------

// FileTree describes the repository laid out before a run.
type FileTree struct {
	// Volumes in the filesystem (each is a separate tmpfs mount in E2E mode).
	Volumes []Volume `json:"volumes"`
}

// Volume is a directory tree rooted at MountPoint.
type Volume struct {
	// MountPoint is the absolute path of the volume, e.g. "/repo".
	MountPoint string `json:"mountPoint"`

	// Files in this volume.
	Files []File `json:"files,omitempty"`

	// Symlinks in this volume. The scanner never follows them.
	Symlinks []Symlink `json:"symlinks,omitempty"`
}

// File defines a source file and its verbatim copies.
//
// Every path in Path receives identical content: Lines repeated Repeat times,
// each terminated by "\n", then padded with comment lines up to Pad bytes.
type File struct {
	// Path contains one or more paths (relative to volume).
	Path []string `json:"path"`

	// Lines is the file body.
	Lines []string `json:"lines,omitempty"`

	// Repeat writes Lines this many times (0 and 1 both mean once).
	Repeat int `json:"repeat,omitempty"`

	// Pad grows the file with "#" lines to at least this size (IEC units).
	Pad string `json:"pad,omitempty"`
}

// Content renders the file body exactly as written to disk.
func (f *File) Content() (string, error) {
	repeat := max(f.Repeat, 1)

	var b strings.Builder
	for i := 0; i < repeat; i++ {
		for _, line := range f.Lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	if f.Pad == "" {
		return b.String(), nil
	}
	size, err := humanize.ParseBytes(f.Pad)
	if err != nil {
		return "", fmt.Errorf("parse pad size %q: %w", f.Pad, err)
	}
	for uint64(b.Len()) < size {
		b.WriteString("#\n")
	}
	return b.String(), nil
}

// Symlink defines a symbolic link.
type Symlink struct {
	// Path is relative to the volume mount point.
	Path string `json:"path"`

	// Target is what the symlink points to.
	Target string `json:"target"`
}

// Numbered returns n distinct lines built from format and a 1-based index.
func Numbered(format string, n int) []string {
	lines := make([]string, n)
	for i := 0; i < n; i++ {
		lines[i] = fmt.Sprintf(format, i+1)
	}
	return lines
}

// -----------------------------------------------------------------------------
// Execution Result Types
// -----------------------------------------------------------------------------

// RunResult captures the results of a repolizer execution.
type RunResult struct {
	ExitCode int    // Process exit code
	Stdout   string // Standard output
	Stderr   string // Standard error
}

// Report is a decoded check envelope as printed by "repolizer duplication --format json".
type Report struct {
	Status string             `json:"status"`
	Score  int                `json:"score"`
	Result duplication.Result `json:"result"`
	Errors *string            `json:"errors"`
}

// Expected describes the report a run should produce.
type Expected struct {
	ExitCode       int
	Status         string
	Score          int
	FilesChecked   int
	FilesSkipped   int
	FilesTimedOut  int
	FilesErrored   int
	TotalLines     int
	DuplicateLines int
	Detected       bool

	// Blocks lists, per reported block in order, the files it was found in.
	// Nil skips the comparison.
	Blocks [][]string
}
