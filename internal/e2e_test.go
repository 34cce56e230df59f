//go:build e2e

package internal

import (
	"strings"
	"testing"

	"github.com/ivoronin/repolizer/internal/testfs"
)

var body = []string{
	"func handle(w http.ResponseWriter, r *http.Request) {",
	"user := auth.FromContext(r.Context())",
	"if user == nil {",
	"http.Error(w, \"forbidden\", http.StatusForbidden)",
	"return",
	"}",
	"render(w, user)",
	"}",
}

// =============================================================================
// Core E2E Tests
// =============================================================================

// TestE2EBasicCLIInvocation tests JSON output and exit code on a clean run.
func TestE2EBasicCLIInvocation(t *testing.T) {
	h := testfs.New(t, testfs.FileTree{
		Volumes: []testfs.Volume{
			{
				MountPoint: "/repo",
				Files: []testfs.File{
					{Path: []string{"a/handler.go", "b/handler.go"}, Lines: body},
				},
			},
		},
	})

	h.RunRepolizer("duplication", "--no-progress", "--format", "json", "/repo")

	h.Assert(testfs.Expected{
		Status:         "completed",
		Score:          1,
		FilesChecked:   2,
		TotalLines:     16,
		DuplicateLines: 16,
		Detected:       true,
	})
}

// TestE2ETextOutput tests the human-readable report.
func TestE2ETextOutput(t *testing.T) {
	h := testfs.New(t, testfs.FileTree{
		Volumes: []testfs.Volume{
			{
				MountPoint: "/repo",
				Files: []testfs.File{
					{Path: []string{"a/handler.go", "b/handler.go"}, Lines: body},
				},
			},
		},
	})

	result := h.RunRepolizer("duplication", "--no-progress", "/repo")

	if result.ExitCode != 0 {
		t.Fatalf("exit code: got %d, want 0\nstderr: %s", result.ExitCode, result.Stderr)
	}
	for _, want := range []string{"Duplication 100.00%", "score 1", "a/handler.go", "b/handler.go"} {
		if !strings.Contains(result.Stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, result.Stdout)
		}
	}
}

// TestE2EMinBlockFlag tests that a larger window stops matching a short copy.
func TestE2EMinBlockFlag(t *testing.T) {
	h := testfs.New(t, testfs.FileTree{
		Volumes: []testfs.Volume{
			{
				MountPoint: "/repo",
				Files: []testfs.File{
					{Path: []string{"a.go", "b.go"}, Lines: body},
				},
			},
		},
	})

	h.RunRepolizer("duplication", "--no-progress", "--format", "json", "--min-block", "9", "/repo")

	// Both files are shorter than the window now.
	h.Assert(testfs.Expected{
		Status:       "completed",
		Score:        100,
		FilesSkipped: 2,
		Blocks:       [][]string{},
	})
}

// TestE2EExcludePattern tests the --exclude flag.
func TestE2EExcludePattern(t *testing.T) {
	h := testfs.New(t, testfs.FileTree{
		Volumes: []testfs.Volume{
			{
				MountPoint: "/repo",
				Files: []testfs.File{
					{Path: []string{"main.go", "main_test.go"}, Lines: body},
				},
			},
		},
	})

	h.RunRepolizer("duplication", "--no-progress", "--format", "json", "--exclude", "*_test.go", "/repo")

	h.Assert(testfs.Expected{
		Status:       "completed",
		Score:        100,
		FilesChecked: 1,
		TotalLines:   8,
		Blocks:       [][]string{},
	})
}

// TestE2EMaxSizeFlag tests that files above --max-size are skipped.
func TestE2EMaxSizeFlag(t *testing.T) {
	h := testfs.New(t, testfs.FileTree{
		Volumes: []testfs.Volume{
			{
				MountPoint: "/repo",
				Files: []testfs.File{
					{Path: []string{"small.go"}, Lines: body},
					{Path: []string{"large.go"}, Lines: body, Pad: "8KiB"},
				},
			},
		},
	})

	h.RunRepolizer("duplication", "--no-progress", "--format", "json", "--max-size", "4KiB", "/repo")

	h.Assert(testfs.Expected{
		Status:       "completed",
		Score:        100,
		FilesChecked: 1,
		FilesSkipped: 1,
		TotalLines:   8,
		Blocks:       [][]string{},
	})
}

// TestE2EMultipleVolumes tests a repository spanning nested mounts.
func TestE2EMultipleVolumes(t *testing.T) {
	h := testfs.New(t, testfs.FileTree{
		Volumes: []testfs.Volume{
			{
				MountPoint: "/repo",
				Files:      []testfs.File{{Path: []string{"src/a.go"}, Lines: body}},
			},
			{
				MountPoint: "/repo/mirror",
				Files:      []testfs.File{{Path: []string{"a.go"}, Lines: body}},
			},
		},
	})

	h.RunRepolizer("duplication", "--no-progress", "--format", "json", "/repo")

	h.Assert(testfs.Expected{
		Status:         "completed",
		Score:          1,
		FilesChecked:   2,
		TotalLines:     16,
		DuplicateLines: 16,
		Detected:       true,
		Blocks: [][]string{
			{"mirror/a.go", "src/a.go"},
			{"mirror/a.go", "src/a.go"},
			{"mirror/a.go", "src/a.go"},
			{"mirror/a.go", "src/a.go"},
		},
	})
}

// TestE2EMissingPath tests that a missing repository is not a failure.
func TestE2EMissingPath(t *testing.T) {
	h := testfs.New(t, testfs.FileTree{
		Volumes: []testfs.Volume{{MountPoint: "/repo"}},
	})

	h.RunRepolizer("duplication", "--no-progress", "--format", "json", "/repo/missing")

	h.Assert(testfs.Expected{
		Status: "completed",
		Score:  100,
		Blocks: [][]string{},
	})
}

// TestE2EInvalidFlag tests that bad flag values exit non-zero before analysis.
func TestE2EInvalidFlag(t *testing.T) {
	h := testfs.New(t, testfs.FileTree{
		Volumes: []testfs.Volume{{MountPoint: "/repo"}},
	})

	result := h.RunRepolizer("duplication", "--max-size", "huge", "/repo")

	if result.ExitCode == 0 {
		t.Errorf("exit code: got 0, want non-zero")
	}
	if !strings.Contains(result.Stderr, "invalid --max-size") {
		t.Errorf("stderr should name the flag: %s", result.Stderr)
	}
}

// TestE2ECacheFile tests that a cache file is written and reused.
func TestE2ECacheFile(t *testing.T) {
	h := testfs.New(t, testfs.FileTree{
		Volumes: []testfs.Volume{
			{
				MountPoint: "/repo",
				Files:      []testfs.File{{Path: []string{"a.go", "b.go"}, Lines: body}},
			},
		},
	})

	expected := testfs.Expected{
		Status:         "completed",
		Score:          1,
		FilesChecked:   2,
		TotalLines:     16,
		DuplicateLines: 16,
		Detected:       true,
	}

	for i := 0; i < 2; i++ {
		h.RunRepolizer("duplication", "--no-progress", "--format", "json", "--cache-file", "/tmp/lines.db", "/repo")
		h.Assert(expected)
	}

	if ls := h.Exec("ls", "/tmp/lines.db"); ls.ExitCode != 0 {
		t.Errorf("cache file not created: %s", ls.Stderr)
	}
}
