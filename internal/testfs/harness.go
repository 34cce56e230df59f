//go:build unix && !e2e

package testfs

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/ivoronin/repolizer/internal/check"
	"github.com/ivoronin/repolizer/internal/duplication"
)

// -----------------------------------------------------------------------------
// Harness - Integration Test API
// -----------------------------------------------------------------------------

// Harness provides integration test infrastructure using t.TempDir().
//
// Unlike the E2E Harness that runs the repolizer binary in a Docker container,
// this Harness creates files in a temporary directory and runs the duplication
// check in-process. The envelope still goes through JSON so both harnesses
// assert against the same decoded Report.
//
// Usage:
//
//	h := testfs.New(t, given)
//	h.RunCheck("/repo", duplication.DefaultOptions())
//	h.Assert(then)
type Harness struct {
	t          *testing.T
	root       string   // Temporary directory root
	given      FileTree // Original spec
	lastReport *Report
}

// New creates a new Harness with the given FileTree specification.
//
// The temporary directory is automatically cleaned up by t.TempDir() mechanics.
func New(t *testing.T, given FileTree) *Harness {
	t.Helper()

	root := t.TempDir()
	h := &Harness{
		t:     t,
		root:  root,
		given: given,
	}

	if err := SowFileTree(root, given); err != nil {
		t.Fatalf("failed to setup files: %v", err)
	}

	return h
}

// Root returns the temporary directory root path.
func (h *Harness) Root() string {
	return h.root
}

// Path maps a volume mount point to its location under Root.
func (h *Harness) Path(mountPoint string) string {
	return filepath.Join(h.root, mountPoint)
}

// RunCheck runs the duplication check on a volume and records its report.
func (h *Harness) RunCheck(mountPoint string, opts duplication.Options) Report {
	h.t.Helper()

	env := check.NewDuplicationCheck(opts).Run(context.Background(), check.Repository{LocalPath: h.Path(mountPoint)})

	data, err := json.Marshal(env)
	if err != nil {
		h.t.Fatalf("marshal envelope: %v", err)
	}
	r := DecodeReport(h.t, data)
	h.lastReport = &r
	return r
}

// Assert verifies the last report matches expected. A failed envelope
// maps to exit code 1, as the CLI does.
func (h *Harness) Assert(expected Expected) {
	h.t.Helper()

	if h.lastReport == nil {
		h.t.Fatal("Assert called before RunCheck")
	}
	exitCode := 0
	if h.lastReport.Status == string(check.StatusFailed) {
		exitCode = 1
	}
	AssertReport(h.t, expected, exitCode, *h.lastReport)
}
