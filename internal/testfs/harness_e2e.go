//go:build e2e

package testfs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/docker/docker/api/types/container"
)

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

const (
	// baseImage is the Docker image used for E2E tests.
	baseImage = "alpine:3.21"

	// Binary names and paths inside container.
	binaryName       = "repolizer"
	helperBinaryName = "testfs-helper"
	binaryPath       = "/tmp/" + binaryName
	helperBinaryPath = "/tmp/" + helperBinaryName
)

// -----------------------------------------------------------------------------
// Harness - Public API
// -----------------------------------------------------------------------------

// Harness provides E2E test infrastructure using Docker containers.
//
// Usage:
//
//	h := testfs.New(t, given)
//	h.RunRepolizer("duplication", "--format", "json", "/repo")
//	h.Assert(then)
type Harness struct {
	t          *testing.T
	ctx        context.Context
	given      FileTree
	container  *Container
	lastResult *RunResult
}

// New creates a new Harness with the given FileTree specification.
//
// The harness:
//  1. Starts a Docker container with tmpfs volumes for each Volume in the spec
//  2. Bind-mounts pre-built repolizer binaries into the container
//  3. Creates files and symlinks according to the spec
//
// Requires REPOLIZER_E2E_BINDIR env var pointing at the built binaries.
// The container is automatically cleaned up when the test finishes via t.Cleanup().
func New(t *testing.T, given FileTree) *Harness {
	t.Helper()

	ctx := context.Background()
	h := &Harness{
		t:     t,
		ctx:   ctx,
		given: given,
	}

	cfg, hostCfg, err := h.buildContainerConfig()
	if err != nil {
		t.Fatalf("failed to build container config: %v", err)
	}

	c, err := NewContainer(ctx, cfg, hostCfg, "NO_COLOR=1")
	if err != nil {
		t.Fatalf("failed to create container: %v", err)
	}
	h.container = c

	t.Cleanup(func() {
		h.Cleanup()
	})

	if err := h.sowFileTree(); err != nil {
		t.Fatalf("failed to setup files: %v", err)
	}

	return h
}

// RunRepolizer executes the repolizer binary inside the container with the given arguments.
//
// Example:
//
//	h.RunRepolizer("duplication", "--format", "json", "/repo")
//	h.RunRepolizer("check", "/repo")
//
// The result (exit code, stdout, stderr) is stored for later assertion.
func (h *Harness) RunRepolizer(args ...string) *RunResult {
	h.t.Helper()

	cmd := append([]string{binaryPath}, args...)
	result, err := h.container.Exec(h.ctx, cmd, nil)
	if err != nil {
		h.t.Fatalf("failed to run repolizer: %v", err)
	}

	h.lastResult = result
	return result
}

// Exec runs an arbitrary command inside the container.
func (h *Harness) Exec(cmd ...string) *RunResult {
	h.t.Helper()

	result, err := h.container.Exec(h.ctx, cmd, nil)
	if err != nil {
		h.t.Fatalf("failed to run %v: %v", cmd, err)
	}
	return result
}

// Assert decodes the last JSON report and verifies it matches expected.
func (h *Harness) Assert(expected Expected) {
	h.t.Helper()

	if h.lastResult == nil {
		h.t.Fatal("Assert called before RunRepolizer")
	}
	report := DecodeReport(h.t, []byte(h.lastResult.Stdout))
	if h.lastResult.ExitCode != expected.ExitCode {
		h.t.Logf("stderr: %s", h.lastResult.Stderr)
	}
	AssertReport(h.t, expected, h.lastResult.ExitCode, report)
}

// Cleanup terminates the container and releases resources.
func (h *Harness) Cleanup() {
	if h.container != nil {
		_ = h.container.Close(h.ctx)
		h.container = nil
	}
}

// -----------------------------------------------------------------------------
// Container Configuration
// -----------------------------------------------------------------------------

// buildContainerConfig creates Docker container and host configs for E2E tests.
func (h *Harness) buildContainerConfig() (*container.Config, *container.HostConfig, error) {
	binDir := os.Getenv("REPOLIZER_E2E_BINDIR")
	if binDir == "" {
		return nil, nil, fmt.Errorf("REPOLIZER_E2E_BINDIR not set")
	}

	mountPaths := make([]string, len(h.given.Volumes))
	for i, v := range h.given.Volumes {
		mountPaths[i] = v.MountPoint
	}

	// Parents come before children.
	sort.Strings(mountPaths)

	tmpfs := make(map[string]string)
	for _, path := range mountPaths {
		tmpfs[path] = "size=100m"
	}

	binds := []string{
		fmt.Sprintf("%s:%s:ro", filepath.Join(binDir, binaryName), binaryPath),
		fmt.Sprintf("%s:%s:ro", filepath.Join(binDir, helperBinaryName), helperBinaryPath),
	}

	cfg := &container.Config{
		Image: baseImage,
		Cmd:   []string{"sleep", "infinity"},
	}

	hostCfg := &container.HostConfig{
		Binds:      binds,
		Tmpfs:      tmpfs,
		AutoRemove: true,
	}

	return cfg, hostCfg, nil
}

// sowFileTree creates the source tree from the FileTree spec using testfs-helper.
func (h *Harness) sowFileTree() error {
	specJSON, err := json.Marshal(h.given)
	if err != nil {
		return fmt.Errorf("marshal spec: %w", err)
	}

	cmd := []string{helperBinaryPath, "sow"}
	result, err := h.container.Exec(h.ctx, cmd, specJSON)
	if err != nil {
		return fmt.Errorf("run sow: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("sow failed (exit %d): %s%s", result.ExitCode, result.Stdout, result.Stderr)
	}
	return nil
}
