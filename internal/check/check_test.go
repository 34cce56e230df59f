package check

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivoronin/repolizer/internal/duplication"
)

type fakeCheck struct {
	name string
	run  func() Envelope
}

func (f fakeCheck) Name() string     { return f.name }
func (f fakeCheck) Category() string { return "test" }
func (f fakeCheck) Run(context.Context, Repository) Envelope {
	return f.run()
}

func quietOptions() duplication.Options {
	opts := duplication.DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return opts
}

// =============================================================================
// Section 1: Envelope Tests
// =============================================================================

func TestEnvelopeJSON(t *testing.T) {
	completed, err := json.Marshal(Completed(90, map[string]int{"x": 1}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"completed","score":90,"result":{"x":1},"errors":null}`, string(completed))

	failed, err := json.Marshal(Failed(errors.New("boom")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"failed","score":0,"result":{},"errors":"boom"}`, string(failed))
}

// =============================================================================
// Section 2: Registry Tests
// =============================================================================

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(fakeCheck{name: "b"}))
	require.NoError(t, r.Register(fakeCheck{name: "a"}))

	err := r.Register(fakeCheck{name: "a"})
	assert.ErrorContains(t, err, "already registered")

	assert.Equal(t, []string{"a", "b"}, r.Names())

	c, ok := r.Get("b")
	require.True(t, ok)
	assert.Equal(t, "b", c.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistryRunAllIsolatesPanics(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(fakeCheck{name: "ok", run: func() Envelope { return Completed(100, nil) }}))
	require.NoError(t, r.Register(fakeCheck{name: "bad", run: func() Envelope { panic("kaboom") }}))

	results := r.RunAll(context.Background(), Repository{LocalPath: t.TempDir()})
	require.Len(t, results, 2)

	assert.Equal(t, StatusCompleted, results["ok"].Status)
	assert.Equal(t, StatusFailed, results["bad"].Status)
	require.NotNil(t, results["bad"].Errors)
	assert.Contains(t, *results["bad"].Errors, "kaboom")
	assert.Zero(t, results["bad"].Score)
}

// =============================================================================
// Section 3: Duplication Check Tests
// =============================================================================

func TestDuplicationCheckCompleted(t *testing.T) {
	root := t.TempDir()
	body := strings.Repeat("def f():\n    return 1\n", 3)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte(body), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.py"), []byte(body), 0o644))

	c := NewDuplicationCheck(quietOptions())
	assert.Equal(t, "code_duplication", c.Name())
	assert.Equal(t, "code_quality", c.Category())

	env := c.Run(context.Background(), Repository{Name: "demo", LocalPath: root, TimeoutSeconds: 5})
	require.Equal(t, StatusCompleted, env.Status)
	assert.Nil(t, env.Errors)

	res, ok := env.Result.(*duplication.Result)
	require.True(t, ok)
	assert.True(t, res.DuplicationDetected)
	assert.Equal(t, res.DuplicationScore, env.Score)
	assert.LessOrEqual(t, env.Score, 90)
}

func TestDuplicationCheckMissingPathCompletes(t *testing.T) {
	env := NewDuplicationCheck(quietOptions()).Run(context.Background(),
		Repository{LocalPath: filepath.Join(t.TempDir(), "gone")})

	assert.Equal(t, StatusCompleted, env.Status)
	assert.Equal(t, 100, env.Score)
	assert.Nil(t, env.Errors)
}

func TestDuplicationCheckEmptyPathCompletes(t *testing.T) {
	env := NewDuplicationCheck(quietOptions()).Run(context.Background(), Repository{})
	assert.Equal(t, StatusCompleted, env.Status)
}

func TestDuplicationCheckUnreadableRootFails(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("skipping permission test when running as root")
	}
	root := filepath.Join(t.TempDir(), "locked")
	require.NoError(t, os.Mkdir(root, 0o000))
	t.Cleanup(func() { _ = os.Chmod(root, 0o755) })

	env := NewDuplicationCheck(quietOptions()).Run(context.Background(), Repository{LocalPath: root})

	assert.Equal(t, StatusFailed, env.Status)
	assert.Zero(t, env.Score)
	require.NotNil(t, env.Errors)
	assert.Contains(t, *env.Errors, "root directory unreadable")
}

func TestDuplicationCheckCancelledFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	env := NewDuplicationCheck(quietOptions()).Run(ctx, Repository{LocalPath: t.TempDir()})
	assert.Equal(t, StatusFailed, env.Status)
}
