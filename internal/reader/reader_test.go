package reader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// Section 1: Watchdog Tests
// =============================================================================

// TestReadReturnsContent tests a read that completes within budget.
func TestReadReturnsContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.py")
	if err := os.WriteFile(path, []byte("print('hi')\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := New(time.Second, nil).Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got != "print('hi')\n" {
		t.Errorf("Read() = %q", got)
	}
}

// TestReadTimesOut tests that a stuck read is abandoned after the budget.
func TestReadTimesOut(t *testing.T) {
	release := make(chan struct{})
	defer close(release) // Let the abandoned goroutine finish

	slow := func(string) ([]byte, error) {
		<-release
		return []byte("late"), nil
	}

	start := time.Now()
	_, err := New(20*time.Millisecond, slow).Read(context.Background(), "slow.py")
	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("Read() error = %v, want ErrTimedOut", err)
	}
	var te *TimeoutError
	if !errors.As(err, &te) || te.Path != "slow.py" || te.Budget != 20*time.Millisecond {
		t.Errorf("Read() error = %#v, want TimeoutError for slow.py", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Read() returned after %v, expected prompt return", elapsed)
	}
}

// TestReadWithoutBudget tests that budget <= 0 reads inline without a watchdog.
func TestReadWithoutBudget(t *testing.T) {
	r := New(0, func(string) ([]byte, error) {
		time.Sleep(10 * time.Millisecond)
		return []byte("ok"), nil
	})
	got, err := r.Read(context.Background(), "x.go")
	if err != nil || got != "ok" {
		t.Errorf("Read() = (%q, %v), want (\"ok\", nil)", got, err)
	}
}

// TestReadMissingFile tests that filesystem errors pass through unchanged.
func TestReadMissingFile(t *testing.T) {
	_, err := New(time.Second, nil).Read(context.Background(), filepath.Join(t.TempDir(), "missing.py"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Read() error = %v, want os.ErrNotExist", err)
	}
}

// TestReadPanicBecomesError tests that a panicking read function does not crash the process.
func TestReadPanicBecomesError(t *testing.T) {
	r := New(time.Second, func(string) ([]byte, error) { panic("disk on fire") })
	_, err := r.Read(context.Background(), "boom.rb")
	if err == nil || !strings.Contains(err.Error(), "disk on fire") {
		t.Errorf("Read() error = %v, want panic message", err)
	}
}

// TestReadContextCancelled tests that a cancelled context ends the wait.
func TestReadContextCancelled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(time.Minute, func(string) ([]byte, error) {
		<-release
		return nil, nil
	})
	if _, err := r.Read(ctx, "x.go"); !errors.Is(err, context.Canceled) {
		t.Errorf("Read() error = %v, want context.Canceled", err)
	}
}

// =============================================================================
// Section 2: Decoding Tests
// =============================================================================

// TestDecodeReplacesInvalidBytes tests permissive byte substitution.
func TestDecodeReplacesInvalidBytes(t *testing.T) {
	got := Decode([]byte("ok\xff\xfeok"))
	if !strings.HasPrefix(got, "ok") || !strings.HasSuffix(got, "ok") {
		t.Fatalf("Decode() = %q", got)
	}
	if !strings.Contains(got, "\uFFFD") {
		t.Errorf("Decode() = %q, want replacement character", got)
	}
}

// TestDecodeStripsUTF8BOM tests BOM handling.
func TestDecodeStripsUTF8BOM(t *testing.T) {
	if got := Decode([]byte("\xef\xbb\xbfx = 1")); got != "x = 1" {
		t.Errorf("Decode() = %q, want %q", got, "x = 1")
	}
}

// TestDecodeUTF16 tests that a UTF-16LE BOM selects UTF-16 decoding.
func TestDecodeUTF16(t *testing.T) {
	raw := []byte{0xff, 0xfe, 'h', 0, 'i', 0}
	if got := Decode(raw); got != "hi" {
		t.Errorf("Decode() = %q, want %q", got, "hi")
	}
}

// =============================================================================
// Section 3: Normalization Tests
// =============================================================================

// TestNormalize tests blank-line removal, stripping and line numbering.
func TestNormalize(t *testing.T) {
	content := "def f():\n\n    return 1  \r\n\t\r\nx = 2\ry = 3\n"
	lines := Normalize(content)

	want := []struct {
		text   string
		number int
	}{
		{"def f():", 1},
		{"return 1", 3},
		{"x = 2", 5},
		{"y = 3", 6},
	}
	if len(lines) != len(want) {
		t.Fatalf("Normalize() returned %d lines, want %d: %+v", len(lines), len(want), lines)
	}
	for i, w := range want {
		if lines[i].Text != w.text || lines[i].Number != w.number {
			t.Errorf("line %d = %+v, want {%q %d}", i, lines[i], w.text, w.number)
		}
	}
}

// TestNormalizeEmpty tests that whitespace-only content yields no lines.
func TestNormalizeEmpty(t *testing.T) {
	if lines := Normalize(" \n\t\n\r\n"); len(lines) != 0 {
		t.Errorf("Normalize() = %+v, want empty", lines)
	}
}

// TestLines tests the combined read and normalize path.
func TestLines(t *testing.T) {
	r := New(time.Second, func(string) ([]byte, error) { return []byte("a\n\nb\n"), nil })
	lines, err := r.Lines(context.Background(), "x.sh")
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 || lines[1].Number != 3 {
		t.Errorf("Lines() = %+v", lines)
	}
}
