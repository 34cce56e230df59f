// Package reader reads source files under a wall-clock budget.
//
// # Watchdog Model
//
// Blocking file I/O cannot be interrupted safely, so a read that overruns its
// budget is abandoned rather than cancelled:
//
//	Read(path) starts
//	    │
//	    ├──► spawn watchdog goroutine: readFunc(path) → done (buffered, cap 1)
//	    │
//	    ├──► select:
//	    │        ├── done      → decode and return content
//	    │        ├── timer.C   → return ErrTimedOut (goroutine left running)
//	    │        └── ctx.Done  → return ctx.Err()
//	    │
//	    └──► abandoned goroutine eventually sends into the buffer and exits
//
// The buffered channel guarantees the abandoned goroutine never blocks on send,
// so it is reclaimed as soon as the underlying read returns. A read stuck forever
// in the kernel leaks one goroutine; the process is not held open by it.
//
// The same pattern is safe from any goroutine, which is what the coordinator's
// worker pool requires.
package reader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ivoronin/repolizer/internal/types"
)

// ErrTimedOut is returned when a read does not finish within its budget.
var ErrTimedOut = errors.New("read timed out")

// TimeoutError reports which read overran and by which budget.
// It matches ErrTimedOut under errors.Is.
type TimeoutError struct {
	Path   string
	Budget time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %v after %v", e.Path, ErrTimedOut, e.Budget)
}

func (e *TimeoutError) Unwrap() error { return ErrTimedOut }

// ReadFunc loads the raw bytes of a file.
type ReadFunc func(path string) ([]byte, error)

// Reader reads files with a per-file time budget.
type Reader struct {
	budget time.Duration
	read   ReadFunc
}

// New creates a Reader. A nil read uses os.ReadFile; a budget <= 0 disables
// the watchdog and reads inline.
func New(budget time.Duration, read ReadFunc) *Reader {
	if read == nil {
		read = os.ReadFile
	}
	return &Reader{budget: budget, read: read}
}

// Budget returns the per-file read budget.
func (r *Reader) Budget() time.Duration { return r.budget }

// result carries the watchdog goroutine's output.
type result struct {
	data []byte
	err  error
}

// Read returns the decoded content of path, or ErrTimedOut if the budget expires first.
func (r *Reader) Read(ctx context.Context, path string) (string, error) {
	if r.budget <= 0 {
		res := r.guardedRead(path)
		if res.err != nil {
			return "", res.err
		}
		return Decode(res.data), nil
	}

	done := make(chan result, 1) // Buffered: an abandoned reader must never block
	go func() {
		done <- r.guardedRead(path)
	}()

	timer := time.NewTimer(r.budget)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		return Decode(res.data), nil
	case <-timer.C:
		return "", &TimeoutError{Path: path, Budget: r.budget}
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Lines reads path and returns its normalized non-blank lines.
func (r *Reader) Lines(ctx context.Context, path string) ([]types.Line, error) {
	content, err := r.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	return Normalize(content), nil
}

// guardedRead runs the read function, converting a panic into an error
// since it may execute on a goroutine nobody else recovers.
func (r *Reader) guardedRead(path string) (res result) {
	defer func() {
		if p := recover(); p != nil {
			res = result{err: fmt.Errorf("%s: read panicked: %v", path, p)}
		}
	}()
	data, err := r.read(path)
	return result{data: data, err: err}
}

// Decode converts raw bytes to a string. A UTF-8 or UTF-16 byte order mark
// selects the encoding and is stripped; invalid UTF-8 sequences are replaced
// with U+FFFD. Decode never fails.
func Decode(raw []byte) string {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "\uFFFD")
	}
	return string(out)
}

// Normalize splits content into whitespace-stripped, non-blank lines,
// keeping each line's original 1-based number. \n, \r\n and \r all end a line.
func Normalize(content string) []types.Line {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	var lines []types.Line
	for i, raw := range strings.Split(content, "\n") {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		lines = append(lines, types.Line{Text: text, Number: i + 1})
	}
	return lines
}
