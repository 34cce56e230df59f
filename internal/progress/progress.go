// Package progress renders pipeline stage progress on a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

const updateInterval = 50 * time.Millisecond

// Output returns the writer progress should go to: stderr when enabled and
// attached to a terminal, nil otherwise.
func Output(enabled bool) io.Writer {
	if !enabled {
		return nil
	}
	fd := os.Stderr.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return os.Stderr
}

// Bar wraps progressbar with enabled/disabled handling.
// All methods are no-ops when disabled.
type Bar struct {
	bar *progressbar.ProgressBar
	w   io.Writer
}

// New creates a progress bar writing to w; a nil w disables it.
// Use total=-1 for spinner mode (directory walk), or total>0 when the number
// of items is known up front (file reads).
func New(w io.Writer, total int64) *Bar {
	if w == nil {
		return &Bar{}
	}

	opts := []progressbar.Option{
		progressbar.OptionSetWriter(w),
		progressbar.OptionThrottle(updateInterval),
		progressbar.OptionClearOnFinish(),
	}

	if total < 0 {
		opts = append(opts,
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetElapsedTime(false),
		)
		return &Bar{bar: progressbar.NewOptions(-1, opts...), w: w}
	}

	opts = append(opts,
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
	)
	return &Bar{bar: progressbar.NewOptions64(total, opts...), w: w}
}

// Add advances a determinate bar by n items.
func (b *Bar) Add(n int) {
	if b.bar != nil {
		_ = b.bar.Add(n)
	}
}

// Describe updates the progress bar description.
func (b *Bar) Describe(s fmt.Stringer) {
	if b.bar != nil {
		b.bar.Describe(s.String())
	}
}

// Finish completes the progress bar and prints a final summary line.
func (b *Bar) Finish(s fmt.Stringer) {
	if b.bar != nil {
		_ = b.bar.Finish()
		fmt.Fprintln(b.w, "✔ "+s.String())
	}
}
