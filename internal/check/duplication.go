package check

import (
	"context"
	"time"

	"github.com/ivoronin/repolizer/internal/duplication"
)

// DuplicationCheck measures verbatim code duplication.
type DuplicationCheck struct {
	opts duplication.Options
}

// NewDuplicationCheck creates the check with the given analysis options.
func NewDuplicationCheck(opts duplication.Options) *DuplicationCheck {
	return &DuplicationCheck{opts: opts}
}

func (c *DuplicationCheck) Name() string     { return "code_duplication" }
func (c *DuplicationCheck) Category() string { return "code_quality" }

// Run analyzes repo.LocalPath. A missing or non-directory path completes with
// an empty result; any run-level error or panic yields a failed envelope.
func (c *DuplicationCheck) Run(ctx context.Context, repo Repository) Envelope {
	return runGuarded(c.Name(), func() Envelope {
		opts := c.opts
		if repo.TimeoutSeconds > 0 {
			opts.Timeout = time.Duration(repo.TimeoutSeconds) * time.Second
		}

		res, err := duplication.Analyze(ctx, repo.LocalPath, opts)
		if err != nil {
			return Failed(err)
		}
		return Completed(res.DuplicationScore, res)
	})
}
