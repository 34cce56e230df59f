package types

import "fmt"

// OutcomeKind tags the variant held by an Outcome.
type OutcomeKind int

const (
	OutcomeSuccess  OutcomeKind = iota
	OutcomeSkipped              // Expected exclusion, not an error
	OutcomeTimedOut             // Read exceeded its budget
	OutcomeError                // Read or processing failure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeError:
		return "error"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// SkipReason explains why a file was skipped.
type SkipReason string

const (
	SkipSize  SkipReason = "size"  // Over the size ceiling
	SkipLines SkipReason = "lines" // Fewer non-blank lines than one window
)

// Outcome is the result of processing one eligible file.
// Exactly one Outcome is produced per file handed to the coordinator.
type Outcome struct {
	Kind    OutcomeKind
	File    *FileInfo
	Source  *SourceFile // Set for OutcomeSuccess only
	Reason  SkipReason  // Set for OutcomeSkipped only
	Message string      // Set for OutcomeError only
}

// Success builds a success outcome.
func Success(fi *FileInfo, lines []Line) Outcome {
	return Outcome{
		Kind:   OutcomeSuccess,
		File:   fi,
		Source: &SourceFile{Path: fi.RelPath, Language: fi.Language, Lines: lines},
	}
}

// Skipped builds a skip outcome.
func Skipped(fi *FileInfo, reason SkipReason) Outcome {
	return Outcome{Kind: OutcomeSkipped, File: fi, Reason: reason}
}

// TimedOut builds a timeout outcome.
func TimedOut(fi *FileInfo) Outcome {
	return Outcome{Kind: OutcomeTimedOut, File: fi}
}

// Failed builds an error outcome.
func Failed(fi *FileInfo, err error) Outcome {
	return Outcome{Kind: OutcomeError, File: fi, Message: err.Error()}
}

// String formats the outcome for logs.
func (o Outcome) String() string {
	path := "<nil>"
	if o.File != nil {
		path = o.File.RelPath
	}
	switch o.Kind {
	case OutcomeSkipped:
		return fmt.Sprintf("skipped %s (%s)", path, o.Reason)
	case OutcomeError:
		return fmt.Sprintf("error %s: %s", path, o.Message)
	default:
		return fmt.Sprintf("%s %s", o.Kind, path)
	}
}
