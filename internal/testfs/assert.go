package testfs

import (
	"encoding/json"
	"testing"
)

// -----------------------------------------------------------------------------
// Assertion Functions - Shared between integration and E2E Harness
// -----------------------------------------------------------------------------

// DecodeReport parses a JSON check envelope.
func DecodeReport(t *testing.T, data []byte) Report {
	t.Helper()

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("decode report: %v\n%s", err, data)
	}
	return r
}

// AssertReport verifies a run's exit code and report match expected.
func AssertReport(t *testing.T, expected Expected, exitCode int, actual Report) {
	t.Helper()

	if exitCode != expected.ExitCode {
		t.Errorf("exit code: got %d, want %d", exitCode, expected.ExitCode)
	}
	if actual.Status != expected.Status {
		t.Errorf("status: got %q, want %q", actual.Status, expected.Status)
	}
	if actual.Score != expected.Score {
		t.Errorf("score: got %d, want %d", actual.Score, expected.Score)
	}

	res := actual.Result
	assertCount(t, "files_checked", res.FilesChecked, expected.FilesChecked)
	assertCount(t, "files_skipped", res.FilesSkipped, expected.FilesSkipped)
	assertCount(t, "files_timed_out", res.FilesTimedOut, expected.FilesTimedOut)
	assertCount(t, "files_errored", res.FilesErrored, expected.FilesErrored)
	assertCount(t, "total_lines_analyzed", res.TotalLinesAnalyzed, expected.TotalLines)
	assertCount(t, "duplicate_lines", res.DuplicateLines, expected.DuplicateLines)

	if res.DuplicationDetected != expected.Detected {
		t.Errorf("duplication_detected: got %v, want %v", res.DuplicationDetected, expected.Detected)
	}
	if res.DuplicateLines > res.TotalLinesAnalyzed {
		t.Errorf("duplicate_lines %d exceeds total_lines_analyzed %d", res.DuplicateLines, res.TotalLinesAnalyzed)
	}

	if expected.Blocks != nil {
		assertBlocks(t, expected.Blocks, actual)
	}
}

func assertCount(t *testing.T, name string, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %d, want %d", name, got, want)
	}
}

// assertBlocks compares the file list of every reported block in order.
func assertBlocks(t *testing.T, expected [][]string, actual Report) {
	t.Helper()

	blocks := actual.Result.DuplicateBlocks
	if len(blocks) != len(expected) {
		t.Errorf("duplicate_blocks: got %d, want %d", len(blocks), len(expected))
		return
	}
	for i, want := range expected {
		got := blocks[i].Files
		if len(got) != len(want) {
			t.Errorf("block %d files: got %v, want %v", i, got, want)
			continue
		}
		for j := range want {
			if got[j] != want[j] {
				t.Errorf("block %d files: got %v, want %v", i, got, want)
				break
			}
		}
	}
}
