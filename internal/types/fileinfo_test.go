package types

import (
	"errors"
	"strings"
	"testing"
)

// =============================================================================
// Section 1: Generic Sorted[T, K] Tests
// =============================================================================

// TestSortedBasic tests basic sorting with string keys.
func TestSortedBasic(t *testing.T) {
	items := []string{"charlie", "alpha", "bravo"}
	sorted := NewSorted(items, func(s string) string { return s })

	if sorted.Len() != 3 {
		t.Errorf("expected Len() = 3, got %d", sorted.Len())
	}

	expected := []string{"alpha", "bravo", "charlie"}
	for i, item := range sorted.Items() {
		if item != expected[i] {
			t.Errorf("Items()[%d] = %q, want %q", i, item, expected[i])
		}
	}
}

// TestSortedEmpty tests an empty collection.
func TestSortedEmpty(t *testing.T) {
	sorted := NewSorted([]string{}, func(s string) string { return s })

	if len(sorted.Items()) != 0 {
		t.Errorf("Items() on empty = %v, want none", sorted.Items())
	}
	if sorted.Len() != 0 {
		t.Errorf("Len() on empty = %d, want 0", sorted.Len())
	}
}

// TestSortedDoesNotMutateInput tests that input slice is not modified.
func TestSortedDoesNotMutateInput(t *testing.T) {
	original := []string{"charlie", "alpha", "bravo"}
	originalCopy := make([]string, len(original))
	copy(originalCopy, original)

	_ = NewSorted(original, func(s string) string { return s })

	for i := range original {
		if original[i] != originalCopy[i] {
			t.Errorf("Input was mutated: original[%d] = %q, was %q", i, original[i], originalCopy[i])
		}
	}
}

// TestSortedStableForEqualKeys tests that equal keys keep input order.
func TestSortedStableForEqualKeys(t *testing.T) {
	type item struct {
		key string
		seq int
	}
	items := []item{{"b", 0}, {"a", 1}, {"b", 2}, {"a", 3}}
	sorted := NewSorted(items, func(i item) string { return i.key })

	want := []int{1, 3, 0, 2}
	for i, it := range sorted.Items() {
		if it.seq != want[i] {
			t.Errorf("Items()[%d].seq = %d, want %d", i, it.seq, want[i])
		}
	}
}

// =============================================================================
// Section 2: Bucket and FileList Tests
// =============================================================================

// TestNewBucketSortsByPath tests that bucket files are ordered by reported path.
func TestNewBucketSortsByPath(t *testing.T) {
	files := []*SourceFile{
		{Path: "src/z.py"},
		{Path: "a.py"},
		{Path: "src/b.py"},
	}
	bucket := NewBucket(files)

	want := []string{"a.py", "src/b.py", "src/z.py"}
	for i, f := range bucket.Items() {
		if f.Path != want[i] {
			t.Errorf("Items()[%d].Path = %q, want %q", i, f.Path, want[i])
		}
	}
}

// TestNewFileListSortsByAbsolutePath tests walker output ordering.
func TestNewFileListSortsByAbsolutePath(t *testing.T) {
	list := NewFileList([]*FileInfo{{Path: "/r/b.go"}, {Path: "/r/a.go"}})
	if got := list.Items()[0].Path; got != "/r/a.go" {
		t.Errorf("Items()[0].Path = %q, want /r/a.go", got)
	}
}

// =============================================================================
// Section 3: Outcome Tests
// =============================================================================

// TestOutcomeConstructors tests that each constructor sets exactly its variant.
func TestOutcomeConstructors(t *testing.T) {
	fi := &FileInfo{Path: "/repo/a.py", RelPath: "a.py", Language: "python"}

	s := Success(fi, []Line{{Text: "x = 1", Number: 3}})
	if s.Kind != OutcomeSuccess || s.Source == nil {
		t.Fatalf("Success() = %+v", s)
	}
	if s.Source.Path != "a.py" || s.Source.Language != "python" || len(s.Source.Lines) != 1 {
		t.Errorf("Success().Source = %+v", s.Source)
	}

	if o := Skipped(fi, SkipSize); o.Kind != OutcomeSkipped || o.Reason != SkipSize || o.Source != nil {
		t.Errorf("Skipped() = %+v", o)
	}
	if o := TimedOut(fi); o.Kind != OutcomeTimedOut {
		t.Errorf("TimedOut() = %+v", o)
	}
	if o := Failed(fi, errors.New("boom")); o.Kind != OutcomeError || o.Message != "boom" {
		t.Errorf("Failed() = %+v", o)
	}
}

// TestOutcomeString tests log formatting of outcomes.
func TestOutcomeString(t *testing.T) {
	fi := &FileInfo{RelPath: "src/x.go"}
	tests := []struct {
		outcome Outcome
		want    string
	}{
		{Skipped(fi, SkipLines), "skipped src/x.go (lines)"},
		{Failed(fi, errors.New("denied")), "error src/x.go: denied"},
		{TimedOut(fi), "timed_out src/x.go"},
	}
	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	if !strings.HasPrefix(OutcomeKind(42).String(), "OutcomeKind(") {
		t.Errorf("unexpected String() for unknown kind: %q", OutcomeKind(42).String())
	}
}
