// Package types provides shared types used across the repolizer codebase.
package types

import (
	"cmp"
	"slices"
	"time"

	"github.com/ivoronin/repolizer/internal/language"
)

// FileInfo describes one eligible source file discovered by the walker.
// It is discarded once the file has been processed.
type FileInfo struct {
	Path     string // Absolute path
	RelPath  string // Slash-separated path relative to the scanned root
	Language language.Language
	Size     int64
	ModTime  time.Time
	Ino      uint64
}

// Line is one whitespace-stripped, non-blank source line.
type Line struct {
	Text   string
	Number int // 1-based line number in the original file
}

// SourceFile is a successfully read file ready for fingerprinting.
type SourceFile struct {
	Path     string // Reported path (relative to the scanned root)
	Language language.Language
	Lines    []Line
}

// Sorted is an ordered collection that maintains sort order by a key function.
// T is the element type, K is the comparable key type.
// Once constructed, items are guaranteed to be sorted by key.
type Sorted[T any, K cmp.Ordered] struct {
	items   []T
	keyFunc func(T) K
}

// NewSorted creates a sorted collection from items using keyFunc for ordering.
// Items are copied and stably sorted at construction time.
func NewSorted[T any, K cmp.Ordered](items []T, keyFunc func(T) K) Sorted[T, K] {
	sorted := make([]T, len(items))
	copy(sorted, items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return cmp.Compare(keyFunc(a), keyFunc(b))
	})
	return Sorted[T, K]{items: sorted, keyFunc: keyFunc}
}

// Items returns the sorted items.
func (s Sorted[T, K]) Items() []T { return s.items }

// Len returns the number of items.
func (s Sorted[T, K]) Len() int { return len(s.items) }

// Bucket holds the source files of one language, sorted by path so that
// fingerprint indexing is deterministic across runs.
type Bucket = Sorted[*SourceFile, string]

// NewBucket creates a Bucket sorted by reported path.
func NewBucket(files []*SourceFile) Bucket {
	return NewSorted(files, func(f *SourceFile) string { return f.Path })
}

// FileList is the walker output sorted by absolute path.
type FileList = Sorted[*FileInfo, string]

// NewFileList creates a FileList sorted by absolute path.
func NewFileList(files []*FileInfo) FileList {
	return NewSorted(files, func(f *FileInfo) string { return f.Path })
}
