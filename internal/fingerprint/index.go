package fingerprint

import (
	"io"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/ivoronin/repolizer/internal/types"
)

// Size is the width of a fingerprint in bytes.
const Size = 16

// Fingerprint identifies the content of one line window.
type Fingerprint [Size]byte

// Occurrence locates one window in the indexed files.
type Occurrence struct {
	File     *types.SourceFile
	FileSeq  int // Order in which File was added to the index
	Position int // Index of the window's first line in File.Lines
	Line     int // Original 1-based line number of the window's first line
}

// Block is a fingerprint seen at least twice. Occurrences[0] is canonical.
type Block struct {
	Fingerprint Fingerprint
	Window      int
	Occurrences []Occurrence
}

// Text returns the canonical window's lines joined by newlines.
func (b Block) Text() string {
	first := b.Occurrences[0]
	lines := first.File.Lines[first.Position : first.Position+b.Window]
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}
	return strings.Join(texts, "\n")
}

// Index maps window fingerprints to their occurrences for one language bucket.
// Not safe for concurrent use.
type Index struct {
	window  int
	files   int
	windows int
	order   []Fingerprint                // Fingerprints in first-seen order
	occ     map[Fingerprint][]Occurrence // Append-only while indexing
	hasher  *blake3.Hasher
}

// NewIndex creates an empty index for windows of the given number of lines.
func NewIndex(window int) *Index {
	return &Index{
		window: max(window, 1),
		occ:    make(map[Fingerprint][]Occurrence),
		hasher: blake3.New(),
	}
}

// Window returns the window size in lines.
func (ix *Index) Window() int { return ix.window }

// Windows returns the number of windows indexed so far.
func (ix *Index) Windows() int { return ix.windows }

// Add indexes every window of f. Files shorter than one window add nothing.
func (ix *Index) Add(f *types.SourceFile) {
	seq := ix.files
	ix.files++

	for pos := 0; pos+ix.window <= len(f.Lines); pos++ {
		fp := ix.sum(f.Lines[pos : pos+ix.window])
		if _, seen := ix.occ[fp]; !seen {
			ix.order = append(ix.order, fp)
		}
		ix.occ[fp] = append(ix.occ[fp], Occurrence{
			File:     f,
			FileSeq:  seq,
			Position: pos,
			Line:     f.Lines[pos].Number,
		})
		ix.windows++
	}
}

// AddBucket indexes every file of a bucket in order.
func (ix *Index) AddBucket(b types.Bucket) {
	for _, f := range b.Items() {
		ix.Add(f)
	}
}

// Duplicates returns the blocks whose fingerprint occurs at least twice,
// in the order their fingerprints were first seen.
func (ix *Index) Duplicates() []Block {
	var blocks []Block
	for _, fp := range ix.order {
		occ := ix.occ[fp]
		if len(occ) < 2 {
			continue
		}
		blocks = append(blocks, Block{Fingerprint: fp, Window: ix.window, Occurrences: occ})
	}
	return blocks
}

// sum hashes the window's lines, each terminated by a newline so that
// line boundaries are part of the fingerprinted content.
func (ix *Index) sum(lines []types.Line) Fingerprint {
	ix.hasher.Reset()
	for _, l := range lines {
		_, _ = io.WriteString(ix.hasher, l.Text)
		_, _ = ix.hasher.Write([]byte{'\n'})
	}
	var fp Fingerprint
	copy(fp[:], ix.hasher.Sum(nil))
	return fp
}
