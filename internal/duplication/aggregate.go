package duplication

import (
	"math"
	"unicode/utf8"

	"github.com/ivoronin/repolizer/internal/fingerprint"
	"github.com/ivoronin/repolizer/internal/language"
	"github.com/ivoronin/repolizer/internal/types"
)

// Score maps a duplication percentage to a 1-100 score. The bands are coarse
// so that small changes near a boundary rarely move a repository's score.
func Score(percentage float64) int {
	switch {
	case percentage >= 40:
		return 1
	case percentage >= 30:
		return 20
	case percentage >= 20:
		return 40
	case percentage >= 10:
		return 60
	case percentage >= 5:
		return 80
	case percentage > 0:
		return 90
	default:
		return 100
	}
}

// Aggregate builds a Result from the coordinator's outcomes.
//
// Per language bucket, every window seen at least twice is a duplicate block.
// The first occurrence (in path order, then position) is canonical; each
// block adds window × (occurrences − 1) duplicate lines. Overlapping windows
// of a long shared run are each counted, so the per-language total is capped
// at the bucket's line count.
func Aggregate(outcomes []types.Outcome, opts Options) *Result {
	res := NewResult()

	for _, o := range outcomes {
		switch o.Kind {
		case types.OutcomeSuccess:
			res.FilesChecked++
		case types.OutcomeSkipped:
			res.FilesSkipped++
		case types.OutcomeTimedOut:
			res.FilesTimedOut++
		case types.OutcomeError:
			res.FilesErrored++
		}
	}

	buckets := fingerprint.BuildBuckets(outcomes)
	window := opts.window()

	for _, lang := range language.Known() {
		bucket, ok := buckets[lang]
		if !ok {
			continue
		}

		stats := LanguageStats{Files: bucket.Len()}
		for _, f := range bucket.Items() {
			stats.Lines += len(f.Lines)
		}
		res.LanguageStats[lang] = stats
		res.TotalLinesAnalyzed += stats.Lines

		ix := fingerprint.NewIndex(window)
		ix.AddBucket(bucket)
		blocks := ix.Duplicates()
		opts.logger().Debug("language indexed",
			"language", lang,
			"files", stats.Files,
			"window", ix.Window(),
			"windows", ix.Windows(),
			"duplicate_blocks", len(blocks))
		if len(blocks) > 0 {
			res.DuplicationDetected = true
		}

		dup := min(countDuplicateLines(blocks), stats.Lines)
		res.DuplicationByLanguage[lang] = LanguageDuplication{
			DuplicateLines: dup,
			Percentage:     percentage(dup, stats.Lines),
		}
		res.DuplicateLines += dup

		for _, b := range blocks {
			if len(res.DuplicateBlocks) >= opts.MaxExemplars {
				break
			}
			res.DuplicateBlocks = append(res.DuplicateBlocks, exemplar(lang, b, opts.SnippetLength))
		}
	}

	res.DuplicationPercentage = percentage(res.DuplicateLines, res.TotalLinesAnalyzed)
	res.DuplicationScore = Score(res.DuplicationPercentage)
	return res
}

// countDuplicateLines sums window × (occurrences − 1) over blocks.
func countDuplicateLines(blocks []fingerprint.Block) int {
	count := 0
	for _, b := range blocks {
		count += b.Window * (len(b.Occurrences) - 1)
	}
	return count
}

func exemplar(lang language.Language, b fingerprint.Block, snippetLength int) Block {
	out := Block{
		Files:       make([]string, len(b.Occurrences)),
		LineNumbers: make([]int, len(b.Occurrences)),
		Size:        b.Window,
		Snippet:     truncate(b.Text(), snippetLength),
		Language:    lang,
	}
	for i, occ := range b.Occurrences {
		out.Files[i] = occ.File.Path
		out.LineNumbers[i] = occ.Line
	}
	return out
}

// truncate cuts s to n characters, appending "..." when anything was cut.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// percentage returns part/total as a percentage rounded to 2 decimals, 0 when total is 0.
func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}
