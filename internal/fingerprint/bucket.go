// Package fingerprint finds repeated line windows within a language bucket.
//
// # Processing Pipeline
//
//	Input: []types.Outcome (coordinator output, completion order)
//	    │
//	    ├──► BuildBuckets: keep Success outcomes, group by language, sort by path
//	    │
//	    ├──► Index.Add: slide a window of N lines (stride 1) over each file,
//	    │    hashing every window into a 128-bit fingerprint
//	    │
//	    └──► Index.Duplicates: fingerprints seen 2+ times, in first-seen order
//
// Indexing is single-threaded and runs after the parallel read phase has
// finished, so the occurrence lists are never mutated concurrently. Work is
// linear in the number of windows; files are never compared pairwise.
package fingerprint

import (
	"github.com/ivoronin/repolizer/internal/language"
	"github.com/ivoronin/repolizer/internal/types"
)

// BuildBuckets groups successfully read files by language.
// Outcomes other than Success contribute nothing. Each bucket is sorted by
// path, so the result does not depend on the order outcomes completed in.
func BuildBuckets(outcomes []types.Outcome) map[language.Language]types.Bucket {
	byLang := make(map[language.Language][]*types.SourceFile)
	for _, o := range outcomes {
		if o.Kind != types.OutcomeSuccess || o.Source == nil {
			continue
		}
		byLang[o.Source.Language] = append(byLang[o.Source.Language], o.Source)
	}

	buckets := make(map[language.Language]types.Bucket, len(byLang))
	for lang, files := range byLang {
		buckets[lang] = types.NewBucket(files)
	}
	return buckets
}
