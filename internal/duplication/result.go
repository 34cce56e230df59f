package duplication

import (
	"github.com/ivoronin/repolizer/internal/language"
)

// Result is the outcome of one duplication analysis.
type Result struct {
	DuplicationDetected   bool                                      `json:"duplication_detected"`
	DuplicateBlocks       []Block                                   `json:"duplicate_blocks"`
	DuplicationPercentage float64                                   `json:"duplication_percentage"`
	TotalLinesAnalyzed    int                                       `json:"total_lines_analyzed"`
	DuplicateLines        int                                       `json:"duplicate_lines"`
	FilesChecked          int                                       `json:"files_checked"`
	FilesSkipped          int                                       `json:"files_skipped"`
	FilesTimedOut         int                                       `json:"files_timed_out"`
	FilesErrored          int                                       `json:"files_errored"`
	FilesScanned          int                                       `json:"files_scanned"`
	LanguageStats         map[language.Language]LanguageStats       `json:"language_stats"`
	DuplicationByLanguage map[language.Language]LanguageDuplication `json:"duplication_by_language"`
	DuplicationScore      int                                       `json:"duplication_score"`
	DurationMS            int64                                     `json:"duration_ms"`
}

// Block is one reported duplicate: a window of lines found at several places.
type Block struct {
	Files       []string          `json:"files"`
	LineNumbers []int             `json:"line_numbers"`
	Size        int               `json:"size"`
	Snippet     string            `json:"snippet"`
	Language    language.Language `json:"language"`
}

// LanguageStats counts the files and lines that contributed to a language bucket.
type LanguageStats struct {
	Files int `json:"files"`
	Lines int `json:"lines"`
}

// LanguageDuplication is the duplication measured within one language bucket.
type LanguageDuplication struct {
	DuplicateLines int     `json:"duplicate_lines"`
	Percentage     float64 `json:"percentage"`
}

// NewResult returns an empty result: every known language zero-filled,
// no duplication and a perfect score.
func NewResult() *Result {
	r := &Result{
		DuplicateBlocks:       []Block{},
		LanguageStats:         make(map[language.Language]LanguageStats),
		DuplicationByLanguage: make(map[language.Language]LanguageDuplication),
		DuplicationScore:      Score(0),
	}
	for _, lang := range language.Known() {
		r.LanguageStats[lang] = LanguageStats{}
		r.DuplicationByLanguage[lang] = LanguageDuplication{}
	}
	return r
}
