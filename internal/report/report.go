// Package report renders duplication results for terminals and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/ivoronin/repolizer/internal/duplication"
	"github.com/ivoronin/repolizer/internal/language"
)

// Theme defines the color scheme for console output
type Theme struct {
	Score    lipgloss.Style
	Location lipgloss.Style
	LineNum  lipgloss.Style
	Summary  lipgloss.Style
	Dim      lipgloss.Style
	Warn     lipgloss.Style
}

// DefaultTheme is the default color scheme
var DefaultTheme = Theme{
	Score:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
	Location: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	LineNum:  lipgloss.NewStyle().Foreground(lipgloss.Color("221")),
	Summary:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82")),
	Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	Warn:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Text writes a human-readable report of res.
func Text(w io.Writer, res *duplication.Result, theme Theme) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n",
		theme.Summary.Render(fmt.Sprintf("Duplication %.2f%%", res.DuplicationPercentage)),
		theme.Score.Render(fmt.Sprintf("score %d", res.DuplicationScore)))
	fmt.Fprintf(&b, "%s lines analyzed, %s duplicated in %s files\n",
		humanize.Comma(int64(res.TotalLinesAnalyzed)),
		humanize.Comma(int64(res.DuplicateLines)),
		humanize.Comma(int64(res.FilesChecked)))

	if skipped := res.FilesSkipped + res.FilesTimedOut + res.FilesErrored; skipped > 0 {
		fmt.Fprintln(&b, theme.Warn.Render(fmt.Sprintf("Not analyzed: %d skipped, %d timed out, %d errors",
			res.FilesSkipped, res.FilesTimedOut, res.FilesErrored)))
	}

	writeLanguages(&b, res, theme)
	writeBlocks(&b, res, theme)

	fmt.Fprintf(&b, "\n%s\n", theme.Dim.Render(fmt.Sprintf("Scanned %d files in %s",
		res.FilesScanned, (time.Duration(res.DurationMS)*time.Millisecond).String())))

	_, err := io.WriteString(w, b.String())
	return err
}

func writeLanguages(b *strings.Builder, res *duplication.Result, theme Theme) {
	var rows []language.Language
	for _, lang := range language.Known() {
		if res.LanguageStats[lang].Files > 0 {
			rows = append(rows, lang)
		}
	}
	if len(rows) == 0 {
		return
	}

	fmt.Fprintf(b, "\n%s\n", theme.Summary.Render("By language:"))
	for _, lang := range rows {
		stats := res.LanguageStats[lang]
		dup := res.DuplicationByLanguage[lang]
		fmt.Fprintf(b, "  %-12s %s %s %s\n",
			lang,
			theme.Dim.Render(fmt.Sprintf("%5d files %8s lines", stats.Files, humanize.Comma(int64(stats.Lines)))),
			theme.LineNum.Render(fmt.Sprintf("%8s duplicated", humanize.Comma(int64(dup.DuplicateLines)))),
			theme.Score.Render(fmt.Sprintf("%6.2f%%", dup.Percentage)))
	}
}

func writeBlocks(b *strings.Builder, res *duplication.Result, theme Theme) {
	if len(res.DuplicateBlocks) == 0 {
		return
	}

	fmt.Fprintf(b, "\n%s\n", theme.Summary.Render(fmt.Sprintf("Duplicate blocks (showing %d):", len(res.DuplicateBlocks))))
	for _, block := range res.DuplicateBlocks {
		fmt.Fprintf(b, "\n%s %s %s\n",
			theme.Score.Render(string(block.Language)),
			theme.Dim.Render(fmt.Sprintf("[%d lines]", block.Size)),
			theme.Dim.Render(fmt.Sprintf("found %d times", len(block.Files))))
		for i, file := range block.Files {
			fmt.Fprintf(b, "  %s%s%s\n",
				theme.Location.Render(file),
				theme.Dim.Render(":"),
				theme.LineNum.Render(fmt.Sprintf("%d", block.LineNumbers[i])))
		}
		for _, line := range strings.Split(block.Snippet, "\n") {
			fmt.Fprintf(b, "    %s\n", theme.Dim.Render(line))
		}
	}
}
