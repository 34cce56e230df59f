// Package language maps source file extensions to the languages whose
// duplication is measured independently.
package language

import (
	"path/filepath"
	"slices"
	"strings"
)

// Language is the name of a language bucket (e.g. "python").
type Language string

const (
	Python     Language = "python"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	Java       Language = "java"
	CSharp     Language = "csharp"
	Cpp        Language = "cpp"
	PHP        Language = "php"
	Ruby       Language = "ruby"
	Go         Language = "go"
	Rust       Language = "rust"
	Kotlin     Language = "kotlin"
	Swift      Language = "swift"
	HTML       Language = "html"
	CSS        Language = "css"
	Shell      Language = "shell"
)

// extensions lists the recognized extensions per language.
var extensions = map[Language][]string{
	Python:     {".py"},
	JavaScript: {".js", ".jsx"},
	TypeScript: {".ts", ".tsx"},
	Java:       {".java"},
	CSharp:     {".cs"},
	Cpp:        {".cpp", ".cc", ".cxx", ".h", ".hpp"},
	PHP:        {".php"},
	Ruby:       {".rb"},
	Go:         {".go"},
	Rust:       {".rs"},
	Kotlin:     {".kt", ".kts"},
	Swift:      {".swift"},
	HTML:       {".html", ".htm"},
	CSS:        {".css", ".scss", ".sass", ".less"},
	Shell:      {".sh", ".bash"},
}

// byExt is the reverse index of extensions, built once at init.
var byExt = func() map[string]Language {
	m := make(map[string]Language)
	for lang, exts := range extensions {
		for _, ext := range exts {
			m[ext] = lang
		}
	}
	return m
}()

// Classify returns the language of path based on its (case-insensitive) extension.
func Classify(path string) (Language, bool) {
	lang, ok := byExt[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// Known returns all recognized languages in sorted order.
func Known() []Language {
	langs := make([]Language, 0, len(extensions))
	for lang := range extensions {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs
}

