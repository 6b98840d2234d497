package explorer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/repoexplorer/internal/foundation/normalization"
)

// UnknownLanguage is the source language of files with an unrecognized extension.
const UnknownLanguage = "Unknown"

// DefaultTargetLanguage is the conversion target of a new session.
const DefaultTargetLanguage = "Python"

// programExtensions are the extensions offered for conversion.
var programExtensions = map[string]bool{
	"py": true, "r": true, "js": true, "ts": true, "java": true,
	"cpp": true, "c": true, "go": true, "php": true,
}

var extensionLanguages = map[string]string{
	"py":   "Python",
	"r":    "R",
	"js":   "JavaScript",
	"ts":   "TypeScript",
	"java": "Java",
	"cpp":  "C++",
	"c":    "C",
	"go":   "Go",
	"php":  "PHP",
	"rs":   "Rust",
	"rb":   "Ruby",
	"sh":   "Shell",
}

// ConversionTargets lists the languages code can be converted to, in menu order.
var ConversionTargets = []string{"Python", "R", "TypeScript", "Go", "Java"}

var targetNormalizer = func() *normalization.Normalizer[string] {
	m := make(map[string]string, len(ConversionTargets))
	for _, t := range ConversionTargets {
		m[t] = t
	}
	return normalization.NewNormalizer(m, "")
}()

var languageNames = func() map[string]string {
	m := make(map[string]string, len(extensionLanguages))
	for _, name := range extensionLanguages {
		m[strings.ToLower(name)] = name
	}
	return m
}()

var titleCaser = cases.Title(language.English)

// extension returns the lowercased text after the last dot, or the whole
// lowercased name when there is no dot.
func extension(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}

// InferSourceLanguage maps a file name to a language name by extension.
func InferSourceLanguage(fileName string) string {
	if lang, ok := extensionLanguages[extension(fileName)]; ok {
		return lang
	}
	return UnknownLanguage
}

// IsProgramFile reports whether path has an extension offered for conversion.
func IsProgramFile(path string) bool {
	if path == "" {
		return false
	}
	return programExtensions[extension(path)]
}

// NormalizeTargetLanguage returns the canonical conversion target for raw.
func NormalizeTargetLanguage(raw string) (string, bool) {
	return targetNormalizer.Lookup(raw)
}

// CanonicalLanguageName spells a user-supplied language name the way the
// explorer does: known names keep their casing, others are title-cased.
func CanonicalLanguageName(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return UnknownLanguage
	}
	if name, ok := languageNames[strings.ToLower(raw)]; ok {
		return name
	}
	if strings.EqualFold(raw, UnknownLanguage) {
		return UnknownLanguage
	}
	return titleCaser.String(raw)
}
