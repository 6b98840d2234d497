package llm

import (
	"fmt"
	"unicode/utf8"
)

// Input limits, in characters, for file bodies sent to the model.
const (
	MaxExplainInput = 10000
	MaxConvertInput = 15000

	explainTruncationSuffix = "\n\n[... content truncated for analysis.]"
	convertTruncationSuffix = "\n\n[... content truncated for conversion.]"
)

// Prompt is a system instruction paired with a user query.
type Prompt struct {
	System string
	Query  string
}

const summarySystemPrompt = "Act as a software architect. Provide a concise, single-paragraph summary (max 4 sentences) of the repository's core purpose, technologies, and features. Base your answer on the description and provided README content."

const explainSystemPrompt = "Act as a technical analyst. In one short, user-friendly paragraph (max 4 sentences), explain the primary function, key technologies/language, and importance of this file within a repository. Do not use markdown (e.g., code blocks or bolding) in the output."

const convertSystemPromptFormat = "You are a professional software engineer specializing in language translation. Convert the provided source code from %s to a functionally equivalent and idiomatic %s program. Provide ONLY the runnable code in your response, do not include any explanatory text, markdown formatting (like code blocks, headings), or comments outside of the code itself."

// SummaryPrompt asks for a short architectural summary of a repository.
// An empty readme tells the model to rely on the description alone.
func SummaryPrompt(description, readme string) Prompt {
	if description == "" {
		description = "No description provided."
	}
	if readme == "" {
		readme = "No README file found. Please rely solely on the description."
	}
	return Prompt{
		System: summarySystemPrompt,
		Query:  fmt.Sprintf("Repository Description: %s. README Content (if available): \n\n%s", description, readme),
	}
}

// ExplainPrompt asks for a plain-text explanation of a single file.
func ExplainPrompt(fileName, content string) Prompt {
	return Prompt{
		System: explainSystemPrompt,
		Query: fmt.Sprintf("Analyze the file named \"%s\" with the following content: \n\n%s",
			fileName, Truncate(content, MaxExplainInput, explainTruncationSuffix)),
	}
}

// ConvertPrompt asks for source code translated from one language to another.
func ConvertPrompt(sourceLang, targetLang, code string) Prompt {
	return Prompt{
		System: fmt.Sprintf(convertSystemPromptFormat, sourceLang, targetLang),
		Query: fmt.Sprintf("Convert the following %s code to %s:\n\n%s",
			sourceLang, targetLang, Truncate(code, MaxConvertInput, convertTruncationSuffix)),
	}
}

// Truncate keeps the first limit runes of s and appends suffix when anything was cut.
func Truncate(s string, limit int, suffix string) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i] + suffix
		}
		n++
	}
	return s
}
