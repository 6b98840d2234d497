// Package llm talks to the generative-language API and builds the prompts
// used for repository summaries, code explanations and code conversions.
package llm

import "context"

// Generator produces text for a system instruction and a user query.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userQuery string) (string, error)
}

// ModelReporter is implemented by generators that know which model serves them.
type ModelReporter interface {
	Model() string
}

// ModelOf returns the model behind g, or "" when g does not report one.
func ModelOf(g Generator) string {
	if mr, ok := g.(ModelReporter); ok {
		return mr.Model()
	}
	return ""
}
