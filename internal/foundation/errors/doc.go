// Package errors provides the classified error primitives used across repoexplorer.
//
// Errors carry a category (config, network, github, llm, ...), a severity, a retry
// strategy and structured context. Upstream clients classify failures once, close to
// the wire, and the presentation layers (HTTP adapter, CLI adapter, explorer view
// messages) branch on the classification instead of string matching.
//
// Example usage:
//
//	err := errors.GitHubError("list repositories failed").
//		WithCause(cause).
//		WithContext("owner", owner).
//		Build()
package errors
