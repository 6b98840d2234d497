// Package handlers contains HTTP handlers for the repoexplorer HTTP surface.
//
// This package provides handlers for:
//   - Explorer sessions and their actions (JSON API)
//   - The server-rendered HTML view of a session
//   - Insight history
//   - Health endpoints
//
// Errors are reported through the foundation/errors HTTP adapter so every
// JSON error body has the same shape.
package handlers
