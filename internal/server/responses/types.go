// Package responses defines API response types used by the repoexplorer HTTP handlers.
package responses

import (
	"time"

	"git.home.luguber.info/inful/repoexplorer/internal/explorer"
)

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Version        string    `json:"version"`
	Uptime         float64   `json:"uptime"`
	ActiveSessions int       `json:"active_sessions"`
}

// HistoryResponse lists stored insights, newest first.
type HistoryResponse struct {
	Repository string             `json:"repository,omitempty"`
	Count      int                `json:"count"`
	Insights   []explorer.Insight `json:"insights"`
	Timestamp  time.Time          `json:"timestamp"`
}
