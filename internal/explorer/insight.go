package explorer

import (
	"context"
	"time"
)

// InsightKind names the kind of generated text.
type InsightKind string

const (
	InsightSummary     InsightKind = "summary"
	InsightExplanation InsightKind = "explanation"
	InsightConversion  InsightKind = "conversion"
)

// Insight outcomes reported to an InsightObserver.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeStale   = "stale"
)

// Insight is one piece of generated text together with what it was generated for.
type Insight struct {
	ID             int64       `json:"id,omitempty"`
	SessionID      string      `json:"session_id"`
	Kind           InsightKind `json:"kind"`
	Repository     string      `json:"repository"`
	Path           string      `json:"path,omitempty"`
	SourceLanguage string      `json:"source_language,omitempty"`
	TargetLanguage string      `json:"target_language,omitempty"`
	Model          string      `json:"model,omitempty"`
	Text           string      `json:"text"`
	CreatedAt      time.Time   `json:"created_at"`
}

// InsightRecorder persists generated insights.
type InsightRecorder interface {
	Record(ctx context.Context, in Insight) error
}

// InsightObserver counts insight outcomes by kind.
type InsightObserver interface {
	IncInsight(kind, outcome string)
}

type noopObserver struct{}

func (noopObserver) IncInsight(string, string) {}
