package results

import "time"

// Analysis sources.
const (
	SourceLocal = "local"
	SourceLLM   = "llm"
	SourceNone  = "none"
)

// AnalysisResult is the durable snapshot of a pipeline run's final context.
// It is a mutable 1:1 with its review: re-running analysis replaces the prior
// row rather than appending.
type AnalysisResult struct {
	ID            string         `json:"id"`
	ReviewID      string         `json:"reviewId"`
	Tone          string         `json:"tone"`
	Issues        []string       `json:"issues"`
	ComplexReview string         `json:"complexReview,omitempty"`
	FlagSupport   string         `json:"flagSupport,omitempty"`
	Notes         string         `json:"notes,omitempty"`
	Confidence    float64        `json:"confidence"`
	Source        string         `json:"source"`
	FullPayload   map[string]any `json:"fullPayload,omitempty"`
	AnalyzedAt    time.Time      `json:"analyzedAt"`
}
