package results

import "context"

// Repo defines persistence operations for analysis results.
type Repo interface {
	// Upsert writes the result for its review, replacing any prior one. The
	// stored row keeps the ID of the first write so ticket references stay
	// valid across re-runs; the returned result carries that ID.
	Upsert(ctx context.Context, result AnalysisResult) (AnalysisResult, error)
	GetByReviewID(ctx context.Context, reviewID string) (AnalysisResult, error)
	ListRecent(ctx context.Context, limit int) ([]AnalysisResult, error)
}
