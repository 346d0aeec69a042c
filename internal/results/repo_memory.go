package results

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores analysis results in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu       sync.RWMutex
	byReview map[string]AnalysisResult
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byReview: make(map[string]AnalysisResult)}
}

// Upsert inserts or replaces the result for its review, keeping the ID of the
// first write.
func (r *MemoryRepo) Upsert(ctx context.Context, result AnalysisResult) (AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return AnalysisResult{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prior, ok := r.byReview[result.ReviewID]; ok {
		result.ID = prior.ID
	}
	r.byReview[result.ReviewID] = result
	return result, nil
}

// GetByReviewID returns the analysis result for a review.
func (r *MemoryRepo) GetByReviewID(ctx context.Context, reviewID string) (AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return AnalysisResult{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	result, ok := r.byReview[reviewID]
	if !ok {
		return AnalysisResult{}, ErrNotFound
	}
	return result, nil
}

// ListRecent returns results ordered by analysis time, newest first.
func (r *MemoryRepo) ListRecent(ctx context.Context, limit int) ([]AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]AnalysisResult, 0, len(r.byReview))
	for _, result := range r.byReview {
		out = append(out, result)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].AnalyzedAt.After(out[j].AnalyzedAt) })
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Has reports whether a result exists for the review. Used to wire the
// reviews repository's unanalyzed filter in memory mode.
func (r *MemoryRepo) Has(reviewID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byReview[reviewID]
	return ok
}

var _ Repo = (*MemoryRepo)(nil)
