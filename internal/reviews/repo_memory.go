package reviews

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores reviews in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Review

	// Analyzed reports whether a review already has an analysis result.
	// Wired to the results repository by the caller; nil means "none do".
	Analyzed func(reviewID string) bool
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Review)}
}

// Create stores the review.
func (r *MemoryRepo) Create(ctx context.Context, review Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[review.ID] = review
	return nil
}

// GetByID returns a review by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, reviewID string) (Review, error) {
	if err := ctx.Err(); err != nil {
		return Review{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	review, ok := r.byID[reviewID]
	if !ok {
		return Review{}, ErrNotFound
	}
	return review, nil
}

// List returns reviews newest-first, optionally filtered by app.
func (r *MemoryRepo) List(ctx context.Context, appName string, limit, offset int) ([]Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	all := r.snapshot(appName)
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	limit = normalizeLimit(limit)
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// ListUnanalyzed returns reviews without an analysis result, oldest first.
func (r *MemoryRepo) ListUnanalyzed(ctx context.Context, appName string, limit int) ([]Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	all := r.snapshot(appName)
	analyzed := r.Analyzed
	r.mu.RUnlock()

	var out []Review
	for _, review := range all {
		if analyzed != nil && analyzed(review.ID) {
			continue
		}
		out = append(out, review)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit = normalizeLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) snapshot(appName string) []Review {
	out := make([]Review, 0, len(r.byID))
	for _, review := range r.byID {
		if appName != "" && review.AppName != appName {
			continue
		}
		out = append(out, review)
	}
	return out
}

var _ Repo = (*MemoryRepo)(nil)
