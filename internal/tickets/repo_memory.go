package tickets

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores tickets in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu  sync.RWMutex
	all []Ticket
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Insert appends a new ticket.
func (r *MemoryRepo) Insert(ctx context.Context, ticket Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = append(r.all, ticket)
	return nil
}

// ListByReview returns all tickets for one review, newest first.
func (r *MemoryRepo) ListByReview(ctx context.Context, reviewID string) ([]Ticket, error) {
	return r.List(ctx, Filter{ReviewID: reviewID, Limit: 500})
}

// List returns tickets matching the filter, newest first.
func (r *MemoryRepo) List(ctx context.Context, filter Filter) ([]Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var out []Ticket
	for _, ticket := range r.all {
		if filter.ReviewID != "" && ticket.ReviewID != filter.ReviewID {
			continue
		}
		if filter.Status != "" && ticket.Status != filter.Status {
			continue
		}
		if filter.MinPriority > 0 && ticket.Priority < filter.MinPriority {
			continue
		}
		out = append(out, ticket)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteClosedBefore removes closed tickets created before cutoff.
func (r *MemoryRepo) DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []Ticket
	var removed int64
	for _, ticket := range r.all {
		if ticket.Status == StatusClosed && ticket.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, ticket)
	}
	r.all = kept
	return removed, nil
}

var _ Repo = (*MemoryRepo)(nil)
