package tickets

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("ticket not found")

// Filter narrows ticket listings. Zero values mean "no constraint".
type Filter struct {
	ReviewID    string
	Status      string
	MinPriority int
	Limit       int
}

// Repo defines persistence operations for tickets.
type Repo interface {
	Insert(ctx context.Context, ticket Ticket) error
	ListByReview(ctx context.Context, reviewID string) ([]Ticket, error)
	List(ctx context.Context, filter Filter) ([]Ticket, error)
	// DeleteClosedBefore removes closed tickets last updated before cutoff.
	// Maintenance only; never called from the pipeline.
	DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
