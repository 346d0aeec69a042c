package reviews

import "context"

// Repo defines persistence operations for reviews.
type Repo interface {
	Create(ctx context.Context, review Review) error
	GetByID(ctx context.Context, reviewID string) (Review, error)
	List(ctx context.Context, appName string, limit, offset int) ([]Review, error)
	// ListUnanalyzed returns reviews with no analysis result yet, oldest
	// first, optionally filtered by app.
	ListUnanalyzed(ctx context.Context, appName string, limit int) ([]Review, error)
}
