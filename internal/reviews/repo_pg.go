package reviews

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new review.
func (r *PGRepo) Create(ctx context.Context, review Review) error {
	const query = `
INSERT INTO reviews (id, app_name, platform, rating, title, content, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		review.ID,
		review.AppName,
		review.Platform,
		review.Rating,
		review.Title,
		review.Content,
		review.CreatedAt,
	)
	return err
}

// GetByID returns a review by ID.
func (r *PGRepo) GetByID(ctx context.Context, reviewID string) (Review, error) {
	const query = `
SELECT id, app_name, platform, rating, title, content, created_at
FROM reviews
WHERE id = $1
LIMIT 1`
	var review Review
	var title sql.NullString
	err := r.DB.QueryRowContext(ctx, query, reviewID).Scan(
		&review.ID,
		&review.AppName,
		&review.Platform,
		&review.Rating,
		&title,
		&review.Content,
		&review.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Review{}, ErrNotFound
	}
	if err != nil {
		return Review{}, err
	}
	review.Title = title.String
	return review, nil
}

// List returns reviews newest-first, optionally filtered by app.
func (r *PGRepo) List(ctx context.Context, appName string, limit, offset int) ([]Review, error) {
	const query = `
SELECT id, app_name, platform, rating, title, content, created_at
FROM reviews
WHERE ($1 = '' OR app_name = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, appName, normalizeLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReviews(rows)
}

// ListUnanalyzed returns reviews without an analysis result, oldest first.
func (r *PGRepo) ListUnanalyzed(ctx context.Context, appName string, limit int) ([]Review, error) {
	const query = `
SELECT r.id, r.app_name, r.platform, r.rating, r.title, r.content, r.created_at
FROM reviews r
LEFT JOIN analysis_results ar ON ar.review_id = r.id
WHERE ar.id IS NULL AND ($1 = '' OR r.app_name = $1)
ORDER BY r.created_at ASC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, appName, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReviews(rows)
}

func scanReviews(rows *sql.Rows) ([]Review, error) {
	var out []Review
	for rows.Next() {
		var review Review
		var title sql.NullString
		if err := rows.Scan(
			&review.ID,
			&review.AppName,
			&review.Platform,
			&review.Rating,
			&title,
			&review.Content,
			&review.CreatedAt,
		); err != nil {
			return nil, err
		}
		review.Title = title.String
		out = append(out, review)
	}
	return out, rows.Err()
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}

var _ Repo = (*PGRepo)(nil)
