package tickets

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Insert appends a new ticket.
func (r *PGRepo) Insert(ctx context.Context, ticket Ticket) error {
	const query = `
INSERT INTO review_tickets (
	id, review_id, analysis_result_id, rule, status, priority, severity, issues, notes, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`
	issuesJSON, err := json.Marshal(ticket.Issues)
	if err != nil {
		return fmt.Errorf("marshal ticket issues: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query,
		ticket.ID,
		ticket.ReviewID,
		ticket.AnalysisResultID,
		ticket.Rule,
		ticket.Status,
		ticket.Priority,
		ticket.Severity,
		issuesJSON,
		ticket.Notes,
		ticket.CreatedAt,
	)
	return err
}

// ListByReview returns all tickets for one review, newest first.
func (r *PGRepo) ListByReview(ctx context.Context, reviewID string) ([]Ticket, error) {
	return r.List(ctx, Filter{ReviewID: reviewID, Limit: 500})
}

// List returns tickets matching the filter, newest first. The WHERE clause is
// assembled dynamically since every filter field is optional.
func (r *PGRepo) List(ctx context.Context, filter Filter) ([]Ticket, error) {
	builder := psql.
		Select("id", "review_id", "analysis_result_id", "rule", "status", "priority", "severity", "issues", "notes", "created_at").
		From("review_tickets").
		OrderBy("created_at DESC")

	if filter.ReviewID != "" {
		builder = builder.Where(sq.Eq{"review_id": filter.ReviewID})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.MinPriority > 0 {
		builder = builder.Where(sq.GtOrEq{"priority": filter.MinPriority})
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	builder = builder.Limit(uint64(limit))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ticket query: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ticket
	for rows.Next() {
		var ticket Ticket
		var issuesJSON []byte
		if err := rows.Scan(
			&ticket.ID,
			&ticket.ReviewID,
			&ticket.AnalysisResultID,
			&ticket.Rule,
			&ticket.Status,
			&ticket.Priority,
			&ticket.Severity,
			&issuesJSON,
			&ticket.Notes,
			&ticket.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(issuesJSON) > 0 {
			if err := json.Unmarshal(issuesJSON, &ticket.Issues); err != nil {
				return nil, fmt.Errorf("unmarshal ticket issues: %w", err)
			}
		}
		out = append(out, ticket)
	}
	return out, rows.Err()
}

// DeleteClosedBefore removes closed tickets last updated before cutoff.
func (r *PGRepo) DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM review_tickets WHERE status = $1 AND updated_at < $2`
	res, err := r.DB.ExecContext(ctx, query, StatusClosed, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ Repo = (*PGRepo)(nil)
