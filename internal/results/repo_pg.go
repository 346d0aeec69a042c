package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Upsert inserts or replaces the analysis result for its review. The row ID
// from the first insert is preserved on conflict.
func (r *PGRepo) Upsert(ctx context.Context, result AnalysisResult) (AnalysisResult, error) {
	const query = `
INSERT INTO analysis_results (
	id, review_id, tone, issues, complex_review, flag_support, notes,
	confidence, source, full_payload, analyzed_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
ON CONFLICT (review_id) DO UPDATE SET
	tone = EXCLUDED.tone,
	issues = EXCLUDED.issues,
	complex_review = EXCLUDED.complex_review,
	flag_support = EXCLUDED.flag_support,
	notes = EXCLUDED.notes,
	confidence = EXCLUDED.confidence,
	source = EXCLUDED.source,
	full_payload = EXCLUDED.full_payload,
	analyzed_at = EXCLUDED.analyzed_at,
	updated_at = now()
RETURNING id`
	issuesJSON, err := json.Marshal(emptyIfNil(result.Issues))
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("marshal issues: %w", err)
	}
	payloadJSON, err := json.Marshal(result.FullPayload)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("marshal full payload: %w", err)
	}
	var storedID string
	err = r.DB.QueryRowContext(ctx, query,
		result.ID,
		result.ReviewID,
		result.Tone,
		issuesJSON,
		nullIfEmpty(result.ComplexReview),
		nullIfEmpty(result.FlagSupport),
		nullIfEmpty(result.Notes),
		result.Confidence,
		result.Source,
		payloadJSON,
		result.AnalyzedAt,
	).Scan(&storedID)
	if err != nil {
		return AnalysisResult{}, err
	}
	result.ID = storedID
	return result, nil
}

// GetByReviewID returns the analysis result for a review.
func (r *PGRepo) GetByReviewID(ctx context.Context, reviewID string) (AnalysisResult, error) {
	const query = `
SELECT id, review_id, tone, issues, complex_review, flag_support, notes,
       confidence, source, full_payload, analyzed_at
FROM analysis_results
WHERE review_id = $1
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, reviewID)
	result, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return AnalysisResult{}, ErrNotFound
	}
	return result, err
}

// ListRecent returns the most recently analyzed results.
func (r *PGRepo) ListRecent(ctx context.Context, limit int) ([]AnalysisResult, error) {
	const query = `
SELECT id, review_id, tone, issues, complex_review, flag_support, notes,
       confidence, source, full_payload, analyzed_at
FROM analysis_results
ORDER BY analyzed_at DESC
LIMIT $1`
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AnalysisResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (AnalysisResult, error) {
	var result AnalysisResult
	var issuesJSON []byte
	var payloadJSON []byte
	var complexReview, flagSupport, notes sql.NullString
	err := row.Scan(
		&result.ID,
		&result.ReviewID,
		&result.Tone,
		&issuesJSON,
		&complexReview,
		&flagSupport,
		&notes,
		&result.Confidence,
		&result.Source,
		&payloadJSON,
		&result.AnalyzedAt,
	)
	if err != nil {
		return AnalysisResult{}, err
	}
	result.ComplexReview = complexReview.String
	result.FlagSupport = flagSupport.String
	result.Notes = notes.String
	if len(issuesJSON) > 0 {
		if err := json.Unmarshal(issuesJSON, &result.Issues); err != nil {
			return AnalysisResult{}, fmt.Errorf("unmarshal issues: %w", err)
		}
	}
	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &result.FullPayload); err != nil {
			return AnalysisResult{}, fmt.Errorf("unmarshal full payload: %w", err)
		}
	}
	return result, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func emptyIfNil(issues []string) []string {
	if issues == nil {
		return []string{}
	}
	return issues
}

var _ Repo = (*PGRepo)(nil)
