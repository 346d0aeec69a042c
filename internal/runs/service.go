// Package runs orchestrates pipeline executions: the asynchronous trigger
// surface callers submit jobs through, and the processing entry point the
// worker and the inline fallback share.
package runs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"review-backend/internal/pipeline"
	"review-backend/internal/queue"
	"review-backend/internal/reviews"
	"review-backend/internal/shared/metrics"
	"review-backend/internal/shared/telemetry"
)

// Service wires review lookup, pipeline configuration and the job queue.
type Service struct {
	Reviews  reviews.Repo
	Config   pipeline.ConfigSource
	Registry *pipeline.Registry
	Queue    queue.Client

	// DefaultRunType is used when the caller does not name one.
	DefaultRunType string
}

func (s *Service) runType(requested string) string {
	if requested != "" {
		return requested
	}
	if s.DefaultRunType != "" {
		return s.DefaultRunType
	}
	return "default"
}

// Process runs the pipeline for one review synchronously. A build-phase
// ConfigurationError (and a missing review) surfaces as an error; run-phase
// issues only show in the summary.
func (s *Service) Process(ctx context.Context, reviewID, runType string) (pipeline.Summary, error) {
	runType = s.runType(runType)
	requestID := RequestIDFromContext(ctx)

	review, err := s.Reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, reviews.ErrNotFound) {
			return pipeline.Summary{}, err
		}
		return pipeline.Summary{}, fmt.Errorf("load review %s: %w", reviewID, err)
	}

	executor := &pipeline.Executor{Registry: s.Registry, Config: s.Config}
	plan, err := executor.BuildPlan(ctx, runType)
	if err != nil {
		metrics.IncRunAborted()
		fields := map[string]any{
			"review_id": reviewID,
			"run_type":  runType,
			"error":     err.Error(),
		}
		if requestID != "" {
			fields["request_id"] = requestID
		}
		telemetry.Error("run.aborted", fields)
		return pipeline.Summary{}, err
	}

	metrics.IncRunStarted()
	summary := plan.Run(ctx, review)
	metrics.ObserveRunDurationMs(float64(summary.Duration.Microseconds()) / 1000.0)
	metrics.AddStepWarnings(len(summary.Warnings))
	metrics.AddStepErrors(len(summary.Errors))
	if summary.Success {
		metrics.IncRunCompleted()
	} else {
		metrics.IncRunFailed()
	}

	fields := map[string]any{
		"review_id":      reviewID,
		"run_type":       runType,
		"success":        summary.Success,
		"executed_steps": summary.ExecutedSteps,
		"warnings":       len(summary.Warnings),
		"errors":         len(summary.Errors),
		"duration_ms":    float64(summary.Duration.Microseconds()) / 1000.0,
	}
	if requestID != "" {
		fields["request_id"] = requestID
	}
	telemetry.Info("run.completed", fields)
	return summary, nil
}

// Enqueue submits one analysis job per review. Results are not returned
// synchronously; callers poll the stored AnalysisResult. Unknown review ids
// are skipped and reported in the returned count.
//
// Without a configured queue the jobs run inline on goroutines, the dev
// fallback mode.
func (s *Service) Enqueue(ctx context.Context, reviewIDs []string, runType, requestID string) (int, error) {
	runType = s.runType(runType)
	queued := 0

	for _, reviewID := range reviewIDs {
		if reviewID == "" {
			continue
		}
		if _, err := s.Reviews.GetByID(ctx, reviewID); err != nil {
			if errors.Is(err, reviews.ErrNotFound) {
				telemetry.Warn("run.enqueue.unknown_review", map[string]any{
					"review_id":  reviewID,
					"request_id": requestID,
				})
				continue
			}
			return queued, fmt.Errorf("load review %s: %w", reviewID, err)
		}

		if s.Queue == nil {
			s.processInline(reviewID, runType)
			queued++
			continue
		}

		msg := queue.Message{
			ReviewID:   reviewID,
			RunType:    runType,
			RequestID:  requestID,
			EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
			Version:    1,
		}
		if err := s.Queue.Send(ctx, msg); err != nil {
			return queued, fmt.Errorf("enqueue review %s: %w", reviewID, err)
		}
		queued++
	}
	return queued, nil
}

// EnqueueUnanalyzed submits jobs for reviews that have no analysis result
// yet, optionally scoped to one app.
func (s *Service) EnqueueUnanalyzed(ctx context.Context, appName string, limit int, runType, requestID string) (int, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	pending, err := s.Reviews.ListUnanalyzed(ctx, appName, limit)
	if err != nil {
		return 0, fmt.Errorf("list unanalyzed reviews: %w", err)
	}
	ids := make([]string, len(pending))
	for i, review := range pending {
		ids[i] = review.ID
	}
	return s.Enqueue(ctx, ids, runType, requestID)
}

// processInline is the no-queue fallback. The job gets its own context; the
// HTTP request that triggered it has already been answered.
func (s *Service) processInline(reviewID, runType string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := s.Process(ctx, reviewID, runType); err != nil {
			telemetry.Error("run.inline_failed", map[string]any{
				"review_id": reviewID,
				"run_type":  runType,
				"error":     err.Error(),
			})
		}
	}()
}
