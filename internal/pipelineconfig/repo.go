package pipelineconfig

import (
	"context"
	"errors"
)

var (
	ErrNotFound         = errors.New("pipeline config not found")
	ErrTemplateNotFound = errors.New("prompt template not found")
)

// Repo defines read and seed operations for pipeline configuration.
type Repo interface {
	// ListEnabled returns the enabled step configs for a run type, sorted by
	// (order, step key).
	ListEnabled(ctx context.Context, runType string) ([]StepConfig, error)
	ListAll(ctx context.Context, runType string) ([]StepConfig, error)
	// UpsertStep inserts or updates one step config row, keyed by
	// (run type, step key). Used by seeding, not by the pipeline.
	UpsertStep(ctx context.Context, cfg StepConfig) error
}

// TemplateRepo defines prompt template lookups.
type TemplateRepo interface {
	// GetActive returns the active template for a prompt id.
	GetActive(ctx context.Context, promptID string) (PromptTemplate, error)
	UpsertTemplate(ctx context.Context, tpl PromptTemplate) error
}
