package pipelineconfig

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo stores pipeline configuration in memory and is safe for
// concurrent use.
type MemoryRepo struct {
	mu        sync.RWMutex
	steps     map[string]map[string]StepConfig // run type -> step key -> config
	templates map[string]PromptTemplate        // prompt id -> active template
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		steps:     make(map[string]map[string]StepConfig),
		templates: make(map[string]PromptTemplate),
	}
}

// ListEnabled returns enabled step configs for a run type sorted by
// (order, key).
func (r *MemoryRepo) ListEnabled(ctx context.Context, runType string) ([]StepConfig, error) {
	all, err := r.ListAll(ctx, runType)
	if err != nil {
		return nil, err
	}
	var out []StepConfig
	for _, cfg := range all {
		if cfg.Enabled {
			out = append(out, cfg)
		}
	}
	return out, nil
}

// ListAll returns every step config row for a run type sorted by (order, key).
func (r *MemoryRepo) ListAll(ctx context.Context, runType string) ([]StepConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var out []StepConfig
	for _, cfg := range r.steps[runType] {
		out = append(out, cfg)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].StepKey < out[j].StepKey
	})
	return out, nil
}

// UpsertStep inserts or updates one step config row.
func (r *MemoryRepo) UpsertStep(ctx context.Context, cfg StepConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	cfg.UpdatedAt = time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	byKey, ok := r.steps[cfg.RunType]
	if !ok {
		byKey = make(map[string]StepConfig)
		r.steps[cfg.RunType] = byKey
	}
	if prior, exists := byKey[cfg.StepKey]; exists {
		cfg.ID = prior.ID
	}
	byKey[cfg.StepKey] = cfg
	return nil
}

// GetActive returns the active template for a prompt id.
func (r *MemoryRepo) GetActive(ctx context.Context, promptID string) (PromptTemplate, error) {
	if err := ctx.Err(); err != nil {
		return PromptTemplate{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.templates[promptID]
	if !ok || !tpl.IsActive {
		return PromptTemplate{}, ErrTemplateNotFound
	}
	return tpl, nil
}

// UpsertTemplate inserts or updates a prompt template.
func (r *MemoryRepo) UpsertTemplate(ctx context.Context, tpl PromptTemplate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[tpl.PromptID] = tpl
	return nil
}

var (
	_ Repo         = (*MemoryRepo)(nil)
	_ TemplateRepo = (*MemoryRepo)(nil)
)
