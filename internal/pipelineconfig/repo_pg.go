package pipelineconfig

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// PGRepo implements Repo and TemplateRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// ListEnabled returns enabled step configs for a run type in (order, key)
// order.
func (r *PGRepo) ListEnabled(ctx context.Context, runType string) ([]StepConfig, error) {
	const query = `
SELECT id, run_type, step_key, enabled, exec_order, params, updated_at
FROM pipeline_step_configs
WHERE run_type = $1 AND enabled
ORDER BY exec_order, step_key`
	return r.list(ctx, query, runType)
}

// ListAll returns every step config row for a run type.
func (r *PGRepo) ListAll(ctx context.Context, runType string) ([]StepConfig, error) {
	const query = `
SELECT id, run_type, step_key, enabled, exec_order, params, updated_at
FROM pipeline_step_configs
WHERE run_type = $1
ORDER BY exec_order, step_key`
	return r.list(ctx, query, runType)
}

func (r *PGRepo) list(ctx context.Context, query, runType string) ([]StepConfig, error) {
	rows, err := r.DB.QueryContext(ctx, query, runType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StepConfig
	for rows.Next() {
		var cfg StepConfig
		var paramsJSON []byte
		if err := rows.Scan(&cfg.ID, &cfg.RunType, &cfg.StepKey, &cfg.Enabled, &cfg.Order, &paramsJSON, &cfg.UpdatedAt); err != nil {
			return nil, err
		}
		if len(paramsJSON) > 0 {
			if err := json.Unmarshal(paramsJSON, &cfg.Params); err != nil {
				return nil, fmt.Errorf("unmarshal step params for %s: %w", cfg.StepKey, err)
			}
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

// UpsertStep inserts or updates one step config row.
func (r *PGRepo) UpsertStep(ctx context.Context, cfg StepConfig) error {
	const query = `
INSERT INTO pipeline_step_configs (id, run_type, step_key, enabled, exec_order, params, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
ON CONFLICT (run_type, step_key) DO UPDATE SET
	enabled = EXCLUDED.enabled,
	exec_order = EXCLUDED.exec_order,
	params = EXCLUDED.params,
	updated_at = now()`
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	params := cfg.Params
	if params == nil {
		params = map[string]any{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal step params: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query, cfg.ID, cfg.RunType, cfg.StepKey, cfg.Enabled, cfg.Order, paramsJSON)
	return err
}

// GetActive returns the active template for a prompt id.
func (r *PGRepo) GetActive(ctx context.Context, promptID string) (PromptTemplate, error) {
	const query = `
SELECT id, prompt_id, version, body, is_active
FROM prompt_templates
WHERE prompt_id = $1 AND is_active
ORDER BY version DESC
LIMIT 1`
	var tpl PromptTemplate
	err := r.DB.QueryRowContext(ctx, query, promptID).Scan(&tpl.ID, &tpl.PromptID, &tpl.Version, &tpl.Body, &tpl.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return PromptTemplate{}, ErrTemplateNotFound
	}
	if err != nil {
		return PromptTemplate{}, err
	}
	return tpl, nil
}

// UpsertTemplate inserts or updates a prompt template version.
func (r *PGRepo) UpsertTemplate(ctx context.Context, tpl PromptTemplate) error {
	const query = `
INSERT INTO prompt_templates (id, prompt_id, version, body, is_active)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (prompt_id, version) DO UPDATE SET
	body = EXCLUDED.body,
	is_active = EXCLUDED.is_active`
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	_, err := r.DB.ExecContext(ctx, query, tpl.ID, tpl.PromptID, tpl.Version, tpl.Body, tpl.IsActive)
	return err
}

var (
	_ Repo         = (*PGRepo)(nil)
	_ TemplateRepo = (*PGRepo)(nil)
)
