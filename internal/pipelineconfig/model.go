package pipelineconfig

import "time"

// StepConfig is one row of per-deployment step configuration: which step runs
// for a run type, in what position, with what parameters. The pipeline reads
// these rows at plan-build time and never mutates them.
type StepConfig struct {
	ID        string         `json:"id"`
	RunType   string         `json:"runType"`
	StepKey   string         `json:"stepKey"`
	Enabled   bool           `json:"enabled"`
	Order     int            `json:"order"`
	Params    map[string]any `json:"params,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// PromptTemplate is a stored system prompt for the LLM analysis step,
// addressed by prompt_id with an active flag per version.
type PromptTemplate struct {
	ID       string `json:"id"`
	PromptID string `json:"promptId"`
	Version  string `json:"version"`
	Body     string `json:"body"`
	IsActive bool   `json:"isActive"`
}
