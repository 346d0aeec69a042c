// Package steps holds the built-in analysis step implementations and their
// registry wiring. Each step closes over injected collaborators (signal
// providers, LLM client, repositories) so the pipeline engine stays free of
// domain dependencies.
package steps

import (
	"time"

	"review-backend/internal/llm"
	"review-backend/internal/nlp"
	"review-backend/internal/pipeline"
	"review-backend/internal/pipelineconfig"
	"review-backend/internal/results"
	"review-backend/internal/tickets"
)

// Stable step keys referenced by pipeline_step_configs rows.
const (
	KeyToneDetection   = "tone_detection"
	KeyIssueDetection  = "issue_detection"
	KeyComplexityCheck = "complexity_check"
	KeyLLMAnalysis     = "llm_analysis"
	KeyPersistence     = "persistence"
)

// Deps carries the collaborators the built-in steps are constructed with.
// Scorer, Entities, LLM and Templates are optional; a missing provider
// degrades the owning step instead of failing the run.
type Deps struct {
	Scorer    nlp.Scorer
	Entities  nlp.EntityExtractor
	LLM       llm.Client
	Templates pipelineconfig.TemplateRepo
	Results   results.Repo
	Tickets   tickets.Repo

	// LLMModel and LLMTimeout are process-level defaults; per-run-type step
	// params may override the model.
	LLMModel   string
	LLMTimeout time.Duration
}

// RegisterAll populates the registry with the five built-in steps. Called
// once at startup, before any run begins.
func RegisterAll(r *pipeline.Registry, deps Deps) error {
	if err := r.Register(KeyToneDetection, func() pipeline.Step {
		return &ToneStep{Scorer: deps.Scorer}
	}); err != nil {
		return err
	}
	if err := r.Register(KeyIssueDetection, func() pipeline.Step {
		return &IssueStep{Entities: deps.Entities}
	}); err != nil {
		return err
	}
	if err := r.Register(KeyComplexityCheck, func() pipeline.Step {
		return &ComplexityStep{Scorer: deps.Scorer}
	}); err != nil {
		return err
	}
	if err := r.Register(KeyLLMAnalysis, func() pipeline.Step {
		return &LLMStep{
			Client:       deps.LLM,
			Templates:    deps.Templates,
			DefaultModel: deps.LLMModel,
			Timeout:      deps.LLMTimeout,
		}
	}); err != nil {
		return err
	}
	return r.RegisterTerminal(KeyPersistence, func() pipeline.Step {
		return &PersistenceStep{Results: deps.Results, Tickets: deps.Tickets}
	})
}
