package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"review-backend/internal/reviews"
	"review-backend/internal/shared/telemetry"
)

// StepConfig is one enabled row of per-deployment step configuration,
// resolved against the registry at plan-build time.
type StepConfig struct {
	Key    string
	Order  int
	Params Params
}

// ConfigSource supplies the enabled step configuration for a run type.
// Implementations return a fully-built immutable snapshot; the executor never
// mutates it.
type ConfigSource interface {
	ListEnabledSteps(ctx context.Context, runType string) ([]StepConfig, error)
}

// Summary is the only synchronous value a run produces. Success is true
// unless the terminal persistence step failed to write any result at all.
type Summary struct {
	RunType       string        `json:"runType"`
	ReviewID      string        `json:"reviewId"`
	ExecutedSteps []string      `json:"executedSteps"`
	Warnings      []Note        `json:"warnings,omitempty"`
	Errors        []Note        `json:"errors,omitempty"`
	Success       bool          `json:"success"`
	Duration      time.Duration `json:"-"`
}

// Executor resolves configuration against the registry and runs pipelines.
type Executor struct {
	Registry *Registry
	Config   ConfigSource
}

type boundStep struct {
	key      string
	order    int
	params   Params
	step     Step
	terminal bool
}

// Plan is an ordered, resolved step sequence for one run type. Building a
// plan is the only phase that can abort: a ConfigurationError here means no
// step ever executes.
type Plan struct {
	RunType string
	steps   []boundStep
}

// BuildPlan loads the enabled step configs for runType, sorts them by
// (order, key), resolves each key via the registry, and validates the
// terminal persistence role. The terminal role is enforced structurally: the
// plan must contain exactly one terminal step and it must sort last.
func (e *Executor) BuildPlan(ctx context.Context, runType string) (*Plan, error) {
	configs, err := e.Config.ListEnabledSteps(ctx, runType)
	if err != nil {
		return nil, fmt.Errorf("load pipeline config: %w", err)
	}
	if len(configs) == 0 {
		return nil, &ConfigurationError{RunType: runType, Reason: "no steps enabled"}
	}

	// The config source may hand the same slice to concurrent builds; sort a
	// private copy so a shared snapshot stays immutable.
	configs = append([]StepConfig(nil), configs...)

	sort.SliceStable(configs, func(i, j int) bool {
		if configs[i].Order != configs[j].Order {
			return configs[i].Order < configs[j].Order
		}
		return configs[i].Key < configs[j].Key
	})

	bound := make([]boundStep, 0, len(configs))
	terminals := 0
	for _, cfg := range configs {
		step, err := e.Registry.Create(cfg.Key)
		if err != nil {
			var unknown *UnknownStepError
			if errors.As(err, &unknown) {
				return nil, &ConfigurationError{RunType: runType, Reason: err.Error()}
			}
			return nil, err
		}
		terminal := e.Registry.IsTerminal(cfg.Key)
		if terminal {
			terminals++
		}
		bound = append(bound, boundStep{
			key:      cfg.Key,
			order:    cfg.Order,
			params:   cfg.Params,
			step:     step,
			terminal: terminal,
		})
	}

	switch {
	case terminals == 0:
		return nil, &ConfigurationError{RunType: runType, Reason: "no terminal persistence step enabled"}
	case terminals > 1:
		return nil, &ConfigurationError{RunType: runType, Reason: "more than one terminal persistence step enabled"}
	case !bound[len(bound)-1].terminal:
		return nil, &ConfigurationError{RunType: runType, Reason: fmt.Sprintf("terminal persistence step must be ordered last, found %q last", bound[len(bound)-1].key)}
	}

	return &Plan{RunType: runType, steps: bound}, nil
}

// StepKeys returns the plan's step keys in execution order.
func (p *Plan) StepKeys() []string {
	keys := make([]string, len(p.steps))
	for i, s := range p.steps {
		keys[i] = s.key
	}
	return keys
}

// Run threads a fresh context through the plan's steps in order.
//
// Isolation is mandatory: one step's failure never prevents later steps,
// including persistence, from running — persistence must always have a chance
// to save whatever partial context exists. No run-phase failure propagates as
// an error; the caller observes everything through the summary.
func (p *Plan) Run(ctx context.Context, review reviews.Review) Summary {
	started := time.Now()
	rc := NewRunContext(review)
	success := true

	for _, bs := range p.steps {
		if skipper, ok := bs.step.(Skipper); ok {
			if reason, skip := skipper.Skip(rc, bs.params); skip {
				rc.RecordSkipped(bs.key)
				telemetry.Info("pipeline.step.skipped", map[string]any{
					"review_id": review.ID,
					"run_type":  p.RunType,
					"step":      bs.key,
					"reason":    reason,
				})
				continue
			}
		}

		err := applyStep(ctx, bs, rc)
		rc.RecordExecuted(bs.key)
		if err == nil {
			continue
		}

		var recoverable *RecoverableError
		var persistence *PersistenceError
		switch {
		case errors.As(err, &recoverable):
			rc.AddWarning(bs.key, recoverable.Error())
			telemetry.Info("pipeline.step.degraded", map[string]any{
				"review_id": review.ID,
				"run_type":  p.RunType,
				"step":      bs.key,
				"warning":   recoverable.Error(),
			})
		case errors.As(err, &persistence):
			rc.AddError(bs.key, persistence.Error())
			success = false
			telemetry.Error("pipeline.step.persistence_failed", map[string]any{
				"review_id": review.ID,
				"run_type":  p.RunType,
				"step":      bs.key,
				"error":     persistence.Error(),
			})
		default:
			rc.AddError(bs.key, err.Error())
			telemetry.Error("pipeline.step.failed", map[string]any{
				"review_id": review.ID,
				"run_type":  p.RunType,
				"step":      bs.key,
				"error":     err.Error(),
			})
		}
	}

	return Summary{
		RunType:       p.RunType,
		ReviewID:      review.ID,
		ExecutedSteps: rc.ExecutedSteps,
		Warnings:      rc.Warnings,
		Errors:        rc.Errors,
		Success:       success,
		Duration:      time.Since(started),
	}
}

// applyStep invokes one step, converting a panic into a step-level error so a
// contract violation inside one step cannot abort the run.
func applyStep(ctx context.Context, bs boundStep, rc *RunContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step panic: %v", r)
		}
	}()
	return bs.step.Apply(ctx, rc, bs.params)
}
