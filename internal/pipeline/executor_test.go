package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"review-backend/internal/reviews"
)

type staticConfig struct {
	steps []StepConfig
	err   error
}

func (s staticConfig) ListEnabledSteps(ctx context.Context, runType string) ([]StepConfig, error) {
	_ = ctx
	_ = runType
	return s.steps, s.err
}

type stepFunc func(ctx context.Context, rc *RunContext, params Params) error

func (f stepFunc) Apply(ctx context.Context, rc *RunContext, params Params) error {
	return f(ctx, rc, params)
}

func okStep() Step {
	return stepFunc(func(ctx context.Context, rc *RunContext, params Params) error {
		return nil
	})
}

type skippingStep struct {
	reason string
	skip   bool
}

func (s skippingStep) Apply(ctx context.Context, rc *RunContext, params Params) error {
	return nil
}

func (s skippingStep) Skip(rc *RunContext, params Params) (string, bool) {
	return s.reason, s.skip
}

func testReview() reviews.Review {
	return reviews.Review{ID: "rev-1", AppName: "puzzlequest", Rating: 3, Content: "fine"}
}

func newExecutor(t *testing.T, cfg ConfigSource, register func(r *Registry)) *Executor {
	t.Helper()
	r := NewRegistry()
	register(r)
	return &Executor{Registry: r, Config: cfg}
}

func TestBuildPlanSortsByOrderThenKey(t *testing.T) {
	cfg := staticConfig{steps: []StepConfig{
		{Key: "finish", Order: 100},
		{Key: "beta", Order: 10},
		{Key: "alpha", Order: 10},
		{Key: "gamma", Order: 5},
	}}
	ex := newExecutor(t, cfg, func(r *Registry) {
		r.MustRegister("alpha", okStep)
		r.MustRegister("beta", okStep)
		r.MustRegister("gamma", okStep)
		r.MustRegisterTerminal("finish", okStep)
	})

	plan, err := ex.BuildPlan(context.Background(), "default")
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	got := plan.StepKeys()
	want := []string{"gamma", "alpha", "beta", "finish"}
	if len(got) != len(want) {
		t.Fatalf("plan keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("plan keys = %v, want %v", got, want)
		}
	}
}

func TestBuildPlanConfigurationErrors(t *testing.T) {
	register := func(r *Registry) {
		r.MustRegister("work", okStep)
		r.MustRegisterTerminal("finish", okStep)
		r.MustRegisterTerminal("finish2", okStep)
	}

	tests := []struct {
		name  string
		steps []StepConfig
	}{
		{name: "no steps enabled", steps: nil},
		{name: "unknown step key", steps: []StepConfig{
			{Key: "mystery", Order: 1},
			{Key: "finish", Order: 100},
		}},
		{name: "no terminal step", steps: []StepConfig{
			{Key: "work", Order: 1},
		}},
		{name: "two terminal steps", steps: []StepConfig{
			{Key: "finish", Order: 90},
			{Key: "finish2", Order: 100},
		}},
		{name: "terminal not last", steps: []StepConfig{
			{Key: "finish", Order: 1},
			{Key: "work", Order: 2},
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ex := newExecutor(t, staticConfig{steps: tc.steps}, register)
			_, err := ex.BuildPlan(context.Background(), "default")
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("err = %v, want ConfigurationError", err)
			}
			if cfgErr.RunType != "default" {
				t.Fatalf("RunType = %q", cfgErr.RunType)
			}
		})
	}
}

func TestBuildPlanConfigSourceFailure(t *testing.T) {
	ex := newExecutor(t, staticConfig{err: errors.New("db down")}, func(r *Registry) {
		r.MustRegisterTerminal("finish", okStep)
	})

	_, err := ex.BuildPlan(context.Background(), "default")
	if err == nil {
		t.Fatal("expected error")
	}
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		t.Fatalf("config source failure should not be a ConfigurationError: %v", err)
	}
}

func TestRunRecoverableBecomesWarning(t *testing.T) {
	warn := func() Step {
		return stepFunc(func(ctx context.Context, rc *RunContext, params Params) error {
			return Recoverable("provider unavailable", nil)
		})
	}
	cfg := staticConfig{steps: []StepConfig{
		{Key: "warn", Order: 1},
		{Key: "finish", Order: 100},
	}}
	ex := newExecutor(t, cfg, func(r *Registry) {
		r.MustRegister("warn", warn)
		r.MustRegisterTerminal("finish", okStep)
	})

	plan, err := ex.BuildPlan(context.Background(), "default")
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	summary := plan.Run(context.Background(), testReview())

	if !summary.Success {
		t.Fatal("warnings must not fail the run")
	}
	if len(summary.Warnings) != 1 || summary.Warnings[0].Step != "warn" {
		t.Fatalf("warnings = %+v", summary.Warnings)
	}
	if len(summary.ExecutedSteps) != 2 {
		t.Fatalf("executed = %v", summary.ExecutedSteps)
	}
}

func TestRunPersistenceFailureMarksUnsuccessful(t *testing.T) {
	failingTerminal := func() Step {
		return stepFunc(func(ctx context.Context, rc *RunContext, params Params) error {
			return &PersistenceError{Err: errors.New("insert failed")}
		})
	}
	cfg := staticConfig{steps: []StepConfig{
		{Key: "work", Order: 1},
		{Key: "finish", Order: 100},
	}}
	ex := newExecutor(t, cfg, func(r *Registry) {
		r.MustRegister("work", okStep)
		r.MustRegisterTerminal("finish", failingTerminal)
	})

	plan, _ := ex.BuildPlan(context.Background(), "default")
	summary := plan.Run(context.Background(), testReview())

	if summary.Success {
		t.Fatal("persistence failure must mark the run unsuccessful")
	}
	if len(summary.Errors) != 1 || summary.Errors[0].Step != "finish" {
		t.Fatalf("errors = %+v", summary.Errors)
	}
}

func TestRunStepFailureDoesNotStopLaterSteps(t *testing.T) {
	var terminalRan bool
	failing := func() Step {
		return stepFunc(func(ctx context.Context, rc *RunContext, params Params) error {
			return errors.New("boom")
		})
	}
	terminal := func() Step {
		return stepFunc(func(ctx context.Context, rc *RunContext, params Params) error {
			terminalRan = true
			return nil
		})
	}
	cfg := staticConfig{steps: []StepConfig{
		{Key: "fail", Order: 1},
		{Key: "finish", Order: 100},
	}}
	ex := newExecutor(t, cfg, func(r *Registry) {
		r.MustRegister("fail", failing)
		r.MustRegisterTerminal("finish", terminal)
	})

	plan, _ := ex.BuildPlan(context.Background(), "default")
	summary := plan.Run(context.Background(), testReview())

	if !terminalRan {
		t.Fatal("terminal step must run after an earlier step fails")
	}
	if !summary.Success {
		t.Fatal("a non-persistence step failure must not fail the run")
	}
	if len(summary.Errors) != 1 || summary.Errors[0].Step != "fail" {
		t.Fatalf("errors = %+v", summary.Errors)
	}
}

func TestRunRecoversStepPanic(t *testing.T) {
	panicking := func() Step {
		return stepFunc(func(ctx context.Context, rc *RunContext, params Params) error {
			panic("nil map write")
		})
	}
	cfg := staticConfig{steps: []StepConfig{
		{Key: "panic", Order: 1},
		{Key: "finish", Order: 100},
	}}
	ex := newExecutor(t, cfg, func(r *Registry) {
		r.MustRegister("panic", panicking)
		r.MustRegisterTerminal("finish", okStep)
	})

	plan, _ := ex.BuildPlan(context.Background(), "default")
	summary := plan.Run(context.Background(), testReview())

	if !summary.Success {
		t.Fatal("panic in a non-terminal step must not fail the run")
	}
	if len(summary.Errors) != 1 || summary.Errors[0].Step != "panic" {
		t.Fatalf("errors = %+v", summary.Errors)
	}
	if len(summary.ExecutedSteps) != 2 {
		t.Fatalf("executed = %v", summary.ExecutedSteps)
	}
}

func TestRunRecordsSkippedSteps(t *testing.T) {
	skipper := func() Step { return skippingStep{reason: "nothing to do", skip: true} }
	cfg := staticConfig{steps: []StepConfig{
		{Key: "maybe", Order: 1},
		{Key: "finish", Order: 100},
	}}
	ex := newExecutor(t, cfg, func(r *Registry) {
		r.MustRegister("maybe", skipper)
		r.MustRegisterTerminal("finish", okStep)
	})

	plan, _ := ex.BuildPlan(context.Background(), "default")
	summary := plan.Run(context.Background(), testReview())

	if len(summary.ExecutedSteps) != 2 {
		t.Fatalf("executed = %v", summary.ExecutedSteps)
	}
	if summary.ExecutedSteps[0] != "maybe (skipped)" {
		t.Fatalf("skip marker missing: %v", summary.ExecutedSteps)
	}
	if summary.ExecutedSteps[1] != "finish" {
		t.Fatalf("executed = %v", summary.ExecutedSteps)
	}
}

func TestRunEachRunGetsFreshContext(t *testing.T) {
	tagging := func() Step {
		return stepFunc(func(ctx context.Context, rc *RunContext, params Params) error {
			rc.Issues = append(rc.Issues, "Problem: crash (high severity)")
			return nil
		})
	}
	cfg := staticConfig{steps: []StepConfig{
		{Key: "tag", Order: 1},
		{Key: "finish", Order: 100},
	}}
	ex := newExecutor(t, cfg, func(r *Registry) {
		r.MustRegister("tag", tagging)
		r.MustRegisterTerminal("finish", okStep)
	})

	plan, _ := ex.BuildPlan(context.Background(), "default")
	first := plan.Run(context.Background(), testReview())
	second := plan.Run(context.Background(), testReview())

	if len(first.ExecutedSteps) != 2 || len(second.ExecutedSteps) != 2 {
		t.Fatalf("executed carried across runs: %v / %v", first.ExecutedSteps, second.ExecutedSteps)
	}
}

func TestBuildPlanDoesNotMutateConfigSlice(t *testing.T) {
	shared := []StepConfig{
		{Key: "finish", Order: 100},
		{Key: "beta", Order: 10},
		{Key: "alpha", Order: 10},
	}
	cfg := staticConfig{steps: shared}
	ex := newExecutor(t, cfg, func(r *Registry) {
		r.MustRegister("alpha", okStep)
		r.MustRegister("beta", okStep)
		r.MustRegisterTerminal("finish", okStep)
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ex.BuildPlan(context.Background(), "default"); err != nil {
				t.Errorf("BuildPlan: %v", err)
			}
		}()
	}
	wg.Wait()

	want := []string{"finish", "beta", "alpha"}
	for i, cfg := range shared {
		if cfg.Key != want[i] {
			t.Fatalf("source slice reordered: got %q at %d, want %q", cfg.Key, i, want[i])
		}
	}
}
