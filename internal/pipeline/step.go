package pipeline

import (
	"context"
	"strconv"
	"strings"
)

// Step is the uniform capability contract every analysis step implements.
// Apply may read and mutate the run context. Ordinary "nothing to do"
// outcomes are not errors; abnormal conditions are signaled by returning a
// typed failure which the executor converts into a warning or error entry.
//
// A step must be safe to re-run against a freshly built context: it may not
// depend on residual state from a previous unrelated run.
type Step interface {
	Apply(ctx context.Context, rc *RunContext, params Params) error
}

// Skipper is implemented by steps with an upstream-condition skip rule. When
// Skip returns true the executor records the step as skipped instead of
// invoking Apply.
type Skipper interface {
	Skip(rc *RunContext, params Params) (reason string, skip bool)
}

// Factory produces a step instance for one run.
type Factory func() Step

// Params is the per-step parameter mapping from PipelineStepConfig.
type Params map[string]any

// Bool returns the named parameter as a bool, or def when absent or not
// interpretable as one.
func (p Params) Bool(key string, def bool) bool {
	val, ok := p[key]
	if !ok {
		return def
	}
	switch v := val.(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return def
		}
		return parsed
	default:
		return def
	}
}

// String returns the named parameter as a string, or def when absent.
func (p Params) String(key, def string) string {
	val, ok := p[key]
	if !ok {
		return def
	}
	s, ok := val.(string)
	if !ok {
		return def
	}
	return s
}

// Float returns the named parameter as a float64, or def when absent or not
// numeric. JSON decoding yields float64 for all numbers.
func (p Params) Float(key string, def float64) float64 {
	val, ok := p[key]
	if !ok {
		return def
	}
	switch v := val.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return def
		}
		return parsed
	default:
		return def
	}
}
