package pipeline

import (
	"sort"

	"review-backend/internal/reviews"
)

// Tone is the five-level classification produced by analysis steps.
const (
	ToneVeryNegative = "very_negative"
	ToneNegative     = "negative"
	ToneNeutral      = "neutral"
	TonePositive     = "positive"
	ToneVeryPositive = "very_positive"
)

// Note is a (step key, message) pair recorded for a step's warning or error.
type Note struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// RunContext is the mutable data carrier threaded through one pipeline run.
// It is owned exclusively by that run; no synchronization is needed.
//
// Tone, ComplexReview and FlagSupport are last-writer-wins so later steps may
// refine earlier classifications. Issues, ExecutedSteps, Warnings and Errors
// are append-only.
type RunContext struct {
	Review reviews.Review

	Tone          string
	Issues        []string
	ComplexReview string
	FlagSupport   string

	ExecutedSteps []string
	Warnings      []Note
	Errors        []Note

	// Extra carries signals not covered by the fixed fields above. Keys are
	// namespaced by step key ("tone_detection.polarity") to bound coupling
	// between unrelated steps.
	Extra map[string]any
}

// NewRunContext builds a fresh context for one run of the given review.
func NewRunContext(review reviews.Review) *RunContext {
	return &RunContext{
		Review: review,
		Extra:  make(map[string]any),
	}
}

const skippedSuffix = " (skipped)"

// RecordExecuted appends a step key that ran to completion.
func (rc *RunContext) RecordExecuted(key string) {
	rc.ExecutedSteps = append(rc.ExecutedSteps, key)
}

// RecordSkipped appends a step key with the skip marker so downstream steps
// and the persisted payload can tell invoked-and-succeeded apart from skipped.
func (rc *RunContext) RecordSkipped(key string) {
	rc.ExecutedSteps = append(rc.ExecutedSteps, key+skippedSuffix)
}

// AddWarning records a recoverable failure for the given step.
func (rc *RunContext) AddWarning(step, message string) {
	rc.Warnings = append(rc.Warnings, Note{Step: step, Message: message})
}

// AddError records a failure that stopped the step's own work.
func (rc *RunContext) AddError(step, message string) {
	rc.Errors = append(rc.Errors, Note{Step: step, Message: message})
}

// HasProblems reports whether any issue is a "Problem:" entry.
func (rc *RunContext) HasProblems() bool {
	for _, issue := range rc.Issues {
		if len(issue) >= 8 && issue[:8] == "Problem:" {
			return true
		}
	}
	return false
}

// IsNegative reports whether the review reads as negative: rating <= 3 or a
// negative tone classification.
func (rc *RunContext) IsNegative() bool {
	if rc.Review.Rating <= 3 {
		return true
	}
	return rc.Tone == ToneNegative || rc.Tone == ToneVeryNegative
}

// ExtraKeys returns the sorted extra key set, used for diagnostics in the
// persisted payload.
func (rc *RunContext) ExtraKeys() []string {
	keys := make([]string, 0, len(rc.Extra))
	for k := range rc.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
