package steps

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"review-backend/internal/pipeline"
	"review-backend/internal/results"
	"review-backend/internal/shared/metrics"
	"review-backend/internal/shared/telemetry"
	"review-backend/internal/tickets"
)

// Extra key holding the persisted result id for the caller's diagnostics.
const resultIDKey = "persistence.result_id"

// PersistenceStep is the terminal step: it snapshots the final context into
// the review's AnalysisResult and evaluates the ticket rules. The result
// write and the ticket writes are one logical unit; if the result write
// fails no tickets are created and the run is marked unsuccessful.
type PersistenceStep struct {
	Results results.Repo
	Tickets tickets.Repo
}

func (s *PersistenceStep) Apply(ctx context.Context, rc *pipeline.RunContext, params pipeline.Params) error {
	now := time.Now().UTC()

	// Support flag: a hidden issue inside a positive review. Persistence-time
	// signal, derived before the ticket rules that consume it.
	if rc.Review.Rating >= 4 && len(rc.Issues) > 0 {
		rc.FlagSupport = "Yes: Hidden issue in positive review"
	}

	stored, err := s.Results.Upsert(ctx, s.buildResult(rc, now))
	if err != nil {
		return &pipeline.PersistenceError{Err: err}
	}
	rc.Extra[resultIDKey] = stored.ID

	var failures []error
	for _, rule := range s.triggeredRules(rc, params) {
		ticket := s.buildTicket(rc, stored, rule, now)
		if err := s.Tickets.Insert(ctx, ticket); err != nil {
			failures = append(failures, err)
			telemetry.Error("persistence.ticket_insert_failed", map[string]any{
				"review_id": rc.Review.ID,
				"rule":      rule,
				"error":     err.Error(),
			})
			continue
		}
		metrics.IncTicketsCreated()
	}
	if len(failures) > 0 {
		return pipeline.Recoverable("insert tickets", errors.Join(failures...))
	}
	return nil
}

func (s *PersistenceStep) buildResult(rc *pipeline.RunContext, now time.Time) results.AnalysisResult {
	tone := rc.Tone
	if tone == "" {
		tone = pipeline.ToneNeutral
	}

	notes, _ := rc.Extra[llmNotesKey].(string)
	confidence, ok := rc.Extra[llmConfidenceKey].(float64)
	if !ok {
		confidence = 1.0
	}

	source := results.SourceNone
	if rc.Tone != "" || len(rc.Issues) > 0 {
		source = results.SourceLocal
	}
	if src, _ := rc.Extra[llmSourceKey].(string); src == "llm" {
		source = results.SourceLLM
	}

	// The executor records this step's key only after it returns, so the
	// persisted trail appends it here.
	executed := make([]string, 0, len(rc.ExecutedSteps)+1)
	executed = append(executed, rc.ExecutedSteps...)
	executed = append(executed, KeyPersistence)

	return results.AnalysisResult{
		ID:            uuid.NewString(),
		ReviewID:      rc.Review.ID,
		Tone:          tone,
		Issues:        rc.Issues,
		ComplexReview: rc.ComplexReview,
		FlagSupport:   rc.FlagSupport,
		Notes:         notes,
		Confidence:    confidence,
		Source:        source,
		FullPayload: map[string]any{
			"executed_steps":       executed,
			"processing_timestamp": now.Format(time.RFC3339),
			"context_keys":         rc.ExtraKeys(),
			"warnings":             rc.Warnings,
			"errors":               rc.Errors,
		},
		AnalyzedAt: now,
	}
}

// triggeredRules evaluates the three ticket rules independently; one run may
// create several tickets. The support rule ignores the two toggles.
func (s *PersistenceStep) triggeredRules(rc *pipeline.RunContext, params pipeline.Params) []string {
	var rules []string

	if params.Bool("auto_ticket_for_problems", true) && rc.HasProblems() {
		negativeOK := !params.Bool("ticket_only_for_negative", false) || rc.IsNegative()
		minSeverity := params.String("min_severity_for_ticket", tickets.SeverityMedium)
		if negativeOK && tickets.SeverityAtLeast(tickets.MaxIssueSeverity(rc.Issues), minSeverity) {
			rules = append(rules, tickets.RuleProblem)
		}
	}
	if params.Bool("auto_ticket_for_complex", true) && rc.ComplexReview != "" {
		rules = append(rules, tickets.RuleComplexity)
	}
	if rc.FlagSupport != "" {
		rules = append(rules, tickets.RuleSupportFlag)
	}
	return rules
}

func (s *PersistenceStep) buildTicket(rc *pipeline.RunContext, stored results.AnalysisResult, rule string, now time.Time) tickets.Ticket {
	tone := rc.Tone
	if tone == "" {
		tone = pipeline.ToneNeutral
	}
	severity := tickets.MaxIssueSeverity(rc.Issues)
	priority := tickets.Priority(tickets.PriorityInputs{
		Tone:        tone,
		MaxSeverity: severity,
		HasSupport:  rc.FlagSupport != "",
		HasComplex:  rc.ComplexReview != "",
	})

	return tickets.Ticket{
		ID:               uuid.NewString(),
		ReviewID:         rc.Review.ID,
		AnalysisResultID: stored.ID,
		Rule:             rule,
		Status:           tickets.StatusOpen,
		Priority:         priority,
		Severity:         severity,
		Issues:           rc.Issues,
		Notes:            ticketNotes(rc, rule),
		CreatedAt:        now,
	}
}

// ticketNotes summarizes the triggering signal for the triage workflow.
func ticketNotes(rc *pipeline.RunContext, rule string) string {
	switch rule {
	case tickets.RuleComplexity:
		return rc.ComplexReview
	case tickets.RuleSupportFlag:
		return rc.FlagSupport
	default:
		var problems []string
		for _, issue := range rc.Issues {
			if strings.HasPrefix(issue, "Problem:") {
				problems = append(problems, issue)
			}
		}
		return strings.Join(problems, "; ")
	}
}
