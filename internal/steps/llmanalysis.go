package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"review-backend/internal/llm"
	"review-backend/internal/pipeline"
	"review-backend/internal/pipelineconfig"
	"review-backend/internal/shared/metrics"
	"review-backend/internal/shared/telemetry"
)

// Extra keys owned by the LLM analysis step.
const (
	llmRawKey        = "llm_analysis.raw"
	llmCostKey       = "llm_analysis.cost"
	llmNotesKey      = "llm_analysis.notes"
	llmConfidenceKey = "llm_analysis.confidence"
	llmSourceKey     = "llm_analysis.source"
)

// Flat-rate cost estimate per call, based on observed average token usage
// for this prompt.
const (
	avgInputTokens      = 200
	avgOutputTokens     = 100
	inputPricePerToken  = 0.0000001
	outputPricePerToken = 0.0000004
)

// LLMStep escalates complex reviews to an external model. The response must
// be the strict JSON object the prompt demands; the parsed fields refine the
// tone, issues and complexity signals produced by the local steps. Any call
// failure degrades the run to the local signals, never aborts it.
type LLMStep struct {
	Client       llm.Client
	Templates    pipelineconfig.TemplateRepo
	DefaultModel string
	Timeout      time.Duration
}

// Skip declines the external call for non-complex reviews when
// skip_if_simple is enabled.
func (s *LLMStep) Skip(rc *pipeline.RunContext, params pipeline.Params) (string, bool) {
	if params.Bool("skip_if_simple", true) && rc.ComplexReview == "" {
		return "review not complex", true
	}
	return "", false
}

// llmResponse mirrors the JSON object the system prompt demands.
type llmResponse struct {
	Tone          string   `json:"tone"`
	Issues        []string `json:"issues"`
	ComplexReview *string  `json:"complex_review"`
	Notes         *string  `json:"notes"`
	Confidence    float64  `json:"confidence"`
}

func (s *LLMStep) Apply(ctx context.Context, rc *pipeline.RunContext, params pipeline.Params) error {
	if s.Client == nil {
		return pipeline.Recoverable("llm client not configured", nil)
	}

	req := llm.CompletionRequest{
		Model:        params.String("model", s.DefaultModel),
		SystemPrompt: s.systemPrompt(ctx, params.String("prompt_id", llm.DefaultPromptID)),
		UserInput: fmt.Sprintf("Review rating: %d\nTitle: %s\nContent: %s",
			rc.Review.Rating, rc.Review.Title, rc.Review.Content),
		APIKey: params.String("api_key", ""),
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	metrics.IncLLMCalls()
	raw, err := s.Client.Complete(callCtx, req)
	if err != nil {
		return pipeline.Recoverable("llm completion failed", err)
	}
	rc.Extra[llmRawKey] = raw

	var parsed llmResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return pipeline.Recoverable("llm response is not the expected JSON", err)
	}

	if tone, ok := normalizeTone(parsed.Tone); ok {
		rc.Tone = tone
	}
	if parsed.Issues != nil {
		rc.Issues = parsed.Issues
	}
	if parsed.ComplexReview != nil {
		rc.ComplexReview = *parsed.ComplexReview
	} else {
		rc.ComplexReview = ""
	}
	if parsed.Notes != nil {
		rc.Extra[llmNotesKey] = *parsed.Notes
	}
	rc.Extra[llmConfidenceKey] = parsed.Confidence
	rc.Extra[llmSourceKey] = "llm"
	rc.Extra[llmCostKey] = avgInputTokens*inputPricePerToken + avgOutputTokens*outputPricePerToken

	return nil
}

// systemPrompt resolves the stored template for promptID, falling back to
// the embedded default when no active version exists.
func (s *LLMStep) systemPrompt(ctx context.Context, promptID string) string {
	if s.Templates == nil {
		return llm.DefaultPrompt()
	}
	tpl, err := s.Templates.GetActive(ctx, promptID)
	if err != nil {
		if !errors.Is(err, pipelineconfig.ErrTemplateNotFound) {
			telemetry.Warn("llm.prompt_lookup_failed", map[string]any{
				"prompt_id": promptID,
				"error":     err.Error(),
			})
		}
		return llm.DefaultPrompt()
	}
	return tpl.Body
}

var validTones = map[string]bool{
	pipeline.ToneVeryNegative: true,
	pipeline.ToneNegative:     true,
	pipeline.ToneNeutral:      true,
	pipeline.TonePositive:     true,
	pipeline.ToneVeryPositive: true,
}

// normalizeTone maps model output variants ("Very Negative", "negative") to
// the canonical enumeration. Unknown values are dropped so a malformed tone
// never clobbers the local classification.
func normalizeTone(tone string) (string, bool) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(tone)), " ", "_")
	if validTones[normalized] {
		return normalized, true
	}
	return "", false
}
