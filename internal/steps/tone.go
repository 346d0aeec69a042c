package steps

import (
	"context"

	"review-backend/internal/nlp"
	"review-backend/internal/pipeline"
)

// Extra key holding the raw compound polarity for downstream steps.
const polarityKey = "tone_detection.polarity"

// ToneStep classifies the review body into the five-level tone enumeration
// from an injected sentiment scorer. Cut points are tunable through step
// params; the defaults match the prompt the LLM step is held to.
type ToneStep struct {
	Scorer nlp.Scorer
}

func (s *ToneStep) Apply(ctx context.Context, rc *pipeline.RunContext, params pipeline.Params) error {
	_ = ctx
	if s.Scorer == nil {
		return pipeline.Recoverable("sentiment scorer not configured", nil)
	}

	polarity := s.Scorer.Score(rc.Review.Content)
	rc.Extra[polarityKey] = polarity
	rc.Tone = classifyTone(polarity, params)
	return nil
}

func classifyTone(polarity float64, params pipeline.Params) string {
	switch {
	case polarity < params.Float("very_negative_below", -0.6):
		return pipeline.ToneVeryNegative
	case polarity < params.Float("negative_below", -0.2):
		return pipeline.ToneNegative
	case polarity <= params.Float("neutral_upto", 0.2):
		return pipeline.ToneNeutral
	case polarity <= params.Float("positive_upto", 0.6):
		return pipeline.TonePositive
	default:
		return pipeline.ToneVeryPositive
	}
}

// polarityOf reads the recorded polarity, 0 when tone detection did not run.
func polarityOf(rc *pipeline.RunContext) float64 {
	v, ok := rc.Extra[polarityKey].(float64)
	if !ok {
		return 0
	}
	return v
}
