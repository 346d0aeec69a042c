package steps

import (
	"context"
	"math"
	"strings"

	"review-backend/internal/nlp"
	"review-backend/internal/pipeline"
)

// ComplexityStep decides whether the review needs human judgement by
// comparing the rating against the detected sentiment and probing for
// conflicting signals. It sets complex_review to a "Need review: …" reason
// or leaves it empty; the LLM step keys its skip condition off that field.
type ComplexityStep struct {
	Scorer nlp.Scorer
}

func (s *ComplexityStep) Apply(ctx context.Context, rc *pipeline.RunContext, params pipeline.Params) error {
	_ = ctx

	rating := rc.Review.Rating
	content := rc.Review.Content
	polarity := polarityOf(rc)

	mismatch := params.Float("rating_mismatch_over", 0.7)

	switch {
	case rating >= 4 && polarity < -0.3:
		rc.ComplexReview = "Need review: High rating but negative sentiment"
	case rating <= 2 && polarity > 0.3:
		rc.ComplexReview = "Need review: Low rating but positive sentiment"
	case ratingSentimentGap(rating, polarity) > mismatch:
		rc.ComplexReview = "Need review: Rating and sentiment mismatch"
	case s.conflictingSentences(content):
		rc.ComplexReview = "Need review: Conflicting sentiments across sentences"
	case shortExtreme(content, rating, polarity):
		rc.ComplexReview = "Need review: Very short review with extreme rating"
	}

	return nil
}

// ratingSentimentGap measures how far the detected polarity sits from the
// polarity the rating implies. The rating is mapped to the scorer's
// compressed range rather than the full [-1, 1] interval.
func ratingSentimentGap(rating int, polarity float64) float64 {
	expected := float64(rating-3) / 2 * 0.6
	return math.Abs(expected - polarity)
}

// conflictingSentences scores each sentence separately and flags a spread
// above 1.0, the "great game BUT…" shape a whole-text score hides.
func (s *ComplexityStep) conflictingSentences(content string) bool {
	if s.Scorer == nil {
		return false
	}
	sentences := strings.FieldsFunc(content, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	if len(sentences) < 2 {
		return false
	}
	min, max := math.Inf(1), math.Inf(-1)
	scored := 0
	for _, sent := range sentences {
		if strings.TrimSpace(sent) == "" {
			continue
		}
		p := s.Scorer.Score(sent)
		scored++
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	return scored > 1 && max-min > 1.0
}

// shortExtreme flags terse reviews with extreme ratings, except plainly
// positive five-star ones ("Great game").
func shortExtreme(content string, rating int, polarity float64) bool {
	if len(strings.Fields(content)) >= 5 {
		return false
	}
	if rating != 1 && rating != 5 {
		return false
	}
	return !(rating == 5 && polarity > 0.3)
}
