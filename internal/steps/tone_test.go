package steps

import (
	"context"
	"errors"
	"testing"

	"review-backend/internal/pipeline"
	"review-backend/internal/reviews"
)

type scoreFunc func(text string) float64

func (f scoreFunc) Score(text string) float64 { return f(text) }

func TestToneStepClassifiesPolarity(t *testing.T) {
	cases := []struct {
		polarity float64
		want     string
	}{
		{-0.9, pipeline.ToneVeryNegative},
		{-0.61, pipeline.ToneVeryNegative},
		{-0.6, pipeline.ToneNegative},
		{-0.3, pipeline.ToneNegative},
		{-0.2, pipeline.ToneNeutral},
		{0, pipeline.ToneNeutral},
		{0.2, pipeline.ToneNeutral},
		{0.21, pipeline.TonePositive},
		{0.6, pipeline.TonePositive},
		{0.61, pipeline.ToneVeryPositive},
		{0.95, pipeline.ToneVeryPositive},
	}
	for _, tc := range cases {
		step := &ToneStep{Scorer: scoreFunc(func(string) float64 { return tc.polarity })}
		rc := pipeline.NewRunContext(reviews.Review{ID: "r1", Rating: 3, Content: "whatever"})

		if err := step.Apply(context.Background(), rc, nil); err != nil {
			t.Fatalf("polarity %v: unexpected error: %v", tc.polarity, err)
		}
		if rc.Tone != tc.want {
			t.Fatalf("polarity %v: tone = %q, want %q", tc.polarity, rc.Tone, tc.want)
		}
		if got := rc.Extra[polarityKey]; got != tc.polarity {
			t.Fatalf("polarity %v: extra polarity = %v", tc.polarity, got)
		}
	}
}

func TestToneStepCustomCutPoints(t *testing.T) {
	step := &ToneStep{Scorer: scoreFunc(func(string) float64 { return 0.3 })}
	rc := pipeline.NewRunContext(reviews.Review{ID: "r1", Rating: 3, Content: "ok"})
	params := pipeline.Params{"neutral_upto": 0.4}

	if err := step.Apply(context.Background(), rc, params); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rc.Tone != pipeline.ToneNeutral {
		t.Fatalf("tone = %q, want neutral with widened band", rc.Tone)
	}
}

func TestToneStepMissingScorerIsRecoverable(t *testing.T) {
	step := &ToneStep{}
	rc := pipeline.NewRunContext(reviews.Review{ID: "r1", Rating: 3, Content: "ok"})

	err := step.Apply(context.Background(), rc, nil)
	var recoverable *pipeline.RecoverableError
	if !errors.As(err, &recoverable) {
		t.Fatalf("err = %v, want RecoverableError", err)
	}
	if rc.Tone != "" {
		t.Fatalf("tone = %q, want unset", rc.Tone)
	}
}
