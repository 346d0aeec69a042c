package steps

import (
	"context"
	"testing"

	"review-backend/internal/nlp"
	"review-backend/internal/pipeline"
	"review-backend/internal/reviews"
)

func runIssueStep(t *testing.T, content string, extractor nlp.EntityExtractor) []string {
	t.Helper()
	step := &IssueStep{Entities: extractor}
	rc := pipeline.NewRunContext(reviews.Review{ID: "r1", Rating: 3, Content: content})
	if err := step.Apply(context.Background(), rc, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return rc.Issues
}

func TestIssueStepDetectsProblems(t *testing.T) {
	cases := []struct {
		content string
		want    string
	}{
		{"Great game but crashes constantly", "Problem: crash (high severity)"},
		{"Controls not working, very frustrating", "Problem: controls (medium severity)"},
		{"All my progress gone, had to start over", "Problem: save/progress (critical severity)"},
		{"The game freezes on the loading screen", "Problem: freeze/hang (high severity)"},
		{"Battery drain is insane", "Problem: battery (low severity)"},
	}
	for _, tc := range cases {
		issues := runIssueStep(t, tc.content, nil)
		if !contains(issues, tc.want) {
			t.Fatalf("%q: issues = %v, want containing %q", tc.content, issues, tc.want)
		}
	}
}

func TestIssueStepDetectsRequests(t *testing.T) {
	issues := runIssueStep(t, "Please add multiplayer so I can play with friends", nil)
	if !contains(issues, "Request: multiplayer (feature)") {
		t.Fatalf("issues = %v, want multiplayer request", issues)
	}
}

func TestIssueStepSuppressesNegatedContext(t *testing.T) {
	issues := runIssueStep(t, "Runs perfectly, never crashes on my phone", nil)
	if contains(issues, "Problem: crash (high severity)") {
		t.Fatalf("issues = %v, crash should be suppressed by context", issues)
	}
}

func TestIssueStepEmptyWhenNothingFound(t *testing.T) {
	issues := runIssueStep(t, "Lovely art style and relaxing music", nil)
	if len(issues) != 0 {
		t.Fatalf("issues = %v, want none", issues)
	}
}

func TestIssueStepDeduplicatesRepeatedMatches(t *testing.T) {
	issues := runIssueStep(t, "Crashes on start, crashes mid-game, crashes everywhere", nil)
	count := 0
	for _, issue := range issues {
		if issue == "Problem: crash (high severity)" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("issues = %v, want exactly one crash entry", issues)
	}
}

func TestIssueStepEntityModifier(t *testing.T) {
	issues := runIssueStep(t, "The story is fine but terrible graphics ruin it", nlp.NewKeywordExtractor())
	if !contains(issues, "Problem: terrible graphics (medium severity)") {
		t.Fatalf("issues = %v, want entity-derived graphics problem", issues)
	}
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
