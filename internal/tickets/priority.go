package tickets

import "strings"

// Issue severities, in ascending order.
const (
	SeverityNone     = "none"
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

var severityRank = map[string]int{
	SeverityNone:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// SeverityAtLeast reports whether severity meets the min threshold. Unknown
// values rank as none.
func SeverityAtLeast(severity, min string) bool {
	return severityRank[severity] >= severityRank[min]
}

// MaxIssueSeverity derives the highest severity annotated in the issue texts,
// e.g. "Problem: crash (high severity)".
func MaxIssueSeverity(issues []string) string {
	max := SeverityNone
	for _, issue := range issues {
		lower := strings.ToLower(issue)
		for _, severity := range []string{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow} {
			if strings.Contains(lower, severity) && severityRank[severity] > severityRank[max] {
				max = severity
			}
		}
	}
	return max
}

// PriorityInputs are the weighted signals a ticket priority is computed from,
// taken from one run's final context snapshot.
type PriorityInputs struct {
	Tone        string
	MaxSeverity string
	HasSupport  bool
	HasComplex  bool
}

var toneWeights = map[string]int{
	"very_negative": 3,
	"negative":      2,
	"neutral":       1,
	"positive":      0,
	"very_positive": 0,
}

var severityWeights = map[string]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
	SeverityNone:     0,
}

// Priority computes the deterministic ticket priority score. It is a pure
// function of the inputs; the result is always in [0, 10].
func Priority(in PriorityInputs) int {
	score := toneWeights[in.Tone]
	score += severityWeights[in.MaxSeverity]
	if in.HasSupport {
		score += 2
	}
	if in.HasComplex {
		score++
	}
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}
