package tickets

import "time"

// Ticket statuses. The pipeline only ever creates open tickets; the rest of
// the lifecycle belongs to the triage workflow.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusClosed     = "closed"
)

// Rules that can trigger ticket creation during persistence.
const (
	RuleProblem     = "problem"
	RuleComplexity  = "complexity"
	RuleSupportFlag = "support_flag"
)

// Ticket is a durable follow-up record created from analysis signals.
// Tickets are append-only: re-running analysis may add tickets but never
// mutates or deletes prior ones.
type Ticket struct {
	ID               string    `json:"id"`
	ReviewID         string    `json:"reviewId"`
	AnalysisResultID string    `json:"analysisResultId"`
	Rule             string    `json:"rule"`
	Status           string    `json:"status"`
	Priority         int       `json:"priority"`
	Severity         string    `json:"severity"`
	Issues           []string  `json:"issues"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}
