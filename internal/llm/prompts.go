package llm

import _ "embed"

//go:embed prompts/review_analysis.txt
var defaultReviewPrompt string

// DefaultPromptID names the built-in prompt template.
const DefaultPromptID = "review_analysis_default"

// DefaultPrompt returns the embedded system prompt used when no stored
// template matches the configured prompt id.
func DefaultPrompt() string {
	return defaultReviewPrompt
}
