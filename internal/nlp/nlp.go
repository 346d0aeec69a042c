// Package nlp provides the local sentiment and entity signal providers the
// analysis steps consume. Providers are opaque capabilities: steps only see
// the interfaces, and absence of a provider degrades the step rather than
// failing the run.
package nlp

// Scorer computes a compound sentiment polarity for a text in [-1, 1].
type Scorer interface {
	Score(text string) float64
}

// Entity is a phrase of interest with its category, e.g. ("battery drain",
// "performance").
type Entity struct {
	Phrase   string
	Category string
}

// EntityExtractor finds domain phrases in a text.
type EntityExtractor interface {
	Extract(text string) []Entity
}
