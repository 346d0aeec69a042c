package nlp

// KeywordExtractor maps domain keywords to categories. It is a shallow stand-in
// for a full entity pipeline but keeps the same capability shape, so a richer
// provider can replace it without touching any step.
type KeywordExtractor struct{}

// NewKeywordExtractor constructs a KeywordExtractor.
func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{}
}

var keywordCategories = map[string]string{
	"battery":     "power",
	"controls":    "input",
	"control":     "input",
	"buttons":     "input",
	"touch":       "input",
	"sound":       "audio",
	"audio":       "audio",
	"music":       "audio",
	"volume":      "audio",
	"graphics":    "visual",
	"screen":      "visual",
	"resolution":  "visual",
	"save":        "progress",
	"progress":    "progress",
	"checkpoint":  "progress",
	"multiplayer": "social",
	"online":      "social",
	"coop":        "social",
	"ads":         "monetization",
	"purchase":    "monetization",
	"price":       "monetization",
	"level":       "content",
	"levels":      "content",
	"update":      "release",
	"version":     "release",
}

// Extract returns one entity per distinct matched keyword, in text order.
func (e *KeywordExtractor) Extract(text string) []Entity {
	seen := make(map[string]bool)
	var out []Entity
	for _, tok := range tokenize(text) {
		category, ok := keywordCategories[tok]
		if !ok || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, Entity{Phrase: tok, Category: category})
	}
	return out
}
