package nlp

import (
	"math"
	"strings"
	"unicode"
)

// LexiconScorer is a small valence-lexicon sentiment scorer. It sums word
// valences with negation flipping and intensity boosters, then squashes the
// raw sum into [-1, 1] the way VADER normalizes its compound score.
type LexiconScorer struct{}

// NewLexiconScorer constructs a LexiconScorer.
func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{}
}

var valence = map[string]float64{
	"good": 1.9, "great": 3.1, "excellent": 3.2, "love": 3.2, "loved": 2.9,
	"awesome": 3.1, "amazing": 2.8, "best": 3.2, "perfect": 3.0, "fun": 2.3,
	"nice": 1.8, "enjoy": 2.0, "enjoyable": 2.2, "fantastic": 2.9,
	"smooth": 1.5, "beautiful": 2.9, "addictive": 1.4, "solid": 1.5,
	"like": 1.5, "works": 1.2, "helpful": 1.8, "easy": 1.2,

	"bad": -2.5, "terrible": -3.0, "awful": -3.1, "hate": -2.7, "worst": -3.1,
	"horrible": -2.5, "poor": -2.1, "sucks": -2.2, "broken": -2.3,
	"crash": -2.4, "crashes": -2.4, "crashed": -2.4, "crashing": -2.4,
	"bug": -1.8, "bugs": -1.8, "buggy": -2.1, "glitch": -1.9, "glitchy": -2.0,
	"lag": -1.7, "laggy": -1.9, "slow": -1.4, "freeze": -2.0, "freezes": -2.0,
	"frozen": -2.0, "stuck": -1.6, "annoying": -1.8, "frustrating": -2.1,
	"frustrated": -2.0, "disappointing": -2.2, "disappointed": -2.2,
	"useless": -2.4, "unplayable": -2.8, "waste": -2.2, "scam": -2.8,
	"ads": -1.2, "boring": -1.7, "problem": -1.4, "problems": -1.4,
	"issue": -1.2, "issues": -1.2, "error": -1.5, "errors": -1.5,
}

var boosters = map[string]float64{
	"very": 0.3, "really": 0.3, "extremely": 0.4, "so": 0.2, "too": 0.2,
	"absolutely": 0.4, "completely": 0.3, "totally": 0.3,
	"slightly": -0.2, "somewhat": -0.2, "kinda": -0.2, "barely": -0.3,
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "dont": true, "don't": true,
	"doesnt": true, "doesn't": true, "didnt": true, "didn't": true,
	"cant": true, "can't": true, "wont": true, "won't": true,
	"isnt": true, "isn't": true, "without": true, "nothing": true,
}

// Score returns the compound polarity of text in [-1, 1]. Empty or
// lexicon-free text scores 0.
func (s *LexiconScorer) Score(text string) float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	var sum float64
	for i, tok := range tokens {
		val, ok := valence[tok]
		if !ok {
			continue
		}
		boost := 0.0
		negated := false
		// Look back up to three tokens for boosters and negations.
		for j := i - 1; j >= 0 && j >= i-3; j-- {
			prev := tokens[j]
			if b, ok := boosters[prev]; ok {
				boost += b
			}
			if negations[prev] {
				negated = true
			}
		}
		if val > 0 {
			val += boost
		} else {
			val -= boost
		}
		if negated {
			val = -val * 0.74
		}
		sum += val
	}

	// VADER-style normalization: sum / sqrt(sum^2 + alpha), alpha = 15.
	compound := sum / math.Sqrt(sum*sum+15)
	if compound > 1 {
		return 1
	}
	if compound < -1 {
		return -1
	}
	return compound
}

func tokenize(text string) []string {
	lower := strings.ToLower(text)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}
