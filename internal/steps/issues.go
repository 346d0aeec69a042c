package steps

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"review-backend/internal/nlp"
	"review-backend/internal/pipeline"
	"review-backend/internal/tickets"
)

// IssueStep scans the review body for technical problems and feature
// requests, appending "Problem: …" and "Request: …" entries to the context.
// An optional entity extractor enriches detection with domain phrases the
// pattern bank misses. Finding nothing is a normal outcome and leaves the
// issue list untouched.
type IssueStep struct {
	Entities nlp.EntityExtractor
}

type problemPattern struct {
	kind      string
	re        *regexp.Regexp
	negatives []string
	severity  string
}

type requestPattern struct {
	kind string
	re   *regexp.Regexp
	tag  string
}

// Pattern bank for technical problems. Each match is suppressed when a
// context-negative phrase appears within the surrounding window, so "never
// crashes" and "crash fixed" do not raise a crash problem.
var problemPatterns = []problemPattern{
	{
		kind:      "crash",
		re:        regexp.MustCompile(`\b(crash(es|ed|ing)?|shuts?\s*down|closes?\s*(itself|automatically)|forced?\s*close|app\s*(dies|died|dying))\b`),
		negatives: []string{"no crash", "never crash", "without crash", "crash fixed", "used to crash"},
		severity:  tickets.SeverityHigh,
	},
	{
		kind:      "bug/glitch",
		re:        regexp.MustCompile(`\b(bug(s|gy|ged)?|glitch(es|ed|ing|y)?|broken|break(s|ing)?|error(s)?|issue(s)?|problem(s)?|fault(y)?|defect(s)?|flaw(s)?)\b`),
		negatives: []string{"no bug", "no issue", "no problem", "bug free", "fixed"},
		severity:  tickets.SeverityMedium,
	},
	{
		kind:      "performance",
		re:        regexp.MustCompile(`\b(lag(s|gy|ging|ged)?|stutter(s|ing|ed)?|fps\s*(drop|issue)|frames?\s*(drop|rate)|slows?\s*down|choppy|janky|performance\s*(issue|problem))\b`),
		negatives: []string{"no lag", "smooth", "lag free", "fixed lag"},
		severity:  tickets.SeverityMedium,
	},
	{
		kind:      "freeze/hang",
		re:        regexp.MustCompile(`\b(freeze(s|ing)?|frozen|hang(s|ing)?|hung|stuck|unresponsive|not\s*respond(ing)?)\b`),
		negatives: []string{"never freeze", "no freeze", "doesn't freeze"},
		severity:  tickets.SeverityHigh,
	},
	{
		kind:      "audio",
		re:        regexp.MustCompile(`\b(sound|audio|music|sfx|voice|volume)\s*(issue|problem|bug|glitch|not\s*work|broken|missing|gone|delay|cut(s|ting)?\s*out)\b`),
		negatives: []string{"sound great", "audio perfect", "love the sound"},
		severity:  tickets.SeverityLow,
	},
	{
		kind:      "save/progress",
		re:        regexp.MustCompile(`\b(save|progress|data|file)\s*(lost|gone|deleted|corrupt(ed)?|disappear(ed)?|wiped?|reset|erased?)\b`),
		negatives: []string{"save works", "progress saved", "data safe"},
		severity:  tickets.SeverityCritical,
	},
	{
		kind:      "controls",
		re:        regexp.MustCompile(`\b(controls?|buttons?|touch|tap|swipe|input)\s*(not\s*work(ing)?|bad|poor|terrible|awful|hard|difficult|unresponsive|delay(ed)?|lag(gy)?|issue|problem|suck|broken)\b`),
		negatives: []string{"controls are good", "controls work", "love controls"},
		severity:  tickets.SeverityMedium,
	},
	{
		kind:      "compatibility",
		re:        regexp.MustCompile(`\b(compatible|compatibility|doesn't\s*work|not\s*support(ed)?|can't\s*play|won't\s*(start|load|open|run))\b`),
		negatives: []string{"works great", "runs well", "compatible with"},
		severity:  tickets.SeverityHigh,
	},
	{
		kind:      "battery",
		re:        regexp.MustCompile(`\b(battery|power)\s*(drain|consumption|hog|killer|issue|problem)\b`),
		negatives: []string{"battery efficient", "low battery usage"},
		severity:  tickets.SeverityLow,
	},
}

var requestPatterns = []requestPattern{
	{
		kind: "multiplayer",
		re:   regexp.MustCompile(`\b(add|want|need|wish|hope|please|would\s*(be\s*)?(nice|great|awesome)|should\s*(have|add)|missing)\s*(for\s*)?(multiplayer|multi-player|co-?op|pvp|online|friends?|together)\b`),
		tag:  "feature",
	},
	{
		kind: "save_system",
		re:   regexp.MustCompile(`\b(add|want|need|wish|hope)\s*(for\s*)?(checkpoint|save\s*(point|system)|cloud\s*save|cross-?save|sync)\b`),
		tag:  "feature",
	},
	{
		kind: "content",
		re:   regexp.MustCompile(`\b(add|want|need|more)\s*(level|stage|character|weapon|item|content|dlc|expansion|mode|map)\b`),
		tag:  "content",
	},
	{
		kind: "customization",
		re:   regexp.MustCompile(`\b(add|want|need|wish)\s*(for\s*)?(custom|setting|option|configuration|remap|rebind)\b`),
		tag:  "settings",
	},
	{
		kind: "platform",
		re:   regexp.MustCompile(`\b(port|bring|release)\s*(to|on|for)\s*(pc|console|steam|switch|xbox|playstation|ps\d)\b`),
		tag:  "platform",
	},
	{
		kind: "update",
		re:   regexp.MustCompile(`\b(update|patch|fix|waiting\s*for|need|want)\s*(the\s*)?(update|patch|fix|latest|new\s*version)\b`),
		tag:  "update",
	},
}

// Negative modifiers the entity pass looks for next to a domain phrase.
var negativeModifiers = []string{
	"bad", "terrible", "awful", "horrible", "poor", "worst",
	"annoying", "frustrating", "broken",
}

func (s *IssueStep) Apply(ctx context.Context, rc *pipeline.RunContext, params pipeline.Params) error {
	_ = ctx
	_ = params

	content := strings.ToLower(rc.Review.Content)
	// Space after sentence punctuation keeps word boundaries intact.
	content = strings.ReplaceAll(content, ".", ". ")
	content = strings.ReplaceAll(content, "!", "! ")

	seen := make(map[string]bool)
	record := func(issue string) {
		if seen[issue] {
			return
		}
		seen[issue] = true
		rc.Issues = append(rc.Issues, issue)
	}

	for _, p := range problemPatterns {
		for _, loc := range p.re.FindAllStringIndex(content, -1) {
			if hasNegativeContext(content, loc[0], loc[1], p.negatives) {
				continue
			}
			record(fmt.Sprintf("Problem: %s (%s severity)", p.kind, p.severity))
		}
	}

	for _, p := range requestPatterns {
		if p.re.MatchString(content) {
			record(fmt.Sprintf("Request: %s (%s)", p.kind, p.tag))
		}
	}

	if s.Entities != nil {
		for _, ent := range s.Entities.Extract(rc.Review.Content) {
			if mod, ok := modifierBefore(content, ent.Phrase); ok {
				record(fmt.Sprintf("Problem: %s %s (medium severity)", mod, ent.Phrase))
			}
		}
	}

	return nil
}

// hasNegativeContext reports whether any suppressing phrase appears within 30
// characters of the match.
func hasNegativeContext(content string, start, end int, negatives []string) bool {
	lo := start - 30
	if lo < 0 {
		lo = 0
	}
	hi := end + 30
	if hi > len(content) {
		hi = len(content)
	}
	window := content[lo:hi]
	for _, neg := range negatives {
		if strings.Contains(window, neg) {
			return true
		}
	}
	return false
}

// modifierBefore finds a negative modifier in the 30 characters preceding the
// phrase, approximating the adjective-noun pass of a full syntax parse.
func modifierBefore(content, phrase string) (string, bool) {
	idx := strings.Index(content, strings.ToLower(phrase))
	if idx < 0 {
		return "", false
	}
	lo := idx - 30
	if lo < 0 {
		lo = 0
	}
	window := content[lo:idx]
	for _, mod := range negativeModifiers {
		if strings.Contains(window, mod) {
			return mod, true
		}
	}
	return "", false
}
