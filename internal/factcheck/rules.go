package factcheck

import (
	"regexp"
	"strings"

	"github.com/ppiankov/verity/internal/model"
)

const rulesOrigin = "rules"

// Rule is one fallback verdict, applied when its predicate matches the lowercased claim
type Rule struct {
	Name        string
	Label       model.VerdictLabel
	Confidence  float64
	Explanation string
	Sources     []string
	match       func(lower string) bool
}

var knownFalse = []string{
	"flat earth",
	"vaccines cause autism",
	"5g causes covid",
}

var misinformationPhrasing = []string{
	"they dont want you to know",
	"they don't want you to know",
	"secret cure",
	"doctors hate",
}

var (
	percentPattern = regexp.MustCompile(`\d+%`)
	citedPattern   = regexp.MustCompile(`according to|study|research`)
)

// DefaultRules returns the fallback rules in precedence order
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:        "known_false",
			Label:       model.VerdictFalse,
			Confidence:  0.95,
			Explanation: "This claim contradicts established scientific consensus.",
			Sources:     []string{"scientific consensus", "peer-reviewed research"},
			match:       containsAny(knownFalse),
		},
		{
			Name:        "misinformation_phrasing",
			Label:       model.VerdictMisleading,
			Confidence:  0.85,
			Explanation: "This claim uses language typical of misinformation.",
			Sources:     []string{"pattern analysis"},
			match:       containsAny(misinformationPhrasing),
		},
		{
			Name:        "uncited_statistic",
			Label:       model.VerdictNeedsContext,
			Confidence:  0.7,
			Explanation: "Statistical claim without cited source. Verification needed.",
			Sources:     []string{"claim analysis"},
			match: func(lower string) bool {
				return percentPattern.MatchString(lower) && !citedPattern.MatchString(lower)
			},
		},
	}
}

var unverifiable = Rule{
	Name:        "unverifiable",
	Label:       model.VerdictUnverifiable,
	Confidence:  0.5,
	Explanation: "Unable to verify this claim without additional context or sources.",
	Sources:     []string{"automated analysis"},
}

// ApplyRules returns the verdict of the first matching rule, or UNVERIFIABLE
func ApplyRules(rules []Rule, claim string) model.Verdict {
	lower := strings.ToLower(claim)
	for _, r := range rules {
		if r.match != nil && r.match(lower) {
			return r.verdict(claim)
		}
	}
	return unverifiable.verdict(claim)
}

func (r Rule) verdict(claim string) model.Verdict {
	return model.Verdict{
		Claim:       claim,
		Label:       r.Label,
		Explanation: r.Explanation,
		Sources:     append([]string(nil), r.Sources...),
		Confidence:  r.Confidence,
		Origin:      rulesOrigin,
	}
}

func containsAny(phrases []string) func(string) bool {
	return func(lower string) bool {
		for _, p := range phrases {
			if strings.Contains(lower, p) {
				return true
			}
		}
		return false
	}
}
