package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/verity/internal/model"
)

// DefaultMaxClaims bounds verification fan-out
const DefaultMaxClaims = 5

// indicatorWeight is added per matching indicator
const indicatorWeight = 0.3

var sentenceBreak = regexp.MustCompile(`[.!?]+`)

// ClaimIndicator is one pattern suggesting a checkable assertion
type ClaimIndicator struct {
	Name string
	re   *regexp.Regexp
}

func claimIndicator(name, pattern string) ClaimIndicator {
	return ClaimIndicator{Name: name, re: regexp.MustCompile(pattern)}
}

var claimIndicators = []ClaimIndicator{
	claimIndicator("percentage", `\d+%`),
	claimIndicator("currency", `\$[\d,]+`),
	claimIndicator("year", `\b\d{4}\b`),
	claimIndicator("study_shows", `(?i)\b(study|research|report|survey) (shows?|finds?|reveals?|proves?)\b`),
	claimIndicator("attribution", `(?i)\b(according to|based on|data shows?)\b`),
	claimIndicator("experts_say", `(?i)\b(scientists?|researchers?|experts?) (say|found|discovered)\b`),
	claimIndicator("certainty", `(?i)\b(fact|truth|proven|confirmed)\b`),
	claimIndicator("large_number", `(?i)\b\d+ (?:million|billion|thousand)\b`),
}

// ClaimExtractor finds sentences likely to contain a verifiable assertion
type ClaimExtractor struct {
	indicators []ClaimIndicator
	maxClaims  int
}

// NewClaimExtractor creates an extractor returning at most maxClaims claims
func NewClaimExtractor(maxClaims int) *ClaimExtractor {
	if maxClaims <= 0 {
		maxClaims = DefaultMaxClaims
	}
	return &ClaimExtractor{
		indicators: claimIndicators,
		maxClaims:  maxClaims,
	}
}

// Extract returns the highest-confidence claims in text, best first
func (e *ClaimExtractor) Extract(text string) []model.Claim {
	claims := e.ExtractAll(text)

	// Stable keeps source order among equal confidence
	sort.SliceStable(claims, func(i, j int) bool {
		return claims[i].Confidence > claims[j].Confidence
	})

	if len(claims) > e.maxClaims {
		claims = claims[:e.maxClaims]
	}
	return claims
}

// ExtractAll returns every matching sentence in source order, without the cap
func (e *ClaimExtractor) ExtractAll(text string) []model.Claim {
	var claims []model.Claim
	seen := make(map[string]bool)

	for _, span := range splitSentences(text) {
		sentence := text[span[0]:span[1]]

		confidence := e.score(sentence)
		if confidence == 0 {
			continue
		}

		key := strings.ToLower(sentence)
		if seen[key] {
			continue
		}
		seen[key] = true

		claims = append(claims, model.Claim{
			Text:       sentence,
			Start:      span[0],
			End:        span[1],
			Confidence: confidence,
		})
	}

	return claims
}

// matchedIndicators returns the names of indicators matching sentence
func (e *ClaimExtractor) matchedIndicators(sentence string) []string {
	var names []string
	for _, ind := range e.indicators {
		if ind.re.MatchString(sentence) {
			names = append(names, ind.Name)
		}
	}
	return names
}

func (e *ClaimExtractor) score(sentence string) float64 {
	confidence := float64(len(e.matchedIndicators(sentence))) * indicatorWeight
	// Rounded so three matches report 0.9, not 0.8999999999999999
	return model.Round4(min(confidence, 1))
}

// splitSentences returns byte spans of non-empty trimmed sentences
func splitSentences(text string) [][2]int {
	var spans [][2]int

	start := 0
	emit := func(end int) {
		s, e := start, end
		for s < e && isSpace(text[s]) {
			s++
		}
		for e > s && isSpace(text[e-1]) {
			e--
		}
		if e > s {
			spans = append(spans, [2]int{s, e})
		}
	}

	for _, loc := range sentenceBreak.FindAllStringIndex(text, -1) {
		emit(loc[0])
		start = loc[1]
	}
	emit(len(text))

	return spans
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
