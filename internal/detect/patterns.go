package detect

import (
	"math"
	"regexp"
	"strings"
)

// Indicator is one weighted regex in a pattern table
type Indicator struct {
	Name   string
	Weight float64 // Positive leans AI, negative leans human

	re *regexp.Regexp
}

// PatternMatch records how much one indicator contributed
type PatternMatch struct {
	Indicator string  `json:"indicator"`
	Count     int     `json:"count"`
	Score     float64 `json:"score"`
}

// maxRepeats caps each AI indicator's contribution at this many occurrences
const maxRepeats = 3

// wordsPerUnit is the normalization window: scores are a per-50-words rate
const wordsPerUnit = 50.0

func indicator(name, pattern string, weight float64) Indicator {
	return Indicator{Name: name, Weight: weight, re: regexp.MustCompile(pattern)}
}

// AI writing indicators. (?i) everywhere; list markers need (?m) for line starts.
var aiIndicators = []Indicator{
	// High confidence
	indicator("as_an_ai", `(?i)\b(as an ai|as an artificial intelligence)\b`, 0.9),
	indicator("i_cannot", `(?i)\bi (?:cannot|can't|am unable to) (?:provide|assist|help with)\b`, 0.7),
	indicator("i_dont_have", `(?i)\bi (?:don't|do not) have (?:access|the ability)\b`, 0.6),

	// Vocabulary
	indicator("delve", `(?i)\bdelve(?:s|d)?\b`, 0.4),
	indicator("utilize", `(?i)\butilize(?:s|d)?\b`, 0.3),
	indicator("facilitate", `(?i)\bfacilitate(?:s|d)?\b`, 0.3),
	indicator("leverage", `(?i)\bleverage(?:s|d)?\b`, 0.25),
	indicator("robust", `(?i)\brobust\b`, 0.2),
	indicator("comprehensive", `(?i)\bcomprehensive\b`, 0.2),
	indicator("furthermore", `(?i)\bfurthermore\b`, 0.2),
	indicator("moreover", `(?i)\bmoreover\b`, 0.2),
	indicator("additionally", `(?i)\badditionally\b`, 0.15),
	indicator("certainly", `(?i)\bcertainly\b`, 0.15),
	indicator("absolutely", `(?i)\babsolutely\b`, 0.1),

	// Structure
	indicator("in_conclusion", `(?i)\bin conclusion\b`, 0.2),
	indicator("it_is_important", `(?i)\bit(?:'s| is) (?:important|worth noting|crucial)\b`, 0.25),
	indicator("lets_explore", `(?i)\blet(?:'s| us) (?:explore|dive|delve)\b`, 0.3),
	indicator("numbered_list", `(?im)^\s*\d+[.)]\s`, 0.1),
	indicator("bullet_list", `(?im)^\s*[-*•]\s`, 0.1),
}

// Human writing indicators
var humanIndicators = []Indicator{
	indicator("typos", `(?i)\b(teh|recieve|occured|seperate|definately)\b`, -0.3),
	indicator("slang", `(?i)\b(gonna|wanna|gotta|kinda|sorta|ya|yep|nope|lol|lmao|omg)\b`, -0.25),
	indicator("contractions", `(?i)\b(i'm|you're|we're|they're|isn't|aren't|won't|can't|couldn't|wouldn't)\b`, -0.1),
	indicator("fillers", `(?i)\b(um|uh|hmm|well|like|you know|i mean)\b`, -0.2),
	indicator("personal", `(?i)\b(i think|i feel|i believe|in my opinion|personally)\b`, -0.15),
	indicator("exclamations", `!{2,}`, -0.1),
	indicator("ellipsis", `\.{3,}`, -0.1),
	// Case-sensitive: shouting in the original casing
	indicator("informal_caps", `\b[A-Z]{2,}\b`, -0.05),
}

// PatternScorer scores text against the AI and human indicator tables.
// Tables are compiled once and only read afterwards.
type PatternScorer struct {
	indicators []Indicator
}

// NewPatternScorer creates a scorer over the built-in tables
func NewPatternScorer() *PatternScorer {
	all := make([]Indicator, 0, len(aiIndicators)+len(humanIndicators))
	all = append(all, aiIndicators...)
	all = append(all, humanIndicators...)
	return &PatternScorer{indicators: all}
}

// PatternAnalysis is the pattern signal plus the matches behind it
type PatternAnalysis struct {
	Score   float64        `json:"score"`
	Raw     float64        `json:"raw"` // Sum before normalization
	Matches []PatternMatch `json:"matches,omitempty"`
}

// Score computes the pattern signal for text with the given word count
func (s *PatternScorer) Score(text string, words int) PatternAnalysis {
	var analysis PatternAnalysis
	if words <= 0 {
		return analysis
	}

	for _, ind := range s.indicators {
		count := len(ind.re.FindAllStringIndex(text, -1))
		if count == 0 {
			continue
		}
		contribution := cappedContribution(count, ind.Weight)
		analysis.Raw += contribution
		analysis.Matches = append(analysis.Matches, PatternMatch{
			Indicator: ind.Name,
			Count:     count,
			Score:     contribution,
		})
	}

	normalized := analysis.Raw / (float64(words) / wordsPerUnit)
	analysis.Score = math.Max(0, math.Min(normalized, 1))
	return analysis
}

// cappedContribution returns min(count×weight, 3×weight). Only AI indicators
// saturate; human indicators keep growing with each occurrence.
func cappedContribution(count int, weight float64) float64 {
	return math.Min(float64(count)*weight, maxRepeats*weight)
}

// countWords splits on whitespace
func countWords(text string) int {
	return len(strings.Fields(text))
}
