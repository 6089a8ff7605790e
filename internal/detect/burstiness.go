package detect

import (
	"math"
	"regexp"
	"strings"
)

var sentenceBreak = regexp.MustCompile(`[.!?]+`)

const (
	minSentenceChars   = 10
	minSentences       = 3
	neutralBurstiness  = 0.5
	burstinessCVCutoff = 0.8
)

// BurstinessAnalysis is the statistical signal plus its inputs
type BurstinessAnalysis struct {
	Score     float64 `json:"score"`
	Sentences int     `json:"sentences"`
	CoefVar   float64 `json:"coef_var"`
}

// Burstiness scores sentence-length variance. Monotonous rhythm scores high (AI-like).
func Burstiness(text string) BurstinessAnalysis {
	var lengths []float64
	for _, s := range sentenceBreak.Split(text, -1) {
		s = strings.TrimSpace(s)
		if len(s) >= minSentenceChars {
			lengths = append(lengths, float64(len(strings.Fields(s))))
		}
	}

	if len(lengths) < minSentences {
		return BurstinessAnalysis{Score: neutralBurstiness, Sentences: len(lengths)}
	}

	mean, stddev := meanStddev(lengths)
	cv := stddev / (mean + 1)

	return BurstinessAnalysis{
		Score:     1 - math.Min(cv/burstinessCVCutoff, 1),
		Sentences: len(lengths),
		CoefVar:   cv,
	}
}

// meanStddev returns the mean and population standard deviation
func meanStddev(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}
