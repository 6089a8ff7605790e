package factcheck

import (
	"fmt"

	"github.com/ppiankov/verity/internal/model"
)

type outcome int

const (
	outcomeNoClaims outcome = iota
	outcomeFalse
	outcomeMisleading
	outcomeClean
)

// BuildReport counts FALSE and MISLEADING verdicts and picks the summary line
func BuildReport(verdicts []model.Verdict) model.FactCheckReport {
	report := model.FactCheckReport{
		Verdicts:    verdicts,
		TotalClaims: len(verdicts),
	}
	if report.Verdicts == nil {
		report.Verdicts = []model.Verdict{}
	}

	for _, v := range verdicts {
		switch v.Label {
		case model.VerdictFalse:
			report.FalseCount++
		case model.VerdictMisleading:
			report.MisleadingCount++
		}
	}

	report.Summary = summarize(report)
	return report
}

func classify(r model.FactCheckReport) outcome {
	switch {
	case r.TotalClaims == 0:
		return outcomeNoClaims
	case r.FalseCount > 0:
		return outcomeFalse
	case r.MisleadingCount > 0:
		return outcomeMisleading
	default:
		return outcomeClean
	}
}

func summarize(r model.FactCheckReport) string {
	switch classify(r) {
	case outcomeNoClaims:
		return "No factual claims detected."
	case outcomeFalse:
		return fmt.Sprintf("Found %d false claim(s). Be cautious!", r.FalseCount)
	case outcomeMisleading:
		return fmt.Sprintf("Found %d misleading claim(s). Needs context.", r.MisleadingCount)
	case outcomeClean:
		return "No obvious false claims detected."
	default:
		panic("unreachable report outcome")
	}
}
