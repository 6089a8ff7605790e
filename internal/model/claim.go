package model

import "fmt"

// Claim represents a sentence flagged as containing a checkable assertion
type Claim struct {
	Text       string  `json:"text"`
	Start      int     `json:"start"` // Byte offset into the source text
	End        int     `json:"end"`   // Exclusive byte offset
	Confidence float64 `json:"confidence"`
}

// VerdictLabel is the outcome of checking one claim
type VerdictLabel string

const (
	VerdictTrue         VerdictLabel = "TRUE"
	VerdictFalse        VerdictLabel = "FALSE"
	VerdictMisleading   VerdictLabel = "MISLEADING"
	VerdictUnverifiable VerdictLabel = "UNVERIFIABLE"
	VerdictNeedsContext VerdictLabel = "NEEDS_CONTEXT"
)

// ParseVerdictLabel accepts only the closed set of labels
func ParseVerdictLabel(s string) (VerdictLabel, error) {
	switch l := VerdictLabel(s); l {
	case VerdictTrue, VerdictFalse, VerdictMisleading, VerdictUnverifiable, VerdictNeedsContext:
		return l, nil
	default:
		return "", fmt.Errorf("unknown verdict %q", s)
	}
}

// UnmarshalText rejects labels outside the closed set
func (l *VerdictLabel) UnmarshalText(text []byte) error {
	parsed, err := ParseVerdictLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Verdict is the result of checking one claim
type Verdict struct {
	Claim       string       `json:"claim"`
	Label       VerdictLabel `json:"verdict"`
	Explanation string       `json:"explanation"`
	Sources     []string     `json:"sources"`
	Confidence  float64      `json:"confidence"`
	Origin      string       `json:"origin"` // "external:<provider>" or "rules"
}

// FactCheckReport aggregates the verdicts of one request
type FactCheckReport struct {
	Verdicts        []Verdict `json:"results"`
	TotalClaims     int       `json:"total_claims"`
	FalseCount      int       `json:"false_count"`
	MisleadingCount int       `json:"misleading_count"`
	Summary         string    `json:"summary"`
}
