package model

import "fmt"

// Classification is the ordinal label assigned to a detection score
type Classification int

const (
	ClassHuman       Classification = iota // Confidently human
	ClassLikelyHuman                       // Leans human
	ClassMixed                             // Middle band of the text scale
	ClassUncertain                         // Middle band of the image scale, or too little signal
	ClassLikelyAI                          // Leans AI
	ClassAI                                // Confidently AI
)

var classificationNames = map[Classification]string{
	ClassHuman:       "HUMAN",
	ClassLikelyHuman: "LIKELY_HUMAN",
	ClassMixed:       "MIXED",
	ClassUncertain:   "UNCERTAIN",
	ClassLikelyAI:    "LIKELY_AI",
	ClassAI:          "AI",
}

func (c Classification) String() string {
	if name, ok := classificationNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Classification(%d)", int(c))
}

// Rank returns the ordinal position on the human→AI scale.
// MIXED and UNCERTAIN share the middle rank.
func (c Classification) Rank() int {
	switch c {
	case ClassHuman:
		return 0
	case ClassLikelyHuman:
		return 1
	case ClassMixed, ClassUncertain:
		return 2
	case ClassLikelyAI:
		return 3
	case ClassAI:
		return 4
	default:
		return -1
	}
}

// IsAI reports whether the label leans AI
func (c Classification) IsAI() bool {
	return c == ClassLikelyAI || c == ClassAI
}

// MarshalText implements encoding.TextMarshaler
func (c Classification) MarshalText() ([]byte, error) {
	name, ok := classificationNames[c]
	if !ok {
		return nil, fmt.Errorf("unknown classification %d", int(c))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Classification) UnmarshalText(text []byte) error {
	parsed, err := ParseClassification(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseClassification converts a label name back to a Classification
func ParseClassification(s string) (Classification, error) {
	for c, name := range classificationNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown classification %q", s)
}

// Band maps a continuous score to a classification using descending cut points
type Band struct {
	AI          float64
	LikelyAI    float64
	Middle      float64
	LikelyHuman float64

	// MiddleLabel is MIXED on the text scale and UNCERTAIN on the image scale
	MiddleLabel Classification
}

// TextBand is the fixed threshold set for text detection
var TextBand = Band{AI: 0.85, LikelyAI: 0.65, Middle: 0.45, LikelyHuman: 0.25, MiddleLabel: ClassMixed}

// ImageBand is the fixed threshold set for image detection
var ImageBand = Band{AI: 0.8, LikelyAI: 0.6, Middle: 0.4, LikelyHuman: 0.2, MiddleLabel: ClassUncertain}

// Classify returns the label for score
func (b Band) Classify(score float64) Classification {
	switch {
	case score >= b.AI:
		return ClassAI
	case score >= b.LikelyAI:
		return ClassLikelyAI
	case score >= b.Middle:
		return b.MiddleLabel
	case score >= b.LikelyHuman:
		return ClassLikelyHuman
	default:
		return ClassHuman
	}
}
