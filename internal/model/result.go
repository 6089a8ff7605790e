package model

// DetectionResult is the outcome of detecting a single content item.
// Callers own the value; detectors keep no reference to it.
type DetectionResult struct {
	Classification Classification         `json:"classification"`
	AIProbability  float64                `json:"ai_probability"`
	Confidence     float64                `json:"confidence"`
	Scores         map[SignalName]float64 `json:"scores"`
	Signals        []Signal               `json:"signals,omitempty"`
	Fingerprint    string                 `json:"fingerprint"`
	Reason         string                 `json:"reason,omitempty"`         // Diagnostic reason for short-circuits and degraded input
	ExternalSource string                 `json:"external_source,omitempty"` // e.g. "huggingface:roberta-large-openai-detector"
}

// HumanProbability is the complement of AIProbability
func (r DetectionResult) HumanProbability() float64 {
	return Round4(1 - r.AIProbability)
}

// Score returns the per-signal score and whether it was recorded
func (r DetectionResult) Score(name SignalName) (float64, bool) {
	v, ok := r.Scores[name]
	return v, ok
}

// UncertainResult builds a low-confidence result for degraded input
func UncertainResult(fingerprint string, confidence float64, reason string) DetectionResult {
	return DetectionResult{
		Classification: ClassUncertain,
		AIProbability:  0.5,
		Confidence:     confidence,
		Scores:         map[SignalName]float64{},
		Fingerprint:    fingerprint,
		Reason:         reason,
	}
}

// ContentType is the kind of content submitted for detection
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentTweet ContentType = "tweet"
	ContentImage ContentType = "image"
)

// Valid reports whether the content type is supported
func (t ContentType) Valid() bool {
	switch t {
	case ContentText, ContentTweet, ContentImage:
		return true
	default:
		return false
	}
}

// AccountMetadata carries the social account fields used by the bot overlay
type AccountMetadata struct {
	Username       string `json:"username,omitempty"`
	DefaultProfile bool   `json:"default_profile,omitempty"`
}

// BatchSummary aggregates a batch of detections
type BatchSummary struct {
	Total         int     `json:"total"`
	AICount       int     `json:"ai_count"`
	HumanCount    int     `json:"human_count"`
	BotCount      int     `json:"bot_count,omitempty"`
	Failed        int     `json:"failed"`
	AIPercentage  float64 `json:"ai_percentage"`
	BotPercentage float64 `json:"bot_percentage,omitempty"`
}
