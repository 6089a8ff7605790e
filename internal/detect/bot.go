package detect

import (
	"regexp"
	"strings"

	"github.com/ppiankov/verity/internal/model"
)

// Auto-generated handles: letters followed by five or more digits
var generatedUsername = regexp.MustCompile(`^[a-z]+\d{5,}$`)

// BotOverlay decides bot likelihood from a detection result and account metadata
type BotOverlay struct {
	threshold         float64
	fallbackThreshold float64
}

// NewBotOverlay creates an overlay with the configured thresholds
func NewBotOverlay(cfg model.DetectionConfig) *BotOverlay {
	return &BotOverlay{
		threshold:         cfg.BotProbability,
		fallbackThreshold: cfg.BotFallbackThreshold,
	}
}

// IsLikelyBot reports whether the author is likely automated. meta may be nil.
func (b *BotOverlay) IsLikelyBot(result model.DetectionResult, meta *model.AccountMetadata) bool {
	if result.AIProbability >= b.threshold {
		return true
	}
	if meta != nil {
		if generatedUsername.MatchString(strings.ToLower(meta.Username)) {
			return true
		}
		if meta.DefaultProfile {
			return true
		}
	}
	return result.AIProbability >= b.fallbackThreshold
}
