package detect

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/verity/internal/classifier"
	"github.com/ppiankov/verity/internal/fingerprint"
	"github.com/ppiankov/verity/internal/model"
)

// shortTextConfidence is reported when the text is too short to calibrate
const shortTextConfidence = 0.2

// TextDetector fuses the external, pattern and statistical signals for text.
// It holds only configuration and is safe for concurrent use.
type TextDetector struct {
	cfg        model.DetectionConfig
	classifier classifier.Classifier
	patterns   *PatternScorer
	platforms  map[string]bool
	logger     *slog.Logger
}

// NewTextDetector creates a text detector. A nil classifier disables the external signal.
func NewTextDetector(cfg model.DetectionConfig, c classifier.Classifier, logger *slog.Logger) *TextDetector {
	if c == nil {
		c = classifier.Disabled{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	platforms := make(map[string]bool, len(cfg.HighBotPlatforms))
	for _, p := range cfg.HighBotPlatforms {
		platforms[strings.ToLower(strings.TrimSpace(p))] = true
	}

	return &TextDetector{
		cfg:        cfg,
		classifier: c,
		patterns:   NewPatternScorer(),
		platforms:  platforms,
		logger:     logger,
	}
}

// TextSignals is the fully resolved signal set for one text
type TextSignals struct {
	External    classifier.Outcome
	Pattern     PatternAnalysis
	Statistical BurstinessAnalysis
}

// Detect classifies text. platform may be empty.
func (d *TextDetector) Detect(ctx context.Context, text, platform string) model.DetectionResult {
	fp := fingerprint.OfString(text)

	words := countWords(text)
	if words < d.cfg.MinWords {
		return model.UncertainResult(fp, shortTextConfidence, "too little text to calibrate")
	}

	signals := d.collect(ctx, text, words)
	result := d.fuse(signals, words, platform)
	result.Fingerprint = fp
	return result
}

// collect runs every signal provider concurrently and joins them all
func (d *TextDetector) collect(ctx context.Context, text string, words int) TextSignals {
	var s TextSignals
	var g errgroup.Group

	g.Go(func() error {
		s.External = d.classifier.Classify(ctx, text)
		return nil
	})
	g.Go(func() error {
		s.Pattern = d.patterns.Score(text, words)
		return nil
	})
	g.Go(func() error {
		s.Statistical = Burstiness(text)
		return nil
	})

	// Providers report unavailability as values; Wait never returns an error
	_ = g.Wait()

	if !s.External.Available {
		d.logger.Debug("external signal unavailable", "error", s.External.Err)
	}
	return s
}

// fuse blends the resolved signals into a result
func (d *TextDetector) fuse(s TextSignals, words int, platform string) model.DetectionResult {
	pattern := model.AvailableSignal(model.SignalPattern, model.OriginPattern, s.Pattern.Score)
	statistical := model.AvailableSignal(model.SignalStatistical, model.OriginStatistical, s.Statistical.Score)

	external := model.UnavailableSignal(model.SignalExternal, model.OriginExternal)
	if s.External.Available {
		external = model.AvailableSignal(model.SignalExternal, model.OriginExternal, s.External.Probability)
	}

	var combined, base float64
	if external.Available {
		combined = d.cfg.ExternalWeight*external.Value +
			d.cfg.PatternWeight*pattern.Value +
			d.cfg.StatisticalWeight*statistical.Value
		base = d.cfg.ExternalConfidence
	} else {
		combined = d.cfg.FallbackPattern*pattern.Value +
			d.cfg.FallbackStatistical*statistical.Value
		base = d.cfg.FallbackConfidence
	}

	lengthFactor := math.Min(float64(words)/100, 1)
	confidence := base * (0.5 + 0.5*lengthFactor)

	if d.isHighBotPlatform(platform) {
		combined = math.Min(combined*d.cfg.PlatformMultiplier, d.cfg.PlatformCap)
	}

	combined = model.Clamp01(combined)

	scores := map[model.SignalName]float64{
		model.SignalPattern:     model.Round4(pattern.Value),
		model.SignalStatistical: model.Round4(statistical.Value),
	}
	if external.Available {
		scores[model.SignalExternal] = model.Round4(external.Value)
	}

	return model.DetectionResult{
		Classification: model.TextBand.Classify(combined),
		AIProbability:  model.Round4(combined),
		Confidence:     model.Round4(model.Clamp01(confidence)),
		Scores:         scores,
		Signals:        []model.Signal{external, pattern, statistical},
		ExternalSource: s.External.Source,
	}
}

func (d *TextDetector) isHighBotPlatform(platform string) bool {
	if platform == "" {
		return false
	}
	return d.platforms[strings.ToLower(strings.TrimSpace(platform))]
}
