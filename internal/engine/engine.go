// Package engine is the detection engine root: it wires signal providers,
// fusion and claim verification behind one surface.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ppiankov/verity/internal/classifier"
	"github.com/ppiankov/verity/internal/detect"
	"github.com/ppiankov/verity/internal/extract"
	"github.com/ppiankov/verity/internal/factcheck"
	"github.com/ppiankov/verity/internal/fingerprint"
	"github.com/ppiankov/verity/internal/llm"
	"github.com/ppiankov/verity/internal/model"
	"github.com/ppiankov/verity/internal/worker"
)

// ErrUnsupportedContent is returned for content types the engine cannot detect
var ErrUnsupportedContent = errors.New("unsupported content type")

// Engine detects AI-generated content and verifies claims
type Engine struct {
	cfg       *model.Config
	text      *detect.TextDetector
	image     *detect.ImageDetector
	bot       *detect.BotOverlay
	extractor *extract.ClaimExtractor
	checker   *factcheck.Checker
	logger    *slog.Logger
}

type options struct {
	classifier  classifier.Classifier
	verifier    llm.Verifier
	verifierSet bool
	logger      *slog.Logger
}

// Option configures an Engine
type Option func(*options)

// WithClassifier replaces the configured external classifier
func WithClassifier(c classifier.Classifier) Option {
	return func(o *options) { o.classifier = c }
}

// WithVerifier replaces the configured claim verifier. A nil verifier means rules only.
func WithVerifier(v llm.Verifier) Option {
	return func(o *options) {
		o.verifier = v
		o.verifierSet = true
	}
}

// WithLogger sets the logger used by every component
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New validates cfg and builds the engine
func New(cfg *model.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	clf := o.classifier
	if clf == nil {
		var err error
		clf, err = buildClassifier(cfg, o.logger)
		if err != nil {
			return nil, err
		}
	}

	verifier := o.verifier
	if !o.verifierSet {
		var err error
		verifier, err = llm.NewVerifier(llm.ConfigFromModel(cfg.Verifier, cfg.HTTP, o.logger))
		switch {
		case errors.Is(err, llm.ErrNoCredential):
			o.logger.Info("claim verifier has no credential, using fallback rules", "provider", cfg.Verifier.Provider)
			verifier = nil
		case err != nil:
			return nil, fmt.Errorf("create verifier: %w", err)
		}
	}

	extractor := extract.NewClaimExtractor(cfg.FactCheck.MaxClaims)

	return &Engine{
		cfg:       cfg,
		text:      detect.NewTextDetector(cfg.Detection, clf, o.logger),
		image:     detect.NewImageDetector(cfg.Image, o.logger),
		bot:       detect.NewBotOverlay(cfg.Detection),
		extractor: extractor,
		checker: factcheck.NewChecker(verifier, extractor,
			factcheck.WithWorkers(cfg.Concurrency.Workers),
			factcheck.WithLogger(o.logger),
		),
		logger: o.logger,
	}, nil
}

func buildClassifier(cfg *model.Config, logger *slog.Logger) (classifier.Classifier, error) {
	if !cfg.Classifier.Enabled {
		return classifier.Disabled{}, nil
	}
	hf, err := classifier.NewHuggingFace(cfg.Classifier, cfg.HTTP, worker.LimiterFromConfig(cfg.RateLimiting), logger)
	if err != nil {
		return nil, fmt.Errorf("create classifier: %w", err)
	}
	return hf, nil
}

// Config returns the engine configuration
func (e *Engine) Config() *model.Config {
	return e.cfg
}

// VerifierName returns the external verifier in use, or "rules"
func (e *Engine) VerifierName() string {
	return e.checker.VerifierName()
}

// DetectText classifies text. platform may be empty.
func (e *Engine) DetectText(ctx context.Context, text, platform string) model.DetectionResult {
	return e.text.Detect(ctx, text, platform)
}

// DetectImage classifies encoded image bytes
func (e *Engine) DetectImage(ctx context.Context, data []byte) model.DetectionResult {
	return e.image.Detect(ctx, data)
}

// DetectImagePayload classifies a base64 (optionally data-URL) image payload
func (e *Engine) DetectImagePayload(ctx context.Context, payload string) model.DetectionResult {
	data, err := detect.DecodePayload(payload)
	if err != nil {
		return model.UncertainResult(fingerprint.OfString(payload), 0, fmt.Sprintf("failed to decode: %v", err))
	}
	return e.image.Detect(ctx, data)
}

// Detect dispatches one item by content type. It implements worker.Detector.
func (e *Engine) Detect(ctx context.Context, item worker.Item) (model.DetectionResult, error) {
	switch item.ContentType {
	case model.ContentText, "":
		return e.DetectText(ctx, item.Content, item.SourcePlatform), nil
	case model.ContentTweet:
		platform := item.SourcePlatform
		if platform == "" {
			platform = "twitter"
		}
		return e.DetectText(ctx, item.Content, platform), nil
	case model.ContentImage:
		return e.DetectImagePayload(ctx, item.Content), nil
	default:
		return model.DetectionResult{}, fmt.Errorf("%w: %q", ErrUnsupportedContent, item.ContentType)
	}
}

// IsLikelyBot applies the bot overlay to a text result
func (e *Engine) IsLikelyBot(result model.DetectionResult, meta *model.AccountMetadata) bool {
	return e.bot.IsLikelyBot(result, meta)
}

// ExtractClaims returns the top claims in text without verifying them
func (e *Engine) ExtractClaims(text string) []model.Claim {
	return e.extractor.Extract(e.plainText(text))
}

// ExtractAndVerifyClaims extracts claims from text (or HTML) and verifies each
func (e *Engine) ExtractAndVerifyClaims(ctx context.Context, text string) model.FactCheckReport {
	return e.checker.CheckText(ctx, e.plainText(text))
}

// VerifyClaims verifies caller-supplied claims
func (e *Engine) VerifyClaims(ctx context.Context, claims []string) model.FactCheckReport {
	return e.checker.CheckClaims(ctx, claims)
}

// VerifySingleClaim verifies one claim
func (e *Engine) VerifySingleClaim(ctx context.Context, claim string) model.Verdict {
	return e.checker.CheckClaim(ctx, claim)
}

func (e *Engine) plainText(content string) string {
	if !extract.LooksLikeHTML(content) {
		return content
	}
	text, err := extract.VisibleText(content)
	if err != nil {
		e.logger.Debug("html extraction failed, using raw content", "error", err)
		return content
	}
	return text
}
