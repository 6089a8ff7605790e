package factcheck

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/verity/internal/extract"
	"github.com/ppiankov/verity/internal/llm"
	"github.com/ppiankov/verity/internal/model"
)

// Checker verifies claims with an external verifier, falling back to rules
type Checker struct {
	verifier  llm.Verifier
	extractor *extract.ClaimExtractor
	rules     []Rule
	workers   int
	logger    *slog.Logger
}

// Option configures a Checker
type Option func(*Checker)

// WithRules replaces the fallback rules
func WithRules(rules []Rule) Option {
	return func(c *Checker) { c.rules = rules }
}

// WithWorkers bounds concurrent verifications
func WithWorkers(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewChecker creates a checker. A nil verifier means rules only.
func NewChecker(verifier llm.Verifier, extractor *extract.ClaimExtractor, opts ...Option) *Checker {
	if extractor == nil {
		extractor = extract.NewClaimExtractor(extract.DefaultMaxClaims)
	}
	c := &Checker{
		verifier:  verifier,
		extractor: extractor,
		rules:     DefaultRules(),
		workers:   8,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// VerifierName returns the configured provider, or "rules"
func (c *Checker) VerifierName() string {
	if c.verifier == nil {
		return rulesOrigin
	}
	return c.verifier.Name()
}

// CheckClaim verifies one claim. It never fails: the verifier is called once
// and any error degrades to the fallback rules.
func (c *Checker) CheckClaim(ctx context.Context, claim string) model.Verdict {
	claim = strings.TrimSpace(claim)
	if c.verifier == nil {
		return ApplyRules(c.rules, claim)
	}

	resp, err := c.verifier.Verify(ctx, claim)
	if err != nil {
		c.logger.Warn("external verification unavailable, using rules",
			"provider", c.verifier.Name(), "error", err)
		return ApplyRules(c.rules, claim)
	}

	return model.Verdict{
		Claim:       claim,
		Label:       resp.Verdict,
		Explanation: resp.Explanation,
		Sources:     resp.Sources,
		Confidence:  model.Round4(resp.Confidence),
		Origin:      "external:" + c.verifier.Name(),
	}
}

// CheckText extracts claims from text and verifies each of them
func (c *Checker) CheckText(ctx context.Context, text string) model.FactCheckReport {
	claims := c.extractor.Extract(text)
	texts := make([]string, len(claims))
	for i, cl := range claims {
		texts[i] = cl.Text
	}
	return c.CheckClaims(ctx, texts)
}

// CheckClaims verifies caller-supplied claims concurrently; verdicts keep claim order
func (c *Checker) CheckClaims(ctx context.Context, claims []string) model.FactCheckReport {
	verdicts := make([]model.Verdict, len(claims))

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, claim := range claims {
		i, claim := i, claim // per-iteration copy (go < 1.22 loop semantics)
		g.Go(func() error {
			verdicts[i] = c.CheckClaim(ctx, claim)
			return nil
		})
	}
	_ = g.Wait()

	return BuildReport(verdicts)
}
