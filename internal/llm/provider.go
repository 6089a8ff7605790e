package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/verity/internal/model"
)

// ErrNoCredential means the provider needs an API key and none was configured
var ErrNoCredential = errors.New("verifier credential not configured")

// ErrUnparseable means the model answered but not in the requested format
var ErrUnparseable = errors.New("unparseable verifier response")

// Verifier checks a single claim against an external model
type Verifier interface {
	// Name returns the provider name
	Name() string

	// Verify asks the model for a verdict on claim
	Verify(ctx context.Context, claim string) (*VerifyResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// VerifyResponse is a parsed verdict from an external model
type VerifyResponse struct {
	Verdict     model.VerdictLabel
	Confidence  float64
	Explanation string
	Sources     []string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds verifier provider configuration
type Config struct {
	// Provider name: "anthropic", "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout bounds each Verify call
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string

	Logger *slog.Logger
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return fallback
}

func (c Config) maxTokens() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 500
}

const systemPrompt = "You are a careful fact-checker. Answer only in the requested format."

// BuildPrompt constructs the fact-check prompt for one claim
func BuildPrompt(claim string) string {
	return fmt.Sprintf(`Fact-check this claim: %q

Respond in this exact format:
VERDICT: [TRUE/FALSE/MISLEADING/UNVERIFIABLE/NEEDS_CONTEXT]
CONFIDENCE: [0.0-1.0]
EXPLANATION: [2-3 sentence explanation]
SOURCES: [Comma-separated list of general source types, e.g., "scientific studies, government data"]`, claim)
}

var (
	verdictLine     = regexp.MustCompile(`VERDICT:\s*\[?(\w+)`)
	confidenceLine  = regexp.MustCompile(`CONFIDENCE:\s*\[?([\d.]+)`)
	explanationLine = regexp.MustCompile(`(?s)EXPLANATION:\s*(.*?)\s*(?:SOURCES:|\z)`)
	sourcesLine     = regexp.MustCompile(`(?s)SOURCES:\s*(.*?)\s*\z`)
)

// ParseVerdictResponse parses the VERDICT/CONFIDENCE/EXPLANATION/SOURCES format.
// A missing or unknown verdict is ErrUnparseable.
func ParseVerdictResponse(content string) (*VerifyResponse, error) {
	m := verdictLine.FindStringSubmatch(content)
	if m == nil {
		return nil, fmt.Errorf("%w: no VERDICT line", ErrUnparseable)
	}
	label, err := model.ParseVerdictLabel(strings.ToUpper(m[1]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	resp := &VerifyResponse{Verdict: label, Confidence: 0.5}

	if m := confidenceLine.FindStringSubmatch(content); m != nil {
		if c, err := strconv.ParseFloat(strings.TrimRight(m[1], "."), 64); err == nil {
			resp.Confidence = model.Clamp01(c)
		}
	}

	if m := explanationLine.FindStringSubmatch(content); m != nil {
		resp.Explanation = strings.Trim(strings.TrimSpace(m[1]), "[]")
	}

	if m := sourcesLine.FindStringSubmatch(content); m != nil {
		for _, s := range strings.Split(strings.Trim(m[1], "[]"), ",") {
			s = strings.Trim(strings.TrimSpace(s), `"`)
			if s != "" {
				resp.Sources = append(resp.Sources, s)
			}
		}
	}

	return resp, nil
}
