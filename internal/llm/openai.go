package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/verity/internal/util"
)

// OpenAIVerifier implements the Verifier interface for OpenAI models
type OpenAIVerifier struct {
	client *openai.Client
	config Config
}

// NewOpenAIVerifier creates a new OpenAI verifier
func NewOpenAIVerifier(config Config) (*OpenAIVerifier, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrNoCredential)
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
	}

	return &OpenAIVerifier{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIVerifier) Name() string {
	return "openai"
}

// IsAvailable checks the key by listing models
func (p *OpenAIVerifier) IsAvailable(ctx context.Context) bool {
	if _, err := p.client.ListModels(ctx); err != nil {
		p.config.logger().Warn("openai availability check failed", "error", err)
		return false
	}
	return true
}

// Verify asks the chat completions API for a verdict on claim
func (p *OpenAIVerifier) Verify(ctx context.Context, claim string) (*VerifyResponse, error) {
	model := p.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.timeout(20*time.Second))
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(claim)},
		},
		MaxTokens:   p.config.maxTokens(),
		Temperature: 0.2,
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in openai response", ErrUnparseable)
	}

	parsed, err := ParseVerdictResponse(strings.TrimSpace(resp.Choices[0].Message.Content))
	if err != nil {
		return nil, err
	}
	parsed.Model = model
	parsed.TokensUsed = resp.Usage.TotalTokens
	return parsed, nil
}
