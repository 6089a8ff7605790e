package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/verity/internal/model"
	"github.com/ppiankov/verity/internal/util"
	"github.com/ppiankov/verity/internal/worker"
)

var (
	aiLabels    = map[string]bool{"Fake": true, "LABEL_1": true, "AI": true, "Generated": true}
	humanLabels = map[string]bool{"Real": true, "LABEL_0": true, "Human": true, "Original": true}

	errModelLoading = errors.New("model loading")
)

// HuggingFace calls the Hugging Face inference API, trying candidate models in order
type HuggingFace struct {
	baseURL    string
	token      string
	models     []string
	maxChars   int
	timeout    time.Duration
	httpClient *http.Client
	limiter    *worker.Limiter
	logger     *slog.Logger
}

// HuggingFace API structures
type hfRequest struct {
	Inputs string `json:"inputs"`
}

type hfLabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type hfError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time,omitempty"`
}

// NewHuggingFace creates a client from the classifier configuration
func NewHuggingFace(cfg model.ClassifierConfig, httpCfg model.HTTPConfig, limiter *worker.Limiter, logger *slog.Logger) (*HuggingFace, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("classifier base URL is required")
	}
	if len(cfg.Models) == 0 {
		return nil, fmt.Errorf("at least one classifier model is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = 512
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HuggingFace{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		token:    cfg.APIToken,
		models:   append([]string(nil), cfg.Models...),
		maxChars: maxChars,
		timeout:  timeout,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
			},
		},
		limiter: limiter,
		logger:  logger,
	}, nil
}

// Classify tries each candidate model in order; the first usable answer wins
func (c *HuggingFace) Classify(ctx context.Context, text string) Outcome {
	snippet := truncateRunes(text, c.maxChars)

	var errs []error
	for _, m := range c.models {
		p, err := c.classifyWith(ctx, m, snippet)
		if err == nil {
			return Outcome{
				Probability: model.Clamp01(p),
				Available:   true,
				Source:      "huggingface:" + m,
			}
		}

		if errors.Is(err, errModelLoading) {
			c.logger.Debug("classifier model still loading", "model", m)
		} else {
			c.logger.Debug("classifier model failed", "model", m, "error", err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", m, err))
	}

	c.logger.Warn("all classifier models failed, falling back to local signals", "candidates", len(c.models))
	return Unavailable(fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(errs...)))
}

// classifyWith calls a single model under its own timeout
func (c *HuggingFace) classifyWith(ctx context.Context, modelName, text string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/models/%s", c.baseURL, modelName)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, url); err != nil {
			return 0, fmt.Errorf("rate limit: %w", err)
		}
	}

	body, err := json.Marshal(hfRequest{Inputs: text})
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr hfError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			if strings.Contains(strings.ToLower(apiErr.Error), "loading") {
				return 0, errModelLoading
			}
			return 0, fmt.Errorf("API error (%d): %s", httpResp.StatusCode, apiErr.Error)
		}
		return 0, fmt.Errorf("API error (%d)", httpResp.StatusCode)
	}

	return parseProbability(respBody)
}

// parseProbability reads the first recognizable label from [[{label,score}]]
func parseProbability(body []byte) (float64, error) {
	var nested [][]hfLabelScore
	if err := json.Unmarshal(body, &nested); err != nil {
		var apiErr hfError
		if json.Unmarshal(body, &apiErr) == nil && strings.Contains(strings.ToLower(apiErr.Error), "loading") {
			return 0, errModelLoading
		}
		return 0, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(nested) == 0 {
		return 0, fmt.Errorf("empty response")
	}

	for _, item := range nested[0] {
		switch {
		case aiLabels[item.Label]:
			return item.Score, nil
		case humanLabels[item.Label]:
			return 1 - item.Score, nil
		}
	}
	return 0, fmt.Errorf("no recognizable label in response")
}

// truncateRunes keeps at most n characters without splitting a rune
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
