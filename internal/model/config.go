package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Config is the complete runtime configuration
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Classifier   ClassifierConfig   `yaml:"classifier" mapstructure:"classifier"`
	Verifier     VerifierConfig     `yaml:"verifier" mapstructure:"verifier"`
	Detection    DetectionConfig    `yaml:"detection" mapstructure:"detection"`
	Image        ImageConfig        `yaml:"image" mapstructure:"image"`
	FactCheck    FactCheckConfig    `yaml:"factcheck" mapstructure:"factcheck"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls outbound HTTP used by the URL fetcher
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobot bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// ClassifierConfig configures the external text classifier
type ClassifierConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	BaseURL  string        `yaml:"base_url" mapstructure:"base_url"`
	APIToken string        `yaml:"-" mapstructure:"api_token"`
	Models   []string      `yaml:"models" mapstructure:"models"` // Tried in order
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxChars int           `yaml:"max_chars" mapstructure:"max_chars"`
}

// VerifierConfig configures the external claim verifier
type VerifierConfig struct {
	Provider  string        `yaml:"provider" mapstructure:"provider"` // anthropic, openai, ollama, or empty
	Model     string        `yaml:"model" mapstructure:"model"`
	APIKey    string        `yaml:"-" mapstructure:"api_key"`
	BaseURL   string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// DetectionConfig holds the text fusion constants
type DetectionConfig struct {
	MinWords             int      `yaml:"min_words" mapstructure:"min_words"`
	ExternalWeight       float64  `yaml:"external_weight" mapstructure:"external_weight"`
	PatternWeight        float64  `yaml:"pattern_weight" mapstructure:"pattern_weight"`
	StatisticalWeight    float64  `yaml:"statistical_weight" mapstructure:"statistical_weight"`
	FallbackPattern      float64  `yaml:"fallback_pattern_weight" mapstructure:"fallback_pattern_weight"`
	FallbackStatistical  float64  `yaml:"fallback_statistical_weight" mapstructure:"fallback_statistical_weight"`
	ExternalConfidence   float64  `yaml:"external_confidence" mapstructure:"external_confidence"`
	FallbackConfidence   float64  `yaml:"fallback_confidence" mapstructure:"fallback_confidence"`
	HighBotPlatforms     []string `yaml:"high_bot_platforms" mapstructure:"high_bot_platforms"`
	PlatformMultiplier   float64  `yaml:"platform_multiplier" mapstructure:"platform_multiplier"`
	PlatformCap          float64  `yaml:"platform_cap" mapstructure:"platform_cap"`
	BotProbability       float64  `yaml:"bot_probability" mapstructure:"bot_probability"`
	BotFallbackThreshold float64  `yaml:"bot_fallback_probability" mapstructure:"bot_fallback_probability"`
}

// ImageSize is a width×height pair
type ImageSize struct {
	Width  int `yaml:"width" mapstructure:"width"`
	Height int `yaml:"height" mapstructure:"height"`
}

// ImageConfig holds the image fusion constants
type ImageConfig struct {
	AISizes        []ImageSize `yaml:"ai_sizes" mapstructure:"ai_sizes"`
	MetadataWeight float64     `yaml:"metadata_weight" mapstructure:"metadata_weight"`
	PropertyWeight float64     `yaml:"property_weight" mapstructure:"property_weight"`
	MaxSamples     int         `yaml:"max_samples" mapstructure:"max_samples"` // Pixel budget before grid sampling
	MaxPixels      int64       `yaml:"max_pixels" mapstructure:"max_pixels"`   // Larger images are rejected before decoding
}

// DefaultMaxImagePixels bounds width×height of a decodable image
const DefaultMaxImagePixels = 89_478_485

// FactCheckConfig controls claim extraction and verification
type FactCheckConfig struct {
	MaxClaims int `yaml:"max_claims" mapstructure:"max_claims"`
}

// ConcurrencyConfig controls fan-out
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig limits outbound calls per host
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// CacheConfig controls the result store
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr        string   `yaml:"addr" mapstructure:"addr"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the documented defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Verity/0.1 (+https://github.com/ppiankov/verity)",
			MaxBodyBytes: 2_000_000,
			RespectRobot: true,
		},
		Classifier: ClassifierConfig{
			Enabled: true,
			BaseURL: "https://api-inference.huggingface.co",
			Models: []string{
				"roberta-large-openai-detector",
				"andreas122001/roberta-large-finetuned-ai-detection",
				"distilbert-base-uncased",
			},
			Timeout:  15 * time.Second,
			MaxChars: 512,
		},
		Verifier: VerifierConfig{
			Provider:  "anthropic",
			Timeout:   20 * time.Second,
			MaxTokens: 500,
		},
		Detection: DetectionConfig{
			MinWords:             5,
			ExternalWeight:       0.65,
			PatternWeight:        0.25,
			StatisticalWeight:    0.10,
			FallbackPattern:      0.70,
			FallbackStatistical:  0.30,
			ExternalConfidence:   0.85,
			FallbackConfidence:   0.60,
			HighBotPlatforms:     []string{"twitter", "x"},
			PlatformMultiplier:   1.1,
			PlatformCap:          0.99,
			BotProbability:       0.8,
			BotFallbackThreshold: 0.7,
		},
		Image: ImageConfig{
			AISizes: []ImageSize{
				{512, 512}, {768, 768}, {1024, 1024},
				{512, 768}, {768, 512}, {1024, 768}, {768, 1024},
				{1920, 1080}, {1080, 1920},
			},
			MetadataWeight: 0.7,
			PropertyWeight: 0.3,
			MaxSamples:     1 << 20,
			MaxPixels:      DefaultMaxImagePixels,
		},
		FactCheck: FactCheckConfig{
			MaxClaims: 5,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 8,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:        ":8000",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}

// Validate reports configuration the engine cannot run with
func (c *Config) Validate() error {
	var errs []error

	d := c.Detection
	if d.MinWords < 1 {
		errs = append(errs, fmt.Errorf("detection.min_words must be >= 1, got %d", d.MinWords))
	}
	if !sumsToOne(d.ExternalWeight, d.PatternWeight, d.StatisticalWeight) {
		errs = append(errs, errors.New("detection external/pattern/statistical weights must sum to 1"))
	}
	if !sumsToOne(d.FallbackPattern, d.FallbackStatistical) {
		errs = append(errs, errors.New("detection fallback weights must sum to 1"))
	}
	for name, v := range map[string]float64{
		"external_confidence":      d.ExternalConfidence,
		"fallback_confidence":      d.FallbackConfidence,
		"platform_cap":             d.PlatformCap,
		"bot_probability":          d.BotProbability,
		"bot_fallback_probability": d.BotFallbackThreshold,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("detection.%s must be in [0,1], got %v", name, v))
		}
	}
	if d.PlatformMultiplier <= 0 {
		errs = append(errs, fmt.Errorf("detection.platform_multiplier must be > 0, got %v", d.PlatformMultiplier))
	}

	if !sumsToOne(c.Image.MetadataWeight, c.Image.PropertyWeight) {
		errs = append(errs, errors.New("image metadata/property weights must sum to 1"))
	}
	if c.Image.MaxPixels <= 0 {
		errs = append(errs, fmt.Errorf("image.max_pixels must be > 0, got %d", c.Image.MaxPixels))
	}
	for _, s := range c.Image.AISizes {
		if s.Width <= 0 || s.Height <= 0 {
			errs = append(errs, fmt.Errorf("image.ai_sizes entry %dx%d is not positive", s.Width, s.Height))
		}
	}

	if c.Classifier.Enabled {
		if c.Classifier.BaseURL == "" {
			errs = append(errs, errors.New("classifier.base_url is required when the classifier is enabled"))
		}
		if len(c.Classifier.Models) == 0 {
			errs = append(errs, errors.New("classifier.models must list at least one candidate"))
		}
		if c.Classifier.MaxChars <= 0 {
			errs = append(errs, fmt.Errorf("classifier.max_chars must be > 0, got %d", c.Classifier.MaxChars))
		}
	}

	if c.FactCheck.MaxClaims <= 0 {
		errs = append(errs, fmt.Errorf("factcheck.max_claims must be > 0, got %d", c.FactCheck.MaxClaims))
	}
	if c.Concurrency.Workers <= 0 {
		errs = append(errs, fmt.Errorf("concurrency.workers must be > 0, got %d", c.Concurrency.Workers))
	}

	for _, origin := range c.Server.CORSOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			errs = append(errs, fmt.Errorf("server.cors_origins entry %q must be \"*\" or an http(s) origin", origin))
		}
	}

	return errors.Join(errs...)
}

func sumsToOne(weights ...float64) bool {
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return false
		}
		sum += w
	}
	return math.Abs(sum-1) < 1e-9
}
