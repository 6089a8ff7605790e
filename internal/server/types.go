package server

import (
	"time"

	"github.com/ppiankov/verity/internal/model"
)

// DetectRequest is the body of POST /detect and one item of a batch
type DetectRequest struct {
	Content        string            `json:"content" binding:"required"`
	ContentType    model.ContentType `json:"content_type"`
	SourceURL      string            `json:"source_url,omitempty"`
	SourcePlatform string            `json:"source_platform,omitempty"`
}

// DetectResponse is the result of one detection
type DetectResponse struct {
	Success          bool                         `json:"success"`
	VerificationID   string                       `json:"verification_id"`
	Classification   string                       `json:"classification"`
	AIProbability    float64                      `json:"ai_probability"`
	HumanProbability float64                      `json:"human_probability"`
	Confidence       float64                      `json:"confidence"`
	Scores           map[model.SignalName]float64 `json:"scores"`
	ContentPreview   string                       `json:"content_preview,omitempty"`
	ContentHash      string                       `json:"content_hash,omitempty"`
	Reason           string                       `json:"reason,omitempty"`
}

// BatchDetectRequest is the body of POST /detect/batch
type BatchDetectRequest struct {
	Items []DetectRequest `json:"items" binding:"required"`
}

// BatchDetectResponse carries per-item responses in input order
type BatchDetectResponse struct {
	Success bool               `json:"success"`
	Results []DetectResponse   `json:"results"`
	Summary model.BatchSummary `json:"summary"`
}

// TweetInput is one tweet object of POST /detect/tweets
type TweetInput struct {
	TweetID        string `json:"tweet_id"`
	Text           string `json:"text"`
	Username       string `json:"username"`
	DefaultProfile bool   `json:"default_profile"`
}

// TweetDetectRequest is the body of POST /detect/tweets
type TweetDetectRequest struct {
	Tweets    []TweetInput `json:"tweets" binding:"required"`
	SourceURL string       `json:"source_url,omitempty"`
}

// TweetResult is the outcome for one tweet
type TweetResult struct {
	TweetID        string  `json:"tweet_id"`
	Username       string  `json:"username"`
	TextPreview    string  `json:"text_preview"`
	Classification string  `json:"classification"`
	AIProbability  float64 `json:"ai_probability"`
	Confidence     float64 `json:"confidence"`
	IsBotLikely    bool    `json:"is_bot_likely"`
}

// TweetDetectResponse carries tweet results; skipped tweets are omitted
type TweetDetectResponse struct {
	Success bool               `json:"success"`
	Results []TweetResult      `json:"results"`
	Summary model.BatchSummary `json:"summary"`
}

// LookupResponse is the stored view of an earlier scan
type LookupResponse struct {
	VerificationID string    `json:"verification_id"`
	Classification string    `json:"classification"`
	AIProbability  float64   `json:"ai_probability"`
	Confidence     float64   `json:"confidence"`
	SourcePlatform string    `json:"source_platform"`
	CreatedAt      time.Time `json:"created_at"`
}

// FactCheckRequest is the body of POST /factcheck. When Claims is non-empty
// the claims are checked as given and Text is ignored.
type FactCheckRequest struct {
	Text   string   `json:"text"`
	Claims []string `json:"claims,omitempty"`
}

// ClaimRequest is the body of POST /factcheck/claim
type ClaimRequest struct {
	Claim string `json:"claim" form:"claim"`
}
