package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/verity/internal/engine"
	"github.com/ppiankov/verity/internal/model"
	"github.com/ppiankov/verity/internal/store"
	"github.com/ppiankov/verity/internal/worker"
)

const (
	responsePreviewChars = 100
	twitterPlatform      = "twitter"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "verifier": s.engine.VerifierName()})
}

func (s *Server) handleDetect(c *gin.Context) {
	var req DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	item := toItem(req)
	if !item.ContentType.Valid() {
		abort(c, http.StatusBadRequest, fmt.Sprintf("Unsupported content type: %s", req.ContentType))
		return
	}

	result, err := s.engine.Detect(c.Request.Context(), item)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, s.respond(c.Request.Context(), item, result))
}

func (s *Server) handleDetectBatch(c *gin.Context) {
	var req BatchDetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if len(req.Items) > maxBatchItems {
		abort(c, http.StatusBadRequest, fmt.Sprintf("too many items: %d (max %d)", len(req.Items), maxBatchItems))
		return
	}

	items := make([]worker.Item, len(req.Items))
	for i, r := range req.Items {
		items[i] = toItem(r)
	}

	ctx := c.Request.Context()
	batch := s.engine.DetectBatch(ctx, items)

	resp := BatchDetectResponse{
		Success: true,
		Results: make([]DetectResponse, len(batch.Items)),
		Summary: batch.Summary,
	}
	for i, r := range batch.Items {
		if r.Error != nil {
			resp.Results[i] = DetectResponse{
				Classification:   "ERROR",
				AIProbability:    0.5,
				HumanProbability: 0.5,
				Scores:           map[model.SignalName]float64{},
				Reason:           r.Error.Error(),
			}
			continue
		}
		resp.Results[i] = s.respond(ctx, r.Item, r.Result)
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDetectTweets(c *gin.Context) {
	var req TweetDetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	tweets := make([]engine.Tweet, len(req.Tweets))
	for i, t := range req.Tweets {
		tweets[i] = engine.Tweet{ID: t.TweetID, Text: t.Text, Username: t.Username, DefaultProfile: t.DefaultProfile}
	}

	ctx := c.Request.Context()
	batch := s.engine.DetectTweets(ctx, tweets)

	resp := TweetDetectResponse{
		Success: true,
		Results: make([]TweetResult, 0, len(batch.Results)),
		Summary: batch.Summary,
	}
	for _, r := range batch.Results {
		if r.Err == nil {
			rec := store.NewRecord(r.Result, model.ContentTweet, r.Tweet.Text, req.SourceURL, twitterPlatform)
			rec.Classification = r.Label()
			rec.Username = r.Tweet.Username
			rec.TweetID = r.Tweet.ID
			s.save(ctx, rec)
		}

		resp.Results = append(resp.Results, TweetResult{
			TweetID:        r.Tweet.ID,
			Username:       r.Tweet.Username,
			TextPreview:    preview(r.Tweet.Text, responsePreviewChars),
			Classification: r.Label(),
			AIProbability:  r.Result.AIProbability,
			Confidence:     r.Result.Confidence,
			IsBotLikely:    r.IsBot,
		})
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleLookup(c *gin.Context) {
	rec, err := s.store.Lookup(c.Request.Context(), c.Param("hash"))
	if errors.Is(err, store.ErrNotFound) {
		abort(c, http.StatusNotFound, "Content not found")
		return
	}
	if err != nil {
		s.logger.Error("lookup failed", "hash", c.Param("hash"), "error", err)
		abort(c, http.StatusInternalServerError, "lookup failed")
		return
	}

	c.JSON(http.StatusOK, LookupResponse{
		VerificationID: rec.VerificationID,
		Classification: rec.Classification,
		AIProbability:  rec.AIProbability,
		Confidence:     rec.Confidence,
		SourcePlatform: rec.SourcePlatform,
		CreatedAt:      rec.CreatedAt,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context())
	if err != nil {
		s.logger.Error("stats failed", "error", err)
		abort(c, http.StatusInternalServerError, "stats failed")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleFactCheck(c *gin.Context) {
	var req FactCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	var report model.FactCheckReport
	if len(req.Claims) > 0 {
		report = s.engine.VerifyClaims(c.Request.Context(), req.Claims)
	} else {
		report = s.engine.ExtractAndVerifyClaims(c.Request.Context(), req.Text)
	}
	c.JSON(http.StatusOK, report)
}

// handleFactCheckClaim accepts the claim as a JSON body or a ?claim= query parameter
func (s *Server) handleFactCheckClaim(c *gin.Context) {
	var req ClaimRequest
	if c.ContentType() == gin.MIMEJSON {
		if err := c.ShouldBindJSON(&req); err != nil {
			abort(c, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
			return
		}
	} else {
		req.Claim = c.Query("claim")
	}

	if strings.TrimSpace(req.Claim) == "" {
		abort(c, http.StatusBadRequest, "claim is required")
		return
	}

	c.JSON(http.StatusOK, s.engine.VerifySingleClaim(c.Request.Context(), req.Claim))
}

// respond stores a successful detection and builds its response
func (s *Server) respond(ctx context.Context, item worker.Item, result model.DetectionResult) DetectResponse {
	platform := item.SourcePlatform
	if platform == "" && item.ContentType == model.ContentTweet {
		platform = twitterPlatform
	}
	rec := s.save(ctx, store.NewRecord(result, item.ContentType, item.Content, item.SourceURL, platform))

	resp := DetectResponse{
		Success:          true,
		VerificationID:   rec.VerificationID,
		Classification:   result.Classification.String(),
		AIProbability:    result.AIProbability,
		HumanProbability: result.HumanProbability(),
		Confidence:       result.Confidence,
		Scores:           result.Scores,
		ContentHash:      result.Fingerprint,
		Reason:           result.Reason,
	}
	if item.ContentType != model.ContentImage {
		resp.ContentPreview = preview(item.Content, responsePreviewChars)
	}
	return resp
}

// save persists rec; a storage failure is logged and the detection still returned
func (s *Server) save(ctx context.Context, rec store.Record) store.Record {
	saved, err := s.store.Save(ctx, rec)
	if err != nil {
		s.logger.Warn("store detection failed", "fingerprint", rec.Fingerprint, "error", err)
		return rec
	}
	return saved
}

func toItem(r DetectRequest) worker.Item {
	ct := r.ContentType
	if ct == "" {
		ct = model.ContentText
	}
	return worker.Item{
		Content:        r.Content,
		ContentType:    ct,
		SourceURL:      r.SourceURL,
		SourcePlatform: r.SourcePlatform,
	}
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
