package engine

import (
	"context"

	"github.com/ppiankov/verity/internal/model"
	"github.com/ppiankov/verity/internal/worker"
)

// minTweetChars is the shortest tweet text worth detecting
const minTweetChars = 5

// BatchResult holds per-item results in input order plus a summary
type BatchResult struct {
	Items   []*worker.ItemResult
	Summary model.BatchSummary
}

// DetectBatch detects every item concurrently. A failing item gets a
// substitute UNCERTAIN result; the others are unaffected.
func (e *Engine) DetectBatch(ctx context.Context, items []worker.Item) BatchResult {
	results := worker.NewBatchProcessor(e, e.cfg.Concurrency.Workers).Process(ctx, items)
	for _, r := range results {
		if r.Error != nil {
			e.logger.Warn("batch item failed", "index", r.Index, "error", r.Error)
		}
	}
	return BatchResult{Items: results, Summary: worker.Summarize(results)}
}

// Tweet is one social post with its account metadata
type Tweet struct {
	ID             string `json:"tweet_id,omitempty"`
	Text           string `json:"text"`
	Username       string `json:"username,omitempty"`
	DefaultProfile bool   `json:"default_profile,omitempty"`
}

// TweetResult is the detection outcome for one tweet
type TweetResult struct {
	Tweet  Tweet
	Result model.DetectionResult
	IsBot  bool
	Err    error
}

// Label is BOT for likely bots, otherwise the classification
func (r TweetResult) Label() string {
	if r.IsBot {
		return "BOT"
	}
	return r.Result.Classification.String()
}

type tweetJobResult struct {
	TweetResult
}

func (*tweetJobResult) GetError() error { return nil }

// TweetBatchResult holds tweet results in input order, skipped tweets omitted
type TweetBatchResult struct {
	Results []TweetResult
	Summary model.BatchSummary
}

// DetectTweets detects tweets as platform "twitter" and applies the bot overlay.
// Tweets shorter than five characters are skipped.
func (e *Engine) DetectTweets(ctx context.Context, tweets []Tweet) TweetBatchResult {
	kept := make([]Tweet, 0, len(tweets))
	for _, t := range tweets {
		if len(t.Text) < minTweetChars {
			continue
		}
		kept = append(kept, t)
	}

	jobs := make([]worker.Job, len(kept))
	for i, t := range kept {
		t := t // per-iteration copy (go < 1.22 loop semantics)
		jobs[i] = worker.JobFunc(func(ctx context.Context) worker.Result {
			r := e.DetectText(ctx, t.Text, "twitter")
			meta := &model.AccountMetadata{Username: t.Username, DefaultProfile: t.DefaultProfile}
			return &tweetJobResult{TweetResult{Tweet: t, Result: r, IsBot: e.IsLikelyBot(r, meta)}}
		})
	}

	results := make([]TweetResult, len(kept))
	for i, res := range worker.NewPool(e.cfg.Concurrency.Workers).Run(ctx, jobs) {
		if tr, ok := res.(*tweetJobResult); ok {
			results[i] = tr.TweetResult
			continue
		}
		e.logger.Warn("tweet detection failed", "index", i, "error", res.GetError())
		results[i] = TweetResult{
			Tweet:  kept[i],
			Result: model.UncertainResult("", 0, res.GetError().Error()),
			Err:    res.GetError(),
		}
	}

	s := model.BatchSummary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Failed++
			continue
		case r.Result.AIProbability >= 0.5:
			s.AICount++
		default:
			s.HumanCount++
		}
		if r.IsBot {
			s.BotCount++
		}
	}
	s.AIPercentage = worker.Percentage(s.AICount, s.Total)
	s.BotPercentage = worker.Percentage(s.BotCount, s.Total)

	return TweetBatchResult{Results: results, Summary: s}
}
