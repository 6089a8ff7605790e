package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verity/internal/engine"
	"github.com/ppiankov/verity/internal/model"
	"github.com/ppiankov/verity/internal/pipeline"
	"github.com/ppiankov/verity/internal/store"
	"github.com/ppiankov/verity/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Detect many items from a file in parallel",
	Long: `Batch detects every item of a file concurrently:
- One item per line; plain lines are text
- Lines starting with "{" are JSON: {"content": ..., "content_type": "text|tweet|image", "source_platform": ...}
- A failing item is reported and the rest continue
- Writes batch.json and batch.md to the output directory

Example:
  verity batch posts.txt
  verity batch items.jsonl --concurrency 10 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

// tweetsCmd represents the tweets command
var tweetsCmd = &cobra.Command{
	Use:   "tweets <file.json>",
	Short: "Detect AI and bot-like posts in a tweet export",
	Long: `Tweets reads a JSON array of {"tweet_id", "text", "username", "default_profile"}
objects, detects each tweet as twitter content and flags likely bot accounts.
Tweets shorter than five characters are skipped.

Example:
  verity tweets timeline.json
  verity tweets timeline.json --json tweets-report.json`,
	Args: cobra.ExactArgs(1),
	RunE: runTweets,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(tweetsCmd)

	for _, cmd := range []*cobra.Command{batchCmd, tweetsCmd} {
		cmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
		cmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
		cmd.Flags().BoolVar(&noCache, "no-cache", false, "do not record results in the local store")
		cmd.Flags().BoolVar(&noClassify, "no-classifier", false, "skip the external classifier")
	}

	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./verity-reports", "output directory for reports")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	tweetsCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (\"-\" for stdout)")
}

func batchEngine(cmd *cobra.Command) (*model.Config, *engine.Engine, error) {
	return engineForWith(cmd, func(cfg *model.Config) {
		if cmd.Flags().Changed("concurrency") || cfg.Concurrency.Workers <= 0 {
			cfg.Concurrency.Workers = concurrency
		}
	})
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	cfg, eng, err := batchEngine(cmd)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Verity Batch Detection\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fmt.Fprintf(os.Stderr, "⚙️  Reading items from file...\n")
	items, err := worker.ReadItemsFromFile(file)
	if err != nil {
		return fmt.Errorf("read items: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded %d items\n\n", len(items))

	batch := eng.DetectBatch(ctx, items)

	var st *store.Store
	if cfg.Cache.Enabled {
		st = store.Open(cfg.Cache)
	}

	for _, r := range batch.Items {
		label := itemLabel(r.Item)
		if r.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", label, r.Error)
			continue
		}
		if st != nil {
			if _, err := st.Save(ctx, store.NewRecord(r.Result, r.Item.ContentType, r.Item.Content, r.Item.SourceURL, r.Item.SourcePlatform)); err != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: not recorded: %v\n", label, err)
			}
		}
		fmt.Fprintf(os.Stderr, "✓ %s (%s, %.1f%%)\n", label, r.Result.Classification, r.Result.AIProbability*100)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	jsonPath := filepath.Join(outputDir, "batch.json")
	mdPath := filepath.Join(outputDir, "batch.md")
	if err := renderer.RenderJSON(batchReport(batch), jsonPath); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	if err := renderer.RenderMarkdown(renderer.BatchMarkdown(batchItems(batch), batch.Summary), mdPath); err != nil {
		return fmt.Errorf("write Markdown: %w", err)
	}

	s := batch.Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d items\n", s.Total)
	fmt.Fprintf(os.Stderr, "  AI:        %d (%.1f%%)\n", s.AICount, s.AIPercentage)
	fmt.Fprintf(os.Stderr, "  Human:     %d\n", s.HumanCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", s.Failed)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

type batchItemReport struct {
	Index  int                   `json:"index"`
	Item   worker.Item           `json:"item"`
	Result model.DetectionResult `json:"result"`
	Error  string                `json:"error,omitempty"`
}

type batchFileReport struct {
	Items   []batchItemReport  `json:"items"`
	Summary model.BatchSummary `json:"summary"`
}

func batchReport(b engine.BatchResult) batchFileReport {
	out := batchFileReport{Items: make([]batchItemReport, len(b.Items)), Summary: b.Summary}
	for i, r := range b.Items {
		out.Items[i] = batchItemReport{Index: r.Index, Item: r.Item, Result: r.Result}
		if r.Error != nil {
			out.Items[i].Error = r.Error.Error()
		}
		if r.Item.ContentType == model.ContentImage {
			out.Items[i].Item.Content = ""
		}
	}
	return out
}

func batchItems(b engine.BatchResult) []worker.ItemResult {
	out := make([]worker.ItemResult, len(b.Items))
	for i, r := range b.Items {
		out[i] = *r
	}
	return out
}

func itemLabel(item worker.Item) string {
	if item.ContentType == model.ContentImage {
		return "[image]"
	}
	s := strings.Join(strings.Fields(item.Content), " ")
	if r := []rune(s); len(r) > 50 {
		s = string(r[:50]) + "…"
	}
	return s
}

type tweetReport struct {
	TweetID        string  `json:"tweet_id"`
	Username       string  `json:"username"`
	TextPreview    string  `json:"text_preview"`
	Classification string  `json:"classification"`
	AIProbability  float64 `json:"ai_probability"`
	Confidence     float64 `json:"confidence"`
	IsBotLikely    bool    `json:"is_bot_likely"`
	Error          string  `json:"error,omitempty"`
}

func runTweets(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	cfg, eng, err := batchEngine(cmd)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	var tweets []engine.Tweet
	if err := json.Unmarshal(data, &tweets); err != nil {
		return fmt.Errorf("decode tweets: %w", err)
	}

	out := eng.DetectTweets(ctx, tweets)

	var st *store.Store
	if cfg.Cache.Enabled {
		st = store.Open(cfg.Cache)
	}

	reports := make([]tweetReport, len(out.Results))
	for i, r := range out.Results {
		reports[i] = tweetReport{
			TweetID:        r.Tweet.ID,
			Username:       r.Tweet.Username,
			TextPreview:    itemLabel(worker.Item{Content: r.Tweet.Text}),
			Classification: r.Label(),
			AIProbability:  r.Result.AIProbability,
			Confidence:     r.Result.Confidence,
			IsBotLikely:    r.IsBot,
		}
		if r.Err != nil {
			reports[i].Error = r.Err.Error()
			continue
		}
		if st != nil {
			rec := store.NewRecord(r.Result, model.ContentTweet, r.Tweet.Text, "", "twitter")
			rec.Classification = r.Label()
			rec.Username = r.Tweet.Username
			rec.TweetID = r.Tweet.ID
			if _, err := st.Save(ctx, rec); err != nil && verbose {
				fmt.Fprintf(os.Stderr, "✗ tweet %s not recorded: %v\n", r.Tweet.ID, err)
			}
		}
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	payload := struct {
		Results []tweetReport      `json:"results"`
		Summary model.BatchSummary `json:"summary"`
	}{reports, out.Summary}

	if outJSON == "-" {
		return renderer.WriteJSON(os.Stdout, payload)
	}

	for _, r := range reports {
		mark := "✓"
		if r.IsBotLikely || r.Error != "" {
			mark = "✗"
		}
		fmt.Printf("%s @%-20s %-13s %5.1f%%  %s\n", mark, r.Username, r.Classification, r.AIProbability*100, r.TextPreview)
	}

	s := out.Summary
	fmt.Printf("\n  Total: %d   AI: %d (%.1f%%)   Bots: %d (%.1f%%)   Failed: %d\n\n",
		s.Total, s.AICount, s.AIPercentage, s.BotCount, s.BotPercentage, s.Failed)

	if outJSON != "" {
		if err := renderer.RenderJSON(payload, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ JSON report: %s\n", outJSON)
	}
	return nil
}
