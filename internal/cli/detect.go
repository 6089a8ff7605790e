package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verity/internal/engine"
	"github.com/ppiankov/verity/internal/model"
	"github.com/ppiankov/verity/internal/pipeline"
	"github.com/ppiankov/verity/internal/store"
)

var (
	outJSON     string
	outMD       string
	timeout     time.Duration
	inputFile   string
	inputURL    string
	platform    string
	userAgent   string
	httpProxy   string
	httpsProxy  string
	noCache     bool
	noFooter    bool
	noRobots    bool
	noClassify  bool
	verifierArg string
	modelArg    string
)

// detectCmd represents the detect command
var detectCmd = &cobra.Command{
	Use:   "detect [text]",
	Short: "Estimate whether text was AI-generated",
	Long: `Detect fuses three signals into an AI probability for a piece of text:
- External classifier (Hugging Face inference API, if reachable)
- Lexical AI and human indicators
- Sentence-length burstiness

Text comes from the arguments, --file, --url, or stdin ("-").

Example:
  verity detect "Let's delve into this comprehensive topic."
  verity detect --file essay.txt --json result.json
  verity detect --url https://example.com/post --md result.md
  pbpaste | verity detect - --platform twitter`,
	RunE: runDetect,
}

// imageCmd represents the image command
var imageCmd = &cobra.Command{
	Use:   "image <file>",
	Short: "Estimate whether an image was AI-generated",
	Long: `Image fuses EXIF metadata (generator software, camera make/model) with
pixel properties (dimensions, colour variance, edge density).

Example:
  verity image photo.jpg
  verity image render.png --json result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runImage,
}

func init() {
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(imageCmd)

	for _, cmd := range []*cobra.Command{detectCmd, imageCmd} {
		addOutputFlags(cmd)
		cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout")
		cmd.Flags().BoolVar(&noCache, "no-cache", false, "do not record the result in the local store")
	}

	detectCmd.Flags().StringVarP(&inputFile, "file", "f", "", "read text from file")
	detectCmd.Flags().StringVar(&inputURL, "url", "", "fetch a web page and detect its main text")
	detectCmd.Flags().StringVar(&platform, "platform", "", "source platform (twitter, reddit, web)")
	detectCmd.Flags().BoolVar(&noClassify, "no-classifier", false, "skip the external classifier")
	addFetchFlags(detectCmd)
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (\"-\" for stdout)")
	cmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent for --url")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	cmd.Flags().BoolVar(&noRobots, "ignore-robots", false, "fetch --url even when robots.txt disallows it")
}

// applyCommonFlags copies flag overrides into cfg
func applyCommonFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("no-footer") {
		cfg.Output.IncludeFooter = !noFooter
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("no-classifier") {
		cfg.Classifier.Enabled = !noClassify
	}
	if flags.Changed("ua") {
		cfg.HTTP.UserAgent = userAgent
	}
	if flags.Changed("http-proxy") {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if flags.Changed("https-proxy") {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	if flags.Changed("ignore-robots") {
		cfg.HTTP.RespectRobot = !noRobots
	}
	if flags.Changed("verifier") {
		cfg.Verifier.Provider = verifierArg
		applyProviderEnv(cfg)
	}
	if flags.Changed("verifier-model") {
		cfg.Verifier.Model = modelArg
	}
}

// readInput resolves text from args, --file, --url or stdin
func readInput(ctx context.Context, cfg *model.Config, args []string) (text, subject string, err error) {
	switch {
	case inputURL != "":
		page, err := pipeline.FetcherFromConfig(cfg.HTTP).FetchText(ctx, inputURL)
		if err != nil {
			return "", "", fmt.Errorf("fetch %s: %w", inputURL, err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Fetched %s (%s adapter, %d chars)\n", page.URL, page.Adapter, len(page.Text))
		}
		return page.Text, page.Subject, nil

	case inputFile != "":
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", "", fmt.Errorf("read %s: %w", inputFile, err)
		}
		return string(data), filepath.Base(inputFile), nil

	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), "stdin", nil

	case len(args) > 0:
		return strings.Join(args, " "), "input", nil

	default:
		return "", "", fmt.Errorf("no input: pass text, --file, --url or -")
	}
}

func runDetect(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg, eng, err := engineFor(cmd)
	if err != nil {
		return err
	}

	text, subject, err := readInput(ctx, cfg, args)
	if err != nil {
		return err
	}

	contentType := model.ContentText
	if strings.EqualFold(platform, "twitter") || strings.EqualFold(platform, "x") {
		contentType = model.ContentTweet
	}
	src := platform
	if inputURL != "" && src == "" {
		src = "web"
	}

	result := eng.DetectText(ctx, text, platform)
	record(ctx, cfg, store.NewRecord(result, contentType, text, inputURL, src))

	return renderDetection(cfg, subject, result)
}

func runImage(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg, eng, err := engineFor(cmd)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	result := eng.DetectImage(ctx, data)
	record(ctx, cfg, store.NewRecord(result, model.ContentImage, "", "", ""))

	return renderDetection(cfg, filepath.Base(args[0]), result)
}

// record saves a detection to the local store when caching is enabled
func record(ctx context.Context, cfg *model.Config, rec store.Record) {
	if !cfg.Cache.Enabled {
		return
	}
	saved, err := store.Open(cfg.Cache).Save(ctx, rec)
	if err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "✗ Not recorded: %v\n", err)
		}
		return
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Recorded %s (hash %s)\n", saved.VerificationID, saved.Fingerprint)
	}
}

func renderDetection(cfg *model.Config, subject string, result model.DetectionResult) error {
	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)

	if outJSON == "-" {
		return renderer.WriteJSON(os.Stdout, result)
	}

	renderer.DetectionSummary(os.Stdout, subject, result)

	if outJSON != "" {
		if err := renderer.RenderJSON(result, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ JSON report: %s\n", outJSON)
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(renderer.DetectionMarkdown(subject, result), outMD); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Markdown report: %s\n", outMD)
	}
	return nil
}

// engineFor loads configuration with cmd's flag overrides and builds the engine
func engineFor(cmd *cobra.Command) (*model.Config, *engine.Engine, error) {
	return engineForWith(cmd, nil)
}

// engineForWith is engineFor with extra overrides applied after the flags
func engineForWith(cmd *cobra.Command, extra func(cfg *model.Config)) (*model.Config, *engine.Engine, error) {
	cfg, eng, _, err := setup(func(cfg *model.Config) {
		applyCommonFlags(cmd, cfg)
		if extra != nil {
			extra(cfg)
		}
	})
	return cfg, eng, err
}
