package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verity/internal/model"
	"github.com/ppiankov/verity/internal/pipeline"
)

var claimArgs []string

// factcheckCmd represents the factcheck command
var factcheckCmd = &cobra.Command{
	Use:   "factcheck [text]",
	Short: "Extract factual claims from text and check them",
	Long: `Factcheck extracts sentences that carry checkable assertions (statistics,
attributions, dates, superlatives) and asks the configured verifier for a
verdict on each. Without a verifier credential a small rule set is used.

Verdicts: TRUE, FALSE, MISLEADING, UNVERIFIABLE, NEEDS_CONTEXT.

Example:
  verity factcheck "A new study shows that 90% of doctors agree."
  verity factcheck --url https://example.com/article --md factcheck.md
  verity factcheck --claim "5G causes COVID" --claim "Water boils at 100C"
  verity factcheck --file post.txt --verifier ollama --verifier-model llama3.1:8b`,
	RunE: runFactCheck,
}

// claimCmd represents the claim command
var claimCmd = &cobra.Command{
	Use:   "claim <text>",
	Short: "Check a single claim",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClaim,
}

func init() {
	rootCmd.AddCommand(factcheckCmd)
	rootCmd.AddCommand(claimCmd)

	for _, cmd := range []*cobra.Command{factcheckCmd, claimCmd} {
		addOutputFlags(cmd)
		cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout")
		cmd.Flags().StringVar(&verifierArg, "verifier", "", "verifier provider (anthropic, openai, ollama, none)")
		cmd.Flags().StringVar(&modelArg, "verifier-model", "", "verifier model name")
	}

	factcheckCmd.Flags().StringVarP(&inputFile, "file", "f", "", "read text from file")
	factcheckCmd.Flags().StringVar(&inputURL, "url", "", "fetch a web page and check its main text")
	factcheckCmd.Flags().StringArrayVar(&claimArgs, "claim", nil, "check this claim as given (repeatable); skips extraction")
	addFetchFlags(factcheckCmd)
}

func runFactCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg, eng, err := engineFor(cmd)
	if err != nil {
		return err
	}

	var (
		report  model.FactCheckReport
		subject = "claims"
	)
	if len(claimArgs) > 0 {
		report = eng.VerifyClaims(ctx, claimArgs)
	} else {
		var text string
		text, subject, err = readInput(ctx, cfg, args)
		if err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "⚙️  Checking claims with %s...\n", eng.VerifierName())
		}
		report = eng.ExtractAndVerifyClaims(ctx, text)
	}

	return renderFactCheck(cfg, subject, report)
}

func runClaim(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg, eng, err := engineFor(cmd)
	if err != nil {
		return err
	}

	verdict := eng.VerifySingleClaim(ctx, strings.Join(args, " "))
	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)

	if outJSON == "-" {
		return renderer.WriteJSON(os.Stdout, verdict)
	}

	fmt.Printf("%s (%.2f, %s)\n", verdict.Label, verdict.Confidence, verdict.Origin)
	if verdict.Explanation != "" {
		fmt.Printf("\n%s\n", verdict.Explanation)
	}
	if len(verdict.Sources) > 0 {
		fmt.Printf("\nSources: %s\n", strings.Join(verdict.Sources, ", "))
	}

	if outJSON != "" {
		if err := renderer.RenderJSON(verdict, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}
	return nil
}

func renderFactCheck(cfg *model.Config, subject string, report model.FactCheckReport) error {
	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)

	if outJSON == "-" {
		return renderer.WriteJSON(os.Stdout, report)
	}

	renderer.FactCheckSummary(os.Stdout, report)

	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ JSON report: %s\n", outJSON)
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(renderer.FactCheckMarkdown(subject, report), outMD); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Markdown report: %s\n", outMD)
	}
	return nil
}
