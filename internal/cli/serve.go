package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ppiankov/verity/internal/model"
	"github.com/ppiankov/verity/internal/pipeline"
	"github.com/ppiankov/verity/internal/server"
	"github.com/ppiankov/verity/internal/store"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON detection API",
	Long: `Serve exposes detection, fact-checking and scan statistics over HTTP:

  POST /detect              {"content", "content_type", "source_url", "source_platform"}
  POST /detect/batch        {"items": [...]} (max 50)
  POST /detect/tweets       {"tweets": [...], "source_url"}
  GET  /detect/lookup/:hash
  POST /factcheck           {"text", "claims"}
  POST /factcheck/claim     {"claim"}
  GET  /stats
  GET  /healthz

Example:
  verity serve --addr :8000`,
	RunE: runServe,
}

// lookupCmd represents the lookup command
var lookupCmd = &cobra.Command{
	Use:   "lookup <content-hash>",
	Short: "Show the stored result for a content hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		rec, err := store.Open(cfg.Cache).Lookup(cmd.Context(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no stored result for %s", args[0])
		}
		if err != nil {
			return err
		}
		return pipeline.NewRenderer(false).WriteJSON(os.Stdout, rec)
	},
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize stored scan results",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		stats, err := store.Open(cfg.Cache).Stats(cmd.Context())
		if err != nil {
			return err
		}
		if outJSON == "-" {
			return pipeline.NewRenderer(false).WriteJSON(os.Stdout, stats)
		}

		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println("  Scan Statistics")
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println()
		fmt.Printf("  Total scans:  %d\n", stats.TotalScans)
		fmt.Printf("  AI:           %.1f%%\n", stats.AIPercentage)
		fmt.Printf("  Human:        %.1f%%\n", stats.HumanPercentage)
		fmt.Printf("  Mixed:        %.1f%%\n", stats.MixedPercentage)
		fmt.Printf("  Bot:          %.1f%%\n", stats.BotPercentage)
		fmt.Println()
		for _, name := range []string{"twitter", "reddit", "web"} {
			p := stats.Platforms[name]
			fmt.Printf("  %-8s %5d scans, %5.1f%% AI\n", name, p.Total, p.AIPercentage)
		}
		if len(stats.RecentScans) > 0 {
			fmt.Println()
			fmt.Println("  Recent:")
			for _, r := range stats.RecentScans {
				fmt.Printf("    %s  %-13s %5.1f%%  %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Classification, r.AIProbability*100, r.Preview)
			}
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(statsCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8000)")
	serveCmd.Flags().StringVar(&verifierArg, "verifier", "", "verifier provider (anthropic, openai, ollama, none)")
	serveCmd.Flags().StringVar(&modelArg, "verifier-model", "", "verifier model name")
	serveCmd.Flags().BoolVar(&noClassify, "no-classifier", false, "skip the external classifier")
	statsCmd.Flags().StringVar(&outJSON, "json", "", "write JSON to stdout with \"-\"")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, eng, logger, err := setup(func(cfg *model.Config) {
		applyCommonFlags(cmd, cfg)
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
	})
	if err != nil {
		return err
	}

	if !cfg.Output.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(eng, store.Open(cfg.Cache), logger).Run(ctx, cfg.Server.Addr)
}
