package cli

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/verity/internal/engine"
	"github.com/ppiankov/verity/internal/model"
)

const version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "verity",
	Short: "Verity - AI-generated content detection and claim checking",
	Long: `Verity estimates whether text or images were produced by generative AI
and checks factual claims found in text.

Every score is fused from independent signals: an external classifier,
lexical patterns and sentence burstiness for text, EXIF metadata and pixel
properties for images. When a signal is unavailable the remaining ones are
reweighted and the confidence drops.

Verity reports probabilities, not proof of authorship.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for Verity.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("verity " + version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.verity/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig seeds viper with the defaults, then merges the config file and
// VERITY_* environment variables over them
func initConfig() {
	viper.SetConfigType("yaml")
	if defaults, err := yaml.Marshal(model.DefaultConfig()); err == nil {
		_ = viper.ReadConfig(bytes.NewReader(defaults))
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else if dir, err := configDir(); err == nil {
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
	} else {
		fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
	}

	// Read in environment variables that match VERITY_*, e.g. VERITY_VERIFIER_PROVIDER
	viper.SetEnvPrefix("VERITY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Secrets never appear in the YAML defaults, so bind them explicitly
	_ = viper.BindEnv("verifier.api_key", "VERITY_VERIFIER_API_KEY")
	_ = viper.BindEnv("classifier.api_token", "VERITY_CLASSIFIER_API_TOKEN", "HF_API_TOKEN")

	// If a config file is found, merge it over the defaults
	if err := viper.MergeInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// configDir returns ~/.verity
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".verity"), nil
}

// loadConfig decodes the layered configuration and fills provider
// credentials from their conventional environment variables
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	applyProviderEnv(cfg)

	if cfg.Cache.Enabled && cfg.Cache.Dir == "" {
		if dir, err := configDir(); err == nil {
			cfg.Cache.Dir = filepath.Join(dir, "cache")
		}
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose

	return cfg, nil
}

// applyProviderEnv reads ANTHROPIC_API_KEY, OPENAI_API_KEY, OLLAMA_BASE_URL
// and HF_API_TOKEN when the configuration leaves them empty
func applyProviderEnv(cfg *model.Config) {
	if cfg.Verifier.APIKey == "" {
		switch strings.ToLower(cfg.Verifier.Provider) {
		case "anthropic", "claude":
			cfg.Verifier.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			cfg.Verifier.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if strings.EqualFold(cfg.Verifier.Provider, "ollama") && cfg.Verifier.BaseURL == "" {
		cfg.Verifier.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	if cfg.Classifier.APIToken == "" {
		cfg.Classifier.APIToken = os.Getenv("HF_API_TOKEN")
	}
}

// newLogger builds the stderr logger; debug level with --verbose
func newLogger(cfg *model.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// setup loads the configuration, applies mutate (flag overrides) and builds the engine
func setup(mutate func(cfg *model.Config)) (*model.Config, *engine.Engine, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	if mutate != nil {
		mutate(cfg)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	eng, err := engine.New(cfg, engine.WithLogger(logger))
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, eng, logger, nil
}
