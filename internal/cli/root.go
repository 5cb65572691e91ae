package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rmartin/veracity/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "veracity",
	Short: "Veracity - claim verification against heterogeneous evidence sources",
	Long: `Veracity verifies natural-language claims by retrieving evidence from
web search, domain APIs, and fact-check databases, scoring each source's
stance toward the claim, and synthesizing a calibrated verdict with
rationale.

Verdicts of insufficient_evidence, uncertain, and
conflicting_expert_opinion are first-class outcomes: Veracity abstains
rather than guessing when the evidence is weak or split.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. Interrupts cancel the run context so
// in-flight claims finish as failed instead of being lost.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("veracity v0.2.1")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.veracity/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".veracity"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("VERACITY")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges the config file and environment over the defaults
// and fills in the paths and keys that depend on the host.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	cfg.Output.Verbose = verbose || cfg.Output.Verbose

	if cfg.Cache.Dir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.Cache.Dir = filepath.Join(home, ".veracity", "cache")
		}
	}

	if key := os.Getenv("FACTCHECK_API_KEY"); key != "" {
		cfg.Providers.FactCheckAPIKey = key
	}
	resolveLLMEnv(cfg)
	return cfg, nil
}

// resolveLLMEnv pulls backend credentials from the environment, never
// the config file, and falls back to the rule-based pipeline when the
// configured backend has none.
func resolveLLMEnv(cfg *model.Config) {
	switch cfg.LLM.Provider {
	case "openai":
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			cfg.LLM.APIKey = key
		}
	case "anthropic", "claude":
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			cfg.LLM.APIKey = key
		}
	case "ollama":
		if base := os.Getenv("OLLAMA_BASE_URL"); base != "" {
			cfg.LLM.BaseURL = base
		}
	}
	switch cfg.LLM.Provider {
	case "openai", "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			if cfg.Output.Verbose {
				fmt.Fprintf(os.Stderr, "No API key for %s provider, running rule-based\n", cfg.LLM.Provider)
			}
			cfg.LLM.Provider = ""
		}
	}
}
