package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmartin/veracity/internal/extract"
	"github.com/rmartin/veracity/internal/model"
)

var (
	verifyLLMProvider string
	verifyLLMModel    string
	verifyTimeout     time.Duration
	verifyJSONPath    string
	verifySave        bool
	verifyNoCache     bool
	verifyTolerance   float64
)

var verifyCmd = &cobra.Command{
	Use:   "verify <claim>",
	Short: "Verify a single claim",
	Long: `Verify retrieves evidence for one claim, scores each source's stance,
and prints a verdict with rationale and cited sources.`,
	Example: `  veracity verify "UK inflation fell to 4.6% in October 2023"
  veracity verify --tolerance 0.2 "GDP grew 0.3% last quarter"
  veracity verify --json - "The Thames is 215 miles long"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if verifyLLMProvider != "" {
			cfg.LLM.Provider = verifyLLMProvider
			resolveLLMEnv(cfg)
		}
		if verifyLLMModel != "" {
			cfg.LLM.Model = verifyLLMModel
		}
		if verifyNoCache {
			cfg.Cache.Enabled = false
		}

		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			return fmt.Errorf("claim text is empty")
		}
		claim := extract.Annotate(model.Claim{Text: text, Heuristic: "direct"})
		if cmd.Flags().Changed("tolerance") {
			tol := verifyTolerance
			claim.NumericTolerance = &tol
		}

		ctx := cmd.Context()
		if verifyTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, verifyTimeout)
			defer cancel()
		}

		return executeRun(ctx, cfg, []model.Claim{claim}, verifyJSONPath, verifySave)
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyLLMProvider, "llm-provider", "", "override the LLM provider (openai, anthropic, ollama)")
	verifyCmd.Flags().StringVar(&verifyLLMModel, "llm-model", "", "override the LLM model")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 2*time.Minute, "overall timeout (0 = none)")
	verifyCmd.Flags().StringVar(&verifyJSONPath, "json", "", "write the full report as JSON to this file ('-' for stdout)")
	verifyCmd.Flags().BoolVar(&verifySave, "save", false, "persist the run to the local store")
	verifyCmd.Flags().BoolVar(&verifyNoCache, "no-cache", false, "bypass the provider response cache")
	verifyCmd.Flags().Float64Var(&verifyTolerance, "tolerance", 0, "acceptable deviation for numeric claims")

	rootCmd.AddCommand(verifyCmd)
}
