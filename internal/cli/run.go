package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmartin/veracity/internal/extract"
	"github.com/rmartin/veracity/internal/llm"
	"github.com/rmartin/veracity/internal/model"
	"github.com/rmartin/veracity/internal/pipeline"
	"github.com/rmartin/veracity/internal/store"
)

var (
	runURL       string
	runExtract   bool
	runWorkers   int
	runTimeout   time.Duration
	runJSONPath  string
	runSave      bool
	runMaxClaims int
	runNoCache   bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Verify a batch of claims from a file or a web page",
	Long: `Run verifies many claims in one pipeline run.

With a file argument each non-empty line is treated as one claim,
unless --extract is set, in which case the whole file is treated as a
document and claims are extracted from it. With --url the page is
fetched and claims are extracted from its text.`,
	Example: `  veracity run claims.txt
  veracity run --extract article.txt
  veracity run --url https://example.org/post --save`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if runURL == "" && len(args) == 0 {
			return fmt.Errorf("provide a claims file or --url")
		}
		if runURL != "" && len(args) > 0 {
			return fmt.Errorf("--url and a claims file are mutually exclusive")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if runWorkers > 0 {
			cfg.Concurrency.ClaimWorkers = runWorkers
		}
		if runNoCache {
			cfg.Cache.Enabled = false
		}

		ctx := cmd.Context()
		if runTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, runTimeout)
			defer cancel()
		}

		claims, err := collectClaims(ctx, cfg, args)
		if err != nil {
			return err
		}
		if len(claims) == 0 {
			return fmt.Errorf("no verifiable claims found")
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "Verifying %d claims with %d workers\n", len(claims), cfg.Concurrency.ClaimWorkers)
		}

		return executeRun(ctx, cfg, claims, runJSONPath, runSave)
	},
}

func init() {
	runCmd.Flags().StringVar(&runURL, "url", "", "fetch a web page and extract claims from it")
	runCmd.Flags().BoolVar(&runExtract, "extract", false, "treat the file as a document and extract claims")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "concurrent claims (default from config)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "overall run timeout (0 = none)")
	runCmd.Flags().StringVar(&runJSONPath, "json", "", "write the full report as JSON to this file ('-' for stdout)")
	runCmd.Flags().BoolVar(&runSave, "save", false, "persist the run to the local store")
	runCmd.Flags().IntVar(&runMaxClaims, "max-claims", 0, "cap on extracted claims (default 20)")
	runCmd.Flags().BoolVar(&runNoCache, "no-cache", false, "bypass the provider response cache")

	rootCmd.AddCommand(runCmd)
}

// collectClaims resolves the run input into an ordered claim list.
func collectClaims(ctx context.Context, cfg *model.Config, args []string) ([]model.Claim, error) {
	if runURL != "" {
		fetcher := pipeline.NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes,
			cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)
		page, err := fetcher.Fetch(ctx, runURL)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", runURL, err)
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "Fetched %q (%d chars)\n", page.Title, len(page.Text))
		}
		return extractClaims(ctx, cfg, page.Text)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("open claims file: %w", err)
	}
	defer f.Close()

	if runExtract {
		var sb strings.Builder
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			sb.WriteString(scanner.Text())
			sb.WriteString("\n")
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read claims file: %w", err)
		}
		return extractClaims(ctx, cfg, sb.String())
	}

	var claims []model.Claim
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		claims = append(claims, extract.Annotate(model.Claim{
			Text:      line,
			Position:  len(claims),
			Heuristic: "line",
		}))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read claims file: %w", err)
	}
	return claims, nil
}

// extractClaims runs the claim lister over free text, using the
// configured model when available and heuristics otherwise.
func extractClaims(ctx context.Context, cfg *model.Config, text string) ([]model.Claim, error) {
	backend, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "LLM unavailable for extraction (%v), using heuristics\n", err)
		}
		backend = nil
	}
	lister := extract.NewLister(backend, runMaxClaims)
	claims, err := lister.ListClaims(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extract claims: %w", err)
	}
	return claims, nil
}

// executeRun wires the orchestrator, runs the claims, and renders the
// report. Shared by run and verify.
func executeRun(ctx context.Context, cfg *model.Config, claims []model.Claim, jsonPath string, save bool) error {
	opts := pipeline.Options{Verbose: cfg.Output.Verbose}

	var stopEvents func()
	if cfg.Output.Verbose {
		events, stop := startEventPrinter()
		opts.Events = events
		stopEvents = stop
	}

	if save || cfg.Store.Enabled {
		db, err := store.Open(storePath(cfg))
		if err != nil {
			return fmt.Errorf("open run store: %w", err)
		}
		defer db.Close()
		opts.Store = db
	}

	orch, err := pipeline.New(cfg, opts)
	if err != nil {
		return err
	}

	report, err := orch.Run(ctx, claims)
	if stopEvents != nil {
		stopEvents()
	}
	if err != nil {
		return err
	}

	switch jsonPath {
	case "":
		printReport(os.Stdout, report)
	case "-":
		data, err := jsonReport(report)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	default:
		if err := writeJSON(jsonPath, report); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", jsonPath)
		printReport(os.Stdout, report)
	}
	return nil
}

// storePath anchors a relative store path under ~/.veracity.
func storePath(cfg *model.Config) string {
	path := cfg.Store.Path
	if path == "" {
		path = "veracity.db"
	}
	if filepath.IsAbs(path) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, ".veracity", path)
}
