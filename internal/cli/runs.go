package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmartin/veracity/internal/store"
)

var (
	runsLimit    int
	runsJSONShow bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect persisted verification runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := store.Open(storePath(cfg))
		if err != nil {
			return fmt.Errorf("open run store: %w", err)
		}
		defer db.Close()

		summaries, err := db.ListRuns(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Println("No stored runs.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN ID\tSTARTED\tDURATION\tCLAIMS")
		for _, s := range summaries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
				s.RunID,
				s.StartedAt.Local().Format("2006-01-02 15:04:05"),
				s.FinishedAt.Sub(s.StartedAt).Round(10*time.Millisecond),
				s.ClaimCount)
		}
		return w.Flush()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print a stored run report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := store.Open(storePath(cfg))
		if err != nil {
			return fmt.Errorf("open run store: %w", err)
		}
		defer db.Close()

		report, err := db.GetRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if runsJSONShow {
			data, err := jsonReport(report)
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}
		printReport(os.Stdout, report)
		return nil
	},
}

func init() {
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	runsShowCmd.Flags().BoolVar(&runsJSONShow, "json", false, "print the report as JSON")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
