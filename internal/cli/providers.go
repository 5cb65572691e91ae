package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rmartin/veracity/internal/cache"
	"github.com/rmartin/veracity/internal/provider"
	"github.com/rmartin/veracity/internal/worker"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List evidence providers and their circuit breaker state",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var store cache.Cache
		if cfg.Cache.Enabled {
			store = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		}
		limiter := worker.NewLimiter(cfg.Providers.RateLimit, cfg.Providers.RateBurst)
		registry := provider.NewRegistry(cfg, store, cache.NewStats(), limiter)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tKIND\tCACHE TTL\tBREAKER")
		for _, p := range registry.All() {
			snap := p.BreakerSnapshot()
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name(), p.Kind(), p.TTL(), snap.State)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
