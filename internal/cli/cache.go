package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmartin/veracity/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the provider response cache",
}

var cacheResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all cached provider responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Cache.Dir == "" {
			return fmt.Errorf("no cache directory configured")
		}
		disk := cache.NewDiskCache(cfg.Cache.Dir, cfg.Cache.DiskTTL)
		if err := disk.Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Printf("Cache cleared: %s\n", cfg.Cache.Dir)
		return nil
	},
}

var cacheDirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Print the cache directory path",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Println(cfg.Cache.Dir)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheResetCmd)
	cacheCmd.AddCommand(cacheDirCmd)
	rootCmd.AddCommand(cacheCmd)
}
