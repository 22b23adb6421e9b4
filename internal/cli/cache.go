package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/certmap/internal/cache"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Maintain the mapping result cache",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired entries from the disk cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Cache.Dir == "" {
			return fmt.Errorf("cache.dir is not set")
		}

		removed, err := cache.NewDiskCache(cfg.Cache.Dir, cfg.Cache.DiskTTL).Prune()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d expired entries from %s\n", removed, cfg.Cache.Dir)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached mapping result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.Cache.Enabled = true

		if err := cache.FromConfig(cfg.Cache).Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared cache %s\n", cfg.Cache.Dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
