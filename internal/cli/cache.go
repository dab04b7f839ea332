package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewCacheCommand creates the cache command group.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the local payload cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show how many payloads the cache holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			cache, err := openCache(cfg.Crawl.CachePath)
			if err != nil {
				return fmt.Errorf("open cache %s: %w", cfg.Crawl.CachePath, err)
			}
			defer cache.Close()

			count, err := cache.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("count payloads: %w", err)
			}
			color.Cyan("%s: %d cached payload(s)", cfg.Crawl.CachePath, count)
			return nil
		},
	})

	return cmd
}
