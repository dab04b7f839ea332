// Package cli implements the lineage-fetch command line interface.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	ConfigPath string
}

// NewRootCommand creates the root command for the lineage-fetch CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "lineage-fetch",
		Short: "Bulk-fetch kitty family data into a JSON document",
		Long: `lineage-fetch crawls kitty family trees through the public API and
writes the result as a bulk JSON document the web viewer can load offline.

Fetched payloads are cached in a local SQLite database so reruns only hit
the API for ids it has not seen before.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")

	cmd.AddCommand(NewFetchCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))

	return cmd
}
