package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/finnkauski/mub"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mub:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "mub [config]",
		Short: "mub builds a static site from front-matter content files",
		Long: `mub walks a content directory, parses front matter, converts markdown
bodies to HTML, and renders everything through the configured templates
into a freshly rebuilt output directory, optionally emitting a JSON
search index.

The single argument is the path to a JSON configuration file; it
defaults to config.json in the current directory.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "config.json"
			if len(args) == 1 {
				path = args[0]
			}

			cfg, err := mub.LoadConfig(path)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("strict") {
				cfg.Strict = strict
			}

			return mub.Generate(cmd.Context(), cfg)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "abort the whole run on the first item failure")
	return cmd
}
