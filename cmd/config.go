package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Print the configuration proxycheck would run with after merging
defaults, the config file, PROXYCHECK_* environment variables and flags.
The output is a valid config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return opts.WriteYAML(os.Stdout)
	},
}
