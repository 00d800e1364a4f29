package commands

import (
	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/wren"
	"github.com/simonhull/firebird-suite/wren/internal/output"
)

// RootCmd creates and returns the root command for the Wren CLI
func RootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "wren",
		Short: "Localized dialog resource generator",
		Long: `Wren generates language generation (.lg), language understanding (.lu)
and dialog (.dialog) resources from a property schema.

Each property is matched to templates by its type. Templates live in layered
directories: the bundled "standard" library first, your own directories on
top, so any built-in template can be overridden by name.

Learn more: https://github.com/simonhull/firebird-suite`,
		Version:       wren.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetVerbose(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output for debugging")

	return cmd
}
