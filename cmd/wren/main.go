package main

import (
	"os"

	"github.com/simonhull/firebird-suite/wren/internal/commands"
	"github.com/simonhull/firebird-suite/wren/internal/output"
)

func main() {
	rootCmd := commands.RootCmd()

	rootCmd.AddCommand(commands.GenerateCmd())
	rootCmd.AddCommand(commands.TemplatesCmd())

	if err := rootCmd.Execute(); err != nil {
		output.Error(err.Error())
		os.Exit(1)
	}
}
