package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/wren/internal/config"
	"github.com/simonhull/firebird-suite/wren/internal/engine"
	"github.com/simonhull/firebird-suite/wren/internal/generator"
	"github.com/simonhull/firebird-suite/wren/internal/output"
	"github.com/simonhull/firebird-suite/wren/templates"
)

// TemplatesCmd creates and returns the 'templates' command
func TemplatesCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "templates [dir...]",
		Short: "List the templates visible through the template directories",
		Long: `List every logical template name and the directory that provides it.

Directories are searched in order and later directories win. Without
arguments the directories from wren.yml are used; "standard" is the bundled
library.

Examples:
  wren templates
  wren templates standard ./my-templates`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs := args
			if len(dirs) == 0 {
				cfg, err := config.Load(configPath, nil)
				if err != nil {
					return err
				}
				dirs = cfg.Templates
			}
			dirs = config.WithStandard(dirs)

			loc := engine.NewLocator(engine.Dirs(dirs, templates.Standard()), generator.NewRenderer())
			entries, err := loc.List()
			if err != nil {
				return err
			}

			output.Info(fmt.Sprintf("Templates from %s:", strings.Join(dirs, ", ")))
			for _, e := range entries {
				kind := "literal"
				if e.Structured {
					kind = "structured"
				}
				line := fmt.Sprintf("%-36s %-10s %s", e.Name, kind, e.Dir)
				if len(e.Overrides) > 0 {
					line += fmt.Sprintf(" (overrides %s)", strings.Join(e.Overrides, ", "))
				}
				output.Step(line)
			}
			output.Success(fmt.Sprintf("%d templates", len(entries)))
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file (default ./wren.yml)")

	return cmd
}
