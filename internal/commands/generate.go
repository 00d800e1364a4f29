package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/wren/internal/config"
	"github.com/simonhull/firebird-suite/wren/internal/engine"
	"github.com/simonhull/firebird-suite/wren/internal/output"
	"github.com/simonhull/firebird-suite/wren/templates"
)

// GenerateCmd creates and returns the 'generate' command
func GenerateCmd() *cobra.Command {
	var configPath string
	var watchMode bool

	cmd := &cobra.Command{
		Use:   "generate [schema]",
		Short: "Generate resources from a schema",
		Long: `Generate per-locale, per-property resources from a schema file.

For every locale and every property, the template named after the property
type (string, number, enum, ...) is materialized, followed by the entity
templates <entity>Entity-<type>. A property may list its own templates in
$templates. The expanded schema is written as <prefix>.schema.dialog.

Existing files are never overwritten unless --force is given; use --diff to
see what would change.

Settings can also come from wren.yml (or --config) and WREN_* environment
variables. Flags win over both.

Examples:
  wren generate sandwich.schema
  wren generate sandwich.schema -l en-us -l fr-fr -t ./my-templates
  wren generate sandwich.schema --dry-run
  wren generate sandwich.schema --diff
  wren generate --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Schema = args[0]
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.File != "" {
				output.Verbose(fmt.Sprintf("Using config: %s", cfg.File))
			}
			if cfg.Diff {
				output.SetVerbose(true)
			}

			reporter := output.NewReporter()
			run := func(ctx context.Context) error {
				reporter.Reset()
				return runGenerate(ctx, cfg, reporter)
			}

			if !watchMode {
				return run(cmd.Context())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if err := run(ctx); err != nil {
				output.Error(err.Error())
			}
			return watch(ctx, cfg, func() {
				if err := run(ctx); err != nil {
					output.Error(err.Error())
				}
			})
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output directory (default <prefix>-resources)")
	cmd.Flags().StringP("prefix", "p", "", "Prefix for generated files (default schema name)")
	cmd.Flags().StringSliceP("locale", "l", nil, "Locale to generate, repeatable (default en-us)")
	cmd.Flags().StringSliceP("templates", "t", nil, "Template directory, repeatable; later directories win")
	cmd.Flags().BoolP("force", "f", false, "Overwrite existing files")
	cmd.Flags().Bool("diff", false, "Show differences for existing files that are skipped")
	cmd.Flags().Bool("dry-run", false, "Show what would be generated without writing files")
	cmd.Flags().BoolVar(&watchMode, "watch", false, "Regenerate when the schema or templates change")
	cmd.Flags().StringVar(&configPath, "config", "", "Config file (default ./wren.yml)")

	return cmd
}

// runGenerate performs one generation and summarizes it.
func runGenerate(ctx context.Context, cfg *config.Config, reporter *output.Reporter) error {
	res, err := engine.Generate(ctx, engine.Options{
		Schema:    cfg.Schema,
		OutDir:    cfg.Output,
		Prefix:    cfg.Prefix,
		Locales:   cfg.Locales,
		Templates: engine.Dirs(cfg.Templates, templates.Standard()),
		Force:     cfg.Force,
		Diff:      cfg.Diff,
		DryRun:    cfg.DryRun,
		Feedback:  reporter.Feedback,
	})
	if err != nil {
		return err
	}

	count := 1 // the schema itself
	for _, paths := range res.Files {
		count += len(paths)
	}

	if n := reporter.Errors(); n > 0 {
		return fmt.Errorf("generation reported %d error(s)", n)
	}
	if cfg.DryRun {
		output.Success(fmt.Sprintf("Dry run complete: %d files in %s", count, res.OutDir))
		return nil
	}
	output.Success(fmt.Sprintf("Generated %d files in %s", count, res.OutDir))
	if n := reporter.Warnings(); n > 0 {
		output.Info(fmt.Sprintf("%d existing file(s) kept; use --force to regenerate", n))
	}
	return nil
}
