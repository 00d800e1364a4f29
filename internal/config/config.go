// Package config loads wren settings from wren.yml, WREN_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/simonhull/firebird-suite/wren/internal/engine"
)

// ErrNoSchema is returned when neither arguments nor configuration name a
// schema file.
var ErrNoSchema = errors.New("no schema file given")

// Config holds the settings of one generate run.
type Config struct {
	Schema    string
	Output    string
	Prefix    string
	Locales   []string
	Templates []string
	Force     bool
	Diff      bool
	DryRun    bool

	// File is the configuration file that was read, if any.
	File string
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"output":    "output",
	"prefix":    "prefix",
	"locale":    "locales",
	"templates": "templates",
	"force":     "force",
	"diff":      "diff",
	"dry-run":   "dry_run",
}

// Load reads configuration. path names an explicit config file; when empty,
// wren.yml in the working directory is used if it exists. Flags that are
// present in flags and were set by the user override file and environment.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("wren")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("WREN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("locales", []string{engine.DefaultLocale})
	v.SetDefault("templates", []string{engine.Standard})

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Schema:    v.GetString("schema"),
		Output:    v.GetString("output"),
		Prefix:    v.GetString("prefix"),
		Locales:   list(v.GetStringSlice("locales")),
		Templates: list(v.GetStringSlice("templates")),
		Force:     v.GetBool("force"),
		Diff:      v.GetBool("diff"),
		DryRun:    v.GetBool("dry_run"),
		File:      v.ConfigFileUsed(),
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize validates locales and completes the template stack.
func (c *Config) normalize() error {
	if len(c.Locales) == 0 {
		c.Locales = []string{engine.DefaultLocale}
	}
	for i, l := range c.Locales {
		if _, err := language.Parse(l); err != nil {
			return fmt.Errorf("invalid locale %q: %w", l, err)
		}
		c.Locales[i] = strings.ToLower(l)
	}

	c.Templates = WithStandard(c.Templates)
	return nil
}

// WithStandard puts the standard library below dirs unless dirs already
// place it explicitly.
func WithStandard(dirs []string) []string {
	if slices.Contains(dirs, engine.Standard) {
		return dirs
	}
	return append([]string{engine.Standard}, dirs...)
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.Schema == "" {
		return ErrNoSchema
	}
	return nil
}

// list flattens comma separated entries, as given in environment variables.
func list(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
