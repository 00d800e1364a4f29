// Package engine generates localized resources from a schema and a stack
// of template directories.
//
// A run loads the schema, expands its "${...}" expressions once forgivingly,
// materializes templates for every locale and property, expands again
// strictly and finally writes the expanded schema next to the resources.
// Recoverable problems are reported through Feedback and never stop the
// run.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/simonhull/firebird-suite/wren/internal/generator"
	"github.com/simonhull/firebird-suite/wren/internal/schema"
)

// DefaultLocale is used when no locales are requested.
const DefaultLocale = "en-us"

// SchemaSuffix names the final schema artifact: <prefix>.schema.dialog.
const SchemaSuffix = ".schema.dialog"

// Options configures one generation run.
type Options struct {
	// Schema is the path of the schema file.
	Schema string
	// OutDir is the output directory, <prefix>-resources by default. It is
	// ignored when Output is set.
	OutDir string
	// Output replaces the on-disk output directory.
	Output billy.Filesystem
	// Prefix starts default file names; the schema name by default.
	Prefix string
	// Locales to generate, DefaultLocale when empty.
	Locales []string
	// Templates is the directory stack; later directories win.
	Templates []Dir

	Force  bool
	Diff   bool
	DryRun bool

	Feedback Feedback
}

// Result summarizes a run.
type Result struct {
	Prefix string
	OutDir string
	// Files lists generated (or skipped) output paths by extension.
	Files map[string][]string
	// Schema is the expanded schema as written.
	Schema *schema.Object
}

// Generate performs one generation run. It fails only when the run cannot
// start: an unreadable schema or an unusable output directory. Everything
// else is reported through opts.Feedback.
func Generate(ctx context.Context, opts Options) (*Result, error) {
	feedback := opts.Feedback
	if feedback == nil {
		feedback = Discard
	}

	s, err := schema.Load(opts.Schema)
	if err != nil {
		return nil, err
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix(opts.Schema)
	}
	locales := opts.Locales
	if len(locales) == 0 {
		locales = []string{DefaultLocale}
	}

	out := opts.Output
	outDir := opts.OutDir
	if out == nil {
		if outDir == "" {
			outDir = prefix + "-resources"
		}
		if !opts.DryRun {
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return nil, fmt.Errorf("cannot create output directory: %w", err)
			}
		}
		out = osfs.New(outDir)
	}

	dirNames := make([]string, len(opts.Templates))
	for i, dir := range opts.Templates {
		dirNames[i] = dir.Name
	}
	operation := "Generating"
	if opts.DryRun {
		operation = "Planning"
	}
	feedback(SeverityMessage, fmt.Sprintf("%s resources for %s into %s", operation, opts.Schema, outDir))
	feedback(SeverityMessage, fmt.Sprintf("Locales: %s", strings.Join(locales, ", ")))
	feedback(SeverityMessage, fmt.Sprintf("Templates: %s", strings.Join(dirNames, ", ")))

	locator := NewLocator(opts.Templates, generator.NewRenderer())
	for _, err := range s.MergeRequires(locator.Schema) {
		feedback(SeverityError, err.Error())
	}

	state := NewState(s)
	m := &Materializer{
		Locator:  locator,
		Out:      out,
		State:    state,
		Feedback: feedback,
		Force:    opts.Force,
		Diff:     opts.Diff,
		DryRun:   opts.DryRun,
	}

	base := Scope{Locales: locales, Prefix: prefix}
	expandSchema(state, base, false, feedback)
	process(ctx, m, base)
	expandSchema(state, base, true, feedback)

	final, _ := schema.Without(s.Root, schema.KeyTemplates, schema.KeyRequires).(*schema.Object)
	data, err := schema.Marshal(final)
	if err != nil {
		feedback(SeverityError, fmt.Sprintf("encoding schema: %v", err))
	} else {
		writeSchema(ctx, m, prefix+SchemaSuffix, data)
	}

	return &Result{
		Prefix: prefix,
		OutDir: outDir,
		Files:  state.Tracker.Paths(),
		Schema: final,
	}, nil
}

// DefaultPrefix derives a prefix from a schema path: the base name without
// its extension and without a trailing ".schema".
func DefaultPrefix(schemaPath string) string {
	base := filepath.Base(schemaPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSuffix(base, ".schema")
}

// expandSchema replaces the schema root with its expansion.
func expandSchema(state *State, sc Scope, strict bool, feedback Feedback) {
	sc.Entities = state.Schema.EntityTypes()
	env, err := state.Env(sc)
	if err != nil {
		feedback(SeverityError, fmt.Sprintf("building expression scope: %v", err))
		return
	}
	expanded, errs := Expand(state.Schema.Root, env, "", false, strict)
	for _, err := range errs {
		feedback(SeverityError, err.Error())
	}
	if root, ok := expanded.(*schema.Object); ok {
		state.Schema.Root = root
	}
}

// process runs every locale, property and template.
func process(ctx context.Context, m *Materializer, base Scope) {
	s := m.State.Schema
	reported := make(map[string]bool)

	for _, locale := range base.Locales {
		sc := base
		sc.Locale = locale
		sc.Entities = s.EntityTypes()

		for _, p := range s.Properties() {
			psc := sc
			psc.Property = p.Path
			psc.Type = p.TypeName()

			templates, explicit := schema.Strings(p.Node, schema.KeyTemplates)
			if !explicit {
				templates = []string{psc.Type}
			}
			for _, name := range templates {
				m.Materialize(ctx, name, psc, false)
			}
			if explicit {
				continue
			}

			entities, _ := schema.Strings(p.Node, schema.KeyEntities)
			if len(entities) == 0 {
				if !reported[p.Path] {
					reported[p.Path] = true
					m.report(SeverityError, fmt.Sprintf("%s does not have $entities defined in schema or template.", p.Path))
				}
				continue
			}
			for _, entry := range entities {
				entity, role := schema.EntityName(entry)
				if isSelfEntity(entity, p.Path) {
					entity = psc.Type
				}
				esc := psc
				esc.Entity = entity
				esc.Role = role
				m.Materialize(ctx, entity+"Entity-"+psc.Type, esc, true)
			}
		}

		if top, ok := schema.Strings(s.Root, schema.KeyTemplates); ok {
			tsc := sc
			tsc.Entities = s.EntityTypes()
			for _, name := range top {
				m.Materialize(ctx, name, tsc, false)
			}
		}
	}
}

// isSelfEntity reports whether entity is the property's own entity,
// <property>Entity, which stands for the property's type.
func isSelfEntity(entity, propertyPath string) bool {
	name := propertyPath
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return entity == name+"Entity" || entity == propertyPath+"Entity"
}

// writeSchema writes the expanded schema artifact. Like every other output
// it is kept when it already exists and force is off.
func writeSchema(ctx context.Context, m *Materializer, name string, data []byte) {
	write, err := m.writable(name)
	if err != nil {
		m.report(SeverityError, err.Error())
		return
	}
	if !write {
		if m.Diff {
			m.diffBody(name, data)
		}
		return
	}
	if err := m.write(ctx, name, data); err != nil {
		m.report(SeverityError, err.Error())
	}
}
