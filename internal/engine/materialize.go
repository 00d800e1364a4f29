package engine

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/simonhull/firebird-suite/wren/internal/generator"
	"github.com/simonhull/firebird-suite/wren/internal/lg"
	"github.com/simonhull/firebird-suite/wren/internal/schema"
)

// Materializer turns logical template names into files in the output tree.
type Materializer struct {
	Locator  *Locator
	Out      billy.Filesystem
	State    *State
	Feedback Feedback

	// Force overwrites files that already exist.
	Force bool
	// Diff reports how an existing file differs from what would replace it.
	Diff bool
	// DryRun decides everything but writes nothing.
	DryRun bool

	active map[string]bool
}

// Materialize generates the file for template name in scope sc and returns
// its path relative to the output tree, or "" when nothing was produced.
// An absent template is an error unless ignorable is set. Problems are
// reported through Feedback; Materialize never fails.
func (m *Materializer) Materialize(ctx context.Context, name string, sc Scope, ignorable bool) string {
	if ref, ok := m.State.Tracker.Lookup(name); ok {
		return ref.Relative
	}

	tmpl, err := m.Locator.Locate(name)
	if err != nil {
		m.report(SeverityError, err.Error())
		return ""
	}
	if tmpl.Kind == Absent {
		if !ignorable {
			m.report(SeverityError, fmt.Sprintf("Missing template %s", name))
		}
		return ""
	}
	if tmpl.Empty() {
		return ""
	}

	key := sc.Locale + "\x00" + sc.Property + "\x00" + sc.Entity + "\x00" + name
	if m.active[key] {
		m.report(SeverityError, fmt.Sprintf("%s: template includes itself", tmpl.Source))
		return ""
	}
	if m.active == nil {
		m.active = make(map[string]bool)
	}
	m.active[key] = true
	defer delete(m.active, key)

	relative, err := m.materialize(ctx, name, tmpl, sc)
	if err != nil {
		m.report(SeverityError, err.Error())
	}
	return relative
}

func (m *Materializer) materialize(ctx context.Context, name string, tmpl Template, sc Scope) (string, error) {
	var relative string
	if tmpl.Kind == Literal || tmpl.File.Has(lg.SectionTemplate) {
		outPath, err := m.produce(ctx, name, tmpl, sc)
		if err != nil {
			return outPath, err
		}
		relative = outPath
	}

	if tmpl.Kind != Structured {
		return relative, nil
	}
	file := tmpl.File

	if file.Has(lg.SectionEntities) && sc.Property != "" {
		node := schema.Lookup(m.State.Schema.Root, sc.Property)
		if node != nil && !hasKey(node, schema.KeyEntities) {
			entities, err := file.EvaluateList(lg.SectionEntities, m.State.TemplateData(sc))
			if err != nil {
				return relative, err
			}
			items := make([]any, len(entities))
			for i, e := range entities {
				items[i] = e
			}
			node.Set(schema.KeyEntities, items)
		}
	}

	if file.Has(lg.SectionTemplates) {
		names, err := file.EvaluateList(lg.SectionTemplates, m.State.TemplateData(sc))
		if err != nil {
			return relative, err
		}
		for _, next := range names {
			m.Materialize(ctx, next, sc, false)
		}
	}

	return relative, nil
}

// produce decides the output path, claims it and writes the body. When the
// identity was already claimed the claimant's path is returned and nothing
// is written.
func (m *Materializer) produce(ctx context.Context, name string, tmpl Template, sc Scope) (string, error) {
	relative, err := m.filename(name, tmpl, sc)
	if err != nil {
		return "", err
	}

	ref, claimed := m.State.Tracker.Claim(relative)
	if !claimed {
		return ref.Relative, nil
	}

	write, err := m.writable(relative)
	if err != nil || !write {
		if err == nil && m.Diff {
			m.diff(relative, tmpl, ref, sc)
		}
		return relative, err
	}

	body, err := m.body(tmpl, ref, sc)
	if err != nil {
		return relative, err
	}
	return relative, m.write(ctx, relative, body)
}

// writable reports whether relative may be written, warning when an
// existing file is kept because force is off.
func (m *Materializer) writable(relative string) (bool, error) {
	exists, err := generator.Exists(m.Out, relative)
	if err != nil {
		return false, err
	}
	if exists && !m.Force {
		m.report(SeverityWarning, fmt.Sprintf("Skipping already existing %s", relative))
		return false, nil
	}
	return true, nil
}

// write runs a WriteFileOp, honoring dry run, and reports the outcome.
func (m *Materializer) write(ctx context.Context, relative string, body []byte) error {
	op := &generator.WriteFileOp{FS: m.Out, Path: relative, Content: body}
	severity := SeverityInfo
	if m.DryRun {
		severity = SeverityMessage
	}
	return generator.Execute(ctx, []generator.Operation{op}, generator.ExecuteOptions{
		DryRun: m.DryRun,
		Force:  true,
		Writer: feedbackWriter{severity: severity, feedback: m.report},
	})
}

// filename computes the output path of a template: its filename section
// when present, otherwise <prefix>-<name>, nested under the locale when the
// name mentions it.
func (m *Materializer) filename(name string, tmpl Template, sc Scope) (string, error) {
	filename := sc.Prefix + "-" + name
	if tmpl.Kind == Structured && tmpl.File.Has(lg.SectionFilename) {
		out, err := tmpl.File.Evaluate(lg.SectionFilename, m.State.TemplateData(sc))
		if err != nil {
			return "", err
		}
		filename = strings.TrimSpace(out)
		if filename == "" {
			return "", fmt.Errorf("%s: filename section is empty", tmpl.Source)
		}
	} else if sc.Locale != "" && strings.Contains(filename, sc.Locale) {
		filename = path.Join(sc.Locale, filename)
	}

	filename = path.Clean(strings.ReplaceAll(filename, "\\", "/"))
	if path.IsAbs(filename) || filename == ".." || strings.HasPrefix(filename, "../") {
		return "", fmt.Errorf("%s: output path %s leaves the output directory", tmpl.Source, filename)
	}
	return filename, nil
}

// body evaluates the template and applies any hand-authored override found
// in the template directories under the output's own name.
func (m *Materializer) body(tmpl Template, ref FileRef, sc Scope) ([]byte, error) {
	for _, candidate := range overrideNames(ref) {
		override, err := m.Locator.Locate(candidate)
		if err != nil {
			return nil, err
		}
		if override.Kind == Absent || override.Source == tmpl.Source {
			continue
		}
		if override.Kind == Literal {
			return override.Text, nil
		}
		if override.File.Has(lg.SectionTemplate) {
			return m.evaluate(override, sc)
		}
	}
	return m.evaluate(tmpl, sc)
}

func (m *Materializer) evaluate(tmpl Template, sc Scope) ([]byte, error) {
	if tmpl.Kind == Literal {
		return tmpl.Text, nil
	}
	out, err := tmpl.File.Evaluate(lg.SectionTemplate, m.State.TemplateData(sc))
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func (m *Materializer) diff(relative string, tmpl Template, ref FileRef, sc Scope) {
	body, err := m.body(tmpl, ref, sc)
	if err != nil {
		m.report(SeverityError, err.Error())
		return
	}
	m.diffBody(relative, body)
}

// diffBody reports how body differs from the file at relative.
func (m *Materializer) diffBody(relative string, body []byte) {
	current, err := generator.ReadFile(m.Out, relative)
	if err != nil {
		m.report(SeverityError, err.Error())
		return
	}
	if d := generator.Diff(relative, current, body); d != "" {
		m.report(SeverityInfo, strings.TrimRight(d, "\n"))
	}
}

func (m *Materializer) report(severity Severity, msg string) {
	if m.Feedback != nil {
		m.Feedback(severity, msg)
	}
}

// overrideNames lists the names an author can use to replace a generated
// file: its exact base name, then the name without a locale qualifier.
func overrideNames(ref FileRef) []string {
	if ref.FallbackName == ref.FullName {
		return []string{ref.FullName}
	}
	return []string{ref.FullName, ref.FallbackName}
}

func hasKey(obj *schema.Object, key string) bool {
	_, ok := obj.Get(key)
	return ok
}
