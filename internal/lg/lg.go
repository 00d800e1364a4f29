// Package lg parses structured resource templates.
//
// A structured template is a text file whose sections are introduced by
// header lines of the form
//
//	::: template
//
// Everything up to the next header (or end of file) is the section body, a
// Go text/template. Text before the first header is a free-form preamble.
//
// Four section names have meaning to the generator:
//
//   - template: the body of the generated file
//   - filename: the output path, relative to the output directory
//   - entities: entity names to attach to the current property
//   - templates: further logical template names to generate
//
// Other sections are parsed and kept, so they can be reached through the
// standard {{ template "name" . }} action, but they do not make a file
// non-empty on their own.
package lg

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
	"text/template"
	"unicode"

	"github.com/simonhull/firebird-suite/wren/internal/generator"
)

// Extension is appended to a logical name to find its structured template.
const Extension = ".lg"

// Recognized section names
const (
	SectionTemplate  = "template"
	SectionFilename  = "filename"
	SectionEntities  = "entities"
	SectionTemplates = "templates"
)

var recognized = []string{SectionTemplate, SectionFilename, SectionEntities, SectionTemplates}

var headerPattern = regexp.MustCompile(`^:::\s*([A-Za-z][A-Za-z0-9_-]*)\s*$`)

// File is a parsed structured template.
type File struct {
	// Source identifies the file in messages (directory plus file name).
	Source string
	// Dir is the directory holding the file inside FS. Relative lookups
	// from section bodies (include) resolve against it.
	Dir string
	// FS is the template directory the file came from.
	FS fs.FS

	renderer *generator.Renderer
	sections map[string]*template.Template
	order    []string
}

// Parse splits src into sections and compiles each one. name is the file's
// path inside fsys; source is a display label that must be unique across
// template directories, since compiled sections are cached under it.
func Parse(r *generator.Renderer, fsys fs.FS, name, source string, src []byte) (*File, error) {
	f := &File{
		Source:   source,
		Dir:      path.Dir(name),
		FS:       fsys,
		renderer: r,
		sections: make(map[string]*template.Template),
	}

	bodies, order, err := split(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	funcs := template.FuncMap{"include": f.include}
	for _, section := range order {
		tmpl, err := r.Parse(source+"#"+section, bodies[section], funcs)
		if err != nil {
			return nil, fmt.Errorf("%s: section %q: %w", source, section, err)
		}
		f.sections[section] = tmpl
		f.order = append(f.order, section)
	}

	// Sections can call each other by name.
	for _, section := range f.order {
		for _, other := range f.order {
			if other == section {
				continue
			}
			if _, err := f.sections[section].AddParseTree(other, f.sections[other].Tree); err != nil {
				return nil, fmt.Errorf("%s: linking section %q: %w", source, other, err)
			}
		}
	}

	return f, nil
}

// split breaks a file into named section bodies, in file order.
func split(src string) (map[string]string, []string, error) {
	bodies := make(map[string]string)
	var order []string

	var current string
	var lines []string
	flush := func() {
		if current == "" {
			return
		}
		body := strings.TrimRight(strings.Join(lines, "\n"), " \t\r\n")
		if body != "" {
			body += "\n"
		}
		bodies[current] = body
	}

	for _, line := range strings.Split(src, "\n") {
		if m := headerPattern.FindStringSubmatch(strings.TrimRight(line, "\r")); m != nil {
			flush()
			current = m[1]
			if _, dup := bodies[current]; dup {
				return nil, nil, fmt.Errorf("duplicate section %q", current)
			}
			order = append(order, current)
			lines = lines[:0]
			continue
		}
		if current != "" {
			lines = append(lines, line)
		}
	}
	flush()

	return bodies, order, nil
}

// Has reports whether the file declares section.
func (f *File) Has(section string) bool {
	_, ok := f.sections[section]
	return ok
}

// Sections lists declared section names in file order.
func (f *File) Sections() []string {
	return append([]string(nil), f.order...)
}

// Empty reports whether the file declares none of the recognized sections.
// An empty file shadows a template of the same name without producing output.
func (f *File) Empty() bool {
	for _, name := range recognized {
		if f.Has(name) {
			return false
		}
	}
	return true
}

// Evaluate renders section against data.
func (f *File) Evaluate(section string, data any) (string, error) {
	tmpl, ok := f.sections[section]
	if !ok {
		return "", fmt.Errorf("%s: no section %q", f.Source, section)
	}
	return f.renderer.Execute(tmpl, data)
}

// EvaluateList renders section and splits the result on whitespace and
// commas, dropping empty items.
func (f *File) EvaluateList(section string, data any) ([]string, error) {
	out, err := f.Evaluate(section, data)
	if err != nil {
		return nil, err
	}
	return strings.FieldsFunc(out, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	}), nil
}

// include returns the contents of a file next to the template.
func (f *File) include(name string) (string, error) {
	p := path.Join(f.Dir, name)
	data, err := fs.ReadFile(f.FS, p)
	if err != nil {
		return "", fmt.Errorf("include %s: %w", name, err)
	}
	return string(data), nil
}
