package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/simonhull/firebird-suite/wren/internal/generator"
	"github.com/simonhull/firebird-suite/wren/internal/lg"
)

// Standard names the bundled template library in a directory list.
const Standard = "standard"

// Dir is one layer of the template directory stack.
type Dir struct {
	// Name is the directory as the user gave it ("standard" for the bundled
	// library). It labels template sources in messages.
	Name string
	FS   fs.FS
}

// Dirs turns directory names into a stack. The Standard sentinel maps to
// the bundled library; everything else is opened from disk.
func Dirs(names []string, standard fs.FS) []Dir {
	dirs := make([]Dir, 0, len(names))
	for _, name := range names {
		if name == Standard {
			dirs = append(dirs, Dir{Name: Standard, FS: standard})
			continue
		}
		dirs = append(dirs, Dir{Name: name, FS: os.DirFS(name)})
	}
	return dirs
}

// Kind tags the shape of a located template.
type Kind int

const (
	Absent Kind = iota
	Literal
	Structured
)

// Template is the result of resolving a logical name.
type Template struct {
	Kind Kind
	// Source is the winning file, prefixed with its directory name.
	Source string
	// Text holds the content of a Literal template.
	Text []byte
	// File holds the parsed sections of a Structured template.
	File *lg.File
}

// Empty reports whether the template produces nothing: it is absent, a
// zero-length literal, or a structured template without recognized sections.
func (t Template) Empty() bool {
	switch t.Kind {
	case Literal:
		return len(t.Text) == 0
	case Structured:
		return t.File.Empty()
	default:
		return true
	}
}

// Locator resolves logical template names against a directory stack.
// Later directories override earlier ones. Results are cached for the
// lifetime of the Locator, which is one generation run.
type Locator struct {
	dirs     []Dir
	renderer *generator.Renderer
	cache    map[string]located
}

type located struct {
	tmpl Template
	err  error
}

// NewLocator creates a locator over dirs, compiling structured templates
// with r.
func NewLocator(dirs []Dir, r *generator.Renderer) *Locator {
	return &Locator{
		dirs:     dirs,
		renderer: r,
		cache:    make(map[string]located),
	}
}

// Locate resolves name to a literal file name or a structured template
// name.lg. Every directory is consulted and the last match wins. A
// structured template that fails to parse is reported as an error.
func (l *Locator) Locate(name string) (Template, error) {
	if hit, ok := l.cache[name]; ok {
		return hit.tmpl, hit.err
	}
	tmpl, err := l.locate(name)
	l.cache[name] = located{tmpl: tmpl, err: err}
	return tmpl, err
}

func (l *Locator) locate(name string) (Template, error) {
	if !fs.ValidPath(name) || name == "." {
		return Template{}, nil
	}

	var found Template
	var winner Dir
	for _, dir := range l.dirs {
		switch {
		case isFile(dir.FS, name):
			found = Template{Kind: Literal, Source: path.Join(dir.Name, name)}
			winner = dir
		case isFile(dir.FS, name+lg.Extension):
			found = Template{Kind: Structured, Source: path.Join(dir.Name, name+lg.Extension)}
			winner = dir
		}
	}

	switch found.Kind {
	case Literal:
		data, err := fs.ReadFile(winner.FS, name)
		if err != nil {
			return Template{}, fmt.Errorf("reading template %s: %w", found.Source, err)
		}
		found.Text = data
	case Structured:
		file := name + lg.Extension
		data, err := fs.ReadFile(winner.FS, file)
		if err != nil {
			return Template{}, fmt.Errorf("reading template %s: %w", found.Source, err)
		}
		parsed, err := lg.Parse(l.renderer, winner.FS, file, found.Source, data)
		if err != nil {
			return Template{}, err
		}
		found.File = parsed
	}
	return found, nil
}

// Schema finds a required schema by name through the directory stack. It
// satisfies schema.Locate.
func (l *Locator) Schema(name string) ([]byte, string, bool) {
	tmpl, err := l.Locate(name)
	if err != nil || tmpl.Kind != Literal {
		return nil, "", false
	}
	return tmpl.Text, tmpl.Source, true
}

// Entry describes one logical template visible through the stack.
type Entry struct {
	Name       string
	Dir        string
	Structured bool
	// Overrides lists lower-precedence directories that also define Name.
	Overrides []string
}

// List walks every directory and reports each logical name with the
// directory that wins it, sorted by name.
func (l *Locator) List() ([]Entry, error) {
	entries := make(map[string]*Entry)
	for _, dir := range l.dirs {
		err := fs.WalkDir(dir.FS, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			name := strings.TrimSuffix(p, lg.Extension)
			e, ok := entries[name]
			if !ok {
				e = &Entry{Name: name}
				entries[name] = e
			} else if e.Dir != dir.Name {
				e.Overrides = append(e.Overrides, e.Dir)
			}
			e.Dir = dir.Name
			e.Structured = name != p
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("listing %s: %w", dir.Name, err)
		}
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func isFile(fsys fs.FS, name string) bool {
	info, err := fs.Stat(fsys, name)
	return err == nil && !info.IsDir()
}
