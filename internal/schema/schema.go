package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Metadata keys that drive generation.
const (
	KeyTemplates = "$templates"
	KeyEntities  = "$entities"
	KeyRequires  = "$requires"
	KeyPublic    = "$public"
)

// Schema is a loaded property schema.
type Schema struct {
	// Path is the file the schema was read from.
	Path string
	// Root is the schema tree. It is always an object.
	Root *Object
	// public is the property list captured before $requires merged in
	// properties from other schemas.
	public []string
}

// Load reads a schema file. JSON (with comments) is used for .json,
// .schema and .dialog files; YAML for .yaml and .yml.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	s, err := Parse(filepath.Base(path), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Path = path
	return s, nil
}

// Parse decodes schema data; name selects the format by extension.
func Parse(name string, data []byte) (*Schema, error) {
	tree, err := Decode(name, data)
	if err != nil {
		return nil, err
	}
	root, ok := tree.(*Object)
	if !ok {
		return nil, fmt.Errorf("schema must be an object, got %T", tree)
	}
	return New(root), nil
}

// Decode decodes schema data, choosing the format by the extension of name.
func Decode(name string, data []byte) (any, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".schema", ".dialog":
		return DecodeJSON(data)
	case ".yaml", ".yml":
		return DecodeYAML(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// New wraps an already decoded schema tree.
func New(root *Object) *Schema {
	s := &Schema{Root: root}
	if public, ok := Strings(root, KeyPublic); ok {
		s.public = public
	} else {
		s.public = Keys(Child(root, "properties"))
	}
	return s
}

// Name is the schema's base file name without extension.
func (s *Schema) Name() string {
	base := filepath.Base(s.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Locate finds a required schema by name. It returns the schema data, a
// label for messages and whether anything was found.
type Locate func(name string) (data []byte, source string, found bool)

// MergeRequires folds the properties and definitions of every schema named
// in $requires (transitively) into s, without replacing anything s already
// declares. Problems with individual schemas are returned together; the
// merge continues past them.
func (s *Schema) MergeRequires(locate Locate) []error {
	var errs []error
	seen := make(map[string]bool)

	var merge func(from *Object)
	merge = func(from *Object) {
		required, _ := Strings(from, KeyRequires)
		for _, name := range required {
			if seen[name] {
				continue
			}
			seen[name] = true

			data, source, found := locate(name)
			if !found {
				errs = append(errs, fmt.Errorf("missing required schema %s", name))
				continue
			}
			tree, err := Decode(name, data)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", source, err))
				continue
			}
			obj, ok := tree.(*Object)
			if !ok {
				errs = append(errs, fmt.Errorf("%s: schema must be an object", source))
				continue
			}
			for _, section := range []string{"properties", "definitions", "$defs"} {
				mergeMissing(s.Root, section, Child(obj, section))
			}
			merge(obj)
		}
	}
	merge(s.Root)

	return errs
}

func mergeMissing(root *Object, section string, from *Object) {
	if from == nil || from.Len() == 0 {
		return
	}
	into := Child(root, section)
	if into == nil {
		into = NewObject()
		root.Set(section, into)
	}
	for pair := from.Oldest(); pair != nil; pair = pair.Next() {
		if _, exists := into.Get(pair.Key); !exists {
			into.Set(pair.Key, Clone(pair.Value))
		}
	}
}
