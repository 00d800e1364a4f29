package engine

import (
	"path"
	"regexp"
	"strings"
)

var localeQualifier = regexp.MustCompile(`\.[^.]+\.lg$`)

// FileRef is the identity of one generated file.
type FileRef struct {
	// Name is the base name without extension. Two refs with the same
	// extension and Name are the same file.
	Name string
	// FallbackName is FullName with a locale qualifier collapsed
	// (sandwich-Bread.en-us.lg becomes sandwich-Bread.lg).
	FallbackName string
	// FullName is the base name with extension.
	FullName string
	// Relative is the path inside the output tree.
	Relative string
}

// NewFileRef computes the identity of an output path.
func NewFileRef(relative string) FileRef {
	full := path.Base(relative)
	return FileRef{
		Name:         strings.TrimSuffix(full, path.Ext(full)),
		FallbackName: localeQualifier.ReplaceAllString(full, ".lg"),
		FullName:     full,
		Relative:     relative,
	}
}

func (r FileRef) ext() string {
	return path.Ext(r.FullName)
}

// Tracker records the files claimed during one generation run, grouped by
// extension in claim order.
type Tracker struct {
	refs map[string][]FileRef
}

func NewTracker() *Tracker {
	return &Tracker{refs: make(map[string][]FileRef)}
}

// Claim registers the file at relative. When a file with the same
// extension and Name is already claimed, the claim is refused and the
// existing ref is returned instead.
func (t *Tracker) Claim(relative string) (FileRef, bool) {
	ref := NewFileRef(relative)
	ext := ref.ext()
	for _, existing := range t.refs[ext] {
		if existing.Name == ref.Name {
			return existing, false
		}
	}
	t.refs[ext] = append(t.refs[ext], ref)
	return ref, true
}

// Lookup finds a claimed file by its full base name.
func (t *Tracker) Lookup(fullName string) (FileRef, bool) {
	for _, ref := range t.refs[path.Ext(fullName)] {
		if ref.FullName == fullName {
			return ref, true
		}
	}
	return FileRef{}, false
}

// Paths lists claimed relative paths by extension without the leading dot
// ("lg", "lu", "dialog").
func (t *Tracker) Paths() map[string][]string {
	out := make(map[string][]string, len(t.refs))
	for ext, refs := range t.refs {
		paths := make([]string, len(refs))
		for i, ref := range refs {
			paths[i] = ref.Relative
		}
		out[strings.TrimPrefix(ext, ".")] = paths
	}
	return out
}
