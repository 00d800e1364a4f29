package engine

import (
	"github.com/simonhull/firebird-suite/wren/internal/expr"
	"github.com/simonhull/firebird-suite/wren/internal/schema"
)

// Scope is the read-only evaluation context of one materialization. It is
// passed by value; narrowing it for a property or an entity makes a copy.
type Scope struct {
	Locale   string
	Locales  []string
	Property string
	Type     string
	Prefix   string
	Entity   string
	Role     string
	// Entities is the set of entity types known when the scope was made.
	Entities []string
}

// State is the mutable side of a run, shared by every materialization:
// the schema tree that templates may annotate with $entities and the
// tracker of claimed files.
type State struct {
	Schema  *schema.Schema
	Tracker *Tracker
}

// NewState starts the accumulator for a run over s.
func NewState(s *schema.Schema) *State {
	return &State{Schema: s, Tracker: NewTracker()}
}

// TemplateData is the dot value of structured template sections.
func (st *State) TemplateData(sc Scope) map[string]any {
	var propertySchema any
	if sc.Property != "" {
		if node := schema.Lookup(st.Schema.Root, sc.Property); node != nil {
			propertySchema = schema.Plain(node)
		}
	}
	return map[string]any{
		"Locale":         sc.Locale,
		"Locales":        sc.Locales,
		"Property":       sc.Property,
		"Type":           sc.Type,
		"Prefix":         sc.Prefix,
		"Entity":         sc.Entity,
		"Role":           sc.Role,
		"Entities":       sc.Entities,
		"Schema":         schema.Plain(st.Schema.Root),
		"PropertySchema": propertySchema,
		"Templates":      st.Tracker.Paths(),
	}
}

// Env builds the expression environment for schema expansion. Scope
// fields that are unset evaluate to null.
func (st *State) Env(sc Scope) (*expr.Env, error) {
	root := st.Schema.Root
	return expr.NewEnv(map[string]any{
		"locale":     nullable(sc.Locale),
		"locales":    sc.Locales,
		"property":   nullable(sc.Property),
		"type":       nullable(sc.Type),
		"prefix":     nullable(sc.Prefix),
		"entity":     nullable(sc.Entity),
		"role":       nullable(sc.Role),
		"entities":   sc.Entities,
		"schema":     schema.Plain(root),
		"properties": plainOrEmpty(schema.Child(root, "properties")),
		"templates":  st.Tracker.Paths(),
	})
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func plainOrEmpty(obj *schema.Object) any {
	if obj == nil {
		return map[string]any{}
	}
	return schema.Plain(obj)
}
