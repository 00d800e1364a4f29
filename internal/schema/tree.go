package schema

import (
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is a schema object whose keys keep declaration order.
//
// A schema tree is built from *Object, []any, string, bool, int64, float64
// and nil.
type Object = orderedmap.OrderedMap[string, any]

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// Keys returns the keys of obj in declaration order.
func Keys(obj *Object) []string {
	if obj == nil {
		return nil
	}
	keys := make([]string, 0, obj.Len())
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Child returns obj[key] when it is itself an object.
func Child(obj *Object, key string) *Object {
	if obj == nil {
		return nil
	}
	v, ok := obj.Get(key)
	if !ok {
		return nil
	}
	child, _ := v.(*Object)
	return child
}

// String returns obj[key] when it is a string.
func String(obj *Object, key string) string {
	if obj == nil {
		return ""
	}
	v, _ := obj.Get(key)
	s, _ := v.(string)
	return s
}

// Strings returns obj[key] when it is an array, keeping only string items.
func Strings(obj *Object, key string) ([]string, bool) {
	if obj == nil {
		return nil, false
	}
	v, ok := obj.Get(key)
	if !ok {
		return nil, false
	}
	items, ok := v.([]any)
	if !ok {
		if s, isString := v.(string); isString {
			return []string{s}, true
		}
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

// Clone deep-copies a schema tree.
func Clone(node any) any {
	switch n := node.(type) {
	case *Object:
		out := NewObject()
		for pair := n.Oldest(); pair != nil; pair = pair.Next() {
			out.Set(pair.Key, Clone(pair.Value))
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			out[i] = Clone(v)
		}
		return out
	default:
		return n
	}
}

// Without deep-copies a schema tree, dropping the given keys at every level.
func Without(node any, keys ...string) any {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	return without(node, drop)
}

func without(node any, drop map[string]bool) any {
	switch n := node.(type) {
	case *Object:
		out := NewObject()
		for pair := n.Oldest(); pair != nil; pair = pair.Next() {
			if drop[pair.Key] {
				continue
			}
			out.Set(pair.Key, without(pair.Value, drop))
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			out[i] = without(v, drop)
		}
		return out
	default:
		return n
	}
}

// Plain converts a schema tree into map[string]any and []any values for
// consumers that do not care about key order (templates, JSONPath,
// expression evaluation).
func Plain(node any) any {
	switch n := node.(type) {
	case *Object:
		out := make(map[string]any, n.Len())
		for pair := n.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = Plain(pair.Value)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			out[i] = Plain(v)
		}
		return out
	default:
		return n
	}
}

// FromPlain converts map[string]any and []string values into a schema tree.
// Map keys of plain maps have no order, so they are emitted sorted.
func FromPlain(v any) any {
	switch n := v.(type) {
	case *Object:
		return n
	case map[string]any:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		out := NewObject()
		for _, k := range keys {
			out.Set(k, FromPlain(n[k]))
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = FromPlain(item)
		}
		return out
	case []string:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = item
		}
		return out
	case int:
		return int64(n)
	default:
		return n
	}
}
