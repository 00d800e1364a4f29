package schema

import (
	"path"
	"strings"
)

// Property is one generated property of a schema.
type Property struct {
	// Path is the dotted path from the schema root, e.g. "Address.street".
	Path string
	// Node is the property's schema object.
	Node *Object
}

// TypeName is the name used to pick a property's default template.
//
//   - "enum" when the property lists enum values
//   - the item type for arrays ("array" when items are untyped)
//   - the last segment of $ref for references
//   - otherwise the declared type, defaulting to "string"
func (p Property) TypeName() string {
	return typeName(p.Node)
}

func typeName(node *Object) string {
	if _, ok := node.Get("enum"); ok {
		return "enum"
	}
	if ref := String(node, "$ref"); ref != "" {
		return path.Base(ref)
	}
	switch t := String(node, "type"); t {
	case "array":
		if items := Child(node, "items"); items != nil {
			if _, ok := items.Get("enum"); ok {
				return "enum"
			}
			if it := String(items, "type"); it != "" {
				return it
			}
		}
		return "array"
	case "":
		return "string"
	default:
		return t
	}
}

// Properties enumerates the properties that drive generation, in schema
// declaration order: $public when present, otherwise every key of
// properties. Object properties are replaced by their nested properties,
// and arrays of objects by their item properties.
func (s *Schema) Properties() []Property {
	var out []Property
	props := Child(s.Root, "properties")
	for _, name := range s.public {
		node := Child(props, name)
		if node == nil {
			continue
		}
		out = appendProperty(out, name, node)
	}
	return out
}

func appendProperty(out []Property, p string, node *Object) []Property {
	nested := nestedProperties(node)
	if nested == nil {
		return append(out, Property{Path: p, Node: node})
	}
	for _, key := range Keys(nested) {
		if child := Child(nested, key); child != nil {
			out = appendProperty(out, p+"."+key, child)
		}
	}
	return out
}

func nestedProperties(node *Object) *Object {
	if props := Child(node, "properties"); props != nil && props.Len() > 0 {
		return props
	}
	if String(node, "type") == "array" {
		if props := Child(Child(node, "items"), "properties"); props != nil && props.Len() > 0 {
			return props
		}
	}
	return nil
}

// Lookup finds the schema object for a dotted property path.
func Lookup(root *Object, propertyPath string) *Object {
	node := root
	for _, segment := range strings.Split(propertyPath, ".") {
		props := Child(node, "properties")
		if props == nil && String(node, "type") == "array" {
			props = Child(Child(node, "items"), "properties")
		}
		node = Child(props, segment)
		if node == nil {
			return nil
		}
	}
	return node
}

// EntityName splits an "$entities" entry of the form name[:role].
func EntityName(entry string) (name, role string) {
	name, role, _ = strings.Cut(entry, ":")
	return name, role
}

// EntityTypes collects the distinct entity names (roles stripped) declared
// by the schema's properties, in first-seen order.
func (s *Schema) EntityTypes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range s.Properties() {
		entries, _ := Strings(p.Node, KeyEntities)
		for _, entry := range entries {
			name, _ := EntityName(entry)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
