package generator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/go-openapi/inflect"
	"github.com/ohler55/ojg/jp"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Renderer parses and executes resource templates with caching
type Renderer struct {
	funcMap template.FuncMap
	cache   map[string]*template.Template
	mu      sync.RWMutex
}

// NewRenderer creates a renderer with built-in helper functions
func NewRenderer() *Renderer {
	return &Renderer{
		funcMap: DefaultFuncMap(),
		cache:   make(map[string]*template.Template),
	}
}

// Parse compiles src under name. Compiled templates are cached by name, so
// callers must use a name that identifies both the source and any extra
// functions bound to it.
func (r *Renderer) Parse(name, src string, extra template.FuncMap) (*template.Template, error) {
	r.mu.RLock()
	if tmpl, ok := r.cache[name]; ok {
		r.mu.RUnlock()
		return tmpl, nil
	}
	r.mu.RUnlock()

	tmpl := template.New(name).Funcs(r.funcMap)
	if len(extra) > 0 {
		tmpl = tmpl.Funcs(extra)
	}
	tmpl, err := tmpl.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", name, err)
	}

	r.mu.Lock()
	r.cache[name] = tmpl
	r.mu.Unlock()

	return tmpl, nil
}

// Execute runs a parsed template against data
func (r *Renderer) Execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template '%s': %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// RenderString parses (or reuses) and executes a template in one step
func (r *Renderer) RenderString(name, src string, data any) (string, error) {
	tmpl, err := r.Parse(name, src, nil)
	if err != nil {
		return "", err
	}
	return r.Execute(tmpl, data)
}

// ClearCache drops every compiled template
func (r *Renderer) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]*template.Template)
}

// DefaultFuncMap returns the helpers available to every resource template
func DefaultFuncMap() template.FuncMap {
	return template.FuncMap{
		// Case conversion
		"pascalCase": PascalCase, // first_name → FirstName
		"camelCase":  CamelCase,  // first_name → firstName
		"snakeCase":  SnakeCase,  // FirstName → first_name

		// Words
		"plural":    inflect.Pluralize,   // topping → toppings
		"singular":  inflect.Singularize, // toppings → topping
		"humanize":  Humanize,            // firstName → first name
		"titleize":  inflect.Titleize,    // first_name → First Name
		"dasherize": inflect.Dasherize,   // first_name → first-name

		// String manipulation
		"quote":     Quote,
		"upper":     strings.ToUpper,
		"lower":     strings.ToLower,
		"title":     Title,
		"trim":      strings.TrimSpace,
		"join":      strings.Join,
		"split":     strings.Split,
		"contains":  strings.Contains,
		"hasPrefix": strings.HasPrefix,
		"hasSuffix": strings.HasSuffix,
		"replace":   strings.ReplaceAll,

		// Data
		"jsonPath": JSONPath,
		"toJSON":   ToJSON,
		"dict":     Dict,
		"default":  Default,
	}
}

// PascalCase converts snake_case or camelCase to PascalCase
func PascalCase(s string) string {
	return inflect.Camelize(s)
}

// CamelCase converts snake_case or PascalCase to camelCase
func CamelCase(s string) string {
	return inflect.CamelizeDownFirst(s)
}

// SnakeCase converts PascalCase or camelCase to snake_case
func SnakeCase(s string) string {
	return inflect.Underscore(s)
}

// Humanize turns an identifier into lower-case words for prompts.
// Example: firstName → first name
func Humanize(s string) string {
	return strings.ToLower(inflect.Humanize(inflect.Underscore(s)))
}

// Title capitalizes the first letter of each word
func Title(s string) string {
	return cases.Title(language.Und).String(s)
}

// Quote wraps a string in double quotes
func Quote(s string) string {
	return fmt.Sprintf("%q", s)
}

// JSONPath evaluates a JSONPath expression against plain data (maps and
// slices). Results come back in document order.
func JSONPath(data any, path string) ([]any, error) {
	x, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", path, err)
	}
	return x.Get(data), nil
}

// ToJSON renders a value as indented JSON
func ToJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("toJSON: %w", err)
	}
	return string(data), nil
}

// Dict creates a map from alternating key-value pairs
// Usage in template: {{ template "partial" (dict "key1" val1 "key2" val2) }}
func Dict(values ...any) (map[string]any, error) {
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("dict requires an even number of arguments")
	}

	result := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict keys must be strings, got %T at position %d", values[i], i)
		}
		result[key] = values[i+1]
	}
	return result, nil
}

// Default returns defaultVal when val is nil, an empty string or an empty
// collection. Numeric zero is a real value and passes through.
func Default(defaultVal, val any) any {
	switch v := val.(type) {
	case nil:
		return defaultVal
	case string:
		if v == "" {
			return defaultVal
		}
	case []any:
		if len(v) == 0 {
			return defaultVal
		}
	case []string:
		if len(v) == 0 {
			return defaultVal
		}
	case map[string]any:
		if len(v) == 0 {
			return defaultVal
		}
	}
	return val
}
