package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderer(t *testing.T) {
	r := NewRenderer()
	assert.NotNil(t, r.funcMap)
	assert.Empty(t, r.cache)
}

func TestRenderString(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		name        string
		templateStr string
		data        any
		expected    string
		wantErr     bool
		errContains string
	}{
		{
			name:        "plain text",
			templateStr: "- Enter a value",
			expected:    "- Enter a value",
		},
		{
			name:        "map data",
			templateStr: "# prompt{{ pascalCase .Property }}",
			data:        map[string]any{"Property": "bread_type"},
			expected:    "# promptBreadType",
		},
		{
			name:        "humanize for prompts",
			templateStr: "- Please enter your {{ humanize .Property }}",
			data:        map[string]any{"Property": "firstName"},
			expected:    "- Please enter your first name",
		},
		{
			name:        "plural",
			templateStr: "{{ plural .Property }}",
			data:        map[string]any{"Property": "topping"},
			expected:    "toppings",
		},
		{
			name:        "syntax error",
			templateStr: "{{ .Property }",
			wantErr:     true,
			errContains: "failed to parse template",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r.ClearCache()
			out, err := r.RenderString(tt.name, tt.templateStr, tt.data)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestRenderer_ParseCaches(t *testing.T) {
	r := NewRenderer()

	first, err := r.Parse("bread.lg#template", "one", nil)
	require.NoError(t, err)
	second, err := r.Parse("bread.lg#template", "two", nil)
	require.NoError(t, err)

	assert.Same(t, first, second)
	out, err := r.Execute(second, nil)
	require.NoError(t, err)
	assert.Equal(t, "one", out)
}

func TestRenderer_ExtraFuncs(t *testing.T) {
	r := NewRenderer()

	tmpl, err := r.Parse("extra", `{{ shout "hi" }}`, map[string]any{
		"shout": func(s string) string { return s + "!" },
	})
	require.NoError(t, err)

	out, err := r.Execute(tmpl, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi!", out)
}

func TestCaseHelpers(t *testing.T) {
	assert.Equal(t, "BreadType", PascalCase("bread_type"))
	assert.Equal(t, "breadType", CamelCase("bread_type"))
	assert.Equal(t, "bread_type", SnakeCase("BreadType"))
	assert.Equal(t, "Hello World", Title("hello world"))
	assert.Equal(t, `"x"`, Quote("x"))
}

func TestJSONPath(t *testing.T) {
	data := map[string]any{
		"properties": map[string]any{
			"Bread": map[string]any{"type": "string"},
		},
	}

	got, err := JSONPath(data, "$.properties.Bread.type")
	require.NoError(t, err)
	assert.Equal(t, []any{"string"}, got)

	_, err = JSONPath(data, "$.properties[")
	assert.Error(t, err)
}

func TestDict(t *testing.T) {
	m, err := Dict("a", 1, "b", "two")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "b": "two"}, m)

	_, err = Dict("a")
	assert.Error(t, err)

	_, err = Dict(1, 2)
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	assert.Equal(t, "d", Default("d", nil))
	assert.Equal(t, "d", Default("d", ""))
	assert.Equal(t, "d", Default("d", []any{}))
	assert.Equal(t, 0, Default("d", 0))
	assert.Equal(t, "v", Default("d", "v"))
}
