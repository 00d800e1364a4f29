package engine

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/wren/internal/generator"
	"github.com/simonhull/firebird-suite/wren/internal/schema"
)

type entry struct {
	severity Severity
	msg      string
}

type recorder struct {
	entries []entry
}

func (r *recorder) feedback(severity Severity, msg string) {
	r.entries = append(r.entries, entry{severity: severity, msg: msg})
}

func (r *recorder) of(severity Severity) []string {
	var out []string
	for _, e := range r.entries {
		if e.severity == severity {
			out = append(out, e.msg)
		}
	}
	return out
}

const breadSchema = `{
  "properties": {
    "Bread": {"type": "string"},
    "Quantity": {"type": "number", "$entities": ["number:Quantity"]}
  }
}`

func newMaterializer(t *testing.T, dirs ...Dir) (*Materializer, *recorder, billy.Filesystem) {
	t.Helper()
	s, err := schema.Parse("sandwich.json", []byte(breadSchema))
	require.NoError(t, err)

	rec := &recorder{}
	out := memfs.New()
	m := &Materializer{
		Locator:  NewLocator(dirs, generator.NewRenderer()),
		Out:      out,
		State:    NewState(s),
		Feedback: rec.feedback,
	}
	return m, rec, out
}

func readOut(t *testing.T, out billy.Filesystem, name string) string {
	t.Helper()
	data, err := util.ReadFile(out, name)
	require.NoError(t, err)
	return string(data)
}

var breadScope = Scope{Locale: "en-us", Locales: []string{"en-us"}, Prefix: "sandwich", Property: "Bread", Type: "string"}

func TestMaterialize_Literal(t *testing.T) {
	m, rec, out := newMaterializer(t, Dir{Name: "d", FS: fstest.MapFS{
		"greeting.txt":     file("hello"),
		"welcome.en-us.lu": file("# Welcome"),
		"welcome.fr-fr.lu": file("# Bienvenue"),
	}})
	ctx := context.Background()

	assert.Equal(t, "sandwich-greeting.txt", m.Materialize(ctx, "greeting.txt", breadScope, false))
	assert.Equal(t, "hello", readOut(t, out, "sandwich-greeting.txt"))

	// Names mentioning the locale are nested under it.
	assert.Equal(t, "en-us/sandwich-welcome.en-us.lu", m.Materialize(ctx, "welcome.en-us.lu", breadScope, false))
	assert.Equal(t, "# Welcome", readOut(t, out, "en-us/sandwich-welcome.en-us.lu"))

	assert.Empty(t, rec.of(SeverityError))
	assert.Contains(t, rec.of(SeverityInfo), "✓ Create sandwich-greeting.txt (5 bytes)")
}

func TestMaterialize_Structured(t *testing.T) {
	m, rec, out := newMaterializer(t, Dir{Name: "d", FS: fstest.MapFS{
		"property.lu.lg": file(`Example utterances.
::: filename
{{ .Locale }}/{{ .Prefix }}-{{ .Property }}.{{ .Locale }}.lu
::: template
# Add{{ .Property }}
- {{ humanize .Property }} please
`),
	}})

	got := m.Materialize(context.Background(), "property.lu", breadScope, false)
	assert.Equal(t, "en-us/sandwich-Bread.en-us.lu", got)
	assert.Equal(t, "# AddBread\n- bread please\n", readOut(t, out, got))
	assert.Empty(t, rec.of(SeverityError))
}

func TestMaterialize_Missing(t *testing.T) {
	m, rec, _ := newMaterializer(t, Dir{Name: "d", FS: fstest.MapFS{}})
	ctx := context.Background()

	assert.Empty(t, m.Materialize(ctx, "stringEntity-string", breadScope, true))
	assert.Empty(t, rec.entries, "ignorable lookups stay quiet")

	assert.Empty(t, m.Materialize(ctx, "string", breadScope, false))
	assert.Equal(t, []string{"Missing template string"}, rec.of(SeverityError))
}

func TestMaterialize_EmptyShadows(t *testing.T) {
	standard := Dir{Name: "standard", FS: fstest.MapFS{"string.lg": file("::: template\ngenerated\n")}}
	user := Dir{Name: "user", FS: fstest.MapFS{"string.lg": file("Suppressed on purpose.\n")}}
	m, rec, out := newMaterializer(t, standard, user)

	assert.Empty(t, m.Materialize(context.Background(), "string", breadScope, false))
	assert.Empty(t, rec.entries)
	exists, err := generator.Exists(out, "sandwich-string")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMaterialize_SkipsExisting(t *testing.T) {
	m, rec, out := newMaterializer(t, Dir{Name: "d", FS: fstest.MapFS{"greeting.txt": file("hello")}})
	require.NoError(t, util.WriteFile(out, "sandwich-greeting.txt", []byte("edited by hand"), 0o644))

	got := m.Materialize(context.Background(), "greeting.txt", breadScope, false)
	assert.Equal(t, "sandwich-greeting.txt", got)
	assert.Equal(t, "edited by hand", readOut(t, out, got))
	assert.Equal(t, []string{"Skipping already existing sandwich-greeting.txt"}, rec.of(SeverityWarning))

	_, claimed := m.State.Tracker.Lookup("sandwich-greeting.txt")
	assert.True(t, claimed, "skipped files are still claimed")
}

func TestMaterialize_Force(t *testing.T) {
	m, rec, out := newMaterializer(t, Dir{Name: "d", FS: fstest.MapFS{"greeting.txt": file("hello")}})
	require.NoError(t, util.WriteFile(out, "sandwich-greeting.txt", []byte("edited by hand"), 0o644))
	m.Force = true

	m.Materialize(context.Background(), "greeting.txt", breadScope, false)
	assert.Equal(t, "hello", readOut(t, out, "sandwich-greeting.txt"))
	assert.Empty(t, rec.of(SeverityWarning))
}

func TestMaterialize_Diff(t *testing.T) {
	m, rec, out := newMaterializer(t, Dir{Name: "d", FS: fstest.MapFS{"greeting.txt": file("hello\n")}})
	require.NoError(t, util.WriteFile(out, "sandwich-greeting.txt", []byte("goodbye\n"), 0o644))
	m.Diff = true

	m.Materialize(context.Background(), "greeting.txt", breadScope, false)

	infos := rec.of(SeverityInfo)
	require.Len(t, infos, 1)
	assert.Contains(t, infos[0], "sandwich-greeting.txt (generated)")
	assert.Contains(t, infos[0], "goodbye")
	assert.Contains(t, infos[0], "hello")
	assert.Equal(t, "goodbye\n", readOut(t, out, "sandwich-greeting.txt"))
}

func TestMaterialize_DryRun(t *testing.T) {
	m, rec, out := newMaterializer(t, Dir{Name: "d", FS: fstest.MapFS{"greeting.txt": file("hello")}})
	m.DryRun = true

	got := m.Materialize(context.Background(), "greeting.txt", breadScope, false)
	assert.Equal(t, "sandwich-greeting.txt", got)

	exists, err := generator.Exists(out, got)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, []string{"✓ [DRY RUN] Create sandwich-greeting.txt (5 bytes)"}, rec.of(SeverityMessage))
}

func TestMaterialize_DedupByIdentity(t *testing.T) {
	m, rec, out := newMaterializer(t, Dir{Name: "d", FS: fstest.MapFS{
		"one.lg": file("::: filename\nen-us/{{ .Prefix }}-shared.lu\n::: template\nfirst\n"),
		"two.lg": file("::: filename\nother/{{ .Prefix }}-shared.lu\n::: template\nsecond\n"),
	}})
	ctx := context.Background()

	assert.Equal(t, "en-us/sandwich-shared.lu", m.Materialize(ctx, "one", breadScope, false))
	assert.Equal(t, "en-us/sandwich-shared.lu", m.Materialize(ctx, "two", breadScope, false))

	assert.Equal(t, "first\n", readOut(t, out, "en-us/sandwich-shared.lu"))
	_, err := out.Stat("other/sandwich-shared.lu")
	assert.Error(t, err)
	assert.Empty(t, rec.of(SeverityError))
	assert.Len(t, rec.of(SeverityInfo), 1, "exactly one write")
}

func TestMaterialize_SharedFileStillAttachesEntities(t *testing.T) {
	m, rec, out := newMaterializer(t, Dir{Name: "d", FS: fstest.MapFS{
		"shared.lg":   file("::: filename\ncommon.lg\n::: template\nshared\n::: entities\n{{ .Property }}Entity\n::: templates\nextra.lu\n"),
		"extra.lu.lg": file("::: filename\n{{ .Prefix }}-{{ .Property }}-extra.lu\n::: template\n{{ .Property }}\n"),
	}})
	s, err := schema.Parse("pair.json", []byte(`{"properties": {"A": {"type": "shared"}, "B": {"type": "shared"}}}`))
	require.NoError(t, err)
	m.State = NewState(s)
	ctx := context.Background()

	for _, property := range []string{"A", "B"} {
		sc := breadScope
		sc.Property = property
		sc.Type = "shared"
		assert.Equal(t, "common.lg", m.Materialize(ctx, "shared", sc, false))
	}

	for _, property := range []string{"A", "B"} {
		entities, ok := schema.Strings(schema.Lookup(s.Root, property), schema.KeyEntities)
		require.True(t, ok, property)
		assert.Equal(t, []string{property + "Entity"}, entities)
		assert.Equal(t, property+"\n", readOut(t, out, "sandwich-"+property+"-extra.lu"))
	}
	assert.Equal(t, "shared\n", readOut(t, out, "common.lg"))
	assert.Empty(t, rec.of(SeverityError))
	assert.Len(t, rec.of(SeverityInfo), 3, "common.lg is written once")
}

func TestMaterialize_ReusesClaimedName(t *testing.T) {
	m, rec, _ := newMaterializer(t, Dir{Name: "d", FS: fstest.MapFS{"greeting.txt": file("hello")}})
	ctx := context.Background()
	m.Materialize(ctx, "greeting.txt", breadScope, false)

	// No template has this name, but the file it names was produced.
	assert.Equal(t, "sandwich-greeting.txt", m.Materialize(ctx, "sandwich-greeting.txt", breadScope, false))
	assert.Empty(t, rec.of(SeverityError))
}

func TestMaterialize_Override(t *testing.T) {
	standard := Dir{Name: "standard", FS: fstest.MapFS{
		"property.lg.lg": file("::: filename\n{{ .Locale }}/{{ .Prefix }}-{{ .Property }}.{{ .Locale }}.lg\n::: template\n# generated\n"),
	}}

	t.Run("exact name", func(t *testing.T) {
		user := Dir{Name: "user", FS: fstest.MapFS{"sandwich-Bread.en-us.lg": file("# hand written\n")}}
		m, _, out := newMaterializer(t, standard, user)

		got := m.Materialize(context.Background(), "property.lg", breadScope, false)
		assert.Equal(t, "# hand written\n", readOut(t, out, got))
	})

	t.Run("without locale", func(t *testing.T) {
		user := Dir{Name: "user", FS: fstest.MapFS{"sandwich-Bread.lg": file("# any locale\n")}}
		m, _, out := newMaterializer(t, standard, user)

		got := m.Materialize(context.Background(), "property.lg", breadScope, false)
		assert.Equal(t, "# any locale\n", readOut(t, out, got))
	})

	t.Run("structured override", func(t *testing.T) {
		user := Dir{Name: "user", FS: fstest.MapFS{"sandwich-Bread.en-us.lg.lg": file("::: template\n# custom {{ .Property }}\n")}}
		m, _, out := newMaterializer(t, standard, user)

		got := m.Materialize(context.Background(), "property.lg", breadScope, false)
		assert.Equal(t, "# custom Bread\n", readOut(t, out, got))
	})
}

func TestMaterialize_Entities(t *testing.T) {
	dir := Dir{Name: "d", FS: fstest.MapFS{
		"string.lg": file("::: entities\n{{ .Property }}Entity, extra\n"),
		"number.lg": file("::: entities\nignored\n"),
	}}
	m, rec, _ := newMaterializer(t, dir)
	ctx := context.Background()
	root := m.State.Schema.Root

	assert.Empty(t, m.Materialize(ctx, "string", breadScope, false))
	entities, ok := schema.Strings(schema.Lookup(root, "Bread"), schema.KeyEntities)
	require.True(t, ok)
	assert.Equal(t, []string{"BreadEntity", "extra"}, entities)

	quantity := breadScope
	quantity.Property = "Quantity"
	quantity.Type = "number"
	m.Materialize(ctx, "number", quantity, false)
	entities, _ = schema.Strings(schema.Lookup(root, "Quantity"), schema.KeyEntities)
	assert.Equal(t, []string{"number:Quantity"}, entities, "declared entities win")

	assert.Empty(t, rec.of(SeverityError))
}

func TestMaterialize_TemplatesFanOut(t *testing.T) {
	m, rec, out := newMaterializer(t, Dir{Name: "d", FS: fstest.MapFS{
		"string.lg":   file("::: templates\nfirst.lu second.lu\n"),
		"first.lu.lg": file("::: filename\n{{ .Prefix }}-{{ .Property }}-first.lu\n::: template\n1\n::: templates\nsecond.lu\n"),
		"second.lu":   file("2"),
	}})

	m.Materialize(context.Background(), "string", breadScope, false)

	assert.Equal(t, "1\n", readOut(t, out, "sandwich-Bread-first.lu"))
	assert.Equal(t, "2", readOut(t, out, "sandwich-second.lu"))
	assert.Empty(t, rec.of(SeverityError))
	assert.Len(t, rec.of(SeverityInfo), 2)
}

func TestMaterialize_MissingFanOutIsError(t *testing.T) {
	m, rec, _ := newMaterializer(t, Dir{Name: "d", FS: fstest.MapFS{
		"string.lg": file("::: templates\nnowhere\n"),
	}})

	m.Materialize(context.Background(), "string", breadScope, false)
	assert.Equal(t, []string{"Missing template nowhere"}, rec.of(SeverityError))
}

func TestMaterialize_SelfReference(t *testing.T) {
	m, rec, _ := newMaterializer(t, Dir{Name: "d", FS: fstest.MapFS{
		"loop.lg": file("::: templates\nloop\n"),
	}})

	m.Materialize(context.Background(), "loop", breadScope, false)
	errs := rec.of(SeverityError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "d/loop.lg: template includes itself")
}

func TestMaterialize_Errors(t *testing.T) {
	tests := []struct {
		name     string
		template string
		contains string
	}{
		{name: "escape", template: "::: filename\n../outside.lu\n::: template\nx\n", contains: "leaves the output directory"},
		{name: "empty filename", template: "::: filename\n{{ \"\" }}\n::: template\nx\n", contains: "filename section is empty"},
		{name: "render", template: "::: template\n{{ index .Schema \"properties\" \"Bread\" \"missing\" \"deeper\" }}\n", contains: "failed to render"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, rec, _ := newMaterializer(t, Dir{Name: "d", FS: fstest.MapFS{"x.lg": file(tt.template)}})

			assert.NotPanics(t, func() {
				m.Materialize(context.Background(), "x", breadScope, false)
			})
			errs := rec.of(SeverityError)
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.contains)
		})
	}
}

func TestMaterialize_TemplateData(t *testing.T) {
	m, _, out := newMaterializer(t, Dir{Name: "d", FS: fstest.MapFS{
		"first.txt": file("1"),
		"data.lg": file(`::: filename
{{ .Prefix }}-data.txt
::: template
{{ .Locale }} {{ join .Locales "," }} {{ .Type }} {{ index .PropertySchema "type" }}
{{ range index .Templates "txt" }}{{ . }} {{ end }}
{{ len (jsonPath .Schema "$.properties.*") }}
`),
	}})
	ctx := context.Background()
	m.Materialize(ctx, "first.txt", breadScope, false)
	m.Materialize(ctx, "data", breadScope, false)

	body := readOut(t, out, "sandwich-data.txt")
	lines := strings.Split(body, "\n")
	assert.Equal(t, "en-us en-us string string", lines[0])
	assert.Equal(t, "sandwich-first.txt sandwich-data.txt ", lines[1])
	assert.Equal(t, "2", lines[2])
}
