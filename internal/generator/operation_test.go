package generator_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/wren/internal/generator"
)

func TestExecute_DryRun(t *testing.T) {
	fs := memfs.New()
	ops := []generator.Operation{
		&generator.WriteFileOp{FS: fs, Path: "en-us/bread.lg", Content: []byte("hello"), Mode: 0o644},
	}

	var buf bytes.Buffer
	err := generator.Execute(context.Background(), ops, generator.ExecuteOptions{DryRun: true, Writer: &buf})
	require.NoError(t, err)

	exists, err := generator.Exists(fs, "en-us/bread.lg")
	require.NoError(t, err)
	assert.False(t, exists, "dry run created file")
	assert.Contains(t, buf.String(), "[DRY RUN]")
}

func TestExecute_CreatesParents(t *testing.T) {
	fs := memfs.New()
	ops := []generator.Operation{
		&generator.WriteFileOp{FS: fs, Path: "en-us/nested/bread.lg", Content: []byte("hello")},
	}

	var buf bytes.Buffer
	require.NoError(t, generator.Execute(context.Background(), ops, generator.ExecuteOptions{Writer: &buf}))

	content, err := generator.ReadFile(fs, "en-us/nested/bread.lg")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
	assert.Contains(t, buf.String(), "Create en-us/nested/bread.lg (5 bytes)")
}

func TestExecute_ForceOverwrite(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "bread.lg", []byte("old"), 0o644))

	ops := []generator.Operation{
		&generator.WriteFileOp{FS: fs, Path: "bread.lg", Content: []byte("new")},
	}
	var buf bytes.Buffer

	err := generator.Execute(context.Background(), ops, generator.ExecuteOptions{Writer: &buf})
	assert.Error(t, err, "expected conflict without force")

	require.NoError(t, generator.Execute(context.Background(), ops, generator.ExecuteOptions{Force: true, Writer: &buf}))
	content, err := generator.ReadFile(fs, "bread.lg")
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

func TestWriteFileOp_RejectsNilContent(t *testing.T) {
	op := &generator.WriteFileOp{FS: memfs.New(), Path: "x.lg"}
	assert.Error(t, op.Validate(context.Background(), true))
}
