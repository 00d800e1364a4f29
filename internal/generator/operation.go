package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Operation represents a change to the output tree that can be validated and executed.
//
// Validate checks if the operation would succeed without executing it.
// force=true skips conflict checks (e.g., file already exists).
//
// Execute performs the actual operation. This should only be called after Validate succeeds.
//
// Description returns a human-readable description for output (e.g., "Create en-us/sandwich-Bread.en-us.lg (234 bytes)").
type Operation interface {
	Validate(ctx context.Context, force bool) error
	Execute(ctx context.Context) error
	Description() string
}

// WriteFileOp writes a generated resource into an output filesystem.
//
// Paths are relative to the filesystem root and use forward slashes.
// Parent directories are created on demand. Empty content is allowed,
// nil content is rejected.
type WriteFileOp struct {
	FS      billy.Filesystem
	Path    string
	Content []byte
	Mode    fs.FileMode
}

func (op *WriteFileOp) Validate(ctx context.Context, force bool) error {
	if op.Content == nil {
		return fmt.Errorf("content is nil for file: %s", op.Path)
	}

	if !force {
		exists, err := Exists(op.FS, op.Path)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("file already exists: %s", op.Path)
		}
	}

	return nil
}

func (op *WriteFileOp) Execute(ctx context.Context) error {
	if dir := path.Dir(op.Path); dir != "." {
		if err := op.FS.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", dir, err)
		}
	}
	mode := op.Mode
	if mode == 0 {
		mode = 0o644
	}
	if err := util.WriteFile(op.FS, op.Path, op.Content, mode); err != nil {
		return fmt.Errorf("writing %s: %w", op.Path, err)
	}
	return nil
}

func (op *WriteFileOp) Description() string {
	return fmt.Sprintf("Create %s (%d bytes)", op.Path, len(op.Content))
}

// ExecuteOptions configures execution behavior
type ExecuteOptions struct {
	DryRun bool
	Force  bool
	Writer io.Writer // Where to write output (defaults to os.Stdout)
}

// Execute validates every operation, then runs them in order
func Execute(ctx context.Context, ops []Operation, opts ExecuteOptions) error {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	for _, op := range ops {
		if err := op.Validate(ctx, opts.Force); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	for _, op := range ops {
		if opts.DryRun {
			fmt.Fprintf(opts.Writer, "✓ [DRY RUN] %s\n", op.Description())
			continue
		}
		if err := op.Execute(ctx); err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
		fmt.Fprintf(opts.Writer, "✓ %s\n", op.Description())
	}

	return nil
}

// Exists reports whether name is present in the filesystem
func Exists(fsys billy.Filesystem, name string) (bool, error) {
	_, err := fsys.Stat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking %s: %w", name, err)
}

// ReadFile reads a file from the output filesystem
func ReadFile(fsys billy.Filesystem, name string) ([]byte, error) {
	data, err := util.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}
