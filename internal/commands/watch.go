package commands

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/simonhull/firebird-suite/wren/internal/config"
	"github.com/simonhull/firebird-suite/wren/internal/engine"
	"github.com/simonhull/firebird-suite/wren/internal/output"
)

// debounce collapses bursts of file events (editors write several times).
const debounce = 300 * time.Millisecond

// watch reruns regenerate whenever the schema or a template directory
// changes, until ctx is cancelled.
func watch(ctx context.Context, cfg *config.Config, regenerate func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()

	roots := watchRoots(cfg)
	for _, root := range roots {
		if err := addTree(w, root); err != nil {
			return err
		}
	}
	ignore := outputDir(cfg)

	output.Info(fmt.Sprintf("Watching %s (Ctrl+C to stop)", strings.Join(roots, ", ")))

	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, ignore) {
				continue
			}
			output.Verbose(fmt.Sprintf("Changed: %s", ev.Name))
			if ev.Has(fsnotify.Create) {
				watchCreated(w, ev.Name)
			}
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			output.Error(fmt.Sprintf("watch: %v", err))

		case <-timer.C:
			regenerate()
		}
	}
}

// watchRoots lists the directories to watch: the schema's directory and
// every template directory on disk.
func watchRoots(cfg *config.Config) []string {
	roots := []string{filepath.Dir(cfg.Schema)}
	for _, dir := range cfg.Templates {
		if dir != engine.Standard {
			roots = append(roots, dir)
		}
	}
	return roots
}

func outputDir(cfg *config.Config) string {
	dir := cfg.Output
	if dir == "" {
		prefix := cfg.Prefix
		if prefix == "" {
			prefix = engine.DefaultPrefix(cfg.Schema)
		}
		dir = prefix + "-resources"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

// relevant drops events for generated output and for plain attribute changes.
func relevant(ev fsnotify.Event, ignore string) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return true
	}
	return abs != ignore && !strings.HasPrefix(abs, ignore+string(filepath.Separator))
}

// watchCreated starts watching name when it is a new directory.
func watchCreated(w *fsnotify.Watcher, name string) {
	info, err := os.Stat(name)
	if err != nil || !info.IsDir() {
		return
	}
	if err := addTree(w, name); err != nil {
		output.Error(fmt.Sprintf("watch: %v", err))
	}
}

// addTree watches root and every directory below it.
func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}
