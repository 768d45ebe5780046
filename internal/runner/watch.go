package runner

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/julianshen/docsmith/internal/analysis"
)

// DefaultDebounce is how long Watch waits for a burst of changes to settle.
const DefaultDebounce = 500 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	Paths []string
	// Exclude is a directory whose events are ignored, normally the output
	// directory, so writing the site never retriggers generation.
	Exclude  string
	Debounce time.Duration
	Logf     func(format string, args ...any)
}

// Watch calls fn once, then again after every batch of analysis-file
// changes under opts.Paths. Errors from fn are logged, not returned. Watch
// blocks until ctx is cancelled.
func Watch(ctx context.Context, opts WatchOptions, fn func(context.Context) error) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logf := opts.Logf
	if logf == nil {
		logf = log.Printf
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	files, err := addWatchPaths(watcher, opts.Paths)
	if err != nil {
		return fmt.Errorf("setting up watcher: %w", err)
	}
	exclude := ""
	if opts.Exclude != "" {
		if abs, err := filepath.Abs(opts.Exclude); err == nil {
			exclude = abs + string(filepath.Separator)
		}
	}

	relevant := func(name string) bool {
		abs, err := filepath.Abs(name)
		if err != nil {
			return false
		}
		if exclude != "" && strings.HasPrefix(abs, exclude) {
			return false
		}
		if len(files) > 0 && files[filepath.Dir(abs)] != nil {
			return files[filepath.Dir(abs)][abs]
		}
		return analysis.IsAnalysisFile(abs)
	}

	run := func() {
		if err := fn(ctx); err != nil && ctx.Err() == nil {
			logf("WARNING: generation failed: %v", err)
		}
	}
	run()

	pending := false
	timer := time.NewTimer(opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod || !relevant(event.Name) {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
			pending = true
			timer.Reset(opts.Debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logf("WARNING: watch error: %v", err)

		case <-timer.C:
			if pending {
				pending = false
				run()
			}
		}
	}
}

// addWatchPaths watches every directory under the given paths. For file
// paths the parent directory is watched and only that file is relevant;
// the returned map lists those files by directory.
func addWatchPaths(w *fsnotify.Watcher, paths []string) (map[string]map[string]bool, error) {
	files := make(map[string]map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			dir := filepath.Dir(abs)
			if files[dir] == nil {
				files[dir] = make(map[string]bool)
				if err := w.Add(dir); err != nil {
					return nil, err
				}
			}
			files[dir][abs] = true
			continue
		}
		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != abs && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return w.Add(path)
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
