package scan

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceInterval is how long Watch waits for writes to settle.
const DebounceInterval = 100 * time.Millisecond

// Watch re-analyzes changed files under paths until ctx is cancelled.
// Changes arriving within DebounceInterval of each other are delivered to fn
// as one batch, sorted by path.
func Watch(ctx context.Context, paths []string, opts Options, fn func([]Result)) error {
	logger := opts.logger()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	set := &watchSet{
		watcher:    watcher,
		files:      make(map[string]struct{}),
		dirs:       make(map[string]struct{}),
		extensions: opts.extensions(),
	}
	for _, path := range paths {
		if err := set.add(path); err != nil {
			return err
		}
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		wg      sync.WaitGroup
	)
	defer wg.Wait()

	flush := func() {
		defer wg.Done()
		mu.Lock()
		files := make([]string, 0, len(pending))
		for path := range pending {
			files = append(files, path)
		}
		pending = make(map[string]struct{})
		mu.Unlock()

		if len(files) == 0 || ctx.Err() != nil {
			return
		}
		slices.Sort(files)
		logger.Debug("files changed, re-analyzing", slog.Int("files", len(files)))

		results, err := Run(ctx, files, opts)
		if err != nil {
			return
		}
		fn(results)
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if timer != nil && timer.Stop() {
				wg.Done()
			}
			mu.Unlock()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			name := filepath.Clean(event.Name)
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(name); err == nil && info.IsDir() {
					if !set.watchesDir(filepath.Dir(name)) {
						continue
					}
					if err := set.addDir(name); err != nil {
						logger.Error("failed to watch new directory", slog.String("dir", name), slog.String("error", err.Error()))
					}
					continue
				}
			}

			if !set.matches(name) {
				continue
			}

			mu.Lock()
			pending[name] = struct{}{}
			if timer != nil && timer.Stop() {
				wg.Done()
			}
			wg.Add(1)
			timer = time.AfterFunc(DebounceInterval, flush)
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", slog.String("error", err.Error()))
		}
	}
}

// watchSet tracks what Watch reacts to. Explicit files are watched through
// their directory without pulling in their siblings.
type watchSet struct {
	watcher    *fsnotify.Watcher
	files      map[string]struct{}
	dirs       map[string]struct{}
	extensions []string
}

func (w *watchSet) add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return w.addDir(path)
	}
	w.files[filepath.Clean(path)] = struct{}{}
	if err := w.watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	return nil
}

// addDir watches dir and every non-hidden directory below it.
func (w *watchSet) addDir(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		w.dirs[filepath.Clean(path)] = struct{}{}
		return nil
	})
}

func (w *watchSet) watchesDir(dir string) bool {
	_, ok := w.dirs[dir]
	return ok
}

func (w *watchSet) matches(name string) bool {
	if _, ok := w.files[name]; ok {
		return true
	}
	return w.watchesDir(filepath.Dir(name)) && hasExtension(name, w.extensions)
}
