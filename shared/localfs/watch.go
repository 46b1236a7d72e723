package localfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 200 * time.Millisecond

// Watcher calls onChange once a burst of file system events under any of its
// directories has settled.
type Watcher struct {
	dirs     []string
	debounce time.Duration
	onChange func(ctx context.Context) error
}

// NewWatcher watches dirs recursively. A directory that does not exist when Run
// starts is skipped.
func NewWatcher(dirs []string, debounce time.Duration, onChange func(ctx context.Context) error) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{dirs: dirs, debounce: debounce, onChange: onChange}
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	watched := 0
	for _, dir := range w.dirs {
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("dir", dir).Msg("Not watching missing directory")
			continue
		}
		err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return fw.Add(p)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("none of %v exist", w.dirs)
	}

	log.Info().Strs("dirs", w.dirs).Msg("Watching for file changes")

	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) {
				// new directories need their own watch
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := fw.Add(ev.Name); err != nil {
						log.Warn().Err(err).Str("dir", ev.Name).Msg("Failed to watch new directory")
					}
				}
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Watcher error")
		case <-timer.C:
			runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if err := w.onChange(runCtx); err != nil {
				log.Error().Err(err).Strs("dirs", w.dirs).Msg("Failed to apply file changes")
			}
			cancel()
		}
	}
}
