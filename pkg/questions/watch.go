package questions

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const watchDebounce = 500 * time.Millisecond

// Invalidator is notified when the dataset on disk changes.
type Invalidator interface {
	Invalidate()
}

// Watch invalidates target whenever the dataset file at path is written,
// created or renamed. It blocks until ctx is done.
func Watch(ctx context.Context, path string, target Invalidator, log *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create dataset watcher: %w", err)
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve dataset path: %w", err)
	}
	// Watch the directory so atomic replace-by-rename is seen too.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("watch dataset directory: %w", err)
	}

	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(watchDebounce)
		case <-timer.C:
			target.Invalidate()
			log.Info("question dataset changed, cache invalidated", zap.String("path", absPath))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("dataset watcher error", zap.Error(err))
		}
	}
}
