package catalog

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	// watchDebounce batches the burst of events a spreadsheet save produces.
	watchDebounce = 500 * time.Millisecond

	// selfWriteGrace ignores events caused by the store's own writes.
	selfWriteGrace = time.Second
)

// Watch reloads the store whenever the workbook changes on disk, for example
// after it is saved from a spreadsheet application. onChange is called after
// each reload with its result. Watch blocks until ctx is cancelled.
func (s *Store) Watch(ctx context.Context, onChange func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return NewWorkbookError("failed to create file watcher", err)
	}
	defer watcher.Close()

	// Watch the directory: atomic saves replace the file, which drops a
	// watch placed on the file itself.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return NewWorkbookError("failed to watch "+dir, err)
	}

	log := s.log.Named("watch")
	log.Info("Watching workbook", zap.String("path", s.path))

	target := filepath.Clean(s.path)
	var pending time.Time
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			log.Debug("Workbook event", zap.String("op", event.Op.String()))
			pending = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("Watcher error", zap.Error(err))

		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < watchDebounce {
				continue
			}
			pending = time.Time{}

			s.mu.RLock()
			own := time.Since(s.lastWrite) < selfWriteGrace
			s.mu.RUnlock()
			if own {
				continue
			}

			err := s.Reload()
			if err != nil {
				log.Warn("Reload after change failed", zap.Error(err))
			} else {
				log.Info("Workbook reloaded after external change")
			}
			if onChange != nil {
				onChange(err)
			}
		}
	}
}
