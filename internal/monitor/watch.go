package monitor

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/teamctl/internal/logging"
)

// watchFile signals on the returned channel whenever path is written,
// created or renamed over. The parent directory is watched so editors that
// save by replacing the file are still seen. Bursts of events coalesce into
// one pending signal. The returned func stops the watcher.
func watchFile(path string, logger *logging.Logger) (<-chan struct{}, func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return nil, nil, err
	}

	changed := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case changed <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Debug("team file watcher error", "error", err)
			}
		}
	}()

	stop := func() {
		_ = watcher.Close()
		<-done
	}
	return changed, stop, nil
}
