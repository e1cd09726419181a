package viewer

import (
	"path/filepath"
	"time"

	"rolf/logging"
	"rolf/preview"

	"github.com/fsnotify/fsnotify"
	"github.com/gdamore/tcell/v2"
)

const watchDebounce = 100 * time.Millisecond

// FileWatchEvent tells the main event loop that the previewed file changed.
type FileWatchEvent struct {
	tcell.EventTime
	Path string
	Op   fsnotify.Op
}

// setupFileWatcher watches the directory holding v.path, since editors and
// image tools often replace files by renaming over them.
func (v *Viewer) setupFileWatcher() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Graceful degradation - continue without watching
		logging.Warn("file watching disabled: %v", err)
		return
	}
	if err := watcher.Add(filepath.Dir(v.path)); err != nil {
		logging.Warn("watch %s: %v", v.path, err)
		watcher.Close()
		return
	}
	v.fileWatcher = watcher

	screen := v.screen
	path := v.path
	go func() {
		debounceTimer := time.NewTimer(watchDebounce)
		debounceTimer.Stop()
		var pending fsnotify.Op

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				pending |= event.Op
				debounceTimer.Reset(watchDebounce)

			case <-debounceTimer.C:
				ev := &FileWatchEvent{Path: path, Op: pending}
				ev.SetEventNow()
				screen.PostEvent(ev)
				pending = 0

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn("watcher: %v", err)
			}
		}
	}()
}

// handleFileWatchEvent replaces the running render with a fresh one. The
// old render's gate is cleared first so its output can never land on top
// of the new one.
func (v *Viewer) handleFileWatchEvent(ev *FileWatchEvent) {
	if ev.Path != v.path {
		return
	}
	logging.Info("%s changed (%s), rendering again", ev.Path, ev.Op)

	v.stop()
	if v.renderer.Protocol == preview.ProtoKitty {
		v.ttyMu.Lock()
		preview.ClearKitty(v.tty)
		v.ttyMu.Unlock()
	}
	v.err = nil
	v.start()
}
