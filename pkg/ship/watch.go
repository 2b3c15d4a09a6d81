package ship

import (
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchHooks starts an fsnotify watcher on the hook configuration's
// directory and reloads the bindings when the document changes. Editors
// tend to fire several events per save, so reloads are debounced.
func (s *Ship) WatchHooks() {
	if s.conf.EventList == "" {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WARNING: Could not start hook config watcher: %v", err)
		return
	}

	target := filepath.Base(s.conf.EventList)
	dir := filepath.Dir(s.conf.EventList)

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if filepath.Base(event.Name) != target {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(250*time.Millisecond, func() {
					log.Printf("Hook configuration changed on disk: %s", s.conf.EventList)
					if err := s.ReloadHooks(); err != nil {
						log.Printf("WARNING: hook reload failed, keeping previous bindings: %v", err)
					}
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Hook config watcher error: %v", err)
			}
		}
	}()

	if err := watcher.Add(dir); err != nil {
		log.Printf("WARNING: Could not watch hook config directory %s: %v", dir, err)
		watcher.Close()
		return
	}
	log.Printf("Watching hook configuration for changes: %s", s.conf.EventList)
}
