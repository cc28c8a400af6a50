package server

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/chuhlomin/diff/internal/site"
)

const reloadOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// WatchTemplates reparses the templates in dir whenever a *.gohtml file
// there changes, until ctx is done. A template that fails to parse keeps
// the previous set in place.
func (s *Server) WatchTemplates(ctx context.Context, dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&reloadOps == 0 || filepath.Ext(ev.Name) != ".gohtml" {
					continue
				}
				tmpl, err := site.LoadTemplates(dir)
				if err != nil {
					s.log.Warn("reload templates", "error", err)
					continue
				}
				s.SetTemplates(tmpl)
				s.log.Info("templates reloaded", "file", ev.Name)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.log.Warn("template watcher", "error", err)
			}
		}
	}()

	return nil
}
