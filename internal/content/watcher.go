package content

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watch invalidates the repository cache whenever a markdown file under the
// content root changes. It blocks until ctx is cancelled.
func (r *Repository) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if errAdd := addContentDirs(watcher, r.root); errAdd != nil {
		return errAdd
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !strings.HasSuffix(event.Name, ".md") {
				// New subdirectories need watching too.
				if event.Op&fsnotify.Create != 0 {
					if info, errStat := os.Stat(event.Name); errStat == nil && info.IsDir() {
						_ = watcher.Add(event.Name)
					}
				}
				continue
			}
			log.WithField("file", event.Name).Debug("content: change detected, cache invalidated")
			r.Invalidate()
		case errWatch, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(errWatch).Warn("content: watcher error")
		}
	}
}

// addContentDirs registers the root and its immediate subdirectories.
func addContentDirs(watcher *fsnotify.Watcher, root string) error {
	if err := watcher.Add(root); err != nil {
		return err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if errAdd := watcher.Add(filepath.Join(root, entry.Name())); errAdd != nil {
				return errAdd
			}
		}
	}
	return nil
}
