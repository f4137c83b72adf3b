// Package watch monitors a directory for incoming archive files (e.g.
// an Aminet mirror's drop folder) and invokes a callback for each one
// that appears, using fsnotify the way viper does internally for its
// own config-file watching.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// archiveExtensions are the file suffixes treated as LHA/LZH archives.
var archiveExtensions = map[string]bool{
	".lha": true,
	".lzh": true,
}

// IsArchivePath reports whether path's extension names a recognized
// archive suffix.
func IsArchivePath(path string) bool {
	return archiveExtensions[strings.ToLower(filepath.Ext(path))]
}

// Directory watches dir for created or renamed-into-place archive files
// until ctx is canceled, invoking onArchive with each one's path. It
// blocks until ctx is done or the watcher itself errors.
func Directory(ctx context.Context, dir string, onArchive func(path string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch: watching %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if IsArchivePath(event.Name) {
				onArchive(event.Name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		}
	}
}
