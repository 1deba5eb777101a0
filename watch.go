package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/fsnotify/fsnotify"
)

// watchFiles calls regenerate after every write to one of the files named
// by paths until ctx is done. Parent directories are watched so that
// editors replacing the file by rename are noticed too. paths is consulted
// again after each regeneration, so a reload that names a different input
// moves the watch. Regeneration errors are logged, not returned.
func watchFiles(ctx context.Context, paths func() []string, regenerate func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	set := watchSet{w: w}
	if err := set.update(paths()); err != nil {
		return err
	}

	slog.Info("watching for changes", "files", set.files())

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !set.targets[filepath.Clean(ev.Name)] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			slog.Debug("change detected", "file", ev.Name, "op", ev.Op.String())
			if err := regenerate(); err != nil {
				slog.Error("regeneration failed", "err", err)
			}

			before := set.files()
			if err := set.update(paths()); err != nil {
				slog.Warn("updating watched files", "err", err)
				continue
			}
			if after := set.files(); !slices.Equal(before, after) {
				slog.Info("watching for changes", "files", after)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "err", err)
		}
	}
}

// watchSet tracks the watched files and the directories registered for
// them.
type watchSet struct {
	w       *fsnotify.Watcher
	targets map[string]bool
	dirs    map[string]bool
}

func (s *watchSet) update(paths []string) error {
	targets := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", p, err)
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	for dir := range dirs {
		if s.dirs[dir] {
			continue
		}
		if err := s.w.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	for dir := range s.dirs {
		if !dirs[dir] {
			if err := s.w.Remove(dir); err != nil {
				slog.Debug("unwatching directory", "dir", dir, "err", err)
			}
		}
	}

	s.targets = targets
	s.dirs = dirs

	return nil
}

func (s *watchSet) files() []string {
	files := make([]string, 0, len(s.targets))
	for p := range s.targets {
		files = append(files, p)
	}
	slices.Sort(files)
	return files
}
