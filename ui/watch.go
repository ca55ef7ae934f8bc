package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
)

// reloadDebounce swallows the burst of events an editor save produces.
const reloadDebounce = 200 * time.Millisecond

// watcher reports changes to the dataset file, or to any file in a dataset
// directory.
type watcher struct {
	fs   *fsnotify.Watcher
	path string
	dir  bool
}

func newWatcher(path string) (*watcher, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	path, err = filepath.Abs(path)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating fsnotify watcher: %w", err)
	}

	// Editors replace files on save, so the parent directory is watched.
	dir := path
	if !info.IsDir() {
		dir = filepath.Dir(path)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("error adding dir to fsnotify watcher: %w", err)
	}
	log.Info("fsnotify watching dir", "dir", dir)

	return &watcher{fs: fsw, path: path, dir: info.IsDir()}, nil
}

func (w *watcher) relevant(event fsnotify.Event) bool {
	if !w.dir && event.Name != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// wait blocks until the dataset changes. It returns nil once the watcher is
// closed.
func (w *watcher) wait() tea.Msg {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			return w.settle()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Debug("fsnotify error", "path", w.path, "error", err)
		}
	}
}

// settle drains events until the directory has been quiet for
// reloadDebounce.
func (w *watcher) settle() tea.Msg {
	timer := time.NewTimer(reloadDebounce)
	defer timer.Stop()
	for {
		select {
		case _, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			timer.Reset(reloadDebounce)
		case <-timer.C:
			return datasetChangedMsg{}
		}
	}
}

func (w *watcher) close() error {
	return w.fs.Close() //nolint:wrapcheck
}
