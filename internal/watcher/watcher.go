// Package watcher feeds filesystem change events for primary-extension,
// secondary-extension and marker files back into the workspace bootstrapper and document
// store, so on-disk edits made outside the client still trigger
// re-discovery and re-analysis.
package watcher

import (
	"io/fs"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/wharflab/sqfls/internal/workspace"
)

// EventKind classifies a filesystem change this watcher reports.
type EventKind int

const (
	EventCreate EventKind = iota
	EventWrite
	EventRemove
)

// Event is one reported filesystem change for a path this watcher cares
// about (primary-extension, secondary-extension or marker files).
type Event struct {
	Path string
	Kind EventKind
}

// Watcher wraps an fsnotify.Watcher, filtering to files the workspace
// bootstrapper cares about and translating fsnotify's op bits to Event.
type Watcher struct {
	fsw    *fsnotify.Watcher
	events chan Event
	logger *log.Logger
}

// New creates a Watcher. Call AddRoot for every workspace root to watch.
func New(logger *log.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{fsw: fsw, events: make(chan Event, 64), logger: logger}, nil
}

// AddRoot recursively registers root and every subdirectory for watching.
// fsnotify only watches the directories it's told about, not their
// descendants, so this mirrors the recursive directory walk the
// bootstrapper itself performs.
func (w *Watcher) AddRoot(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

// Events returns the channel of filtered, translated filesystem events.
func (w *Watcher) Events() <-chan Event { return w.events }

// Run drains the underlying fsnotify watcher until it is closed,
// forwarding relevant events (primary-extension, secondary-extension and
// marker files) to Events().
func (w *Watcher) Run() {
	defer close(w.events)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if kind, relevant := translate(ev); relevant {
				w.events <- Event{Path: ev.Name, Kind: kind}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Printf("watcher: %v", err)
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error { return w.fsw.Close() }

func translate(ev fsnotify.Event) (EventKind, bool) {
	relevant := filepath.Ext(ev.Name) == workspace.PrimaryExtension ||
		filepath.Ext(ev.Name) == workspace.SecondaryExtension ||
		filepath.Base(ev.Name) == workspace.MarkerFileName
	if !relevant {
		return 0, false
	}
	switch {
	case ev.Op&fsnotify.Create != 0:
		return EventCreate, true
	case ev.Op&fsnotify.Write != 0:
		return EventWrite, true
	case ev.Op&fsnotify.Remove != 0 || ev.Op&fsnotify.Rename != 0:
		return EventRemove, true
	default:
		return 0, false
	}
}
