package lexicon

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
)

// Watcher reloads a lexicon whenever its file changes on disk. A file that
// fails to parse is logged and the previous rules stay active.
type Watcher struct {
	lex     *Lexicon
	path    string
	watcher *fsnotify.Watcher

	// OnReload, if set, is called after each successful reload.
	OnReload func(rules int)
}

// NewWatcher watches path and keeps lex in sync with it.
func NewWatcher(lex *Lexicon, path string) (*Watcher, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("unable to expand lexicon path: %w", err)
	}
	expanded, err = filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating fsnotify watcher: %w", err)
	}

	// Watch the directory: editors often replace the file instead of writing it.
	dir := filepath.Dir(expanded)
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("error adding dir to fsnotify watcher: %w", err)
	}
	log.Info("fsnotify watching dir", "dir", dir)

	return &Watcher{lex: lex, path: expanded, watcher: fw}, nil
}

// Name identifies the watcher in logs.
func (w *Watcher) Name() string { return "lexicon" }

// Run processes file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Debug("fsnotify error", "file", w.path, "error", err)
		}
	}
}

// Close stops watching. Run returns once the event channel drains.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) reload() {
	rules, err := Load(w.path)
	if err != nil {
		log.Warn("Keeping previous lexicon", "file", w.path, "error", err)
		return
	}

	w.lex.Replace(rules)
	log.Info("Lexicon reloaded", "file", w.path, "rules", len(rules))
	if w.OnReload != nil {
		w.OnReload(len(rules))
	}
}
