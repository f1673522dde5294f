package aadconfig

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces bursts of filesystem events (editors often
// write-then-rename) into a single reload signal.
const debounceWindow = 250 * time.Millisecond

// Watcher watches config.toml and style.toml for changes and emits their
// paths on Changed so a long-running process can reload without a restart.
type Watcher struct {
	dir     string
	logger  *slog.Logger
	changed chan string
}

// NewWatcher returns a Watcher over the .aad directory at dir (the
// directory containing config.toml and style.toml, not the files
// themselves).
func NewWatcher(dir string, logger *slog.Logger) *Watcher {
	return &Watcher{
		dir:     dir,
		logger:  logger,
		changed: make(chan string, 4),
	}
}

// Changed returns the channel on which reloaded file paths are delivered.
func (w *Watcher) Changed() <-chan string {
	return w.changed
}

// Start watches w.dir until ctx is canceled, debouncing bursts of events
// per file and filtering to config.toml and style.toml. It blocks until
// the watch loop exits and returns any error from setting up the watch.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return err
	}

	go w.loop(ctx, fsw)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer fsw.Close()

	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	fire := func(name string) {
		select {
		case w.changed <- name:
		default:
			if w.logger != nil {
				w.logger.Warn("config watcher: dropped reload signal, channel full", "file", name)
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !isRelevant(event) {
				continue
			}
			name := filepath.Base(event.Name)
			if t, exists := timers[name]; exists {
				t.Stop()
			}
			timers[name] = time.AfterFunc(debounceWindow, func() { fire(name) })
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("config watcher: fsnotify error", "error", err)
			}
		}
	}
}

func isRelevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	return base == "config.toml" || base == "style.toml"
}
