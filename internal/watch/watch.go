// Package watch republishes whenever notes in the source directory change.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before a
// republish starts.
const DefaultDebounce = 500 * time.Millisecond

// Func is called for every debounced batch of note changes.
type Func func(ctx context.Context) error

// Watch starts an fsnotify watcher on dir and calls fn once events for files
// ending in ext have settled for debounce. It runs until ctx is cancelled.
//
// fn runs in the watcher goroutine, so calls never overlap. A failing call is
// logged and the watcher keeps going: the next change triggers a full
// republish again.
func Watch(ctx context.Context, dir, ext string, debounce time.Duration, logger *slog.Logger, fn Func) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Only the directory itself: notes in subdirectories are never published.
	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", dir))

	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			if err := fn(ctx); err != nil {
				logger.Error("watcher: publish failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, ext) {
				continue
			}
			logger.Debug("watcher: change",
				slog.String("path", filepath.Base(ev.Name)),
				slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// relevant reports whether ev can change the published set.
func relevant(ev fsnotify.Event, ext string) bool {
	if !strings.HasSuffix(ev.Name, ext) {
		return false
	}
	return ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
