package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long the watcher waits for writes to an input to stop before
// regenerating; editors often save in several steps.
const settle = 200 * time.Millisecond

// watch generates the scripts of the input and regenerates them whenever a
// fixture or snapshot of the input changes, until ctx is done. Failed runs
// are logged and do not stop the watch.
func (a *app) watch(ctx context.Context) error {
	input := a.cfg.Source.Input
	if input == "" {
		return errors.New("watch needs an input fixture or directory")
	}
	info, err := os.Stat(input)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir, match := input, func(name string) bool { return isInput(name) }
	if !info.IsDir() {
		want := filepath.Clean(input)
		dir, match = filepath.Dir(input), func(name string) bool { return filepath.Clean(name) == want }
	}
	if err := w.Add(dir); err != nil {
		return err
	}
	a.log.Info().Str("input", input).Msg("watching input")

	a.regenerate(ctx)

	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) || !match(ev.Name) || a.wrote(ev.Name) {
				continue
			}
			a.log.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("input changed")
			timer.Reset(settle)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.log.Warn().Err(err).Msg("watch error")
		case <-timer.C:
			a.regenerate(ctx)
		}
	}
}

func (a *app) regenerate(ctx context.Context) {
	if _, err := a.run(ctx); err != nil {
		a.log.Error().Err(err).Msg("generating script")
	}
}
