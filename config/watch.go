package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/agentoffice/logging"
)

// PersonaUpdater replaces the persona of a running agent.
type PersonaUpdater interface {
	UpdatePersona(name, text string) error
}

// ApplyPersonas pushes the personas of the enabled agents in r to u. Agents
// that are not running are skipped; the first other error is returned after
// all agents were tried.
func ApplyPersonas(u PersonaUpdater, r *Roster, isRunning func(name string) bool) (int, error) {
	var (
		applied  int
		firstErr error
	)

	for _, spec := range r.Enabled() {
		if strings.TrimSpace(spec.Persona) == "" {
			continue
		}

		if isRunning != nil && !isRunning(spec.Name) {
			continue
		}

		if err := u.UpdatePersona(spec.Name, spec.Persona); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("update %s: %w", spec.Name, err)
			}
			continue
		}

		applied++
	}

	return applied, firstErr
}

// WatchOptions configures WatchRoster.
type WatchOptions struct {
	// Debounce coalesces bursts of writes (editors often write twice).
	Debounce time.Duration
	Logger   logging.Logger
}

// WatchRoster watches the roster file at path and calls apply with the
// parsed roster after each change. Invalid rosters are logged and skipped.
// The directory is watched so editors that replace the file on save are
// handled. Watching stops when ctx is done.
func WatchRoster(ctx context.Context, path string, apply func(*Roster), optFns ...func(o *WatchOptions)) error {
	opts := WatchOptions{
		Debounce: 500 * time.Millisecond,
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if path == "" {
		return errors.New("watch roster: no roster file configured")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch roster: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch roster: %w", err)
	}

	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch roster: %w", err)
	}

	opts.Logger.Info("config.roster.watch", "path", abs, "debounce", opts.Debounce.String())

	go func() {
		defer w.Close()

		var (
			mu    sync.Mutex
			timer *time.Timer
		)

		reload := func() {
			r, err := LoadRoster(abs)
			if err != nil {
				opts.Logger.Warn("config.roster.reload_failed", "path", abs, "error", err)
				return
			}

			opts.Logger.Info("config.roster.reloaded", "path", abs, "agents", len(r.Enabled()))
			apply(r)
		}

		for {
			select {
			case <-ctx.Done():
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				mu.Unlock()
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}

				if filepath.Clean(ev.Name) != abs {
					continue
				}

				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}

				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(opts.Debounce, reload)
				mu.Unlock()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				opts.Logger.Warn("config.roster.watch_error", "error", err)
			}
		}
	}()

	return nil
}
