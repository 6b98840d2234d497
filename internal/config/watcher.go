package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc receives a freshly loaded and validated configuration.
type ReloadFunc func(ctx context.Context, cfg *Config) error

// Watcher monitors a configuration file and invokes a callback with the new
// configuration after changes settle.
type Watcher struct {
	configPath   string
	onReload     ReloadFunc
	watcher      *fsnotify.Watcher
	mu           sync.Mutex
	stopChan     chan struct{}
	reloadChan   chan struct{}
	debounceTime time.Duration
	stopped      bool
}

// NewWatcher creates a watcher for configPath. Reloads are debounced by debounce
// (2s when zero).
func NewWatcher(configPath string, debounce time.Duration, onReload ReloadFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Resolve absolute path for consistent watching
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	return &Watcher{
		configPath:   absPath,
		onReload:     onReload,
		watcher:      fw,
		stopChan:     make(chan struct{}),
		reloadChan:   make(chan struct{}, 1),
		debounceTime: debounce,
	}, nil
}

// Start begins monitoring the configuration file.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Editors replace files on save, so watch the directory rather than the file.
	configDir := filepath.Dir(w.configPath)
	if err := w.watcher.Add(configDir); err != nil {
		return fmt.Errorf("failed to watch config directory %s: %w", configDir, err)
	}

	slog.Info("Starting configuration watcher", "config_path", w.configPath)

	go w.watchLoop(ctx)
	go w.reloadLoop(ctx)

	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)
	return w.watcher.Close()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	configFile := filepath.Base(w.configPath)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}
			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				slog.Debug("Config file change detected", "file", event.Name, "op", event.Op.String())
				w.triggerReload()
			case event.Op&fsnotify.Remove != 0:
				slog.Warn("Config file removed", "file", event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Config watcher error", "error", err)
		}
	}
}

func (w *Watcher) reloadLoop(ctx context.Context) {
	var reloadTimer *time.Timer
	stopTimer := func() {
		if reloadTimer != nil {
			reloadTimer.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return
		case <-w.stopChan:
			stopTimer()
			return
		case <-w.reloadChan:
			stopTimer()
			reloadTimer = time.AfterFunc(w.debounceTime, func() {
				if err := w.performReload(ctx); err != nil {
					slog.Error("Failed to reload configuration", "error", err)
				}
			})
		}
	}
}

func (w *Watcher) triggerReload() {
	select {
	case w.reloadChan <- struct{}{}:
	default:
		// Reload already pending
	}
}

func (w *Watcher) performReload(ctx context.Context) error {
	slog.Info("Reloading configuration", "config_path", w.configPath)

	cfg, err := Load(w.configPath)
	if err != nil {
		return fmt.Errorf("failed to load new configuration: %w", err)
	}
	if w.onReload == nil {
		return nil
	}
	if err := w.onReload(ctx, cfg); err != nil {
		return fmt.Errorf("failed to apply new configuration: %w", err)
	}

	slog.Info("Configuration reloaded successfully")
	return nil
}
