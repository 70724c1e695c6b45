// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package watcher reloads the configuration file when it changes on disk.
package watcher

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/traylinx/sketchscore/internal/config"
)

// DefaultDebounce is how long the watcher waits after the last event before reloading.
const DefaultDebounce = 100 * time.Millisecond

// ReloadFunc receives every successfully parsed configuration.
type ReloadFunc func(cfg *config.Config)

// ConfigWatcher watches a single config file and calls a ReloadFunc when its
// content changes. The parent directory is watched so editor rename-and-replace
// saves are seen.
type ConfigWatcher struct {
	path     string
	onReload ReloadFunc
	debounce time.Duration

	watcher  *fsnotify.Watcher
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	lastHash [sha256.Size]byte
}

// New creates a watcher for the config file at path. It does not start watching.
func New(path string, onReload ReloadFunc) (*ConfigWatcher, error) {
	if path == "" {
		return nil, errors.New("watcher: config path is required")
	}
	if onReload == nil {
		return nil, errors.New("watcher: reload callback is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watcher: resolve %s: %w", path, err)
	}
	w := &ConfigWatcher{
		path:     abs,
		onReload: onReload,
		debounce: DefaultDebounce,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if data, err := os.ReadFile(abs); err == nil {
		w.lastHash = sha256.Sum256(data)
	}
	return w, nil
}

// Start begins watching in a background goroutine.
func (w *ConfigWatcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return err
	}
	w.watcher = fw

	go w.loop()
	log.Infof("watching config file %s", w.path)
	return nil
}

func (w *ConfigWatcher) loop() {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("config watcher error: %v", err)
		case <-w.stop:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// reload parses the file and calls the callback when the content changed.
// Invalid files are logged and the previous configuration stays in effect.
func (w *ConfigWatcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		log.Warnf("config file %s unreadable, keeping current settings: %v", w.path, err)
		return
	}
	sum := sha256.Sum256(data)

	w.mu.Lock()
	unchanged := sum == w.lastHash
	w.mu.Unlock()
	if unchanged {
		log.Debugf("config file %s unchanged, skipping reload", w.path)
		return
	}

	cfg, err := config.Parse(data)
	if err != nil {
		log.Errorf("failed to reload config, keeping current settings: %v", err)
		return
	}
	cfg.ApplyEnv()
	cfg.Sanitize()

	w.mu.Lock()
	w.lastHash = sum
	w.mu.Unlock()

	log.Infof("config file %s changed, reloading", w.path)
	w.onReload(cfg)
}

// Stop stops the watcher and waits for the background goroutine to exit.
func (w *ConfigWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		if w.watcher != nil {
			<-w.done
			w.watcher.Close()
		}
	})
}
