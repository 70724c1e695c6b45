// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traylinx/sketchscore/internal/config"
)

func TestNew_Validation(t *testing.T) {
	_, err := New("", func(*config.Config) {})
	assert.Error(t, err)

	_, err = New("config.yaml", nil)
	assert.Error(t, err)
}

func TestConfigWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: false\n"), 0o644))

	reloaded := make(chan *config.Config, 4)
	w, err := New(path, func(cfg *config.Config) { reloaded <- cfg })
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond
	require.NoError(t, w.Start())
	defer w.Stop()

	content := "debug: true\nscoring:\n  engagement:\n    enabled: false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	select {
	case cfg := <-reloaded:
		assert.True(t, cfg.Debug)
		assert.False(t, cfg.Scoring.Engagement.Enabled)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

func TestConfigWatcher_IgnoresInvalidAndUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 8000\n"), 0o644))

	calls := 0
	w, err := New(path, func(*config.Config) { calls++ })
	require.NoError(t, err)

	// Same content as at construction time.
	w.reload()
	assert.Equal(t, 0, calls)

	require.NoError(t, os.WriteFile(path, []byte("port: [broken\n"), 0o644))
	w.reload()
	assert.Equal(t, 0, calls)

	require.NoError(t, os.WriteFile(path, []byte("port: 9000\n"), 0o644))
	w.reload()
	assert.Equal(t, 1, calls)
}

func TestConfigWatcher_StopIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	w, err := New(path, func(*config.Config) {})
	require.NoError(t, err)
	require.NoError(t, w.Start())

	w.Stop()
	w.Stop()
}
