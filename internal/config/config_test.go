// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Host != "" {
		t.Errorf("Host should be empty by default (bind all), got: %s", cfg.Host)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.RequestTimeout() != 8*time.Second {
		t.Errorf("RequestTimeout = %s, want 8s", cfg.RequestTimeout())
	}
	if cfg.MaxImageSide != 800 {
		t.Errorf("MaxImageSide = %d, want 800", cfg.MaxImageSide)
	}
	if !cfg.Scoring.Engagement.Enabled || cfg.Scoring.Engagement.Min != -3 || cfg.Scoring.Engagement.Max != 10 {
		t.Errorf("unexpected engagement defaults: %+v", cfg.Scoring.Engagement)
	}
	if len(cfg.CORS.AllowOrigins) != 1 || cfg.CORS.AllowOrigins[0] != "*" || !cfg.CORS.AllowCredentials {
		t.Errorf("unexpected CORS defaults: %+v", cfg.CORS)
	}
	if got := cfg.CORS.AllowMethods; len(got) != 2 || got[0] != "GET" || got[1] != "POST" {
		t.Errorf("AllowMethods = %v, want [GET POST]", got)
	}
	if cfg.Oracle.ContextLength != 77 || cfg.Oracle.ImageSize != 224 {
		t.Errorf("unexpected oracle defaults: %+v", cfg.Oracle)
	}
}

func TestLoadConfig_Values(t *testing.T) {
	path := writeConfig(t, `
host: 127.0.0.1
port: 9100
debug: true
request-timeout-ms: 2500
cors:
  allow-origins: ["https://game.example", " ", "https://game.example"]
  allow-methods: [get, post]
scoring:
  engagement:
    enabled: false
    min: 5
    max: -1
    seed: 42
oracle:
  model-dir: /models
  text-cache-size: 0
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Addr() != "127.0.0.1:9100" {
		t.Errorf("Addr = %s", cfg.Addr())
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
	if cfg.RequestTimeout() != 2500*time.Millisecond {
		t.Errorf("RequestTimeout = %s", cfg.RequestTimeout())
	}
	if got := cfg.CORS.AllowOrigins; len(got) != 1 || got[0] != "https://game.example" {
		t.Errorf("AllowOrigins = %v", got)
	}
	if got := cfg.CORS.AllowMethods; len(got) != 2 || got[0] != "GET" || got[1] != "POST" {
		t.Errorf("AllowMethods = %v", got)
	}

	e := cfg.Scoring.Engagement
	if e.Enabled || e.Min != -1 || e.Max != 5 || e.Seed != 42 {
		t.Errorf("engagement not sanitized: %+v", e)
	}
	if cfg.Oracle.ModelDir != "/models" || cfg.Oracle.TextCacheSize != 0 {
		t.Errorf("unexpected oracle config: %+v", cfg.Oracle)
	}
	// Absent keys keep defaults.
	if cfg.Oracle.ModelName != "clip-vit-base-patch32" {
		t.Errorf("ModelName = %s", cfg.Oracle.ModelName)
	}
}

func TestLoadConfig_Sanitize(t *testing.T) {
	path := writeConfig(t, `
port: 70000
request-timeout-ms: -5
max-image-bytes: -1
oracle:
  image-size: 0
  context-length: 1
  text-cache-size: -3
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want default", cfg.Port)
	}
	if cfg.RequestTimeoutMs != DefaultRequestTimeoutMs {
		t.Errorf("RequestTimeoutMs = %d, want default", cfg.RequestTimeoutMs)
	}
	if cfg.MaxImageBytes != 0 {
		t.Errorf("MaxImageBytes = %d, want 0", cfg.MaxImageBytes)
	}
	if cfg.Oracle.ImageSize != 224 || cfg.Oracle.ContextLength != 77 || cfg.Oracle.TextCacheSize != 0 {
		t.Errorf("oracle not sanitized: %+v", cfg.Oracle)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "port: [not, a, number]")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected read error for missing file")
	}
}

func TestLoadConfigOptional_Missing(t *testing.T) {
	cfg, err := LoadConfigOptional(filepath.Join(t.TempDir(), "missing.yaml"), true)
	if err != nil {
		t.Fatalf("optional load failed: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want default", cfg.Port)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvPort, "9200")
	t.Setenv(EnvModelDir, "/srv/models")
	t.Setenv(EnvSharedLibrary, "/opt/lib/libonnxruntime.so")

	cfg, err := LoadConfig(writeConfig(t, "port: 8000\n"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Port != 9200 {
		t.Errorf("Port = %d, want 9200 from env", cfg.Port)
	}
	if cfg.Oracle.ModelDir != "/srv/models" {
		t.Errorf("ModelDir = %s", cfg.Oracle.ModelDir)
	}
	if cfg.Oracle.SharedLibrary != "/opt/lib/libonnxruntime.so" {
		t.Errorf("SharedLibrary = %s", cfg.Oracle.SharedLibrary)
	}
}

func TestApplyEnv_InvalidPortIgnored(t *testing.T) {
	t.Setenv(EnvPort, "eighty")

	cfg, err := LoadConfig(writeConfig(t, "port: 8123\n"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Port != 8123 {
		t.Errorf("Port = %d, want 8123", cfg.Port)
	}
}
