// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config provides configuration management for the sketchscore server.
// It handles loading and parsing YAML configuration files, applies environment
// overrides, and provides structured access to server, scoring and model settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort             = 8000
	DefaultRequestTimeoutMs = 8000
	DefaultMaxImageBytes    = 10 << 20
	DefaultMaxImageSide     = 800
	DefaultLogsDir          = "logs"
)

// Environment variables that override values from the config file.
const (
	EnvPort          = "SKETCHSCORE_PORT"
	EnvModelDir      = "SKETCHSCORE_MODEL_DIR"
	EnvSharedLibrary = "ONNXRUNTIME_LIB_PATH"
)

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// Host is the network host/interface on which the API server will bind.
	// Default is empty ("") to bind all interfaces.
	Host string `yaml:"host" json:"-"`
	// Port is the network port on which the API server will listen.
	Port int `yaml:"port" json:"port"`

	// Debug enables debug-level logging and gin debug mode.
	Debug bool `yaml:"debug" json:"debug"`

	// LoggingToFile controls whether application logs are written to rotating files or stdout.
	LoggingToFile bool `yaml:"logging-to-file" json:"logging-to-file"`

	// LogsDir is the directory for rotating log files when LoggingToFile is set.
	LogsDir string `yaml:"logs-dir" json:"logs-dir"`

	// RequestTimeoutMs bounds the time spent scoring one request.
	RequestTimeoutMs int `yaml:"request-timeout-ms" json:"request-timeout-ms"`

	// MaxImageBytes rejects decoded images larger than this many bytes; 0 disables the check.
	MaxImageBytes int `yaml:"max-image-bytes" json:"max-image-bytes"`

	// MaxImageSide bounds the decoded image before inference; negative disables bounding.
	MaxImageSide int `yaml:"max-image-side" json:"max-image-side"`

	CORS    CORSConfig    `yaml:"cors" json:"cors"`
	Scoring ScoringConfig `yaml:"scoring" json:"scoring"`
	Oracle  OracleConfig  `yaml:"oracle" json:"oracle"`
}

// CORSConfig controls cross-origin access to the scoring endpoints.
type CORSConfig struct {
	AllowOrigins     []string `yaml:"allow-origins" json:"allow-origins"`
	AllowMethods     []string `yaml:"allow-methods" json:"allow-methods"`
	AllowHeaders     []string `yaml:"allow-headers" json:"allow-headers"`
	AllowCredentials bool     `yaml:"allow-credentials" json:"allow-credentials"`
}

// ScoringConfig groups scoring behavior that may be tuned at runtime.
type ScoringConfig struct {
	Engagement EngagementConfig `yaml:"engagement" json:"engagement"`
}

// EngagementConfig controls the random engagement factor added to the displayed percentage.
type EngagementConfig struct {
	Enabled bool    `yaml:"enabled" json:"enabled"`
	Min     float64 `yaml:"min" json:"min"`
	Max     float64 `yaml:"max" json:"max"`
	// Seed makes the factor reproducible when non-zero.
	Seed uint64 `yaml:"seed" json:"seed"`
}

// OracleConfig locates the CLIP model files and the ONNX runtime.
// Empty paths are derived from ModelDir and ModelName.
type OracleConfig struct {
	ModelDir      string `yaml:"model-dir" json:"model-dir"`
	ModelName     string `yaml:"model-name" json:"model-name"`
	ImageModel    string `yaml:"image-model" json:"image-model"`
	TextModel     string `yaml:"text-model" json:"text-model"`
	Tokenizer     string `yaml:"tokenizer" json:"tokenizer"`
	SharedLibrary string `yaml:"shared-library" json:"shared-library"`
	ImageSize     int    `yaml:"image-size" json:"image-size"`
	ContextLength int    `yaml:"context-length" json:"context-length"`
	TextCacheSize int    `yaml:"text-cache-size" json:"text-cache-size"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults assigns defaults before unmarshal so that absent keys keep them.
func (cfg *Config) setDefaults() {
	cfg.Host = ""
	cfg.Port = DefaultPort
	cfg.LogsDir = DefaultLogsDir
	cfg.RequestTimeoutMs = DefaultRequestTimeoutMs
	cfg.MaxImageBytes = DefaultMaxImageBytes
	cfg.MaxImageSide = DefaultMaxImageSide
	cfg.CORS.AllowOrigins = []string{"*"}
	cfg.CORS.AllowMethods = []string{"GET", "POST"}
	cfg.CORS.AllowHeaders = []string{"*"}
	cfg.CORS.AllowCredentials = true
	cfg.Scoring.Engagement.Enabled = true
	cfg.Scoring.Engagement.Min = -3
	cfg.Scoring.Engagement.Max = 10
	cfg.Oracle.ModelName = "clip-vit-base-patch32"
	cfg.Oracle.ImageSize = 224
	cfg.Oracle.ContextLength = 77
	cfg.Oracle.TextCacheSize = 4096
}

// LoadConfig reads a YAML configuration file from the given path,
// unmarshals it into a Config struct, applies environment variable overrides,
// and returns it.
//
// Parameters:
//   - configFile: The path to the YAML configuration file
//
// Returns:
//   - *Config: The loaded configuration
//   - error: An error if the configuration could not be loaded
func LoadConfig(configFile string) (*Config, error) {
	return LoadConfigOptional(configFile, false)
}

// LoadConfigOptional reads YAML from configFile.
// If optional is true and the file is missing or empty, it returns the defaults.
func LoadConfigOptional(configFile string, optional bool) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		if optional && (os.IsNotExist(err) || errors.Is(err, syscall.EISDIR)) {
			cfg := Default()
			cfg.ApplyEnv()
			cfg.Sanitize()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	cfg.Sanitize()
	return cfg, nil
}

// Parse unmarshals YAML on top of the defaults without applying env overrides.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides config values from the process environment.
func (cfg *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvPort)); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvModelDir)); v != "" {
		cfg.Oracle.ModelDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSharedLibrary)); v != "" && cfg.Oracle.SharedLibrary == "" {
		cfg.Oracle.SharedLibrary = v
	}
}

// Sanitize normalizes values that would otherwise break the server.
func (cfg *Config) Sanitize() {
	cfg.Host = strings.TrimSpace(cfg.Host)
	if cfg.Port <= 0 || cfg.Port > 65535 {
		cfg.Port = DefaultPort
	}
	if strings.TrimSpace(cfg.LogsDir) == "" {
		cfg.LogsDir = DefaultLogsDir
	}
	if cfg.RequestTimeoutMs <= 0 {
		cfg.RequestTimeoutMs = DefaultRequestTimeoutMs
	}
	if cfg.MaxImageBytes < 0 {
		cfg.MaxImageBytes = 0
	}
	if cfg.MaxImageSide == 0 {
		cfg.MaxImageSide = DefaultMaxImageSide
	}

	cfg.CORS.AllowOrigins = normalizeList(cfg.CORS.AllowOrigins)
	cfg.CORS.AllowMethods = normalizeList(cfg.CORS.AllowMethods)
	for i, m := range cfg.CORS.AllowMethods {
		cfg.CORS.AllowMethods[i] = strings.ToUpper(m)
	}
	cfg.CORS.AllowHeaders = normalizeList(cfg.CORS.AllowHeaders)

	cfg.SanitizeEngagement()

	if cfg.Oracle.ImageSize <= 0 {
		cfg.Oracle.ImageSize = 224
	}
	if cfg.Oracle.ContextLength < 2 {
		cfg.Oracle.ContextLength = 77
	}
	if cfg.Oracle.TextCacheSize < 0 {
		cfg.Oracle.TextCacheSize = 0
	}
}

// SanitizeEngagement orders the engagement bounds so Min <= Max.
func (cfg *Config) SanitizeEngagement() {
	e := &cfg.Scoring.Engagement
	if e.Min > e.Max {
		e.Min, e.Max = e.Max, e.Min
	}
}

// RequestTimeout returns the per-request scoring timeout.
func (cfg *Config) RequestTimeout() time.Duration {
	return time.Duration(cfg.RequestTimeoutMs) * time.Millisecond
}

// Addr returns the listen address in host:port form.
func (cfg *Config) Addr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// normalizeList trims entries and drops empty ones and duplicates, keeping order.
func normalizeList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
