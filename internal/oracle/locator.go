// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package oracle

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	imageModelFile = "vision_model.onnx"
	textModelFile  = "text_model.onnx"
	tokenizerFile  = "tokenizer.json"
)

// ModelLocator helps find CLIP model files and ONNX runtime libraries.
type ModelLocator struct {
	// BaseDir is the base directory for model storage
	BaseDir string
}

// NewModelLocator creates a locator rooted at baseDir, or at ~/.sketchscore/models
// when baseDir is empty.
func NewModelLocator(baseDir string) *ModelLocator {
	if baseDir == "" {
		homeDir, _ := os.UserHomeDir()
		baseDir = filepath.Join(homeDir, ".sketchscore", "models")
	}
	return &ModelLocator{BaseDir: baseDir}
}

// GetImageModelPath returns the path to the CLIP vision encoder.
func (l *ModelLocator) GetImageModelPath(modelName string) string {
	return filepath.Join(l.BaseDir, modelName, imageModelFile)
}

// GetTextModelPath returns the path to the CLIP text encoder.
func (l *ModelLocator) GetTextModelPath(modelName string) string {
	return filepath.Join(l.BaseDir, modelName, textModelFile)
}

// GetTokenizerPath returns the path to the tokenizer definition.
func (l *ModelLocator) GetTokenizerPath(modelName string) string {
	return filepath.Join(l.BaseDir, modelName, tokenizerFile)
}

// GetSharedLibraryPath returns the path to the ONNX runtime shared library.
// ONNXRUNTIME_LIB_PATH wins over the common installation locations of the OS.
// It returns an empty string when nothing is found.
func (l *ModelLocator) GetSharedLibraryPath() string {
	if envPath := os.Getenv("ONNXRUNTIME_LIB_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	var paths []string
	switch runtime.GOOS {
	case "darwin":
		paths = []string{
			"/usr/local/lib/libonnxruntime.dylib",
			"/opt/homebrew/lib/libonnxruntime.dylib",
			filepath.Join(l.BaseDir, "..", "lib", "libonnxruntime.dylib"),
		}
	case "linux":
		paths = []string{
			"/usr/local/lib/libonnxruntime.so",
			"/usr/lib/libonnxruntime.so",
			"/usr/lib/x86_64-linux-gnu/libonnxruntime.so",
			filepath.Join(l.BaseDir, "..", "lib", "libonnxruntime.so"),
		}
	case "windows":
		paths = []string{
			"C:\\Program Files\\onnxruntime\\lib\\onnxruntime.dll",
			filepath.Join(l.BaseDir, "..", "lib", "onnxruntime.dll"),
		}
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ModelExists reports whether both encoders and the tokenizer are present.
func (l *ModelLocator) ModelExists(modelName string) bool {
	for _, path := range []string{
		l.GetImageModelPath(modelName),
		l.GetTextModelPath(modelName),
		l.GetTokenizerPath(modelName),
	} {
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return true
}

// Resolve fills the model, tokenizer and library paths of cfg that are still empty.
func (l *ModelLocator) Resolve(cfg Config) Config {
	if cfg.ModelName == "" {
		cfg.ModelName = DefaultModelName
	}
	if cfg.ImageModelPath == "" {
		cfg.ImageModelPath = l.GetImageModelPath(cfg.ModelName)
	}
	if cfg.TextModelPath == "" {
		cfg.TextModelPath = l.GetTextModelPath(cfg.ModelName)
	}
	if cfg.TokenizerPath == "" {
		cfg.TokenizerPath = l.GetTokenizerPath(cfg.ModelName)
	}
	if cfg.SharedLibraryPath == "" {
		cfg.SharedLibraryPath = l.GetSharedLibraryPath()
	}
	return cfg
}
