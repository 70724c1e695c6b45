// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"path/filepath"
	"testing"

	"github.com/traylinx/sketchscore/internal/config"
	"github.com/traylinx/sketchscore/internal/oracle"
)

func TestOracleConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default().Oracle
	cfg.ModelDir = dir
	cfg.Tokenizer = "/etc/sketchscore/tokenizer.json"
	cfg.SharedLibrary = "/opt/onnx/libonnxruntime.so"

	got := oracleConfig(cfg)

	if got.ImageModelPath != filepath.Join(dir, cfg.ModelName, "vision_model.onnx") {
		t.Errorf("ImageModelPath = %s", got.ImageModelPath)
	}
	if got.TextModelPath != filepath.Join(dir, cfg.ModelName, "text_model.onnx") {
		t.Errorf("TextModelPath = %s", got.TextModelPath)
	}
	if got.TokenizerPath != "/etc/sketchscore/tokenizer.json" {
		t.Errorf("TokenizerPath = %s", got.TokenizerPath)
	}
	if got.SharedLibraryPath != "/opt/onnx/libonnxruntime.so" {
		t.Errorf("SharedLibraryPath = %s", got.SharedLibraryPath)
	}
	if got.ContextLength != oracle.DefaultContextLength || got.ImageSize != oracle.DefaultImageSize {
		t.Errorf("unexpected sizes: %+v", got)
	}
}
