// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package oracle

const (
	// DefaultModelName is the model directory looked up under the model base dir.
	DefaultModelName = "clip-vit-base-patch32"

	// DefaultImageSize is the square input side of the vision encoder.
	DefaultImageSize = 224

	// DefaultContextLength is the fixed token length of the text encoder.
	DefaultContextLength = 77

	// DefaultTextCacheSize bounds the number of memoized text embeddings.
	DefaultTextCacheSize = 4096
)

// Tensor names of the exported CLIP encoders.
const (
	DefaultPixelValuesInput   = "pixel_values"
	DefaultImageEmbedsOutput  = "image_embeds"
	DefaultInputIDsInput      = "input_ids"
	DefaultAttentionMaskInput = "attention_mask"
	DefaultTextEmbedsOutput   = "text_embeds"
)

// Config holds configuration for the CLIP engine.
type Config struct {
	// ModelName is informational and used by the locator to build default paths
	ModelName string

	// ImageModelPath is the path to the vision encoder ONNX file
	ImageModelPath string

	// TextModelPath is the path to the text encoder ONNX file
	TextModelPath string

	// TokenizerPath is the path to the tokenizer.json file
	TokenizerPath string

	// SharedLibraryPath is the path to the ONNX runtime shared library
	SharedLibraryPath string

	ImageSize     int
	ContextLength int

	// TextCacheSize is the capacity of the text embedding memo; 0 disables it
	TextCacheSize int

	PixelValuesInput   string
	ImageEmbedsOutput  string
	InputIDsInput      string
	AttentionMaskInput string
	TextEmbedsOutput   string
}

// withDefaults returns cfg with every zero field replaced by its default.
func (cfg Config) withDefaults() Config {
	if cfg.ModelName == "" {
		cfg.ModelName = DefaultModelName
	}
	if cfg.ImageSize <= 0 {
		cfg.ImageSize = DefaultImageSize
	}
	if cfg.ContextLength <= 0 {
		cfg.ContextLength = DefaultContextLength
	}
	if cfg.TextCacheSize < 0 {
		cfg.TextCacheSize = 0
	}
	if cfg.PixelValuesInput == "" {
		cfg.PixelValuesInput = DefaultPixelValuesInput
	}
	if cfg.ImageEmbedsOutput == "" {
		cfg.ImageEmbedsOutput = DefaultImageEmbedsOutput
	}
	if cfg.InputIDsInput == "" {
		cfg.InputIDsInput = DefaultInputIDsInput
	}
	if cfg.AttentionMaskInput == "" {
		cfg.AttentionMaskInput = DefaultAttentionMaskInput
	}
	if cfg.TextEmbedsOutput == "" {
		cfg.TextEmbedsOutput = DefaultTextEmbedsOutput
	}
	return cfg
}
