// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package oracle

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
)

// CLIP scores images against texts with the two CLIP encoders run through
// the ONNX runtime. Both embeddings are L2-normalized before the cosine is taken.
// Inference is read-only and safe for concurrent use.
type CLIP struct {
	cfg Config

	// imageSession runs the vision encoder
	imageSession *ort.DynamicAdvancedSession

	// textSession runs the text encoder
	textSession *ort.DynamicAdvancedSession

	tokenizer *Tokenizer
	cache     *TextCache

	// enabled indicates whether the engine is ready
	enabled bool

	// mu protects the sessions against Shutdown during inference
	mu sync.RWMutex
}

// NewCLIP creates a new CLIP engine with the given configuration.
// The engine is not initialized until Initialize() is called.
//
// Parameters:
//   - cfg: Configuration for the engine
//
// Returns:
//   - *CLIP: A new engine instance
//   - error: Any error encountered during creation
func NewCLIP(cfg Config) (*CLIP, error) {
	if cfg.ImageModelPath == "" {
		return nil, fmt.Errorf("image model path is required")
	}
	if cfg.TextModelPath == "" {
		return nil, fmt.Errorf("text model path is required")
	}
	if cfg.TokenizerPath == "" {
		return nil, fmt.Errorf("tokenizer path is required")
	}
	cfg = cfg.withDefaults()
	return &CLIP{
		cfg:   cfg,
		cache: NewTextCache(cfg.TextCacheSize),
	}, nil
}

// Initialize loads both encoders and the tokenizer.
// This must be called before using Similarity().
//
// Returns:
//   - error: Any error encountered during initialization
func (c *CLIP) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, path := range []string{c.cfg.ImageModelPath, c.cfg.TextModelPath, c.cfg.TokenizerPath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("model file not found: %s", path)
		}
	}

	if !ort.IsInitialized() {
		if c.cfg.SharedLibraryPath != "" {
			ort.SetSharedLibraryPath(c.cfg.SharedLibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	imageSession, err := ort.NewDynamicAdvancedSession(
		c.cfg.ImageModelPath,
		[]string{c.cfg.PixelValuesInput},
		[]string{c.cfg.ImageEmbedsOutput},
		options,
	)
	if err != nil {
		return fmt.Errorf("failed to load vision model: %w", err)
	}

	textSession, err := ort.NewDynamicAdvancedSession(
		c.cfg.TextModelPath,
		[]string{c.cfg.InputIDsInput, c.cfg.AttentionMaskInput},
		[]string{c.cfg.TextEmbedsOutput},
		options,
	)
	if err != nil {
		imageSession.Destroy()
		return fmt.Errorf("failed to load text model: %w", err)
	}

	tokenizer, err := NewTokenizer(c.cfg.TokenizerPath, c.cfg.ContextLength)
	if err != nil {
		imageSession.Destroy()
		textSession.Destroy()
		return err
	}

	c.imageSession = imageSession
	c.textSession = textSession
	c.tokenizer = tokenizer
	c.enabled = true
	log.Infof("CLIP engine initialized with models: %s, %s",
		filepath.Base(c.cfg.ImageModelPath), filepath.Base(c.cfg.TextModelPath))

	return nil
}

// IsEnabled returns whether the engine is ready for inference.
func (c *CLIP) IsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// CacheMetrics returns the text embedding cache statistics.
func (c *CLIP) CacheMetrics() CacheMetrics {
	return c.cache.Metrics()
}

// Similarity returns the cosine similarity of img to each text, in text order.
func (c *CLIP) Similarity(ctx context.Context, img image.Image, texts []string) ([]float64, error) {
	if img == nil {
		return nil, fmt.Errorf("image is required")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.enabled {
		return nil, ErrUnavailable
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	imageEmbedding, err := c.embedImage(img)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	textEmbeddings, err := c.embedTexts(texts)
	if err != nil {
		return nil, err
	}

	sims := make([]float64, len(texts))
	for i, emb := range textEmbeddings {
		sims[i] = CosineSimilarity(imageEmbedding, emb)
	}
	return sims, nil
}

func (c *CLIP) embedImage(img image.Image) ([]float32, error) {
	size := int64(c.cfg.ImageSize)
	pixels := Preprocess(img, c.cfg.ImageSize)

	input, err := ort.NewTensor(ort.NewShape(1, 3, size, size), pixels)
	if err != nil {
		return nil, fmt.Errorf("failed to create pixel tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.ArbitraryTensor{nil}
	if err := c.imageSession.Run([]ort.ArbitraryTensor{input}, outputs); err != nil {
		return nil, fmt.Errorf("vision inference failed: %w", err)
	}
	defer outputs[0].Destroy()

	rows, err := tensorRows(outputs[0], 1)
	if err != nil {
		return nil, err
	}
	return normalize(rows[0]), nil
}

// embedTexts serves cached embeddings and runs the encoder once for the misses.
func (c *CLIP) embedTexts(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if emb, ok := c.cache.Get(text); ok {
			out[i] = emb
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	batch, err := c.tokenizer.Encode(missing)
	if err != nil {
		return nil, err
	}

	shape := ort.NewShape(int64(batch.Batch), int64(batch.SeqLen))
	ids, err := ort.NewTensor(shape, batch.InputIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	defer ids.Destroy()

	mask, err := ort.NewTensor(shape, batch.AttentionMask)
	if err != nil {
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	defer mask.Destroy()

	outputs := []ort.ArbitraryTensor{nil}
	if err := c.textSession.Run([]ort.ArbitraryTensor{ids, mask}, outputs); err != nil {
		return nil, fmt.Errorf("text inference failed: %w", err)
	}
	defer outputs[0].Destroy()

	rows, err := tensorRows(outputs[0], len(missing))
	if err != nil {
		return nil, err
	}
	for j, row := range rows {
		emb := normalize(row)
		out[missingIdx[j]] = emb
		c.cache.Put(missing[j], emb)
	}
	return out, nil
}

// tensorRows splits a [n, dim] float32 output into n copied rows.
func tensorRows(t ort.ArbitraryTensor, n int) ([][]float32, error) {
	ft, ok := t.(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type %T", t)
	}
	data := ft.GetData()
	if n == 0 || len(data)%n != 0 {
		return nil, fmt.Errorf("output of %d values does not split into %d rows", len(data), n)
	}
	dim := len(data) / n
	rows := make([][]float32, n)
	for i := range rows {
		rows[i] = append([]float32(nil), data[i*dim:(i+1)*dim]...)
	}
	return rows, nil
}

// Shutdown releases both sessions. Similarity returns ErrUnavailable afterwards.
func (c *CLIP) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return nil
	}
	if c.imageSession != nil {
		c.imageSession.Destroy()
		c.imageSession = nil
	}
	if c.textSession != nil {
		c.textSession.Destroy()
		c.textSession = nil
	}
	c.cache.Clear()

	c.enabled = false
	log.Info("CLIP engine shut down")
	return nil
}
