// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package oracle

import (
	"fmt"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// TokenizedBatch holds a batch of texts encoded to a fixed sequence length.
// InputIDs and AttentionMask are row-major with Batch rows of SeqLen columns.
type TokenizedBatch struct {
	InputIDs      []int64
	AttentionMask []int64
	Batch         int
	SeqLen        int
}

// Tokenizer wraps a HuggingFace tokenizer.json for the CLIP text encoder.
type Tokenizer struct {
	tk            *tokenizer.Tokenizer
	contextLength int
}

// NewTokenizer loads the tokenizer definition at path.
func NewTokenizer(path string, contextLength int) (*Tokenizer, error) {
	if contextLength < 2 {
		return nil, fmt.Errorf("context length must be at least 2, got %d", contextLength)
	}
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer %s: %w", path, err)
	}
	return &Tokenizer{tk: tk, contextLength: contextLength}, nil
}

// Encode tokenizes texts with special tokens and pads each row with zeros to the
// context length. Rows that are too long keep their final end-of-text token.
func (t *Tokenizer) Encode(texts []string) (*TokenizedBatch, error) {
	seqLen := t.contextLength
	batch := &TokenizedBatch{
		InputIDs:      make([]int64, len(texts)*seqLen),
		AttentionMask: make([]int64, len(texts)*seqLen),
		Batch:         len(texts),
		SeqLen:        seqLen,
	}

	for row, text := range texts {
		enc, err := t.tk.EncodeSingle(text, true)
		if err != nil {
			return nil, fmt.Errorf("failed to tokenize %q: %w", text, err)
		}
		ids := fitContext(enc.Ids, seqLen)
		offset := row * seqLen
		for i, id := range ids {
			batch.InputIDs[offset+i] = int64(id)
			batch.AttentionMask[offset+i] = 1
		}
	}
	return batch, nil
}

// fitContext truncates ids to n entries, keeping the last one in place.
func fitContext(ids []int, n int) []int {
	if len(ids) <= n {
		return ids
	}
	out := make([]int, n)
	copy(out, ids[:n-1])
	out[n-1] = ids[len(ids)-1]
	return out
}
