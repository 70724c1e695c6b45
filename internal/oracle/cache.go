// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package oracle

import (
	"container/list"
	"sync"
)

// cacheEntry is one memoized text embedding.
type cacheEntry struct {
	// text is the exact template text that was embedded
	text string

	// embedding is the unit-normalized text embedding
	embedding []float32
}

// CacheMetrics tracks text cache performance statistics.
type CacheMetrics struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

// TextCache memoizes text embeddings keyed by exact text with LRU eviction.
// Templates repeat across requests for the same subject, so hits skip the text
// encoder entirely. A cached vector is identical to a freshly computed one.
type TextCache struct {
	// maxSize is the maximum number of entries
	maxSize int

	// entries maps text to its LRU list element
	entries map[string]*list.Element

	// lruList maintains LRU order for eviction
	lruList *list.List

	// mu protects concurrent access
	mu sync.Mutex

	metrics CacheMetrics
}

// NewTextCache creates a cache holding up to maxSize embeddings.
// It returns nil when maxSize is not positive; a nil cache never hits.
func NewTextCache(maxSize int) *TextCache {
	if maxSize <= 0 {
		return nil
	}
	return &TextCache{
		maxSize: maxSize,
		entries: make(map[string]*list.Element),
		lruList: list.New(),
	}
}

// Get returns the embedding stored for text.
func (c *TextCache) Get(text string) ([]float32, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[text]
	if !ok {
		c.metrics.Misses++
		return nil, false
	}
	c.metrics.Hits++
	c.lruList.MoveToFront(elem)
	return elem.Value.(*cacheEntry).embedding, true
}

// Put stores the embedding for text, evicting the least recently used entry
// when the cache is full.
func (c *TextCache) Put(text string, embedding []float32) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[text]; ok {
		elem.Value.(*cacheEntry).embedding = embedding
		c.lruList.MoveToFront(elem)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictLRU()
	}
	c.entries[text] = c.lruList.PushFront(&cacheEntry{text: text, embedding: embedding})
}

// evictLRU removes the least recently used entry. Caller must hold the lock.
func (c *TextCache) evictLRU() {
	elem := c.lruList.Back()
	if elem == nil {
		return
	}
	c.lruList.Remove(elem)
	delete(c.entries, elem.Value.(*cacheEntry).text)
	c.metrics.Evictions++
}

// Len returns the number of cached embeddings.
func (c *TextCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Metrics returns a snapshot of the cache statistics.
func (c *TextCache) Metrics() CacheMetrics {
	if c == nil {
		return CacheMetrics{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.metrics
	m.Size = len(c.entries)
	return m
}

// Clear removes all entries.
func (c *TextCache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.lruList.Init()
}
