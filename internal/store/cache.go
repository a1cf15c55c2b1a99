// Package store provides the in-process caches that sit in front of the
// durable SQLite layer: ingested documents keyed by id and guidance insight
// sets keyed by document id. Both are safe for concurrent use and follow
// last-write-wins semantics.
package store

import (
	"sync"

	"earnings-ai/internal/model"
)

// DocumentCache holds fully ingested documents, embeddings included.
type DocumentCache struct {
	mu   sync.RWMutex
	docs map[string]*model.Document
}

// NewDocumentCache creates an empty document cache.
func NewDocumentCache() *DocumentCache {
	return &DocumentCache{docs: make(map[string]*model.Document)}
}

// Get returns the cached document for id, or false if absent.
func (c *DocumentCache) Get(id string) (*model.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.docs[id]
	return doc, ok
}

// Put stores a document, replacing any previous entry for the same id.
func (c *DocumentCache) Put(doc *model.Document) {
	if doc == nil || doc.ID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[doc.ID] = doc
}

// Invalidate removes the cached document for id, if any.
func (c *DocumentCache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.docs, id)
}

// IDs returns the ids of all cached documents, in no particular order.
func (c *DocumentCache) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.docs))
	for id := range c.docs {
		ids = append(ids, id)
	}
	return ids
}

// Len reports the number of cached documents.
func (c *DocumentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// GuidanceCache holds enriched guidance entries per document.
type GuidanceCache struct {
	mu      sync.RWMutex
	entries map[string][]model.GuidanceEntry
}

// NewGuidanceCache creates an empty guidance cache.
func NewGuidanceCache() *GuidanceCache {
	return &GuidanceCache{entries: make(map[string][]model.GuidanceEntry)}
}

// Get returns the cached guidance set for a document. The second return is
// false when no set has been stored, which is distinct from a stored empty
// set: an empty set means enrichment ran and found nothing.
func (c *GuidanceCache) Get(docID string) ([]model.GuidanceEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entries, ok := c.entries[docID]
	return entries, ok
}

// Put stores the guidance set for a document, replacing any previous set.
func (c *GuidanceCache) Put(docID string, entries []model.GuidanceEntry) {
	if docID == "" {
		return
	}
	if entries == nil {
		entries = []model.GuidanceEntry{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[docID] = entries
}

// Invalidate removes the cached guidance set for a document, forcing the
// next read through to the durable layer or a fresh enrichment.
func (c *GuidanceCache) Invalidate(docID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, docID)
}
