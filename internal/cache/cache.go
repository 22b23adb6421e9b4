package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/certmap/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// MappingKey derives the cache key for a question mapped against an index fingerprint.
// Mapping is deterministic per index, so the key covers every input of the outcome.
func MappingKey(fingerprint string, q model.Question) string {
	h := sha256.New()
	for _, part := range []string{fingerprint, q.ID, q.Text, q.Tag, string(q.Audience), q.NamedCategory} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "certmap:v1:" + hex.EncodeToString(h.Sum(nil))
}

// ResultCache stores QuestionMappingResult values on top of a byte cache
type ResultCache struct {
	backend Cache
	ttl     time.Duration
}

// NewResultCache wraps backend; ttl 0 defers to the backend default
func NewResultCache(backend Cache, ttl time.Duration) *ResultCache {
	return &ResultCache{backend: backend, ttl: ttl}
}

// Get returns the cached result for q, if any
func (c *ResultCache) Get(fingerprint string, q model.Question) (model.QuestionMappingResult, bool) {
	data, ok := c.backend.Get(MappingKey(fingerprint, q))
	if !ok {
		return model.QuestionMappingResult{}, false
	}

	var result model.QuestionMappingResult
	if err := json.Unmarshal(data, &result); err != nil {
		return model.QuestionMappingResult{}, false
	}
	return result, true
}

// Put stores the result for q
func (c *ResultCache) Put(fingerprint string, q model.Question, result model.QuestionMappingResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal mapping result: %w", err)
	}
	return c.backend.Set(MappingKey(fingerprint, q), data, c.ttl)
}
