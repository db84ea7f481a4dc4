package memory

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tokimonsterAI/agent/internal/storage"
)

// DefaultCacheSize bounds the number of entries kept by CacheStore.
const DefaultCacheSize = 1024

// CacheStore is a bounded in-memory implementation of storage.CacheStore.
// The least recently used entry is evicted once size is reached.
type CacheStore struct {
	cache *lru.Cache[string, []byte]
}

// NewCacheStore creates a new in-memory cache holding at most size entries.
func NewCacheStore(size int) (*CacheStore, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &CacheStore{cache: cache}, nil
}

// Compile-time interface check.
var _ storage.CacheStore = (*CacheStore)(nil)

// Get returns the cached value. Returns ErrNotFound if the key is absent.
func (s *CacheStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set stores value under key.
func (s *CacheStore) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return storage.ErrInvalidInput
	}
	v := make([]byte, len(value))
	copy(v, value)
	s.cache.Add(key, v)
	return nil
}

// Len returns the number of cached entries.
func (s *CacheStore) Len() int {
	return s.cache.Len()
}
