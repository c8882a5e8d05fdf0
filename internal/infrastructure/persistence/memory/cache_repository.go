// Package memory provides in-memory cache repository implementation
package memory

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/Aethermaxx/ChefCulina/internal/ports/outbound"
)

const defaultTTL = 24 * time.Hour

// CacheItem represents a cached item
type CacheItem struct {
	Value     []byte
	ExpiresAt time.Time
}

func (i CacheItem) expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// CacheRepository implements in-memory cache repository
type CacheRepository struct {
	data  map[string]CacheItem
	mutex sync.Mutex
	stop  chan struct{}
	once  sync.Once
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// NewCacheRepository creates a new in-memory cache repository. Expired
// entries are swept every cleanupInterval until Close is called.
func NewCacheRepository(cleanupInterval time.Duration) *CacheRepository {
	repo := &CacheRepository{
		data: make(map[string]CacheItem),
		stop: make(chan struct{}),
	}

	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	go repo.cleanup(cleanupInterval)

	return repo
}

// Get retrieves a value from cache
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	item, exists := r.data[key]
	if !exists {
		return nil, outbound.ErrCacheMiss
	}

	if item.expired(time.Now()) {
		delete(r.data, key)
		return nil, outbound.ErrCacheMiss
	}

	return item.Value, nil
}

// Set stores a value in cache with TTL
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if ttl <= 0 {
		ttl = defaultTTL
	}

	r.data[key] = CacheItem{
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes a key from cache
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.data, key)
	return nil
}

// Exists checks if a key exists in cache
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	item, exists := r.data[key]
	if !exists {
		return false, nil
	}

	if item.expired(time.Now()) {
		delete(r.data, key)
		return false, nil
	}

	return true, nil
}

// Increment increments a counter. The expiry is set when the counter is
// created and kept on later increments.
func (r *CacheRepository) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now()
	if ttl <= 0 {
		ttl = defaultTTL
	}

	item, exists := r.data[key]
	value := int64(1)
	expiresAt := now.Add(ttl)

	if exists && !item.expired(now) && len(item.Value) == 8 {
		value = int64(binary.BigEndian.Uint64(item.Value)) + 1
		expiresAt = item.ExpiresAt
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(value))
	r.data[key] = CacheItem{Value: buf, ExpiresAt: expiresAt}

	return value, nil
}

// Len returns the number of stored entries, expired ones included.
func (r *CacheRepository) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.data)
}

// Close stops the cleanup goroutine.
func (r *CacheRepository) Close() error {
	r.once.Do(func() { close(r.stop) })
	return nil
}

// cleanup removes expired items
func (r *CacheRepository) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.stop:
			return
		}
	}
}

func (r *CacheRepository) sweep() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now()
	for key, item := range r.data {
		if item.expired(now) {
			delete(r.data, key)
		}
	}
}
