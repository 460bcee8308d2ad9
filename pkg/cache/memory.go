package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps JSON payloads in process on top of go-cache. Expired
// entries are invisible to reads and swept every cleanupInterval.
type MemoryStore struct {
	items *gocache.Cache
}

const cleanupInterval = time.Minute

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (m *MemoryStore) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	// go-cache 把 0 当作默认过期时间，这里统一为永不过期
	if expiration <= 0 {
		expiration = gocache.NoExpiration
	}
	m.items.Set(key, data, expiration)
	return nil
}

func (m *MemoryStore) GetJSON(ctx context.Context, key string, dest interface{}) error {
	cached, ok := m.items.Get(key)
	if !ok {
		return ErrCacheMiss
	}
	data, ok := cached.([]byte)
	if !ok {
		m.items.Delete(key)
		return ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		m.items.Delete(key)
	}
	return nil
}

func (m *MemoryStore) Close() error {
	m.items.Flush()
	return nil
}
