package pagecache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryItem struct {
	value  []byte
	expiry time.Time
}

// MemoryBackend is an in-process Backend. Expired items are treated as
// missing and dropped by RemoveExpired.
type MemoryBackend struct {
	data sync.Map
	Now  func() time.Time
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates an empty in-process backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{Now: time.Now}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.data.Load(key)
	if !ok {
		return nil, false, nil
	}
	item := v.(memoryItem)
	if !item.expiry.After(m.Now()) {
		m.data.Delete(key)
		return nil, false, nil
	}
	return item.value, true, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.data.Store(key, memoryItem{value: value, expiry: m.Now().Add(ttl)})
	return nil
}

func (m *MemoryBackend) DeletePrefix(_ context.Context, prefix string) error {
	m.data.Range(func(k, _ any) bool {
		if strings.HasPrefix(k.(string), prefix) {
			m.data.Delete(k)
		}
		return true
	})
	return nil
}

// RemoveExpired drops expired items.
func (m *MemoryBackend) RemoveExpired() {
	now := m.Now()
	m.data.Range(func(k, v any) bool {
		if !v.(memoryItem).expiry.After(now) {
			m.data.Delete(k)
		}
		return true
	})
}

// Janitor calls RemoveExpired every interval until ctx is done.
func (m *MemoryBackend) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.RemoveExpired()
		}
	}
}
