package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memObject struct {
	data        []byte
	contentType string
	meta        map[string]string
}

// MemoryStore keeps objects in a map. Used by tests and local development
// when no S3 bucket is configured. Fault hooks let tests simulate backend
// failures on individual operations.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject

	putErr    error
	deleteErr error
	signErr   error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memObject)}
}

// FailPuts makes every subsequent Put return err. Pass nil to heal.
func (m *MemoryStore) FailPuts(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putErr = err
}

// FailDeletes makes every subsequent Delete return err. Pass nil to heal.
func (m *MemoryStore) FailDeletes(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteErr = err
}

// FailSigns makes every subsequent SignGet return err. Pass nil to heal.
func (m *MemoryStore) FailSigns(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signErr = err
}

func (m *MemoryStore) Put(ctx context.Context, key string, body []byte, contentType string, meta map[string]string) (*PutResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return nil, m.putErr
	}

	data := make([]byte, len(body))
	copy(data, body)
	m.objects[key] = memObject{data: data, contentType: contentType, meta: meta}

	return &PutResult{Key: key, Size: int64(len(body)), ETag: fmt.Sprintf("mem-%d", len(body))}, nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) SignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.signErr != nil {
		return "", m.signErr
	}
	if _, ok := m.objects[key]; !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return fmt.Sprintf("memory://%s?expires=%d", key, time.Now().Add(ttl).Unix()), nil
}

// Get returns a stored object's bytes. Test helper.
func (m *MemoryStore) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, false
	}
	return obj.data, true
}

// Len reports how many live objects the store holds. Test helper.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
