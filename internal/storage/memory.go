package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNoSuchObject is returned by MemoryStore.Get for missing names.
var ErrNoSuchObject = errors.New("no such object")

type memoryObject struct {
	data        []byte
	contentType string
	createdAt   time.Time
}

// MemoryStore is an in-memory ObjectStore used by tests. Error fields, when
// set, are returned by the corresponding call to emulate provider failures.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string]memoryObject

	ListErr    error
	PutErr     error
	RemoveErr  error
	PresignErr error
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]map[string]memoryObject)}
}

func (m *MemoryStore) EnsureBucket(ctx context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[bucket]; !ok {
		m.buckets[bucket] = make(map[string]memoryObject)
	}
	return nil
}

func (m *MemoryStore) List(ctx context.Context, bucket, search string) ([]ObjectInfo, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var objects []ObjectInfo
	for name, obj := range m.buckets[bucket] {
		if search != "" && !strings.Contains(name, search) {
			continue
		}
		objects = append(objects, ObjectInfo{
			Name:      name,
			Size:      int64(len(obj.data)),
			CreatedAt: obj.createdAt,
		})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })
	return objects, nil
}

func (m *MemoryStore) Put(ctx context.Context, bucket, name string, body io.Reader, size int64, contentType string) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[bucket]; !ok {
		m.buckets[bucket] = make(map[string]memoryObject)
	}
	// Upsert: a second put of the same name silently replaces the first.
	m.buckets[bucket][name] = memoryObject{
		data:        data,
		contentType: contentType,
		createdAt:   time.Now().UTC(),
	}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, bucket, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.buckets[bucket][name]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoSuchObject, bucket, name)
	}
	out := make([]byte, len(obj.data))
	copy(out, obj.data)
	return out, nil
}

func (m *MemoryStore) Remove(ctx context.Context, bucket, name string) error {
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Removing an absent name is not an error, matching the provider's
	// idempotent delete.
	delete(m.buckets[bucket], name)
	return nil
}

func (m *MemoryStore) PresignGet(ctx context.Context, bucket, name string, ttl time.Duration) (string, error) {
	if m.PresignErr != nil {
		return "", m.PresignErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.buckets[bucket][name]; !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrNoSuchObject, bucket, name)
	}
	expires := time.Now().Add(ttl).Unix()
	return fmt.Sprintf("memory://%s/%s?expires=%d", bucket, name, expires), nil
}
