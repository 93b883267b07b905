package store

import (
	"sync"
)

// MemShard is the in-memory shard used by tests and by the indexer before a
// backing file exists.
type MemShard struct {
	mu     sync.RWMutex
	meta   map[string][]byte
	docs   map[string][]byte
	active bool
}

func NewMemShard() *MemShard {
	return &MemShard{
		meta:   make(map[string][]byte),
		docs:   make(map[string][]byte),
		active: true,
	}
}

func (ms *MemShard) Metadata(key string) ([]byte, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	v, ok := ms.meta[key]
	if !ok {
		return nil, nil
	}
	return cloneBytes(v), nil
}

func (ms *MemShard) SetMetadata(key string, value []byte) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.meta[key] = cloneBytes(value)
	return nil
}

func (ms *MemShard) PutDocument(idTerm string, artifact []byte) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.docs[idTerm] = cloneBytes(artifact)
	return nil
}

func (ms *MemShard) GetDocument(idTerm string) ([]byte, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	v, ok := ms.docs[idTerm]
	if !ok {
		return nil, nil
	}
	return cloneBytes(v), nil
}

func (ms *MemShard) DocCount() (uint64, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return uint64(len(ms.docs)), nil
}

func (ms *MemShard) Active() bool {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.active
}

// SetActive flips the shard's write availability.
func (ms *MemShard) SetActive(active bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.active = active
}

func (ms *MemShard) Close() error {
	return nil
}
